package model

import "time"

// JobPostingStatus は求人の公開状態を表す。
type JobPostingStatus string

const (
	JobPostingDraft           JobPostingStatus = "DRAFT"
	JobPostingPendingApproval JobPostingStatus = "PENDING_APPROVAL"
	JobPostingPublished       JobPostingStatus = "PUBLISHED"
	JobPostingClosed          JobPostingStatus = "CLOSED"
)

// ActiveJobPostingStatuses は「掲載中の求人」とみなすステータスの集合。
var ActiveJobPostingStatuses = []JobPostingStatus{
	JobPostingPublished,
	JobPostingPendingApproval,
}

// JobPosting は求人を表す。タスク集計では件数の判定にのみ使用する。
type JobPosting struct {
	ID     string           `db:"id"`
	Status JobPostingStatus `db:"status"`
}

// ApplicationStatus は応募の選考状態を表す。
type ApplicationStatus string

const (
	// ApplicationSent は応募直後で企業からの初回対応待ち。
	ApplicationSent ApplicationStatus = "SENT"
	// ApplicationResponded は企業が対応済み（面接段階）で結果の登録待ち。
	ApplicationResponded ApplicationStatus = "RESPONDED"
	// ApplicationPassed は選考通過。
	ApplicationPassed ApplicationStatus = "PASSED"
	// ApplicationRejected は不採用。
	ApplicationRejected ApplicationStatus = "REJECTED"
	// ApplicationWithdrawn は候補者による辞退。
	ApplicationWithdrawn ApplicationStatus = "WITHDRAWN"
)

// Application は候補者の求人への応募を表す。
// 候補者名・求人名・グループ名は一覧表示用にJOINで取得した値。
type Application struct {
	ID                   string            `db:"id"`
	Status               ApplicationStatus `db:"status"`
	CreatedAt            time.Time         `db:"created_at"`
	UpdatedAt            time.Time         `db:"updated_at"`
	CandidateID          string            `db:"candidate_id"`
	JobPostingID         string            `db:"job_posting_id"`
	CompanyGroupID       string            `db:"company_group_id"`
	CandidateDisplayName string            `db:"candidate_display_name"`
	JobTitle             string            `db:"job_title"`
	GroupName            string            `db:"group_name"`
}

// MessageStatus はメッセージの既読状態を表す。
type MessageStatus string

const (
	MessageSent MessageStatus = "SENT"
	MessageRead MessageStatus = "READ"
)

// SenderType はメッセージの送信者種別を表す。
type SenderType string

const (
	SenderCandidate SenderType = "CANDIDATE"
	SenderCompany   SenderType = "COMPANY"
)

// Message はメッセージルーム内の1通のメッセージを表す。
type Message struct {
	ID                   string        `db:"id"`
	Content              string        `db:"content"`
	Status               MessageStatus `db:"status"`
	SenderType           SenderType    `db:"sender_type"`
	SentAt               time.Time     `db:"sent_at"`
	ReadAt               *time.Time    `db:"read_at"`
	RoomID               string        `db:"room_id"`
	CompanyGroupID       string        `db:"company_group_id"`
	CandidateDisplayName string        `db:"candidate_display_name"`
	JobTitle             string        `db:"job_title"`
	GroupName            string        `db:"group_name"`
}

// CompanySetting は企業単位のキー・バリュー設定を表す。
type CompanySetting struct {
	ID               string    `db:"id"`
	CompanyAccountID string    `db:"company_account_id"`
	Key              string    `db:"key"`
	Value            string    `db:"value"`
	UpdatedAt        time.Time `db:"updated_at"`
}
