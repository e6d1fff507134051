// Package task は企業ダッシュボード向けのタスク集計を提供する。
//
// 求人・応募・メッセージ・面接結果未登録の4種類のレコードを並行に取得し、
// 経過時間で「新着」「要対応」に分類したうえで1つの結果にまとめる。
package task

import "time"

// ApplicationTaskItem はタスク一覧に表示する応募の要約。
type ApplicationTaskItem struct {
	ID            string
	CandidateID   string
	CandidateName string
	JobPostingID  string
	JobTitle      string
	GroupName     string
	CreatedAt     time.Time
	ElapsedHours  int
}

// MessageTaskItem はタスク一覧に表示する未読メッセージの要約。
// Preview はタグを除去して切り詰めた本文。
type MessageTaskItem struct {
	ID            string
	RoomID        string
	CandidateName string
	JobTitle      string
	GroupName     string
	Preview       string
	SentAt        time.Time
	ElapsedHours  int
}

// InterviewTaskItem は面接結果が未登録の応募の要約。
type InterviewTaskItem struct {
	ApplicationID string
	CandidateID   string
	CandidateName string
	JobTitle      string
	GroupName     string
	RespondedAt   time.Time
	ElapsedDays   int
}

// CompanyTaskData はダッシュボードに表示するタスク集計結果。
// 各スライスは最大 MaxDisplayItems 件で、nilにはならない。
type CompanyTaskData struct {
	HasNoJobPostings bool

	HasNewApplication bool
	NewApplications   []ApplicationTaskItem

	HasUnreadApplication bool
	UnreadApplications   []ApplicationTaskItem

	HasNewMessage bool
	NewMessages   []MessageTaskItem

	HasUnreadMessage bool
	UnreadMessages   []MessageTaskItem

	HasUnregisteredInterviewResult bool
	UnregisteredInterviewResults   []InterviewTaskItem
}

// DefaultCompanyTaskData は全フラグがfalseで全リストが空の結果を返す。
// 企業が特定できない場合や集計中の予期しない失敗時に使用する。
func DefaultCompanyTaskData() CompanyTaskData {
	return CompanyTaskData{
		NewApplications:              []ApplicationTaskItem{},
		UnreadApplications:           []ApplicationTaskItem{},
		NewMessages:                  []MessageTaskItem{},
		UnreadMessages:               []MessageTaskItem{},
		UnregisteredInterviewResults: []InterviewTaskItem{},
	}
}

// HasOverdue は要対応のタスクが1件でもあるかを返す。
// ダイジェスト通知の送信判定に使う。
func (d CompanyTaskData) HasOverdue() bool {
	return d.HasUnreadApplication || d.HasUnreadMessage || d.HasUnregisteredInterviewResult
}
