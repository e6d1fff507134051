// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/recruitboard/internal/model"
)

// CompanyUserRepository は企業担当者データの参照インターフェース。
type CompanyUserRepository interface {
	// FindByID は指定IDの担当者を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.CompanyUser, error)
}

// PermissionRepository はグループ権限の参照インターフェース。
type PermissionRepository interface {
	// ListGrantsByUser は担当者に付与されたグループ権限をすべて返す。
	ListGrantsByUser(ctx context.Context, companyUserID string) ([]model.PermissionGrant, error)

	// ListGroupIDsByCompany は企業アカウント配下の全グループIDを返す。
	ListGroupIDsByCompany(ctx context.Context, companyAccountID string) ([]string, error)
}

// GroupFilter はグループ単位の絞り込み条件を表す。
// Unrestricted が true の場合は企業配下の全グループを対象とし、GroupIDs は無視される。
type GroupFilter struct {
	Unrestricted bool
	GroupIDs     []string
}

// TaskRepository はタスク集計用の読み取りクエリを提供する。
type TaskRepository interface {
	// ListActiveJobPostings は掲載中（PUBLISHED / PENDING_APPROVAL）の求人を返す。
	ListActiveJobPostings(ctx context.Context, companyAccountID string) ([]model.JobPosting, error)

	// ListApplications は企業の応募をcreated_at降順で返す。
	ListApplications(ctx context.Context, companyAccountID string, filter GroupFilter) ([]model.Application, error)

	// ListUnreadCandidateMessages は候補者からの未読メッセージをsent_at降順で返す。
	// ルームのグループがgroupIDsに含まれるものに限る。
	ListUnreadCandidateMessages(ctx context.Context, companyAccountID string, groupIDs []string) ([]model.Message, error)

	// ListInterviewPending はRESPONDEDのままupdated_atがbefore以前の応募をupdated_at降順で返す。
	ListInterviewPending(ctx context.Context, companyAccountID string, filter GroupFilter, before time.Time) ([]model.Application, error)
}

// ApplicationRepository は応募の更新操作を提供する。
type ApplicationRepository interface {
	// FindInGroups は指定グループに属する応募を取得する。見つからない場合はnilを返す。
	FindInGroups(ctx context.Context, id string, groupIDs []string) (*model.Application, error)

	// UpdateStatus は応募のステータスがfromの場合に限りtoへ更新する。
	// 更新した場合はtrueを返す。
	UpdateStatus(ctx context.Context, id string, from, to model.ApplicationStatus, at time.Time) (bool, error)
}

// MessageRepository はメッセージの更新操作を提供する。
type MessageRepository interface {
	// FindInGroups は指定グループのルームに属するメッセージを取得する。見つからない場合はnilを返す。
	FindInGroups(ctx context.Context, id string, groupIDs []string) (*model.Message, error)

	// MarkRead はメッセージを既読にする。既読済みの場合は何もしない。
	MarkRead(ctx context.Context, id string, at time.Time) error
}

// SettingsRepository は企業設定の永続化インターフェース。
type SettingsRepository interface {
	// Find は企業の設定を取得する。未登録の場合はnilを返す。
	Find(ctx context.Context, companyAccountID, key string) (*model.CompanySetting, error)

	// Upsert は設定を登録または更新する。
	Upsert(ctx context.Context, setting *model.CompanySetting) error

	// ListCompanyIDsByValue は指定キーの値がvalueである企業アカウントIDを返す。
	ListCompanyIDsByValue(ctx context.Context, key, value string) ([]string, error)
}

// SessionRepository はセッションデータの参照と削除を提供する。
type SessionRepository interface {
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)

	// DeleteExpired は期限切れのセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}
