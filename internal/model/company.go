// Package model はドメインモデルを定義する。
package model

import "time"

// CompanyAccount は採用企業のアカウントを表す。
type CompanyAccount struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
}

// CompanyGroup は企業アカウント配下のグループ（部署・拠点など）を表す。
// 求人・応募・メッセージの閲覧範囲はグループ単位で制御される。
type CompanyGroup struct {
	ID               string `db:"id"`
	CompanyAccountID string `db:"company_account_id"`
	Name             string `db:"name"`
}

// CompanyUser は企業側の担当者アカウントを表す。
type CompanyUser struct {
	ID               string `db:"id"`
	CompanyAccountID string `db:"company_account_id"`
	DisplayName      string `db:"display_name"`
	Email            string `db:"email"`
}

// PermissionLevel はグループ権限のレベルを表す。
type PermissionLevel string

const (
	// PermissionAdministrator は企業配下の全グループへのアクセスを許可する。
	PermissionAdministrator PermissionLevel = "ADMINISTRATOR"
	// PermissionScoutStaff は付与されたグループのみアクセスできる担当者権限。
	PermissionScoutStaff PermissionLevel = "SCOUT_STAFF"
)

// PermissionGrant は担当者へのグループ権限付与を表す。
type PermissionGrant struct {
	CompanyUserID   string          `db:"company_user_id"`
	CompanyGroupID  string          `db:"company_group_id"`
	PermissionLevel PermissionLevel `db:"permission_level"`
}

// Session は担当者のログインセッションを表す。
// セッションの発行は外部の認証基盤が行い、本サービスは参照のみ行う。
type Session struct {
	ID            string    `db:"id"`
	CompanyUserID string    `db:"company_user_id"`
	ExpiresAt     time.Time `db:"expires_at"`
	CreatedAt     time.Time `db:"created_at"`
}
