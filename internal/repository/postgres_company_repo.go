package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/hitoshi/recruitboard/internal/model"
)

// PostgresCompanyUserRepo はPostgreSQLを使用した企業担当者リポジトリ。
type PostgresCompanyUserRepo struct {
	db *sqlx.DB
}

// NewPostgresCompanyUserRepo はPostgresCompanyUserRepoを生成する。
func NewPostgresCompanyUserRepo(db *sqlx.DB) *PostgresCompanyUserRepo {
	return &PostgresCompanyUserRepo{db: db}
}

// FindByID は指定IDの担当者を取得する。見つからない場合はnilを返す。
func (r *PostgresCompanyUserRepo) FindByID(ctx context.Context, id string) (*model.CompanyUser, error) {
	var user model.CompanyUser
	err := r.db.GetContext(ctx, &user,
		`SELECT id, company_account_id, display_name, email
		 FROM company_users WHERE id = $1`,
		id,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("企業担当者の取得に失敗しました: %w", err)
	}
	return &user, nil
}

// PostgresPermissionRepo はPostgreSQLを使用したグループ権限リポジトリ。
type PostgresPermissionRepo struct {
	db *sqlx.DB
}

// NewPostgresPermissionRepo はPostgresPermissionRepoを生成する。
func NewPostgresPermissionRepo(db *sqlx.DB) *PostgresPermissionRepo {
	return &PostgresPermissionRepo{db: db}
}

// ListGrantsByUser は担当者に付与されたグループ権限を付与順に返す。
func (r *PostgresPermissionRepo) ListGrantsByUser(ctx context.Context, companyUserID string) ([]model.PermissionGrant, error) {
	grants := []model.PermissionGrant{}
	err := r.db.SelectContext(ctx, &grants,
		`SELECT company_user_id, company_group_id, permission_level
		 FROM company_group_permissions
		 WHERE company_user_id = $1
		 ORDER BY created_at, company_group_id`,
		companyUserID,
	)
	if err != nil {
		return nil, fmt.Errorf("グループ権限の取得に失敗しました: %w", err)
	}
	return grants, nil
}

// ListGroupIDsByCompany は企業アカウント配下の全グループIDを返す。
func (r *PostgresPermissionRepo) ListGroupIDsByCompany(ctx context.Context, companyAccountID string) ([]string, error) {
	ids := []string{}
	err := r.db.SelectContext(ctx, &ids,
		`SELECT id FROM company_groups
		 WHERE company_account_id = $1
		 ORDER BY created_at, id`,
		companyAccountID,
	)
	if err != nil {
		return nil, fmt.Errorf("企業グループの取得に失敗しました: %w", err)
	}
	return ids, nil
}

// compile-time interface checks
var (
	_ CompanyUserRepository = (*PostgresCompanyUserRepo)(nil)
	_ PermissionRepository  = (*PostgresPermissionRepo)(nil)
)
