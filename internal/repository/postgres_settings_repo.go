package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/hitoshi/recruitboard/internal/model"
)

// PostgresSettingsRepo はPostgreSQLを使用した企業設定リポジトリ。
type PostgresSettingsRepo struct {
	db *sqlx.DB
}

// NewPostgresSettingsRepo はPostgresSettingsRepoを生成する。
func NewPostgresSettingsRepo(db *sqlx.DB) *PostgresSettingsRepo {
	return &PostgresSettingsRepo{db: db}
}

// Find は企業の設定を取得する。未登録の場合はnilを返す。
func (r *PostgresSettingsRepo) Find(ctx context.Context, companyAccountID, key string) (*model.CompanySetting, error) {
	var setting model.CompanySetting
	err := r.db.GetContext(ctx, &setting,
		`SELECT id, company_account_id, key, value, updated_at
		 FROM company_settings
		 WHERE company_account_id = $1 AND key = $2`,
		companyAccountID, key,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("企業設定の取得に失敗しました: %w", err)
	}
	return &setting, nil
}

// Upsert は設定を冪等に登録する。既存の行がある場合はvalueとupdated_atのみ更新する。
func (r *PostgresSettingsRepo) Upsert(ctx context.Context, setting *model.CompanySetting) error {
	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO company_settings (id, company_account_id, key, value, updated_at)
		 VALUES (:id, :company_account_id, :key, :value, :updated_at)
		 ON CONFLICT (company_account_id, key)
		 DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`,
		setting,
	)
	if err != nil {
		return fmt.Errorf("企業設定の保存に失敗しました: %w", err)
	}
	return nil
}

// ListCompanyIDsByValue は指定キーの値がvalueである企業アカウントIDを返す。
func (r *PostgresSettingsRepo) ListCompanyIDsByValue(ctx context.Context, key, value string) ([]string, error) {
	ids := []string{}
	err := r.db.SelectContext(ctx, &ids,
		`SELECT company_account_id FROM company_settings
		 WHERE key = $1 AND value = $2
		 ORDER BY company_account_id`,
		key, value,
	)
	if err != nil {
		return nil, fmt.Errorf("企業設定の検索に失敗しました: %w", err)
	}
	return ids, nil
}

// compile-time interface check
var _ SettingsRepository = (*PostgresSettingsRepo)(nil)
