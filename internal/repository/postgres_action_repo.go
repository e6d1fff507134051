package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/hitoshi/recruitboard/internal/model"
)

// PostgresApplicationRepo はPostgreSQLを使用した応募リポジトリ。
type PostgresApplicationRepo struct {
	db *sqlx.DB
}

// NewPostgresApplicationRepo はPostgresApplicationRepoを生成する。
func NewPostgresApplicationRepo(db *sqlx.DB) *PostgresApplicationRepo {
	return &PostgresApplicationRepo{db: db}
}

// FindInGroups は指定グループに属する応募を取得する。見つからない場合はnilを返す。
func (r *PostgresApplicationRepo) FindInGroups(ctx context.Context, id string, groupIDs []string) (*model.Application, error) {
	var app model.Application
	err := r.db.GetContext(ctx, &app,
		`SELECT`+applicationColumns+applicationJoins+`
		 WHERE a.id = $1 AND a.company_group_id = ANY($2::uuid[])`,
		id, pq.Array(groupIDs),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("応募の取得に失敗しました: %w", err)
	}
	return &app, nil
}

// UpdateStatus は応募のステータスがfromの場合に限りtoへ更新する。
// 同時に別の操作でステータスが変わっていた場合はfalseを返す。
func (r *PostgresApplicationRepo) UpdateStatus(ctx context.Context, id string, from, to model.ApplicationStatus, at time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE applications SET status = $3, updated_at = $4
		 WHERE id = $1 AND status = $2`,
		id, from, to, at,
	)
	if err != nil {
		return false, fmt.Errorf("応募ステータスの更新に失敗しました: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("応募ステータスの更新件数の取得に失敗しました: %w", err)
	}
	return n > 0, nil
}

// PostgresMessageRepo はPostgreSQLを使用したメッセージリポジトリ。
type PostgresMessageRepo struct {
	db *sqlx.DB
}

// NewPostgresMessageRepo はPostgresMessageRepoを生成する。
func NewPostgresMessageRepo(db *sqlx.DB) *PostgresMessageRepo {
	return &PostgresMessageRepo{db: db}
}

// FindInGroups は指定グループのルームに属するメッセージを取得する。見つからない場合はnilを返す。
func (r *PostgresMessageRepo) FindInGroups(ctx context.Context, id string, groupIDs []string) (*model.Message, error) {
	var msg model.Message
	err := r.db.GetContext(ctx, &msg,
		`SELECT m.id, m.content, m.status, m.sender_type, m.sent_at, m.read_at, m.room_id,
		        r.company_group_id,
		        c.display_name AS candidate_display_name,
		        COALESCE(jp.title, '') AS job_title,
		        g.name AS group_name
		 FROM messages m
		 JOIN message_rooms r ON r.id = m.room_id
		 JOIN company_groups g ON g.id = r.company_group_id
		 JOIN candidates c ON c.id = r.candidate_id
		 LEFT JOIN job_postings jp ON jp.id = r.job_posting_id
		 WHERE m.id = $1 AND r.company_group_id = ANY($2::uuid[])`,
		id, pq.Array(groupIDs),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("メッセージの取得に失敗しました: %w", err)
	}
	return &msg, nil
}

// MarkRead はメッセージを既読にする。既読済みの場合はread_atを上書きしない。
func (r *PostgresMessageRepo) MarkRead(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE messages SET status = $2, read_at = $3
		 WHERE id = $1 AND status = $4`,
		id, model.MessageRead, at, model.MessageSent,
	)
	if err != nil {
		return fmt.Errorf("メッセージの既読化に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface checks
var (
	_ ApplicationRepository = (*PostgresApplicationRepo)(nil)
	_ MessageRepository     = (*PostgresMessageRepo)(nil)
)
