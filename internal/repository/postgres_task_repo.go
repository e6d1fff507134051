package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/hitoshi/recruitboard/internal/model"
)

// applicationColumns は一覧表示用に候補者名・求人名・グループ名をJOINした応募カラム。
const applicationColumns = `
	a.id, a.status, a.created_at, a.updated_at,
	a.candidate_id, a.job_posting_id, a.company_group_id,
	c.display_name AS candidate_display_name,
	jp.title AS job_title,
	g.name AS group_name`

const applicationJoins = `
	FROM applications a
	JOIN company_groups g ON g.id = a.company_group_id
	JOIN candidates c ON c.id = a.candidate_id
	JOIN job_postings jp ON jp.id = a.job_posting_id`

// PostgresTaskRepo はPostgreSQLを使用したタスク集計用リポジトリ。
type PostgresTaskRepo struct {
	db *sqlx.DB
}

// NewPostgresTaskRepo はPostgresTaskRepoを生成する。
func NewPostgresTaskRepo(db *sqlx.DB) *PostgresTaskRepo {
	return &PostgresTaskRepo{db: db}
}

// ListActiveJobPostings は掲載中の求人を返す。グループによる絞り込みは行わない。
func (r *PostgresTaskRepo) ListActiveJobPostings(ctx context.Context, companyAccountID string) ([]model.JobPosting, error) {
	statuses := make([]string, len(model.ActiveJobPostingStatuses))
	for i, s := range model.ActiveJobPostingStatuses {
		statuses[i] = string(s)
	}

	postings := []model.JobPosting{}
	err := r.db.SelectContext(ctx, &postings,
		`SELECT id, status FROM job_postings
		 WHERE company_account_id = $1 AND status = ANY($2)`,
		companyAccountID, pq.Array(statuses),
	)
	if err != nil {
		return nil, fmt.Errorf("求人一覧の取得に失敗しました: %w", err)
	}
	return postings, nil
}

// ListApplications は企業の応募をcreated_at降順で返す。
func (r *PostgresTaskRepo) ListApplications(ctx context.Context, companyAccountID string, filter GroupFilter) ([]model.Application, error) {
	query := `SELECT` + applicationColumns + applicationJoins + `
		WHERE g.company_account_id = $1`
	args := []any{companyAccountID}
	if !filter.Unrestricted {
		query += ` AND a.company_group_id = ANY($2::uuid[])`
		args = append(args, pq.Array(filter.GroupIDs))
	}
	query += ` ORDER BY a.created_at DESC, a.id`

	apps := []model.Application{}
	if err := r.db.SelectContext(ctx, &apps, query, args...); err != nil {
		return nil, fmt.Errorf("応募一覧の取得に失敗しました: %w", err)
	}
	return apps, nil
}

// ListUnreadCandidateMessages は候補者からの未読メッセージをsent_at降順で返す。
func (r *PostgresTaskRepo) ListUnreadCandidateMessages(ctx context.Context, companyAccountID string, groupIDs []string) ([]model.Message, error) {
	msgs := []model.Message{}
	err := r.db.SelectContext(ctx, &msgs,
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
		 WHERE g.company_account_id = $1
		   AND r.company_group_id = ANY($2::uuid[])
		   AND m.sender_type = $3
		   AND m.status = $4
		 ORDER BY m.sent_at DESC, m.id`,
		companyAccountID, pq.Array(groupIDs), model.SenderCandidate, model.MessageSent,
	)
	if err != nil {
		return nil, fmt.Errorf("未読メッセージの取得に失敗しました: %w", err)
	}
	return msgs, nil
}

// ListInterviewPending はRESPONDEDのままbefore以前から更新されていない応募をupdated_at降順で返す。
func (r *PostgresTaskRepo) ListInterviewPending(ctx context.Context, companyAccountID string, filter GroupFilter, before time.Time) ([]model.Application, error) {
	query := `SELECT` + applicationColumns + applicationJoins + `
		WHERE g.company_account_id = $1
		  AND a.status = $2
		  AND a.updated_at <= $3`
	args := []any{companyAccountID, model.ApplicationResponded, before}
	if !filter.Unrestricted {
		query += ` AND a.company_group_id = ANY($4::uuid[])`
		args = append(args, pq.Array(filter.GroupIDs))
	}
	query += ` ORDER BY a.updated_at DESC, a.id`

	apps := []model.Application{}
	if err := r.db.SelectContext(ctx, &apps, query, args...); err != nil {
		return nil, fmt.Errorf("面接結果未登録の応募の取得に失敗しました: %w", err)
	}
	return apps, nil
}

// compile-time interface check
var _ TaskRepository = (*PostgresTaskRepo)(nil)
