package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"

	"github.com/hitoshi/recruitboard/internal/metrics"
	"github.com/hitoshi/recruitboard/internal/model"
	"github.com/hitoshi/recruitboard/internal/permission"
	"github.com/hitoshi/recruitboard/internal/repository"
)

// 取得元の識別子。ログとメトリクスのラベルに使う。
const (
	SourceJobPostings      = "job_postings"
	SourceApplications     = "applications"
	SourceMessages         = "messages"
	SourceInterviewPending = "interview_pending"
)

// Records は4種類の取得結果をまとめたもの。各スライスはnilにならない。
type Records struct {
	JobPostings      []model.JobPosting
	Applications     []model.Application
	Messages         []model.Message
	InterviewPending []model.Application
}

// Fetcher はタスク集計に必要なレコードを取得する。
// 個々の取得が失敗しても他の取得は継続し、失敗した取得元は空として扱う。
type Fetcher struct {
	repo    repository.TaskRepository
	metrics metrics.MetricsCollector
	logger  *slog.Logger
}

// NewFetcher はFetcherを生成する。
func NewFetcher(repo repository.TaskRepository, mc metrics.MetricsCollector, logger *slog.Logger) *Fetcher {
	if mc == nil {
		mc = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{repo: repo, metrics: mc, logger: logger}
}

// FetchAll は4種類の取得を並行に実行し、全て完了するまで待つ。
func (f *Fetcher) FetchAll(ctx context.Context, companyAccountID string, scope permission.Scope, now time.Time) Records {
	var rec Records
	var wg conc.WaitGroup

	wg.Go(func() { rec.JobPostings = f.JobPostings(ctx, companyAccountID) })
	wg.Go(func() { rec.Applications = f.Applications(ctx, companyAccountID, scope) })
	wg.Go(func() { rec.Messages = f.Messages(ctx, companyAccountID, scope) })
	wg.Go(func() { rec.InterviewPending = f.InterviewPending(ctx, companyAccountID, scope, now) })

	wg.Wait()
	return rec
}

// JobPostings は掲載中の求人を返す。求人は企業全体に属するためグループでは絞り込まない。
func (f *Fetcher) JobPostings(ctx context.Context, companyAccountID string) []model.JobPosting {
	return guard(f, SourceJobPostings, companyAccountID, func() ([]model.JobPosting, error) {
		return f.repo.ListActiveJobPostings(ctx, companyAccountID)
	})
}

// Applications は閲覧範囲内の応募をcreated_at降順で返す。
// 管理者でなく閲覧可能なグループがない場合はクエリを発行しない。
func (f *Fetcher) Applications(ctx context.Context, companyAccountID string, scope permission.Scope) []model.Application {
	if !scope.IsAdministrator() && scope.IsEmpty() {
		return []model.Application{}
	}
	return guard(f, SourceApplications, companyAccountID, func() ([]model.Application, error) {
		return f.repo.ListApplications(ctx, companyAccountID, scope.GroupFilter())
	})
}

// Messages は閲覧範囲内のルームに届いた未読の候補者メッセージをsent_at降順で返す。
// 管理者であってもグループIDで絞り込む。
func (f *Fetcher) Messages(ctx context.Context, companyAccountID string, scope permission.Scope) []model.Message {
	if scope.IsEmpty() {
		return []model.Message{}
	}
	return guard(f, SourceMessages, companyAccountID, func() ([]model.Message, error) {
		return f.repo.ListUnreadCandidateMessages(ctx, companyAccountID, scope.AccessibleGroupIDs())
	})
}

// InterviewPending はRESPONDEDのまま InterviewResultThreshold 以上更新されていない応募を返す。
func (f *Fetcher) InterviewPending(ctx context.Context, companyAccountID string, scope permission.Scope, now time.Time) []model.Application {
	if !scope.IsAdministrator() && scope.IsEmpty() {
		return []model.Application{}
	}
	before := now.Add(-InterviewResultThreshold)
	return guard(f, SourceInterviewPending, companyAccountID, func() ([]model.Application, error) {
		return f.repo.ListInterviewPending(ctx, companyAccountID, scope.GroupFilter(), before)
	})
}

// guard は取得処理のエラーとpanicを吸収し、失敗時は空スライスを返す。
func guard[T any](f *Fetcher, source, companyAccountID string, fetch func() ([]T, error)) []T {
	var (
		rows []T
		err  error
		pc   panics.Catcher
	)
	pc.Try(func() { rows, err = fetch() })

	if r := pc.Recovered(); r != nil {
		f.logger.Error("タスク取得中にpanicが発生しました",
			slog.String("source", source),
			slog.String("company_account_id", companyAccountID),
			slog.Any("panic", r.Value),
		)
		f.metrics.RecordTaskFetchFailure(source)
		return []T{}
	}
	if err != nil {
		f.logger.Error("タスク取得に失敗しました",
			slog.String("source", source),
			slog.String("company_account_id", companyAccountID),
			slog.String("error", err.Error()),
		)
		f.metrics.RecordTaskFetchFailure(source)
		return []T{}
	}
	if rows == nil {
		return []T{}
	}
	return rows
}
