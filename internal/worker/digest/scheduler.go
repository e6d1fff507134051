// Package digest は要対応タスクのダイジェストを企業のWebhookへ定期送信するジョブを提供する。
package digest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/recruitboard/internal/clock"
	"github.com/hitoshi/recruitboard/internal/metrics"
	"github.com/hitoshi/recruitboard/internal/notify"
	"github.com/hitoshi/recruitboard/internal/permission"
	"github.com/hitoshi/recruitboard/internal/settings"
	"github.com/hitoshi/recruitboard/internal/task"
)

// ダイジェスト項目の種別
const (
	KindApplication     = "application"
	KindMessage         = "message"
	KindInterviewResult = "interview_result"
)

// TargetLister はダイジェスト送信対象の企業を列挙するインターフェース。
type TargetLister interface {
	DigestTargets(ctx context.Context) ([]settings.DigestTarget, error)
}

// CompanyScoper は企業全体の閲覧範囲を解決するインターフェース。
type CompanyScoper interface {
	CompanyScope(ctx context.Context, companyAccountID string) permission.Scope
}

// Aggregator は閲覧範囲を指定してタスクを集計するインターフェース。
type Aggregator interface {
	GetCompanyTaskDataForScope(ctx context.Context, companyAccountID string, scope permission.Scope) task.CompanyTaskData
}

// Sender はダイジェストを送信するインターフェース。
type Sender interface {
	Send(ctx context.Context, webhookURL string, digest notify.Digest) error
}

// Scheduler はダイジェスト送信のスケジューリングと並列制御を行う。
// semaphoreパターンで同時に処理する企業数を制限する。
type Scheduler struct {
	targets        TargetLister
	scoper         CompanyScoper
	aggregator     Aggregator
	sender         Sender
	clock          clock.Clock
	metrics        metrics.MetricsCollector
	logger         *slog.Logger
	maxConcurrency int
	sendTimeout    time.Duration
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
// maxConcurrencyが0以下の場合は5、sendTimeoutが0以下の場合は10秒を使用する。
func NewScheduler(
	targets TargetLister,
	scoper CompanyScoper,
	aggregator Aggregator,
	sender Sender,
	clk clock.Clock,
	mc metrics.MetricsCollector,
	logger *slog.Logger,
	maxConcurrency int,
	sendTimeout time.Duration,
) *Scheduler {
	if maxConcurrency <= 0 {
		maxConcurrency = 5
	}
	if sendTimeout <= 0 {
		sendTimeout = 10 * time.Second
	}
	if clk == nil {
		clk = clock.Real{}
	}
	if mc == nil {
		mc = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		targets:        targets,
		scoper:         scoper,
		aggregator:     aggregator,
		sender:         sender,
		clock:          clk,
		metrics:        mc,
		logger:         logger,
		maxConcurrency: maxConcurrency,
		sendTimeout:    sendTimeout,
	}
}

// Start は指定間隔のティッカーでスケジューラを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("ダイジェストスケジューラを開始しました",
		slog.Duration("interval", interval),
		slog.Int("max_concurrency", s.maxConcurrency),
	)

	// 起動直後に1回実行
	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("ダイジェストサイクルの実行に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("ダイジェストスケジューラを停止しました")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logger.Error("ダイジェストサイクルの実行に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce は送信対象企業を1回列挙し、並列でダイジェストを送信する。
// 個別企業の送信失敗はログとメトリクスに記録し、エラーとしては返さない。
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := time.Now()

	targets, err := s.targets.DigestTargets(ctx)
	if err != nil {
		return err
	}

	if len(targets) == 0 {
		s.logger.Info("ダイジェスト送信対象の企業はありません")
		return nil
	}

	s.logger.Info("ダイジェストサイクルを開始します",
		slog.Int("company_count", len(targets)),
	)

	sem := make(chan struct{}, s.maxConcurrency)
	var wg sync.WaitGroup

	for _, target := range targets {
		wg.Add(1)
		sem <- struct{}{}

		go func(t settings.DigestTarget) {
			defer wg.Done()
			defer func() { <-sem }()

			s.deliver(ctx, t)
		}(target)
	}

	wg.Wait()

	duration := time.Since(start)
	s.logger.Info("ダイジェストサイクルが完了しました",
		slog.Int("company_count", len(targets)),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// deliver は1企業分のタスクを集計し、要対応があればダイジェストを送信する。
func (s *Scheduler) deliver(ctx context.Context, target settings.DigestTarget) {
	scope := s.scoper.CompanyScope(ctx, target.CompanyAccountID)
	if scope.IsEmpty() {
		s.logger.Warn("企業のグループが取得できないためダイジェストをスキップしました",
			slog.String("company_account_id", target.CompanyAccountID),
		)
		return
	}

	data := s.aggregator.GetCompanyTaskDataForScope(ctx, target.CompanyAccountID, scope)
	if !data.HasOverdue() {
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	defer cancel()

	err := s.sender.Send(sendCtx, target.WebhookURL, BuildDigest(target.CompanyAccountID, data, s.clock.Now()))
	s.metrics.RecordDigestDelivery(err == nil)
	if err != nil {
		s.logger.Error("ダイジェストの送信に失敗しました",
			slog.String("company_account_id", target.CompanyAccountID),
			slog.String("error", err.Error()),
		)
		return
	}

	s.logger.Info("ダイジェストを送信しました",
		slog.String("company_account_id", target.CompanyAccountID),
	)
}

// BuildDigest は集計結果から要対応タスクのみを抜き出したダイジェストを組み立てる。
// 件数は表示上限で切り詰めた後の件数。
func BuildDigest(companyAccountID string, data task.CompanyTaskData, now time.Time) notify.Digest {
	d := notify.Digest{
		CompanyAccountID:             companyAccountID,
		GeneratedAt:                  now,
		HasNoJobPostings:             data.HasNoJobPostings,
		UnreadApplications:           len(data.UnreadApplications),
		UnreadMessages:               len(data.UnreadMessages),
		UnregisteredInterviewResults: len(data.UnregisteredInterviewResults),
		Items:                        []notify.DigestItem{},
	}

	for _, a := range data.UnreadApplications {
		d.Items = append(d.Items, notify.DigestItem{
			Kind:          KindApplication,
			ID:            a.ID,
			CandidateName: a.CandidateName,
			JobTitle:      a.JobTitle,
			GroupName:     a.GroupName,
			Since:         a.CreatedAt,
		})
	}
	for _, m := range data.UnreadMessages {
		d.Items = append(d.Items, notify.DigestItem{
			Kind:          KindMessage,
			ID:            m.ID,
			CandidateName: m.CandidateName,
			JobTitle:      m.JobTitle,
			GroupName:     m.GroupName,
			Since:         m.SentAt,
		})
	}
	for _, i := range data.UnregisteredInterviewResults {
		d.Items = append(d.Items, notify.DigestItem{
			Kind:          KindInterviewResult,
			ID:            i.ApplicationID,
			CandidateName: i.CandidateName,
			JobTitle:      i.JobTitle,
			GroupName:     i.GroupName,
			Since:         i.RespondedAt,
		})
	}
	return d
}
