package task

import (
	"context"
	"log/slog"
	"time"

	"github.com/hitoshi/recruitboard/internal/clock"
	"github.com/hitoshi/recruitboard/internal/metrics"
	"github.com/hitoshi/recruitboard/internal/model"
	"github.com/hitoshi/recruitboard/internal/permission"
	"github.com/hitoshi/recruitboard/internal/repository"
	"github.com/hitoshi/recruitboard/internal/security"
)

// ScopeResolver は担当者の閲覧範囲を解決するインターフェース。
type ScopeResolver interface {
	Resolve(ctx context.Context, companyUserID, companyAccountID string) permission.Scope
}

// Service はタスク集計のサービス層。
// 集計は読み取りのみで、エラーを呼び出し元に返さない。
type Service struct {
	users     repository.CompanyUserRepository
	resolver  ScopeResolver
	fetcher   *Fetcher
	clock     clock.Clock
	sanitizer security.PreviewSanitizer
	metrics   metrics.MetricsCollector
	logger    *slog.Logger
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	users repository.CompanyUserRepository,
	resolver ScopeResolver,
	fetcher *Fetcher,
	clk clock.Clock,
	sanitizer security.PreviewSanitizer,
	mc metrics.MetricsCollector,
	logger *slog.Logger,
) *Service {
	if clk == nil {
		clk = clock.Real{}
	}
	if mc == nil {
		mc = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		users:     users,
		resolver:  resolver,
		fetcher:   fetcher,
		clock:     clk,
		sanitizer: sanitizer,
		metrics:   mc,
		logger:    logger,
	}
}

// GetCompanyTaskData は担当者の閲覧範囲でタスクを集計する。
// 担当者や所属企業が特定できない場合は既定値を返す。
func (s *Service) GetCompanyTaskData(ctx context.Context, companyUserID string) CompanyTaskData {
	if companyUserID == "" {
		return DefaultCompanyTaskData()
	}

	user, err := s.users.FindByID(ctx, companyUserID)
	if err != nil {
		s.logger.Error("企業担当者の取得に失敗しました",
			slog.String("company_user_id", companyUserID),
			slog.String("error", err.Error()),
		)
		return DefaultCompanyTaskData()
	}
	if user == nil || user.CompanyAccountID == "" {
		return DefaultCompanyTaskData()
	}

	scope := s.resolver.Resolve(ctx, user.ID, user.CompanyAccountID)
	return s.GetCompanyTaskDataForScope(ctx, user.CompanyAccountID, scope)
}

// GetCompanyTaskDataForScope は解決済みの閲覧範囲でタスクを集計する。
func (s *Service) GetCompanyTaskDataForScope(ctx context.Context, companyAccountID string, scope permission.Scope) CompanyTaskData {
	start := time.Now()
	defer func() { s.metrics.RecordAggregationLatency(time.Since(start)) }()

	now := s.clock.Now()
	rec := s.fetcher.FetchAll(ctx, companyAccountID, scope, now)
	return s.assemble(rec, now)
}

// assemble は取得結果を分類して1つの集計結果にまとめる。
func (s *Service) assemble(rec Records, now time.Time) CompanyTaskData {
	data := DefaultCompanyTaskData()

	data.HasNoJobPostings = HasNoJobPostings(rec.JobPostings)

	freshApps, overdueApps := ClassifyApplications(rec.Applications, now)
	data.NewApplications = s.applicationItems(freshApps, now)
	data.HasNewApplication = len(data.NewApplications) > 0
	data.UnreadApplications = s.applicationItems(overdueApps, now)
	data.HasUnreadApplication = len(data.UnreadApplications) > 0

	freshMsgs, overdueMsgs := ClassifyMessages(rec.Messages, now)
	data.NewMessages = s.messageItems(freshMsgs, now)
	data.HasNewMessage = len(data.NewMessages) > 0
	data.UnreadMessages = s.messageItems(overdueMsgs, now)
	data.HasUnreadMessage = len(data.UnreadMessages) > 0

	data.UnregisteredInterviewResults = s.interviewItems(ClassifyInterviewPending(rec.InterviewPending), now)
	data.HasUnregisteredInterviewResult = len(data.UnregisteredInterviewResults) > 0

	return data
}

func (s *Service) applicationItems(apps []model.Application, now time.Time) []ApplicationTaskItem {
	items := make([]ApplicationTaskItem, len(apps))
	for i, a := range apps {
		items[i] = ApplicationTaskItem{
			ID:            a.ID,
			CandidateID:   a.CandidateID,
			CandidateName: a.CandidateDisplayName,
			JobPostingID:  a.JobPostingID,
			JobTitle:      a.JobTitle,
			GroupName:     a.GroupName,
			CreatedAt:     a.CreatedAt,
			ElapsedHours:  elapsedHours(a.CreatedAt, now),
		}
	}
	return items
}

func (s *Service) messageItems(msgs []model.Message, now time.Time) []MessageTaskItem {
	items := make([]MessageTaskItem, len(msgs))
	for i, m := range msgs {
		preview := m.Content
		if s.sanitizer != nil {
			preview = s.sanitizer.Preview(m.Content, security.DefaultPreviewLength)
		}
		items[i] = MessageTaskItem{
			ID:            m.ID,
			RoomID:        m.RoomID,
			CandidateName: m.CandidateDisplayName,
			JobTitle:      m.JobTitle,
			GroupName:     m.GroupName,
			Preview:       preview,
			SentAt:        m.SentAt,
			ElapsedHours:  elapsedHours(m.SentAt, now),
		}
	}
	return items
}

func (s *Service) interviewItems(apps []model.Application, now time.Time) []InterviewTaskItem {
	items := make([]InterviewTaskItem, len(apps))
	for i, a := range apps {
		items[i] = InterviewTaskItem{
			ApplicationID: a.ID,
			CandidateID:   a.CandidateID,
			CandidateName: a.CandidateDisplayName,
			JobTitle:      a.JobTitle,
			GroupName:     a.GroupName,
			RespondedAt:   a.UpdatedAt,
			ElapsedDays:   elapsedHours(a.UpdatedAt, now) / 24,
		}
	}
	return items
}

// elapsedHours は経過時間を切り捨てた時間数で返す。未来の時刻は0。
func elapsedHours(t, now time.Time) int {
	d := now.Sub(t)
	if d < 0 {
		return 0
	}
	return int(d / time.Hour)
}
