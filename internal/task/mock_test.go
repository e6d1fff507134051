package task

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/hitoshi/recruitboard/internal/model"
	"github.com/hitoshi/recruitboard/internal/permission"
	"github.com/hitoshi/recruitboard/internal/repository"
)

// mockTaskRepo は関数フィールドで振る舞いを差し替えるTaskRepositoryモック。
type mockTaskRepo struct {
	mu    sync.Mutex
	calls map[string]int

	listPostingsFn  func(ctx context.Context, companyAccountID string) ([]model.JobPosting, error)
	listAppsFn      func(ctx context.Context, companyAccountID string, filter repository.GroupFilter) ([]model.Application, error)
	listMessagesFn  func(ctx context.Context, companyAccountID string, groupIDs []string) ([]model.Message, error)
	listInterviewFn func(ctx context.Context, companyAccountID string, filter repository.GroupFilter, before time.Time) ([]model.Application, error)
}

func (m *mockTaskRepo) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = map[string]int{}
	}
	m.calls[name]++
}

func (m *mockTaskRepo) callCount(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[name]
}

func (m *mockTaskRepo) ListActiveJobPostings(ctx context.Context, companyAccountID string) ([]model.JobPosting, error) {
	m.record(SourceJobPostings)
	if m.listPostingsFn == nil {
		return nil, nil
	}
	return m.listPostingsFn(ctx, companyAccountID)
}

func (m *mockTaskRepo) ListApplications(ctx context.Context, companyAccountID string, filter repository.GroupFilter) ([]model.Application, error) {
	m.record(SourceApplications)
	if m.listAppsFn == nil {
		return nil, nil
	}
	return m.listAppsFn(ctx, companyAccountID, filter)
}

func (m *mockTaskRepo) ListUnreadCandidateMessages(ctx context.Context, companyAccountID string, groupIDs []string) ([]model.Message, error) {
	m.record(SourceMessages)
	if m.listMessagesFn == nil {
		return nil, nil
	}
	return m.listMessagesFn(ctx, companyAccountID, groupIDs)
}

func (m *mockTaskRepo) ListInterviewPending(ctx context.Context, companyAccountID string, filter repository.GroupFilter, before time.Time) ([]model.Application, error) {
	m.record(SourceInterviewPending)
	if m.listInterviewFn == nil {
		return nil, nil
	}
	return m.listInterviewFn(ctx, companyAccountID, filter, before)
}

// memoryTaskRepo はクエリ条件を再現するインメモリのTaskRepository。
// 権限による絞り込みの性質を検証するために使う。
type memoryTaskRepo struct {
	companyID    string
	companyGroup []string
	postings     []model.JobPosting
	apps         []model.Application
	msgs         []model.Message
}

func (r *memoryTaskRepo) inFilter(groupID string, filter repository.GroupFilter) bool {
	if filter.Unrestricted {
		return slices.Contains(r.companyGroup, groupID)
	}
	return slices.Contains(filter.GroupIDs, groupID)
}

func (r *memoryTaskRepo) ListActiveJobPostings(_ context.Context, companyAccountID string) ([]model.JobPosting, error) {
	out := []model.JobPosting{}
	if companyAccountID != r.companyID {
		return out, nil
	}
	for _, p := range r.postings {
		if slices.Contains(model.ActiveJobPostingStatuses, p.Status) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memoryTaskRepo) ListApplications(_ context.Context, companyAccountID string, filter repository.GroupFilter) ([]model.Application, error) {
	out := []model.Application{}
	if companyAccountID != r.companyID {
		return out, nil
	}
	for _, a := range r.apps {
		if r.inFilter(a.CompanyGroupID, filter) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryTaskRepo) ListUnreadCandidateMessages(_ context.Context, companyAccountID string, groupIDs []string) ([]model.Message, error) {
	out := []model.Message{}
	if companyAccountID != r.companyID {
		return out, nil
	}
	for _, m := range r.msgs {
		if m.SenderType == model.SenderCandidate && m.Status == model.MessageSent && slices.Contains(groupIDs, m.CompanyGroupID) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SentAt.After(out[j].SentAt) })
	return out, nil
}

func (r *memoryTaskRepo) ListInterviewPending(_ context.Context, companyAccountID string, filter repository.GroupFilter, before time.Time) ([]model.Application, error) {
	out := []model.Application{}
	if companyAccountID != r.companyID {
		return out, nil
	}
	for _, a := range r.apps {
		if a.Status == model.ApplicationResponded && !a.UpdatedAt.After(before) && r.inFilter(a.CompanyGroupID, filter) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// mockUserRepo はCompanyUserRepositoryモック。
type mockUserRepo struct {
	findByIDFn func(ctx context.Context, id string) (*model.CompanyUser, error)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.CompanyUser, error) {
	return m.findByIDFn(ctx, id)
}

// staticResolver は固定のScopeを返すScopeResolver。
type staticResolver struct {
	scope permission.Scope
	calls int
}

func (r *staticResolver) Resolve(context.Context, string, string) permission.Scope {
	r.calls++
	return r.scope
}

// recordingMetrics は呼び出しを記録するMetricsCollectorモック。
type recordingMetrics struct {
	mu           sync.Mutex
	fetchFailure map[string]int
	latencies    int
	fallbacks    int
}

func (m *recordingMetrics) RecordTaskFetchFailure(source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fetchFailure == nil {
		m.fetchFailure = map[string]int{}
	}
	m.fetchFailure[source]++
}

func (m *recordingMetrics) RecordAggregationLatency(time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencies++
}

func (m *recordingMetrics) RecordAggregationFallback() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbacks++
}

func (m *recordingMetrics) RecordDigestDelivery(bool)  {}
func (m *recordingMetrics) RecordSessionsPurged(int64) {}
func (m *recordingMetrics) RecordHTTPStatus(int)       {}

func (m *recordingMetrics) failures(source string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchFailure[source]
}
