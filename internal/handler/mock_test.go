package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/hitoshi/recruitboard/internal/action"
	"github.com/hitoshi/recruitboard/internal/metrics"
	"github.com/hitoshi/recruitboard/internal/middleware"
	"github.com/hitoshi/recruitboard/internal/model"
	"github.com/hitoshi/recruitboard/internal/permission"
	"github.com/hitoshi/recruitboard/internal/task"
)

// --- モック定義 ---

type mockTaskService struct {
	getFn func(ctx context.Context, companyUserID string) task.CompanyTaskData
}

func (m *mockTaskService) GetCompanyTaskData(ctx context.Context, companyUserID string) task.CompanyTaskData {
	if m.getFn != nil {
		return m.getFn(ctx, companyUserID)
	}
	return task.DefaultCompanyTaskData()
}

type mockActionService struct {
	markReadFn     func(ctx context.Context, companyUserID, messageID string) error
	respondedFn    func(ctx context.Context, companyUserID, applicationID string) error
	interviewFn    func(ctx context.Context, companyUserID, applicationID, result string) error
	resolveActorFn func(ctx context.Context, companyUserID string) (action.Actor, error)
}

func (m *mockActionService) MarkMessageRead(ctx context.Context, companyUserID, messageID string) error {
	if m.markReadFn != nil {
		return m.markReadFn(ctx, companyUserID, messageID)
	}
	return nil
}

func (m *mockActionService) MarkApplicationResponded(ctx context.Context, companyUserID, applicationID string) error {
	if m.respondedFn != nil {
		return m.respondedFn(ctx, companyUserID, applicationID)
	}
	return nil
}

func (m *mockActionService) RecordInterviewResult(ctx context.Context, companyUserID, applicationID, result string) error {
	if m.interviewFn != nil {
		return m.interviewFn(ctx, companyUserID, applicationID, result)
	}
	return nil
}

func (m *mockActionService) ResolveActor(ctx context.Context, companyUserID string) (action.Actor, error) {
	if m.resolveActorFn != nil {
		return m.resolveActorFn(ctx, companyUserID)
	}
	return action.Actor{
		CompanyUserID:    companyUserID,
		CompanyAccountID: "company-1",
		Scope:            permission.NewScope(false, []string{"g-1"}),
	}, nil
}

type mockSettingsService struct {
	mu     sync.Mutex
	values map[string]string
	getFn  func(ctx context.Context, companyAccountID, key string) (string, bool, error)
	setFn  func(ctx context.Context, companyAccountID, key, value string) error
}

func (m *mockSettingsService) Get(ctx context.Context, companyAccountID, key string) (string, bool, error) {
	if m.getFn != nil {
		return m.getFn(ctx, companyAccountID, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[companyAccountID+"/"+key]
	return v, ok, nil
}

func (m *mockSettingsService) Set(ctx context.Context, companyAccountID, key, value string) error {
	if m.setFn != nil {
		return m.setFn(ctx, companyAccountID, key, value)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.values == nil {
		m.values = map[string]string{}
	}
	m.values[companyAccountID+"/"+key] = value
	return nil
}

type mockSessionFinder struct {
	sessions map[string]*model.Session
}

func (m *mockSessionFinder) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, nil
}

type mockHealthChecker struct {
	err error
}

func (m *mockHealthChecker) PingContext(ctx context.Context) error {
	return m.err
}

type fallbackMetrics struct {
	metrics.Nop
	fallbacks int
}

func (m *fallbackMetrics) RecordAggregationFallback() {
	m.fallbacks++
}

// newAuthedRequest は担当者IDをコンテキストに注入したリクエストを返す。
func newAuthedRequest(method, target, body, companyUserID string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	return req.WithContext(middleware.ContextWithCompanyUserID(req.Context(), companyUserID))
}

var testNow = time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
