package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/recruitboard/internal/metrics"
	"github.com/hitoshi/recruitboard/internal/middleware"
	"github.com/hitoshi/recruitboard/internal/model"
)

const (
	testSessionID = "valid-session"
	testCSRFToken = "test-csrf-token"
)

type routerFixture struct {
	handler  http.Handler
	actions  *mockActionService
	settings *mockSettingsService
}

func newTestRouter(t *testing.T) *routerFixture {
	t.Helper()

	reg := prometheus.NewRegistry()
	rl := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(1000))
	t.Cleanup(rl.Stop)

	actions := &mockActionService{}
	settings := &mockSettingsService{}
	deps := &RouterDeps{
		SessionFinder: &mockSessionFinder{sessions: map[string]*model.Session{
			testSessionID: {ID: testSessionID, CompanyUserID: "cu-1", ExpiresAt: time.Now().Add(time.Hour)},
		}},
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       rl,
		Metrics:           metrics.NewCollector(reg),
		HealthChecker:     &mockHealthChecker{},
		MetricsHandler:    metrics.SetupMetricsRoute(reg),
		TaskService:       &mockTaskService{},
		ActionService:     actions,
		SettingsService:   settings,
	}
	return &routerFixture{handler: NewRouter(deps), actions: actions, settings: settings}
}

func (f *routerFixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func withSession(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: "session_id", Value: testSessionID})
	return req
}

func withCSRF(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: "csrf_token", Value: testCSRFToken})
	req.Header.Set("X-CSRF-Token", testCSRFToken)
	return req
}

func TestRouter_Health(t *testing.T) {
	f := newTestRouter(t)

	w := f.do(httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header should be set")
	}
}

func TestRouter_Metrics(t *testing.T) {
	f := newTestRouter(t)

	f.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	w := f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "recruitboard_http_status_total") {
		t.Errorf("metrics body does not contain http responses counter:\n%s", w.Body.String())
	}
}

func TestRouter_CSRFTokenEndpoint(t *testing.T) {
	f := newTestRouter(t)

	w := f.do(httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var body map[string]string
	json.NewDecoder(w.Body).Decode(&body)
	if len(body["token"]) != 64 {
		t.Errorf("token length = %d, want 64", len(body["token"]))
	}
}

func TestRouter_TasksRequireSession(t *testing.T) {
	f := newTestRouter(t)

	w := f.do(httptest.NewRequest(http.MethodGet, "/api/company/tasks", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("without session: status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	w = f.do(withSession(httptest.NewRequest(http.MethodGet, "/api/company/tasks", nil)))
	if w.Code != http.StatusOK {
		t.Errorf("with session: status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestRouter_UnknownSession_Returns401(t *testing.T) {
	f := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/company/tasks", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "expired-or-unknown"})

	if w := f.do(req); w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestRouter_StateChangingRoutesRequireCSRF(t *testing.T) {
	routes := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodPost, "/api/messages/msg-1/read", ""},
		{http.MethodPost, "/api/applications/app-1/responded", ""},
		{http.MethodPut, "/api/applications/app-1/interview-result", `{"result":"PASSED"}`},
		{http.MethodPut, "/api/company/settings/task_digest_enabled", `{"value":"true"}`},
	}

	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			f := newTestRouter(t)

			w := f.do(withSession(httptest.NewRequest(rt.method, rt.path, strings.NewReader(rt.body))))
			if w.Code != http.StatusForbidden {
				t.Errorf("without csrf: status = %d, want %d", w.Code, http.StatusForbidden)
			}
		})
	}
}

func TestRouter_MarkMessageRead_RoutesID(t *testing.T) {
	f := newTestRouter(t)
	var gotID string
	f.actions.markReadFn = func(ctx context.Context, companyUserID, messageID string) error {
		gotID = messageID
		return nil
	}

	w := f.do(withCSRF(withSession(httptest.NewRequest(http.MethodPost, "/api/messages/msg-42/read", nil))))

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if gotID != "msg-42" {
		t.Errorf("messageID = %q, want msg-42", gotID)
	}
}

func TestRouter_RecordInterviewResult_RoutesID(t *testing.T) {
	f := newTestRouter(t)
	var gotID, gotResult string
	f.actions.interviewFn = func(ctx context.Context, companyUserID, applicationID, result string) error {
		gotID, gotResult = applicationID, result
		return nil
	}

	req := httptest.NewRequest(http.MethodPut, "/api/applications/app-7/interview-result", strings.NewReader(`{"result":"REJECTED"}`))
	w := f.do(withCSRF(withSession(req)))

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if gotID != "app-7" || gotResult != "REJECTED" {
		t.Errorf("got (%q, %q)", gotID, gotResult)
	}
}

func TestRouter_Settings_StaffCannotWrite(t *testing.T) {
	f := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPut, "/api/company/settings/task_digest_enabled", strings.NewReader(`{"value":"true"}`))
	w := f.do(withCSRF(withSession(req)))

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestRouter_Settings_ReadRoutesKey(t *testing.T) {
	f := newTestRouter(t)
	f.settings.values = map[string]string{"company-1/task_digest_enabled": "false"}

	w := f.do(withSession(httptest.NewRequest(http.MethodGet, "/api/company/settings/task_digest_enabled", nil)))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var body settingResponse
	json.NewDecoder(w.Body).Decode(&body)
	if body.Key != "task_digest_enabled" || body.Value != "false" {
		t.Errorf("body = %+v", body)
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	f := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/company/tasks", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := f.do(req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}
