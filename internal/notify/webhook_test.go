package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func TestClient_Send_PostsJSON(t *testing.T) {
	generated := time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC)
	var got Digest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("HTTPメソッド = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if ua := r.Header.Get("User-Agent"); ua != userAgent {
			t.Errorf("User-Agent = %q", ua)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("リクエストボディのデコードに失敗: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewClient(server.Client(), newTestLogger(&buf))

	err := c.Send(context.Background(), server.URL, Digest{
		CompanyAccountID:   "company-1",
		GeneratedAt:        generated,
		UnreadApplications: 2,
		Items: []DigestItem{
			{Kind: "application", ID: "app-1", CandidateName: "山田 花子", Since: generated.Add(-50 * time.Hour)},
		},
	})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if got.CompanyAccountID != "company-1" || got.UnreadApplications != 2 || len(got.Items) != 1 {
		t.Errorf("received digest = %+v", got)
	}
	if !got.GeneratedAt.Equal(generated) {
		t.Errorf("GeneratedAt = %v, want %v", got.GeneratedAt, generated)
	}
}

func TestClient_Send_NilItemsEncodedAsEmptyArray(t *testing.T) {
	var raw map[string]json.RawMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&raw)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewClient(server.Client(), newTestLogger(&bytes.Buffer{}))
	if err := c.Send(context.Background(), server.URL, Digest{CompanyAccountID: "company-1"}); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if string(raw["items"]) != "[]" {
		t.Errorf("items = %s, want []", raw["items"])
	}
}

func TestClient_Send_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("upstream exploded"))
	}))
	defer server.Close()

	var buf bytes.Buffer
	c := NewClient(server.Client(), newTestLogger(&buf))

	err := c.Send(context.Background(), server.URL, Digest{CompanyAccountID: "company-1"})
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("error = %v, want status code", err)
	}
	if !strings.Contains(buf.String(), "upstream exploded") {
		t.Errorf("expected response body in log, got %s", buf.String())
	}
}

func TestClient_Send_ContextCanceled(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	// server.Close はハンドラーの終了を待つため、先に解放する
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := NewClient(server.Client(), newTestLogger(&bytes.Buffer{}))
	if err := c.Send(ctx, server.URL, Digest{}); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestClient_Send_InvalidURL(t *testing.T) {
	c := NewClient(http.DefaultClient, newTestLogger(&bytes.Buffer{}))
	if err := c.Send(context.Background(), "://bad", Digest{}); err == nil {
		t.Fatal("expected error for invalid URL")
	}
}
