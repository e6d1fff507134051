// Package notify は企業が登録したWebhookへのタスクダイジェスト送信を提供する。
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// maxErrorBodyBytes はエラー応答のうちログに残す最大バイト数。
const maxErrorBodyBytes = 512

// userAgent はWebhook送信時のUser-Agent。
const userAgent = "recruitboard-digest/1.0"

// DigestItem はダイジェストに含める1件の要対応タスク。
type DigestItem struct {
	Kind          string    `json:"kind"`
	ID            string    `json:"id"`
	CandidateName string    `json:"candidate_name"`
	JobTitle      string    `json:"job_title"`
	GroupName     string    `json:"group_name"`
	Since         time.Time `json:"since"`
}

// Digest は1企業分のタスクダイジェスト。
type Digest struct {
	CompanyAccountID             string       `json:"company_account_id"`
	GeneratedAt                  time.Time    `json:"generated_at"`
	HasNoJobPostings             bool         `json:"has_no_job_postings"`
	UnreadApplications           int          `json:"unread_applications"`
	UnreadMessages               int          `json:"unread_messages"`
	UnregisteredInterviewResults int          `json:"unregistered_interview_results"`
	Items                        []DigestItem `json:"items"`
}

// Client はWebhookクライアント。
// httpClientにはSSRF対策済みのクライアントを渡す。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient はClientの新しいインスタンスを生成する。
func NewClient(httpClient *http.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{httpClient: httpClient, logger: logger}
}

// Send はダイジェストをJSONでPOSTする。2xx以外の応答はエラーとして返す。
func (c *Client) Send(ctx context.Context, webhookURL string, digest Digest) error {
	if digest.Items == nil {
		digest.Items = []DigestItem{}
	}
	payload, err := json.Marshal(digest)
	if err != nil {
		return fmt.Errorf("ダイジェストのエンコードに失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Webhookの呼び出しに失敗しました",
			slog.String("company_account_id", digest.CompanyAccountID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("Webhookの呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		c.logger.Error("Webhookがエラーステータスを返しました",
			slog.String("company_account_id", digest.CompanyAccountID),
			slog.Int("http_status", resp.StatusCode),
			slog.String("body", string(body)),
		)
		return fmt.Errorf("Webhookがステータス %d を返しました", resp.StatusCode)
	}

	// Keep-Aliveで接続を再利用できるよう読み切る
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodyBytes))
	return nil
}
