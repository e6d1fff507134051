// Package settings は企業単位の設定をキャッシュ経由で読み書きする。
package settings

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/recruitboard/internal/cache"
	"github.com/hitoshi/recruitboard/internal/clock"
	"github.com/hitoshi/recruitboard/internal/model"
	"github.com/hitoshi/recruitboard/internal/repository"
)

// 定義済みの設定キー
const (
	KeyTaskDigestWebhookURL = "task_digest_webhook_url"
	KeyTaskDigestEnabled    = "task_digest_enabled"
)

// IsKnownKey は定義済みの設定キーかどうかを返す。
func IsKnownKey(key string) bool {
	switch key {
	case KeyTaskDigestWebhookURL, KeyTaskDigestEnabled:
		return true
	}
	return false
}

// URLValidator はWebhook URLを検証するインターフェース。
type URLValidator interface {
	ValidateURL(rawURL string) error
}

// Entry はキャッシュに保持する設定値。未登録であることもキャッシュする。
type Entry struct {
	Value string
	Found bool
}

// DigestTarget はダイジェスト通知の送信先企業。
type DigestTarget struct {
	CompanyAccountID string
	WebhookURL       string
}

// Service は企業設定のサービス層。
type Service struct {
	repo      repository.SettingsRepository
	cache     cache.Cache[Entry]
	ttl       time.Duration
	clock     clock.Clock
	validator URLValidator
	logger    *slog.Logger

	// gens はキーごとの書き込み世代。Setより前に読んだ値でキャッシュを上書きしないために使う。
	mu   sync.Mutex
	gens map[string]uint64
}

// NewService はServiceの新しいインスタンスを生成する。
// cacheはapp側で生成したものを受け取る。
func NewService(
	repo repository.SettingsRepository,
	c cache.Cache[Entry],
	ttl time.Duration,
	clk clock.Clock,
	validator URLValidator,
	logger *slog.Logger,
) *Service {
	if clk == nil {
		clk = clock.Real{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		cache:     c,
		ttl:       ttl,
		clock:     clk,
		validator: validator,
		logger:    logger,
		gens:      map[string]uint64{},
	}
}

func cacheKey(companyAccountID, key string) string {
	return companyAccountID + "/" + key
}

// Get は設定値を返す。未登録の場合はokがfalseになる。
func (s *Service) Get(ctx context.Context, companyAccountID, key string) (string, bool, error) {
	if !IsKnownKey(key) {
		return "", false, model.NewUnknownSettingKeyError(key)
	}

	ck := cacheKey(companyAccountID, key)
	if e, ok := s.cache.Get(ck); ok {
		return e.Value, e.Found, nil
	}

	gen := s.generation(ck)
	setting, err := s.repo.Find(ctx, companyAccountID, key)
	if err != nil {
		return "", false, fmt.Errorf("設定の取得に失敗しました: %w", err)
	}

	e := Entry{}
	if setting != nil {
		e = Entry{Value: setting.Value, Found: true}
	}
	s.storeIfCurrent(ck, gen, e)
	return e.Value, e.Found, nil
}

// Set は設定値を検証して保存し、保存した値でキャッシュを置き換える。
// 並行するGetがSet前の行を読んでいても、その値はキャッシュされない。
func (s *Service) Set(ctx context.Context, companyAccountID, key, value string) error {
	normalized, err := s.normalize(key, value)
	if err != nil {
		return err
	}

	setting := &model.CompanySetting{
		ID:               uuid.NewString(),
		CompanyAccountID: companyAccountID,
		Key:              key,
		Value:            normalized,
		UpdatedAt:        s.clock.Now(),
	}
	if err := s.repo.Upsert(ctx, setting); err != nil {
		return fmt.Errorf("設定の保存に失敗しました: %w", err)
	}
	ck := cacheKey(companyAccountID, key)
	s.mu.Lock()
	s.gens[ck]++
	s.cache.Set(ck, Entry{Value: normalized, Found: true}, s.ttl)
	s.mu.Unlock()

	s.logger.Info("企業設定を更新しました",
		slog.String("company_account_id", companyAccountID),
		slog.String("key", key),
	)
	return nil
}

func (s *Service) generation(ck string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[ck]
}

// storeIfCurrent は読み取り開始後にSetが走っていなければ値をキャッシュする。
func (s *Service) storeIfCurrent(ck string, gen uint64, e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gens[ck] != gen {
		return
	}
	s.cache.Set(ck, e, s.ttl)
}

// normalize はキーごとに値を検証し、保存形式に揃える。
func (s *Service) normalize(key, value string) (string, error) {
	switch key {
	case KeyTaskDigestEnabled:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return "", model.NewInvalidSettingValueError(key, "true または false を指定してください")
		}
		return strconv.FormatBool(b), nil
	case KeyTaskDigestWebhookURL:
		if s.validator == nil {
			return value, nil
		}
		if err := s.validator.ValidateURL(value); err != nil {
			return "", model.NewInvalidSettingValueError(key, err.Error())
		}
		return value, nil
	default:
		return "", model.NewUnknownSettingKeyError(key)
	}
}

// DigestTargets はダイジェスト通知が有効でWebhook URLが登録されている企業を返す。
func (s *Service) DigestTargets(ctx context.Context) ([]DigestTarget, error) {
	ids, err := s.repo.ListCompanyIDsByValue(ctx, KeyTaskDigestEnabled, "true")
	if err != nil {
		return nil, fmt.Errorf("ダイジェスト対象企業の取得に失敗しました: %w", err)
	}

	targets := make([]DigestTarget, 0, len(ids))
	for _, id := range ids {
		url, ok, err := s.Get(ctx, id, KeyTaskDigestWebhookURL)
		if err != nil {
			s.logger.Warn("ダイジェスト通知先URLの取得に失敗しました",
				slog.String("company_account_id", id),
				slog.String("error", err.Error()),
			)
			continue
		}
		if !ok || url == "" {
			continue
		}
		targets = append(targets, DigestTarget{CompanyAccountID: id, WebhookURL: url})
	}
	return targets, nil
}
