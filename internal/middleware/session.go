// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/hitoshi/recruitboard/internal/model"
)

const sessionCookieName = "session_id"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	companyUserIDContextKey = contextKey("company_user_id")
	requestIDContextKey     = contextKey("request_id")
	companyUserHolderKey    = contextKey("company_user_holder")
)

// companyUserHolder はアクセスログ用に認証済みの担当者IDを外側のミドルウェアへ渡す。
type companyUserHolder struct {
	id string
}

// SessionFinder はセッションの検索に必要なインターフェース。
// repository.SessionRepositoryの部分集合として定義する。
type SessionFinder interface {
	FindByID(ctx context.Context, id string) (*model.Session, error)
}

// NewSessionMiddleware はCookieのセッションIDを検証し、
// 企業担当者IDをリクエストコンテキストに注入するミドルウェアを返す。
// 未認証リクエストには401を返す。
func NewSessionMiddleware(sessionFinder SessionFinder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			session, err := sessionFinder.FindByID(r.Context(), cookie.Value)
			if err != nil {
				slog.Error("セッションの取得に失敗しました",
					slog.String("error", err.Error()),
				)
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}
			if session == nil || session.CompanyUserID == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			if h, ok := r.Context().Value(companyUserHolderKey).(*companyUserHolder); ok {
				h.id = session.CompanyUserID
			}

			ctx := ContextWithCompanyUserID(r.Context(), session.CompanyUserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CompanyUserIDFromContext はリクエストコンテキストから企業担当者IDを取得する。
// セッションミドルウェアを通過したリクエストでのみ有効。
func CompanyUserIDFromContext(ctx context.Context) (string, error) {
	id, ok := ctx.Value(companyUserIDContextKey).(string)
	if !ok || id == "" {
		return "", fmt.Errorf("company user ID not found in context")
	}
	return id, nil
}

// ContextWithCompanyUserID はコンテキストに企業担当者IDを注入する。
func ContextWithCompanyUserID(ctx context.Context, companyUserID string) context.Context {
	return context.WithValue(ctx, companyUserIDContextKey, companyUserID)
}
