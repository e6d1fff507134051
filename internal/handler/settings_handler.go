package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/recruitboard/internal/action"
	"github.com/hitoshi/recruitboard/internal/middleware"
	"github.com/hitoshi/recruitboard/internal/model"
)

// SettingsServiceInterface は企業設定ハンドラーが必要とするサービスインターフェース。
type SettingsServiceInterface interface {
	Get(ctx context.Context, companyAccountID, key string) (string, bool, error)
	Set(ctx context.Context, companyAccountID, key, value string) error
}

// ActorResolver は担当者の所属企業と閲覧範囲を解決するインターフェース。
type ActorResolver interface {
	ResolveActor(ctx context.Context, companyUserID string) (action.Actor, error)
}

// SettingsHandler は企業設定のHTTPハンドラー。
type SettingsHandler struct {
	actors   ActorResolver
	settings SettingsServiceInterface
}

// NewSettingsHandler はSettingsHandlerを生成する。
func NewSettingsHandler(actors ActorResolver, settings SettingsServiceInterface) *SettingsHandler {
	return &SettingsHandler{actors: actors, settings: settings}
}

type settingResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type settingRequest struct {
	Value *string `json:"value"`
}

// GetSetting は所属企業の設定値を返す。
// GET /api/company/settings/{key}
func (h *SettingsHandler) GetSetting(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.resolve(w, r)
	if !ok {
		return
	}

	key := chi.URLParam(r, "key")
	value, found, err := h.settings.Get(r.Context(), actor.CompanyAccountID, key)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if !found {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewSettingNotFoundError(key))
		return
	}

	writeJSON(w, http.StatusOK, settingResponse{Key: key, Value: value})
}

// PutSetting は所属企業の設定値を更新する。管理者権限が必要。
// PUT /api/company/settings/{key}
func (h *SettingsHandler) PutSetting(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.resolve(w, r)
	if !ok {
		return
	}
	if !actor.Scope.IsAdministrator() {
		middleware.WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
		return
	}

	var req settingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Value == nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	key := chi.URLParam(r, "key")
	if err := h.settings.Set(r.Context(), actor.CompanyAccountID, key, *req.Value); err != nil {
		handleServiceError(w, r, err)
		return
	}

	value, _, err := h.settings.Get(r.Context(), actor.CompanyAccountID, key)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settingResponse{Key: key, Value: value})
}

func (h *SettingsHandler) resolve(w http.ResponseWriter, r *http.Request) (action.Actor, bool) {
	userID, ok := companyUserID(w, r)
	if !ok {
		return action.Actor{}, false
	}
	actor, err := h.actors.ResolveActor(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return action.Actor{}, false
	}
	return actor, true
}
