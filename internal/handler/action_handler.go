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

// ActionServiceInterface は更新操作ハンドラーが必要とするサービスインターフェース。
type ActionServiceInterface interface {
	MarkMessageRead(ctx context.Context, companyUserID, messageID string) error
	MarkApplicationResponded(ctx context.Context, companyUserID, applicationID string) error
	RecordInterviewResult(ctx context.Context, companyUserID, applicationID, result string) error
	ResolveActor(ctx context.Context, companyUserID string) (action.Actor, error)
}

// ActionHandler はメッセージ・応募に対する更新操作のHTTPハンドラー。
type ActionHandler struct {
	service ActionServiceInterface
}

// NewActionHandler はActionHandlerを生成する。
func NewActionHandler(service ActionServiceInterface) *ActionHandler {
	return &ActionHandler{service: service}
}

// interviewResultRequest は面接結果登録リクエストのボディ。
type interviewResultRequest struct {
	Result string `json:"result"`
}

// MarkMessageRead はメッセージを既読にする。
// POST /api/messages/{id}/read
func (h *ActionHandler) MarkMessageRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := companyUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.MarkMessageRead(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// MarkApplicationResponded は応募を対応済みにする。
// POST /api/applications/{id}/responded
func (h *ActionHandler) MarkApplicationResponded(w http.ResponseWriter, r *http.Request) {
	userID, ok := companyUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.MarkApplicationResponded(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RecordInterviewResult は面接結果を登録する。
// PUT /api/applications/{id}/interview-result
func (h *ActionHandler) RecordInterviewResult(w http.ResponseWriter, r *http.Request) {
	userID, ok := companyUserID(w, r)
	if !ok {
		return
	}

	var req interviewResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	if err := h.service.RecordInterviewResult(r.Context(), userID, chi.URLParam(r, "id"), req.Result); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
