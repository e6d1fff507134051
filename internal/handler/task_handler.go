package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/recruitboard/internal/metrics"
	"github.com/hitoshi/recruitboard/internal/middleware"
	"github.com/hitoshi/recruitboard/internal/task"
)

// TaskServiceInterface はタスクハンドラーが必要とするサービスインターフェース。
type TaskServiceInterface interface {
	// GetCompanyTaskData は担当者の閲覧範囲でタスクを集計する。エラーは返さない。
	GetCompanyTaskData(ctx context.Context, companyUserID string) task.CompanyTaskData
}

// TaskHandler はダッシュボード向けタスク集計のHTTPハンドラー。
type TaskHandler struct {
	service TaskServiceInterface
	metrics metrics.MetricsCollector
	logger  *slog.Logger
}

// NewTaskHandler はTaskHandlerを生成する。
func NewTaskHandler(service TaskServiceInterface, mc metrics.MetricsCollector, logger *slog.Logger) *TaskHandler {
	if mc == nil {
		mc = metrics.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{service: service, metrics: mc, logger: logger}
}

// --- レスポンス型 ---

type applicationTaskResponse struct {
	ID            string    `json:"id"`
	CandidateID   string    `json:"candidate_id"`
	CandidateName string    `json:"candidate_name"`
	JobPostingID  string    `json:"job_posting_id"`
	JobTitle      string    `json:"job_title"`
	GroupName     string    `json:"group_name"`
	CreatedAt     time.Time `json:"created_at"`
	ElapsedHours  int       `json:"elapsed_hours"`
}

type messageTaskResponse struct {
	ID            string    `json:"id"`
	RoomID        string    `json:"room_id"`
	CandidateName string    `json:"candidate_name"`
	JobTitle      string    `json:"job_title"`
	GroupName     string    `json:"group_name"`
	Preview       string    `json:"preview"`
	SentAt        time.Time `json:"sent_at"`
	ElapsedHours  int       `json:"elapsed_hours"`
}

type interviewTaskResponse struct {
	ApplicationID string    `json:"application_id"`
	CandidateID   string    `json:"candidate_id"`
	CandidateName string    `json:"candidate_name"`
	JobTitle      string    `json:"job_title"`
	GroupName     string    `json:"group_name"`
	RespondedAt   time.Time `json:"responded_at"`
	ElapsedDays   int       `json:"elapsed_days"`
}

// companyTaskResponse はタスク集計のレスポンス。配列はnullにしない。
type companyTaskResponse struct {
	HasNoJobPostings               bool                      `json:"has_no_job_postings"`
	HasNewApplication              bool                      `json:"has_new_application"`
	NewApplications                []applicationTaskResponse `json:"new_applications"`
	HasUnreadApplication           bool                      `json:"has_unread_application"`
	UnreadApplications             []applicationTaskResponse `json:"unread_applications"`
	HasNewMessage                  bool                      `json:"has_new_message"`
	NewMessages                    []messageTaskResponse     `json:"new_messages"`
	HasUnreadMessage               bool                      `json:"has_unread_message"`
	UnreadMessages                 []messageTaskResponse     `json:"unread_messages"`
	HasUnregisteredInterviewResult bool                      `json:"has_unregistered_interview_result"`
	UnregisteredInterviewResults   []interviewTaskResponse   `json:"unregistered_interview_results"`
}

// GetTasks はログイン中の担当者のタスク集計を返す。
// GET /api/company/tasks
// 集計中にpanicが発生しても既定値で200を返す。
func (h *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := companyUserID(w, r)
	if !ok {
		return
	}

	data := h.aggregate(r, userID)
	writeJSON(w, http.StatusOK, toCompanyTaskResponse(data))
}

func (h *TaskHandler) aggregate(r *http.Request, userID string) (data task.CompanyTaskData) {
	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("タスク集計中にpanicが発生したため既定値を返します",
				slog.Any("panic", rec),
				slog.String("company_user_id", userID),
				slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
			)
			h.metrics.RecordAggregationFallback()
			data = task.DefaultCompanyTaskData()
		}
	}()
	return h.service.GetCompanyTaskData(r.Context(), userID)
}

func toCompanyTaskResponse(d task.CompanyTaskData) companyTaskResponse {
	return companyTaskResponse{
		HasNoJobPostings:               d.HasNoJobPostings,
		HasNewApplication:              d.HasNewApplication,
		NewApplications:                toApplicationResponses(d.NewApplications),
		HasUnreadApplication:           d.HasUnreadApplication,
		UnreadApplications:             toApplicationResponses(d.UnreadApplications),
		HasNewMessage:                  d.HasNewMessage,
		NewMessages:                    toMessageResponses(d.NewMessages),
		HasUnreadMessage:               d.HasUnreadMessage,
		UnreadMessages:                 toMessageResponses(d.UnreadMessages),
		HasUnregisteredInterviewResult: d.HasUnregisteredInterviewResult,
		UnregisteredInterviewResults:   toInterviewResponses(d.UnregisteredInterviewResults),
	}
}

func toApplicationResponses(items []task.ApplicationTaskItem) []applicationTaskResponse {
	out := make([]applicationTaskResponse, 0, len(items))
	for _, it := range items {
		out = append(out, applicationTaskResponse{
			ID:            it.ID,
			CandidateID:   it.CandidateID,
			CandidateName: it.CandidateName,
			JobPostingID:  it.JobPostingID,
			JobTitle:      it.JobTitle,
			GroupName:     it.GroupName,
			CreatedAt:     it.CreatedAt,
			ElapsedHours:  it.ElapsedHours,
		})
	}
	return out
}

func toMessageResponses(items []task.MessageTaskItem) []messageTaskResponse {
	out := make([]messageTaskResponse, 0, len(items))
	for _, it := range items {
		out = append(out, messageTaskResponse{
			ID:            it.ID,
			RoomID:        it.RoomID,
			CandidateName: it.CandidateName,
			JobTitle:      it.JobTitle,
			GroupName:     it.GroupName,
			Preview:       it.Preview,
			SentAt:        it.SentAt,
			ElapsedHours:  it.ElapsedHours,
		})
	}
	return out
}

func toInterviewResponses(items []task.InterviewTaskItem) []interviewTaskResponse {
	out := make([]interviewTaskResponse, 0, len(items))
	for _, it := range items {
		out = append(out, interviewTaskResponse{
			ApplicationID: it.ApplicationID,
			CandidateID:   it.CandidateID,
			CandidateName: it.CandidateName,
			JobTitle:      it.JobTitle,
			GroupName:     it.GroupName,
			RespondedAt:   it.RespondedAt,
			ElapsedDays:   it.ElapsedDays,
		})
	}
	return out
}
