package grading

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"gitlab.com/assessment-grader.net/internal/core/ports/primary"
	"gitlab.com/assessment-grader.net/internal/core/services/assessment"
	"gitlab.com/assessment-grader.net/internal/core/services/grading"
	"gitlab.com/assessment-grader.net/internal/domain"
	"gitlab.com/assessment-grader.net/internal/handlers"
	"gitlab.com/assessment-grader.net/internal/handlers/response"
)

// GradingHandler handles code run requests
type GradingHandler struct {
	gradingService    grading.IGradingService
	assessmentService assessment.IAssessmentService
	logger            primary.Logger
}

// NewGradingHandler creates a new grading handler
func NewGradingHandler(gradingService grading.IGradingService, assessmentService assessment.IAssessmentService, logger primary.Logger) *GradingHandler {
	return &GradingHandler{
		gradingService:    gradingService,
		assessmentService: assessmentService,
		logger:            logger,
	}
}

// RegisterRoutes registers the API routes for GradingHandler on an authenticated router
func (h *GradingHandler) RegisterRoutes(router *mux.Router, mw *handlers.MiddlewareProvider) {
	router.Handle("/api/assessments/{assessmentId}/questions/{questionId}/run",
		mw.RequirePermission(domain.PermissionGrade, h.RunQuestion)).Methods("POST")
	router.Handle("/api/grading/run",
		mw.RequirePermission(domain.PermissionGrade, h.Grade)).Methods("POST")
	router.Handle("/api/grading/runs/{runId}",
		mw.RequirePermission(domain.PermissionGrade, h.GetRun)).Methods("GET")
}

// liftWriteDeadline lets a run outlast the server write timeout. Sequential
// runs take up to one execution timeout per test case; the request context
// and the per-call timeouts still bound them.
func (h *GradingHandler) liftWriteDeadline(w http.ResponseWriter) {
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.logger.Warn("Failed to lift write deadline", "error", err)
	}
}

// RunQuestion grades code against a question of a fetched assessment
func (h *GradingHandler) RunQuestion(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	h.liftWriteDeadline(w)

	var req RunQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode request", "error", err)
		handlers.ResponseError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	run, err := h.assessmentService.RunQuestion(r.Context(), vars["assessmentId"], vars["questionId"], req.Code, string(req.Language))
	if err != nil {
		h.logger.Error("Failed to run question", "assessmentId", vars["assessmentId"], "questionId", vars["questionId"], "error", err)
		response.WriteError(w, response.FromError(err))
		return
	}

	handlers.ResponseWithJson(w, http.StatusOK, run)
}

// Grade grades code against the test cases in the request body
func (h *GradingHandler) Grade(w http.ResponseWriter, r *http.Request) {
	h.liftWriteDeadline(w)
	var req GradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Error("Failed to decode request", "error", err)
		handlers.ResponseError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	run, err := h.gradingService.GradeAndRecord(r.Context(), &req.Question, req.Code, string(req.Language))
	if err != nil {
		h.logger.Error("Failed to grade", "questionId", req.Question.ID, "error", err)
		response.WriteError(w, response.FromError(err))
		return
	}

	handlers.ResponseWithJson(w, http.StatusOK, run)
}

// GetRun returns a recorded grading run
func (h *GradingHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	runID, err := uuid.Parse(mux.Vars(r)["runId"])
	if err != nil {
		handlers.ResponseError(w, "Invalid run ID", http.StatusBadRequest)
		return
	}

	run, err := h.gradingService.GetRun(r.Context(), runID)
	if err != nil {
		response.WriteError(w, response.FromError(err))
		return
	}
	if run == nil {
		handlers.ResponseError(w, "Run not found", http.StatusNotFound)
		return
	}

	handlers.ResponseWithJson(w, http.StatusOK, run)
}
