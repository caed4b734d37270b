package assessments

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"gitlab.com/assessment-grader.net/internal/core/ports/primary"
	"gitlab.com/assessment-grader.net/internal/core/services/assessment"
	"gitlab.com/assessment-grader.net/internal/core/services/clock"
	"gitlab.com/assessment-grader.net/internal/domain"
	"gitlab.com/assessment-grader.net/internal/handlers"
	"gitlab.com/assessment-grader.net/internal/handlers/response"
)

// SessionResponse is a clock snapshot with the remaining time in seconds
type SessionResponse struct {
	clock.Snapshot
	RemainingSeconds int64 `json:"remainingSeconds"`
}

func newSessionResponse(s clock.Snapshot) SessionResponse {
	return SessionResponse{Snapshot: s, RemainingSeconds: s.RemainingSeconds()}
}

// SessionHandler mounts and inspects assessment clock sessions
type SessionHandler struct {
	assessmentService assessment.IAssessmentService
	logger            primary.Logger
}

func NewSessionHandler(assessmentService assessment.IAssessmentService, logger primary.Logger) *SessionHandler {
	return &SessionHandler{
		assessmentService: assessmentService,
		logger:            logger,
	}
}

// RegisterRoutes registers the API routes for SessionHandler on an authenticated router
func (h *SessionHandler) RegisterRoutes(router *mux.Router, mw *handlers.MiddlewareProvider) {
	router.Handle("/api/assessments/{assessmentId}/sessions",
		mw.RequirePermission(domain.PermissionView, h.Watch)).Methods("POST")
	router.Handle("/api/assessments/{assessmentId}/refresh",
		mw.RequirePermission(domain.PermissionView, h.Refresh)).Methods("POST")
	router.Handle("/api/sessions/{sessionId}",
		mw.RequirePermission(domain.PermissionView, h.Session)).Methods("GET")
	router.Handle("/api/sessions/{sessionId}",
		mw.RequirePermission(domain.PermissionView, h.Unwatch)).Methods("DELETE")
}

func (h *SessionHandler) Watch(w http.ResponseWriter, r *http.Request) {
	assessmentID := mux.Vars(r)["assessmentId"]

	snapshot, err := h.assessmentService.Watch(r.Context(), assessmentID)
	if err != nil {
		h.logger.Error("Failed to watch assessment", "assessmentId", assessmentID, "error", err)
		response.WriteError(w, response.FromError(err))
		return
	}

	handlers.ResponseWithJson(w, http.StatusCreated, newSessionResponse(snapshot))
}

func (h *SessionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	assessmentID := mux.Vars(r)["assessmentId"]

	if err := h.assessmentService.Refresh(r.Context(), assessmentID); err != nil {
		h.logger.Error("Failed to refresh assessment", "assessmentId", assessmentID, "error", err)
		response.WriteError(w, response.FromError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) Session(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := parseSessionID(w, r)
	if !ok {
		return
	}

	snapshot, err := h.assessmentService.Session(sessionID)
	if err != nil {
		response.WriteError(w, response.FromError(err))
		return
	}

	handlers.ResponseWithJson(w, http.StatusOK, newSessionResponse(snapshot))
}

func (h *SessionHandler) Unwatch(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := parseSessionID(w, r)
	if !ok {
		return
	}

	if err := h.assessmentService.Unwatch(sessionID); err != nil {
		response.WriteError(w, response.FromError(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseSessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	sessionID, err := uuid.Parse(mux.Vars(r)["sessionId"])
	if err != nil {
		handlers.ResponseError(w, "Invalid session ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return sessionID, true
}
