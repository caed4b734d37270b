package response

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"gitlab.com/assessment-grader.net/internal/static/errs"
)

type ErrorMessage struct {
	Message    string `json:"message"`
	StatusCode int    `json:"status_code"`
}

// FromError maps service errors to the status code exposed to clients
func FromError(err error) ErrorMessage {
	var fetchErr *errs.FetchError
	switch {
	case errors.Is(err, errs.ErrEmptyCode), errors.Is(err, errs.ErrUnsupportedLanguage), errors.Is(err, errs.ErrMissingQuestion):
		return ErrorMessage{Message: err.Error(), StatusCode: http.StatusBadRequest}
	case errors.Is(err, errs.ErrQuestionNotFound), errors.Is(err, errs.ErrSessionNotFound):
		return ErrorMessage{Message: err.Error(), StatusCode: http.StatusNotFound}
	case errors.As(err, &fetchErr):
		if fetchErr.StatusCode == http.StatusNotFound {
			return ErrorMessage{Message: fetchErr.Error(), StatusCode: http.StatusNotFound}
		}
		return ErrorMessage{Message: fetchErr.Error(), StatusCode: http.StatusBadGateway}
	case errors.Is(err, context.Canceled):
		return ErrorMessage{Message: "request cancelled", StatusCode: 499}
	default:
		return ErrorMessage{Message: "internal error", StatusCode: http.StatusInternalServerError}
	}
}

func WriteError(w http.ResponseWriter, err ErrorMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.StatusCode)
	_ = json.NewEncoder(w).Encode(err)
}
