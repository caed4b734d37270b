package lmsapi_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"gitlab.com/assessment-grader.net/internal/adapter/lmsapi"
	"gitlab.com/assessment-grader.net/internal/adapter/logging"
	"gitlab.com/assessment-grader.net/internal/domain"
	"gitlab.com/assessment-grader.net/internal/static/errs"
)

func newClient(srv *httptest.Server) *lmsapi.Client {
	httpClient := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "tkn"}))
	return lmsapi.NewClient(srv.URL+"/", httpClient, logging.NewNopLogger())
}

func TestFetchAssessment(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "bare", body: `{"_id":"a1","title":"Midterm","startTime":"2026-03-01T10:00:00.000Z","duration":90,"status":"active","questions":[{"_id":"q1","testCases":[{"input":"1","output":"2","isPublic":true}]}]}`},
		{name: "wrapped", body: `{"assessment":{"_id":"a1","title":"Midterm","startTime":"2026-03-01T10:00:00.000Z","duration":90,"status":"active","questions":[{"_id":"q1","testCases":[{"input":"1","output":"2","isPublic":true}]}]}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet || r.URL.Path != "/api/assessments/a1" {
					t.Errorf("unexpected call %s %s", r.Method, r.URL.Path)
				}
				if r.Header.Get("Authorization") != "Bearer tkn" {
					t.Errorf("missing bearer token")
				}
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			a, err := newClient(srv).FetchAssessment(context.Background(), "a1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if a.Status != domain.AssessmentStatusActive || a.Duration != 90 {
				t.Fatalf("unexpected assessment: %+v", a)
			}
			want := time.Date(2026, 3, 1, 11, 30, 0, 0, time.UTC)
			if !a.EndTime().Equal(want) {
				t.Fatalf("expected end %v, got %v", want, a.EndTime())
			}
			if len(a.Questions) != 1 || len(a.Questions[0].TestCases) != 1 || !a.Questions[0].TestCases[0].IsPublic {
				t.Fatalf("unexpected questions: %+v", a.Questions)
			}
		})
	}
}

func TestFetchAssessmentError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newClient(srv).FetchAssessment(context.Background(), "a1")
	var fetchErr *errs.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if fetchErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, fetchErr.StatusCode)
	}
}

func TestExpireAttempts(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Method != http.MethodPatch || r.URL.Path != "/api/assessments/a1/expire-timer" {
			t.Errorf("unexpected call %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"updatedCount":7}`))
	}))
	defer srv.Close()

	res, err := newClient(srv).ExpireAttempts(context.Background(), "a1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.UpdatedCount != 7 || calls != 1 {
		t.Fatalf("unexpected result %+v after %d calls", res, calls)
	}
}

func TestExpireAttemptsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newClient(srv).ExpireAttempts(context.Background(), "a1")
	var expErr *errs.ExpirationTransportError
	if !errors.As(err, &expErr) {
		t.Fatalf("expected ExpirationTransportError, got %v", err)
	}
	if expErr.StatusCode != http.StatusInternalServerError || expErr.AssessmentID != "a1" {
		t.Fatalf("unexpected error: %+v", expErr)
	}
}
