package grading_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"gitlab.com/assessment-grader.net/internal/adapter/crypto"
	"gitlab.com/assessment-grader.net/internal/adapter/logging"
	"gitlab.com/assessment-grader.net/internal/config"
	"gitlab.com/assessment-grader.net/internal/core/services/clock"
	"gitlab.com/assessment-grader.net/internal/domain"
	"gitlab.com/assessment-grader.net/internal/handlers"
	"gitlab.com/assessment-grader.net/internal/handlers/grading"
	"gitlab.com/assessment-grader.net/internal/static/errs"
)

var clockStart = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

type fakeGrading struct {
	delay        time.Duration
	lastLanguage string
	lastQuestion *domain.Question
	runs         map[uuid.UUID]*domain.GradingRun
}

func (f *fakeGrading) Grade(ctx context.Context, q *domain.Question, code string, language string) (domain.GradingReport, error) {
	return domain.GradingReport{}, nil
}

func (f *fakeGrading) GradeAndRecord(ctx context.Context, q *domain.Question, code string, language string) (*domain.GradingRun, error) {
	time.Sleep(f.delay)
	f.lastLanguage = language
	f.lastQuestion = q
	if strings.TrimSpace(code) == "" {
		return nil, errs.ErrEmptyCode
	}
	lang, _ := domain.ParseLanguage(language)
	return domain.NewGradingRun(q.ID, lang, domain.GradingReport{}, clockStart), nil
}

func (f *fakeGrading) GetRun(ctx context.Context, runID uuid.UUID) (*domain.GradingRun, error) {
	return f.runs[runID], nil
}

type fakeAssessments struct{}

func (fakeAssessments) Watch(ctx context.Context, assessmentID string) (clock.Snapshot, error) {
	return clock.Snapshot{}, nil
}
func (fakeAssessments) Unwatch(sessionID uuid.UUID) error { return nil }
func (fakeAssessments) Session(sessionID uuid.UUID) (clock.Snapshot, error) {
	return clock.Snapshot{}, nil
}
func (fakeAssessments) Refresh(ctx context.Context, assessmentID string) error { return nil }
func (fakeAssessments) RunQuestion(ctx context.Context, assessmentID, questionID, code, language string) (*domain.GradingRun, error) {
	if questionID != "q1" {
		return nil, errs.ErrQuestionNotFound
	}
	return domain.NewGradingRun(questionID, domain.LanguagePython, domain.GradingReport{}, clockStart), nil
}
func (fakeAssessments) Close() {}

func newRouter(t *testing.T, g *fakeGrading) (*mux.Router, string) {
	t.Helper()
	jwtSvc := crypto.NewJWTService(&config.JwtConfig{Secret: "secret", Issuer: "grader"}, "")
	tok, err := jwtSvc.TokenSource().Token()
	if err != nil {
		t.Fatalf("failed to mint token: %v", err)
	}

	mw := handlers.New(jwtSvc, logging.NewNopLogger())
	r := mux.NewRouter()
	api := r.NewRoute().Subrouter()
	api.Use(mw.JWTMiddleware)
	grading.NewGradingHandler(g, fakeAssessments{}, logging.NewNopLogger()).RegisterRoutes(api, mw)
	return r, "Bearer " + tok.AccessToken
}

func do(r http.Handler, method, path, auth, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Authorization", auth)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestGradeInlineQuestion(t *testing.T) {
	g := &fakeGrading{}
	r, auth := newRouter(t, g)

	body := `{"question":{"_id":"q9","testCases":[{"input":"1","output":"1","isPublic":true}]},"code":"print(1)","language":71}`
	rec := do(r, http.MethodPost, "/api/grading/run", auth, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if g.lastLanguage != "71" {
		t.Fatalf("expected legacy id to be passed through, got %q", g.lastLanguage)
	}
	if g.lastQuestion == nil || g.lastQuestion.ID != "q9" || len(g.lastQuestion.TestCases) != 1 {
		t.Fatalf("unexpected question: %+v", g.lastQuestion)
	}

	var run domain.GradingRun
	if err := json.NewDecoder(rec.Body).Decode(&run); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if run.QuestionID != "q9" {
		t.Fatalf("expected question q9, got %q", run.QuestionID)
	}
}

func TestGradeRejectsEmptyCode(t *testing.T) {
	r, auth := newRouter(t, &fakeGrading{})
	rec := do(r, http.MethodPost, "/api/grading/run", auth, `{"question":{},"code":"  ","language":"python"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestRunQuestion(t *testing.T) {
	r, auth := newRouter(t, &fakeGrading{})

	rec := do(r, http.MethodPost, "/api/assessments/a1/questions/q1/run", auth, `{"code":"x","language":"python"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, rec.Code)
	}

	rec = do(r, http.MethodPost, "/api/assessments/a1/questions/nope/run", auth, `{"code":"x","language":"python"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestGetRun(t *testing.T) {
	stored := domain.NewGradingRun("q1", domain.LanguageC, domain.GradingReport{}, clockStart)
	r, auth := newRouter(t, &fakeGrading{runs: map[uuid.UUID]*domain.GradingRun{stored.ID: stored}})

	tests := []struct {
		name string
		path string
		want int
	}{
		{"stored", "/api/grading/runs/" + stored.ID.String(), http.StatusOK},
		{"unknown", "/api/grading/runs/" + uuid.NewString(), http.StatusNotFound},
		{"malformed", "/api/grading/runs/not-a-uuid", http.StatusBadRequest},
	}
	for _, tt := range tests {
		if rec := do(r, http.MethodGet, tt.path, auth, ""); rec.Code != tt.want {
			t.Fatalf("%s: expected %d, got %d", tt.name, tt.want, rec.Code)
		}
	}
}

func TestUnauthenticated(t *testing.T) {
	r, _ := newRouter(t, &fakeGrading{})
	if rec := do(r, http.MethodPost, "/api/grading/run", "", `{}`); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestGradeOutlastsServerWriteTimeout(t *testing.T) {
	r, auth := newRouter(t, &fakeGrading{delay: 300 * time.Millisecond})
	srv := httptest.NewUnstartedServer(r)
	srv.Config.WriteTimeout = 50 * time.Millisecond
	srv.Start()
	defer srv.Close()

	body := `{"question":{"_id":"q1","testCases":[{"input":"1","output":"1"}]},"code":"print(1)","language":"python"}`
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/grading/run", strings.NewReader(body))
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Authorization", auth)

	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("expected a response after a slow run, got %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected %d, got %d", http.StatusOK, resp.StatusCode)
	}
	var run domain.GradingRun
	if err := json.NewDecoder(resp.Body).Decode(&run); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if run.QuestionID != "q1" {
		t.Fatalf("expected question q1, got %q", run.QuestionID)
	}
}
