package gradingrepository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"gitlab.com/assessment-grader.net/internal/adapter/logging"
	"gitlab.com/assessment-grader.net/internal/domain"
)

func newMockRepo(t *testing.T) (*GradingRunRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewGradingRunRepository(sqlx.NewDb(db, "postgres"), logging.NewNopLogger()), mock
}

func sampleRun() *domain.GradingRun {
	msg := "Traceback"
	report := domain.GradingReport{
		{TestCase: domain.TestCase{Input: "1 2", Output: "3"}, ActualOutput: "3", IsCorrect: true, Status: domain.VerdictAccepted},
		{TestCase: domain.TestCase{Input: "x", Output: "y"}, ActualOutput: "", Error: &msg, Status: domain.VerdictRuntimeError},
	}
	return domain.NewGradingRun("q1", domain.LanguagePython, report, time.Now().Add(-time.Second))
}

func TestSaveRun(t *testing.T) {
	repo, mock := newMockRepo(t)
	run := sampleRun()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO grading_runs").
		WithArgs(run.ID, "q1", "python", 1, 2, run.StartedAt, run.CompletedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO grading_verdicts (run_id, position, input, expected_output, actual_output, is_correct, status, error) VALUES ($1, $2, $3, $4, $5, $6, $7, $8), ($9, $10")).
		WithArgs(
			run.ID, 0, "1 2", "3", "3", true, "ACCEPTED", nil,
			run.ID, 1, "x", "y", "", false, "RUNTIME_ERROR", "Traceback",
		).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	if err := repo.SaveRun(context.Background(), run); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSaveRunRollsBackOnVerdictFailure(t *testing.T) {
	repo, mock := newMockRepo(t)
	run := sampleRun()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO grading_runs").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO grading_verdicts").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	if err := repo.SaveRun(context.Background(), run); err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetRun(t *testing.T) {
	repo, mock := newMockRepo(t)
	runID := uuid.New()
	started := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM grading_runs").
		WithArgs(runID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "question_id", "language", "passed", "total", "started_at", "completed_at"}).
			AddRow(runID.String(), "q1", "cpp", 1, 2, started, started.Add(time.Second)))
	mock.ExpectQuery("SELECT (.+) FROM grading_verdicts").
		WithArgs(runID).
		WillReturnRows(sqlmock.NewRows([]string{"position", "input", "expected_output", "actual_output", "is_correct", "status", "error"}).
			AddRow(0, "1", "1", "1", true, "ACCEPTED", nil).
			AddRow(1, "2", "4", "", false, "TIMEOUT", "deadline exceeded"))

	run, err := repo.GetRun(context.Background(), runID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run == nil {
		t.Fatalf("expected run")
	}
	if run.ID != runID || run.Language != domain.LanguageCpp || run.Total != 2 {
		t.Fatalf("unexpected run: %+v", run)
	}
	if len(run.Verdicts) != 2 {
		t.Fatalf("expected %d verdicts, got %d", 2, len(run.Verdicts))
	}
	if run.Verdicts[0].Error != nil || !run.Verdicts[0].IsCorrect {
		t.Fatalf("unexpected first verdict: %+v", run.Verdicts[0])
	}
	if run.Verdicts[1].Error == nil || *run.Verdicts[1].Error != "deadline exceeded" || run.Verdicts[1].Status != domain.VerdictTimeout {
		t.Fatalf("unexpected second verdict: %+v", run.Verdicts[1])
	}
}

func TestGetRunMissing(t *testing.T) {
	repo, mock := newMockRepo(t)
	runID := uuid.New()

	mock.ExpectQuery("SELECT (.+) FROM grading_runs").
		WithArgs(runID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	run, err := repo.GetRun(context.Background(), runID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run != nil {
		t.Fatalf("expected nil run, got %+v", run)
	}
}
