// Package gradingrepository stores grading runs in PostgreSQL
package gradingrepository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"gitlab.com/assessment-grader.net/internal/core/ports/primary"
	"gitlab.com/assessment-grader.net/internal/core/ports/secondary"
	"gitlab.com/assessment-grader.net/internal/domain"
	querybuilder "gitlab.com/assessment-grader.net/internal/utils"
)

var _ secondary.GradingRunRepository = (*GradingRunRepository)(nil)

// Schema creates the tables used by GradingRunRepository
const Schema = `
CREATE TABLE IF NOT EXISTS grading_runs (
	id           UUID PRIMARY KEY,
	question_id  TEXT        NOT NULL,
	language     TEXT        NOT NULL,
	passed       INTEGER     NOT NULL,
	total        INTEGER     NOT NULL,
	started_at   TIMESTAMPTZ NOT NULL,
	completed_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS grading_verdicts (
	run_id          UUID    NOT NULL REFERENCES grading_runs (id) ON DELETE CASCADE,
	position        INTEGER NOT NULL,
	input           TEXT    NOT NULL,
	expected_output TEXT    NOT NULL,
	actual_output   TEXT    NOT NULL,
	is_correct      BOOLEAN NOT NULL,
	status          TEXT    NOT NULL,
	error           TEXT,
	PRIMARY KEY (run_id, position)
);
`

var verdictColumns = []string{
	"run_id", "position", "input", "expected_output", "actual_output", "is_correct", "status", "error",
}

type verdictRow struct {
	Position       int            `db:"position"`
	Input          string         `db:"input"`
	ExpectedOutput string         `db:"expected_output"`
	ActualOutput   string         `db:"actual_output"`
	IsCorrect      bool           `db:"is_correct"`
	Status         string         `db:"status"`
	Error          sql.NullString `db:"error"`
}

// GradingRunRepository implements secondary.GradingRunRepository with PostgreSQL
type GradingRunRepository struct {
	db     *sqlx.DB
	logger primary.Logger
}

// NewGradingRunRepository creates a new PostgreSQL grading run repository
func NewGradingRunRepository(db *sqlx.DB, logger primary.Logger) *GradingRunRepository {
	return &GradingRunRepository{
		db:     db,
		logger: logger,
	}
}

// Migrate creates the tables when they do not exist yet
func (r *GradingRunRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to migrate grading tables: %w", err)
	}
	return nil
}

// SaveRun saves the run and its verdicts in one transaction
func (r *GradingRunRepository) SaveRun(ctx context.Context, run *domain.GradingRun) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		r.logger.Error("Failed to begin transaction", "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO grading_runs (
			id, question_id, language, passed, total, started_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		run.ID,
		run.QuestionID,
		string(run.Language),
		run.Passed,
		run.Total,
		run.StartedAt,
		run.CompletedAt,
	)
	if err != nil {
		r.logger.Error("Failed to save grading run", "runId", run.ID, "error", err)
		return fmt.Errorf("failed to save grading run: %w", err)
	}

	if len(run.Verdicts) > 0 {
		builder := querybuilder.NewInsert("", "grading_verdicts").Columns(verdictColumns...)
		for i, v := range run.Verdicts {
			var verdictErr sql.NullString
			if v.Error != nil {
				verdictErr = sql.NullString{String: *v.Error, Valid: true}
			}
			builder.Values(run.ID, i, v.TestCase.Input, v.TestCase.Output, v.ActualOutput, v.IsCorrect, string(v.Status), verdictErr)
		}
		query, args, err := builder.Build()
		if err != nil {
			return fmt.Errorf("failed to build verdict insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(query), args...); err != nil {
			r.logger.Error("Failed to save verdicts", "runId", run.ID, "error", err)
			return fmt.Errorf("failed to save verdicts: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Failed to commit transaction", "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetRun retrieves a run with its verdicts in position order, nil when absent
func (r *GradingRunRepository) GetRun(ctx context.Context, runID uuid.UUID) (*domain.GradingRun, error) {
	var run domain.GradingRun
	err := r.db.GetContext(ctx, &run, `
		SELECT id, question_id, language, passed, total, started_at, completed_at
		FROM grading_runs
		WHERE id = $1
	`, runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get grading run", "runId", runID, "error", err)
		return nil, fmt.Errorf("failed to get grading run: %w", err)
	}

	var rows []verdictRow
	err = r.db.SelectContext(ctx, &rows, `
		SELECT position, input, expected_output, actual_output, is_correct, status, error
		FROM grading_verdicts
		WHERE run_id = $1
		ORDER BY position ASC
	`, runID)
	if err != nil {
		r.logger.Error("Failed to get verdicts", "runId", runID, "error", err)
		return nil, fmt.Errorf("failed to get verdicts: %w", err)
	}

	run.Verdicts = make(domain.GradingReport, 0, len(rows))
	for _, row := range rows {
		verdict := domain.TestVerdict{
			TestCase: domain.TestCase{
				Input:  row.Input,
				Output: row.ExpectedOutput,
			},
			ActualOutput: row.ActualOutput,
			IsCorrect:    row.IsCorrect,
			Status:       domain.VerdictStatus(row.Status),
		}
		if row.Error.Valid {
			msg := row.Error.String
			verdict.Error = &msg
		}
		run.Verdicts = append(run.Verdicts, verdict)
	}

	return &run, nil
}
