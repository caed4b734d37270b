package secondary

import (
	"context"

	"github.com/google/uuid"

	"gitlab.com/assessment-grader.net/internal/domain"
)

// GradingRunRepository defines the interface for storing and retrieving grading runs
type GradingRunRepository interface {
	// SaveRun saves a run with its verdicts
	SaveRun(ctx context.Context, run *domain.GradingRun) error

	// GetRun retrieves a run by ID, nil when absent
	GetRun(ctx context.Context, runID uuid.UUID) (*domain.GradingRun, error)
}
