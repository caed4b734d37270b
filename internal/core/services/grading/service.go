package grading

import (
	"context"

	"github.com/google/uuid"

	"gitlab.com/assessment-grader.net/internal/domain"
)

// IGradingService defines the interface for grading code against a question
type IGradingService interface {
	// Grade runs code against every test case of the question
	Grade(ctx context.Context, question *domain.Question, code string, language string) (domain.GradingReport, error)

	// GradeAndRecord grades and stores the run when a repository is configured
	GradeAndRecord(ctx context.Context, question *domain.Question, code string, language string) (*domain.GradingRun, error)

	// GetRun retrieves a recorded run
	GetRun(ctx context.Context, runID uuid.UUID) (*domain.GradingRun, error)
}
