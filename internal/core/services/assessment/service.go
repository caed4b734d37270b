package assessment

import (
	"context"

	"github.com/google/uuid"

	"gitlab.com/assessment-grader.net/internal/core/services/clock"
	"gitlab.com/assessment-grader.net/internal/domain"
)

// IAssessmentService defines the interface behind the assessment detail view
type IAssessmentService interface {
	// Watch fetches the assessment and mounts a clock session for it
	Watch(ctx context.Context, assessmentID string) (clock.Snapshot, error)

	// Unwatch unmounts a clock session
	Unwatch(sessionID uuid.UUID) error

	// Session returns the current snapshot of a clock session
	Session(sessionID uuid.UUID) (clock.Snapshot, error)

	// Refresh refetches the assessment and pushes the schedule to its sessions
	Refresh(ctx context.Context, assessmentID string) error

	// RunQuestion grades code against one question of the assessment
	RunQuestion(ctx context.Context, assessmentID string, questionID string, code string, language string) (*domain.GradingRun, error)

	// Close unmounts all sessions
	Close()
}
