package secondary

import (
	"context"

	"gitlab.com/assessment-grader.net/internal/domain"
)

type AssessmentGateway interface {
	// FetchAssessment loads an assessment with its schedule and questions
	FetchAssessment(ctx context.Context, assessmentID string) (*domain.Assessment, error)

	// ExpireAttempts force-completes every in-progress attempt of the assessment
	ExpireAttempts(ctx context.Context, assessmentID string) (*domain.ExpireResult, error)
}

// AttemptExpirer is the part of the gateway the clock depends on
type AttemptExpirer interface {
	ExpireAttempts(ctx context.Context, assessmentID string) (*domain.ExpireResult, error)
}
