package secondary

import (
	"context"

	"gitlab.com/assessment-grader.net/internal/domain"
)

type CodeExecutor interface {
	// Execute runs code once against stdin
	Execute(ctx context.Context, code string, language string, stdin string) (*domain.ExecutionResult, error)
}
