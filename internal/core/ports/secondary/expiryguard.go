package secondary

import (
	"context"
	"time"
)

type ExpiryGuard interface {
	// Acquire marks the window of the assessment ending at windowEnd as expired
	// on behalf of token. It returns false when another session already did.
	Acquire(ctx context.Context, assessmentID string, windowEnd time.Time, token string) (bool, error)

	// Release clears the mark so a later session may retry.
	Release(ctx context.Context, assessmentID string, windowEnd time.Time, token string) error
}
