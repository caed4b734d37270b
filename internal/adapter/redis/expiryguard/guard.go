package expiryguard

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"gitlab.com/assessment-grader.net/internal/core/ports/primary"
	"gitlab.com/assessment-grader.net/internal/core/ports/secondary"
)

const (
	expiredKeyPrefix = "assessment:expired:"
	defaultFlagTTL   = 7 * 24 * time.Hour
)

var _ secondary.ExpiryGuard = (*ExpiryGuard)(nil)

// releaseScript deletes the flag only when it is still owned by the token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ExpiryGuard implements the ExpiryGuard interface with Redis SETNX
type ExpiryGuard struct {
	redisClient redis.UniversalClient
	logger      primary.Logger
	ttl         time.Duration
}

// NewExpiryGuard creates a new Redis expiry guard; ttl <= 0 uses a week
func NewExpiryGuard(redisClient redis.UniversalClient, logger primary.Logger, ttl time.Duration) *ExpiryGuard {
	if ttl <= 0 {
		ttl = defaultFlagTTL
	}
	return &ExpiryGuard{
		redisClient: redisClient,
		logger:      logger,
		ttl:         ttl,
	}
}

// flagKey scopes the flag to one window so a rescheduled assessment expires again
func flagKey(assessmentID string, windowEnd time.Time) string {
	return fmt.Sprintf("%s%s:%d", expiredKeyPrefix, assessmentID, windowEnd.Unix())
}

// Acquire sets the expired flag if nobody holds it yet
func (g *ExpiryGuard) Acquire(ctx context.Context, assessmentID string, windowEnd time.Time, token string) (bool, error) {
	acquired, err := g.redisClient.SetNX(ctx, flagKey(assessmentID, windowEnd), token, g.ttl).Result()
	if err != nil {
		g.logger.Error("Failed to set expired flag", "assessmentId", assessmentID, "error", err)
		return false, fmt.Errorf("failed to set expired flag: %w", err)
	}
	if !acquired {
		g.logger.Debug("Expired flag already held", "assessmentId", assessmentID, "windowEnd", windowEnd)
	}
	return acquired, nil
}

// Release clears the flag when token still owns it
func (g *ExpiryGuard) Release(ctx context.Context, assessmentID string, windowEnd time.Time, token string) error {
	if err := releaseScript.Run(ctx, g.redisClient, []string{flagKey(assessmentID, windowEnd)}, token).Err(); err != nil && err != redis.Nil {
		g.logger.Error("Failed to release expired flag", "assessmentId", assessmentID, "error", err)
		return fmt.Errorf("failed to release expired flag: %w", err)
	}
	return nil
}
