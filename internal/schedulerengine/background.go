package schedulerengine

import (
	"context"
	"sync"
	"time"

	"gitlab.com/assessment-grader.net/internal/config"
	"gitlab.com/assessment-grader.net/internal/core/ports/primary"
	"gitlab.com/assessment-grader.net/internal/core/ports/secondary"
)

// Refresher reloads the schedule of mounted sessions of an assessment
type Refresher interface {
	Refresh(ctx context.Context, assessmentID string) error
}

// RefreshEngine turns "quiz updated" broadcasts into refetches
type RefreshEngine struct {
	ClockCfg  *config.ClockConfig
	feed      secondary.QuizUpdateFeed
	refresher Refresher
	logger    primary.Logger
	wg        sync.WaitGroup
}

func NewRefreshEngine(
	clockCfg *config.ClockConfig,
	feed secondary.QuizUpdateFeed,
	refresher Refresher,
	logger primary.Logger,
) *RefreshEngine {
	return &RefreshEngine{
		ClockCfg:  clockCfg,
		feed:      feed,
		refresher: refresher,
		logger:    logger,
	}
}

// Start subscribes to the feed and refreshes in the background until ctx is done
func (s *RefreshEngine) Start(ctx context.Context) error {
	updates, err := s.feed.Subscribe(ctx)
	if err != nil {
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case assessmentID, ok := <-updates:
				if !ok {
					s.logger.Warn("Quiz update feed closed")
					return
				}
				s.refresh(ctx, assessmentID)
			}
		}
	}()
	return nil
}

// Wait blocks until the background loop has exited
func (s *RefreshEngine) Wait() {
	s.wg.Wait()
}

func (s *RefreshEngine) refresh(ctx context.Context, assessmentID string) {
	timeout := 10 * time.Second
	if s.ClockCfg != nil && s.ClockCfg.ExpireCallTimeout > 0 {
		timeout = s.ClockCfg.ExpireCallTimeout
	}
	refreshCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.logger.Info("Quiz updated, refreshing sessions", "assessmentId", assessmentID)
	if err := s.refresher.Refresh(refreshCtx, assessmentID); err != nil {
		s.logger.Error("Failed to refresh sessions", "assessmentId", assessmentID, "error", err)
	}
}
