package quizupdates

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"

	"gitlab.com/assessment-grader.net/internal/core/ports/primary"
	"gitlab.com/assessment-grader.net/internal/core/ports/secondary"
)

var _ secondary.QuizUpdateFeed = (*Feed)(nil)

// Feed reads "quiz updated" broadcasts from a Redis channel
type Feed struct {
	redisClient redis.UniversalClient
	channel     string
	logger      primary.Logger
}

// NewFeed creates a new Redis quiz update feed
func NewFeed(redisClient redis.UniversalClient, channel string, logger primary.Logger) *Feed {
	return &Feed{
		redisClient: redisClient,
		channel:     channel,
		logger:      logger,
	}
}

// Subscribe delivers the ids of updated assessments until ctx is done
func (f *Feed) Subscribe(ctx context.Context) (<-chan string, error) {
	pubsub := f.redisClient.Subscribe(ctx, f.channel)
	// wait for the subscription confirmation so no message is lost
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", f.channel, err)
	}

	out := make(chan string)
	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				id := parseAssessmentID(msg.Payload)
				if id == "" {
					f.logger.Warn("Ignoring quiz update without assessment id", "payload", msg.Payload)
					continue
				}
				select {
				case out <- id:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	f.logger.Info("Subscribed to quiz updates", "channel", f.channel)
	return out, nil
}

// parseAssessmentID accepts a bare id or {"assessmentId": "..."}.
func parseAssessmentID(payload string) string {
	payload = strings.TrimSpace(payload)
	if strings.HasPrefix(payload, "{") {
		var msg struct {
			AssessmentID string `json:"assessmentId"`
			ID           string `json:"_id"`
		}
		if err := json.Unmarshal([]byte(payload), &msg); err != nil {
			return ""
		}
		if msg.AssessmentID != "" {
			return msg.AssessmentID
		}
		return msg.ID
	}
	return payload
}
