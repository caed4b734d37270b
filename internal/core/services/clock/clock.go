// Package clock tracks the time window of one active assessment and expires
// its in-progress attempts once the window has elapsed.
package clock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"gitlab.com/assessment-grader.net/internal/core/ports/primary"
	"gitlab.com/assessment-grader.net/internal/core/ports/secondary"
	"gitlab.com/assessment-grader.net/internal/domain"
)

// State of an assessment clock
type State string

const (
	StateIdle     State = "IDLE"
	StateCounting State = "COUNTING"
	StateExpired  State = "EXPIRED"
	StateStopped  State = "STOPPED"
)

// Snapshot is a point in time view of a clock
type Snapshot struct {
	SessionID    uuid.UUID     `json:"sessionId"`
	AssessmentID string        `json:"assessmentId"`
	State        State         `json:"state"`
	Remaining    time.Duration `json:"-"`
	EndTime      *time.Time    `json:"endTime,omitempty"`
	Notice       string        `json:"notice,omitempty"`
	UpdatedCount *int          `json:"updatedCount,omitempty"`
	StoppedAt    *time.Time    `json:"stoppedAt,omitempty"`
}

// RemainingSeconds rounds the remaining time up to whole seconds.
func (s Snapshot) RemainingSeconds() int64 {
	return int64((s.Remaining + time.Second - 1) / time.Second)
}

// Option configures an AssessmentClock
type Option func(*AssessmentClock)

// WithNow replaces the wall clock
func WithNow(now func() time.Time) Option {
	return func(c *AssessmentClock) {
		c.now = now
	}
}

// WithTickInterval sets the countdown interval
func WithTickInterval(d time.Duration) Option {
	return func(c *AssessmentClock) {
		if d > 0 {
			c.tick = d
		}
	}
}

// WithExpireTimeout bounds the expire-timer call
func WithExpireTimeout(d time.Duration) Option {
	return func(c *AssessmentClock) {
		if d > 0 {
			c.expireTimeout = d
		}
	}
}

// WithExpiryGuard makes the expiration conditional on a persisted flag
func WithExpiryGuard(guard secondary.ExpiryGuard) Option {
	return func(c *AssessmentClock) {
		c.guard = guard
	}
}

// WithSessionID sets the token identifying this viewing session
func WithSessionID(id uuid.UUID) Option {
	return func(c *AssessmentClock) {
		c.sessionID = id
	}
}

// WithStateListener is called on every state change, outside the clock lock
func WithStateListener(fn func(from, to State)) Option {
	return func(c *AssessmentClock) {
		c.listener = fn
	}
}

// AssessmentClock counts down one assessment window
type AssessmentClock struct {
	mu            sync.Mutex
	sessionID     uuid.UUID
	assessment    domain.Assessment
	state         State
	remaining     time.Duration
	notice        string
	updatedCount  *int
	stoppedAt     *time.Time
	expirer       secondary.AttemptExpirer
	guard         secondary.ExpiryGuard
	logger        primary.Logger
	now           func() time.Time
	tick          time.Duration
	expireTimeout time.Duration
	listener      func(from, to State)

	cancelTick context.CancelFunc
	fired      bool
	closed     bool
	expireDone chan struct{}
}

// NewAssessmentClock creates an idle clock for the assessment
func NewAssessmentClock(assessment domain.Assessment, expirer secondary.AttemptExpirer, logger primary.Logger, options ...Option) *AssessmentClock {
	c := &AssessmentClock{
		sessionID:     uuid.New(),
		assessment:    assessment,
		state:         StateIdle,
		expirer:       expirer,
		logger:        logger,
		now:           time.Now,
		tick:          time.Second,
		expireTimeout: 10 * time.Second,
		expireDone:    make(chan struct{}),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// SessionID identifies the viewing session owning this clock
func (c *AssessmentClock) SessionID() uuid.UUID {
	return c.sessionID
}

// Start evaluates the schedule and begins ticking when the assessment is active
func (c *AssessmentClock) Start() {
	c.mu.Lock()
	changes, fire := c.evaluateLocked()
	assessment := c.assessment
	c.mu.Unlock()
	c.emitAndFire(changes, fire, assessment)
}

// Update replaces the schedule inputs. The running ticker is always cleared
// before a new one is started.
func (c *AssessmentClock) Update(assessment domain.Assessment) {
	c.mu.Lock()
	c.assessment = assessment
	changes, fire := c.evaluateLocked()
	c.mu.Unlock()
	c.emitAndFire(changes, fire, assessment)
}

// Stop tears the clock down. An expire call already in flight still completes.
func (c *AssessmentClock) Stop() {
	c.mu.Lock()
	c.closed = true
	c.stopTickerLocked()
	var changes []transition
	if c.state != StateExpired {
		changes = c.setStateLocked(nil, StateStopped)
	}
	c.mu.Unlock()
	c.emit(changes)
}

// Expired is closed once the expiration side effect has finished.
func (c *AssessmentClock) Expired() <-chan struct{} {
	return c.expireDone
}

// Snapshot returns the current state and remaining time
func (c *AssessmentClock) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		SessionID:    c.sessionID,
		AssessmentID: c.assessment.ID,
		State:        c.state,
		Remaining:    c.remaining,
		Notice:       c.notice,
		UpdatedCount: c.updatedCount,
		StoppedAt:    c.stoppedAt,
	}
	if c.assessment.HasSchedule() {
		end := c.assessment.EndTime()
		snap.EndTime = &end
	}
	if c.state == StateCounting {
		snap.Remaining = c.assessment.Remaining(c.now())
	}
	return snap
}

type transition struct {
	assessmentID string
	from, to     State
}

func (c *AssessmentClock) setStateLocked(changes []transition, to State) []transition {
	if c.state == to {
		return changes
	}
	changes = append(changes, transition{assessmentID: c.assessment.ID, from: c.state, to: to})
	c.state = to
	c.stoppedAt = nil
	if to == StateStopped {
		at := c.now()
		c.stoppedAt = &at
	}
	return changes
}

func (c *AssessmentClock) emit(changes []transition) {
	for _, ch := range changes {
		c.logger.Debug("Clock state changed", "sessionId", c.sessionID, "assessmentId", ch.assessmentID, "from", ch.from, "to", ch.to)
		if c.listener != nil {
			c.listener(ch.from, ch.to)
		}
	}
}

// emitAndFire reports transitions before the expiration runs, so listeners
// always see EXPIRED before STOPPED.
func (c *AssessmentClock) emitAndFire(changes []transition, fire bool, assessment domain.Assessment) {
	c.emit(changes)
	if fire {
		go c.expire(assessment)
	}
}

func (c *AssessmentClock) stopTickerLocked() {
	if c.cancelTick != nil {
		c.cancelTick()
		c.cancelTick = nil
	}
}

// evaluateLocked applies the schedule. fire is true when the window has
// already elapsed and the caller must run the expiration.
func (c *AssessmentClock) evaluateLocked() (changes []transition, fire bool) {
	c.stopTickerLocked()
	if c.closed || c.fired {
		return nil, false
	}

	if c.assessment.Status != domain.AssessmentStatusActive {
		c.remaining = 0
		return c.setStateLocked(changes, StateStopped), false
	}
	if !c.assessment.HasSchedule() {
		c.remaining = 0
		return c.setStateLocked(changes, StateIdle), false
	}

	c.remaining = c.assessment.Remaining(c.now())
	if c.remaining == 0 {
		changes = c.setStateLocked(changes, StateExpired)
		c.fired = true
		return changes, true
	}

	changes = c.setStateLocked(changes, StateCounting)
	ctx, cancel := context.WithCancel(context.Background())
	c.cancelTick = cancel
	go c.run(ctx, c.tick)
	return changes, false
}

func (c *AssessmentClock) run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.onTick(ctx) {
				return
			}
		}
	}
}

// onTick recomputes the remaining time from the wall clock. It returns true
// when the loop must end.
func (c *AssessmentClock) onTick(ctx context.Context) bool {
	c.mu.Lock()
	if ctx.Err() != nil || c.state != StateCounting {
		c.mu.Unlock()
		return true
	}

	c.remaining = c.assessment.Remaining(c.now())
	if c.remaining > 0 {
		c.mu.Unlock()
		return false
	}

	changes := c.setStateLocked(nil, StateExpired)
	c.fired = true
	c.stopTickerLocked()
	assessment := c.assessment
	c.mu.Unlock()
	c.emit(changes)

	c.expire(assessment)
	return true
}

// expire performs the one-time expiration and always ends in Stopped.
func (c *AssessmentClock) expire(assessment domain.Assessment) {
	defer close(c.expireDone)
	defer func() {
		c.mu.Lock()
		changes := c.setStateLocked(nil, StateStopped)
		c.mu.Unlock()
		c.emit(changes)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), c.expireTimeout)
	defer cancel()

	if assessment.TimerExpired {
		c.logger.Info("Assessment already expired, skipping expire call", "assessmentId", assessment.ID)
		return
	}

	token := c.sessionID.String()
	windowEnd := assessment.EndTime()
	guarded := false
	if c.guard != nil {
		acquired, err := c.guard.Acquire(ctx, assessment.ID, windowEnd, token)
		switch {
		case err != nil:
			c.logger.Warn("Expiry guard unavailable, expiring without it", "assessmentId", assessment.ID, "error", err)
		case !acquired:
			c.logger.Info("Assessment expired by another session", "assessmentId", assessment.ID, "sessionId", token)
			return
		default:
			guarded = true
		}
	}

	c.logger.Info("Assessment time elapsed, expiring attempts", "assessmentId", assessment.ID, "sessionId", token)
	result, err := c.expirer.ExpireAttempts(ctx, assessment.ID)
	if err != nil {
		c.logger.Error("Failed to expire attempts", "assessmentId", assessment.ID, "error", err)
		c.mu.Lock()
		c.notice = err.Error()
		c.mu.Unlock()
		if guarded {
			// let a later session try again
			if relErr := c.guard.Release(ctx, assessment.ID, windowEnd, token); relErr != nil {
				c.logger.Warn("Failed to release expiry guard", "assessmentId", assessment.ID, "error", relErr)
			}
		}
		return
	}

	count := 0
	if result != nil {
		count = result.UpdatedCount
	}
	c.logger.Info("Attempts expired", "assessmentId", assessment.ID, "updatedCount", count)
	c.mu.Lock()
	c.updatedCount = &count
	c.mu.Unlock()
}
