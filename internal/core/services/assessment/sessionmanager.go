package assessment

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"gitlab.com/assessment-grader.net/internal/core/ports/primary"
	"gitlab.com/assessment-grader.net/internal/core/services/clock"
)

// SessionManager keeps the clocks of all mounted assessment views
type SessionManager struct {
	sessions     map[uuid.UUID]*clock.AssessmentClock
	assessmentOf map[uuid.UUID]string // sessionId -> assessmentId
	mu           sync.RWMutex
	logger       primary.Logger
}

// NewSessionManager creates a new session manager
func NewSessionManager(logger primary.Logger) *SessionManager {
	return &SessionManager{
		sessions:     make(map[uuid.UUID]*clock.AssessmentClock),
		assessmentOf: make(map[uuid.UUID]string),
		logger:       logger,
	}
}

// Register adds a clock under its session id
func (sm *SessionManager) Register(assessmentID string, c *clock.AssessmentClock) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.sessions[c.SessionID()] = c
	sm.assessmentOf[c.SessionID()] = assessmentID
}

// Remove drops a session and returns its clock
func (sm *SessionManager) Remove(sessionID uuid.UUID) (*clock.AssessmentClock, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	c, exists := sm.sessions[sessionID]
	delete(sm.sessions, sessionID)
	delete(sm.assessmentOf, sessionID)
	return c, exists
}

// Get returns the clock of a session
func (sm *SessionManager) Get(sessionID uuid.UUID) (*clock.AssessmentClock, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	c, exists := sm.sessions[sessionID]
	return c, exists
}

// SessionsOf returns the clocks mounted for an assessment
func (sm *SessionManager) SessionsOf(assessmentID string) []*clock.AssessmentClock {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	matching := make([]*clock.AssessmentClock, 0)
	for sessionID, aID := range sm.assessmentOf {
		if aID == assessmentID {
			matching = append(matching, sm.sessions[sessionID])
		}
	}
	return matching
}

// Len is the number of mounted sessions
func (sm *SessionManager) Len() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// PruneStopped drops sessions that have been stopped for longer than retention
func (sm *SessionManager) PruneStopped(now time.Time, retention time.Duration) int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	pruned := 0
	for sessionID, c := range sm.sessions {
		snap := c.Snapshot()
		if snap.State != clock.StateStopped || snap.StoppedAt == nil || now.Sub(*snap.StoppedAt) < retention {
			continue
		}
		c.Stop()
		delete(sm.sessions, sessionID)
		delete(sm.assessmentOf, sessionID)
		pruned++
	}
	return pruned
}

// StopAll unmounts every session
func (sm *SessionManager) StopAll() {
	sm.mu.Lock()
	sessions := sm.sessions
	sm.sessions = make(map[uuid.UUID]*clock.AssessmentClock)
	sm.assessmentOf = make(map[uuid.UUID]string)
	sm.mu.Unlock()

	for sessionID, c := range sessions {
		c.Stop()
		sm.logger.Debug("Clock session stopped", "sessionId", sessionID)
	}
}
