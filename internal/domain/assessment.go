package domain

import "time"

// AssessmentStatus represents the lifecycle status of an assessment
type AssessmentStatus string

const (
	AssessmentStatusDraft     AssessmentStatus = "draft"
	AssessmentStatusActive    AssessmentStatus = "active"
	AssessmentStatusCompleted AssessmentStatus = "completed"
)

// Assessment is the part of an assessment record the clock and grader read
type Assessment struct {
	ID           string           `json:"_id"`
	Title        string           `json:"title"`
	StartTime    *time.Time       `json:"startTime"`
	Duration     int              `json:"duration"` // minutes
	Status       AssessmentStatus `json:"status"`
	TimerExpired bool             `json:"timerExpired"`
	Questions    []Question       `json:"questions"`
}

// HasSchedule reports whether both start time and duration are known.
func (a *Assessment) HasSchedule() bool {
	return a.StartTime != nil && !a.StartTime.IsZero() && a.Duration > 0
}

// EndTime is derived from the start time and duration; it is never stored.
func (a *Assessment) EndTime() time.Time {
	if !a.HasSchedule() {
		return time.Time{}
	}
	return a.StartTime.Add(time.Duration(a.Duration) * time.Minute)
}

// Remaining returns the time left at now, clamped to zero.
func (a *Assessment) Remaining(now time.Time) time.Duration {
	if !a.HasSchedule() {
		return 0
	}
	left := a.EndTime().Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// FindQuestion looks a question up by id.
func (a *Assessment) FindQuestion(id string) (*Question, bool) {
	for i := range a.Questions {
		if a.Questions[i].ID == id {
			return &a.Questions[i], true
		}
	}
	return nil, false
}

// ExpireResult is the backend answer to a bulk attempt expiration
type ExpireResult struct {
	UpdatedCount int `json:"updatedCount"`
}
