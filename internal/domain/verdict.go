package domain

import (
	"time"

	"github.com/google/uuid"
)

// VerdictStatus represents how the execution of one test case ended
type VerdictStatus string

const (
	VerdictAccepted       VerdictStatus = "ACCEPTED"
	VerdictRuntimeError   VerdictStatus = "RUNTIME_ERROR"
	VerdictTransportError VerdictStatus = "TRANSPORT_ERROR"
	VerdictTimeout        VerdictStatus = "TIMEOUT"
)

// ExecutionErrorOutput is reported as the actual output when no result came back
const ExecutionErrorOutput = "Execution Error"

// TestVerdict is the outcome of one test case plus its evidence
type TestVerdict struct {
	TestCase     TestCase      `json:"testCase"`
	ActualOutput string        `json:"actualOutput"`
	IsCorrect    bool          `json:"isCorrect"`
	Error        *string       `json:"error"`
	Status       VerdictStatus `json:"status"`
}

// GradingReport holds one verdict per test case in declaration order
type GradingReport []TestVerdict

// Passed counts the correct verdicts.
func (r GradingReport) Passed() int {
	n := 0
	for _, v := range r {
		if v.IsCorrect {
			n++
		}
	}
	return n
}

// GradingRun is a report together with the context it was produced in
type GradingRun struct {
	ID          uuid.UUID     `json:"id" db:"id"`
	QuestionID  string        `json:"questionId" db:"question_id"`
	Language    Language      `json:"language" db:"language"`
	Passed      int           `json:"passed" db:"passed"`
	Total       int           `json:"total" db:"total"`
	StartedAt   time.Time     `json:"startedAt" db:"started_at"`
	CompletedAt time.Time     `json:"completedAt" db:"completed_at"`
	Verdicts    GradingReport `json:"verdicts" db:"-"`
}

// NewGradingRun wraps a finished report
func NewGradingRun(questionID string, language Language, report GradingReport, startedAt time.Time) *GradingRun {
	return &GradingRun{
		ID:          uuid.New(),
		QuestionID:  questionID,
		Language:    language,
		Passed:      report.Passed(),
		Total:       len(report),
		StartedAt:   startedAt,
		CompletedAt: time.Now(),
		Verdicts:    report,
	}
}
