package grading

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"gitlab.com/assessment-grader.net/internal/core/ports/primary"
	"gitlab.com/assessment-grader.net/internal/core/ports/secondary"
	"gitlab.com/assessment-grader.net/internal/domain"
	"gitlab.com/assessment-grader.net/internal/static/errs"
)

var _ IGradingService = (*GradingService)(nil)

// GradingService runs submitted code against test cases
type GradingService struct {
	executor    secondary.CodeExecutor
	runRepo     secondary.GradingRunRepository
	logger      primary.Logger
	concurrency int
}

// GradingOption configures a GradingService
type GradingOption func(*GradingService)

// WithConcurrency bounds the number of in-flight executions of one run
func WithConcurrency(n int) GradingOption {
	return func(s *GradingService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithRunRepository enables recording of grading runs
func WithRunRepository(repo secondary.GradingRunRepository) GradingOption {
	return func(s *GradingService) {
		s.runRepo = repo
	}
}

// NewGradingService creates a new grading service, sequential by default
func NewGradingService(executor secondary.CodeExecutor, logger primary.Logger, options ...GradingOption) *GradingService {
	s := &GradingService{
		executor:    executor,
		logger:      logger,
		concurrency: 1,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Grade runs code against every test case of the question. Per test case
// failures end up in the report; only precondition violations return an error.
func (s *GradingService) Grade(ctx context.Context, question *domain.Question, code string, language string) (domain.GradingReport, error) {
	if question == nil {
		return nil, errs.ErrMissingQuestion
	}
	if strings.TrimSpace(code) == "" {
		return nil, errs.ErrEmptyCode
	}
	if _, ok := domain.ParseLanguage(language); !ok {
		return nil, fmt.Errorf("%w: %q", errs.ErrUnsupportedLanguage, language)
	}

	testCases := question.TestCases
	report := make(domain.GradingReport, len(testCases))
	if len(testCases) == 0 {
		return report, nil
	}

	s.logger.Info("Grading question", "questionId", question.ID, "testCases", len(testCases), "language", language)

	if s.concurrency <= 1 {
		for i := range testCases {
			report[i] = s.gradeOne(ctx, testCases[i], code, language)
		}
	} else {
		s.gradeParallel(ctx, testCases, code, language, report)
	}

	s.logger.Info("Question graded", "questionId", question.ID, "passed", report.Passed(), "total", len(report))
	return report, nil
}

// gradeParallel fans test cases out to a fixed pool; each worker writes its
// verdict at the test case index so order never depends on completion.
func (s *GradingService) gradeParallel(ctx context.Context, testCases []domain.TestCase, code, language string, report domain.GradingReport) {
	workerSize := s.concurrency
	if workerSize > len(testCases) {
		workerSize = len(testCases)
	}

	idxCh := make(chan int, len(testCases))
	for i := range testCases {
		idxCh <- i
	}
	close(idxCh)

	var wg sync.WaitGroup
	wg.Add(workerSize)
	for w := 0; w < workerSize; w++ {
		go func() {
			defer wg.Done()
			for i := range idxCh {
				report[i] = s.gradeOne(ctx, testCases[i], code, language)
			}
		}()
	}
	wg.Wait()
}

func (s *GradingService) gradeOne(ctx context.Context, tc domain.TestCase, code, language string) domain.TestVerdict {
	result, err := s.executor.Execute(ctx, code, language, tc.Input)
	if err != nil {
		s.logger.Warn("Test case execution failed", "error", err)
		msg := err.Error()
		status := domain.VerdictTransportError
		if errors.Is(err, errs.ErrExecutionTimeout) {
			status = domain.VerdictTimeout
		}
		return domain.TestVerdict{
			TestCase:     tc,
			ActualOutput: domain.ExecutionErrorOutput,
			IsCorrect:    false,
			Error:        &msg,
			Status:       status,
		}
	}

	actual := ""
	if result.Stdout != nil {
		actual = *result.Stdout
	}

	verdict := domain.TestVerdict{
		TestCase:     tc,
		ActualOutput: actual,
		Status:       domain.VerdictAccepted,
	}
	if !result.Accepted() {
		verdict.Status = domain.VerdictRuntimeError
		if result.Stderr != nil && *result.Stderr != "" {
			stderr := *result.Stderr
			verdict.Error = &stderr
		}
		return verdict
	}

	verdict.IsCorrect = outputsMatch(actual, tc.Output)
	return verdict
}

// outputsMatch compares outputs after trimming surrounding whitespace.
func outputsMatch(actual, expected string) bool {
	return strings.TrimSpace(actual) == strings.TrimSpace(expected)
}

// GradeAndRecord grades and stores the run when a repository is configured
func (s *GradingService) GradeAndRecord(ctx context.Context, question *domain.Question, code string, language string) (*domain.GradingRun, error) {
	startedAt := time.Now()
	report, err := s.Grade(ctx, question, code, language)
	if err != nil {
		return nil, err
	}

	lang, _ := domain.ParseLanguage(language)
	run := domain.NewGradingRun(question.ID, lang, report, startedAt)

	if s.runRepo != nil {
		if err := s.runRepo.SaveRun(ctx, run); err != nil {
			// history is best effort, the report is still returned
			s.logger.Error("Failed to save grading run", "runId", run.ID, "error", err)
		}
	}

	return run, nil
}

// GetRun retrieves a recorded run
func (s *GradingService) GetRun(ctx context.Context, runID uuid.UUID) (*domain.GradingRun, error) {
	if s.runRepo == nil {
		return nil, nil
	}
	run, err := s.runRepo.GetRun(ctx, runID)
	if err != nil {
		s.logger.Error("Failed to get grading run", "runId", runID, "error", err)
		return nil, fmt.Errorf("failed to get grading run: %w", err)
	}
	return run, nil
}
