package assessment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gitlab.com/assessment-grader.net/internal/config"
	"gitlab.com/assessment-grader.net/internal/core/ports/primary"
	"gitlab.com/assessment-grader.net/internal/core/ports/secondary"
	"gitlab.com/assessment-grader.net/internal/core/services/clock"
	"gitlab.com/assessment-grader.net/internal/core/services/grading"
	"gitlab.com/assessment-grader.net/internal/domain"
	"gitlab.com/assessment-grader.net/internal/static/errs"
)

var _ IAssessmentService = (*AssessmentService)(nil)

// AssessmentService implements the IAssessmentService interface
type AssessmentService struct {
	gateway  secondary.AssessmentGateway
	grader   grading.IGradingService
	guard    secondary.ExpiryGuard
	sessions *SessionManager
	clockCfg *config.ClockConfig
	logger   primary.Logger
}

// NewAssessmentService creates a new assessment service; guard may be nil
func NewAssessmentService(
	gateway secondary.AssessmentGateway,
	grader grading.IGradingService,
	guard secondary.ExpiryGuard,
	clockCfg *config.ClockConfig,
	logger primary.Logger,
) *AssessmentService {
	if clockCfg == nil {
		clockCfg = config.NewClockConfig()
	}
	if clockCfg.SessionRetention <= 0 {
		cfg := *clockCfg
		cfg.SessionRetention = 10 * time.Minute
		clockCfg = &cfg
	}
	return &AssessmentService{
		gateway:  gateway,
		grader:   grader,
		guard:    guard,
		sessions: NewSessionManager(logger),
		clockCfg: clockCfg,
		logger:   logger,
	}
}

// Watch fetches the assessment and mounts a clock session for it
func (s *AssessmentService) Watch(ctx context.Context, assessmentID string) (clock.Snapshot, error) {
	s.logger.Info("Mounting assessment clock", "assessmentId", assessmentID)
	s.pruneStopped()

	assessment, err := s.gateway.FetchAssessment(ctx, assessmentID)
	if err != nil {
		s.logger.Error("Failed to fetch assessment", "assessmentId", assessmentID, "error", err)
		return clock.Snapshot{}, err
	}

	options := []clock.Option{
		clock.WithTickInterval(s.clockCfg.TickInterval),
		clock.WithExpireTimeout(s.clockCfg.ExpireCallTimeout),
	}
	if s.guard != nil {
		options = append(options, clock.WithExpiryGuard(s.guard))
	}

	c := clock.NewAssessmentClock(*assessment, s.gateway, s.logger, options...)
	s.sessions.Register(assessmentID, c)
	c.Start()

	snap := c.Snapshot()
	s.logger.Info("Assessment clock mounted", "assessmentId", assessmentID, "sessionId", snap.SessionID, "state", snap.State)
	return snap, nil
}

// Unwatch unmounts a clock session
func (s *AssessmentService) Unwatch(sessionID uuid.UUID) error {
	c, ok := s.sessions.Remove(sessionID)
	if !ok {
		return errs.ErrSessionNotFound
	}
	c.Stop()
	s.logger.Info("Assessment clock unmounted", "sessionId", sessionID)
	return nil
}

// Session returns the current snapshot of a clock session
func (s *AssessmentService) Session(sessionID uuid.UUID) (clock.Snapshot, error) {
	c, ok := s.sessions.Get(sessionID)
	if !ok {
		return clock.Snapshot{}, errs.ErrSessionNotFound
	}
	return c.Snapshot(), nil
}

// Refresh refetches the assessment and pushes the schedule to its sessions
func (s *AssessmentService) Refresh(ctx context.Context, assessmentID string) error {
	s.pruneStopped()
	clocks := s.sessions.SessionsOf(assessmentID)
	if len(clocks) == 0 {
		s.logger.Debug("No mounted sessions to refresh", "assessmentId", assessmentID)
		return nil
	}

	assessment, err := s.gateway.FetchAssessment(ctx, assessmentID)
	if err != nil {
		s.logger.Error("Failed to refetch assessment", "assessmentId", assessmentID, "error", err)
		return err
	}

	for _, c := range clocks {
		c.Update(*assessment)
	}
	s.logger.Info("Assessment sessions refreshed", "assessmentId", assessmentID, "sessions", len(clocks))
	return nil
}

// RunQuestion grades code against one question of the assessment
func (s *AssessmentService) RunQuestion(ctx context.Context, assessmentID string, questionID string, code string, language string) (*domain.GradingRun, error) {
	assessment, err := s.gateway.FetchAssessment(ctx, assessmentID)
	if err != nil {
		s.logger.Error("Failed to fetch assessment", "assessmentId", assessmentID, "error", err)
		return nil, err
	}

	question, ok := assessment.FindQuestion(questionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errs.ErrQuestionNotFound, questionID)
	}

	return s.grader.GradeAndRecord(ctx, question, code, language)
}

// pruneStopped forgets sessions nobody unmounted once their retention has passed
func (s *AssessmentService) pruneStopped() {
	if n := s.sessions.PruneStopped(time.Now(), s.clockCfg.SessionRetention); n > 0 {
		s.logger.Info("Pruned stopped clock sessions", "pruned", n, "mounted", s.sessions.Len())
	}
}

// Close unmounts all sessions
func (s *AssessmentService) Close() {
	s.sessions.StopAll()
}
