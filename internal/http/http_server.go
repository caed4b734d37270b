package http

// this is entry point of the http request handlers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"gitlab.com/assessment-grader.net/internal/config"
	"gitlab.com/assessment-grader.net/internal/core/ports/primary"
	"gitlab.com/assessment-grader.net/internal/core/services/assessment"
	"gitlab.com/assessment-grader.net/internal/core/services/grading"
	"gitlab.com/assessment-grader.net/internal/handlers"
	"gitlab.com/assessment-grader.net/internal/handlers/assessments"
	gradinghandler "gitlab.com/assessment-grader.net/internal/handlers/grading"
)

type ServiceProvider struct {
	gradingService    grading.IGradingService
	assessmentService assessment.IAssessmentService
	jwtService        primary.JWTService
}

func NewServiceProvider(
	gradingService grading.IGradingService,
	assessmentService assessment.IAssessmentService,
	jwtService primary.JWTService,
) *ServiceProvider {
	return &ServiceProvider{
		gradingService:    gradingService,
		assessmentService: assessmentService,
		jwtService:        jwtService,
	}
}

type Server struct {
	router          *mux.Router
	srv             *http.Server
	Port            int
	ServiceName     string
	WriteTimeout    time.Duration
	ServiceProvider ServiceProvider
	logger          primary.Logger
}

func NewServer(httpCfg *config.HTTPConfig, serviceProvider ServiceProvider, logger primary.Logger) *Server {
	return &Server{
		Port:            httpCfg.Port,
		ServiceName:     httpCfg.ServiceName,
		WriteTimeout:    httpCfg.WriteTimeout,
		ServiceProvider: serviceProvider,
		logger:          logger,
	}
}

// Handler exposes the router, nil before Init
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Init() error {
	if s.ServiceProvider.jwtService == nil {
		return fmt.Errorf("jwt service is required")
	}

	r := mux.NewRouter()
	handlers.RegisterHealth(r, s.ServiceName)

	mw := handlers.New(s.ServiceProvider.jwtService, s.logger)
	api := r.NewRoute().Subrouter()
	api.Use(mw.JWTMiddleware)

	gradinghandler.
		NewGradingHandler(s.ServiceProvider.gradingService, s.ServiceProvider.assessmentService, s.logger).
		RegisterRoutes(api, mw)
	assessments.
		NewSessionHandler(s.ServiceProvider.assessmentService, s.logger).
		RegisterRoutes(api, mw)

	s.router = r
	return nil
}

// Start serves in the background; errorCh receives a listener failure
func (s *Server) Start(ctx context.Context) <-chan error {
	errorCh := make(chan error, 1)

	// Set up server
	s.srv = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  60 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	// Start the server in a goroutine
	go func() {
		s.logger.Info("Server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Server error", "error", err)
			errorCh <- err
		}
	}()

	return errorCh
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down http server...")
	if s.srv == nil {
		return nil
	}
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown http server: %w", err)
	}
	return nil
}
