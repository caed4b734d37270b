package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"golang.org/x/oauth2"

	"gitlab.com/assessment-grader.net/internal/adapter/crypto"
	"gitlab.com/assessment-grader.net/internal/adapter/lmsapi"
	"gitlab.com/assessment-grader.net/internal/adapter/piston"
	"gitlab.com/assessment-grader.net/internal/adapter/postgres/gradingrepository"
	"gitlab.com/assessment-grader.net/internal/adapter/redis/expiryguard"
	"gitlab.com/assessment-grader.net/internal/adapter/redis/quizupdates"
	"gitlab.com/assessment-grader.net/internal/config"
	"gitlab.com/assessment-grader.net/internal/core/services/assessment"
	"gitlab.com/assessment-grader.net/internal/core/services/grading"
	logger2 "gitlab.com/assessment-grader.net/internal/global/logger"
	http2 "gitlab.com/assessment-grader.net/internal/http"
	"gitlab.com/assessment-grader.net/internal/schedulerengine"
)

func main() {
	InitReader()
	// Set up graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sysCfg := config.NewSystemConfig()
	if sysCfg.DebugMode {
		logger2.UseDebug()
	}
	logger := logger2.Logger.With("service", sysCfg.HTTPConfig.ServiceName)
	defer logger.Sync()
	logger.Info("Starting assessment grader service")

	ctxBg, cancelBg := context.WithCancel(context.Background())
	defer cancelBg()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     sysCfg.RedisConfig.Url,
		Password: sysCfg.RedisConfig.Password,
		DB:       sysCfg.RedisConfig.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctxBg).Err(); err != nil {
		logger.Warn("Redis unreachable, expiry guard falls back to the backend flag", "error", err)
	}

	//primary ports
	jwtProvider := crypto.NewJWTService(sysCfg.JwtConfig, sysCfg.BackendConfig.Token)
	executionClient := oauth2.NewClient(ctxBg, jwtProvider.TokenSource())
	executionClient.Timeout = sysCfg.ExecutionConfig.Timeout + 5*time.Second
	backendClient := oauth2.NewClient(ctxBg, jwtProvider.TokenSource())
	backendClient.Timeout = sysCfg.BackendConfig.Timeout

	// SECONDARY PORTS
	executor := piston.NewClient(sysCfg.ExecutionConfig.BaseURL, executionClient, sysCfg.ExecutionConfig.Timeout, logger)
	gateway := lmsapi.NewClient(sysCfg.BackendConfig.BaseURL, backendClient, logger)
	guard := expiryguard.NewExpiryGuard(redisClient, logger, 0)

	gradingOpts := []grading.GradingOption{grading.WithConcurrency(sysCfg.ExecutionConfig.Concurrency)}
	db, err := setupDatabase(ctxBg, sysCfg.PostgresConfig)
	if err != nil {
		logger.Warn("Database unavailable, grading runs are not recorded", "error", err)
	} else {
		defer db.Close()
		runRepo := gradingrepository.NewGradingRunRepository(db, logger)
		if err := runRepo.Migrate(ctxBg); err != nil {
			logger.Error("Failed to migrate grading tables", "error", err)
		}
		gradingOpts = append(gradingOpts, grading.WithRunRepository(runRepo))
	}

	//services
	gradingSvc := grading.NewGradingService(executor, logger, gradingOpts...)
	assessmentSvc := assessment.NewAssessmentService(gateway, gradingSvc, guard, sysCfg.ClockConfig, logger)
	serviceProvider := http2.NewServiceProvider(gradingSvc, assessmentSvc, jwtProvider)

	//server
	httpServer := http2.NewServer(sysCfg.HTTPConfig, *serviceProvider, logger)
	if err := httpServer.Init(); err != nil {
		panic(err)
	}
	serverErr := httpServer.Start(ctxBg)

	feed := quizupdates.NewFeed(redisClient, sysCfg.ClockConfig.QuizUpdateChannel, logger)
	refreshEngine := schedulerengine.NewRefreshEngine(sysCfg.ClockConfig, feed, assessmentSvc, logger)
	if err := refreshEngine.Start(ctxBg); err != nil {
		logger.Error("Failed to subscribe to quiz updates", "channel", sysCfg.ClockConfig.QuizUpdateChannel, "error", err)
	}

	select {
	case <-quit:
	case err := <-serverErr:
		logger.Error("Server stopped unexpectedly", "error", err)
	}
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Stop(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}
	assessmentSvc.Close()
	cancelBg()
	refreshEngine.Wait()

	logger.Info("successfully shutdown server")
}

// setupDatabase sets up the PostgreSQL connection
func setupDatabase(ctx context.Context, cfg *config.PostgresConfig) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.Url)
	if err != nil {
		return nil, err
	}

	// Test the connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func InitReader() {
	environment := ""
	if len(os.Args) < 2 {
		log.Fatalf("Env not supplied in argument")
	} else {
		environment = os.Args[1]
	}

	err := godotenv.Load(environment + ".env")
	if err != nil {
		log.Fatalf("Error loading %s.env file", environment)
	}
}
