package config

import (
	"os"
	"strconv"
	"time"
)

type ExecutionConfig struct {
	BaseURL     string
	Timeout     time.Duration
	Concurrency int
}

func NewExecutionConfig() *ExecutionConfig {
	timeoutSec, err := strconv.Atoi(os.Getenv("EXECUTION_TIMEOUT_SEC"))
	if err != nil || timeoutSec <= 0 {
		timeoutSec = 10
	}
	concurrency, err := strconv.Atoi(os.Getenv("GRADING_CONCURRENCY"))
	if err != nil || concurrency <= 0 {
		concurrency = 1
	}
	return &ExecutionConfig{
		BaseURL:     getEnv("EXECUTION_BASE_URL", "http://localhost:5000"),
		Timeout:     time.Duration(timeoutSec) * time.Second,
		Concurrency: concurrency,
	}
}
