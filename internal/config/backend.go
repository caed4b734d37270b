package config

import (
	"os"
	"strconv"
	"time"
)

type BackendConfig struct {
	BaseURL string
	// Token is a static bearer token; a signed service token is used when empty
	Token   string
	Timeout time.Duration
}

func NewBackendConfig() *BackendConfig {
	timeoutSec, err := strconv.Atoi(os.Getenv("BACKEND_TIMEOUT_SEC"))
	if err != nil || timeoutSec <= 0 {
		timeoutSec = 15
	}
	return &BackendConfig{
		BaseURL: getEnv("BACKEND_BASE_URL", "http://localhost:5000"),
		Token:   os.Getenv("BACKEND_TOKEN"),
		Timeout: time.Duration(timeoutSec) * time.Second,
	}
}
