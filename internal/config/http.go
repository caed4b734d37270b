package config

import (
	"os"
	"strconv"
	"time"
)

type HTTPConfig struct {
	Port        int
	ServiceName string
	// WriteTimeout bounds plain responses; grading routes lift it per request
	WriteTimeout time.Duration
}

func NewHTTPConfig() *HTTPConfig {
	port, err := strconv.Atoi(os.Getenv("HTTP_PORT"))
	if err != nil || port <= 0 {
		port = 8082
	}
	writeTimeoutSec, err := strconv.Atoi(os.Getenv("HTTP_WRITE_TIMEOUT_SEC"))
	if err != nil || writeTimeoutSec <= 0 {
		writeTimeoutSec = 60
	}
	return &HTTPConfig{
		Port:         port,
		ServiceName:  getEnv("SERVICE_NAME", "assessmentGrader"),
		WriteTimeout: time.Duration(writeTimeoutSec) * time.Second,
	}
}
