package config

import (
	"os"
	"strconv"
	"time"
)

type ClockConfig struct {
	TickInterval      time.Duration
	ExpireCallTimeout time.Duration
	QuizUpdateChannel string
	// SessionRetention keeps stopped sessions readable before they are pruned
	SessionRetention time.Duration
}

func NewClockConfig() *ClockConfig {
	tickMs, err := strconv.Atoi(os.Getenv("CLOCK_TICK_INTERVAL_MS"))
	if err != nil || tickMs <= 0 {
		tickMs = 1000
	}
	expireSec, err := strconv.Atoi(os.Getenv("EXPIRE_CALL_TIMEOUT_SEC"))
	if err != nil || expireSec <= 0 {
		expireSec = 10
	}
	retentionSec, err := strconv.Atoi(os.Getenv("SESSION_RETENTION_SEC"))
	if err != nil || retentionSec <= 0 {
		retentionSec = 600
	}
	return &ClockConfig{
		TickInterval:      time.Duration(tickMs) * time.Millisecond,
		ExpireCallTimeout: time.Duration(expireSec) * time.Second,
		QuizUpdateChannel: getEnv("QUIZ_UPDATE_CHANNEL", "quiz:updated"),
		SessionRetention:  time.Duration(retentionSec) * time.Second,
	}
}
