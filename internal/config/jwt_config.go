package config

import (
	"os"
	"time"
)

type JwtConfig struct {
	Secret string
	// Issuer and TTL apply to service tokens minted for outbound calls
	Issuer     string
	ServiceTTL time.Duration
}

func NewJwtConfig() *JwtConfig {
	ttl, err := time.ParseDuration(os.Getenv("JWT_SERVICE_TTL"))
	if err != nil || ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &JwtConfig{
		Secret:     os.Getenv("JWT_SECRET"),
		Issuer:     getEnv("JWT_ISSUER", "assessment-grader"),
		ServiceTTL: ttl,
	}
}
