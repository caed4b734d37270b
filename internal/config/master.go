package config

import "os"

type AppConfig struct {
	DebugMode       bool
	HTTPConfig      *HTTPConfig
	ExecutionConfig *ExecutionConfig
	BackendConfig   *BackendConfig
	ClockConfig     *ClockConfig
	RedisConfig     *RedisConfig
	PostgresConfig  *PostgresConfig
	JwtConfig       *JwtConfig
}

func NewSystemConfig() *AppConfig {
	return &AppConfig{
		DebugMode:       os.Getenv("DEBUG_MODE") == "true",
		HTTPConfig:      NewHTTPConfig(),
		ExecutionConfig: NewExecutionConfig(),
		BackendConfig:   NewBackendConfig(),
		ClockConfig:     NewClockConfig(),
		RedisConfig:     NewRedisConfig(),
		PostgresConfig:  NewPostgresConfig(),
		JwtConfig:       NewJwtConfig(),
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}
