package config

import "time"

type RetryConfig struct {
	MaxRetries  int
	BaseDelay   time.Duration
	HTTPTimeout time.Duration
}

func GetRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:  intFromEnv("RETRY_MAX", 2),
		BaseDelay:   time.Duration(intFromEnv("RETRY_BASE_DELAY_MS", 1000)) * time.Millisecond,
		HTTPTimeout: time.Duration(intFromEnv("HTTP_TIMEOUT_SECONDS", 120)) * time.Second,
	}
}
