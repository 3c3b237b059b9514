package config

import (
	"fmt"
	"os"
	"time"
)

type KlingConfig struct {
	ApiUrl         string
	ApiKey         string
	Model          string
	PollInterval   time.Duration
	MaxPolls       int
	MaxClipSeconds float64
}

func GetKlingConfig() (*KlingConfig, error) {
	apiUrl := os.Getenv("KLING_API_URL")
	if apiUrl == "" {
		return nil, fmt.Errorf("KLING_API_URL must be set")
	}
	apiKey := os.Getenv("KLING_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("KLING_API_KEY must be set")
	}
	model := os.Getenv("KLING_MODEL")
	if model == "" {
		model = "kling-v1-5"
	}

	return &KlingConfig{
		ApiUrl:         apiUrl,
		ApiKey:         apiKey,
		Model:          model,
		PollInterval:   time.Duration(intFromEnv("KLING_POLL_INTERVAL_SECONDS", 10)) * time.Second,
		MaxPolls:       intFromEnv("KLING_MAX_POLLS", 180),
		MaxClipSeconds: floatFromEnv("KLING_MAX_CLIP_SECONDS", 10),
	}, nil
}
