package config

import (
	"fmt"
	"os"
	"time"
)

type ComfyConfig struct {
	ApiUrl            string
	PollInterval      time.Duration
	MaxPolls          int
	MaxInFlight       int
	RequestsPerSecond float64
	MaxClipSeconds    float64
}

func GetComfyConfig() (*ComfyConfig, error) {
	apiUrl := os.Getenv("COMFY_API_URL")
	if apiUrl == "" {
		return nil, fmt.Errorf("COMFY_API_URL must be set")
	}

	return &ComfyConfig{
		ApiUrl:            apiUrl,
		PollInterval:      time.Duration(intFromEnv("COMFY_POLL_INTERVAL_SECONDS", 5)) * time.Second,
		MaxPolls:          intFromEnv("COMFY_MAX_POLLS", 360),
		MaxInFlight:       intFromEnv("COMFY_MAX_IN_FLIGHT", 2),
		RequestsPerSecond: floatFromEnv("COMFY_REQUESTS_PER_SECOND", 2),
		MaxClipSeconds:    floatFromEnv("COMFY_MAX_CLIP_SECONDS", 8),
	}, nil
}
