package config

import (
	"fmt"
	"os"
)

type SdWebuiConfig struct {
	ApiUrl      string
	Steps       int
	Sampler     string
	Width       int
	Height      int
	MaxInFlight int
}

func GetSdWebuiConfig() (*SdWebuiConfig, error) {
	apiUrl := os.Getenv("SD_WEBUI_API_URL")
	if apiUrl == "" {
		return nil, fmt.Errorf("SD_WEBUI_API_URL must be set")
	}

	sampler := os.Getenv("SD_WEBUI_SAMPLER")
	if sampler == "" {
		sampler = "Euler a"
	}

	return &SdWebuiConfig{
		ApiUrl:      apiUrl,
		Steps:       intFromEnv("SD_WEBUI_STEPS", 25),
		Sampler:     sampler,
		Width:       intFromEnv("SD_WEBUI_WIDTH", 768),
		Height:      intFromEnv("SD_WEBUI_HEIGHT", 768),
		MaxInFlight: intFromEnv("SD_WEBUI_MAX_IN_FLIGHT", 2),
	}, nil
}
