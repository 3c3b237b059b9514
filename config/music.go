package config

import (
	"fmt"
	"os"
	"time"
)

type MusicConfig struct {
	ApiUrl       string
	ApiKey       string
	Model        string
	PollInterval time.Duration
	MaxPolls     int
}

func GetMusicConfig() (*MusicConfig, error) {
	apiUrl := os.Getenv("MUSIC_API_URL")
	if apiUrl == "" {
		return nil, fmt.Errorf("MUSIC_API_URL must be set")
	}
	apiKey := os.Getenv("MUSIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("MUSIC_API_KEY must be set")
	}
	model := os.Getenv("MUSIC_MODEL")
	if model == "" {
		model = "meta/musicgen"
	}

	return &MusicConfig{
		ApiUrl:       apiUrl,
		ApiKey:       apiKey,
		Model:        model,
		PollInterval: time.Duration(intFromEnv("MUSIC_POLL_INTERVAL_SECONDS", 5)) * time.Second,
		MaxPolls:     intFromEnv("MUSIC_MAX_POLLS", 120),
	}, nil
}
