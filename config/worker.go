package config

import (
	"os"
	"strconv"
	"time"
)

type WorkerConfig struct {
	PoolSize         int
	SceneWorkerWidth int
	JobRetention     time.Duration
	SweepInterval    time.Duration
}

// The single ants pool carries every task layer: the job run loop, its scene
// tasks, the channel-merge readers and the per-scene audio tasks. One running
// job can hold up to 4*SceneWorkerWidth+2 workers at once, so PoolSize must
// stay well above that multiplied by the expected number of concurrent jobs;
// an undersized pool blocks Submit and stalls job intake. The defaults
// (120 / 5) leave headroom for roughly five fully-loaded concurrent jobs.
func GetWorkerConfig() *WorkerConfig {
	return &WorkerConfig{
		PoolSize:         intFromEnv("WORKER_POOL_SIZE", 120),
		SceneWorkerWidth: intFromEnv("SCENE_WORKER_WIDTH", 5),
		JobRetention:     time.Duration(intFromEnv("JOB_RETENTION_MINUTES", 60)) * time.Minute,
		SweepInterval:    time.Duration(intFromEnv("JOB_SWEEP_INTERVAL_MINUTES", 10)) * time.Minute,
	}
}

func intFromEnv(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func floatFromEnv(name string, fallback float64) float64 {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
