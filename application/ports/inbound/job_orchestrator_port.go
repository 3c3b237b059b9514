package inbound

import (
	"context"
	"errors"
	"generate-love-video/domain"
)

var (
	ErrJobNotFound      = errors.New("job not found")
	ErrSceneOutOfRange  = errors.New("scene ordinal out of range")
	ErrNoScenesProvided = errors.New("no scenes provided")
)

type StartJobParams struct {
	Scenes   []domain.Scene
	Settings domain.GenerationSettings
}

type StartJobResponse struct {
	JobID string
	Total int
}

// JobOrchestratorPort accepts whole-story jobs and single-scene retries. Both
// return before any generation work happens; progress is observed through the
// status reporter.
type JobOrchestratorPort interface {
	StartJob(ctx context.Context, params StartJobParams) (*StartJobResponse, error)
	RetryScene(ctx context.Context, jobID string, ordinal int) error
	// StartRetentionSweep begins periodic eviction of jobs older than the
	// retention window; it runs until ctx is cancelled.
	StartRetentionSweep(ctx context.Context)
}
