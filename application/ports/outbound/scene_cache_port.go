package outbound

import (
	"context"
	"generate-love-video/domain"
)

// SceneCachePort mirrors settled scene results into a TTL'd external table.
// Writes are best-effort; the orchestrator logs failures and moves on.
type SceneCachePort interface {
	Save(ctx context.Context, jobID string, result domain.SceneResult) error
}
