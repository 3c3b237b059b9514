package inbound

import (
	"context"
	"generate-love-video/domain"
)

// SceneProcessorPort turns one scene descriptor into one result. It always
// returns a result: any scene-level failure is converted to
// {Success: false, Error: ...} instead of escaping this boundary.
type SceneProcessorPort interface {
	ProcessScene(ctx context.Context, scene domain.Scene, settings domain.GenerationSettings) domain.SceneResult
}
