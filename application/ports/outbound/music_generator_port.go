package outbound

import "context"

type GenerateMusicRequest struct {
	Prompt          string
	DurationSeconds float64
}

type MusicGeneratorPort interface {
	Generate(ctx context.Context, req GenerateMusicRequest) ([]byte, error)
}
