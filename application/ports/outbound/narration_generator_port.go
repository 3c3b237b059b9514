package outbound

import "context"

type GenerateNarrationRequest struct {
	Text    string
	VoiceID string
}

type NarrationGeneratorPort interface {
	Generate(ctx context.Context, req GenerateNarrationRequest) ([]byte, error)
}
