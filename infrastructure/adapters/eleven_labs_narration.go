package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"generate-love-video/application/ports/outbound"
	"generate-love-video/config"
	"generate-love-video/http_utils"
	"net/http"

	"github.com/rs/zerolog/log"
)

type elevenLabsRequest struct {
	Text          string        `json:"text"`
	ModelId       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type elevenLabsNarrationGenerator struct {
	ContentFetcher
	conf     *config.ElevenLabsConfig
	retryCfg http_utils.RetryConfig
}

func NewElevenLabsNarrationGenerator(contentFetcher ContentFetcher, conf *config.ElevenLabsConfig,
	retryCfg http_utils.RetryConfig) outbound.NarrationGeneratorPort {
	return &elevenLabsNarrationGenerator{
		ContentFetcher: contentFetcher,
		conf:           conf,
		retryCfg:       retryCfg,
	}
}

func (a *elevenLabsNarrationGenerator) Generate(ctx context.Context, req outbound.GenerateNarrationRequest) ([]byte, error) {
	reqBody := elevenLabsRequest{
		Text:    req.Text,
		ModelId: a.conf.ModelId,
		VoiceSettings: voiceSettings{
			Stability:       a.conf.Stability,
			SimilarityBoost: a.conf.SimilarityBoost,
		},
	}

	jsonPayload, err := json.Marshal(reqBody)
	if err != nil {
		log.Error().Err(err).Str("text", req.Text).Msg("Failed to marshal the narration request body")
		return nil, err
	}

	return http_utils.Do(ctx, a.retryCfg, func() ([]byte, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.conf.ApiUrl+"/"+req.VoiceID, bytes.NewBuffer(jsonPayload))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Accept", "audio/mpeg")
		httpReq.Header.Set("xi-api-key", a.conf.ApiKey)
		httpReq.Header.Set("Content-Type", "application/json")
		return a.FetchContent(httpReq)
	})
}
