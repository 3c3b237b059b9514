package adapters

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"generate-love-video/application/ports/outbound"
	"generate-love-video/config"
	"generate-love-video/http_utils"
	"net/http"
)

type sdTxt2ImgRequest struct {
	Prompt      string   `json:"prompt"`
	Steps       int      `json:"steps"`
	SamplerName string   `json:"sampler_name"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	InitImages  []string `json:"init_images,omitempty"`
}

type sdTxt2ImgResponse struct {
	Images []string `json:"images"`
}

// sdWebuiProvider talks to a single self-hosted diffusion instance. The
// backend is synchronous and falls over under parallel load, so every call
// goes through the per-instance gate and the retry wrapper.
type sdWebuiProvider struct {
	ContentFetcher
	logger   outbound.LoggerPort
	conf     *config.SdWebuiConfig
	retryCfg http_utils.RetryConfig
	gate     *http_utils.Gate
}

func NewSdWebuiProvider(contentFetcher ContentFetcher, conf *config.SdWebuiConfig,
	retryCfg http_utils.RetryConfig, logger outbound.LoggerPort) outbound.SceneGeneratorPort {
	return &sdWebuiProvider{
		ContentFetcher: contentFetcher,
		logger:         logger,
		conf:           conf,
		retryCfg:       retryCfg,
		gate:           http_utils.NewGate(conf.MaxInFlight),
	}
}

func (p *sdWebuiProvider) Capabilities() outbound.ProviderCapabilities {
	return outbound.ProviderCapabilities{
		Synchronous:   true,
		Interpolation: false,
		ProducesVideo: false,
	}
}

func (p *sdWebuiProvider) Submit(ctx context.Context, req outbound.GenerateSceneRequest) (*outbound.SceneJobHandle, error) {
	if err := p.gate.Acquire(ctx); err != nil {
		return nil, err
	}
	defer p.gate.Release()

	payload, err := p.fetchImage(ctx, req)
	if err != nil {
		return nil, err
	}

	return &outbound.SceneJobHandle{
		Done: true,
		Result: &outbound.RawSceneOutput{
			Bytes:       payload,
			ContentType: "image/png",
		},
	}, nil
}

func (p *sdWebuiProvider) Await(_ context.Context, handle *outbound.SceneJobHandle) (*outbound.RawSceneOutput, error) {
	if handle.Result == nil {
		return nil, outbound.ErrNoArtifact
	}
	return handle.Result, nil
}

func (p *sdWebuiProvider) FetchArtifact(_ context.Context, _ string) ([]byte, error) {
	return nil, fmt.Errorf("sd-webui responses are inline, no artifact references to fetch")
}

func (p *sdWebuiProvider) fetchImage(ctx context.Context, req outbound.GenerateSceneRequest) ([]byte, error) {
	endpoint := p.conf.ApiUrl + "/sdapi/v1/txt2img"
	body := sdTxt2ImgRequest{
		Prompt:      req.Prompt,
		Steps:       p.conf.Steps,
		SamplerName: p.conf.Sampler,
		Width:       p.conf.Width,
		Height:      p.conf.Height,
	}
	if len(req.Frames) > 0 {
		endpoint = p.conf.ApiUrl + "/sdapi/v1/img2img"
		body.InitImages = []string{base64.StdEncoding.EncodeToString(req.Frames[0].Data)}
	}

	jsonPayload, err := json.Marshal(body)
	if err != nil {
		p.logger.Error(err, "Failed to marshal the sd-webui request body")
		return nil, err
	}

	rawRes, err := http_utils.Do(ctx, p.retryCfg, func() ([]byte, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonPayload))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		return p.FetchContent(httpReq)
	})
	if err != nil {
		return nil, err
	}

	var res sdTxt2ImgResponse
	if err := json.Unmarshal(rawRes, &res); err != nil {
		p.logger.Error(err, "Failed to unmarshal the sd-webui response")
		return nil, err
	}
	if len(res.Images) == 0 {
		p.logger.WarnWithFields("sd-webui returned no images", map[string]interface{}{
			"snippet": http_utils.Snippet(rawRes),
		})
		return nil, outbound.ErrNoArtifact
	}

	decoded, err := base64.StdEncoding.DecodeString(res.Images[0])
	if err != nil {
		p.logger.Error(err, "Failed to decode the generated image")
		return nil, err
	}

	return decoded, nil
}
