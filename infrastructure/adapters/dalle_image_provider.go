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

type dalleApiRequest struct {
	Prompt         string `json:"prompt"`
	Model          string `json:"model"`
	Size           string `json:"size"`
	Number         int    `json:"n"`
	ResponseFormat string `json:"response_format"`
}

type dalleApiResponse struct {
	Data []struct {
		B64Json string `json:"b64_json"`
	} `json:"data"`
}

// dalleImageProvider is the cloud image backend: a plain synchronous request
// that answers with inline base64 payloads.
type dalleImageProvider struct {
	ContentFetcher
	logger   outbound.LoggerPort
	conf     *config.DaLLeConfig
	retryCfg http_utils.RetryConfig
}

func NewDalleImageProvider(contentFetcher ContentFetcher, conf *config.DaLLeConfig,
	retryCfg http_utils.RetryConfig, logger outbound.LoggerPort) outbound.SceneGeneratorPort {
	return &dalleImageProvider{
		ContentFetcher: contentFetcher,
		logger:         logger,
		conf:           conf,
		retryCfg:       retryCfg,
	}
}

func (p *dalleImageProvider) Capabilities() outbound.ProviderCapabilities {
	return outbound.ProviderCapabilities{
		Synchronous:   true,
		Interpolation: false,
		ProducesVideo: false,
	}
}

func (p *dalleImageProvider) Submit(ctx context.Context, req outbound.GenerateSceneRequest) (*outbound.SceneJobHandle, error) {
	reqBody := dalleApiRequest{
		Prompt:         req.Prompt,
		Model:          p.conf.Model,
		Size:           p.conf.Size,
		Number:         1,
		ResponseFormat: "b64_json",
	}

	jsonPayload, err := json.Marshal(reqBody)
	if err != nil {
		p.logger.Error(err, "Failed to marshal the request body")
		return nil, err
	}

	rawRes, err := http_utils.Do(ctx, p.retryCfg, func() ([]byte, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.conf.ApiUrl, bytes.NewBuffer(jsonPayload))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Authorization", "Bearer "+p.conf.ApiKey)
		httpReq.Header.Set("Content-Type", "application/json")
		return p.FetchContent(httpReq)
	})
	if err != nil {
		return nil, err
	}

	var dalleRes dalleApiResponse
	if err := json.Unmarshal(rawRes, &dalleRes); err != nil {
		p.logger.Error(err, "Failed to unmarshal the response")
		return nil, err
	}
	if len(dalleRes.Data) == 0 || dalleRes.Data[0].B64Json == "" {
		p.logger.WarnWithFields("Image API answered without image data", map[string]interface{}{
			"snippet": http_utils.Snippet(rawRes),
		})
		return nil, outbound.ErrNoArtifact
	}

	decodedImage, err := base64.StdEncoding.DecodeString(dalleRes.Data[0].B64Json)
	if err != nil {
		p.logger.Error(err, "Failed to decode the image")
		return nil, err
	}

	return &outbound.SceneJobHandle{
		Done: true,
		Result: &outbound.RawSceneOutput{
			Bytes:       decodedImage,
			ContentType: "image/png",
		},
	}, nil
}

func (p *dalleImageProvider) Await(_ context.Context, handle *outbound.SceneJobHandle) (*outbound.RawSceneOutput, error) {
	if handle.Result == nil {
		return nil, outbound.ErrNoArtifact
	}
	return handle.Result, nil
}

func (p *dalleImageProvider) FetchArtifact(_ context.Context, _ string) ([]byte, error) {
	return nil, fmt.Errorf("image API responses are inline, no artifact references to fetch")
}
