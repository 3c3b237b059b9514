package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"generate-love-video/application/ports/outbound"
	"generate-love-video/config"
	"generate-love-video/domain"
	"generate-love-video/http_utils"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

type comfyQueueResponse struct {
	PromptID string `json:"prompt_id"`
}

type comfyHistoryEntry struct {
	Status struct {
		Completed bool   `json:"completed"`
		StatusStr string `json:"status_str"`
	} `json:"status"`
	Outputs map[string]interface{} `json:"outputs"`
}

// comfyPoolProvider drives a fixed pool of GPU workers behind a ComfyUI-style
// queue: upload conditioning frames, queue a workflow, poll history, download
// through /view. History outputs vary per workflow, so they go back raw for
// the artifact locator to normalize.
type comfyPoolProvider struct {
	ContentFetcher
	logger   outbound.LoggerPort
	conf     *config.ComfyConfig
	retryCfg http_utils.RetryConfig
	gate     *http_utils.Gate
	limiter  *rate.Limiter
}

func NewComfyPoolProvider(contentFetcher ContentFetcher, conf *config.ComfyConfig,
	retryCfg http_utils.RetryConfig, logger outbound.LoggerPort) outbound.SceneGeneratorPort {
	return &comfyPoolProvider{
		ContentFetcher: contentFetcher,
		logger:         logger,
		conf:           conf,
		retryCfg:       retryCfg,
		gate:           http_utils.NewGate(conf.MaxInFlight),
		limiter:        rate.NewLimiter(rate.Limit(conf.RequestsPerSecond), 1),
	}
}

func (p *comfyPoolProvider) Capabilities() outbound.ProviderCapabilities {
	return outbound.ProviderCapabilities{
		Synchronous:    false,
		Interpolation:  true,
		MaxClipSeconds: p.conf.MaxClipSeconds,
		ProducesVideo:  true,
	}
}

func (p *comfyPoolProvider) Submit(ctx context.Context, req outbound.GenerateSceneRequest) (*outbound.SceneJobHandle, error) {
	if err := p.gate.Acquire(ctx); err != nil {
		return nil, err
	}
	defer p.gate.Release()

	uploaded := make(map[domain.FrameRole]string, len(req.Frames))
	for _, frame := range req.Frames {
		name, err := p.uploadFrame(ctx, frame)
		if err != nil {
			return nil, err
		}
		uploaded[frame.Role] = name
	}

	workflow := p.buildWorkflow(req, uploaded)
	jsonPayload, err := json.Marshal(map[string]interface{}{
		"prompt":    workflow,
		"client_id": uuid.NewString(),
	})
	if err != nil {
		p.logger.Error(err, "Failed to marshal the workflow payload")
		return nil, err
	}

	rawRes, err := http_utils.Do(ctx, p.retryCfg, func() ([]byte, error) {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.conf.ApiUrl+"/prompt", bytes.NewBuffer(jsonPayload))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		return p.FetchContent(httpReq)
	})
	if err != nil {
		return nil, err
	}

	var queued comfyQueueResponse
	if err := json.Unmarshal(rawRes, &queued); err != nil {
		p.logger.Error(err, "Failed to unmarshal the queue response")
		return nil, err
	}
	if queued.PromptID == "" {
		return nil, fmt.Errorf("queue response carried no prompt id: %s", http_utils.Snippet(rawRes))
	}

	return &outbound.SceneJobHandle{ID: queued.PromptID}, nil
}

// Await polls history until the workflow reaches a terminal state or the poll
// budget runs out. A worker-reported error state is a provider failure, not a
// transport one, so it is surfaced directly and never retried here.
func (p *comfyPoolProvider) Await(ctx context.Context, handle *outbound.SceneJobHandle) (*outbound.RawSceneOutput, error) {
	for poll := 0; poll < p.conf.MaxPolls; poll++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.conf.PollInterval):
		}

		entry, found, err := p.fetchHistory(ctx, handle.ID)
		if err != nil {
			p.logger.ErrorWithFields(err, "History poll failed", map[string]interface{}{
				"prompt_id": handle.ID,
			})
			continue
		}
		if !found {
			continue
		}

		if entry.Status.StatusStr == "error" {
			return nil, fmt.Errorf("worker pool reported failure for prompt %s", handle.ID)
		}
		if entry.Status.Completed {
			return &outbound.RawSceneOutput{Payload: entry.Outputs}, nil
		}
	}

	return nil, fmt.Errorf("timed out waiting for prompt %s after %d polls", handle.ID, p.conf.MaxPolls)
}

func (p *comfyPoolProvider) FetchArtifact(ctx context.Context, ref string) ([]byte, error) {
	return http_utils.Do(ctx, p.retryCfg, func() ([]byte, error) {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		viewURL := p.conf.ApiUrl + "/view?filename=" + url.QueryEscape(ref)
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, viewURL, nil)
		if err != nil {
			return nil, err
		}
		return p.FetchContent(httpReq)
	})
}

func (p *comfyPoolProvider) fetchHistory(ctx context.Context, promptID string) (*comfyHistoryEntry, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.conf.ApiUrl+"/history/"+promptID, nil)
	if err != nil {
		return nil, false, err
	}

	rawRes, err := p.FetchContent(httpReq)
	if err != nil {
		return nil, false, err
	}

	var history map[string]comfyHistoryEntry
	if err := json.Unmarshal(rawRes, &history); err != nil {
		return nil, false, err
	}

	entry, ok := history[promptID]
	if !ok {
		return nil, false, nil
	}
	return &entry, true, nil
}

func (p *comfyPoolProvider) uploadFrame(ctx context.Context, frame outbound.Frame) (string, error) {
	name := uuid.NewString() + ".png"

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", name)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(frame.Data); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	_, err = http_utils.Do(ctx, p.retryCfg, func() ([]byte, error) {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.conf.ApiUrl+"/upload/image", bytes.NewReader(buf.Bytes()))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", writer.FormDataContentType())
		return p.FetchContent(httpReq)
	})
	if err != nil {
		return "", err
	}

	return name, nil
}

// buildWorkflow fills the animation workflow graph. Interpolation workflows
// take both endpoint frames; single-frame workflows animate from one image.
func (p *comfyPoolProvider) buildWorkflow(req outbound.GenerateSceneRequest, uploaded map[domain.FrameRole]string) map[string]interface{} {
	inputs := map[string]interface{}{
		"prompt":         req.Prompt,
		"length_seconds": req.DurationSeconds,
	}
	for key, value := range req.Settings {
		inputs[key] = value
	}

	if first, ok := uploaded[domain.FirstFrame]; ok {
		inputs["start_image"] = first
	}
	if last, ok := uploaded[domain.LastFrame]; ok {
		inputs["end_image"] = last
	}
	if single, ok := uploaded[domain.SingleFrame]; ok {
		inputs["start_image"] = single
	}

	return map[string]interface{}{
		"scene_generation": map[string]interface{}{
			"class_type": "SceneVideoGenerate",
			"inputs":     inputs,
		},
	}
}
