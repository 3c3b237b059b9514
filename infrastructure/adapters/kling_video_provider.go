package adapters

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"generate-love-video/application/ports/outbound"
	"generate-love-video/config"
	"generate-love-video/domain"
	"generate-love-video/http_utils"
	"net/http"
	"time"
)

type klingCreateRequest struct {
	Model     string  `json:"model_name"`
	Prompt    string  `json:"prompt"`
	Image     string  `json:"image,omitempty"`
	ImageTail string  `json:"image_tail,omitempty"`
	Duration  float64 `json:"duration,omitempty"`
}

type klingCreateResponse struct {
	Data struct {
		TaskID string `json:"task_id"`
	} `json:"data"`
}

type klingTaskResponse struct {
	Data struct {
		TaskStatus    string `json:"task_status"`
		TaskStatusMsg string `json:"task_status_msg"`
		TaskResult    struct {
			Videos []struct {
				URL string `json:"url"`
			} `json:"videos"`
		} `json:"task_result"`
	} `json:"data"`
}

// klingVideoProvider wraps the cloud video-generation API: create a task, poll
// it to a terminal state, hand back the hosted output URL. The vendor serves a
// durable URL, so FetchArtifact only runs when the caller needs raw bytes for
// muxing.
type klingVideoProvider struct {
	ContentFetcher
	logger   outbound.LoggerPort
	conf     *config.KlingConfig
	retryCfg http_utils.RetryConfig
}

func NewKlingVideoProvider(contentFetcher ContentFetcher, conf *config.KlingConfig,
	retryCfg http_utils.RetryConfig, logger outbound.LoggerPort) outbound.SceneGeneratorPort {
	return &klingVideoProvider{
		ContentFetcher: contentFetcher,
		logger:         logger,
		conf:           conf,
		retryCfg:       retryCfg,
	}
}

func (p *klingVideoProvider) Capabilities() outbound.ProviderCapabilities {
	return outbound.ProviderCapabilities{
		Synchronous:    false,
		Interpolation:  true,
		MaxClipSeconds: p.conf.MaxClipSeconds,
		ProducesVideo:  true,
		RequiresImage:  true,
	}
}

func (p *klingVideoProvider) Submit(ctx context.Context, req outbound.GenerateSceneRequest) (*outbound.SceneJobHandle, error) {
	body := klingCreateRequest{
		Model:    p.conf.Model,
		Prompt:   req.Prompt,
		Duration: req.DurationSeconds,
	}
	for _, frame := range req.Frames {
		encoded := base64.StdEncoding.EncodeToString(frame.Data)
		switch frame.Role {
		case domain.LastFrame:
			body.ImageTail = encoded
		default:
			body.Image = encoded
		}
	}

	jsonPayload, err := json.Marshal(body)
	if err != nil {
		p.logger.Error(err, "Failed to marshal the video task request")
		return nil, err
	}

	rawRes, err := http_utils.Do(ctx, p.retryCfg, func() ([]byte, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.conf.ApiUrl+"/v1/videos/image2video", bytes.NewBuffer(jsonPayload))
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

	var created klingCreateResponse
	if err := json.Unmarshal(rawRes, &created); err != nil {
		p.logger.Error(err, "Failed to unmarshal the video task response")
		return nil, err
	}
	if created.Data.TaskID == "" {
		return nil, fmt.Errorf("video task response carried no task id: %s", http_utils.Snippet(rawRes))
	}

	return &outbound.SceneJobHandle{ID: created.Data.TaskID}, nil
}

func (p *klingVideoProvider) Await(ctx context.Context, handle *outbound.SceneJobHandle) (*outbound.RawSceneOutput, error) {
	for poll := 0; poll < p.conf.MaxPolls; poll++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(p.conf.PollInterval):
		}

		task, err := p.fetchTask(ctx, handle.ID)
		if err != nil {
			p.logger.ErrorWithFields(err, "Task poll failed", map[string]interface{}{
				"task_id": handle.ID,
			})
			continue
		}

		switch task.Data.TaskStatus {
		case "succeed":
			if len(task.Data.TaskResult.Videos) == 0 || task.Data.TaskResult.Videos[0].URL == "" {
				return nil, outbound.ErrNoArtifact
			}
			return &outbound.RawSceneOutput{ArtifactURL: task.Data.TaskResult.Videos[0].URL}, nil
		case "failed":
			return nil, fmt.Errorf("video task %s failed: %s", handle.ID, task.Data.TaskStatusMsg)
		}
	}

	return nil, fmt.Errorf("timed out waiting for video task %s after %d polls", handle.ID, p.conf.MaxPolls)
}

func (p *klingVideoProvider) FetchArtifact(ctx context.Context, ref string) ([]byte, error) {
	return http_utils.Do(ctx, p.retryCfg, func() ([]byte, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
		if err != nil {
			return nil, err
		}
		return p.FetchContent(httpReq)
	})
}

func (p *klingVideoProvider) fetchTask(ctx context.Context, taskID string) (*klingTaskResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.conf.ApiUrl+"/v1/videos/image2video/"+taskID, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+p.conf.ApiKey)

	rawRes, err := p.FetchContent(httpReq)
	if err != nil {
		return nil, err
	}

	var task klingTaskResponse
	if err := json.Unmarshal(rawRes, &task); err != nil {
		return nil, err
	}
	return &task, nil
}
