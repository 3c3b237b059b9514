package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"generate-love-video/application/ports/outbound"
	"generate-love-video/config"
	"generate-love-video/http_utils"
	"net/http"
	"time"

	"github.com/donovanhide/eventsource"
)

const musicDoneEvent = "done"

type musicPredictionRequest struct {
	Version string               `json:"version"`
	Input   musicPredictionInput `json:"input"`
	Stream  bool                 `json:"stream"`
}

type musicPredictionInput struct {
	Prompt   string  `json:"prompt"`
	Duration float64 `json:"duration"`
}

type musicPredictionResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Error  string `json:"error"`
	Output string `json:"output"`
	URLs   struct {
		Get    string `json:"get"`
		Stream string `json:"stream"`
	} `json:"urls"`
}

// replicateMusicGenerator creates a background-music prediction and waits on
// its server-sent event stream for the terminal signal, falling back to plain
// polling when the stream cannot be opened.
type replicateMusicGenerator struct {
	ContentFetcher
	logger   outbound.LoggerPort
	conf     *config.MusicConfig
	retryCfg http_utils.RetryConfig
}

func NewReplicateMusicGenerator(contentFetcher ContentFetcher, conf *config.MusicConfig,
	retryCfg http_utils.RetryConfig, logger outbound.LoggerPort) outbound.MusicGeneratorPort {
	return &replicateMusicGenerator{
		ContentFetcher: contentFetcher,
		logger:         logger,
		conf:           conf,
		retryCfg:       retryCfg,
	}
}

func (g *replicateMusicGenerator) Generate(ctx context.Context, req outbound.GenerateMusicRequest) ([]byte, error) {
	prediction, err := g.createPrediction(ctx, req)
	if err != nil {
		return nil, err
	}

	if prediction.URLs.Stream != "" {
		g.awaitStream(ctx, prediction.URLs.Stream)
	}

	final, err := g.awaitTerminal(ctx, prediction.URLs.Get)
	if err != nil {
		return nil, err
	}
	if final.Output == "" {
		return nil, outbound.ErrNoArtifact
	}

	return http_utils.Do(ctx, g.retryCfg, func() ([]byte, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, final.Output, nil)
		if err != nil {
			return nil, err
		}
		return g.FetchContent(httpReq)
	})
}

func (g *replicateMusicGenerator) createPrediction(ctx context.Context, req outbound.GenerateMusicRequest) (*musicPredictionResponse, error) {
	jsonPayload, err := json.Marshal(musicPredictionRequest{
		Version: g.conf.Model,
		Stream:  true,
		Input: musicPredictionInput{
			Prompt:   req.Prompt,
			Duration: req.DurationSeconds,
		},
	})
	if err != nil {
		g.logger.Error(err, "Failed to marshal the music prediction request")
		return nil, err
	}

	rawRes, err := http_utils.Do(ctx, g.retryCfg, func() ([]byte, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.conf.ApiUrl+"/v1/predictions", bytes.NewBuffer(jsonPayload))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Authorization", "Token "+g.conf.ApiKey)
		httpReq.Header.Set("Content-Type", "application/json")
		return g.FetchContent(httpReq)
	})
	if err != nil {
		return nil, err
	}

	var prediction musicPredictionResponse
	if err := json.Unmarshal(rawRes, &prediction); err != nil {
		g.logger.Error(err, "Failed to unmarshal the music prediction response")
		return nil, err
	}
	if prediction.URLs.Get == "" {
		return nil, fmt.Errorf("music prediction response carried no poll URL: %s", http_utils.Snippet(rawRes))
	}

	return &prediction, nil
}

// awaitStream blocks on the prediction's SSE feed until the done event, an
// error or cancellation. It is an optimization over polling; failures here
// only mean we fall back to awaitTerminal's polling loop.
func (g *replicateMusicGenerator) awaitStream(ctx context.Context, streamURL string) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return
	}
	httpReq.Header.Set("Authorization", "Token "+g.conf.ApiKey)
	httpReq.Header.Set("Accept", "text/event-stream")

	stream, err := eventsource.SubscribeWithRequest("", httpReq)
	if err != nil {
		g.logger.Warn("Failed to subscribe to the prediction stream, falling back to polling")
		return
	}
	defer stream.Close()

	deadline := time.After(time.Duration(g.conf.MaxPolls) * g.conf.PollInterval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline:
			return
		case ev, ok := <-stream.Events:
			if !ok {
				return
			}
			if ev.Event() == musicDoneEvent {
				return
			}
		case <-stream.Errors:
			return
		}
	}
}

func (g *replicateMusicGenerator) awaitTerminal(ctx context.Context, getURL string) (*musicPredictionResponse, error) {
	for poll := 0; poll < g.conf.MaxPolls; poll++ {
		rawRes, err := http_utils.Do(ctx, g.retryCfg, func() ([]byte, error) {
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, getURL, nil)
			if err != nil {
				return nil, err
			}
			httpReq.Header.Set("Authorization", "Token "+g.conf.ApiKey)
			return g.FetchContent(httpReq)
		})
		if err != nil {
			return nil, err
		}

		var prediction musicPredictionResponse
		if err := json.Unmarshal(rawRes, &prediction); err != nil {
			return nil, err
		}

		switch prediction.Status {
		case "succeeded":
			return &prediction, nil
		case "failed", "canceled":
			return nil, fmt.Errorf("music prediction ended as %s: %s", prediction.Status, prediction.Error)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(g.conf.PollInterval):
		}
	}

	return nil, fmt.Errorf("timed out waiting for music prediction after %d polls", g.conf.MaxPolls)
}
