package adapters

import (
	"context"
	"generate-love-video/application/ports/outbound"
	"generate-love-video/http_utils"
	"io"
	"net/http"
	"time"
)

// ContentFetcher is the shared HTTP exchange used by every outbound adapter.
// It also satisfies outbound.URLFetcherPort for callers that only hold a URL.
type ContentFetcher interface {
	FetchContent(req *http.Request) ([]byte, error)
	FetchURL(ctx context.Context, rawURL string) ([]byte, error)
}

type contentFetcher struct {
	logger outbound.LoggerPort
	client *http.Client
}

func NewContentFetcher(logger outbound.LoggerPort, timeout time.Duration) ContentFetcher {
	return &contentFetcher{
		logger: logger,
		client: &http.Client{Timeout: timeout},
	}
}

// FetchContent runs one HTTP exchange. Any non-2xx status comes back as a
// typed http_utils.StatusError carrying a truncated body snippet, so callers
// classify retriability on the code and logs still show the root cause.
func (c *contentFetcher) FetchContent(req *http.Request) ([]byte, error) {
	res, err := c.client.Do(req)
	if err != nil {
		c.logger.ErrorWithFields(err, "Failed to send the HTTP request", map[string]interface{}{
			"method": req.Method,
			"URL":    req.URL.String(),
		})
		return nil, err
	}

	defer func(body io.ReadCloser) {
		err := body.Close()
		if err != nil {
			c.logger.ErrorWithFields(err, "Failed to close the response body", map[string]interface{}{
				"method": req.Method,
				"URL":    req.URL.String(),
			})
		}
	}(res.Body)

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		c.logger.ErrorWithFields(err, "Failed to read the response body", map[string]interface{}{
			"method": req.Method,
			"URL":    req.URL.String(),
		})
		return nil, err
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		statusErr := &http_utils.StatusError{
			StatusCode: res.StatusCode,
			Snippet:    http_utils.Snippet(payload),
		}
		c.logger.ErrorWithFields(statusErr, "HTTP request returned non-OK status code", map[string]interface{}{
			"method": req.Method,
			"URL":    req.URL.String(),
			"status": res.StatusCode,
		})
		return nil, statusErr
	}

	return payload, nil
}

// FetchURL is the plain-GET convenience over FetchContent.
func (c *contentFetcher) FetchURL(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	return c.FetchContent(req)
}
