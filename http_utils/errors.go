package http_utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

const snippetLimit = 512

// StatusError is returned by the content fetcher for any non-2xx response.
// Retriability decisions are made on the status code alone, never on the body
// text, so a backend changing its error wording cannot change our behavior.
type StatusError struct {
	StatusCode int
	Snippet    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP request returned status code %d: %s", e.StatusCode, e.Snippet)
}

// Snippet truncates a raw response body for diagnostics.
func Snippet(body []byte) string {
	if len(body) > snippetLimit {
		return string(body[:snippetLimit])
	}
	return string(body)
}

// IsRetriable classifies an error as worth another attempt. 5xx codes are
// retriable because the observed failure mode of the diffusion backends is a
// worker reloading a model checkpoint mid-request.
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.StatusCode {
		case 429, 500, 502, 503, 504:
			return true
		}
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}

	return false
}
