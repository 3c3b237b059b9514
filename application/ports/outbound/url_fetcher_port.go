package outbound

import "context"

// URLFetcherPort resolves a remote reference (a reference frame URL, a
// provider output URL) to raw bytes without tying the caller to a concrete
// HTTP client.
type URLFetcherPort interface {
	FetchURL(ctx context.Context, rawURL string) ([]byte, error)
}
