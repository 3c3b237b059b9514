package outbound

import "context"

// MediaStorePort is the opaque object-store collaborator. Upload returns a
// durable URL; ExtractKey re-derives a storage key from a previously issued
// URL so chained operations can skip a download-reupload round trip.
type MediaStorePort interface {
	Upload(ctx context.Context, data []byte, contentType string, folder string) (string, error)
	Download(ctx context.Context, key string) ([]byte, error)
	ExtractKey(url string) string
}
