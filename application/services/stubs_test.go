package services

import (
	"context"
	"generate-love-video/application/ports/outbound"
	"generate-love-video/domain"
	"sync"
)

type noopMetrics struct{}

func (noopMetrics) JobStarted()                                          {}
func (noopMetrics) JobFinished(string)                                   {}
func (noopMetrics) SceneSettled(bool)                                    {}
func (noopMetrics) ProviderCall(provider string, s float64, failed bool) {}

type stubSceneCache struct {
	mu    sync.Mutex
	saved []domain.SceneResult
	err   error
}

func (c *stubSceneCache) Save(_ context.Context, _ string, result domain.SceneResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saved = append(c.saved, result)
	return c.err
}

func (c *stubSceneCache) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.saved)
}

type stubGenerator struct {
	caps outbound.ProviderCapabilities

	mu       sync.Mutex
	requests []outbound.GenerateSceneRequest
	output   *outbound.RawSceneOutput
	err      error
	artifact []byte
}

func (g *stubGenerator) Submit(_ context.Context, req outbound.GenerateSceneRequest) (*outbound.SceneJobHandle, error) {
	g.mu.Lock()
	g.requests = append(g.requests, req)
	g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	return &outbound.SceneJobHandle{Done: true, Result: g.output}, nil
}

func (g *stubGenerator) Await(_ context.Context, handle *outbound.SceneJobHandle) (*outbound.RawSceneOutput, error) {
	return handle.Result, nil
}

func (g *stubGenerator) FetchArtifact(_ context.Context, _ string) ([]byte, error) {
	return g.artifact, nil
}

func (g *stubGenerator) Capabilities() outbound.ProviderCapabilities {
	return g.caps
}

func (g *stubGenerator) recorded() []outbound.GenerateSceneRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]outbound.GenerateSceneRequest, len(g.requests))
	copy(out, g.requests)
	return out
}

type stubNarrationGenerator struct {
	payload []byte
	err     error
}

func (g *stubNarrationGenerator) Generate(_ context.Context, _ outbound.GenerateNarrationRequest) ([]byte, error) {
	return g.payload, g.err
}

type stubMusicGenerator struct {
	payload []byte
	err     error
}

func (g *stubMusicGenerator) Generate(_ context.Context, _ outbound.GenerateMusicRequest) ([]byte, error) {
	return g.payload, g.err
}

type stubMediaStore struct {
	mu      sync.Mutex
	uploads []string
}

func (s *stubMediaStore) Upload(_ context.Context, _ []byte, _ string, folder string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads = append(s.uploads, folder)
	return "https://bucket.example.com/" + folder + "/artifact", nil
}

func (s *stubMediaStore) Download(_ context.Context, _ string) ([]byte, error) {
	return []byte("stored"), nil
}

func (s *stubMediaStore) ExtractKey(_ string) string {
	return ""
}

func (s *stubMediaStore) uploadedFolders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.uploads))
	copy(out, s.uploads)
	return out
}

type stubURLFetcher struct {
	mu      sync.Mutex
	fetched []string
	payload []byte
	err     error
}

func (f *stubURLFetcher) FetchURL(_ context.Context, rawURL string) ([]byte, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, rawURL)
	f.mu.Unlock()
	return f.payload, f.err
}

func (f *stubURLFetcher) fetchedURLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.fetched))
	copy(out, f.fetched)
	return out
}
