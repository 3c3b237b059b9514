package outbound

import (
	"context"
	"errors"
	"generate-love-video/domain"
)

// ErrNoArtifact marks a provider call that terminated successfully but
// produced nothing the caller can use. Callers treat it as a scene-level
// failure, never as a transport fault, so it is never retried.
var ErrNoArtifact = errors.New("provider completed without a usable artifact")

type Frame struct {
	Role domain.FrameRole
	Data []byte
}

// GenerateSceneRequest is the uniform generation input. Settings is the
// provider-specific bag forwarded opaquely from the job settings.
type GenerateSceneRequest struct {
	Prompt          string
	Frames          []Frame
	DurationSeconds float64
	Settings        map[string]interface{}
}

// SceneJobHandle identifies in-flight provider work. Synchronous providers
// return an already-completed handle with Result set.
type SceneJobHandle struct {
	ID     string
	Done   bool
	Result *RawSceneOutput
}

// RawSceneOutput is what a provider terminal state yields before
// normalization. Providers with a known schema fill exactly one of the typed
// fields; schema-unstable providers hand back Payload for the artifact
// locator to probe.
type RawSceneOutput struct {
	ArtifactURL string
	ArtifactRef string
	Bytes       []byte
	ContentType string
	Payload     map[string]interface{}
}

// ProviderCapabilities is what the scene processor branches on instead of a
// fixed vendor enum, so a new backend slots in without orchestration changes.
type ProviderCapabilities struct {
	Synchronous    bool
	Interpolation  bool
	MaxClipSeconds float64
	ProducesVideo  bool
	RequiresImage  bool
}

// SceneGeneratorPort is the capability contract every generation backend
// implements, whatever its underlying protocol.
type SceneGeneratorPort interface {
	Submit(ctx context.Context, req GenerateSceneRequest) (*SceneJobHandle, error)
	Await(ctx context.Context, handle *SceneJobHandle) (*RawSceneOutput, error)
	FetchArtifact(ctx context.Context, ref string) ([]byte, error)
	Capabilities() ProviderCapabilities
}
