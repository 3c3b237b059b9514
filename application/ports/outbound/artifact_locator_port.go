package outbound

// ArtifactLocatorPort normalizes schema-unstable provider payloads down to one
// artifact reference, preferring video references over incidental stills.
// Returns ErrNoArtifact when nothing media-like is present.
type ArtifactLocatorPort interface {
	Locate(payload map[string]interface{}) (string, error)
}
