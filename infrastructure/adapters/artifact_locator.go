package adapters

import (
	"generate-love-video/application/ports/outbound"
	"strings"
)

const maxLocateDepth = 8

var videoSuffixes = []string{".mp4", ".webm", ".mov", ".mkv", ".avi", ".m4v"}
var imageSuffixes = []string{".png", ".jpg", ".jpeg", ".webp", ".gif"}

// artifactLocator probes schema-unstable provider payloads for something that
// looks like a media reference. Two passes: any video-like reference wins over
// incidental stills (some GPU workflows emit preview images next to the real
// clip), and only a payload with no media-looking candidate at all reports
// ErrNoArtifact.
type artifactLocator struct{}

func NewArtifactLocator() outbound.ArtifactLocatorPort {
	return &artifactLocator{}
}

func (l *artifactLocator) Locate(payload map[string]interface{}) (string, error) {
	candidates := make([]string, 0, 4)
	collect(payload, 0, &candidates)

	for _, candidate := range candidates {
		if hasSuffix(candidate, videoSuffixes) {
			return candidate, nil
		}
	}
	for _, candidate := range candidates {
		if hasSuffix(candidate, imageSuffixes) {
			return candidate, nil
		}
	}

	return "", outbound.ErrNoArtifact
}

var referenceKeys = map[string]bool{
	"filename": true,
	"url":      true,
	"name":     true,
	"path":     true,
	"data":     true,
}

func collect(node interface{}, depth int, out *[]string) {
	if depth > maxLocateDepth {
		return
	}

	switch value := node.(type) {
	case string:
		*out = append(*out, value)
	case map[string]interface{}:
		for key, child := range value {
			if str, ok := child.(string); ok {
				if referenceKeys[strings.ToLower(key)] {
					*out = append(*out, str)
				}
				continue
			}
			collect(child, depth+1, out)
		}
	case []interface{}:
		for _, child := range value {
			collect(child, depth+1, out)
		}
	}
}

func hasSuffix(candidate string, suffixes []string) bool {
	trimmed := candidate
	if idx := strings.IndexByte(trimmed, '?'); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	trimmed = strings.ToLower(trimmed)
	for _, suffix := range suffixes {
		if strings.HasSuffix(trimmed, suffix) {
			return true
		}
	}
	return false
}
