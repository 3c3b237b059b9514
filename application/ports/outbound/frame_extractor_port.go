package outbound

// FrameExtractorPort samples the final moment of a clip so the next clip in a
// continuity chain can be conditioned on it.
type FrameExtractorPort interface {
	ExtractLastFrame(videoPath string) ([]byte, error)
}
