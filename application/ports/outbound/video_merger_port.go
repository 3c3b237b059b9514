package outbound

// VideoMergerPort is the external audio/video muxing collaborator. Paths are
// local files; both audio paths may be empty.
type VideoMergerPort interface {
	Merge(videoPath string, narrationPath string, musicPath string) (string, error)
	Concatenate(videoPaths []string) (string, error)
}
