package adapters

import (
	"generate-love-video/application/ports/outbound"
	"os"
	"os/exec"

	"github.com/google/uuid"
)

type ffmpegFrameExtractor struct {
	logger outbound.LoggerPort
}

func NewFFmpegFrameExtractor(logger outbound.LoggerPort) outbound.FrameExtractorPort {
	return &ffmpegFrameExtractor{
		logger: logger,
	}
}

// ExtractLastFrame samples a still from the final moment of a clip so the
// next clip in a continuity chain can start where this one ended.
func (f *ffmpegFrameExtractor) ExtractLastFrame(videoPath string) ([]byte, error) {
	outputFile := "/tmp/" + uuid.NewString() + ".png"
	defer func() {
		if err := os.Remove(outputFile); err != nil && !os.IsNotExist(err) {
			f.logger.Error(err, "error removing extracted frame file")
		}
	}()

	cmd := exec.Command("ffmpeg", "-sseof", "-0.2", "-i", videoPath,
		"-vsync", "0", "-frames:v", "1", "-update", "1", outputFile)
	if err := cmd.Run(); err != nil {
		f.logger.Error(err, "error extracting last frame")
		return nil, err
	}

	frame, err := os.ReadFile(outputFile)
	if err != nil {
		f.logger.Error(err, "error reading extracted frame")
		return nil, err
	}

	return frame, nil
}
