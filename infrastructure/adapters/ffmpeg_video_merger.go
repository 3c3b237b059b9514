package adapters

import (
	"bufio"
	"fmt"
	"generate-love-video/application/ports/outbound"
	"os"
	"os/exec"

	"github.com/google/uuid"
)

type ffmpegVideoMerger struct {
	logger outbound.LoggerPort
}

func NewFFmpegVideoMerger(logger outbound.LoggerPort) outbound.VideoMergerPort {
	return &ffmpegVideoMerger{
		logger: logger,
	}
}

// Merge muxes narration and/or music onto a video. Narration plays at full
// level with music ducked underneath; either audio path may be empty. The
// input files are consumed and removed.
func (f *ffmpegVideoMerger) Merge(videoPath string, narrationPath string, musicPath string) (string, error) {
	defer f.removeAll(videoPath, narrationPath, musicPath)

	outputFile := "/tmp/" + uuid.NewString() + ".mp4"

	args := []string{"-i", videoPath}
	switch {
	case narrationPath != "" && musicPath != "":
		args = append(args, "-i", narrationPath, "-i", musicPath,
			"-filter_complex", "[2:a]volume=0.25[bg];[1:a][bg]amix=inputs=2:duration=first[aout]",
			"-map", "0:v", "-map", "[aout]")
	case narrationPath != "":
		args = append(args, "-i", narrationPath, "-map", "0:v", "-map", "1:a")
	case musicPath != "":
		args = append(args, "-i", musicPath, "-map", "0:v", "-map", "1:a")
	default:
		args = append(args, "-c", "copy")
	}
	args = append(args, "-c:v", "copy", "-c:a", "aac", "-shortest", outputFile)

	cmd := exec.Command("ffmpeg", args...)
	if err := cmd.Run(); err != nil {
		f.logger.Error(err, "error merging audio onto video")
		return "", err
	}

	return outputFile, nil
}

// Concatenate joins clips in the order given using the concat demuxer. The
// clip files are consumed and removed.
func (f *ffmpegVideoMerger) Concatenate(videoPaths []string) (finalFileName string, err error) {
	if len(videoPaths) == 0 {
		return "", fmt.Errorf("no clips to concatenate")
	}
	if len(videoPaths) == 1 {
		return videoPaths[0], nil
	}

	fileList, err := os.Create("/tmp/" + uuid.NewString())
	if err != nil {
		f.logger.Error(err, "Failed to create clip list file")
		return "", err
	}

	defer func(fileList *os.File) {
		if err := fileList.Close(); err != nil {
			f.logger.Error(err, "Failed to close clip list file")
		}
		if err := os.Remove(fileList.Name()); err != nil {
			f.logger.Error(err, "Failed to remove clip list file")
		}
	}(fileList)

	writer := bufio.NewWriter(fileList)
	for _, path := range videoPaths {
		if _, err = writer.WriteString("file '" + path + "'\n"); err != nil {
			f.logger.Error(err, "Failed to write to clip list file")
			return "", err
		}
	}
	if err = writer.Flush(); err != nil {
		f.logger.Error(err, "Failed to flush clip list file")
		return "", err
	}

	finalFileName = "/tmp/" + uuid.NewString() + ".mp4"

	cmd := exec.Command("ffmpeg", "-f", "concat", "-safe", "0", "-i", fileList.Name(), "-c", "copy", finalFileName)
	if err = cmd.Run(); err != nil {
		f.logger.Error(err, "Failed to concatenate clips")
		return "", err
	}

	f.removeAll(videoPaths...)
	return finalFileName, nil
}

func (f *ffmpegVideoMerger) removeAll(paths ...string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			f.logger.Error(err, "error removing intermediate file")
		}
	}
}
