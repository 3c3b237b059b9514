package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"generate-love-video/application/ports/inbound"
	"generate-love-video/application/ports/outbound"
	"generate-love-video/domain"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultClipSeconds = 5.0

type sceneProcessor struct {
	logger             outbound.LoggerPort
	workerPool         outbound.TaskDispatcher
	generators         map[string]outbound.SceneGeneratorPort
	defaultProvider    string
	narrationGenerator outbound.NarrationGeneratorPort
	musicGenerator     outbound.MusicGeneratorPort
	mediaStore         outbound.MediaStorePort
	videoMerger        outbound.VideoMergerPort
	frameExtractor     outbound.FrameExtractorPort
	artifactLocator    outbound.ArtifactLocatorPort
	urlFetcher         outbound.URLFetcherPort
	metrics            outbound.MetricsPort
}

func NewSceneProcessor(
	logger outbound.LoggerPort,
	workerPool outbound.TaskDispatcher,
	generators map[string]outbound.SceneGeneratorPort,
	defaultProvider string,
	narrationGenerator outbound.NarrationGeneratorPort,
	musicGenerator outbound.MusicGeneratorPort,
	mediaStore outbound.MediaStorePort,
	videoMerger outbound.VideoMergerPort,
	frameExtractor outbound.FrameExtractorPort,
	artifactLocator outbound.ArtifactLocatorPort,
	urlFetcher outbound.URLFetcherPort,
	metrics outbound.MetricsPort) inbound.SceneProcessorPort {
	return &sceneProcessor{
		logger:             logger,
		workerPool:         workerPool,
		generators:         generators,
		defaultProvider:    defaultProvider,
		narrationGenerator: narrationGenerator,
		musicGenerator:     musicGenerator,
		mediaStore:         mediaStore,
		videoMerger:        videoMerger,
		frameExtractor:     frameExtractor,
		artifactLocator:    artifactLocator,
		urlFetcher:         urlFetcher,
		metrics:            metrics,
	}
}

// ProcessScene runs every provider-specific step between one descriptor and
// one settled result. Failures of any step become {Success: false}; nothing
// scene-level is allowed to escape.
func (s *sceneProcessor) ProcessScene(ctx context.Context, scene domain.Scene, settings domain.GenerationSettings) domain.SceneResult {
	providerName := settings.Provider
	if providerName == "" {
		providerName = s.defaultProvider
	}
	generator, ok := s.generators[providerName]
	if !ok {
		return s.failure(scene, fmt.Errorf("unknown generation provider %q", providerName))
	}
	caps := generator.Capabilities()

	frames, err := s.resolveFrames(ctx, scene.Frames, caps)
	if err != nil {
		return s.failure(scene, err)
	}

	aux := s.startAuxGeneration(ctx, scene, settings)

	started := time.Now()
	primary, err := s.generatePrimary(ctx, generator, caps, scene, settings, frames)
	s.metrics.ProviderCall(providerName, time.Since(started).Seconds(), err != nil)
	if err != nil {
		aux.wait()
		s.removeFiles([]string{aux.narrationPath, aux.musicPath})
		return s.failure(scene, err)
	}

	aux.wait()

	videoURL, err := s.publish(ctx, caps, primary, aux)
	if err != nil {
		return s.failure(scene, err)
	}

	return domain.SceneResult{
		Index:        scene.Index,
		Title:        scene.Title,
		Success:      true,
		VideoURL:     videoURL,
		NarrationURL: aux.narrationURL,
		MusicURL:     aux.musicURL,
	}
}

func (s *sceneProcessor) failure(scene domain.Scene, err error) domain.SceneResult {
	s.logger.ErrorWithFields(err, "Scene generation failed", map[string]interface{}{
		"scene": scene.Index,
		"title": scene.Title,
	})
	return domain.SceneResult{
		Index:   scene.Index,
		Title:   scene.Title,
		Success: false,
		Error:   err.Error(),
	}
}

// primaryArtifact is the settled output of the main generation path, either
// as local bytes or as a durable URL that needs no further processing.
type primaryArtifact struct {
	bytes       []byte
	contentType string
	durableURL  string
}

func (s *sceneProcessor) generatePrimary(ctx context.Context, generator outbound.SceneGeneratorPort,
	caps outbound.ProviderCapabilities, scene domain.Scene, settings domain.GenerationSettings,
	frames []outbound.Frame) (*primaryArtifact, error) {

	duration := scene.DurationSeconds
	if duration <= 0 {
		duration = defaultClipSeconds
	}

	if caps.ProducesVideo && caps.MaxClipSeconds > 0 && duration > caps.MaxClipSeconds {
		return s.generateClipChain(ctx, generator, scene, settings, frames, duration, caps.MaxClipSeconds)
	}

	output, err := s.runGeneration(ctx, generator, outbound.GenerateSceneRequest{
		Prompt:          scene.Prompt,
		Frames:          frames,
		DurationSeconds: duration,
		Settings:        settings.Extra,
	})
	if err != nil {
		return nil, err
	}

	if output.ArtifactURL != "" {
		return &primaryArtifact{durableURL: output.ArtifactURL}, nil
	}

	payload, contentType, err := s.materialize(ctx, generator, output)
	if err != nil {
		return nil, err
	}
	return &primaryArtifact{bytes: payload, contentType: contentType}, nil
}

// generateClipChain splits a long scene into balanced sequential clips, each
// conditioned on the previous clip's extracted last frame, then joins them.
// Balanced splitting avoids the degenerate tail clip that greedy max-length
// splitting produces.
func (s *sceneProcessor) generateClipChain(ctx context.Context, generator outbound.SceneGeneratorPort,
	scene domain.Scene, settings domain.GenerationSettings, frames []outbound.Frame,
	totalSeconds float64, maxClipSeconds float64) (*primaryArtifact, error) {

	durations := splitClipDurations(totalSeconds, maxClipSeconds)
	clipPaths := make([]string, 0, len(durations))
	clipFrames := frames

	for i, clipSeconds := range durations {
		output, err := s.runGeneration(ctx, generator, outbound.GenerateSceneRequest{
			Prompt:          scene.Prompt,
			Frames:          clipFrames,
			DurationSeconds: clipSeconds,
			Settings:        settings.Extra,
		})
		if err != nil {
			s.removeFiles(clipPaths)
			return nil, fmt.Errorf("clip %d/%d: %w", i+1, len(durations), err)
		}

		payload, _, err := s.materializeVideo(ctx, generator, output)
		if err != nil {
			s.removeFiles(clipPaths)
			return nil, fmt.Errorf("clip %d/%d: %w", i+1, len(durations), err)
		}

		clipPath, err := writeTempFile(payload, ".mp4")
		if err != nil {
			s.removeFiles(clipPaths)
			return nil, err
		}
		clipPaths = append(clipPaths, clipPath)

		if i < len(durations)-1 {
			lastFrame, err := s.frameExtractor.ExtractLastFrame(clipPath)
			if err != nil {
				s.removeFiles(clipPaths)
				return nil, fmt.Errorf("extracting continuity frame after clip %d: %w", i+1, err)
			}
			clipFrames = []outbound.Frame{{Role: domain.SingleFrame, Data: lastFrame}}
		}
	}

	joinedPath, err := s.videoMerger.Concatenate(clipPaths)
	if err != nil {
		return nil, err
	}

	joined, err := os.ReadFile(joinedPath)
	if err != nil {
		return nil, err
	}
	if err := os.Remove(joinedPath); err != nil && !os.IsNotExist(err) {
		s.logger.Error(err, "error removing joined clip file")
	}

	return &primaryArtifact{bytes: joined, contentType: "video/mp4"}, nil
}

// splitClipDurations distributes a duration over the fewest clips that all
// respect the cap, keeping every clip the same length.
func splitClipDurations(totalSeconds float64, maxClipSeconds float64) []float64 {
	count := int(math.Ceil(totalSeconds / maxClipSeconds))
	if count < 1 {
		count = 1
	}
	each := totalSeconds / float64(count)
	durations := make([]float64, count)
	for i := range durations {
		durations[i] = each
	}
	return durations
}

func (s *sceneProcessor) runGeneration(ctx context.Context, generator outbound.SceneGeneratorPort,
	req outbound.GenerateSceneRequest) (*outbound.RawSceneOutput, error) {
	handle, err := generator.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	if handle.Done {
		return handle.Result, nil
	}
	return generator.Await(ctx, handle)
}

// materialize turns a raw output into bytes, probing schema-unstable payloads
// through the artifact locator when no typed field is set.
func (s *sceneProcessor) materialize(ctx context.Context, generator outbound.SceneGeneratorPort,
	output *outbound.RawSceneOutput) ([]byte, string, error) {
	if output == nil {
		return nil, "", outbound.ErrNoArtifact
	}
	if len(output.Bytes) > 0 {
		contentType := output.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		return output.Bytes, contentType, nil
	}
	if output.ArtifactRef != "" {
		payload, err := generator.FetchArtifact(ctx, output.ArtifactRef)
		return payload, contentTypeForRef(output.ArtifactRef), err
	}
	if output.Payload != nil {
		ref, err := s.artifactLocator.Locate(output.Payload)
		if err != nil {
			return nil, "", err
		}
		payload, err := generator.FetchArtifact(ctx, ref)
		return payload, contentTypeForRef(ref), err
	}
	return nil, "", outbound.ErrNoArtifact
}

// materializeVideo is materialize plus URL resolution, for chain steps that
// always need local bytes.
func (s *sceneProcessor) materializeVideo(ctx context.Context, generator outbound.SceneGeneratorPort,
	output *outbound.RawSceneOutput) ([]byte, string, error) {
	if output != nil && output.ArtifactURL != "" {
		payload, err := generator.FetchArtifact(ctx, output.ArtifactURL)
		return payload, "video/mp4", err
	}
	return s.materialize(ctx, generator, output)
}

// auxResults carries the narration/music outcomes. Aux generation runs
// concurrently with the primary call; a failed aux track just leaves its URL
// empty and never fails the scene.
type auxResults struct {
	wg            sync.WaitGroup
	mu            sync.Mutex
	narrationURL  string
	narrationPath string
	musicURL      string
	musicPath     string
}

func (a *auxResults) wait() {
	a.wg.Wait()
}

func (s *sceneProcessor) startAuxGeneration(ctx context.Context, scene domain.Scene, settings domain.GenerationSettings) *auxResults {
	aux := &auxResults{}

	duration := scene.DurationSeconds
	if duration <= 0 {
		duration = defaultClipSeconds
	}

	if scene.Narration != "" && settings.VoiceID != "" {
		aux.wg.Add(1)
		err := s.workerPool.Submit(func() {
			defer aux.wg.Done()
			payload, err := s.narrationGenerator.Generate(ctx, outbound.GenerateNarrationRequest{
				Text:    scene.Narration,
				VoiceID: settings.VoiceID,
			})
			if err != nil {
				s.logger.ErrorWithFields(err, "Narration generation failed, continuing without it", map[string]interface{}{
					"scene": scene.Index,
				})
				return
			}
			s.storeAuxTrack(ctx, aux, payload, "narration")
		})
		if err != nil {
			aux.wg.Done()
			s.logger.Error(err, "Failed to submit narration task to worker pool")
		}
	}

	if settings.WithMusic && settings.MusicPrompt != "" {
		aux.wg.Add(1)
		err := s.workerPool.Submit(func() {
			defer aux.wg.Done()
			payload, err := s.musicGenerator.Generate(ctx, outbound.GenerateMusicRequest{
				Prompt:          settings.MusicPrompt,
				DurationSeconds: duration,
			})
			if err != nil {
				s.logger.ErrorWithFields(err, "Music generation failed, continuing without it", map[string]interface{}{
					"scene": scene.Index,
				})
				return
			}
			s.storeAuxTrack(ctx, aux, payload, "music")
		})
		if err != nil {
			aux.wg.Done()
			s.logger.Error(err, "Failed to submit music task to worker pool")
		}
	}

	return aux
}

func (s *sceneProcessor) storeAuxTrack(ctx context.Context, aux *auxResults, payload []byte, kind string) {
	url, err := s.mediaStore.Upload(ctx, payload, "audio/mpeg", kind)
	if err != nil {
		s.logger.Error(err, "Failed to upload "+kind+" track, continuing without it")
		return
	}
	path, err := writeTempFile(payload, ".mp3")
	if err != nil {
		s.logger.Error(err, "Failed to stage "+kind+" track for merging")
		path = ""
	}

	aux.mu.Lock()
	defer aux.mu.Unlock()
	if kind == "narration" {
		aux.narrationURL = url
		aux.narrationPath = path
	} else {
		aux.musicURL = url
		aux.musicPath = path
	}
}

// publish muxes any audio tracks onto a video artifact and uploads the final
// bytes, returning only a durable reference.
func (s *sceneProcessor) publish(ctx context.Context, caps outbound.ProviderCapabilities,
	primary *primaryArtifact, aux *auxResults) (string, error) {

	hasAudio := aux.narrationPath != "" || aux.musicPath != ""

	if primary.durableURL != "" && (!hasAudio || !caps.ProducesVideo) {
		s.removeFiles([]string{aux.narrationPath, aux.musicPath})
		return primary.durableURL, nil
	}

	if !caps.ProducesVideo || !hasAudio {
		s.removeFiles([]string{aux.narrationPath, aux.musicPath})
		if primary.durableURL != "" {
			return primary.durableURL, nil
		}
		return s.mediaStore.Upload(ctx, primary.bytes, primary.contentType, "scenes")
	}

	videoBytes := primary.bytes
	if videoBytes == nil && primary.durableURL != "" {
		fetched, err := s.fetchURL(ctx, primary.durableURL)
		if err != nil {
			return "", err
		}
		videoBytes = fetched
	}

	videoPath, err := writeTempFile(videoBytes, ".mp4")
	if err != nil {
		return "", err
	}

	mergedPath, err := s.videoMerger.Merge(videoPath, aux.narrationPath, aux.musicPath)
	if err != nil {
		return "", err
	}

	merged, err := os.ReadFile(mergedPath)
	if err != nil {
		return "", err
	}
	if err := os.Remove(mergedPath); err != nil && !os.IsNotExist(err) {
		s.logger.Error(err, "error removing merged video file")
	}

	return s.mediaStore.Upload(ctx, merged, "video/mp4", "scenes")
}

// resolveFrames normalizes every conditioning input to raw bytes and applies
// the interpolation policy: with two or more frames and an interpolating
// provider the first and last become the endpoints, otherwise only the first
// frame is used.
func (s *sceneProcessor) resolveFrames(ctx context.Context, refs []domain.ReferenceFrame,
	caps outbound.ProviderCapabilities) ([]outbound.Frame, error) {
	if len(refs) == 0 {
		if caps.RequiresImage {
			return nil, fmt.Errorf("provider requires a reference image but none was supplied")
		}
		return nil, nil
	}

	resolved := make([][]byte, 0, len(refs))
	for i, ref := range refs {
		payload, err := s.resolveFrameData(ctx, ref.Data)
		if err != nil {
			return nil, fmt.Errorf("resolving reference frame %d: %w", i, err)
		}
		resolved = append(resolved, payload)
	}

	if caps.Interpolation && len(resolved) >= 2 {
		return []outbound.Frame{
			{Role: domain.FirstFrame, Data: resolved[0]},
			{Role: domain.LastFrame, Data: resolved[len(resolved)-1]},
		}, nil
	}

	return []outbound.Frame{{Role: domain.SingleFrame, Data: resolved[0]}}, nil
}

func (s *sceneProcessor) resolveFrameData(ctx context.Context, data string) ([]byte, error) {
	if data == "" {
		return nil, fmt.Errorf("empty frame data")
	}

	if strings.HasPrefix(data, "data:") {
		idx := strings.Index(data, "base64,")
		if idx < 0 {
			return nil, fmt.Errorf("unsupported data URI encoding")
		}
		return base64.StdEncoding.DecodeString(data[idx+len("base64,"):])
	}

	if strings.HasPrefix(data, "http://") || strings.HasPrefix(data, "https://") {
		return s.fetchURL(ctx, data)
	}

	return base64.StdEncoding.DecodeString(data)
}

func (s *sceneProcessor) fetchURL(ctx context.Context, url string) ([]byte, error) {
	if key := s.mediaStore.ExtractKey(url); key != "" {
		return s.mediaStore.Download(ctx, key)
	}
	return s.urlFetcher.FetchURL(ctx, url)
}

func (s *sceneProcessor) removeFiles(paths []string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.logger.Error(err, "error removing temp file")
		}
	}
}

func writeTempFile(data []byte, extension string) (string, error) {
	path := filepath.Join(os.TempDir(), uuid.NewString()+extension)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func contentTypeForRef(ref string) string {
	trimmed := ref
	if idx := strings.IndexByte(trimmed, '?'); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	switch {
	case strings.HasSuffix(trimmed, ".mp4"), strings.HasSuffix(trimmed, ".m4v"):
		return "video/mp4"
	case strings.HasSuffix(trimmed, ".webm"):
		return "video/webm"
	case strings.HasSuffix(trimmed, ".png"):
		return "image/png"
	case strings.HasSuffix(trimmed, ".jpg"), strings.HasSuffix(trimmed, ".jpeg"):
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
