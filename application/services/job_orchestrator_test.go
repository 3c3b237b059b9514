package services

import (
	"context"
	"errors"
	"fmt"
	"generate-love-video/application/ports/inbound"
	"generate-love-video/application/ports/outbound"
	"generate-love-video/config"
	"generate-love-video/domain"
	"generate-love-video/infrastructure/adapters"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/panjf2000/ants/v2"
)

type trackingProcessor struct {
	delay      time.Duration
	failScenes map[int]bool

	mu       sync.Mutex
	inFlight int32
	peak     int32
	order    []int
}

func (p *trackingProcessor) ProcessScene(_ context.Context, scene domain.Scene, _ domain.GenerationSettings) domain.SceneResult {
	current := atomic.AddInt32(&p.inFlight, 1)
	for {
		observed := atomic.LoadInt32(&p.peak)
		if current <= observed || atomic.CompareAndSwapInt32(&p.peak, observed, current) {
			break
		}
	}
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	atomic.AddInt32(&p.inFlight, -1)

	p.mu.Lock()
	p.order = append(p.order, scene.Index)
	shouldFail := p.failScenes[scene.Index]
	p.mu.Unlock()

	if shouldFail {
		return domain.SceneResult{
			Index:   scene.Index,
			Title:   scene.Title,
			Success: false,
			Error:   "simulated provider outage",
		}
	}
	return domain.SceneResult{
		Index:    scene.Index,
		Title:    scene.Title,
		Success:  true,
		VideoURL: fmt.Sprintf("https://bucket/scene-%d.mp4", scene.Index),
	}
}

func newTestOrchestrator(t *testing.T, processor inbound.SceneProcessorPort, width int) (inbound.JobOrchestratorPort, outbound.JobRegistryPort, *stubSceneCache) {
	t.Helper()

	pool, err := ants.NewPool(64)
	if err != nil {
		t.Fatal("Failed to create worker pool:", err)
	}
	t.Cleanup(pool.Release)

	logger := adapters.NewZerologWrapper()
	registry := adapters.NewMemoryJobRegistry(logger)
	cache := &stubSceneCache{}

	orchestrator := NewJobOrchestrator(logger, pool, processor, registry, cache, noopMetrics{}, &config.WorkerConfig{
		PoolSize:         64,
		SceneWorkerWidth: width,
		JobRetention:     time.Hour,
		SweepInterval:    time.Minute,
	})

	return orchestrator, registry, cache
}

func makeScenes(n int) []domain.Scene {
	scenes := make([]domain.Scene, n)
	for i := range scenes {
		scenes[i] = domain.Scene{
			Title:  fmt.Sprintf("scene %d", i+1),
			Prompt: fmt.Sprintf("prompt %d", i+1),
		}
	}
	return scenes
}

func waitForTerminal(t *testing.T, registry outbound.JobRegistryPort, jobID string) domain.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, ok := registry.Get(jobID)
		if !ok {
			t.Fatal("Job disappeared while waiting")
		}
		if job.IsDone() {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Job never reached a terminal status")
	return domain.Job{}
}

func TestStartJob_ReturnsImmediatelyAndCompletes(t *testing.T) {
	processor := &trackingProcessor{delay: 20 * time.Millisecond}
	orchestrator, registry, cache := newTestOrchestrator(t, processor, 5)

	started := time.Now()
	res, err := orchestrator.StartJob(context.Background(), inbound.StartJobParams{
		Scenes: makeScenes(3),
	})
	if err != nil {
		t.Fatal("StartJob failed:", err)
	}
	if elapsed := time.Since(started); elapsed > processor.delay {
		t.Fatal("StartJob blocked on generation work:", elapsed)
	}
	if res.Total != 3 {
		t.Fatal("Unexpected total:", res.Total)
	}

	job := waitForTerminal(t, registry, res.JobID)
	if job.Status != domain.JobCompleted {
		t.Fatal("Expected completion, got:", job.Status, job.Error)
	}
	if job.Completed != 3 || len(job.Results) != 3 {
		t.Fatalf("Expected 3 settled scenes, got completed=%d results=%d", job.Completed, len(job.Results))
	}
	for _, result := range job.Results {
		if !result.Success {
			t.Fatalf("Unexpected scene failure: %+v", result)
		}
	}
	if cache.count() != 3 {
		t.Fatal("Expected every settled scene to be mirrored, got:", cache.count())
	}
}

func TestStartJob_RejectsEmptySceneList(t *testing.T) {
	orchestrator, _, _ := newTestOrchestrator(t, &trackingProcessor{}, 5)

	_, err := orchestrator.StartJob(context.Background(), inbound.StartJobParams{})
	if !errors.Is(err, inbound.ErrNoScenesProvided) {
		t.Fatal("Expected ErrNoScenesProvided, got:", err)
	}
}

func TestStartJob_BoundsSceneConcurrencyToBatchWidth(t *testing.T) {
	const width = 2
	processor := &trackingProcessor{delay: 30 * time.Millisecond}
	orchestrator, registry, _ := newTestOrchestrator(t, processor, width)

	res, err := orchestrator.StartJob(context.Background(), inbound.StartJobParams{
		Scenes: makeScenes(7),
	})
	if err != nil {
		t.Fatal("StartJob failed:", err)
	}

	job := waitForTerminal(t, registry, res.JobID)
	if job.Status != domain.JobCompleted {
		t.Fatal("Expected completion, got:", job.Status)
	}
	if peak := atomic.LoadInt32(&processor.peak); peak > width {
		t.Fatalf("Observed %d concurrent scenes, batch width is %d", peak, width)
	}
	if job.Completed != 7 {
		t.Fatal("Expected all 7 scenes settled, got:", job.Completed)
	}
}

func TestStartJob_SceneFailureDoesNotAbortSiblings(t *testing.T) {
	processor := &trackingProcessor{failScenes: map[int]bool{1: true}}
	orchestrator, registry, _ := newTestOrchestrator(t, processor, 5)

	res, err := orchestrator.StartJob(context.Background(), inbound.StartJobParams{
		Scenes: makeScenes(4),
	})
	if err != nil {
		t.Fatal("StartJob failed:", err)
	}

	job := waitForTerminal(t, registry, res.JobID)
	if job.Status != domain.JobCompleted {
		t.Fatal("A failed scene must not fail the job, got:", job.Status)
	}
	if len(job.Results) != 4 {
		t.Fatal("Expected all scenes settled, got:", len(job.Results))
	}

	failures := 0
	for _, result := range job.Results {
		if !result.Success {
			failures++
			if result.Index != 1 {
				t.Fatal("Unexpected scene failed:", result.Index)
			}
			if result.Error == "" {
				t.Fatal("Failed scene is missing its error message")
			}
		}
	}
	if failures != 1 {
		t.Fatal("Expected exactly one failed scene, got:", failures)
	}
}

func TestRetryScene_ReplacesResultInPlace(t *testing.T) {
	processor := &trackingProcessor{failScenes: map[int]bool{2: true}}
	orchestrator, registry, _ := newTestOrchestrator(t, processor, 5)

	res, err := orchestrator.StartJob(context.Background(), inbound.StartJobParams{
		Scenes: makeScenes(3),
	})
	if err != nil {
		t.Fatal("StartJob failed:", err)
	}
	waitForTerminal(t, registry, res.JobID)

	// Provider recovers; the rerun of the third scene must now succeed.
	processor.mu.Lock()
	processor.failScenes = nil
	processor.mu.Unlock()

	if err := orchestrator.RetryScene(context.Background(), res.JobID, 3); err != nil {
		t.Fatal("RetryScene failed:", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, _ := registry.Get(res.JobID)
		retried := false
		for _, result := range job.Results {
			if result.Index == 2 && result.Success {
				retried = true
			}
		}
		if retried {
			if len(job.Results) != 3 {
				t.Fatal("Retry must replace in place, got:", len(job.Results))
			}
			if job.Completed != 3 {
				t.Fatal("Retry must not advance the completed counter, got:", job.Completed)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Retried scene never settled successfully")
}

func TestRetryScene_Validation(t *testing.T) {
	orchestrator, registry, _ := newTestOrchestrator(t, &trackingProcessor{}, 5)

	if err := orchestrator.RetryScene(context.Background(), "no-such-job", 1); !errors.Is(err, inbound.ErrJobNotFound) {
		t.Fatal("Expected ErrJobNotFound, got:", err)
	}

	res, err := orchestrator.StartJob(context.Background(), inbound.StartJobParams{
		Scenes: makeScenes(2),
	})
	if err != nil {
		t.Fatal("StartJob failed:", err)
	}
	waitForTerminal(t, registry, res.JobID)

	if err := orchestrator.RetryScene(context.Background(), res.JobID, 0); !errors.Is(err, inbound.ErrSceneOutOfRange) {
		t.Fatal("Expected ErrSceneOutOfRange for ordinal 0, got:", err)
	}
	if err := orchestrator.RetryScene(context.Background(), res.JobID, 3); !errors.Is(err, inbound.ErrSceneOutOfRange) {
		t.Fatal("Expected ErrSceneOutOfRange for ordinal 3, got:", err)
	}
}

func TestSceneCacheFailureIsBestEffort(t *testing.T) {
	processor := &trackingProcessor{}
	orchestrator, registry, cache := newTestOrchestrator(t, processor, 5)
	cache.err = errors.New("table throttled")

	res, err := orchestrator.StartJob(context.Background(), inbound.StartJobParams{
		Scenes: makeScenes(2),
	})
	if err != nil {
		t.Fatal("StartJob failed:", err)
	}

	job := waitForTerminal(t, registry, res.JobID)
	if job.Status != domain.JobCompleted {
		t.Fatal("A cache outage must not fail the job, got:", job.Status)
	}
}
