package services

import (
	"context"
	"fmt"
	"generate-love-video/application/ports/inbound"
	"generate-love-video/application/ports/outbound"
	"generate-love-video/channel_utils"
	"generate-love-video/config"
	"generate-love-video/domain"
	"time"

	"github.com/google/uuid"
)

type jobOrchestrator struct {
	logger         outbound.LoggerPort
	workerPool     outbound.TaskDispatcher
	sceneProcessor inbound.SceneProcessorPort
	jobRegistry    outbound.JobRegistryPort
	sceneCache     outbound.SceneCachePort
	metrics        outbound.MetricsPort
	workerConfig   *config.WorkerConfig
}

func NewJobOrchestrator(
	logger outbound.LoggerPort,
	workerPool outbound.TaskDispatcher,
	sceneProcessor inbound.SceneProcessorPort,
	jobRegistry outbound.JobRegistryPort,
	sceneCache outbound.SceneCachePort,
	metrics outbound.MetricsPort,
	workerConfig *config.WorkerConfig) inbound.JobOrchestratorPort {
	return &jobOrchestrator{
		logger:         logger,
		workerPool:     workerPool,
		sceneProcessor: sceneProcessor,
		jobRegistry:    jobRegistry,
		sceneCache:     sceneCache,
		metrics:        metrics,
		workerConfig:   workerConfig,
	}
}

// StartJob registers the job and hands the whole run to the worker pool. The
// caller gets the job id back immediately; everything after this point is
// observable only through the registry.
func (o *jobOrchestrator) StartJob(ctx context.Context, params inbound.StartJobParams) (*inbound.StartJobResponse, error) {
	if len(params.Scenes) == 0 {
		return nil, inbound.ErrNoScenesProvided
	}

	jobID := uuid.NewString()
	scenes := make([]domain.Scene, len(params.Scenes))
	copy(scenes, params.Scenes)
	for i := range scenes {
		scenes[i].Index = i
	}

	o.jobRegistry.Put(&domain.Job{
		ID:        jobID,
		Status:    domain.JobProcessing,
		Total:     len(scenes),
		Results:   make([]domain.SceneResult, 0, len(scenes)),
		Scenes:    scenes,
		Settings:  params.Settings,
		StartedAt: time.Now(),
	})
	o.metrics.JobStarted()

	err := o.workerPool.Submit(func() {
		o.runJob(context.Background(), jobID, scenes, params.Settings)
	})
	if err != nil {
		o.jobRegistry.Delete(jobID)
		o.logger.Error(err, "Failed to submit job to worker pool")
		return nil, err
	}

	o.logger.InfoWithFields("Video job accepted", map[string]interface{}{
		"job_id": jobID,
		"scenes": len(scenes),
	})

	return &inbound.StartJobResponse{JobID: jobID, Total: len(scenes)}, nil
}

// runJob walks the scene list in bounded batches. A panic anywhere in the run
// marks the job failed instead of killing the pool worker.
func (o *jobOrchestrator) runJob(ctx context.Context, jobID string, scenes []domain.Scene, settings domain.GenerationSettings) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.ErrorWithFields(fmt.Errorf("panic: %v", r), "Job run panicked", map[string]interface{}{
				"job_id": jobID,
			})
			o.jobRegistry.Fail(jobID, fmt.Sprintf("internal error: %v", r))
			o.metrics.JobFinished(string(domain.JobFailed))
		}
	}()

	width := o.workerConfig.SceneWorkerWidth
	for start := 0; start < len(scenes); start += width {
		end := start + width
		if end > len(scenes) {
			end = len(scenes)
		}
		if err := o.runBatch(ctx, jobID, scenes[start:end], settings); err != nil {
			o.jobRegistry.Fail(jobID, err.Error())
			o.metrics.JobFinished(string(domain.JobFailed))
			return
		}
	}

	job, ok := o.jobRegistry.Get(jobID)
	if ok {
		failed := 0
		for _, result := range job.Results {
			if !result.Success {
				failed++
			}
		}
		o.logger.InfoWithFields("Video job finished", map[string]interface{}{
			"job_id":        jobID,
			"scenes":        job.Total,
			"failed_scenes": failed,
		})
	}

	o.jobRegistry.Complete(jobID)
	o.metrics.JobFinished(string(domain.JobCompleted))
}

// runBatch fans one batch of scenes onto the pool and drains their results in
// completion order, recording each as soon as it settles so status polls see
// partial progress.
func (o *jobOrchestrator) runBatch(ctx context.Context, jobID string, batch []domain.Scene, settings domain.GenerationSettings) error {
	channels := make([]<-chan domain.SceneResult, 0, len(batch))

	for _, scene := range batch {
		scene := scene
		resultChan := make(chan domain.SceneResult, 1)
		channels = append(channels, resultChan)

		o.jobRegistry.SetCurrentScene(jobID, scene.Index, scene.Title)

		err := o.workerPool.Submit(func() {
			defer close(resultChan)
			resultChan <- o.processSceneSafely(ctx, scene, settings)
		})
		if err != nil {
			close(resultChan)
			return fmt.Errorf("submitting scene %d: %w", scene.Index, err)
		}
	}

	merged, err := channel_utils.MergeChannels(o.workerPool, channels...)
	if err != nil {
		return fmt.Errorf("merging scene result channels: %w", err)
	}

	for result := range merged {
		o.settleResult(ctx, jobID, result)
	}

	return nil
}

// processSceneSafely guarantees a settled result even if the processor
// panics, so one bad scene never wedges its batch.
func (o *jobOrchestrator) processSceneSafely(ctx context.Context, scene domain.Scene, settings domain.GenerationSettings) (result domain.SceneResult) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.ErrorWithFields(fmt.Errorf("panic: %v", r), "Scene processing panicked", map[string]interface{}{
				"scene": scene.Index,
			})
			result = domain.SceneResult{
				Index:   scene.Index,
				Title:   scene.Title,
				Success: false,
				Error:   fmt.Sprintf("internal error: %v", r),
			}
		}
	}()
	return o.sceneProcessor.ProcessScene(ctx, scene, settings)
}

func (o *jobOrchestrator) settleResult(ctx context.Context, jobID string, result domain.SceneResult) {
	o.jobRegistry.RecordResult(jobID, result)
	o.metrics.SceneSettled(result.Success)

	// Mirroring to the scene cache is best effort; the registry already holds
	// the authoritative copy.
	if err := o.sceneCache.Save(ctx, jobID, result); err != nil {
		o.logger.ErrorWithFields(err, "Failed to mirror scene result", map[string]interface{}{
			"job_id": jobID,
			"scene":  result.Index,
		})
	}
}

// RetryScene re-runs a single scene of an existing job. The ordinal is
// 1-based as exposed on the API. The rerun happens off-request; its settled
// result replaces the previous one for that scene in place.
func (o *jobOrchestrator) RetryScene(ctx context.Context, jobID string, ordinal int) error {
	job, ok := o.jobRegistry.Get(jobID)
	if !ok {
		return inbound.ErrJobNotFound
	}
	if ordinal < 1 || ordinal > len(job.Scenes) {
		return inbound.ErrSceneOutOfRange
	}

	scene := job.Scenes[ordinal-1]
	settings := job.Settings

	err := o.workerPool.Submit(func() {
		o.jobRegistry.SetCurrentScene(jobID, scene.Index, scene.Title)
		result := o.processSceneSafely(context.Background(), scene, settings)
		o.settleResult(context.Background(), jobID, result)
		o.logger.InfoWithFields("Scene retry settled", map[string]interface{}{
			"job_id":  jobID,
			"scene":   scene.Index,
			"success": result.Success,
		})
	})
	if err != nil {
		o.logger.Error(err, "Failed to submit scene retry to worker pool")
		return err
	}

	return nil
}

// StartRetentionSweep evicts stale jobs on a fixed interval until the context
// is cancelled.
func (o *jobOrchestrator) StartRetentionSweep(ctx context.Context) {
	ticker := time.NewTicker(o.workerConfig.SweepInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if evicted := o.jobRegistry.Sweep(o.workerConfig.JobRetention); evicted > 0 {
					o.logger.InfoWithFields("Evicted expired jobs", map[string]interface{}{
						"count": evicted,
					})
				}
			}
		}
	}()
}
