package adapters

import (
	"generate-love-video/application/ports/outbound"
	"generate-love-video/domain"
	"sync"
	"time"
)

// memoryJobRegistry keeps all job records in process memory. Every mutation
// runs under one mutex so a result upsert and a concurrent scene completion
// can never interleave mid-update.
type memoryJobRegistry struct {
	mu     sync.Mutex
	jobs   map[string]*domain.Job
	logger outbound.LoggerPort
}

func NewMemoryJobRegistry(logger outbound.LoggerPort) outbound.JobRegistryPort {
	return &memoryJobRegistry{
		jobs:   make(map[string]*domain.Job),
		logger: logger,
	}
}

func (r *memoryJobRegistry) Put(job *domain.Job) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = job
}

func (r *memoryJobRegistry) Get(id string) (domain.Job, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return domain.Job{}, false
	}
	return snapshot(job), true
}

func (r *memoryJobRegistry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, id)
}

func (r *memoryJobRegistry) SetCurrentScene(id string, index int, title string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return
	}
	job.CurrentScene = index
	job.CurrentTitle = title
}

func (r *memoryJobRegistry) RecordResult(id string, result domain.SceneResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return
	}

	for i := range job.Results {
		if job.Results[i].Index == result.Index {
			job.Results[i] = result
			return
		}
	}

	job.Results = append(job.Results, result)
	if job.Completed < job.Total {
		job.Completed++
	}
}

func (r *memoryJobRegistry) Complete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok || job.IsDone() {
		return
	}
	job.Status = domain.JobCompleted
	job.CompletedAt = time.Now()
}

func (r *memoryJobRegistry) Fail(id string, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok || job.IsDone() {
		return
	}
	job.Status = domain.JobFailed
	job.Error = message
	job.CompletedAt = time.Now()
}

func (r *memoryJobRegistry) Sweep(retention time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-retention)
	evicted := 0
	for id, job := range r.jobs {
		if job.StartedAt.Before(cutoff) {
			delete(r.jobs, id)
			evicted++
		}
	}

	if evicted > 0 {
		r.logger.InfoWithFields("Evicted stale jobs", map[string]interface{}{
			"evicted": evicted,
		})
	}
	return evicted
}

func snapshot(job *domain.Job) domain.Job {
	copied := *job
	copied.Results = append([]domain.SceneResult(nil), job.Results...)
	copied.Scenes = append([]domain.Scene(nil), job.Scenes...)
	return copied
}
