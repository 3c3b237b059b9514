package adapters

import (
	"generate-love-video/domain"
	"testing"
	"time"
)

func newTestRegistry() *memoryJobRegistry {
	return NewMemoryJobRegistry(NewZerologWrapper()).(*memoryJobRegistry)
}

func putJob(r *memoryJobRegistry, id string, total int) {
	r.Put(&domain.Job{
		ID:        id,
		Status:    domain.JobProcessing,
		Total:     total,
		Results:   make([]domain.SceneResult, 0, total),
		StartedAt: time.Now(),
	})
}

func TestRecordResult_AppendsAndCounts(t *testing.T) {
	registry := newTestRegistry()
	putJob(registry, "job-1", 3)

	registry.RecordResult("job-1", domain.SceneResult{Index: 1, Success: true})
	registry.RecordResult("job-1", domain.SceneResult{Index: 0, Success: false, Error: "boom"})

	job, ok := registry.Get("job-1")
	if !ok {
		t.Fatal("Job disappeared")
	}
	if job.Completed != 2 {
		t.Fatal("Expected 2 completed scenes, got:", job.Completed)
	}
	if len(job.Results) != 2 {
		t.Fatal("Expected 2 results, got:", len(job.Results))
	}
	// Completion order, not index order.
	if job.Results[0].Index != 1 || job.Results[1].Index != 0 {
		t.Fatalf("Results out of completion order: %+v", job.Results)
	}
}

func TestRecordResult_UpsertReplacesWithoutRecount(t *testing.T) {
	registry := newTestRegistry()
	putJob(registry, "job-1", 2)

	registry.RecordResult("job-1", domain.SceneResult{Index: 0, Success: false, Error: "first try failed"})
	registry.RecordResult("job-1", domain.SceneResult{Index: 1, Success: true})
	registry.RecordResult("job-1", domain.SceneResult{Index: 0, Success: true, VideoURL: "https://bucket/retry.mp4"})

	job, _ := registry.Get("job-1")
	if job.Completed != 2 {
		t.Fatal("Retry must not advance the completed counter, got:", job.Completed)
	}
	if len(job.Results) != 2 {
		t.Fatal("Retry must replace in place, got:", len(job.Results))
	}
	for _, result := range job.Results {
		if result.Index == 0 {
			if !result.Success || result.VideoURL != "https://bucket/retry.mp4" {
				t.Fatalf("Retry result not upserted: %+v", result)
			}
			if result.Error != "" {
				t.Fatal("Stale error survived the upsert:", result.Error)
			}
		}
	}
}

func TestGet_ReturnsSnapshot(t *testing.T) {
	registry := newTestRegistry()
	putJob(registry, "job-1", 1)
	registry.RecordResult("job-1", domain.SceneResult{Index: 0, Success: true})

	first, _ := registry.Get("job-1")
	first.Results[0].VideoURL = "tampered"
	first.Status = domain.JobFailed

	second, _ := registry.Get("job-1")
	if second.Results[0].VideoURL == "tampered" {
		t.Fatal("Snapshot shares result storage with the registry")
	}
	if second.Status != domain.JobProcessing {
		t.Fatal("Snapshot shares status with the registry")
	}
}

func TestCompleteAndFail_TerminalStatusSticks(t *testing.T) {
	registry := newTestRegistry()
	putJob(registry, "job-1", 1)

	registry.Fail("job-1", "provider down")
	registry.Complete("job-1")

	job, _ := registry.Get("job-1")
	if job.Status != domain.JobFailed {
		t.Fatal("Terminal status must not be overwritten, got:", job.Status)
	}
	if job.Error != "provider down" {
		t.Fatal("Failure message lost:", job.Error)
	}
}

func TestSweep_EvictsOnlyStaleJobs(t *testing.T) {
	registry := newTestRegistry()

	registry.Put(&domain.Job{ID: "old", StartedAt: time.Now().Add(-2 * time.Hour)})
	registry.Put(&domain.Job{ID: "old-done", Status: domain.JobCompleted, StartedAt: time.Now().Add(-90 * time.Minute)})
	registry.Put(&domain.Job{ID: "fresh", StartedAt: time.Now()})

	evicted := registry.Sweep(time.Hour)
	if evicted != 2 {
		t.Fatal("Expected 2 evictions, got:", evicted)
	}
	if _, ok := registry.Get("old"); ok {
		t.Fatal("Stale job survived the sweep")
	}
	if _, ok := registry.Get("fresh"); !ok {
		t.Fatal("Fresh job was evicted")
	}
}
