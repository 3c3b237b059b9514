package outbound

import (
	"generate-love-video/domain"
	"time"
)

// JobRegistryPort owns the shared mutable job state. Every multi-step update
// (find result by index, then replace) happens inside a single registry call
// so concurrent scene completions cannot interleave mid-update.
type JobRegistryPort interface {
	Put(job *domain.Job)
	// Get returns a snapshot copy; mutating it does not touch the registry.
	Get(id string) (domain.Job, bool)
	Delete(id string)
	SetCurrentScene(id string, index int, title string)
	// RecordResult upserts by scene index: a fresh index appends and advances
	// the completed counter, a retried index replaces in place.
	RecordResult(id string, result domain.SceneResult)
	Complete(id string)
	Fail(id string, message string)
	// Sweep hard-deletes every job started earlier than the retention window,
	// whatever its status, and reports how many were evicted.
	Sweep(retention time.Duration) int
}
