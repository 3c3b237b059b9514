package inbound

import "generate-love-video/domain"

// JobStatusPort is the read model for polling consumers. Results are
// populated incrementally as scenes settle, in completion order.
type JobStatusPort interface {
	GetStatus(jobID string) (*domain.JobStatusView, bool)
}
