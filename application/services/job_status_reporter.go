package services

import (
	"generate-love-video/application/ports/inbound"
	"generate-love-video/application/ports/outbound"
	"generate-love-video/domain"
)

type jobStatusReporter struct {
	jobRegistry outbound.JobRegistryPort
}

func NewJobStatusReporter(jobRegistry outbound.JobRegistryPort) inbound.JobStatusPort {
	return &jobStatusReporter{
		jobRegistry: jobRegistry,
	}
}

func (r *jobStatusReporter) GetStatus(jobID string) (*domain.JobStatusView, bool) {
	job, ok := r.jobRegistry.Get(jobID)
	if !ok {
		return nil, false
	}

	results := job.Results
	if results == nil {
		results = []domain.SceneResult{}
	}

	return &domain.JobStatusView{
		JobID:        job.ID,
		Status:       job.Status,
		Total:        job.Total,
		Completed:    job.Completed,
		CurrentScene: job.CurrentScene,
		CurrentTitle: job.CurrentTitle,
		Results:      results,
		Error:        job.Error,
	}, true
}
