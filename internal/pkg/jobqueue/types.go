package jobqueue

import (
	"time"

	"github.com/ManuelReschke/CertFox/internal/pkg/issuance"
)

// JobStatus defines the status of a batch job
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusHalted    JobStatus = "halted"
	JobStatusFailed    JobStatus = "failed"
)

// Job is an asynchronous issuance batch and its outcome.
type Job struct {
	ID         string           `json:"id"`
	TenantID   uint             `json:"tenant_id"`
	Status     JobStatus        `json:"status"`
	Request    issuance.Request `json:"request"`
	Issued     []string         `json:"issued"`
	Halt       *issuance.Halt   `json:"halted_at,omitempty"`
	ErrorMsg   string           `json:"error,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
	StartedAt  *time.Time       `json:"started_at,omitempty"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`
}

// IsFinished reports whether the job reached a terminal status.
func (j *Job) IsFinished() bool {
	switch j.Status {
	case JobStatusCompleted, JobStatusHalted, JobStatusFailed:
		return true
	default:
		return false
	}
}

// MarkAsRunning marks the job as being processed
func (j *Job) MarkAsRunning() {
	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.UpdatedAt = now
}

// Finish records the batch outcome.
func (j *Job) Finish(res *issuance.Result, err error) {
	now := time.Now()
	j.UpdatedAt = now
	j.FinishedAt = &now
	if res != nil {
		j.Issued = res.Issued
		j.Halt = res.Halt
	}
	switch {
	case err != nil:
		j.Status = JobStatusFailed
		j.ErrorMsg = err.Error()
	case res != nil && res.Halt != nil:
		j.Status = JobStatusHalted
	default:
		j.Status = JobStatusCompleted
	}
}
