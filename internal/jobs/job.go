package jobs

import (
	"time"

	"equitycli/internal/config"
	"equitycli/pkg/contracts/domain"
)

// Status represents the lifecycle state of an analysis job
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// Job is one queued workbook analysis. The uploaded payload and the resolved
// configuration travel with the job; the report appears once it completes.
type Job struct {
	ID          string     `json:"id"`
	FileName    string     `json:"file_name,omitempty"`
	Status      Status     `json:"status"`
	Message     string     `json:"message,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	Report *domain.AnalysisReport `json:"report,omitempty"`

	Payload []byte                `json:"-"`
	Config  config.AnalysisConfig `json:"-"`
}

// Store is the persistence interface for jobs.
type Store interface {
	CreateJob(job *Job) error
	GetJob(id string) (*Job, error)
	UpdateJob(job *Job) error
	ListJobs(filter Filter) ([]*Job, error)
	DeleteJob(id string) error
}

// Filter for querying jobs
type Filter struct {
	Status Status
	Since  time.Time
	Limit  int
}
