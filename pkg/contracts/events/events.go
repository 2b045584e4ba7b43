// Package events contains the message contracts pushed over WebSocket
// connections while an analysis job runs.
package events

import (
	"time"

	"equitycli/pkg/contracts/domain"
)

// EventType identifies the kind of job event
type EventType string

const (
	EventJobStatus    EventType = "job_status"
	EventJobCompleted EventType = "job_completed"
	EventJobFailed    EventType = "job_failed"
)

// JobEvent is one frame of the job status stream. The report is attached
// only on completion.
type JobEvent struct {
	Type      EventType              `json:"type"`
	JobID     string                 `json:"job_id"`
	Status    string                 `json:"status"`
	Message   string                 `json:"message,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Report    *domain.AnalysisReport `json:"report,omitempty"`
}

// NewJobEvent builds the event frame for a job snapshot.
func NewJobEvent(jobID, status, message, errMsg string, report *domain.AnalysisReport) JobEvent {
	eventType := EventJobStatus
	switch status {
	case "completed":
		eventType = EventJobCompleted
	case "failed":
		eventType = EventJobFailed
	}
	return JobEvent{
		Type:      eventType,
		JobID:     jobID,
		Status:    status,
		Message:   message,
		Error:     errMsg,
		Timestamp: time.Now().UTC(),
		Report:    report,
	}
}
