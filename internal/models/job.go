// -----------------------------------------------------------------------
// Ingestion Job - Status record for the single tracked background task
// -----------------------------------------------------------------------

package models

import "time"

// JobStatus is the lifecycle state of an ingestion job.
type JobStatus string

const (
	JobStatusProcessing JobStatus = "processing"
	JobStatusOrganizing JobStatus = "organizing"
	JobStatusSuccess    JobStatus = "success"
	JobStatusError      JobStatus = "error"
)

// SourceType identifies what kind of capture a job ingests.
type SourceType string

const (
	SourceAudio      SourceType = "audio"
	SourcePDF        SourceType = "pdf"
	SourceImage      SourceType = "image"
	SourceTranscript SourceType = "transcript"
)

// IngestionJob tracks one ingestion run through
// processing -> organizing -> success|error. The orchestrator keeps at
// most one job visible; submitting a new job supersedes the previous
// job's display, and terminal statuses expire after a display window.
type IngestionJob struct {
	ID         string     `json:"id"`
	SourceType SourceType `json:"source_type"`
	Status     JobStatus  `json:"status"`
	Message    string     `json:"message"`
	Detail     string     `json:"detail,omitempty"`

	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// IsTerminal reports whether the job reached a final state.
func (j *IngestionJob) IsTerminal() bool {
	return j.Status == JobStatusSuccess || j.Status == JobStatusError
}

// ExpiredAt reports whether a terminal job has outlived the display window.
func (j *IngestionJob) ExpiredAt(now time.Time, window time.Duration) bool {
	if !j.IsTerminal() || j.CompletedAt == nil {
		return false
	}
	return now.Sub(*j.CompletedAt) >= window
}
