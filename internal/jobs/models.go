package jobs

import (
	"strings"
	"time"
)

// Status represents the lifecycle state of a render job.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
)

// IsTerminal reports whether no further transition is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusFailed
}

// ParseStatus converts user input into a Status.
func ParseStatus(value string) (Status, bool) {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusProcessing:
		return StatusProcessing, true
	case StatusDone:
		return StatusDone, true
	case StatusFailed:
		return StatusFailed, true
	default:
		return "", false
	}
}

// Job is a persisted render request.
type Job struct {
	ID            string
	Title         string
	ScriptJSON    string
	Status        Status
	VideoURL      string
	ArchiveURL    string
	LogPath       string
	ErrorKind     string
	ErrorMessage  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastHeartbeat *time.Time
}

// LastSeen returns the most recent liveness signal for the job.
func (j *Job) LastSeen() time.Time {
	if j == nil {
		return time.Time{}
	}
	if j.LastHeartbeat != nil && j.LastHeartbeat.After(j.CreatedAt) {
		return *j.LastHeartbeat
	}
	return j.CreatedAt
}
