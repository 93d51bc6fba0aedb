package api

import "reelforge/internal/scene"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Client-visible poll states.
const (
	PollRendering = "rendering"
	PollDone      = "done"
	PollFailed    = "failed"
)

// SubmitRequest is the body of POST /api/jobs.
type SubmitRequest struct {
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Scenes      []scene.Scene `json:"scenes"`
}

// Script converts the request into a scene script.
func (r SubmitRequest) Script() scene.Script {
	return scene.Script{Title: r.Title, Description: r.Description, Scenes: r.Scenes}
}

// SubmitResponse carries the id of the job created by a submission.
type SubmitResponse struct {
	JobID string `json:"jobId"`
}

// StatusResponse is the poll view of a job.
type StatusResponse struct {
	Status string `json:"status"`
	URL    string `json:"url,omitempty"`
}

// Terminal reports whether polling can stop.
func (s StatusResponse) Terminal() bool {
	return s.Status == PollDone || s.Status == PollFailed
}

// Job describes a job for operators.
type Job struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Status        string `json:"status"`
	SceneCount    int    `json:"sceneCount"`
	VideoURL      string `json:"videoUrl,omitempty"`
	ArchiveURL    string `json:"archiveUrl,omitempty"`
	ErrorKind     string `json:"errorKind,omitempty"`
	LogPath       string `json:"logPath,omitempty"`
	CreatedAt     string `json:"createdAt,omitempty"`
	UpdatedAt     string `json:"updatedAt,omitempty"`
	LastHeartbeat string `json:"lastHeartbeat,omitempty"`
}

// JobListResponse wraps a collection of jobs.
type JobListResponse struct {
	Jobs []Job `json:"jobs"`
}

// ScriptRequest is the body of POST /api/script.
type ScriptRequest struct {
	Concept string `json:"concept"`
}

// ScriptResponse wraps a generated script.
type ScriptResponse struct {
	Script scene.Script `json:"script"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Version     string `json:"version,omitempty"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// CheckResult is one preflight check outcome.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// HealthResponse aggregates daemon runtime information.
type HealthResponse struct {
	Healthy        bool               `json:"healthy"`
	PID            int                `json:"pid"`
	RenderBackend  string             `json:"renderBackend"`
	StorageBackend string             `json:"storageBackend"`
	DatabasePath   string             `json:"databasePath"`
	LockFilePath   string             `json:"lockFilePath"`
	RunningJobs    int                `json:"runningJobs"`
	JobCapacity    int                `json:"jobCapacity"`
	Counts         map[string]int     `json:"counts"`
	Dependencies   []DependencyStatus `json:"dependencies"`
	Checks         []CheckResult      `json:"checks"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
	JobID string `json:"jobId,omitempty"`
}
