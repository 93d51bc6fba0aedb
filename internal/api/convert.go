package api

import (
	"time"

	"reelforge/internal/deps"
	"reelforge/internal/jobs"
	"reelforge/internal/preflight"
	"reelforge/internal/scene"
)

// PollStatus maps a stored status to the client-visible poll state.
func PollStatus(status jobs.Status) string {
	switch status {
	case jobs.StatusDone:
		return PollDone
	case jobs.StatusFailed:
		return PollFailed
	default:
		return PollRendering
	}
}

// StatusFromJob builds the poll view. The URL is only exposed once done.
func StatusFromJob(job *jobs.Job) StatusResponse {
	if job == nil {
		return StatusResponse{}
	}
	resp := StatusResponse{Status: PollStatus(job.Status)}
	if job.Status == jobs.StatusDone {
		resp.URL = job.VideoURL
	}
	return resp
}

// FromJob converts a job record to its API representation.
func FromJob(job *jobs.Job) Job {
	if job == nil {
		return Job{}
	}
	dto := Job{
		ID:         job.ID,
		Title:      job.Title,
		Status:     string(job.Status),
		VideoURL:   job.VideoURL,
		ArchiveURL: job.ArchiveURL,
		ErrorKind:  job.ErrorKind,
		LogPath:    job.LogPath,
		CreatedAt:  formatTime(job.CreatedAt),
		UpdatedAt:  formatTime(job.UpdatedAt),
	}
	if job.LastHeartbeat != nil {
		dto.LastHeartbeat = formatTime(*job.LastHeartbeat)
	}
	if scenes, err := scene.DecodeScenes(job.ScriptJSON); err == nil {
		dto.SceneCount = len(scenes)
	}
	return dto
}

// FromJobs converts a slice of job records.
func FromJobs(items []*jobs.Job) []Job {
	out := make([]Job, 0, len(items))
	for _, item := range items {
		out = append(out, FromJob(item))
	}
	return out
}

// FromDependencies converts dependency check results.
func FromDependencies(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, len(statuses))
	for i, dep := range statuses {
		out[i] = DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Version:     dep.Version,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		}
	}
	return out
}

// FromPreflight converts preflight results.
func FromPreflight(results []preflight.Result) []CheckResult {
	out := make([]CheckResult, len(results))
	for i, r := range results {
		out[i] = CheckResult{Name: r.Name, Passed: r.Passed, Detail: r.Detail}
	}
	return out
}

// CountsByStatus flattens per-status counts, filling absent states with zero.
func CountsByStatus(counts map[jobs.Status]int) map[string]int {
	out := map[string]int{
		string(jobs.StatusProcessing): 0,
		string(jobs.StatusDone):       0,
		string(jobs.StatusFailed):     0,
	}
	for status, n := range counts {
		out[string(status)] = n
	}
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
