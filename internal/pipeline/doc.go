// Package pipeline runs render jobs.
//
// Submitter validates a script, records the job, and hands it to a bounded
// ants pool. Each pooled task is one Orchestrator.Run: scenes are fetched
// strictly in order, the timeline is built, the executor renders, the video is
// stored, and the job is moved to done or failed. Run is the only writer of a
// job's terminal status.
//
// While a job runs its task refreshes the job heartbeat. Monitor lists
// processing jobs whose heartbeat went quiet and reports them to operators; it
// never changes job state.
package pipeline
