package logging

// Structured log keys shared by every package.
const (
	FieldComponent     = "component"
	FieldJobID         = "job_id"
	FieldStage         = "stage"
	FieldSceneIndex    = "scene_index" // zero-based position in the script
	FieldCorrelationID = "correlation_id"

	// FieldEventType names what happened (job_created, render_complete, ...)
	// so log lines can be filtered without parsing messages.
	FieldEventType = "event_type"
	FieldErrorKind = "error_kind" // services.Kind of the attached error
	FieldErrorHint = "error_hint" // the operator's next step
	FieldImpact    = "impact"     // what the user loses because of a warning
	FieldAlert     = "alert"
)
