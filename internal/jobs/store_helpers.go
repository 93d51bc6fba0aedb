package jobs

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const jobColumns = "id, title, script_json, status, video_url, archive_url, log_path, error_kind, error_message, created_at, updated_at, last_heartbeat"

// timeLayout is fixed width so stored timestamps compare lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

type rowScanner interface{ Scan(dest ...any) error }

// storedTime scans a TEXT timestamp column. NULL and unparsable values leave
// it unset.
type storedTime struct {
	t     time.Time
	valid bool
}

func (st *storedTime) Scan(src any) error {
	var raw string
	switch v := src.(type) {
	case nil:
		*st = storedTime{}
		return nil
	case string:
		raw = v
	case []byte:
		raw = string(v)
	default:
		return fmt.Errorf("timestamp column: unsupported type %T", src)
	}
	parsed, err := parseTimeString(raw)
	*st = storedTime{t: parsed, valid: err == nil}
	return nil
}

func scanJob(row rowScanner) (*Job, error) {
	var (
		job                           Job
		status                        string
		video, archive, logPath       sql.NullString
		errKind, errMessage           sql.NullString
		created, updated, lastBeating storedTime
	)
	err := row.Scan(
		&job.ID, &job.Title, &job.ScriptJSON, &status,
		&video, &archive, &logPath,
		&errKind, &errMessage,
		&created, &updated, &lastBeating,
	)
	if err != nil {
		return nil, err
	}
	job.Status = Status(status)
	job.VideoURL, job.ArchiveURL, job.LogPath = video.String, archive.String, logPath.String
	job.ErrorKind, job.ErrorMessage = errKind.String, errMessage.String
	job.CreatedAt, job.UpdatedAt = created.t, updated.t
	if lastBeating.valid {
		beat := lastBeating.t
		job.LastHeartbeat = &beat
	}
	return &job, nil
}

// nullableString stores empty strings as NULL.
func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	return time.Parse(time.RFC3339Nano, value)
}

// makePlaceholders returns "?,?,?" for count bind parameters.
func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?,", count), ",")
}
