package models

import "time"

// PostJob is one fan-out publishing attempt for one media item. It is created
// pending, transitions once every per-platform result settles, and is
// immutable afterwards.
type PostJob struct {
	ID          int64             `db:"id" json:"id"`
	UserID      int64             `db:"user_id" json:"user_id"`
	MediaItemID int64             `db:"media_item_id" json:"media_item_id"`
	Caption     string            `db:"caption" json:"caption"`
	Overrides   map[string]string `db:"overrides" json:"overrides,omitempty"`
	Status      string            `db:"status" json:"status"`
	ScheduledAt time.Time         `db:"scheduled_at" json:"scheduled_at"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updated_at"`
}

const (
	JobStatusPending    = "pending"
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// PostJobResult is one platform's outcome within a PostJob. Exactly one row
// exists per connection present at job-creation time, written before any
// network call and updated exactly once with a terminal status.
type PostJobResult struct {
	ID             int64     `db:"id" json:"id"`
	PostJobID      int64     `db:"post_job_id" json:"post_job_id"`
	ConnectionID   int64     `db:"connection_id" json:"connection_id"`
	Platform       string    `db:"platform" json:"platform"`
	Status         string    `db:"status" json:"status"`
	ExternalPostID string    `db:"external_post_id" json:"external_post_id"`
	ErrorCode      string    `db:"error_code" json:"error_code"`
	ErrorMessage   string    `db:"error_message" json:"error_message"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

const (
	ResultStatusPending = "pending"
	ResultStatusSuccess = "success"
	ResultStatusFailed  = "failed"
)
