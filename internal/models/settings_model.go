package models

import "time"

// Settings holds the per-user caption footer. Both fields are optional; an
// empty value means the corresponding footer paragraph is skipped.
type Settings struct {
	ID              int64     `db:"id" json:"id"`
	UserID          int64     `db:"user_id" json:"user_id"`
	Website         string    `db:"website" json:"website"`
	DefaultHashtags string    `db:"default_hashtags" json:"default_hashtags"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
