package models

import "time"

// MediaItem is one uploaded file plus its default caption. Overrides maps a
// platform tag to a caption that replaces the base caption on that platform
// only. Metadata carries free-form extras such as a structured location.
type MediaItem struct {
	ID        int64             `db:"id" json:"id"`
	UserID    int64             `db:"user_id" json:"user_id"`
	FileName  string            `db:"file_name" json:"file_name"`
	FileType  string            `db:"file_type" json:"file_type"`
	FileSize  int64             `db:"file_size" json:"file_size"`
	FileURL   string            `db:"file_url" json:"file_url"`
	Caption   string            `db:"caption" json:"caption"`
	Overrides map[string]string `db:"overrides" json:"overrides"`
	Metadata  map[string]string `db:"metadata" json:"metadata"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
}

func (m *MediaItem) IsVideo() bool {
	return len(m.FileType) >= 6 && m.FileType[:6] == "video/"
}

func (m *MediaItem) IsImage() bool {
	return len(m.FileType) >= 6 && m.FileType[:6] == "image/"
}
