package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/crosspost/internal/models"
)

type SettingsRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*models.Settings, error)
	Upsert(ctx context.Context, s *models.Settings) error
}

type settingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) GetByUserID(ctx context.Context, userID int64) (*models.Settings, error) {
	query := `SELECT id, user_id, website, default_hashtags, created_at, updated_at FROM settings WHERE user_id = $1`

	var s models.Settings
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&s.ID, &s.UserID, &s.Website,
		&s.DefaultHashtags, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return &s, nil
}

func (r *settingsRepository) Upsert(ctx context.Context, s *models.Settings) error {
	query := `
		INSERT INTO settings (user_id, website, default_hashtags)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			website = EXCLUDED.website,
			default_hashtags = EXCLUDED.default_hashtags,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err := r.db.ExecContext(ctx, query, s.UserID, s.Website, s.DefaultHashtags)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}
