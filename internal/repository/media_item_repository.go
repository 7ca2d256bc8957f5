package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/crosspost/internal/models"
)

type MediaItemRepository interface {
	Create(ctx context.Context, tx *sql.Tx, m *models.MediaItem) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.MediaItem, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.MediaItem, error)
	CheckByUserID(ctx context.Context, mediaItemID, userID int64) (bool, error)
	Remove(ctx context.Context, id int64) error
}

type mediaItemRepository struct {
	db *sql.DB
}

func NewMediaItemRepository(db *sql.DB) MediaItemRepository {
	return &mediaItemRepository{db: db}
}

func (r *mediaItemRepository) Create(ctx context.Context, tx *sql.Tx, m *models.MediaItem) (int64, error) {
	query := `
		INSERT INTO media_items (user_id, file_name, file_type, file_size, file_url, caption, overrides, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	overrides, err := marshalMap(m.Overrides)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}
	metadata, err := marshalMap(m.Metadata)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	var id int64
	if tx != nil {
		err = tx.QueryRowContext(ctx, query, m.UserID, m.FileName, m.FileType, m.FileSize,
			m.FileURL, m.Caption, overrides, metadata).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, m.UserID, m.FileName, m.FileType, m.FileSize,
			m.FileURL, m.Caption, overrides, metadata).Scan(&id)
	}

	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *mediaItemRepository) GetByID(ctx context.Context, id int64) (*models.MediaItem, error) {
	query := `
		SELECT id, user_id, file_name, file_type, file_size, file_url, caption, overrides, metadata, created_at
		FROM media_items
		WHERE id = $1
	`

	var m models.MediaItem
	var overrides, metadata []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(&m.ID, &m.UserID, &m.FileName, &m.FileType,
		&m.FileSize, &m.FileURL, &m.Caption, &overrides, &metadata, &m.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	m.Overrides = unmarshalMap(overrides)
	m.Metadata = unmarshalMap(metadata)

	return &m, nil
}

func (r *mediaItemRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.MediaItem, error) {
	query := `
		SELECT id, user_id, file_name, file_type, file_size, file_url, caption, created_at
		FROM media_items
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var items []*models.MediaItem
	for rows.Next() {
		var m models.MediaItem
		err := rows.Scan(&m.ID, &m.UserID, &m.FileName, &m.FileType, &m.FileSize,
			&m.FileURL, &m.Caption, &m.CreatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		items = append(items, &m)
	}

	return items, nil
}

func (r *mediaItemRepository) CheckByUserID(ctx context.Context, mediaItemID, userID int64) (bool, error) {
	query := `SELECT 1 FROM media_items WHERE id = $1 AND user_id = $2`

	var result int
	err := r.db.QueryRowContext(ctx, query, mediaItemID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *mediaItemRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM media_items WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
