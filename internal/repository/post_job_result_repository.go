package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/maheshrc27/crosspost/internal/models"
)

type PostJobResultRepository interface {
	Create(ctx context.Context, tx *sql.Tx, result *models.PostJobResult) (int64, error)
	ListByJobID(ctx context.Context, jobID int64) ([]*models.PostJobResult, error)
	MarkSuccess(ctx context.Context, resultID int64, externalPostID string) error
	MarkFailed(ctx context.Context, resultID int64, errorCode, errorMessage string) error
}

type postJobResultRepository struct {
	db *sql.DB
}

func NewPostJobResultRepository(db *sql.DB) PostJobResultRepository {
	return &postJobResultRepository{db: db}
}

func (r *postJobResultRepository) Create(ctx context.Context, tx *sql.Tx, result *models.PostJobResult) (int64, error) {
	query := `
		INSERT INTO post_job_results (post_job_id, connection_id, platform, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int64
	var err error

	if tx != nil {
		err = tx.QueryRowContext(ctx, query, result.PostJobID, result.ConnectionID, result.Platform, result.Status).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, result.PostJobID, result.ConnectionID, result.Platform, result.Status).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postJobResultRepository) ListByJobID(ctx context.Context, jobID int64) ([]*models.PostJobResult, error) {
	query := `
		SELECT id, post_job_id, connection_id, platform, status, external_post_id, error_code, error_message, created_at, updated_at
		FROM post_job_results
		WHERE post_job_id = $1
		ORDER BY platform
	`

	rows, err := r.db.QueryContext(ctx, query, jobID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var results []*models.PostJobResult
	for rows.Next() {
		var res models.PostJobResult
		err := rows.Scan(&res.ID, &res.PostJobID, &res.ConnectionID, &res.Platform, &res.Status,
			&res.ExternalPostID, &res.ErrorCode, &res.ErrorMessage, &res.CreatedAt, &res.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		results = append(results, &res)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return results, nil
}

func (r *postJobResultRepository) MarkSuccess(ctx context.Context, resultID int64, externalPostID string) error {
	query := `
		UPDATE post_job_results
		SET status = $2,
			external_post_id = $3,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, resultID, models.ResultStatusSuccess, externalPostID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}

func (r *postJobResultRepository) MarkFailed(ctx context.Context, resultID int64, errorCode, errorMessage string) error {
	query := `
		UPDATE post_job_results
		SET status = $2,
			error_code = $3,
			error_message = $4,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`
	_, err := r.db.ExecContext(ctx, query, resultID, models.ResultStatusFailed, errorCode, errorMessage)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
