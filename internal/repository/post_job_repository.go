package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/crosspost/internal/models"
)

type PostJobRepository interface {
	Create(ctx context.Context, tx *sql.Tx, job *models.PostJob) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.PostJob, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.PostJob, error)
	CheckByUserID(ctx context.Context, jobID, userID int64) (bool, error)
	UpdateStatus(ctx context.Context, status string, jobID int64) error
}

type postJobRepository struct {
	db *sql.DB
}

func NewPostJobRepository(db *sql.DB) PostJobRepository {
	return &postJobRepository{db: db}
}

func (r *postJobRepository) Create(ctx context.Context, tx *sql.Tx, job *models.PostJob) (int64, error) {
	query := `
		INSERT INTO post_jobs (user_id, media_item_id, caption, overrides, status, scheduled_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	overrides, err := marshalMap(job.Overrides)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	scheduledAt := sql.NullTime{Time: job.ScheduledAt, Valid: !job.ScheduledAt.IsZero()}

	var id int64
	if tx != nil {
		err = tx.QueryRowContext(ctx, query, job.UserID, job.MediaItemID, job.Caption, overrides, job.Status, scheduledAt).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, job.UserID, job.MediaItemID, job.Caption, overrides, job.Status, scheduledAt).Scan(&id)
	}
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *postJobRepository) GetByID(ctx context.Context, id int64) (*models.PostJob, error) {
	query := `SELECT id, user_id, media_item_id, caption, overrides, status, scheduled_at, created_at, updated_at FROM post_jobs WHERE id = $1`

	job, err := scanPostJob(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return job, nil
}

func (r *postJobRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.PostJob, error) {
	query := `SELECT id, user_id, media_item_id, caption, overrides, status, scheduled_at, created_at, updated_at FROM post_jobs WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var jobs []*models.PostJob
	for rows.Next() {
		job, err := scanPostJob(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}

func scanPostJob(row interface{ Scan(...interface{}) error }) (*models.PostJob, error) {
	var job models.PostJob
	var overrides []byte
	var scheduledAt sql.NullTime

	err := row.Scan(&job.ID, &job.UserID, &job.MediaItemID, &job.Caption, &overrides,
		&job.Status, &scheduledAt, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if scheduledAt.Valid {
		job.ScheduledAt = scheduledAt.Time
	}

	job.Overrides = unmarshalMap(overrides)

	return &job, nil
}

func (r *postJobRepository) CheckByUserID(ctx context.Context, jobID, userID int64) (bool, error) {
	query := `SELECT 1 FROM post_jobs WHERE id = $1 AND user_id = $2`

	var result int
	err := r.db.QueryRowContext(ctx, query, jobID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

func (r *postJobRepository) UpdateStatus(ctx context.Context, status string, jobID int64) error {
	query := `
		UPDATE post_jobs
		SET status = $1,
			updated_at = $2
		WHERE id = $3
	`
	_, err := r.db.ExecContext(ctx, query, status, time.Now(), jobID)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
