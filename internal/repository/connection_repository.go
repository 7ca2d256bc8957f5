package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/crosspost/internal/models"
)

type ConnectionRepository interface {
	Upsert(ctx context.Context, tx *sql.Tx, c *models.Connection) (int64, error)
	GetByID(ctx context.Context, id int64) (*models.Connection, error)
	GetByUserAndPlatform(ctx context.Context, userID int64, platform string) (*models.Connection, error)
	ListByUserID(ctx context.Context, userID int64) ([]*models.Connection, error)
	ListInfoByUserID(ctx context.Context, userID int64) ([]*models.Connection, error)
	ListByTimeInterval(ctx context.Context, initialTime, finalTime time.Time) ([]*models.Connection, error)
	CheckByUserID(ctx context.Context, connectionID, userID int64) (bool, error)
	SetToken(ctx context.Context, connectionID int64, c *models.Connection) error
	SetMetadata(ctx context.Context, connectionID int64, metadata map[string]string) error
	Remove(ctx context.Context, id int64) error
}

type connectionRepository struct {
	db *sql.DB
}

func NewConnectionRepository(db *sql.DB) ConnectionRepository {
	return &connectionRepository{db: db}
}

const connectionColumns = `id, user_id, platform, account_id, account_name, access_token, refresh_token, token_expires_at, metadata, created_at, updated_at`

func scanConnection(row interface{ Scan(...interface{}) error }) (*models.Connection, error) {
	var c models.Connection
	var expiresAt sql.NullTime
	var metadata []byte

	err := row.Scan(&c.ID, &c.UserID, &c.Platform, &c.AccountID, &c.AccountName,
		&c.AccessToken, &c.RefreshToken, &expiresAt, &metadata, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if expiresAt.Valid {
		c.TokenExpiresAt = expiresAt.Time
	}
	c.Metadata = unmarshalMap(metadata)

	return &c, nil
}

// Upsert creates the connection or, when the (user_id, platform) pair already
// exists, replaces its account identity, tokens and metadata. Reconnect keeps
// the same row id.
func (r *connectionRepository) Upsert(ctx context.Context, tx *sql.Tx, c *models.Connection) (int64, error) {
	query := `
		INSERT INTO connections (user_id, platform, account_id, account_name, access_token, refresh_token, token_expires_at, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '0001-01-01 00:00:00'::timestamp), $8)
		ON CONFLICT (user_id, platform) DO UPDATE SET
			account_id = EXCLUDED.account_id,
			account_name = EXCLUDED.account_name,
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			token_expires_at = EXCLUDED.token_expires_at,
			metadata = COALESCE(EXCLUDED.metadata, connections.metadata),
			updated_at = CURRENT_TIMESTAMP
		RETURNING id
	`

	metadata, err := marshalMap(c.Metadata)
	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	var id int64
	if tx != nil {
		err = tx.QueryRowContext(ctx, query, c.UserID, c.Platform, c.AccountID, c.AccountName,
			c.AccessToken, c.RefreshToken, c.TokenExpiresAt, metadata).Scan(&id)
	} else {
		err = r.db.QueryRowContext(ctx, query, c.UserID, c.Platform, c.AccountID, c.AccountName,
			c.AccessToken, c.RefreshToken, c.TokenExpiresAt, metadata).Scan(&id)
	}

	if err != nil {
		slog.Info(err.Error())
		return 0, err
	}

	return id, nil
}

func (r *connectionRepository) GetByID(ctx context.Context, id int64) (*models.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE id = $1`

	c, err := scanConnection(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return c, nil
}

func (r *connectionRepository) GetByUserAndPlatform(ctx context.Context, userID int64, platform string) (*models.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE user_id = $1 AND platform = $2`

	c, err := scanConnection(r.db.QueryRowContext(ctx, query, userID, platform))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}

	return c, nil
}

func (r *connectionRepository) ListByUserID(ctx context.Context, userID int64) ([]*models.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE user_id = $1 ORDER BY platform`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var connections []*models.Connection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		connections = append(connections, c)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return connections, nil
}

func (r *connectionRepository) ListInfoByUserID(ctx context.Context, userID int64) ([]*models.Connection, error) {
	query := `SELECT id, platform, account_id, account_name FROM connections WHERE user_id = $1`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var connections []*models.Connection
	for rows.Next() {
		var c models.Connection
		if err := rows.Scan(&c.ID, &c.Platform, &c.AccountID, &c.AccountName); err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		connections = append(connections, &c)
	}

	return connections, nil
}

func (r *connectionRepository) ListByTimeInterval(ctx context.Context, initialTime, finalTime time.Time) ([]*models.Connection, error) {
	query := `SELECT ` + connectionColumns + `
			FROM connections
			WHERE refresh_token <> ''
			AND token_expires_at IS NOT NULL
			AND (token_expires_at BETWEEN $1 AND $2 OR token_expires_at < $1)`

	rows, err := r.db.QueryContext(ctx, query, initialTime, finalTime)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var connections []*models.Connection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		connections = append(connections, c)
	}

	if err := rows.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return connections, nil
}

func (r *connectionRepository) CheckByUserID(ctx context.Context, connectionID, userID int64) (bool, error) {
	query := `SELECT 1 FROM connections WHERE id = $1 AND user_id = $2`

	var result int
	err := r.db.QueryRowContext(ctx, query, connectionID, userID).Scan(&result)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		slog.Info(err.Error())
		return false, err
	}

	return result == 1, nil
}

// SetToken overwrites the stored credentials for one connection. Keyed by id,
// so a concurrent refresh for the same connection is an idempotent last-write.
func (r *connectionRepository) SetToken(ctx context.Context, connectionID int64, c *models.Connection) error {
	query := `
		UPDATE connections
		SET
			access_token = COALESCE(NULLIF($2, ''), access_token),
			refresh_token = COALESCE(NULLIF($3, ''), refresh_token),
			token_expires_at = COALESCE(NULLIF($4, '0001-01-01 00:00:00'::timestamp), token_expires_at),
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, connectionID, c.AccessToken, c.RefreshToken, c.TokenExpiresAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	if affected != 1 {
		slog.Info("no rows affected; connection may not exist")
		return sql.ErrNoRows
	}

	return nil
}

func (r *connectionRepository) SetMetadata(ctx context.Context, connectionID int64, metadata map[string]string) error {
	data, err := marshalMap(metadata)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	query := `UPDATE connections SET metadata = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`
	_, err = r.db.ExecContext(ctx, query, connectionID, data)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}

func (r *connectionRepository) Remove(ctx context.Context, id int64) error {
	query := `DELETE FROM connections WHERE id = $1`
	_, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
