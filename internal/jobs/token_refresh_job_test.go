package job

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/tokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fakeConnectionRepo struct {
	mu       sync.Mutex
	listed   []*models.Connection
	setToken []int64
}

func (f *fakeConnectionRepo) Upsert(ctx context.Context, tx *sql.Tx, c *models.Connection) (int64, error) {
	return 0, nil
}

func (f *fakeConnectionRepo) GetByID(ctx context.Context, id int64) (*models.Connection, error) {
	return nil, nil
}

func (f *fakeConnectionRepo) GetByUserAndPlatform(ctx context.Context, userID int64, platform string) (*models.Connection, error) {
	return nil, nil
}

func (f *fakeConnectionRepo) ListByUserID(ctx context.Context, userID int64) ([]*models.Connection, error) {
	return nil, nil
}

func (f *fakeConnectionRepo) ListInfoByUserID(ctx context.Context, userID int64) ([]*models.Connection, error) {
	return nil, nil
}

func (f *fakeConnectionRepo) ListByTimeInterval(ctx context.Context, initialTime, finalTime time.Time) ([]*models.Connection, error) {
	return f.listed, nil
}

func (f *fakeConnectionRepo) CheckByUserID(ctx context.Context, connectionID, userID int64) (bool, error) {
	return false, nil
}

func (f *fakeConnectionRepo) SetToken(ctx context.Context, connectionID int64, c *models.Connection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setToken = append(f.setToken, connectionID)
	return nil
}

func (f *fakeConnectionRepo) SetMetadata(ctx context.Context, connectionID int64, metadata map[string]string) error {
	return nil
}

func (f *fakeConnectionRepo) Remove(ctx context.Context, id int64) error { return nil }

type fakeRefresher struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeRefresher) Refresh(ctx context.Context, refreshToken string) (*tokens.Refreshed, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return &tokens.Refreshed{
		AccessToken: "renewed-access",
		ExpiresAt:   time.Now().Add(time.Hour),
	}, nil
}

// A connection listed by the expiry window gets renewed even when its token
// is still comfortably valid; the listing window is the only gate.
func TestRefreshTokensRenewsAheadOfExpiry(t *testing.T) {
	repo := &fakeConnectionRepo{}
	store := tokens.NewStore(testSecret, repo)
	refresher := &fakeRefresher{}
	store.RegisterRefresher(models.PlatformTiktok, refresher)

	access, err := store.Encrypt("old-access")
	require.NoError(t, err)
	refresh, err := store.Encrypt("the-refresh-token")
	require.NoError(t, err)

	repo.listed = []*models.Connection{
		{
			ID:             7,
			Platform:       models.PlatformTiktok,
			AccessToken:    access,
			RefreshToken:   refresh,
			TokenExpiresAt: time.Now().Add(20 * time.Minute),
		},
		// No refresher registered for this platform; the job skips it
		// instead of logging a failure per run.
		{
			ID:             8,
			Platform:       models.PlatformInstagram,
			AccessToken:    access,
			RefreshToken:   refresh,
			TokenExpiresAt: time.Now().Add(20 * time.Minute),
		},
	}

	NewTokenRefreshJob(repo, store).RefreshTokens()

	assert.Equal(t, 1, refresher.calls)
	assert.Equal(t, []int64{7}, repo.setToken)

	renewed, err := store.Decrypt(repo.listed[0].AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "renewed-access", renewed)
}
