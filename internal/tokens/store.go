// Package tokens is the single funnel for stored OAuth credentials: every
// component that needs a usable access token, or wants an expired one
// renewed, goes through the Store instead of talking to the providers'
// token endpoints itself.
package tokens

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/repository"
	"github.com/maheshrc27/crosspost/pkg/utils"
)

// Refreshed is the outcome of exchanging a refresh credential. RefreshToken
// may be empty when the provider does not rotate it.
type Refreshed struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Refresher exchanges a plaintext refresh token for a new access token.
// Platforms whose tokens never expire simply never register one.
type Refresher interface {
	Refresh(ctx context.Context, refreshToken string) (*Refreshed, error)
}

// expirySkew renews tokens slightly before their recorded expiry so a
// publish that starts just under the wire does not race the deadline.
const expirySkew = 2 * time.Minute

type Store struct {
	secretKey []byte
	repo      repository.ConnectionRepository

	mu         sync.RWMutex
	refreshers map[string]Refresher
}

func NewStore(secretKey string, repo repository.ConnectionRepository) *Store {
	return &Store{
		secretKey:  []byte(secretKey),
		repo:       repo,
		refreshers: make(map[string]Refresher),
	}
}

func (s *Store) RegisterRefresher(platform string, r Refresher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshers[platform] = r
}

func (s *Store) refresher(platform string) (Refresher, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.refreshers[platform]
	return r, ok
}

// HasRefresher reports whether platform's tokens can be renewed at all.
func (s *Store) HasRefresher(platform string) bool {
	_, ok := s.refresher(platform)
	return ok
}

func (s *Store) Encrypt(plaintext string) (string, error) {
	return utils.Encrypt([]byte(plaintext), s.secretKey)
}

func (s *Store) Decrypt(ciphertext string) (string, error) {
	return utils.Decrypt(ciphertext, s.secretKey)
}

// AccessToken returns the plaintext access token for conn, renewing it first
// when it is expired or about to expire. conn is updated in place so later
// calls in the same job see the refreshed value.
func (s *Store) AccessToken(ctx context.Context, conn *models.Connection) (string, error) {
	if _, err := s.RefreshIfExpired(ctx, conn); err != nil {
		return "", err
	}

	return s.Decrypt(conn.AccessToken)
}

// RefreshIfExpired renews conn's credentials when the stored expiry has
// passed (minus skew) and a refresher exists for its platform. A zero expiry
// means the token never expires. The new credentials are persisted before
// returning, so concurrent and later publishes observe them.
func (s *Store) RefreshIfExpired(ctx context.Context, conn *models.Connection) (*models.Connection, error) {
	if conn.TokenExpiresAt.IsZero() || time.Now().Before(conn.TokenExpiresAt.Add(-expirySkew)) {
		return conn, nil
	}

	if _, ok := s.refresher(conn.Platform); !ok {
		return conn, nil
	}

	return s.Refresh(ctx, conn)
}

// Refresh unconditionally renews conn's credentials through the registered
// refresher and writes them back to the connection row.
func (s *Store) Refresh(ctx context.Context, conn *models.Connection) (*models.Connection, error) {
	refresher, ok := s.refresher(conn.Platform)
	if !ok {
		return nil, fmt.Errorf("no token refresher for platform %s", conn.Platform)
	}

	if conn.RefreshToken == "" {
		return nil, fmt.Errorf("connection %d has no refresh token", conn.ID)
	}

	refreshToken, err := s.Decrypt(conn.RefreshToken)
	if err != nil {
		return nil, err
	}

	renewed, err := refresher.Refresh(ctx, refreshToken)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("refreshing %s token: %w", conn.Platform, err)
	}

	encryptedAccess, err := s.Encrypt(renewed.AccessToken)
	if err != nil {
		return nil, err
	}

	var encryptedRefresh string
	if renewed.RefreshToken != "" {
		encryptedRefresh, err = s.Encrypt(renewed.RefreshToken)
		if err != nil {
			return nil, err
		}
	}

	update := models.Connection{
		AccessToken:    encryptedAccess,
		RefreshToken:   encryptedRefresh,
		TokenExpiresAt: renewed.ExpiresAt,
	}
	if err := s.repo.SetToken(ctx, conn.ID, &update); err != nil {
		return nil, err
	}

	conn.AccessToken = encryptedAccess
	if encryptedRefresh != "" {
		conn.RefreshToken = encryptedRefresh
	}
	conn.TokenExpiresAt = renewed.ExpiresAt

	return conn, nil
}
