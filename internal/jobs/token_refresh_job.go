package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/repository"
	"github.com/maheshrc27/crosspost/internal/tokens"
)

// TokenRefreshJob renews connections whose access tokens expire soon, so
// publishes rarely pay the refresh round-trip themselves. Every listed
// connection is refreshed outright; the listing window is the proactive
// horizon, so there is no second expiry check here. Platforms without a
// registered refresher are skipped.
type TokenRefreshJob struct {
	cr repository.ConnectionRepository
	ts *tokens.Store
}

func NewTokenRefreshJob(cr repository.ConnectionRepository, ts *tokens.Store) *TokenRefreshJob {
	return &TokenRefreshJob{
		cr: cr,
		ts: ts,
	}
}

func (c *TokenRefreshJob) RefreshTokens() {
	ctx := context.Background()

	currentTime := time.Now()
	timeIn30Minutes := currentTime.Add(30 * time.Minute)

	connections, err := c.cr.ListByTimeInterval(ctx, currentTime, timeIn30Minutes)
	if err != nil {
		slog.Info(err.Error())
		return
	}

	var wg sync.WaitGroup

	concurrencyLimit := 10
	semaphore := make(chan struct{}, concurrencyLimit)

	for _, conn := range connections {
		if !c.ts.HasRefresher(conn.Platform) {
			continue
		}

		wg.Add(1)
		semaphore <- struct{}{}

		go func(conn *models.Connection) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if _, err := c.ts.Refresh(ctx, conn); err != nil {
				slog.Info("token refresh failed", "platform", conn.Platform, "connection", conn.ID, "error", err.Error())
			}
		}(conn)
	}

	wg.Wait()
}
