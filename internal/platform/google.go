package platform

import (
	"context"

	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/internal/tokens"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// GoogleRefresher renews access tokens through the Google token endpoint.
// YouTube and Business Profile connections share it; only the scopes granted
// at connect time differ.
type GoogleRefresher struct {
	cfg config.Config
}

func NewGoogleRefresher(cfg config.Config) *GoogleRefresher {
	return &GoogleRefresher{cfg: cfg}
}

func (g *GoogleRefresher) Refresh(ctx context.Context, refreshToken string) (*tokens.Refreshed, error) {
	conf := &oauth2.Config{
		ClientID:     g.cfg.GoogleClientID,
		ClientSecret: g.cfg.GoogleClientSecret,
		Endpoint:     google.Endpoint,
	}

	tokenSource := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := tokenSource.Token()
	if err != nil {
		return nil, err
	}

	return &tokens.Refreshed{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}, nil
}
