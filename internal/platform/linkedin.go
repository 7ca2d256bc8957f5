package platform

import (
	"context"

	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/internal/models"
)

// LinkedinClient is a stub. Connections can be created (organization-scoped
// OAuth works, organizations land in metadata) but publishing is not wired
// up yet, so every attempt resolves its result as NOT_IMPLEMENTED.
type LinkedinClient struct {
	cfg config.Config
}

func NewLinkedinClient(cfg config.Config) *LinkedinClient {
	return &LinkedinClient{cfg: cfg}
}

func (c *LinkedinClient) Platform() string { return models.PlatformLinkedin }

func (c *LinkedinClient) PublishVideo(ctx context.Context, user *models.User, conn *models.Connection, item *models.MediaItem, caption string) (string, error) {
	return "", Errf(CodeNotImplemented, "linkedin publishing is not implemented")
}
