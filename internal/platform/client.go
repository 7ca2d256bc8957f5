// Package platform holds one publishing client per supported social platform.
// Every client speaks its own wire protocol but satisfies the same Client
// contract, so the publish fan-out can treat them uniformly through a
// registry keyed by platform tag.
package platform

import (
	"context"

	"github.com/maheshrc27/crosspost/internal/models"
)

// Client publishes one media item with a caption to one connected external
// account. PublishVideo returns the external post identifier on success; any
// failure attributable to the platform comes back as a *Error so the caller
// can record a stable code instead of an opaque message.
type Client interface {
	Platform() string
	PublishVideo(ctx context.Context, user *models.User, conn *models.Connection, item *models.MediaItem, caption string) (string, error)
}

// Registry maps a platform tag to its client. Adding a platform means adding
// one entry here; connections whose platform has no entry fail their result
// with CLIENT_NOT_FOUND instead of aborting the job.
type Registry map[string]Client

func NewRegistry(clients ...Client) Registry {
	r := make(Registry, len(clients))
	for _, c := range clients {
		r[c.Platform()] = c
	}
	return r
}

func (r Registry) Lookup(platform string) (Client, bool) {
	c, ok := r[platform]
	return c, ok
}
