package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/tokens"
)

const (
	CodeInstagramContainerFailed = "INSTAGRAM_CONTAINER_FAILED"
	CodeInstagramVideoFailed     = "INSTAGRAM_VIDEO_FAILED"
	CodeInstagramVideoTimeout    = "INSTAGRAM_VIDEO_TIMEOUT"
	CodeInstagramPublishFailed   = "INSTAGRAM_PUBLISH_FAILED"
	CodeInstagramUnsupported     = "INSTAGRAM_UNSUPPORTED_MEDIA_TYPE"
)

// InstagramClient publishes through the Graph API container flow: create a
// media container, wait until Instagram finishes processing it, then publish
// it by id. Videos go up as REELS and are processed asynchronously, so the
// client polls the container status; images only need a short fixed wait.
// Long-lived tokens cannot be refreshed, hence no refresher.
type InstagramClient struct {
	cfg    config.Config
	tokens *tokens.Store
	apiURL string

	pollInterval time.Duration
	maxAttempts  int
	imageWait    time.Duration
}

func NewInstagramClient(cfg config.Config, ts *tokens.Store) *InstagramClient {
	return &InstagramClient{
		cfg:          cfg,
		tokens:       ts,
		apiURL:       "https://graph.instagram.com/v21.0",
		pollInterval: 5 * time.Second,
		maxAttempts:  30,
		imageWait:    3 * time.Second,
	}
}

func (c *InstagramClient) Platform() string { return models.PlatformInstagram }

func (c *InstagramClient) PublishVideo(ctx context.Context, user *models.User, conn *models.Connection, item *models.MediaItem, caption string) (string, error) {
	if !item.IsVideo() && !item.IsImage() {
		return "", Errf(CodeInstagramUnsupported, "instagram accepts image or video, got %s", item.FileType)
	}

	accessToken, err := c.tokens.Decrypt(conn.AccessToken)
	if err != nil {
		return "", err
	}

	containerID, err := c.createContainer(ctx, conn.AccountID, accessToken, item, caption)
	if err != nil {
		return "", err
	}

	if item.IsVideo() {
		if err := c.waitForContainer(ctx, containerID, accessToken); err != nil {
			return "", err
		}
	} else {
		// Image containers are usually ready almost immediately.
		select {
		case <-time.After(c.imageWait):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	return c.publishContainer(ctx, conn.AccountID, containerID, accessToken)
}

func (c *InstagramClient) createContainer(ctx context.Context, accountID, accessToken string, item *models.MediaItem, caption string) (string, error) {
	payload := map[string]interface{}{
		"caption":      caption,
		"access_token": accessToken,
	}
	if item.IsVideo() {
		payload["media_type"] = "REELS"
		payload["video_url"] = item.FileURL
	} else {
		payload["image_url"] = item.FileURL
	}

	id, err := c.post(ctx, fmt.Sprintf("%s/%s/media", c.apiURL, accountID), payload)
	if err != nil {
		return "", Errf(CodeInstagramContainerFailed, "creating container: %v", err)
	}

	return id, nil
}

// waitForContainer polls the container status every pollInterval until
// FINISHED, failing fast on ERROR and giving up definitively after
// maxAttempts rather than looping forever.
func (c *InstagramClient) waitForContainer(ctx context.Context, containerID, accessToken string) error {
	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		select {
		case <-time.After(c.pollInterval):
		case <-ctx.Done():
			return ctx.Err()
		}

		status, err := c.containerStatus(ctx, containerID, accessToken)
		if err != nil {
			return Errf(CodeInstagramVideoFailed, "checking container status: %v", err)
		}

		switch status {
		case "FINISHED":
			return nil
		case "ERROR":
			return Errf(CodeInstagramVideoFailed, "instagram reported processing error for container %s", containerID)
		}
	}

	return Errf(CodeInstagramVideoTimeout, "container %s not ready after %d attempts", containerID, c.maxAttempts)
}

func (c *InstagramClient) containerStatus(ctx context.Context, containerID, accessToken string) (string, error) {
	reqURL := fmt.Sprintf("%s/%s?fields=status_code&access_token=%s", c.apiURL, containerID, accessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status check returned %d: %s", resp.StatusCode, drainBody(resp.Body))
	}

	var result struct {
		StatusCode string `json:"status_code"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	return result.StatusCode, nil
}

func (c *InstagramClient) publishContainer(ctx context.Context, accountID, containerID, accessToken string) (string, error) {
	payload := map[string]interface{}{
		"creation_id":  containerID,
		"access_token": accessToken,
	}

	id, err := c.post(ctx, fmt.Sprintf("%s/%s/media_publish", c.apiURL, accountID), payload)
	if err != nil {
		return "", Errf(CodeInstagramPublishFailed, "publishing container: %v", err)
	}

	return id, nil
}

func (c *InstagramClient) post(ctx context.Context, reqURL string, payload map[string]interface{}) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d: %s", resp.StatusCode, drainBody(resp.Body))
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", fmt.Errorf("no id in response")
	}

	return result.ID, nil
}
