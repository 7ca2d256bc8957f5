package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/tokens"
)

const (
	CodeFacebookPageUnsupportedMedia = "FACEBOOK_PAGE_UNSUPPORTED_MEDIA_TYPE"
	CodeFacebookPagePublishFailed    = "FACEBOOK_PAGE_PUBLISH_FAILED"
)

// FacebookPageClient publishes a photo to a page's /photos edge with the
// stored page access token. Image only; the token is long-lived and not
// refreshable.
type FacebookPageClient struct {
	cfg    config.Config
	tokens *tokens.Store
	apiURL string
}

func NewFacebookPageClient(cfg config.Config, ts *tokens.Store) *FacebookPageClient {
	return &FacebookPageClient{
		cfg:    cfg,
		tokens: ts,
		apiURL: "https://graph.facebook.com/v21.0",
	}
}

func (c *FacebookPageClient) Platform() string { return models.PlatformFacebookPage }

func (c *FacebookPageClient) PublishVideo(ctx context.Context, user *models.User, conn *models.Connection, item *models.MediaItem, caption string) (string, error) {
	if !item.IsImage() {
		return "", Errf(CodeFacebookPageUnsupportedMedia, "facebook page publishing accepts images only, got %s", item.FileType)
	}

	accessToken, err := c.tokens.Decrypt(conn.AccessToken)
	if err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("url", item.FileURL)
	params.Set("caption", caption)
	params.Set("access_token", accessToken)

	reqURL := fmt.Sprintf("%s/%s/photos", c.apiURL, conn.AccountID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(params.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", Errf(CodeFacebookPagePublishFailed, "photos request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", Errf(CodeFacebookPagePublishFailed, "photos returned %d: %s", resp.StatusCode, drainBody(resp.Body))
	}

	var result struct {
		ID     string `json:"id"`
		PostID string `json:"post_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", Errf(CodeFacebookPagePublishFailed, "decoding photos response: %v", err)
	}

	if result.PostID != "" {
		return result.PostID, nil
	}
	if result.ID == "" {
		return "", Errf(CodeFacebookPagePublishFailed, "no post id in photos response")
	}
	return result.ID, nil
}
