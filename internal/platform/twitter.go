package platform

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/tokens"
)

const (
	CodeTwitterMediaUploadFailed = "TWITTER_MEDIA_UPLOAD_FAILED"
	CodeTwitterStatusFailed      = "TWITTER_STATUS_FAILED"
	CodeTwitterUnsupportedMedia  = "TWITTER_UNSUPPORTED_MEDIA_TYPE"
)

const twitterStatusLimit = 280

// TwitterClient posts through the v1.1 endpoints with two separately signed
// OAuth 1.0a requests: upload the media as base64, then post a status
// referencing the returned media id. The per-user token pair never expires,
// so there is no refresher; the token secret lives in connection metadata.
type TwitterClient struct {
	cfg       config.Config
	tokens    *tokens.Store
	uploadURL string
	apiURL    string
}

func NewTwitterClient(cfg config.Config, ts *tokens.Store) *TwitterClient {
	return &TwitterClient{
		cfg:       cfg,
		tokens:    ts,
		uploadURL: "https://upload.twitter.com/1.1/media/upload.json",
		apiURL:    "https://api.twitter.com/1.1/statuses/update.json",
	}
}

func (c *TwitterClient) Platform() string { return models.PlatformTwitter }

func (c *TwitterClient) signer() *OAuth1 {
	return &OAuth1{
		ConsumerKey:    c.cfg.TwitterConsumerKey,
		ConsumerSecret: c.cfg.TwitterConsumerSecret,
	}
}

func (c *TwitterClient) PublishVideo(ctx context.Context, user *models.User, conn *models.Connection, item *models.MediaItem, caption string) (string, error) {
	if !item.IsVideo() && !item.IsImage() {
		return "", Errf(CodeTwitterUnsupportedMedia, "twitter accepts image or video, got %s", item.FileType)
	}

	token, err := c.tokens.Decrypt(conn.AccessToken)
	if err != nil {
		return "", err
	}
	tokenSecret, err := c.tokens.Decrypt(conn.Metadata[models.MetaTwitterTokenSecret])
	if err != nil {
		return "", err
	}

	media, err := fetchMedia(ctx, item.FileURL)
	if err != nil {
		return "", err
	}

	mediaID, err := c.uploadMedia(ctx, token, tokenSecret, media)
	if err != nil {
		return "", err
	}

	return c.postStatus(ctx, token, tokenSecret, TruncateStatus(caption), mediaID)
}

// TruncateStatus cuts a caption down to the 280-character status limit,
// ending with an ellipsis when anything was dropped. The limit counts runes,
// not bytes, so multibyte captions keep their full budget and are never
// sliced mid-character.
func TruncateStatus(caption string) string {
	if utf8.RuneCountInString(caption) <= twitterStatusLimit {
		return caption
	}
	runes := []rune(caption)
	return string(runes[:twitterStatusLimit-3]) + "..."
}

func (c *TwitterClient) uploadMedia(ctx context.Context, token, tokenSecret string, media []byte) (string, error) {
	params := url.Values{}
	params.Set("media_data", base64.StdEncoding.EncodeToString(media))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, strings.NewReader(params.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", c.signer().AuthHeader(http.MethodPost, c.uploadURL, params, token, tokenSecret))

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", Errf(CodeTwitterMediaUploadFailed, "media upload request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", Errf(CodeTwitterMediaUploadFailed, "media upload returned %d: %s", resp.StatusCode, drainBody(resp.Body))
	}

	var result struct {
		MediaIDString string `json:"media_id_string"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", Errf(CodeTwitterMediaUploadFailed, "decoding media upload response: %v", err)
	}
	if result.MediaIDString == "" {
		return "", Errf(CodeTwitterMediaUploadFailed, "no media id in upload response")
	}

	return result.MediaIDString, nil
}

func (c *TwitterClient) postStatus(ctx context.Context, token, tokenSecret, status, mediaID string) (string, error) {
	params := url.Values{}
	params.Set("status", status)
	params.Set("media_ids", mediaID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, strings.NewReader(params.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", c.signer().AuthHeader(http.MethodPost, c.apiURL, params, token, tokenSecret))

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", Errf(CodeTwitterStatusFailed, "status request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", Errf(CodeTwitterStatusFailed, "status returned %d: %s", resp.StatusCode, drainBody(resp.Body))
	}

	var result struct {
		IDStr string `json:"id_str"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", Errf(CodeTwitterStatusFailed, "decoding status response: %v", err)
	}
	if result.IDStr == "" {
		return "", Errf(CodeTwitterStatusFailed, "no tweet id in status response")
	}

	return result.IDStr, nil
}
