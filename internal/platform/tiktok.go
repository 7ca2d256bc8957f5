package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/tokens"
)

const (
	CodeTiktokInitFailed       = "TIKTOK_INIT_FAILED"
	CodeTiktokUploadFailed     = "TIKTOK_UPLOAD_FAILED"
	CodeTiktokUnsupportedMedia = "TIKTOK_UNSUPPORTED_MEDIA_TYPE"
)

// TiktokClient publishes through the Content Posting inbox flow: init
// declares the file size, TikTok hands back an upload URL plus publish id,
// and the raw bytes go up in a single ranged PUT. The video lands in the
// user's inbox as a draft rather than going public immediately.
type TiktokClient struct {
	cfg    config.Config
	tokens *tokens.Store
	apiURL string
}

func NewTiktokClient(cfg config.Config, ts *tokens.Store) *TiktokClient {
	return &TiktokClient{
		cfg:    cfg,
		tokens: ts,
		apiURL: "https://open.tiktokapis.com",
	}
}

func (c *TiktokClient) Platform() string { return models.PlatformTiktok }

type tiktokInitRequest struct {
	PostInfo struct {
		Title string `json:"title"`
	} `json:"post_info"`
	SourceInfo struct {
		Source          string `json:"source"`
		VideoSize       int64  `json:"video_size"`
		ChunkSize       int64  `json:"chunk_size"`
		TotalChunkCount int    `json:"total_chunk_count"`
	} `json:"source_info"`
}

type tiktokInitResponse struct {
	Data struct {
		PublishID string `json:"publish_id"`
		UploadURL string `json:"upload_url"`
	} `json:"data"`
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *TiktokClient) PublishVideo(ctx context.Context, user *models.User, conn *models.Connection, item *models.MediaItem, caption string) (string, error) {
	if !item.IsVideo() {
		return "", Errf(CodeTiktokUnsupportedMedia, "tiktok accepts video only, got %s", item.FileType)
	}

	accessToken, err := c.tokens.AccessToken(ctx, conn)
	if err != nil {
		return "", Errf(CodeTokenRefreshFailed, "tiktok token: %v", err)
	}

	video, err := fetchMedia(ctx, item.FileURL)
	if err != nil {
		return "", err
	}

	publishID, uploadURL, err := c.initUpload(ctx, accessToken, caption, int64(len(video)))
	if err != nil {
		return "", err
	}

	if err := c.uploadBytes(ctx, uploadURL, item.FileType, video); err != nil {
		return "", err
	}

	return publishID, nil
}

func (c *TiktokClient) initUpload(ctx context.Context, accessToken, caption string, size int64) (publishID, uploadURL string, err error) {
	var initReq tiktokInitRequest
	initReq.PostInfo.Title = caption
	initReq.SourceInfo.Source = "FILE_UPLOAD"
	initReq.SourceInfo.VideoSize = size
	initReq.SourceInfo.ChunkSize = size
	initReq.SourceInfo.TotalChunkCount = 1

	body, err := json.Marshal(initReq)
	if err != nil {
		return "", "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/v2/post/publish/inbox/video/init/", bytes.NewBuffer(body))
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", "", Errf(CodeTiktokInitFailed, "init request: %v", err)
	}
	defer resp.Body.Close()

	var result tiktokInitResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", "", Errf(CodeTiktokInitFailed, "decoding init response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", "", Errf(CodeTiktokInitFailed, "init returned %d: %s", resp.StatusCode, result.Error.Message)
	}
	if result.Data.UploadURL == "" || result.Data.PublishID == "" {
		return "", "", Errf(CodeTiktokInitFailed, "init response missing upload_url or publish_id")
	}

	return result.Data.PublishID, result.Data.UploadURL, nil
}

func (c *TiktokClient) uploadBytes(ctx context.Context, uploadURL, contentType string, video []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(video))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", contentType)
	// Single chunk covering the whole file.
	req.Header.Set("Content-Range", fmt.Sprintf("bytes 0-%d/%d", len(video)-1, len(video)))
	req.ContentLength = int64(len(video))

	resp, err := httpClient.Do(req)
	if err != nil {
		return Errf(CodeTiktokUploadFailed, "upload request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated &&
		resp.StatusCode != http.StatusPartialContent {
		return Errf(CodeTiktokUploadFailed, "upload returned %d: %s", resp.StatusCode, drainBody(resp.Body))
	}

	return nil
}

// Refresh implements tokens.Refresher against the TikTok token endpoint.
func (c *TiktokClient) Refresh(ctx context.Context, refreshToken string) (*tokens.Refreshed, error) {
	data := url.Values{}
	data.Set("client_key", c.cfg.TiktokClientKey)
	data.Set("client_secret", c.cfg.TiktokClientSecret)
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/v2/oauth/token/", strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tiktok token endpoint returned %d: %s", resp.StatusCode, drainBody(resp.Body))
	}

	var result struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	if result.AccessToken == "" {
		return nil, fmt.Errorf("tiktok token endpoint returned no access token")
	}

	return &tokens.Refreshed{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		ExpiresAt:    time.Now().Add(time.Duration(result.ExpiresIn) * time.Second),
	}, nil
}
