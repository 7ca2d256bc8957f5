package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"unicode/utf8"

	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/tokens"
)

const (
	CodeYoutubeUploadFailed     = "YOUTUBE_UPLOAD_FAILED"
	CodeYoutubeUnsupportedMedia = "YOUTUBE_UNSUPPORTED_MEDIA_TYPE"
)

const youtubeTitleLimit = 100

// youtubeBoundary separates the metadata and media parts of the
// multipart/related upload body. The Data API accepts any literal as long as
// the Content-Type header declares the same one.
const youtubeBoundary = "ytboundary2718281828"

// YoutubeClient uploads via the Data API's multipart endpoint: one POST whose
// body carries a JSON snippet part and the raw video part. The caption fills
// the description; the title is the caption cut to the API's 100-char limit.
type YoutubeClient struct {
	cfg       config.Config
	tokens    *tokens.Store
	uploadURL string
}

func NewYoutubeClient(cfg config.Config, ts *tokens.Store) *YoutubeClient {
	return &YoutubeClient{
		cfg:       cfg,
		tokens:    ts,
		uploadURL: "https://www.googleapis.com/upload/youtube/v3/videos",
	}
}

func (c *YoutubeClient) Platform() string { return models.PlatformYoutube }

func (c *YoutubeClient) PublishVideo(ctx context.Context, user *models.User, conn *models.Connection, item *models.MediaItem, caption string) (string, error) {
	if !item.IsVideo() {
		return "", Errf(CodeYoutubeUnsupportedMedia, "youtube accepts video only, got %s", item.FileType)
	}

	accessToken, err := c.tokens.AccessToken(ctx, conn)
	if err != nil {
		return "", Errf(CodeTokenRefreshFailed, "youtube token: %v", err)
	}

	video, err := fetchMedia(ctx, item.FileURL)
	if err != nil {
		return "", err
	}

	// The title limit counts characters; cut on rune boundaries.
	title := caption
	if utf8.RuneCountInString(title) > youtubeTitleLimit {
		title = string([]rune(title)[:youtubeTitleLimit])
	}

	metadata := map[string]interface{}{
		"snippet": map[string]interface{}{
			"title":       title,
			"description": caption,
			"categoryId":  "22",
		},
		"status": map[string]interface{}{
			"privacyStatus": "public",
		},
	}

	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return "", err
	}

	body := buildMultipartRelated(metadataJSON, item.FileType, video)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.uploadURL+"?uploadType=multipart&part=snippet,status", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "multipart/related; boundary="+youtubeBoundary)

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", Errf(CodeYoutubeUploadFailed, "upload request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", Errf(CodeYoutubeUploadFailed, "upload returned %d: %s", resp.StatusCode, drainBody(resp.Body))
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", Errf(CodeYoutubeUploadFailed, "decoding upload response: %v", err)
	}
	if result.ID == "" {
		return "", Errf(CodeYoutubeUploadFailed, "no video id in upload response")
	}

	return result.ID, nil
}

func buildMultipartRelated(metadataJSON []byte, mediaType string, media []byte) []byte {
	var buf bytes.Buffer

	buf.WriteString("--" + youtubeBoundary + "\r\n")
	buf.WriteString("Content-Type: application/json; charset=UTF-8\r\n\r\n")
	buf.Write(metadataJSON)
	buf.WriteString("\r\n--" + youtubeBoundary + "\r\n")
	buf.WriteString("Content-Type: " + mediaType + "\r\n\r\n")
	buf.Write(media)
	buf.WriteString("\r\n--" + youtubeBoundary + "--\r\n")

	return buf.Bytes()
}
