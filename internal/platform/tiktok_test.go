package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/tokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestStore(t *testing.T) *tokens.Store {
	t.Helper()
	return tokens.NewStore(testSecret, nil)
}

func encrypted(t *testing.T, store *tokens.Store, plaintext string) string {
	t.Helper()
	ciphertext, err := store.Encrypt(plaintext)
	require.NoError(t, err)
	return ciphertext
}

func TestTiktokPublishVideo(t *testing.T) {
	store := newTestStore(t)

	video := []byte("fake-video-bytes")
	var gotRange, gotAuth string

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/media.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.Write(video)
	})
	mux.HandleFunc("/v2/post/publish/inbox/video/init/", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")

		var initReq tiktokInitRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&initReq))
		assert.Equal(t, "FILE_UPLOAD", initReq.SourceInfo.Source)
		assert.Equal(t, int64(len(video)), initReq.SourceInfo.VideoSize)
		assert.Equal(t, initReq.SourceInfo.VideoSize, initReq.SourceInfo.ChunkSize)
		assert.Equal(t, 1, initReq.SourceInfo.TotalChunkCount)
		assert.Equal(t, "a caption", initReq.PostInfo.Title)

		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": map[string]string{
				"publish_id": "pub-123",
				"upload_url": server.URL + "/upload",
			},
		})
	})
	mux.HandleFunc("/upload", func(w http.ResponseWriter, r *http.Request) {
		gotRange = r.Header.Get("Content-Range")
		w.WriteHeader(http.StatusCreated)
	})

	client := NewTiktokClient(config.Config{}, store)
	client.apiURL = server.URL

	conn := &models.Connection{
		Platform:    models.PlatformTiktok,
		AccessToken: encrypted(t, store, "tiktok-access"),
	}
	item := &models.MediaItem{
		FileType: "video/mp4",
		FileURL:  server.URL + "/media.mp4",
	}

	publishID, err := client.PublishVideo(context.Background(), &models.User{}, conn, item, "a caption")
	require.NoError(t, err)

	assert.Equal(t, "pub-123", publishID)
	assert.Equal(t, "Bearer tiktok-access", gotAuth)
	assert.Equal(t, fmt.Sprintf("bytes 0-%d/%d", len(video)-1, len(video)), gotRange)
}

func TestTiktokRejectsNonVideo(t *testing.T) {
	client := NewTiktokClient(config.Config{}, newTestStore(t))

	item := &models.MediaItem{FileType: "image/png"}
	_, err := client.PublishVideo(context.Background(), &models.User{}, &models.Connection{}, item, "caption")
	require.Error(t, err)

	code, _ := Classify(err)
	assert.Equal(t, CodeTiktokUnsupportedMedia, code)
}

func TestTiktokInitErrorClassified(t *testing.T) {
	store := newTestStore(t)

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/media.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("x"))
	})
	mux.HandleFunc("/v2/post/publish/inbox/video/init/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"code": "spam_risk", "message": "nope"},
		})
	})

	client := NewTiktokClient(config.Config{}, store)
	client.apiURL = server.URL

	conn := &models.Connection{
		Platform:    models.PlatformTiktok,
		AccessToken: encrypted(t, store, "tiktok-access"),
	}
	item := &models.MediaItem{FileType: "video/mp4", FileURL: server.URL + "/media.mp4"}

	_, err := client.PublishVideo(context.Background(), &models.User{}, conn, item, "caption")
	require.Error(t, err)

	code, message := Classify(err)
	assert.Equal(t, CodeTiktokInitFailed, code)
	assert.Contains(t, message, "nope")
}
