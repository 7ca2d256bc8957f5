package platform

import (
	"context"
	"encoding/json"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYoutubeTitleCutOnRuneBoundary(t *testing.T) {
	store := newTestStore(t)
	caption := strings.Repeat("é", 150)

	var gotTitle, gotDescription string

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/media.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("video-bytes"))
	})
	mux.HandleFunc("/videos", func(w http.ResponseWriter, r *http.Request) {
		_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)

		part, err := multipart.NewReader(r.Body, params["boundary"]).NextPart()
		require.NoError(t, err)

		var meta struct {
			Snippet struct {
				Title       string `json:"title"`
				Description string `json:"description"`
			} `json:"snippet"`
		}
		require.NoError(t, json.NewDecoder(part).Decode(&meta))
		gotTitle = meta.Snippet.Title
		gotDescription = meta.Snippet.Description

		json.NewEncoder(w).Encode(map[string]string{"id": "vid-1"})
	})

	client := NewYoutubeClient(config.Config{}, store)
	client.uploadURL = server.URL + "/videos"

	conn := &models.Connection{
		Platform:    models.PlatformYoutube,
		AccessToken: encrypted(t, store, "yt-token"),
	}
	item := &models.MediaItem{FileType: "video/mp4", FileURL: server.URL + "/media.mp4"}

	videoID, err := client.PublishVideo(context.Background(), &models.User{}, conn, item, caption)
	require.NoError(t, err)
	assert.Equal(t, "vid-1", videoID)

	// The title is the caption cut to 100 characters, never mid-rune; the
	// description carries the full caption.
	assert.Equal(t, strings.Repeat("é", 100), gotTitle)
	assert.Equal(t, 100, utf8.RuneCountInString(gotTitle))
	assert.True(t, utf8.ValidString(gotTitle))
	assert.Equal(t, caption, gotDescription)
}

func TestYoutubeRejectsNonVideo(t *testing.T) {
	client := NewYoutubeClient(config.Config{}, newTestStore(t))

	item := &models.MediaItem{FileType: "image/png"}
	_, err := client.PublishVideo(context.Background(), &models.User{}, &models.Connection{}, item, "caption")
	require.Error(t, err)

	code, _ := Classify(err)
	assert.Equal(t, CodeYoutubeUnsupportedMedia, code)
}
