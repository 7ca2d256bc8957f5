package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFacebookPagePublishPhoto(t *testing.T) {
	store := newTestStore(t)

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/page-55/photos", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "https://cdn.example.com/p.jpg", r.PostForm.Get("url"))
		assert.Equal(t, "a caption", r.PostForm.Get("caption"))
		assert.Equal(t, "page-token", r.PostForm.Get("access_token"))

		json.NewEncoder(w).Encode(map[string]string{
			"id":      "photo-1",
			"post_id": "page-55_post-9",
		})
	})

	client := NewFacebookPageClient(config.Config{}, store)
	client.apiURL = server.URL

	conn := &models.Connection{
		Platform:    models.PlatformFacebookPage,
		AccountID:   "page-55",
		AccessToken: encrypted(t, store, "page-token"),
	}
	item := &models.MediaItem{FileType: "image/jpeg", FileURL: "https://cdn.example.com/p.jpg"}

	postID, err := client.PublishVideo(context.Background(), &models.User{}, conn, item, "a caption")
	require.NoError(t, err)
	assert.Equal(t, "page-55_post-9", postID)
}

func TestFacebookPageRejectsVideo(t *testing.T) {
	client := NewFacebookPageClient(config.Config{}, newTestStore(t))

	item := &models.MediaItem{FileType: "video/mp4"}
	_, err := client.PublishVideo(context.Background(), &models.User{}, &models.Connection{}, item, "caption")
	require.Error(t, err)

	code, _ := Classify(err)
	assert.Equal(t, CodeFacebookPageUnsupportedMedia, code)
}

func TestFacebookPageAPIErrorClassified(t *testing.T) {
	store := newTestStore(t)

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/page-55/photos", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "Invalid OAuth access token."},
		})
	})

	client := NewFacebookPageClient(config.Config{}, store)
	client.apiURL = server.URL

	conn := &models.Connection{
		AccountID:   "page-55",
		AccessToken: encrypted(t, store, "page-token"),
	}
	item := &models.MediaItem{FileType: "image/jpeg", FileURL: "https://cdn.example.com/p.jpg"}

	_, err := client.PublishVideo(context.Background(), &models.User{}, conn, item, "caption")
	require.Error(t, err)

	code, message := Classify(err)
	assert.Equal(t, CodeFacebookPagePublishFailed, code)
	assert.Contains(t, message, "400")
}
