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

func TestGoogleBusinessResolveLocationFromMetadata(t *testing.T) {
	client := NewGoogleBusinessClient(config.Config{}, newTestStore(t), nil)

	conn := &models.Connection{
		ID: 3,
		Metadata: map[string]string{
			models.MetaGBPLocationName: "accounts/1/locations/2",
		},
	}

	location, err := client.resolveLocation(context.Background(), conn, "token")
	require.NoError(t, err)
	assert.Equal(t, "accounts/1/locations/2", location)
}

func TestGoogleBusinessUnconfiguredLocation(t *testing.T) {
	client := NewGoogleBusinessClient(config.Config{}, newTestStore(t), nil)

	conn := &models.Connection{ID: 3, Metadata: map[string]string{}}

	_, err := client.resolveLocation(context.Background(), conn, "token")
	require.Error(t, err)

	code, _ := Classify(err)
	assert.Equal(t, CodeGBPLocationNotConfigured, code)
}

func TestGoogleBusinessPublishPhoto(t *testing.T) {
	store := newTestStore(t)

	photo := []byte("photo-bytes")
	var uploadedBytes int64

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/media.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Write(photo)
	})
	mux.HandleFunc("/accounts/1/locations/2/media:startUpload", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer gbp-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]string{
			"resourceName": "accounts/1/locations/2/media/ref-1",
		})
	})
	mux.HandleFunc("/upload/accounts/1/locations/2/media/ref-1", func(w http.ResponseWriter, r *http.Request) {
		uploadedBytes = r.ContentLength
		assert.Equal(t, "media", r.URL.Query().Get("upload_type"))
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/accounts/1/locations/2/media", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "PHOTO", payload["mediaFormat"])

		json.NewEncoder(w).Encode(map[string]string{
			"name": "accounts/1/locations/2/media/item-5",
		})
	})

	client := NewGoogleBusinessClient(config.Config{}, store, nil)
	client.apiURL = server.URL
	client.uploadURL = server.URL + "/upload"

	conn := &models.Connection{
		ID:          3,
		Platform:    models.PlatformGoogleBusiness,
		AccessToken: encrypted(t, store, "gbp-token"),
		Metadata: map[string]string{
			models.MetaGBPLocationName: "accounts/1/locations/2",
		},
	}
	item := &models.MediaItem{FileType: "image/jpeg", FileURL: server.URL + "/media.jpg"}

	name, err := client.PublishVideo(context.Background(), &models.User{}, conn, item, "caption")
	require.NoError(t, err)

	assert.Equal(t, "accounts/1/locations/2/media/item-5", name)
	assert.Equal(t, int64(len(photo)), uploadedBytes)
}
