package platform

import (
	"context"
	"encoding/base64"
	"encoding/json"
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

func TestTruncateStatus(t *testing.T) {
	assert.Equal(t, "short", TruncateStatus("short"))

	exact := strings.Repeat("a", 280)
	assert.Equal(t, exact, TruncateStatus(exact))

	long := strings.Repeat("a", 281)
	got := TruncateStatus(long)
	assert.Len(t, got, 280)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, strings.Repeat("a", 277), got[:277])

	// Multibyte captions count characters, not bytes: 200 runes fit even
	// though they span 400 bytes.
	accented := strings.Repeat("é", 200)
	assert.Equal(t, accented, TruncateStatus(accented))

	got = TruncateStatus(strings.Repeat("é", 300))
	assert.Equal(t, 280, utf8.RuneCountInString(got))
	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, strings.Repeat("é", 277), strings.TrimSuffix(got, "..."))

	snowmen := strings.Repeat("☃", 280)
	assert.Equal(t, snowmen, TruncateStatus(snowmen))
}

func TestTwitterPublishTweetWithMedia(t *testing.T) {
	store := newTestStore(t)

	media := []byte("picture-bytes")
	var uploadAuth, statusAuth string

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/media.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Write(media)
	})
	mux.HandleFunc("/1.1/media/upload.json", func(w http.ResponseWriter, r *http.Request) {
		uploadAuth = r.Header.Get("Authorization")

		require.NoError(t, r.ParseForm())
		decoded, err := base64.StdEncoding.DecodeString(r.PostForm.Get("media_data"))
		require.NoError(t, err)
		assert.Equal(t, media, decoded)

		json.NewEncoder(w).Encode(map[string]string{"media_id_string": "media-77"})
	})
	mux.HandleFunc("/1.1/statuses/update.json", func(w http.ResponseWriter, r *http.Request) {
		statusAuth = r.Header.Get("Authorization")

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "hello world", r.PostForm.Get("status"))
		assert.Equal(t, "media-77", r.PostForm.Get("media_ids"))

		json.NewEncoder(w).Encode(map[string]string{"id_str": "tweet-42"})
	})

	cfg := config.Config{
		TwitterConsumerKey:    "consumer-key",
		TwitterConsumerSecret: "consumer-secret",
	}
	client := NewTwitterClient(cfg, store)
	client.uploadURL = server.URL + "/1.1/media/upload.json"
	client.apiURL = server.URL + "/1.1/statuses/update.json"

	conn := &models.Connection{
		Platform:    models.PlatformTwitter,
		AccessToken: encrypted(t, store, "user-token"),
		Metadata: map[string]string{
			models.MetaTwitterTokenSecret: encrypted(t, store, "user-token-secret"),
		},
	}
	item := &models.MediaItem{FileType: "image/jpeg", FileURL: server.URL + "/media.jpg"}

	tweetID, err := client.PublishVideo(context.Background(), &models.User{}, conn, item, "hello world")
	require.NoError(t, err)

	assert.Equal(t, "tweet-42", tweetID)

	// Both legs are signed separately with the user's token pair.
	for _, header := range []string{uploadAuth, statusAuth} {
		assert.True(t, strings.HasPrefix(header, "OAuth "))
		assert.Contains(t, header, `oauth_consumer_key="consumer-key"`)
		assert.Contains(t, header, `oauth_token="user-token"`)
		assert.Contains(t, header, `oauth_signature="`)
	}
}

func TestTwitterRejectsUnsupportedMedia(t *testing.T) {
	client := NewTwitterClient(config.Config{}, newTestStore(t))

	item := &models.MediaItem{FileType: "application/pdf"}
	_, err := client.PublishVideo(context.Background(), &models.User{}, &models.Connection{}, item, "caption")
	require.Error(t, err)

	code, _ := Classify(err)
	assert.Equal(t, CodeTwitterUnsupportedMedia, code)
}

func TestTwitterUploadErrorClassified(t *testing.T) {
	store := newTestStore(t)

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/media.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("x"))
	})
	mux.HandleFunc("/1.1/media/upload.json", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "media type unrecognized", http.StatusBadRequest)
	})

	client := NewTwitterClient(config.Config{}, store)
	client.uploadURL = server.URL + "/1.1/media/upload.json"

	conn := &models.Connection{
		Platform:    models.PlatformTwitter,
		AccessToken: encrypted(t, store, "user-token"),
		Metadata: map[string]string{
			models.MetaTwitterTokenSecret: encrypted(t, store, "user-token-secret"),
		},
	}
	item := &models.MediaItem{FileType: "image/jpeg", FileURL: server.URL + "/media.jpg"}

	_, err := client.PublishVideo(context.Background(), &models.User{}, conn, item, "caption")
	require.Error(t, err)

	code, _ := Classify(err)
	assert.Equal(t, CodeTwitterMediaUploadFailed, code)
}
