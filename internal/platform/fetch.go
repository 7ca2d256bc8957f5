package platform

import (
	"context"
	"io"
	"net/http"
	"time"
)

// Platform uploads can take minutes for large files; the timeout only guards
// against a hung third-party call wedging one fan-out task forever.
var httpClient = &http.Client{Timeout: 5 * time.Minute}

// fetchMedia pulls the raw bytes of a stored media item. TikTok, X and the
// Business Profile upload protocols need the file content rather than a URL.
func fetchMedia(ctx context.Context, fileURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, Errf(CodeMediaFetchFailed, "fetching media: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, Errf(CodeMediaFetchFailed, "fetching media: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, Errf(CodeMediaFetchFailed, "reading media body: %v", err)
	}

	return data, nil
}

func drainBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, 4096))
	return string(data)
}
