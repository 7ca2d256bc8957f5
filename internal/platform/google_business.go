package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/repository"
	"github.com/maheshrc27/crosspost/internal/tokens"
	"golang.org/x/oauth2"
	"google.golang.org/api/mybusinessaccountmanagement/v1"
	"google.golang.org/api/mybusinessbusinessinformation/v1"
	"google.golang.org/api/option"
)

const (
	CodeGBPLocationNotConfigured = "GBP_LOCATION_NOT_CONFIGURED"
	CodeGBPStoreCodeNotFound     = "GBP_STORE_CODE_NOT_FOUND"
	CodeGBPStoreCodeNotUnique    = "GBP_STORE_CODE_NOT_UNIQUE"
	CodeGBPLocationListFailed    = "GBP_LOCATION_LIST_FAILED"
	CodeGBPUploadFailed          = "GBP_UPLOAD_FAILED"
	CodeGBPMediaCreateFailed     = "GBP_MEDIA_CREATE_FAILED"
)

// GoogleBusinessClient publishes a media item to a Business Profile
// location. The location comes from connection metadata: either a full
// "accounts/{a}/locations/{l}" resource name, or a store code that has to be
// resolved by walking every account's locations and matching exactly one.
// Publishing itself is the three-step v4 media protocol: start-upload for a
// data ref, raw-byte upload against that ref, then media creation.
type GoogleBusinessClient struct {
	cfg         config.Config
	tokens      *tokens.Store
	connections repository.ConnectionRepository
	apiURL      string
	uploadURL   string
}

func NewGoogleBusinessClient(cfg config.Config, ts *tokens.Store, connections repository.ConnectionRepository) *GoogleBusinessClient {
	return &GoogleBusinessClient{
		cfg:         cfg,
		tokens:      ts,
		connections: connections,
		apiURL:      "https://mybusiness.googleapis.com/v4",
		uploadURL:   "https://mybusiness.googleapis.com/upload/v1/media",
	}
}

func (c *GoogleBusinessClient) Platform() string { return models.PlatformGoogleBusiness }

func (c *GoogleBusinessClient) PublishVideo(ctx context.Context, user *models.User, conn *models.Connection, item *models.MediaItem, caption string) (string, error) {
	if item.IsVideo() {
		// Unusual for a Business Profile but the API accepts it.
		slog.Info("publishing video media to google business profile", "media_item", item.ID)
	}

	accessToken, err := c.tokens.AccessToken(ctx, conn)
	if err != nil {
		return "", Errf(CodeTokenRefreshFailed, "google business token: %v", err)
	}

	location, err := c.resolveLocation(ctx, conn, accessToken)
	if err != nil {
		return "", err
	}

	media, err := fetchMedia(ctx, item.FileURL)
	if err != nil {
		return "", err
	}

	dataRef, err := c.startUpload(ctx, accessToken, location)
	if err != nil {
		return "", err
	}

	if err := c.uploadBytes(ctx, accessToken, dataRef, media); err != nil {
		return "", err
	}

	return c.createMedia(ctx, accessToken, location, dataRef, item.IsVideo())
}

// resolveLocation returns the full location resource name for this
// connection. A resolved store code is written back to metadata so the
// listing walk happens once per connection, not once per publish.
func (c *GoogleBusinessClient) resolveLocation(ctx context.Context, conn *models.Connection, accessToken string) (string, error) {
	if name := conn.Metadata[models.MetaGBPLocationName]; name != "" {
		return name, nil
	}

	storeCode := conn.Metadata[models.MetaGBPStoreCode]
	if storeCode == "" {
		return "", Errf(CodeGBPLocationNotConfigured, "connection %d has neither a location name nor a store code", conn.ID)
	}

	name, err := c.lookupStoreCode(ctx, accessToken, storeCode)
	if err != nil {
		return "", err
	}

	metadata := map[string]string{}
	for k, v := range conn.Metadata {
		metadata[k] = v
	}
	metadata[models.MetaGBPLocationName] = name
	if err := c.connections.SetMetadata(ctx, conn.ID, metadata); err != nil {
		slog.Info("caching resolved location failed", "error", err.Error())
	}
	conn.Metadata = metadata

	return name, nil
}

func (c *GoogleBusinessClient) lookupStoreCode(ctx context.Context, accessToken, storeCode string) (string, error) {
	tokenSource := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})

	accountsSvc, err := mybusinessaccountmanagement.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return "", Errf(CodeGBPLocationListFailed, "creating accounts service: %v", err)
	}
	locationsSvc, err := mybusinessbusinessinformation.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return "", Errf(CodeGBPLocationListFailed, "creating locations service: %v", err)
	}

	var matches []string

	accountsCall := accountsSvc.Accounts.List()
	err = accountsCall.Pages(ctx, func(page *mybusinessaccountmanagement.ListAccountsResponse) error {
		for _, account := range page.Accounts {
			locationsCall := locationsSvc.Accounts.Locations.List(account.Name).ReadMask("name,storeCode")
			err := locationsCall.Pages(ctx, func(locations *mybusinessbusinessinformation.ListLocationsResponse) error {
				for _, location := range locations.Locations {
					if location.StoreCode == storeCode {
						// The v4 media endpoints want the account-qualified name.
						matches = append(matches, account.Name+"/"+location.Name)
					}
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", Errf(CodeGBPLocationListFailed, "listing locations: %v", err)
	}

	switch len(matches) {
	case 0:
		return "", Errf(CodeGBPStoreCodeNotFound, "no location with store code %q", storeCode)
	case 1:
		return matches[0], nil
	default:
		return "", Errf(CodeGBPStoreCodeNotUnique, "store code %q matches %d locations", storeCode, len(matches))
	}
}

func (c *GoogleBusinessClient) startUpload(ctx context.Context, accessToken, location string) (string, error) {
	reqURL := fmt.Sprintf("%s/%s/media:startUpload", c.apiURL, location)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader("{}"))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", Errf(CodeGBPUploadFailed, "start upload request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", Errf(CodeGBPUploadFailed, "start upload returned %d: %s", resp.StatusCode, drainBody(resp.Body))
	}

	var result struct {
		ResourceName string `json:"resourceName"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", Errf(CodeGBPUploadFailed, "decoding start upload response: %v", err)
	}
	if result.ResourceName == "" {
		return "", Errf(CodeGBPUploadFailed, "no data ref in start upload response")
	}

	return result.ResourceName, nil
}

func (c *GoogleBusinessClient) uploadBytes(ctx context.Context, accessToken, dataRef string, media []byte) error {
	reqURL := fmt.Sprintf("%s/%s?upload_type=media", c.uploadURL, dataRef)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(media))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/octet-stream")
	req.ContentLength = int64(len(media))

	resp, err := httpClient.Do(req)
	if err != nil {
		return Errf(CodeGBPUploadFailed, "byte upload request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Errf(CodeGBPUploadFailed, "byte upload returned %d: %s", resp.StatusCode, drainBody(resp.Body))
	}

	return nil
}

func (c *GoogleBusinessClient) createMedia(ctx context.Context, accessToken, location, dataRef string, isVideo bool) (string, error) {
	mediaFormat := "PHOTO"
	if isVideo {
		mediaFormat = "VIDEO"
	}

	payload := map[string]interface{}{
		"mediaFormat": mediaFormat,
		"locationAssociation": map[string]string{
			"category": "ADDITIONAL",
		},
		"dataRef": map[string]string{
			"resourceName": dataRef,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	reqURL := fmt.Sprintf("%s/%s/media", c.apiURL, location)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", Errf(CodeGBPMediaCreateFailed, "media create request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", Errf(CodeGBPMediaCreateFailed, "media create returned %d: %s", resp.StatusCode, drainBody(resp.Body))
	}

	var result struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", Errf(CodeGBPMediaCreateFailed, "decoding media create response: %v", err)
	}
	if result.Name == "" {
		return "", Errf(CodeGBPMediaCreateFailed, "no media name in create response")
	}

	return result.Name, nil
}
