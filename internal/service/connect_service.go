package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/internal/models"
	"github.com/maheshrc27/crosspost/internal/platform"
	"github.com/maheshrc27/crosspost/internal/repository"
	"github.com/maheshrc27/crosspost/internal/tokens"
	"github.com/maheshrc27/crosspost/internal/transfer"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const (
	TIKTOK_AUTH_URL    = "https://www.tiktok.com/v2/auth/authorize"
	GOOGLE_AUTH_URL    = "https://accounts.google.com/o/oauth2/v2/auth"
	INSTAGRAM_AUTH_URL = "https://www.instagram.com/oauth/authorize"
	FACEBOOK_AUTH_URL  = "https://www.facebook.com/v21.0/dialog/oauth"
	LINKEDIN_AUTH_URL  = "https://www.linkedin.com/oauth/v2/authorization"

	twitterRequestTokenURL = "https://api.twitter.com/oauth/request_token"
	twitterAuthenticateURL = "https://api.twitter.com/oauth/authenticate"
	twitterAccessTokenURL  = "https://api.twitter.com/oauth/access_token"
)

type ConnectService interface {
	GetAuthURL(ctx context.Context, platform, state string) (string, error)
	Callback(ctx context.Context, platform string, userID int64, query url.Values) error
	List(ctx context.Context, userID int64) ([]*models.Connection, error)
	Delete(ctx context.Context, userID, connectionID int64) error
}

type connectService struct {
	cfg config.Config
	cr  repository.ConnectionRepository
	ts  *tokens.Store

	// Twitter request-token secrets live here between the redirect and the
	// callback; the access-token request has to be signed with them. A user
	// who abandons the flow never triggers the callback, so entries expire
	// after requestSecretTTL and get swept on the next insert.
	mu             sync.Mutex
	requestSecrets map[string]requestSecret
}

// requestSecretTTL matches the signed-state lifetime; a callback arriving
// later than this fails state verification anyway.
const requestSecretTTL = 10 * time.Minute

type requestSecret struct {
	secret  string
	created time.Time
}

func NewConnectService(cfg config.Config, cr repository.ConnectionRepository, ts *tokens.Store) ConnectService {
	return &connectService{
		cfg:            cfg,
		cr:             cr,
		ts:             ts,
		requestSecrets: make(map[string]requestSecret),
	}
}

func (s *connectService) storeRequestSecret(token, secret string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-requestSecretTTL)
	for key, entry := range s.requestSecrets {
		if entry.created.Before(cutoff) {
			delete(s.requestSecrets, key)
		}
	}

	s.requestSecrets[token] = requestSecret{secret: secret, created: time.Now()}
}

// takeRequestSecret consumes the stored secret for one request token. Unknown
// and expired tokens return the empty string; the access-token request then
// fails its signature check upstream.
func (s *connectService) takeRequestSecret(token string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.requestSecrets[token]
	delete(s.requestSecrets, token)
	if !ok || entry.created.Before(time.Now().Add(-requestSecretTTL)) {
		return ""
	}

	return entry.secret
}

func (s *connectService) GetAuthURL(ctx context.Context, platformTag, state string) (string, error) {
	switch platformTag {

	case models.PlatformTiktok:
		params := url.Values{}
		params.Add("client_key", s.cfg.TiktokClientKey)
		params.Add("scope", "user.info.basic,user.info.profile,video.publish,video.upload")
		params.Add("response_type", "code")
		params.Add("redirect_uri", s.cfg.TiktokRedirectURI)
		params.Add("state", state)
		return fmt.Sprintf("%s?%s", TIKTOK_AUTH_URL, params.Encode()), nil

	case models.PlatformInstagram:
		params := url.Values{}
		params.Add("client_id", s.cfg.InstagramClientID)
		params.Add("scope", "instagram_business_basic,instagram_business_content_publish")
		params.Add("response_type", "code")
		params.Add("redirect_uri", s.cfg.InstagramRedirectURI)
		params.Add("state", state)
		return fmt.Sprintf("%s?%s", INSTAGRAM_AUTH_URL, params.Encode()), nil

	case models.PlatformYoutube:
		params := url.Values{}
		params.Add("client_id", s.cfg.GoogleClientID)
		params.Add("redirect_uri", s.cfg.GoogleRedirectURI)
		params.Add("response_type", "code")
		params.Add("scope", "https://www.googleapis.com/auth/userinfo.profile https://www.googleapis.com/auth/userinfo.email https://www.googleapis.com/auth/youtube.upload")
		params.Add("state", state)
		params.Add("access_type", "offline")
		params.Add("prompt", "consent")
		return fmt.Sprintf("%s?%s", GOOGLE_AUTH_URL, params.Encode()), nil

	case models.PlatformGoogleBusiness:
		params := url.Values{}
		params.Add("client_id", s.cfg.GoogleClientID)
		params.Add("redirect_uri", s.cfg.GoogleRedirectURI)
		params.Add("response_type", "code")
		params.Add("scope", "https://www.googleapis.com/auth/userinfo.profile https://www.googleapis.com/auth/userinfo.email https://www.googleapis.com/auth/business.manage")
		params.Add("state", state)
		params.Add("access_type", "offline")
		params.Add("prompt", "consent")
		return fmt.Sprintf("%s?%s", GOOGLE_AUTH_URL, params.Encode()), nil

	case models.PlatformFacebookPage:
		params := url.Values{}
		params.Add("client_id", s.cfg.FacebookAppID)
		params.Add("redirect_uri", s.cfg.FacebookRedirectURI)
		params.Add("response_type", "code")
		params.Add("scope", "pages_show_list,pages_manage_posts,pages_read_engagement")
		params.Add("state", state)
		return fmt.Sprintf("%s?%s", FACEBOOK_AUTH_URL, params.Encode()), nil

	case models.PlatformLinkedin:
		params := url.Values{}
		params.Add("client_id", s.cfg.LinkedinClientID)
		params.Add("redirect_uri", s.cfg.LinkedinRedirectURI)
		params.Add("response_type", "code")
		params.Add("scope", "openid profile email w_member_social w_organization_social rw_organization_admin")
		params.Add("state", state)
		return fmt.Sprintf("%s?%s", LINKEDIN_AUTH_URL, params.Encode()), nil

	case models.PlatformTwitter:
		return s.twitterAuthURL(ctx, state)

	default:
		return "", fmt.Errorf("unknown platform %s", platformTag)
	}
}

// twitterAuthURL runs the OAuth 1.0a request-token leg. Twitter does not echo
// a state parameter, so the signed state rides along in the callback URL.
func (s *connectService) twitterAuthURL(ctx context.Context, state string) (string, error) {
	callback := fmt.Sprintf("%s?state=%s", s.cfg.TwitterRedirectURI, url.QueryEscape(state))

	params := url.Values{}
	params.Set("oauth_callback", callback)

	signer := &platform.OAuth1{
		ConsumerKey:    s.cfg.TwitterConsumerKey,
		ConsumerSecret: s.cfg.TwitterConsumerSecret,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, twitterRequestTokenURL, strings.NewReader(params.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", signer.AuthHeader(http.MethodPost, twitterRequestTokenURL, params, "", ""))

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		slog.Info("twitter request token endpoint returned non-200 status")
		return "", fmt.Errorf("twitter request token returned %d: %s", resp.StatusCode, body)
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return "", err
	}

	requestToken := values.Get("oauth_token")
	if requestToken == "" {
		return "", errors.New("no oauth_token in twitter response")
	}

	s.storeRequestSecret(requestToken, values.Get("oauth_token_secret"))

	return fmt.Sprintf("%s?oauth_token=%s", twitterAuthenticateURL, url.QueryEscape(requestToken)), nil
}

func (s *connectService) Callback(ctx context.Context, platformTag string, userID int64, query url.Values) error {
	switch platformTag {
	case models.PlatformTiktok:
		return s.tiktokCallback(ctx, userID, query.Get("code"))
	case models.PlatformInstagram:
		return s.instagramCallback(ctx, userID, query.Get("code"))
	case models.PlatformYoutube:
		return s.googleCallback(ctx, userID, query.Get("code"), models.PlatformYoutube)
	case models.PlatformGoogleBusiness:
		return s.googleCallback(ctx, userID, query.Get("code"), models.PlatformGoogleBusiness)
	case models.PlatformFacebookPage:
		return s.facebookCallback(ctx, userID, query.Get("code"))
	case models.PlatformLinkedin:
		return s.linkedinCallback(ctx, userID, query.Get("code"))
	case models.PlatformTwitter:
		return s.twitterCallback(ctx, userID, query.Get("oauth_token"), query.Get("oauth_verifier"))
	default:
		return fmt.Errorf("unknown platform %s", platformTag)
	}
}

func (s *connectService) tiktokCallback(ctx context.Context, userID int64, code string) error {
	if code == "" {
		err := errors.New("code is empty")
		slog.Info(err.Error())
		return err
	}

	data := url.Values{}
	data.Add("client_key", s.cfg.TiktokClientKey)
	data.Add("client_secret", s.cfg.TiktokClientSecret)
	data.Add("code", code)
	data.Add("grant_type", "authorization_code")
	data.Add("redirect_uri", s.cfg.TiktokRedirectURI)

	var tokenResponse transfer.TiktokTokenResponse
	if err := postForm(ctx, "https://open.tiktokapis.com/v2/oauth/token/", data, &tokenResponse); err != nil {
		return err
	}

	userInfo, err := s.tiktokUserInfo(ctx, tokenResponse.AccessToken)
	if err != nil {
		return err
	}

	return s.saveConnection(ctx, &models.Connection{
		UserID:         userID,
		Platform:       models.PlatformTiktok,
		AccountID:      userInfo.Data.User.OpenID,
		AccountName:    userInfo.Data.User.DisplayName,
		AccessToken:    tokenResponse.AccessToken,
		RefreshToken:   tokenResponse.RefreshToken,
		TokenExpiresAt: GetExpiresAt(tokenResponse.ExpiresIn),
		Metadata: map[string]string{
			models.MetaUsername: userInfo.Data.User.Username,
		},
	})
}

func (s *connectService) tiktokUserInfo(ctx context.Context, accessToken string) (*transfer.TiktokUserResponse, error) {
	reqURL := "https://open.tiktokapis.com/v2/user/info/?fields=open_id,avatar_url,display_name,username"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json; charset=UTF-8")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	var result transfer.TiktokUserResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &result, nil
}

func (s *connectService) instagramCallback(ctx context.Context, userID int64, code string) error {
	if code == "" {
		err := errors.New("code is empty")
		slog.Info(err.Error())
		return err
	}

	data := url.Values{}
	data.Add("client_id", s.cfg.InstagramClientID)
	data.Add("client_secret", s.cfg.InstagramClientSecret)
	data.Add("grant_type", "authorization_code")
	data.Add("redirect_uri", s.cfg.InstagramRedirectURI)
	data.Add("code", code)

	var short transfer.InstagramTokenResponse
	if err := postForm(ctx, "https://api.instagram.com/oauth/access_token", data, &short); err != nil {
		return err
	}

	exchangeURL := fmt.Sprintf("https://graph.instagram.com/access_token?grant_type=ig_exchange_token&client_secret=%s&access_token=%s",
		url.QueryEscape(s.cfg.InstagramClientSecret), url.QueryEscape(short.AccessToken))

	var long transfer.InstagramLongLivedToken
	if err := getJSON(ctx, exchangeURL, &long); err != nil {
		return err
	}

	infoURL := fmt.Sprintf("https://graph.instagram.com/me?fields=id,username,name,profile_picture_url&access_token=%s",
		url.QueryEscape(long.AccessToken))

	var userInfo transfer.InstagramUserInfo
	if err := getJSON(ctx, infoURL, &userInfo); err != nil {
		return err
	}

	accountName := userInfo.Name
	if accountName == "" {
		accountName = userInfo.Username
	}

	return s.saveConnection(ctx, &models.Connection{
		UserID:         userID,
		Platform:       models.PlatformInstagram,
		AccountID:      userInfo.UserID,
		AccountName:    accountName,
		AccessToken:    long.AccessToken,
		TokenExpiresAt: GetExpiresAt(long.ExpiresIn),
		Metadata: map[string]string{
			models.MetaUsername: userInfo.Username,
		},
	})
}

// googleCallback serves both YouTube and Business Profile connections; the
// two differ only in the scopes requested up front.
func (s *connectService) googleCallback(ctx context.Context, userID int64, code, platformTag string) error {
	if code == "" {
		err := errors.New("code is empty")
		slog.Info(err.Error())
		return err
	}

	oauth2Config := &oauth2.Config{
		ClientID:     s.cfg.GoogleClientID,
		ClientSecret: s.cfg.GoogleClientSecret,
		RedirectURL:  s.cfg.GoogleRedirectURI,
		Endpoint:     google.Endpoint,
	}

	token, err := oauth2Config.Exchange(ctx, code)
	if err != nil {
		slog.Info(err.Error())
		return err
	}

	userInfo, err := GetGoogleUserInfo(oauth2Config.Client(ctx, token))
	if err != nil {
		return err
	}

	return s.saveConnection(ctx, &models.Connection{
		UserID:         userID,
		Platform:       platformTag,
		AccountID:      userInfo.ID,
		AccountName:    userInfo.Name,
		AccessToken:    token.AccessToken,
		RefreshToken:   token.RefreshToken,
		TokenExpiresAt: token.Expiry,
	})
}

func (s *connectService) facebookCallback(ctx context.Context, userID int64, code string) error {
	if code == "" {
		err := errors.New("code is empty")
		slog.Info(err.Error())
		return err
	}

	tokenURL := fmt.Sprintf("https://graph.facebook.com/v21.0/oauth/access_token?client_id=%s&redirect_uri=%s&client_secret=%s&code=%s",
		url.QueryEscape(s.cfg.FacebookAppID), url.QueryEscape(s.cfg.FacebookRedirectURI),
		url.QueryEscape(s.cfg.FacebookAppSecret), url.QueryEscape(code))

	var userToken transfer.FacebookTokenResponse
	if err := getJSON(ctx, tokenURL, &userToken); err != nil {
		return err
	}

	pagesURL := fmt.Sprintf("https://graph.facebook.com/v21.0/me/accounts?access_token=%s",
		url.QueryEscape(userToken.AccessToken))

	var pages transfer.FacebookPagesResponse
	if err := getJSON(ctx, pagesURL, &pages); err != nil {
		return err
	}

	if len(pages.Data) == 0 {
		err := errors.New("no facebook pages available for this account")
		slog.Info(err.Error())
		return err
	}

	// One connection per user and platform, so the first page wins.
	page := pages.Data[0]

	return s.saveConnection(ctx, &models.Connection{
		UserID:      userID,
		Platform:    models.PlatformFacebookPage,
		AccountID:   page.ID,
		AccountName: page.Name,
		AccessToken: page.AccessToken,
		Metadata: map[string]string{
			models.MetaFacebookPageName: page.Name,
		},
	})
}

func (s *connectService) linkedinCallback(ctx context.Context, userID int64, code string) error {
	if code == "" {
		err := errors.New("code is empty")
		slog.Info(err.Error())
		return err
	}

	data := url.Values{}
	data.Add("grant_type", "authorization_code")
	data.Add("code", code)
	data.Add("client_id", s.cfg.LinkedinClientID)
	data.Add("client_secret", s.cfg.LinkedinClientSecret)
	data.Add("redirect_uri", s.cfg.LinkedinRedirectURI)

	var tokenResponse transfer.LinkedinTokenResponse
	if err := postForm(ctx, "https://www.linkedin.com/oauth/v2/accessToken", data, &tokenResponse); err != nil {
		return err
	}

	var userInfo transfer.LinkedinUserInfo
	if err := getJSONWithBearer(ctx, "https://api.linkedin.com/v2/userinfo", tokenResponse.AccessToken, &userInfo); err != nil {
		return err
	}

	metadata := map[string]string{}
	var acls transfer.LinkedinOrganizationAcls
	aclURL := "https://api.linkedin.com/v2/organizationAcls?q=roleAssignee&role=ADMINISTRATOR&state=APPROVED"
	if err := getJSONWithBearer(ctx, aclURL, tokenResponse.AccessToken, &acls); err != nil {
		slog.Info("listing linkedin organizations failed", "error", err.Error())
	} else if len(acls.Elements) > 0 {
		orgs := make([]string, 0, len(acls.Elements))
		for _, acl := range acls.Elements {
			orgs = append(orgs, acl.Organization)
		}
		metadata[models.MetaLinkedinOrgs] = strings.Join(orgs, ",")
	}

	return s.saveConnection(ctx, &models.Connection{
		UserID:         userID,
		Platform:       models.PlatformLinkedin,
		AccountID:      userInfo.Sub,
		AccountName:    userInfo.Name,
		AccessToken:    tokenResponse.AccessToken,
		RefreshToken:   tokenResponse.RefreshToken,
		TokenExpiresAt: GetExpiresAt(tokenResponse.ExpiresIn),
		Metadata:       metadata,
	})
}

func (s *connectService) twitterCallback(ctx context.Context, userID int64, oauthToken, oauthVerifier string) error {
	if oauthToken == "" || oauthVerifier == "" {
		err := errors.New("oauth_token or oauth_verifier is empty")
		slog.Info(err.Error())
		return err
	}

	signingSecret := s.takeRequestSecret(oauthToken)

	params := url.Values{}
	params.Set("oauth_verifier", oauthVerifier)

	signer := &platform.OAuth1{
		ConsumerKey:    s.cfg.TwitterConsumerKey,
		ConsumerSecret: s.cfg.TwitterConsumerSecret,
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, twitterAccessTokenURL, strings.NewReader(params.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", signer.AuthHeader(http.MethodPost, twitterAccessTokenURL, params, oauthToken, signingSecret))

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		slog.Info("twitter access token endpoint returned non-200 status")
		return fmt.Errorf("twitter access token returned %d: %s", resp.StatusCode, body)
	}

	values, err := url.ParseQuery(string(body))
	if err != nil {
		return err
	}

	accessToken := values.Get("oauth_token")
	tokenSecret := values.Get("oauth_token_secret")
	if accessToken == "" || tokenSecret == "" {
		return errors.New("incomplete twitter access token response")
	}

	encryptedSecret, err := s.ts.Encrypt(tokenSecret)
	if err != nil {
		return err
	}

	return s.saveConnection(ctx, &models.Connection{
		UserID:      userID,
		Platform:    models.PlatformTwitter,
		AccountID:   values.Get("user_id"),
		AccountName: values.Get("screen_name"),
		AccessToken: accessToken,
		Metadata: map[string]string{
			models.MetaTwitterTokenSecret: encryptedSecret,
			models.MetaUsername:           values.Get("screen_name"),
		},
	})
}

// saveConnection encrypts the plaintext credentials and upserts the row. A
// reconnect for the same user and platform replaces tokens in place.
func (s *connectService) saveConnection(ctx context.Context, conn *models.Connection) error {
	encryptedAccess, err := s.ts.Encrypt(conn.AccessToken)
	if err != nil {
		return err
	}
	conn.AccessToken = encryptedAccess

	if conn.RefreshToken != "" {
		encryptedRefresh, err := s.ts.Encrypt(conn.RefreshToken)
		if err != nil {
			return err
		}
		conn.RefreshToken = encryptedRefresh
	}

	_, err = s.cr.Upsert(ctx, nil, conn)
	return err
}

func (s *connectService) List(ctx context.Context, userID int64) ([]*models.Connection, error) {
	var err error

	if userID == 0 {
		err = errors.New("UserID is not valid")
		slog.Info(err.Error())
		return nil, err
	}

	connections, err := s.cr.ListInfoByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("Error getting connections")
	}

	return connections, nil
}

func (s *connectService) Delete(ctx context.Context, userID, connectionID int64) error {
	var err error

	if userID == 0 {
		err = errors.New("UserID is not valid")
		slog.Info(err.Error())
		return err
	}

	if connectionID == 0 {
		err = errors.New("ConnectionID is not valid")
		slog.Info(err.Error())
		return err
	}

	isValid, err := s.cr.CheckByUserID(ctx, connectionID, userID)
	if err != nil {
		return err
	}

	if !isValid {
		err = errors.New("Connection doesn't exist")
		slog.Info(err.Error())
		return err
	}

	conn, err := s.cr.GetByID(ctx, connectionID)
	if err != nil || conn == nil {
		return fmt.Errorf("Unable to get connection info")
	}

	decryptedAccessToken, err := s.ts.Decrypt(conn.AccessToken)
	if err != nil {
		return err
	}

	switch conn.Platform {
	case models.PlatformTiktok:
		err = RevokeTiktokAccess(ctx, conn.AccountID, decryptedAccessToken)
		if err != nil {
			slog.Info(err.Error())
			return fmt.Errorf("Unable to revoke access")
		}
	case models.PlatformYoutube, models.PlatformGoogleBusiness:
		err = RevokeGoogleAccess(ctx, decryptedAccessToken)
		if err != nil {
			slog.Info(err.Error())
			return fmt.Errorf("Unable to revoke access")
		}
	}

	err = s.cr.Remove(ctx, connectionID)
	if err != nil {
		return fmt.Errorf("Error removing connection")
	}

	return nil
}

func RevokeTiktokAccess(ctx context.Context, openID, accessToken string) error {
	params := url.Values{}
	params.Add("open_id", openID)
	params.Add("access_token", accessToken)

	var result transfer.TiktokRevokeData
	if err := postForm(ctx, "https://open-api.tiktok.com/oauth/revoke/", params, &result); err != nil {
		return err
	}

	if result.ErrorCode != 0 {
		return fmt.Errorf("failed to revoke token: %s", result.Description)
	}
	return nil
}

func RevokeGoogleAccess(ctx context.Context, accessToken string) error {
	params := url.Values{}
	params.Add("token", accessToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://oauth2.googleapis.com/revoke", strings.NewReader(params.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("google revoke returned %d: %s", resp.StatusCode, body)
	}
	return nil
}

func GetGoogleUserInfo(client *http.Client) (*transfer.GoogleUserInfo, error) {
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("userinfo returned %d: %s", resp.StatusCode, body)
	}

	var userInfo transfer.GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&userInfo); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &userInfo, nil
}

func postForm(ctx context.Context, reqURL string, data url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, strings.NewReader(data.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		slog.Info("token endpoint returned non-200 status")
		return fmt.Errorf("%s returned %d: %s", reqURL, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		slog.Info(err.Error())
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func getJSON(ctx context.Context, reqURL string, out interface{}) error {
	return getJSONWithBearer(ctx, reqURL, "", out)
}

func getJSONWithBearer(ctx context.Context, reqURL, bearer string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s returned %d: %s", reqURL, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		slog.Info(err.Error())
		return err
	}
	return nil
}
