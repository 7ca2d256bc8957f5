package models

import "time"

// Supported platform tags. A connection's Platform column always holds one
// of these values; the publish registry is keyed by them.
const (
	PlatformTiktok         = "tiktok"
	PlatformYoutube        = "youtube"
	PlatformTwitter        = "twitter"
	PlatformLinkedin       = "linkedin"
	PlatformInstagram      = "instagram"
	PlatformFacebookPage   = "facebook_page"
	PlatformGoogleBusiness = "google_business"
)

func IsValidPlatform(platform string) bool {
	switch platform {
	case PlatformTiktok, PlatformYoutube, PlatformTwitter, PlatformLinkedin,
		PlatformInstagram, PlatformFacebookPage, PlatformGoogleBusiness:
		return true
	default:
		return false
	}
}

// Connection links one user to one external account. Unique on
// (user_id, platform); reconnecting upserts tokens and metadata in place.
type Connection struct {
	ID           int64             `db:"id" json:"id"`
	UserID       int64             `db:"user_id" json:"user_id"`
	Platform     string            `db:"platform" json:"platform"`
	AccountID    string            `db:"account_id" json:"account_id"`
	AccountName  string            `db:"account_name" json:"account_name"`
	AccessToken  string            `db:"access_token" json:"-"`
	RefreshToken string            `db:"refresh_token" json:"-"`
	// Zero value means the token is treated as non-expiring.
	TokenExpiresAt time.Time         `db:"token_expires_at" json:"token_expires_at"`
	Metadata       map[string]string `db:"metadata" json:"metadata"`
	CreatedAt      time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time         `db:"updated_at" json:"updated_at"`
}

// Metadata keys used by the platform clients.
const (
	MetaTwitterTokenSecret = "oauth_token_secret"
	MetaFacebookPageName   = "page_name"
	MetaGBPLocationName    = "location_name"
	MetaGBPStoreCode       = "store_code"
	MetaLinkedinOrgs       = "organizations"
	MetaUsername           = "username"
)
