package config

import "os"

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type Config struct {
	InstagramClientID      string
	InstagramClientSecret  string
	InstagramRedirectURI   string
	TiktokClientKey        string
	TiktokClientSecret     string
	TiktokRedirectURI      string
	GoogleClientID         string
	GoogleClientSecret     string
	GoogleRedirectURI      string
	GoogleLoginRedirectURI string
	FacebookAppID          string
	FacebookAppSecret      string
	FacebookRedirectURI    string
	TwitterConsumerKey     string
	TwitterConsumerSecret  string
	TwitterRedirectURI     string
	LinkedinClientID       string
	LinkedinClientSecret   string
	LinkedinRedirectURI    string
	PostgresURI            string
	RedisURI               string
	FrontendURL            string
	R2                     R2
	SecretKey              string
	CookieName             string
}

func LoadConfig() *Config {
	return &Config{
		InstagramClientID:      getEnv("INSTAGRAM_CLIENT_ID", ""),
		InstagramClientSecret:  getEnv("INSTAGRAM_CLIENT_SECRET", ""),
		InstagramRedirectURI:   getEnv("INSTAGRAM_REDIRECT_URI", ""),
		TiktokClientKey:        getEnv("TIKTOK_CLIENT_KEY", ""),
		TiktokClientSecret:     getEnv("TIKTOK_CLIENT_SECRET", ""),
		TiktokRedirectURI:      getEnv("TIKTOK_REDIRECT_URI", ""),
		GoogleClientID:         getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:     getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:      getEnv("GOOGLE_REDIRECT_URI", ""),
		GoogleLoginRedirectURI: getEnv("GOOGLE_LOGIN_REDIRECT_URI", "http://localhost:3000/login/callback"),
		FacebookAppID:          getEnv("FACEBOOK_APP_ID", ""),
		FacebookAppSecret:      getEnv("FACEBOOK_APP_SECRET", ""),
		FacebookRedirectURI:    getEnv("FACEBOOK_REDIRECT_URI", ""),
		TwitterConsumerKey:     getEnv("TWITTER_CONSUMER_KEY", ""),
		TwitterConsumerSecret:  getEnv("TWITTER_CONSUMER_SECRET", ""),
		TwitterRedirectURI:     getEnv("TWITTER_REDIRECT_URI", ""),
		LinkedinClientID:       getEnv("LINKEDIN_CLIENT_ID", ""),
		LinkedinClientSecret:   getEnv("LINKEDIN_CLIENT_SECRET", ""),
		LinkedinRedirectURI:    getEnv("LINKEDIN_REDIRECT_URI", ""),
		PostgresURI:            getEnv("POSTGRES_URI", ""),
		RedisURI:               getEnv("REDIS_URI", ""),
		FrontendURL:            getEnv("FRONTEND_URL", "http://localhost:5173"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		SecretKey:  getEnv("SECRET_KEY", ""),
		CookieName: getEnv("COOKIE_NAME", "crosspost_session"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
