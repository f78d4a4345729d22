package app

import (
	"time"

	"github.com/rndmcnlly/democlips-gallery/internal/platform/envutil"
)

type Config struct {
	Port        string
	MetricsAddr string
	PublicURL   string
	FrontendURL string

	CookieDomain  string
	SecureCookies bool

	TokenSecret  string
	SessionTTL   time.Duration
	UploadKeyTTL time.Duration

	AllowedEmailDomain string
	ModeratorEmails    []string
	CORSOrigins        []string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	StreamAccountID         string
	StreamAPIToken          string
	StreamCustomerSubdomain string
	StreamMaxDurationSecs   int
	StreamUploadExpiry      time.Duration
	StreamUploadOrigins     []string

	Environment string
	Version     string
}

func LoadConfig() Config {
	return Config{
		Port:        envutil.String("PORT", "8080"),
		MetricsAddr: envutil.String("METRICS_ADDR", ":9091"),
		PublicURL:   envutil.String("PUBLIC_URL", ""),
		FrontendURL: envutil.String("FRONTEND_URL", ""),

		CookieDomain:  envutil.String("COOKIE_DOMAIN", ""),
		SecureCookies: envutil.Bool("SECURE_COOKIES", true),

		TokenSecret:  envutil.String("TOKEN_SECRET", ""),
		SessionTTL:   envutil.Duration("SESSION_TTL", 7*24*time.Hour),
		UploadKeyTTL: envutil.Duration("UPLOAD_KEY_TTL", 24*time.Hour),

		AllowedEmailDomain: envutil.String("ALLOWED_EMAIL_DOMAIN", ""),
		ModeratorEmails:    envutil.List("MODERATOR_EMAILS"),
		CORSOrigins:        envutil.List("CORS_ORIGINS"),

		GoogleClientID:     envutil.String("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: envutil.String("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:  envutil.String("GOOGLE_REDIRECT_URL", ""),

		StreamAccountID:         envutil.String("CLOUDFLARE_ACCOUNT_ID", ""),
		StreamAPIToken:          envutil.String("CLOUDFLARE_STREAM_TOKEN", ""),
		StreamCustomerSubdomain: envutil.String("CLOUDFLARE_STREAM_SUBDOMAIN", ""),
		StreamMaxDurationSecs:   envutil.Int("STREAM_MAX_DURATION_SECONDS", 0),
		StreamUploadExpiry:      envutil.Duration("STREAM_UPLOAD_EXPIRY", 0),
		StreamUploadOrigins:     envutil.List("STREAM_UPLOAD_ORIGINS"),

		Environment: envutil.String("APP_ENV", "development"),
		Version:     envutil.String("APP_VERSION", ""),
	}
}
