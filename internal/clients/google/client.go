package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/rndmcnlly/democlips-gallery/internal/platform/logger"
)

const defaultUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// Client wraps the Google OAuth code flow: build the consent URL, exchange
// the callback code, fetch the userinfo profile.
type Client interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Profile, error)
}

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	// HostedDomain pre-selects the org account chooser. It is a UI hint
	// only; enforcement happens after the exchange.
	HostedDomain string
	// Endpoint and UserInfoURL are overridable for tests.
	Endpoint    oauth2.Endpoint
	UserInfoURL string
	Timeout     time.Duration
}

// Profile is the OpenID userinfo payload we care about.
type Profile struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
	HostedDomain  string `json:"hd"`
}

type client struct {
	log   *logger.Logger
	cfg   Config
	oauth *oauth2.Config
	http  *http.Client
}

func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, fmt.Errorf("missing Google OAuth client credentials")
	}
	if strings.TrimSpace(cfg.RedirectURL) == "" {
		return nil, fmt.Errorf("missing Google OAuth redirect URL")
	}
	if cfg.Endpoint.AuthURL == "" {
		cfg.Endpoint = google.Endpoint
	}
	if strings.TrimSpace(cfg.UserInfoURL) == "" {
		cfg.UserInfoURL = defaultUserInfoURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &client{
		log: log.With("client", "GoogleClient"),
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     cfg.Endpoint,
		},
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (c *client) AuthCodeURL(state string) string {
	opts := []oauth2.AuthCodeOption{}
	if c.cfg.HostedDomain != "" {
		opts = append(opts, oauth2.SetAuthURLParam("hd", c.cfg.HostedDomain))
	}
	return c.oauth.AuthCodeURL(state, opts...)
}

func (c *client) Exchange(ctx context.Context, code string) (*Profile, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("code required")
	}

	ctx = context.WithValue(defaultCtx(ctx), oauth2.HTTPClient, c.http)
	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google code exchange: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", c.cfg.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("google userinfo http %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("google userinfo decode: %w", err)
	}
	if strings.TrimSpace(p.Sub) == "" {
		return nil, fmt.Errorf("google userinfo returned no subject")
	}
	return &p, nil
}

func defaultCtx(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
