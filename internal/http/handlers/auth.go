package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rndmcnlly/democlips-gallery/internal/http/middleware"
	"github.com/rndmcnlly/democlips-gallery/internal/http/response"
	"github.com/rndmcnlly/democlips-gallery/internal/platform/logger"
	"github.com/rndmcnlly/democlips-gallery/internal/services"
)

// stateCookie carries the OAuth anti-forgery nonce between the redirect to
// Google and the callback. Short-lived and single-purpose.
const stateCookie = "oauth_state"

type AuthWebConfig struct {
	// FrontendURL is where the browser lands after a successful login.
	// Empty falls back to "/".
	FrontendURL string
	// CookieDomain scopes the session cookie. Empty means host-only.
	CookieDomain string
	// SecureCookies must be true anywhere but local dev.
	SecureCookies bool
	// SessionTTL bounds the session cookie lifetime. The token inside
	// carries its own expiry; the cookie just should not outlive it.
	SessionTTL time.Duration
}

type AuthHandler struct {
	log   *logger.Logger
	auth  services.AuthService
	authz *services.Authorizer
	cfg   AuthWebConfig
}

func NewAuthHandler(log *logger.Logger, auth services.AuthService, authz *services.Authorizer, cfg AuthWebConfig) *AuthHandler {
	return &AuthHandler{
		log:   log.With("handler", "AuthHandler"),
		auth:  auth,
		authz: authz,
		cfg:   cfg,
	}
}

// Login sends the browser to Google with a fresh state nonce pinned in a
// cookie for the callback to compare against.
func (h *AuthHandler) Login(c *gin.Context) {
	state := uuid.NewString()
	c.SetCookie(stateCookie, state, 600, "/", h.cfg.CookieDomain, h.cfg.SecureCookies, true)
	c.Redirect(http.StatusTemporaryRedirect, h.auth.LoginURL(state))
}

// Callback finishes the code exchange, drops the session cookie, and sends
// the browser back to the frontend.
func (h *AuthHandler) Callback(c *gin.Context) {
	state := c.Query("state")
	wantState, err := c.Cookie(stateCookie)
	if err != nil || state == "" || state != wantState {
		response.RespondError(c, http.StatusBadRequest, "invalid_state", nil)
		return
	}
	c.SetCookie(stateCookie, "", -1, "/", h.cfg.CookieDomain, h.cfg.SecureCookies, true)

	code := c.Query("code")
	if code == "" {
		response.RespondError(c, http.StatusBadRequest, "missing_code", nil)
		return
	}
	token, identity, err := h.auth.CompleteLogin(c.Request.Context(), code)
	if err != nil {
		h.log.Warn("login failed", "error", err)
		response.RespondServiceError(c, err)
		return
	}
	h.log.Info("login", "subject_id", identity.SubjectID, "email", identity.Email)

	maxAge := int(h.cfg.SessionTTL.Seconds())
	c.SetCookie(middleware.SessionCookie, token, maxAge, "/", h.cfg.CookieDomain, h.cfg.SecureCookies, true)
	c.Redirect(http.StatusFound, h.frontendURL())
}

func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(middleware.SessionCookie, "", -1, "/", h.cfg.CookieDomain, h.cfg.SecureCookies, true)
	response.RespondOK(c, gin.H{"ok": true})
}

// Me reports the session identity the middleware already verified.
func (h *AuthHandler) Me(c *gin.Context) {
	viewer := middleware.Viewer(c)
	if viewer == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	response.RespondOK(c, gin.H{
		"subject_id": viewer.Subject,
		"email":      viewer.Email,
		"name":       viewer.Name,
		"picture":    viewer.Picture,
		"moderator":  h.authz.CanViewHidden(viewer),
	})
}

func (h *AuthHandler) frontendURL() string {
	if h.cfg.FrontendURL != "" {
		return h.cfg.FrontendURL
	}
	return "/"
}
