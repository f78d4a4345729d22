package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rndmcnlly/democlips-gallery/internal/http/response"
	"github.com/rndmcnlly/democlips-gallery/internal/platform/logger"
	"github.com/rndmcnlly/democlips-gallery/internal/services"
)

// SessionCookie is the browser-session cookie name. The auth handler sets it,
// this middleware reads it.
const SessionCookie = "session"

const viewerKey = "viewer_claims"

type SessionMiddleware struct {
	log    *logger.Logger
	tokens services.TokenService
}

func NewSessionMiddleware(log *logger.Logger, tokens services.TokenService) *SessionMiddleware {
	return &SessionMiddleware{log: log.With("Middleware", "SessionMiddleware"), tokens: tokens}
}

// RequireSession rejects the request unless it carries a valid session token
// in the session cookie or an Authorization bearer header. Verified claims
// land in the gin context for Viewer to pick up.
func (sm *SessionMiddleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractSessionToken(c)
		if token == "" {
			abortUnauthorized(c)
			return
		}
		claims, err := sm.tokens.VerifySession(token)
		if err != nil {
			abortUnauthorized(c)
			return
		}
		c.Set(viewerKey, claims)
		c.Next()
	}
}

// Viewer returns the verified session claims RequireSession attached, or nil
// on routes that never passed through it.
func Viewer(c *gin.Context) *services.SessionClaims {
	v, ok := c.Get(viewerKey)
	if !ok {
		return nil
	}
	claims, ok := v.(*services.SessionClaims)
	if !ok {
		return nil
	}
	return claims
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorEnvelope{
		Error: response.APIError{Message: "unauthenticated", Code: "unauthorized"},
	})
}

func extractSessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return ""
}
