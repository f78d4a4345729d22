package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rndmcnlly/democlips-gallery/internal/http/response"
	"github.com/rndmcnlly/democlips-gallery/internal/platform/logger"
	"github.com/rndmcnlly/democlips-gallery/internal/services"
)

// KeyUploadHandler is the delegated upload gateway: a capability key in the
// path stands in for a session, scoped to the one gallery baked into the key.
type KeyUploadHandler struct {
	log     *logger.Logger
	tokens  services.TokenService
	uploads services.UploadService
}

func NewKeyUploadHandler(log *logger.Logger, tokens services.TokenService, uploads services.UploadService) *KeyUploadHandler {
	return &KeyUploadHandler{
		log:     log.With("handler", "KeyUploadHandler"),
		tokens:  tokens,
		uploads: uploads,
	}
}

// Upload verifies the key before anything else touches the request. Every
// verification failure answers the same 401 regardless of cause.
func (h *KeyUploadHandler) Upload(c *gin.Context) {
	claims, err := h.tokens.VerifyUploadKey(c.Param("key"))
	if err != nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	owner := services.Uploader{SubjectID: claims.Subject, Email: claims.Email}
	serveUpload(c, h.log, h.uploads, owner, claims.CourseID, claims.AssignmentID, surfaceUploadKey)
}
