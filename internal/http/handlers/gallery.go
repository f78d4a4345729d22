package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rndmcnlly/democlips-gallery/internal/http/middleware"
	"github.com/rndmcnlly/democlips-gallery/internal/http/response"
	"github.com/rndmcnlly/democlips-gallery/internal/platform/logger"
	"github.com/rndmcnlly/democlips-gallery/internal/services"
)

type GalleryHandler struct {
	log       *logger.Logger
	galleries services.GalleryService
	uploads   services.UploadService
	auth      services.AuthService
	// publicURL is the externally reachable base for /k/ links. Empty
	// falls back to the request's own host.
	publicURL string
}

func NewGalleryHandler(log *logger.Logger, galleries services.GalleryService, uploads services.UploadService, auth services.AuthService, publicURL string) *GalleryHandler {
	return &GalleryHandler{
		log:       log.With("handler", "GalleryHandler"),
		galleries: galleries,
		uploads:   uploads,
		auth:      auth,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

func (h *GalleryHandler) List(c *gin.Context) {
	viewer := middleware.Viewer(c)
	page, err := h.galleries.List(c.Request.Context(), viewer, c.Param("courseId"), c.Param("assignmentId"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, page)
}

// Upload is the session-authenticated upload surface. Wire-shape handling is
// shared with the /k/ gateway.
func (h *GalleryHandler) Upload(c *gin.Context) {
	viewer := middleware.Viewer(c)
	if viewer == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	owner := services.Uploader{SubjectID: viewer.Subject, Email: viewer.Email}
	serveUpload(c, h.log, h.uploads, owner, c.Param("courseId"), c.Param("assignmentId"), surfaceSession)
}

// CreateKey mints a delegated upload key for this gallery and hands back the
// ready-to-share /k/ URL alongside the raw key.
func (h *GalleryHandler) CreateKey(c *gin.Context) {
	viewer := middleware.Viewer(c)
	key, err := h.auth.CreateUploadKey(viewer, c.Param("courseId"), c.Param("assignmentId"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, gin.H{
		"key": key,
		"url": h.keyURL(c, key),
	})
}

// Summary is the moderator overview of every gallery with clips in it.
func (h *GalleryHandler) Summary(c *gin.Context) {
	viewer := middleware.Viewer(c)
	rows, err := h.galleries.Summary(c.Request.Context(), viewer)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"galleries": rows})
}

func (h *GalleryHandler) keyURL(c *gin.Context, key string) string {
	base := h.publicURL
	if base == "" {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + c.Request.Host
	}
	return base + "/k/" + key
}
