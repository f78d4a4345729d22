package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	repoGallery "github.com/rndmcnlly/democlips-gallery/internal/data/repos/gallery"
	"github.com/rndmcnlly/democlips-gallery/internal/http/middleware"
	"github.com/rndmcnlly/democlips-gallery/internal/http/response"
	"github.com/rndmcnlly/democlips-gallery/internal/platform/logger"
	"github.com/rndmcnlly/democlips-gallery/internal/services"
)

type VideoHandler struct {
	log    *logger.Logger
	videos services.VideoService
}

func NewVideoHandler(log *logger.Logger, videos services.VideoService) *VideoHandler {
	return &VideoHandler{
		log:    log.With("handler", "VideoHandler"),
		videos: videos,
	}
}

func (h *VideoHandler) Get(c *gin.Context) {
	viewer := middleware.Viewer(c)
	view, err := h.videos.Get(c.Request.Context(), viewer, c.Param("id"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, view)
}

// Update applies an owner's partial edit. Absent fields stay untouched;
// present-but-empty fields clear.
func (h *VideoHandler) Update(c *gin.Context) {
	var req struct {
		Title           *string  `json:"title"`
		Description     *string  `json:"description"`
		LinkURL         *string  `json:"link_url"`
		ThumbnailOffset *float64 `json:"thumbnail_offset"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	patch := repoGallery.VideoMetaPatch{
		Title:           req.Title,
		Description:     req.Description,
		LinkURL:         req.LinkURL,
		ThumbnailOffset: req.ThumbnailOffset,
	}
	viewer := middleware.Viewer(c)
	view, err := h.videos.UpdateMeta(c.Request.Context(), viewer, c.Param("id"), patch)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, view)
}

func (h *VideoHandler) Delete(c *gin.Context) {
	viewer := middleware.Viewer(c)
	if err := h.videos.Delete(c.Request.Context(), viewer, c.Param("id")); err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": true})
}

// ToggleStar flips the viewer's star and answers the fresh state plus count.
func (h *VideoHandler) ToggleStar(c *gin.Context) {
	viewer := middleware.Viewer(c)
	state, err := h.videos.ToggleStar(c.Request.Context(), viewer, c.Param("id"))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, state)
}

func (h *VideoHandler) SetHidden(c *gin.Context) {
	var req struct {
		Hidden *bool `json:"hidden"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Hidden == nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", nil)
		return
	}
	viewer := middleware.Viewer(c)
	view, err := h.videos.SetHidden(c.Request.Context(), viewer, c.Param("id"), *req.Hidden)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, view)
}
