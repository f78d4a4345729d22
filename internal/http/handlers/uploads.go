package handlers

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rndmcnlly/democlips-gallery/internal/http/response"
	"github.com/rndmcnlly/democlips-gallery/internal/observability"
	"github.com/rndmcnlly/democlips-gallery/internal/platform/logger"
	"github.com/rndmcnlly/democlips-gallery/internal/services"
)

// Entry surfaces for upload telemetry.
const (
	surfaceSession   = "session"
	surfaceUploadKey = "upload_key"
)

// serveUpload translates the two upload wire shapes into one orchestrator
// call. A request that declares Upload-Length wants a resumable channel and
// reads it back from headers; anything else is a single-shot body upload.
// Replace-and-create lives in the orchestrator, never here.
func serveUpload(c *gin.Context, log *logger.Logger, uploads services.UploadService, owner services.Uploader, courseID, assignmentID, surface string) {
	if raw := strings.TrimSpace(c.GetHeader("Upload-Length")); raw != "" {
		length, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_upload_length", err)
			return
		}
		intent, err := uploads.Begin(c.Request.Context(), owner, courseID, assignmentID, length)
		if metrics := observability.Current(); metrics != nil {
			metrics.ObserveUpload("resumable", surface, err)
		}
		if err != nil {
			log.Error("begin upload failed", "error", err, "course_id", courseID, "assignment_id", assignmentID)
			response.RespondServiceError(c, err)
			return
		}
		// Dumb tus clients only look at headers, so the channel rides in
		// the same two the provider uses.
		c.Header("Location", intent.UploadURL)
		c.Header("stream-media-id", intent.VideoID)
		response.RespondCreated(c, intent)
		return
	}

	body, filename, contentType, err := uploadBody(c)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_upload_body", err)
		return
	}
	defer body.Close()
	intent, err := uploads.Direct(c.Request.Context(), owner, courseID, assignmentID, body, filename, contentType)
	if metrics := observability.Current(); metrics != nil {
		metrics.ObserveUpload("single_shot", surface, err)
	}
	if err != nil {
		log.Error("direct upload failed", "error", err, "course_id", courseID, "assignment_id", assignmentID)
		response.RespondServiceError(c, err)
		return
	}
	response.RespondCreated(c, intent)
}

// uploadBody picks the byte source for a single-shot upload: the multipart
// "file" part when the request is a form, the raw request body otherwise.
func uploadBody(c *gin.Context) (io.ReadCloser, string, string, error) {
	contentType := c.GetHeader("Content-Type")
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err == nil && strings.HasPrefix(mediaType, "multipart/") {
		file, header, err := c.Request.FormFile("file")
		if err != nil {
			return nil, "", "", fmt.Errorf("multipart file part: %w", err)
		}
		return file, header.Filename, header.Header.Get("Content-Type"), nil
	}
	return c.Request.Body, "", contentType, nil
}
