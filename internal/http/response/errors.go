package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rndmcnlly/democlips-gallery/internal/platform/apierr"
	"github.com/rndmcnlly/democlips-gallery/internal/services"
)

// RespondServiceError translates service-layer failures into the wire
// envelope. Provider failures already carry their status via apierr and keep
// their raw message for diagnosability; everything unrecognized collapses to
// an opaque 500.
func RespondServiceError(c *gin.Context, err error) {
	if apiErr, ok := apierr.From(err); ok {
		RespondError(c, apiErr.Status, apiErr.Code, apiErr)
		return
	}
	switch {
	case errors.Is(err, services.ErrInvalidToken):
		RespondError(c, http.StatusUnauthorized, "unauthorized", services.ErrInvalidToken)
	case errors.Is(err, services.ErrSelfStar):
		RespondError(c, http.StatusForbidden, "self_star", services.ErrSelfStar)
	case errors.Is(err, services.ErrForbidden):
		RespondError(c, http.StatusForbidden, "forbidden", services.ErrForbidden)
	case errors.Is(err, services.ErrNotFound):
		RespondError(c, http.StatusNotFound, "not_found", services.ErrNotFound)
	case errors.Is(err, services.ErrInvalidInput):
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal_error", errors.New("internal error"))
	}
}
