package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rndmcnlly/democlips-gallery/internal/platform/ctxutil"
)

// APIError is the wire shape of every failure this service emits. TraceID
// lets a bug report name the exact request.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
			TraceID: traceIDFrom(c),
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

func traceIDFrom(c *gin.Context) string {
	if c.Request == nil {
		return ""
	}
	return ctxutil.TraceID(c.Request.Context())
}
