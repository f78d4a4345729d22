package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/rndmcnlly/democlips-gallery/internal/http/handlers"
	httpMW "github.com/rndmcnlly/democlips-gallery/internal/http/middleware"
	"github.com/rndmcnlly/democlips-gallery/internal/observability"
	"github.com/rndmcnlly/democlips-gallery/internal/platform/logger"
)

type RouterConfig struct {
	Log               *logger.Logger
	SessionMiddleware *httpMW.SessionMiddleware

	AuthHandler      *httpH.AuthHandler
	GalleryHandler   *httpH.GalleryHandler
	VideoHandler     *httpH.VideoHandler
	KeyUploadHandler *httpH.KeyUploadHandler
	HealthHandler    *httpH.HealthHandler

	CORSOrigins []string
	Metrics     *observability.Metrics
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("democlips"))
	r.Use(httpMW.AttachTraceContext())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	if cfg.Metrics != nil {
		r.Use(httpMW.Metrics(cfg.Metrics))
	}

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	// OAuth flow (public)
	if cfg.AuthHandler != nil {
		r.GET("/auth/login", cfg.AuthHandler.Login)
		r.GET("/auth/callback", cfg.AuthHandler.Callback)
		r.POST("/auth/logout", cfg.AuthHandler.Logout)
	}

	// Delegated uploads; the key in the path is the whole credential.
	if cfg.KeyUploadHandler != nil {
		r.POST("/k/:key", cfg.KeyUploadHandler.Upload)
	}

	api := r.Group("/api")
	{
		if cfg.SessionMiddleware != nil {
			api.Use(cfg.SessionMiddleware.RequireSession())
		}

		if cfg.AuthHandler != nil {
			api.GET("/me", cfg.AuthHandler.Me)
		}

		// Galleries
		if cfg.GalleryHandler != nil {
			api.GET("/courses/:courseId/assignments/:assignmentId/videos", cfg.GalleryHandler.List)
			api.POST("/courses/:courseId/assignments/:assignmentId/uploads", cfg.GalleryHandler.Upload)
			api.POST("/courses/:courseId/assignments/:assignmentId/keys", cfg.GalleryHandler.CreateKey)
			api.GET("/moderation/summary", cfg.GalleryHandler.Summary)
		}

		// Videos
		if cfg.VideoHandler != nil {
			api.GET("/videos/:id", cfg.VideoHandler.Get)
			api.PATCH("/videos/:id", cfg.VideoHandler.Update)
			api.DELETE("/videos/:id", cfg.VideoHandler.Delete)
			api.POST("/videos/:id/star", cfg.VideoHandler.ToggleStar)
			api.PUT("/videos/:id/hidden", cfg.VideoHandler.SetHidden)
		}
	}

	return r
}
