package app

import (
	"github.com/gin-gonic/gin"

	"github.com/rndmcnlly/democlips-gallery/internal/http"
	httpH "github.com/rndmcnlly/democlips-gallery/internal/http/handlers"
	httpMW "github.com/rndmcnlly/democlips-gallery/internal/http/middleware"
	"github.com/rndmcnlly/democlips-gallery/internal/observability"
	"github.com/rndmcnlly/democlips-gallery/internal/platform/logger"
)

type Middleware struct {
	Session *httpMW.SessionMiddleware
}

type Handlers struct {
	Health    *httpH.HealthHandler
	Auth      *httpH.AuthHandler
	Gallery   *httpH.GalleryHandler
	Video     *httpH.VideoHandler
	KeyUpload *httpH.KeyUploadHandler
}

func wireHandlers(log *logger.Logger, cfg Config, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: httpH.NewHealthHandler(),
		Auth: httpH.NewAuthHandler(log, services.Auth, services.Authorizer, httpH.AuthWebConfig{
			FrontendURL:   cfg.FrontendURL,
			CookieDomain:  cfg.CookieDomain,
			SecureCookies: cfg.SecureCookies,
			SessionTTL:    cfg.SessionTTL,
		}),
		Gallery:   httpH.NewGalleryHandler(log, services.Galleries, services.Uploads, services.Auth, cfg.PublicURL),
		Video:     httpH.NewVideoHandler(log, services.Videos),
		KeyUpload: httpH.NewKeyUploadHandler(log, services.Tokens, services.Uploads),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Session: httpMW.NewSessionMiddleware(log, services.Tokens),
	}
}

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics) *gin.Engine {
	return http.NewRouter(http.RouterConfig{
		Log:               log,
		SessionMiddleware: middleware.Session,
		AuthHandler:       handlers.Auth,
		GalleryHandler:    handlers.Gallery,
		VideoHandler:      handlers.Video,
		KeyUploadHandler:  handlers.KeyUpload,
		HealthHandler:     handlers.Health,
		CORSOrigins:       cfg.CORSOrigins,
		Metrics:           metrics,
	})
}
