package app

import (
	"fmt"

	"github.com/rndmcnlly/democlips-gallery/internal/platform/logger"
	"github.com/rndmcnlly/democlips-gallery/internal/services"
)

type Services struct {
	Tokens    services.TokenService
	Auth      services.AuthService
	Uploads   services.UploadService
	Videos    services.VideoService
	Galleries services.GalleryService

	Authorizer *services.Authorizer
}

func wireServices(log *logger.Logger, cfg Config, clients Clients, repos Repos) (Services, error) {
	log.Info("Wiring services...")

	authz := services.NewAuthorizer(cfg.ModeratorEmails)

	tokens, err := services.NewTokenService(log, services.TokenConfig{
		Secret:       cfg.TokenSecret,
		SessionTTL:   cfg.SessionTTL,
		UploadKeyTTL: cfg.UploadKeyTTL,
	})
	if err != nil {
		return Services{}, fmt.Errorf("init token service: %w", err)
	}

	auth, err := services.NewAuthService(log, services.AuthConfig{
		AllowedEmailDomain: cfg.AllowedEmailDomain,
	}, clients.Google, tokens, repos.Identities)
	if err != nil {
		return Services{}, fmt.Errorf("init auth service: %w", err)
	}

	uploads, err := services.NewUploadService(log, clients.Stream, repos.Videos, repos.Stars)
	if err != nil {
		return Services{}, fmt.Errorf("init upload service: %w", err)
	}

	videos, err := services.NewVideoService(log, clients.Stream, repos.Videos, repos.Stars, authz)
	if err != nil {
		return Services{}, fmt.Errorf("init video service: %w", err)
	}

	galleries, err := services.NewGalleryService(log, clients.Stream, repos.Videos, repos.Stars, authz)
	if err != nil {
		return Services{}, fmt.Errorf("init gallery service: %w", err)
	}

	return Services{
		Tokens:     tokens,
		Auth:       auth,
		Uploads:    uploads,
		Videos:     videos,
		Galleries:  galleries,
		Authorizer: authz,
	}, nil
}
