package app

import (
	"fmt"

	googleclient "github.com/rndmcnlly/democlips-gallery/internal/clients/google"
	"github.com/rndmcnlly/democlips-gallery/internal/clients/stream"
	"github.com/rndmcnlly/democlips-gallery/internal/platform/logger"
)

type Clients struct {
	Google googleclient.Client
	Stream stream.Client
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	google, err := googleclient.New(log, googleclient.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.GoogleRedirectURL,
		HostedDomain: cfg.AllowedEmailDomain,
	})
	if err != nil {
		return Clients{}, fmt.Errorf("init google client: %w", err)
	}

	streamClient, err := stream.New(log, stream.Config{
		AccountID:          cfg.StreamAccountID,
		APIToken:           cfg.StreamAPIToken,
		CustomerSubdomain:  cfg.StreamCustomerSubdomain,
		MaxDurationSeconds: cfg.StreamMaxDurationSecs,
		UploadExpiry:       cfg.StreamUploadExpiry,
		UploadOrigins:      cfg.StreamUploadOrigins,
	})
	if err != nil {
		return Clients{}, fmt.Errorf("init stream client: %w", err)
	}

	return Clients{
		Google: google,
		Stream: streamClient,
	}, nil
}
