package app

import (
	"gorm.io/gorm"

	repoAuth "github.com/rndmcnlly/democlips-gallery/internal/data/repos/auth"
	repoGallery "github.com/rndmcnlly/democlips-gallery/internal/data/repos/gallery"
	"github.com/rndmcnlly/democlips-gallery/internal/platform/logger"
)

type Repos struct {
	Identities repoAuth.IdentityRepo
	Videos     repoGallery.VideoRepo
	Stars      repoGallery.StarRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Identities: repoAuth.NewIdentityRepo(db, log),
		Videos:     repoGallery.NewVideoRepo(db, log),
		Stars:      repoGallery.NewStarRepo(db, log),
	}
}
