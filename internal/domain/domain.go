package domain

import (
	"github.com/rndmcnlly/democlips-gallery/internal/domain/gallery"
	"github.com/rndmcnlly/democlips-gallery/internal/domain/identity"
)

// Flat aliases so callers can import one package as `types`.
type (
	Identity = identity.Identity
	Video    = gallery.Video
	Star     = gallery.Star
)
