package gallery

import (
	"time"

	"github.com/google/uuid"

	"github.com/rndmcnlly/democlips-gallery/internal/domain/identity"
)

// Star marks that an identity starred a video. The composite unique index is
// what makes concurrent double-toggles collapse into a single row.
type Star struct {
	ID         uuid.UUID          `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	IdentityID string             `gorm:"not null;uniqueIndex:idx_star_identity_video,priority:1;column:identity_id" json:"identity_id"`
	Identity   *identity.Identity `gorm:"constraint:OnDelete:CASCADE;foreignKey:IdentityID;references:SubjectID" json:"identity,omitempty"`
	VideoID    string             `gorm:"not null;uniqueIndex:idx_star_identity_video,priority:2;column:video_id" json:"video_id"`
	Video      *Video             `gorm:"constraint:OnDelete:CASCADE;foreignKey:VideoID;references:ID" json:"video,omitempty"`
	CreatedAt  time.Time          `gorm:"not null;default:now()" json:"created_at"`
}

func (Star) TableName() string { return "star" }
