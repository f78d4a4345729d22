package gallery

import (
	"time"

	"github.com/rndmcnlly/democlips-gallery/internal/domain/identity"
)

// Video is one clip in a gallery. The primary key is the id the hosting
// provider assigned when the upload channel was opened; we never mint video
// ids ourselves.
//
// (CourseID, AssignmentID) is indexed but not unique per owner: the
// one-clip-per-member rule is enforced by the upload flow deleting the
// previous clip, not by the schema.
type Video struct {
	ID              string             `gorm:"primaryKey;column:id" json:"id"`
	OwnerID         string             `gorm:"not null;index;column:owner_id" json:"owner_id"`
	Owner           *identity.Identity `gorm:"constraint:OnDelete:CASCADE;foreignKey:OwnerID;references:SubjectID" json:"owner,omitempty"`
	CourseID        string             `gorm:"not null;index:idx_video_gallery,priority:1" json:"course_id"`
	AssignmentID    string             `gorm:"not null;index:idx_video_gallery,priority:2" json:"assignment_id"`
	Title           string             `gorm:"column:title" json:"title"`
	Description     string             `gorm:"column:description" json:"description"`
	LinkURL         string             `gorm:"column:link_url" json:"link_url"`
	DurationSeconds *float64           `gorm:"column:duration_seconds" json:"duration_seconds,omitempty"`
	ThumbnailOffset float64            `gorm:"not null;default:0;column:thumbnail_offset" json:"thumbnail_offset"`
	Hidden          bool               `gorm:"not null;default:false;column:hidden" json:"hidden"`
	CreatedAt       time.Time          `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt       time.Time          `gorm:"not null;default:now()" json:"updated_at"`
}

func (Video) TableName() string { return "video" }

// Processing reports whether the provider has not yet told us the clip is
// playable. Duration stays null until the first successful status poll.
func (v *Video) Processing() bool { return v.DurationSeconds == nil }
