package services

import (
	"fmt"
	"math"
	"time"

	types "github.com/rndmcnlly/democlips-gallery/internal/domain"
)

// VideoView is the read model the frontend renders: a video row joined with
// owner display attributes, star state for the current viewer, and playback
// URLs resolved against the hosting provider.
type VideoView struct {
	ID              string    `json:"id"`
	CourseID        string    `json:"course_id"`
	AssignmentID    string    `json:"assignment_id"`
	OwnerID         string    `json:"owner_id"`
	OwnerName       string    `json:"owner_name,omitempty"`
	OwnerAvatarURL  string    `json:"owner_avatar_url,omitempty"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	LinkURL         string    `json:"link_url,omitempty"`
	PlaybackURL     string    `json:"playback_url,omitempty"`
	ThumbnailURL    string    `json:"thumbnail_url,omitempty"`
	ThumbnailOffset float64   `json:"thumbnail_offset"`
	DurationSeconds *float64  `json:"duration_seconds,omitempty"`
	DurationLabel   string    `json:"duration_label,omitempty"`
	Processing      bool      `json:"processing"`
	Hidden          bool      `json:"hidden"`
	Stars           int64     `json:"stars"`
	Starred         bool      `json:"starred"`
	Mine            bool      `json:"mine"`
	CreatedAt       time.Time `json:"created_at"`
}

type playbackResolver interface {
	PlaybackURL(videoID string) string
	ThumbnailURL(videoID string, offset float64) string
}

func makeVideoView(viewer *SessionClaims, v *types.Video, stars int64, starred bool, play playbackResolver) *VideoView {
	view := &VideoView{
		ID:              v.ID,
		CourseID:        v.CourseID,
		AssignmentID:    v.AssignmentID,
		OwnerID:         v.OwnerID,
		Title:           v.Title,
		Description:     v.Description,
		LinkURL:         v.LinkURL,
		ThumbnailOffset: v.ThumbnailOffset,
		DurationSeconds: v.DurationSeconds,
		Processing:      v.Processing(),
		Hidden:          v.Hidden,
		Stars:           stars,
		Starred:         starred,
		Mine:            viewer != nil && viewer.Subject == v.OwnerID,
		CreatedAt:       v.CreatedAt,
	}
	if v.Owner != nil {
		view.OwnerName = v.Owner.DisplayName
		view.OwnerAvatarURL = v.Owner.AvatarURL
	}
	if v.DurationSeconds != nil {
		view.DurationLabel = formatDuration(*v.DurationSeconds)
		if play != nil {
			// Thumbnail offset is a fraction of the clip, resolved to
			// seconds only once the duration is known.
			view.ThumbnailURL = play.ThumbnailURL(v.ID, v.ThumbnailOffset**v.DurationSeconds)
		}
	}
	if play != nil {
		view.PlaybackURL = play.PlaybackURL(v.ID)
	}
	return view
}

// formatDuration renders seconds as m:ss, truncating the fraction the way
// video players label clip lengths.
func formatDuration(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return ""
	}
	total := int(seconds)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
