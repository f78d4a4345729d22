package services

import (
	"strings"

	types "github.com/rndmcnlly/democlips-gallery/internal/domain"
)

// Authorizer holds the flat moderator allow-list and evaluates the pure
// ownership and visibility predicates. No request state is cached here;
// every answer is a function of its arguments.
type Authorizer struct {
	moderators map[string]struct{}
}

func NewAuthorizer(moderatorEmails []string) *Authorizer {
	mods := make(map[string]struct{}, len(moderatorEmails))
	for _, email := range moderatorEmails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			mods[email] = struct{}{}
		}
	}
	return &Authorizer{moderators: mods}
}

func (a *Authorizer) IsModerator(viewer *SessionClaims) bool {
	if viewer == nil {
		return false
	}
	_, ok := a.moderators[strings.ToLower(strings.TrimSpace(viewer.Email))]
	return ok
}

func (a *Authorizer) CanViewHidden(viewer *SessionClaims) bool {
	return a.IsModerator(viewer)
}

func (a *Authorizer) CanMutate(viewer *SessionClaims, v *types.Video) bool {
	return viewer != nil && v != nil && viewer.Subject == v.OwnerID
}

func (a *Authorizer) CanStar(viewer *SessionClaims, v *types.Video) bool {
	return viewer != nil && v != nil && viewer.Subject != v.OwnerID
}

// VisibleVideos filters hidden rows for everyone but moderators. Order is
// preserved.
func (a *Authorizer) VisibleVideos(viewer *SessionClaims, rows []*types.Video) []*types.Video {
	if a.CanViewHidden(viewer) {
		return rows
	}
	out := make([]*types.Video, 0, len(rows))
	for _, v := range rows {
		if !v.Hidden {
			out = append(out, v)
		}
	}
	return out
}
