package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rndmcnlly/democlips-gallery/internal/clients/stream"
	repoGallery "github.com/rndmcnlly/democlips-gallery/internal/data/repos/gallery"
	types "github.com/rndmcnlly/democlips-gallery/internal/domain"
	"github.com/rndmcnlly/democlips-gallery/internal/observability"
	"github.com/rndmcnlly/democlips-gallery/internal/platform/dbctx"
	"github.com/rndmcnlly/democlips-gallery/internal/platform/logger"
)

// StarState is the toggle result: where the star landed and the new count.
type StarState struct {
	VideoID string `json:"video_id"`
	Starred bool   `json:"starred"`
	Stars   int64  `json:"stars"`
}

type VideoService interface {
	Get(ctx context.Context, viewer *SessionClaims, id string) (*VideoView, error)
	UpdateMeta(ctx context.Context, viewer *SessionClaims, id string, patch repoGallery.VideoMetaPatch) (*VideoView, error)
	Delete(ctx context.Context, viewer *SessionClaims, id string) error
	ToggleStar(ctx context.Context, viewer *SessionClaims, id string) (*StarState, error)
	SetHidden(ctx context.Context, viewer *SessionClaims, id string, hidden bool) (*VideoView, error)
}

type videoService struct {
	log    *logger.Logger
	stream stream.Client
	videos repoGallery.VideoRepo
	stars  repoGallery.StarRepo
	authz  *Authorizer
}

func NewVideoService(log *logger.Logger, streamClient stream.Client, videos repoGallery.VideoRepo, stars repoGallery.StarRepo, authz *Authorizer) (VideoService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if streamClient == nil {
		return nil, fmt.Errorf("stream client required")
	}
	if videos == nil {
		return nil, fmt.Errorf("video repo required")
	}
	if stars == nil {
		return nil, fmt.Errorf("star repo required")
	}
	if authz == nil {
		return nil, fmt.Errorf("authorizer required")
	}
	return &videoService{
		log:    log.With("service", "VideoService"),
		stream: streamClient,
		videos: videos,
		stars:  stars,
		authz:  authz,
	}, nil
}

func (s *videoService) Get(ctx context.Context, viewer *SessionClaims, id string) (*VideoView, error) {
	v, err := s.getVisible(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, viewer, v)
}

func (s *videoService) UpdateMeta(ctx context.Context, viewer *SessionClaims, id string, patch repoGallery.VideoMetaPatch) (*VideoView, error) {
	v, err := s.getVisible(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	if !s.authz.CanMutate(viewer, v) {
		return nil, ErrForbidden
	}
	if err := validateMetaPatch(patch); err != nil {
		return nil, err
	}
	dbc := dbctx.New(ctx)
	if err := s.videos.UpdateMeta(dbc, id, patch); err != nil {
		return nil, fmt.Errorf("update video metadata: %w", err)
	}
	fresh, err := s.fetch(dbc, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, viewer, fresh)
}

func (s *videoService) Delete(ctx context.Context, viewer *SessionClaims, id string) error {
	v, err := s.getVisible(ctx, viewer, id)
	if err != nil {
		return err
	}
	if !s.authz.CanMutate(viewer, v) {
		return ErrForbidden
	}
	// Remote delete is advisory; the local row is the source of truth and
	// must go regardless of what the provider says.
	if err := s.stream.Delete(ctx, v.ID); err != nil {
		s.log.Warn("advisory remote delete failed", "video_id", v.ID, "error", err.Error())
	}
	dbc := dbctx.New(ctx)
	if err := s.stars.DeleteByVideoIDs(dbc, []string{v.ID}); err != nil {
		return fmt.Errorf("clear stars: %w", err)
	}
	if err := s.videos.DeleteByIDs(dbc, []string{v.ID}); err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	s.log.Info("clip deleted", "video_id", v.ID, "owner_id", v.OwnerID)
	return nil
}

func (s *videoService) ToggleStar(ctx context.Context, viewer *SessionClaims, id string) (*StarState, error) {
	v, err := s.getVisible(ctx, viewer, id)
	if err != nil {
		return nil, err
	}
	if !s.authz.CanStar(viewer, v) {
		if viewer != nil && viewer.Subject == v.OwnerID {
			return nil, ErrSelfStar
		}
		return nil, ErrForbidden
	}

	dbc := dbctx.New(ctx)
	existing, err := s.stars.GetByIdentityAndVideos(dbc, viewer.Subject, []string{v.ID})
	if err != nil {
		return nil, fmt.Errorf("lookup star: %w", err)
	}

	starred := false
	if len(existing) > 0 {
		if err := s.stars.DeleteByIdentityAndVideo(dbc, viewer.Subject, v.ID); err != nil {
			return nil, fmt.Errorf("remove star: %w", err)
		}
	} else {
		_, err := s.stars.Create(dbc, &types.Star{IdentityID: viewer.Subject, VideoID: v.ID})
		switch {
		case err == nil:
			starred = true
		case isUniqueViolation(err):
			// Lost a race against an identical toggle; the star exists,
			// which is exactly what this branch wanted.
			starred = true
		default:
			return nil, fmt.Errorf("add star: %w", err)
		}
	}

	if metrics := observability.Current(); metrics != nil {
		metrics.IncStarToggle(starred)
	}
	counts, err := s.stars.CountByVideoIDs(dbc, []string{v.ID})
	if err != nil {
		return nil, fmt.Errorf("count stars: %w", err)
	}
	return &StarState{VideoID: v.ID, Starred: starred, Stars: counts[v.ID]}, nil
}

func (s *videoService) SetHidden(ctx context.Context, viewer *SessionClaims, id string, hidden bool) (*VideoView, error) {
	if !s.authz.IsModerator(viewer) {
		return nil, ErrForbidden
	}
	dbc := dbctx.New(ctx)
	v, err := s.fetch(dbc, id)
	if err != nil {
		return nil, err
	}
	if err := s.videos.SetHidden(dbc, v.ID, hidden); err != nil {
		return nil, fmt.Errorf("set hidden: %w", err)
	}
	if metrics := observability.Current(); metrics != nil {
		metrics.IncModeration(hidden)
	}
	s.log.Info("moderation flag changed", "video_id", v.ID, "hidden", hidden)
	fresh, err := s.fetch(dbc, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, viewer, fresh)
}

// getVisible fetches one video and applies the visibility rule: a hidden
// video reads as missing unless the viewer may see hidden content.
func (s *videoService) getVisible(ctx context.Context, viewer *SessionClaims, id string) (*types.Video, error) {
	v, err := s.fetch(dbctx.New(ctx), id)
	if err != nil {
		return nil, err
	}
	if v.Hidden && !s.authz.CanViewHidden(viewer) {
		return nil, ErrNotFound
	}
	return v, nil
}

func (s *videoService) fetch(dbc dbctx.Context, id string) (*types.Video, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrNotFound
	}
	rows, err := s.videos.GetByIDs(dbc, []string{id})
	if err != nil {
		return nil, fmt.Errorf("load video: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rows[0], nil
}

func (s *videoService) view(ctx context.Context, viewer *SessionClaims, v *types.Video) (*VideoView, error) {
	dbc := dbctx.New(ctx)
	counts, err := s.stars.CountByVideoIDs(dbc, []string{v.ID})
	if err != nil {
		return nil, fmt.Errorf("count stars: %w", err)
	}
	starred := false
	if viewer != nil {
		mine, err := s.stars.GetByIdentityAndVideos(dbc, viewer.Subject, []string{v.ID})
		if err != nil {
			return nil, fmt.Errorf("lookup star: %w", err)
		}
		starred = len(mine) > 0
	}
	return makeVideoView(viewer, v, counts[v.ID], starred, s.stream), nil
}

func validateMetaPatch(patch repoGallery.VideoMetaPatch) error {
	if patch.ThumbnailOffset != nil {
		if off := *patch.ThumbnailOffset; off < 0 || off > 1 {
			return fmt.Errorf("%w: thumbnail offset must be between 0 and 1", ErrInvalidInput)
		}
	}
	if patch.LinkURL != nil && strings.TrimSpace(*patch.LinkURL) != "" {
		u, err := url.Parse(*patch.LinkURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: link must be an http or https URL", ErrInvalidInput)
		}
	}
	return nil
}
