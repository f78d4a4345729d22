package services

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/rndmcnlly/democlips-gallery/internal/clients/stream"
	repoGallery "github.com/rndmcnlly/democlips-gallery/internal/data/repos/gallery"
	types "github.com/rndmcnlly/democlips-gallery/internal/domain"
	"github.com/rndmcnlly/democlips-gallery/internal/observability"
	"github.com/rndmcnlly/democlips-gallery/internal/platform/dbctx"
	"github.com/rndmcnlly/democlips-gallery/internal/platform/logger"
)

// Duration backfill polls the provider from the read path, so it is kept on
// a short leash: at most this many lookups per page load, a few at a time.
const (
	maxBackfillPerPage  = 10
	backfillConcurrency = 4
)

// GalleryPage is one gallery listing: newest first, already filtered for the
// viewer.
type GalleryPage struct {
	CourseID     string       `json:"course_id"`
	AssignmentID string       `json:"assignment_id"`
	Videos       []*VideoView `json:"videos"`
}

type GalleryService interface {
	List(ctx context.Context, viewer *SessionClaims, courseID, assignmentID string) (*GalleryPage, error)
	// Summary is the moderation overview: per-gallery totals including
	// hidden and still-processing counts.
	Summary(ctx context.Context, viewer *SessionClaims) ([]repoGallery.GalleryCount, error)
}

type galleryService struct {
	log    *logger.Logger
	stream stream.Client
	videos repoGallery.VideoRepo
	stars  repoGallery.StarRepo
	authz  *Authorizer
}

func NewGalleryService(log *logger.Logger, streamClient stream.Client, videos repoGallery.VideoRepo, stars repoGallery.StarRepo, authz *Authorizer) (GalleryService, error) {
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
	return &galleryService{
		log:    log.With("service", "GalleryService"),
		stream: streamClient,
		videos: videos,
		stars:  stars,
		authz:  authz,
	}, nil
}

func (s *galleryService) List(ctx context.Context, viewer *SessionClaims, courseID, assignmentID string) (*GalleryPage, error) {
	if strings.TrimSpace(courseID) == "" || strings.TrimSpace(assignmentID) == "" {
		return nil, fmt.Errorf("%w: gallery coordinate required", ErrInvalidInput)
	}

	dbc := dbctx.New(ctx)
	rows, err := s.videos.ListByGallery(dbc, courseID, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("list gallery: %w", err)
	}

	s.backfillDurations(ctx, dbc, rows)

	visible := s.authz.VisibleVideos(viewer, rows)
	ids := make([]string, 0, len(visible))
	for _, v := range visible {
		ids = append(ids, v.ID)
	}

	counts, err := s.stars.CountByVideoIDs(dbc, ids)
	if err != nil {
		return nil, fmt.Errorf("count stars: %w", err)
	}
	starred := map[string]bool{}
	if viewer != nil {
		mine, err := s.stars.GetByIdentityAndVideos(dbc, viewer.Subject, ids)
		if err != nil {
			return nil, fmt.Errorf("lookup stars: %w", err)
		}
		for _, st := range mine {
			starred[st.VideoID] = true
		}
	}

	views := make([]*VideoView, 0, len(visible))
	for _, v := range visible {
		views = append(views, makeVideoView(viewer, v, counts[v.ID], starred[v.ID], s.stream))
	}
	return &GalleryPage{CourseID: courseID, AssignmentID: assignmentID, Videos: views}, nil
}

func (s *galleryService) Summary(ctx context.Context, viewer *SessionClaims) ([]repoGallery.GalleryCount, error) {
	if !s.authz.IsModerator(viewer) {
		return nil, ErrForbidden
	}
	out, err := s.videos.GallerySummary(dbctx.New(ctx))
	if err != nil {
		return nil, fmt.Errorf("gallery summary: %w", err)
	}
	return out, nil
}

// backfillDurations asks the provider about clips still missing a duration
// and persists whatever has finished transcoding. Lookups fan out with
// bounded concurrency; writes happen after the fan-in so a shared
// transaction never sees concurrent use. Failures are logged and dropped,
// the page renders with whatever state it has.
func (s *galleryService) backfillDurations(ctx context.Context, dbc dbctx.Context, rows []*types.Video) {
	pending := make([]*types.Video, 0, maxBackfillPerPage)
	for _, v := range rows {
		if v.Processing() {
			pending = append(pending, v)
			if len(pending) == maxBackfillPerPage {
				break
			}
		}
	}
	if len(pending) == 0 {
		return
	}

	metrics := observability.Current()
	ready := make([]*stream.VideoStatus, len(pending))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(backfillConcurrency)
	for i, v := range pending {
		g.Go(func() error {
			st, err := s.stream.GetVideo(gctx, v.ID)
			if err != nil {
				s.log.Debug("duration probe failed", "video_id", v.ID, "error", err.Error())
				metrics.IncBackfillProbe("error")
				return nil
			}
			if st.ReadyToStream && st.Duration > 0 {
				ready[i] = st
				metrics.IncBackfillProbe("ready")
			} else {
				metrics.IncBackfillProbe("pending")
			}
			return nil
		})
	}
	_ = g.Wait()

	for i, st := range ready {
		if st == nil {
			continue
		}
		if err := s.videos.SetDuration(dbc, pending[i].ID, st.Duration); err != nil {
			s.log.Warn("duration backfill write failed", "video_id", pending[i].ID, "error", err.Error())
			continue
		}
		d := st.Duration
		pending[i].DurationSeconds = &d
	}
}
