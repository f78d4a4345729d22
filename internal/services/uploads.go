package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/rndmcnlly/democlips-gallery/internal/clients/stream"
	repoGallery "github.com/rndmcnlly/democlips-gallery/internal/data/repos/gallery"
	types "github.com/rndmcnlly/democlips-gallery/internal/domain"
	"github.com/rndmcnlly/democlips-gallery/internal/observability"
	"github.com/rndmcnlly/democlips-gallery/internal/platform/dbctx"
	"github.com/rndmcnlly/democlips-gallery/internal/platform/logger"
)

// Uploader is the minimal identity an upload needs. Session logins and
// delegated upload keys both reduce to this shape, so every entry surface
// funnels through the same replace-and-create path.
type Uploader struct {
	SubjectID string
	Email     string
}

// UploadIntent is what the caller gets back: the provider-assigned video id
// and, on the resumable path, the one-time channel URL the browser streams
// bytes to directly.
type UploadIntent struct {
	VideoID   string `json:"video_id"`
	UploadURL string `json:"upload_url,omitempty"`
}

type UploadService interface {
	// Begin opens a resumable upload channel for (owner, gallery),
	// replacing any clip the owner already has there.
	Begin(ctx context.Context, owner Uploader, courseID, assignmentID string, uploadLength int64) (*UploadIntent, error)
	// Direct is the single-shot path for callers that cannot speak the
	// resumable protocol. Same replacement semantics.
	Direct(ctx context.Context, owner Uploader, courseID, assignmentID string, r io.Reader, filename, contentType string) (*UploadIntent, error)
}

type uploadService struct {
	log    *logger.Logger
	stream stream.Client
	videos repoGallery.VideoRepo
	stars  repoGallery.StarRepo
}

func NewUploadService(log *logger.Logger, streamClient stream.Client, videos repoGallery.VideoRepo, stars repoGallery.StarRepo) (UploadService, error) {
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
	return &uploadService{
		log:    log.With("service", "UploadService"),
		stream: streamClient,
		videos: videos,
		stars:  stars,
	}, nil
}

func (s *uploadService) Begin(ctx context.Context, owner Uploader, courseID, assignmentID string, uploadLength int64) (*UploadIntent, error) {
	if err := validateUpload(owner, courseID, assignmentID); err != nil {
		return nil, err
	}
	if uploadLength <= 0 {
		return nil, fmt.Errorf("%w: upload length required", ErrInvalidInput)
	}

	if err := s.replaceExisting(ctx, owner.SubjectID, courseID, assignmentID); err != nil {
		return nil, err
	}

	sess, err := s.stream.CreateUploadSession(ctx, owner.Email, uploadLength)
	if err != nil {
		// No channel means no local row; the caller sees the provider error.
		return nil, fmt.Errorf("open upload channel: %w", err)
	}

	if err := s.insertRow(ctx, owner, courseID, assignmentID, sess.VideoID); err != nil {
		return nil, err
	}
	return &UploadIntent{VideoID: sess.VideoID, UploadURL: sess.UploadURL}, nil
}

func (s *uploadService) Direct(ctx context.Context, owner Uploader, courseID, assignmentID string, r io.Reader, filename, contentType string) (*UploadIntent, error) {
	if err := validateUpload(owner, courseID, assignmentID); err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("%w: request body required", ErrInvalidInput)
	}

	if err := s.replaceExisting(ctx, owner.SubjectID, courseID, assignmentID); err != nil {
		return nil, err
	}

	videoID, err := s.stream.Upload(ctx, r, filename, contentType, owner.Email)
	if err != nil {
		return nil, fmt.Errorf("direct upload: %w", err)
	}

	if err := s.insertRow(ctx, owner, courseID, assignmentID, videoID); err != nil {
		return nil, err
	}
	return &UploadIntent{VideoID: videoID}, nil
}

// replaceExisting enforces one active clip per (owner, gallery): any prior
// clip is deleted remotely (advisory) and locally before the new channel
// opens. Not transactional with the later insert; a crash in between leaves
// the owner with zero clips for the gallery, never two. Two concurrent
// uploads can both pass this check and briefly leave two rows; the stale one
// is swept by whichever replace runs next.
func (s *uploadService) replaceExisting(ctx context.Context, subjectID, courseID, assignmentID string) error {
	dbc := dbctx.New(ctx)
	existing, err := s.videos.GetByOwnerAndGallery(dbc, subjectID, courseID, assignmentID)
	if err != nil {
		return fmt.Errorf("lookup existing clip: %w", err)
	}
	if len(existing) == 0 {
		return nil
	}

	ids := make([]string, 0, len(existing))
	for _, v := range existing {
		ids = append(ids, v.ID)
		if err := s.stream.Delete(ctx, v.ID); err != nil {
			s.log.Warn("advisory remote delete failed", "video_id", v.ID, "error", err.Error())
		}
	}
	if err := s.stars.DeleteByVideoIDs(dbc, ids); err != nil {
		return fmt.Errorf("clear stars of replaced clip: %w", err)
	}
	if err := s.videos.DeleteByIDs(dbc, ids); err != nil {
		return fmt.Errorf("delete replaced clip: %w", err)
	}
	if metrics := observability.Current(); metrics != nil {
		metrics.IncReplacedClips(len(ids))
	}
	s.log.Info("replaced prior clip", "owner_id", subjectID, "course_id", courseID, "assignment_id", assignmentID, "count", len(ids))
	return nil
}

// insertRow records the new clip in processing state (null duration, empty
// metadata). If the insert fails after the provider already allocated the
// video, the remote object is deleted best-effort so it does not orphan.
func (s *uploadService) insertRow(ctx context.Context, owner Uploader, courseID, assignmentID, videoID string) error {
	v := &types.Video{
		ID:           videoID,
		OwnerID:      owner.SubjectID,
		CourseID:     courseID,
		AssignmentID: assignmentID,
	}
	if _, err := s.videos.Create(dbctx.New(ctx), v); err != nil {
		if delErr := s.stream.Delete(ctx, videoID); delErr != nil {
			s.log.Warn("advisory remote delete failed", "video_id", videoID, "error", delErr.Error())
		}
		return fmt.Errorf("record new clip: %w", err)
	}
	s.log.Info("clip registered", "video_id", videoID, "owner_id", owner.SubjectID, "course_id", courseID, "assignment_id", assignmentID)
	return nil
}

func validateUpload(owner Uploader, courseID, assignmentID string) error {
	if strings.TrimSpace(owner.SubjectID) == "" {
		return ErrInvalidToken
	}
	if strings.TrimSpace(courseID) == "" || strings.TrimSpace(assignmentID) == "" {
		return fmt.Errorf("%w: gallery coordinate required", ErrInvalidInput)
	}
	return nil
}
