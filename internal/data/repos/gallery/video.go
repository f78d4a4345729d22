package gallery

import (
	"time"

	"gorm.io/gorm"

	types "github.com/rndmcnlly/democlips-gallery/internal/domain"
	"github.com/rndmcnlly/democlips-gallery/internal/platform/dbctx"
	"github.com/rndmcnlly/democlips-gallery/internal/platform/logger"
)

// VideoMetaPatch carries the owner-editable columns. Nil fields are left
// untouched.
type VideoMetaPatch struct {
	Title           *string
	Description     *string
	LinkURL         *string
	ThumbnailOffset *float64
}

// GalleryCount is one row of the moderation summary.
type GalleryCount struct {
	CourseID     string `json:"course_id"`
	AssignmentID string `json:"assignment_id"`
	Total        int64  `json:"total"`
	Hidden       int64  `json:"hidden"`
	Processing   int64  `json:"processing"`
}

type VideoRepo interface {
	Create(dbc dbctx.Context, v *types.Video) (*types.Video, error)
	GetByIDs(dbc dbctx.Context, ids []string) ([]*types.Video, error)
	GetByOwnerAndGallery(dbc dbctx.Context, ownerID, courseID, assignmentID string) ([]*types.Video, error)
	ListByGallery(dbc dbctx.Context, courseID, assignmentID string) ([]*types.Video, error)
	ListProcessing(dbc dbctx.Context, olderThan time.Time, limit int) ([]*types.Video, error)
	UpdateMeta(dbc dbctx.Context, id string, patch VideoMetaPatch) error
	SetHidden(dbc dbctx.Context, id string, hidden bool) error
	SetDuration(dbc dbctx.Context, id string, seconds float64) error
	DeleteByIDs(dbc dbctx.Context, ids []string) error
	GallerySummary(dbc dbctx.Context) ([]GalleryCount, error)
}

type videoRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVideoRepo(db *gorm.DB, baseLog *logger.Logger) VideoRepo {
	return &videoRepo{
		db:  db,
		log: baseLog.With("repo", "VideoRepo"),
	}
}

func (r *videoRepo) Create(dbc dbctx.Context, v *types.Video) (*types.Video, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).Create(v).Error; err != nil {
		return nil, err
	}
	return v, nil
}

func (r *videoRepo) GetByIDs(dbc dbctx.Context, ids []string) ([]*types.Video, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Video
	if err := txx.WithContext(dbc.Ctx).Preload("Owner").Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *videoRepo) GetByOwnerAndGallery(dbc dbctx.Context, ownerID, courseID, assignmentID string) ([]*types.Video, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Video
	err := txx.WithContext(dbc.Ctx).
		Where("owner_id = ? AND course_id = ? AND assignment_id = ?", ownerID, courseID, assignmentID).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *videoRepo) ListByGallery(dbc dbctx.Context, courseID, assignmentID string) ([]*types.Video, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Video
	err := txx.WithContext(dbc.Ctx).
		Preload("Owner").
		Where("course_id = ? AND assignment_id = ?", courseID, assignmentID).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListProcessing returns clips whose duration is still unknown and that were
// created before olderThan, oldest first.
func (r *videoRepo) ListProcessing(dbc dbctx.Context, olderThan time.Time, limit int) ([]*types.Video, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	q := txx.WithContext(dbc.Ctx).
		Where("duration_seconds IS NULL AND created_at < ?", olderThan).
		Order("created_at ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var out []*types.Video
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *videoRepo) UpdateMeta(dbc dbctx.Context, id string, patch VideoMetaPatch) error {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	updates := map[string]interface{}{}
	if patch.Title != nil {
		updates["title"] = *patch.Title
	}
	if patch.Description != nil {
		updates["description"] = *patch.Description
	}
	if patch.LinkURL != nil {
		updates["link_url"] = *patch.LinkURL
	}
	if patch.ThumbnailOffset != nil {
		updates["thumbnail_offset"] = *patch.ThumbnailOffset
	}
	if len(updates) == 0 {
		return nil
	}
	return txx.WithContext(dbc.Ctx).Model(&types.Video{}).Where("id = ?", id).Updates(updates).Error
}

func (r *videoRepo) SetHidden(dbc dbctx.Context, id string, hidden bool) error {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).Model(&types.Video{}).Where("id = ?", id).
		Update("hidden", hidden).Error
}

func (r *videoRepo) SetDuration(dbc dbctx.Context, id string, seconds float64) error {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).Model(&types.Video{}).Where("id = ?", id).
		Update("duration_seconds", seconds).Error
}

func (r *videoRepo) DeleteByIDs(dbc dbctx.Context, ids []string) error {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return txx.WithContext(dbc.Ctx).Where("id IN ?", ids).Delete(&types.Video{}).Error
}

func (r *videoRepo) GallerySummary(dbc dbctx.Context) ([]GalleryCount, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []GalleryCount
	err := txx.WithContext(dbc.Ctx).Model(&types.Video{}).
		Select(`course_id,
			assignment_id,
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE hidden) AS hidden,
			COUNT(*) FILTER (WHERE duration_seconds IS NULL) AS processing`).
		Group("course_id, assignment_id").
		Order("course_id, assignment_id").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
