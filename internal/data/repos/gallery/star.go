package gallery

import (
	"gorm.io/gorm"

	types "github.com/rndmcnlly/democlips-gallery/internal/domain"
	"github.com/rndmcnlly/democlips-gallery/internal/platform/dbctx"
	"github.com/rndmcnlly/democlips-gallery/internal/platform/logger"
)

type StarRepo interface {
	// Create returns the driver error untranslated so callers can recognize
	// a unique violation from a concurrent toggle.
	Create(dbc dbctx.Context, s *types.Star) (*types.Star, error)
	DeleteByIdentityAndVideo(dbc dbctx.Context, identityID, videoID string) error
	// DeleteByVideoIDs clears stars for clips that are being removed.
	// Migration disables FK constraints, so there is no cascade to lean on.
	DeleteByVideoIDs(dbc dbctx.Context, videoIDs []string) error
	GetByIdentityAndVideos(dbc dbctx.Context, identityID string, videoIDs []string) ([]*types.Star, error)
	CountByVideoIDs(dbc dbctx.Context, videoIDs []string) (map[string]int64, error)
}

type starRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewStarRepo(db *gorm.DB, baseLog *logger.Logger) StarRepo {
	return &starRepo{
		db:  db,
		log: baseLog.With("repo", "StarRepo"),
	}
}

func (r *starRepo) Create(dbc dbctx.Context, s *types.Star) (*types.Star, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if err := txx.WithContext(dbc.Ctx).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

func (r *starRepo) DeleteByIdentityAndVideo(dbc dbctx.Context, identityID, videoID string) error {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Where("identity_id = ? AND video_id = ?", identityID, videoID).
		Delete(&types.Star{}).Error
}

func (r *starRepo) DeleteByVideoIDs(dbc dbctx.Context, videoIDs []string) error {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if len(videoIDs) == 0 {
		return nil
	}
	return txx.WithContext(dbc.Ctx).Where("video_id IN ?", videoIDs).Delete(&types.Star{}).Error
}

func (r *starRepo) GetByIdentityAndVideos(dbc dbctx.Context, identityID string, videoIDs []string) ([]*types.Star, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	if len(videoIDs) == 0 {
		return nil, nil
	}
	var out []*types.Star
	err := txx.WithContext(dbc.Ctx).
		Where("identity_id = ? AND video_id IN ?", identityID, videoIDs).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *starRepo) CountByVideoIDs(dbc dbctx.Context, videoIDs []string) (map[string]int64, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	counts := make(map[string]int64, len(videoIDs))
	if len(videoIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		VideoID string
		N       int64
	}
	err := txx.WithContext(dbc.Ctx).Model(&types.Star{}).
		Select("video_id, COUNT(*) AS n").
		Where("video_id IN ?", videoIDs).
		Group("video_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.VideoID] = row.N
	}
	return counts, nil
}
