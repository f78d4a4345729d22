package auth

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/rndmcnlly/democlips-gallery/internal/domain"
	"github.com/rndmcnlly/democlips-gallery/internal/platform/dbctx"
	"github.com/rndmcnlly/democlips-gallery/internal/platform/logger"
)

type IdentityRepo interface {
	Upsert(dbc dbctx.Context, id *types.Identity) (*types.Identity, error)
	GetBySubjectIDs(dbc dbctx.Context, subjectIDs []string) ([]*types.Identity, error)
}

type identityRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewIdentityRepo(db *gorm.DB, baseLog *logger.Logger) IdentityRepo {
	return &identityRepo{
		db:  db,
		log: baseLog.With("repo", "IdentityRepo"),
	}
}

// Upsert inserts the identity or refreshes its profile columns when the
// subject already exists. Runs on every login.
func (r *identityRepo) Upsert(dbc dbctx.Context, id *types.Identity) (*types.Identity, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	err := txx.WithContext(dbc.Ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "subject_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"email",
			"display_name",
			"avatar_url",
			"hosted_domain",
			"raw_claims",
			"updated_at",
		}),
	}).Create(id).Error
	if err != nil {
		return nil, err
	}
	return id, nil
}

func (r *identityRepo) GetBySubjectIDs(dbc dbctx.Context, subjectIDs []string) ([]*types.Identity, error) {
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	var out []*types.Identity
	if err := txx.WithContext(dbc.Ctx).Where("subject_id IN ?", subjectIDs).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
