package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/rndmcnlly/democlips-gallery/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&types.Identity{},
		&types.Video{},
		&types.Star{},
	)
}

func EnsureGalleryIndexes(db *gorm.DB) error {
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return fmt.Errorf("enable uuid-ossp: %w", err)
	}
	// Gallery page query: newest first within a (course, assignment) pair.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_video_gallery_created
		ON video(course_id, assignment_id, created_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_video_gallery_created: %w", err)
	}
	// Replacement lookup: the clip an owner already has in a gallery. Not
	// unique; rows for superseded clips coexist until the upload flow
	// deletes them.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_video_owner_gallery
		ON video(owner_id, course_id, assignment_id);
	`).Error; err != nil {
		return fmt.Errorf("create idx_video_owner_gallery: %w", err)
	}
	// One star per identity per video. Concurrent toggles race to this index
	// and the loser's insert fails with a unique violation.
	if err := db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_star_identity_video
		ON star(identity_id, video_id);
	`).Error; err != nil {
		return fmt.Errorf("create idx_star_identity_video: %w", err)
	}
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_star_video_id ON star(video_id);`).Error; err != nil {
		return fmt.Errorf("create idx_star_video_id: %w", err)
	}
	return nil
}
