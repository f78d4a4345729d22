package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/rndmcnlly/democlips-gallery/internal/domain"
)

func SeedIdentity(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.Identity {
	tb.Helper()
	id := &types.Identity{
		SubjectID:   "sub-" + uuid.NewString(),
		Email:       email,
		DisplayName: "Test Person",
		RawClaims:   datatypes.JSON([]byte(`{}`)),
	}
	if err := tx.WithContext(ctx).Create(id).Error; err != nil {
		tb.Fatalf("seed identity: %v", err)
	}
	return id
}

func SeedVideo(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID, courseID, assignmentID string) *types.Video {
	tb.Helper()
	v := &types.Video{
		ID:           fmt.Sprintf("vid-%s", uuid.NewString()[:13]),
		OwnerID:      ownerID,
		CourseID:     courseID,
		AssignmentID: assignmentID,
		Title:        "clip",
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed video: %v", err)
	}
	return v
}

func SeedStar(tb testing.TB, ctx context.Context, tx *gorm.DB, identityID, videoID string) *types.Star {
	tb.Helper()
	s := &types.Star{
		ID:         uuid.New(),
		IdentityID: identityID,
		VideoID:    videoID,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed star: %v", err)
	}
	return s
}
