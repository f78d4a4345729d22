package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rndmcnlly/democlips-gallery/internal/platform/dbctx"
	"github.com/rndmcnlly/democlips-gallery/internal/platform/logger"
)

func newUploadFixture(t *testing.T) (*fakeStream, *memVideoRepo, *memStarRepo, UploadService) {
	t.Helper()
	fs := &fakeStream{}
	videos := newMemVideoRepo()
	stars := &memStarRepo{}
	svc, err := NewUploadService(logger.NewNop(), fs, videos, stars)
	if err != nil {
		t.Fatalf("NewUploadService: %v", err)
	}
	return fs, videos, stars, svc
}

func TestUploadBeginReplacesExistingClip(t *testing.T) {
	fs, videos, stars, svc := newUploadFixture(t)
	ctx := context.Background()
	owner := Uploader{SubjectID: "sub-owner", Email: "owner@school.test"}

	seedVideo(videos, "old-vid", owner.SubjectID, "cmpm80k", "p1")
	if _, err := stars.Create(dbctx.New(ctx), starFor("sub-fan", "old-vid")); err != nil {
		t.Fatalf("seed star: %v", err)
	}

	intent, err := svc.Begin(ctx, owner, "cmpm80k", "p1", 4096)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if intent.VideoID == "" || intent.UploadURL == "" {
		t.Fatalf("intent incomplete: %+v", intent)
	}

	rows, err := videos.GetByOwnerAndGallery(dbctx.New(ctx), owner.SubjectID, "cmpm80k", "p1")
	if err != nil {
		t.Fatalf("GetByOwnerAndGallery: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != intent.VideoID {
		t.Fatalf("expected only the new clip, got %d rows", len(rows))
	}
	if rows[0].DurationSeconds != nil {
		t.Fatalf("new clip should start in processing state")
	}

	counts, err := stars.CountByVideoIDs(dbctx.New(ctx), []string{"old-vid"})
	if err != nil {
		t.Fatalf("CountByVideoIDs: %v", err)
	}
	if counts["old-vid"] != 0 {
		t.Fatalf("stars of replaced clip survived: %d", counts["old-vid"])
	}

	deleted := fs.deletedIDs()
	if len(deleted) != 1 || deleted[0] != "old-vid" {
		t.Fatalf("remote delete ids: want=[old-vid] got=%v", deleted)
	}
	if fs.lastCreator != owner.Email {
		t.Fatalf("upload creator: want=%q got=%q", owner.Email, fs.lastCreator)
	}
	if fs.lastLength != 4096 {
		t.Fatalf("upload length: want=4096 got=%d", fs.lastLength)
	}
}

func TestUploadBeginSweepsStaleDuplicates(t *testing.T) {
	_, videos, _, svc := newUploadFixture(t)
	ctx := context.Background()
	owner := Uploader{SubjectID: "sub-owner", Email: "owner@school.test"}

	seedVideo(videos, "stale-1", owner.SubjectID, "cmpm80k", "p1")
	seedVideo(videos, "stale-2", owner.SubjectID, "cmpm80k", "p1")

	intent, err := svc.Begin(ctx, owner, "cmpm80k", "p1", 100)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	rows, _ := videos.GetByOwnerAndGallery(dbctx.New(ctx), owner.SubjectID, "cmpm80k", "p1")
	if len(rows) != 1 || rows[0].ID != intent.VideoID {
		t.Fatalf("stale rows not swept: got %d rows", len(rows))
	}
}

func TestUploadBeginToleratesRemoteDeleteFailure(t *testing.T) {
	fs, videos, _, svc := newUploadFixture(t)
	ctx := context.Background()
	owner := Uploader{SubjectID: "sub-owner", Email: "owner@school.test"}

	seedVideo(videos, "old-vid", owner.SubjectID, "cmpm80k", "p1")
	fs.deleteErr = errors.New("stream says no")

	intent, err := svc.Begin(ctx, owner, "cmpm80k", "p1", 100)
	if err != nil {
		t.Fatalf("Begin should survive advisory delete failure: %v", err)
	}
	rows, _ := videos.GetByOwnerAndGallery(dbctx.New(ctx), owner.SubjectID, "cmpm80k", "p1")
	if len(rows) != 1 || rows[0].ID != intent.VideoID {
		t.Fatalf("local replacement must happen regardless: got %d rows", len(rows))
	}
}

func TestUploadBeginProviderFailureLeavesNoRow(t *testing.T) {
	fs, videos, _, svc := newUploadFixture(t)
	ctx := context.Background()
	owner := Uploader{SubjectID: "sub-owner", Email: "owner@school.test"}
	fs.sessionErr = errors.New("boom")

	if _, err := svc.Begin(ctx, owner, "cmpm80k", "p1", 100); err == nil {
		t.Fatalf("Begin should propagate provider failure")
	}
	rows, _ := videos.GetByOwnerAndGallery(dbctx.New(ctx), owner.SubjectID, "cmpm80k", "p1")
	if len(rows) != 0 {
		t.Fatalf("no row should exist after provider failure, got %d", len(rows))
	}
}

func TestUploadBeginInsertFailureCleansUpRemote(t *testing.T) {
	fs, videos, _, svc := newUploadFixture(t)
	ctx := context.Background()
	owner := Uploader{SubjectID: "sub-owner", Email: "owner@school.test"}
	videos.createErr = errors.New("db down")

	if _, err := svc.Begin(ctx, owner, "cmpm80k", "p1", 100); err == nil {
		t.Fatalf("Begin should propagate insert failure")
	}
	deleted := fs.deletedIDs()
	if len(deleted) != 1 || !strings.HasPrefix(deleted[0], "fake-vid-") {
		t.Fatalf("orphaned remote video not cleaned up: %v", deleted)
	}
}

func TestUploadBeginValidation(t *testing.T) {
	_, _, _, svc := newUploadFixture(t)
	ctx := context.Background()

	if _, err := svc.Begin(ctx, Uploader{}, "c", "a", 100); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("missing subject: want ErrInvalidToken got %v", err)
	}
	owner := Uploader{SubjectID: "sub", Email: "x@y.test"}
	if _, err := svc.Begin(ctx, owner, "", "a", 100); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("missing course: want ErrInvalidInput got %v", err)
	}
	if _, err := svc.Begin(ctx, owner, "c", "", 100); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("missing assignment: want ErrInvalidInput got %v", err)
	}
	if _, err := svc.Begin(ctx, owner, "c", "a", 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("zero length: want ErrInvalidInput got %v", err)
	}
}

func TestUploadDirectReplacesAndStreamsBody(t *testing.T) {
	fs, videos, _, svc := newUploadFixture(t)
	ctx := context.Background()
	owner := Uploader{SubjectID: "sub-owner", Email: "owner@school.test"}

	seedVideo(videos, "old-vid", owner.SubjectID, "cmpm80k", "p1")

	body := strings.NewReader("not really an mp4")
	intent, err := svc.Direct(ctx, owner, "cmpm80k", "p1", body, "demo.mp4", "video/mp4")
	if err != nil {
		t.Fatalf("Direct: %v", err)
	}
	if intent.VideoID == "" {
		t.Fatalf("missing video id")
	}
	if intent.UploadURL != "" {
		t.Fatalf("single-shot upload should not hand out a channel URL")
	}
	if string(fs.lastBody) != "not really an mp4" {
		t.Fatalf("body mismatch: %q", fs.lastBody)
	}
	if fs.lastFilename != "demo.mp4" {
		t.Fatalf("filename: want=demo.mp4 got=%q", fs.lastFilename)
	}

	rows, _ := videos.GetByOwnerAndGallery(dbctx.New(ctx), owner.SubjectID, "cmpm80k", "p1")
	if len(rows) != 1 || rows[0].ID != intent.VideoID {
		t.Fatalf("replacement on direct path failed: got %d rows", len(rows))
	}
	if deleted := fs.deletedIDs(); len(deleted) != 1 || deleted[0] != "old-vid" {
		t.Fatalf("remote delete ids: want=[old-vid] got=%v", deleted)
	}
}

func TestUploadDirectNilBody(t *testing.T) {
	_, _, _, svc := newUploadFixture(t)
	owner := Uploader{SubjectID: "sub", Email: "x@y.test"}
	if _, err := svc.Direct(context.Background(), owner, "c", "a", nil, "f", "video/mp4"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("nil body: want ErrInvalidInput got %v", err)
	}
}
