package services

import (
	"context"
	"errors"
	"testing"

	types "github.com/rndmcnlly/democlips-gallery/internal/domain"
	"github.com/rndmcnlly/democlips-gallery/internal/pkg/pointers"
	"github.com/rndmcnlly/democlips-gallery/internal/platform/dbctx"
	"github.com/rndmcnlly/democlips-gallery/internal/platform/logger"
)

func newVideoFixture(t *testing.T) (*fakeStream, *memVideoRepo, *memStarRepo, VideoService) {
	t.Helper()
	fs := &fakeStream{}
	videos := newMemVideoRepo()
	stars := &memStarRepo{}
	authz := NewAuthorizer([]string{"mod@school.test"})
	svc, err := NewVideoService(logger.NewNop(), fs, videos, stars, authz)
	if err != nil {
		t.Fatalf("NewVideoService: %v", err)
	}
	return fs, videos, stars, svc
}

func TestVideoGetAssemblesView(t *testing.T) {
	_, videos, stars, svc := newVideoFixture(t)
	ctx := context.Background()

	videos.addOwner(&types.Identity{SubjectID: "sub-owner", Email: "owner@school.test", DisplayName: "Owner One", AvatarURL: "https://img.test/o.png"})
	v := seedVideo(videos, "vid-1", "sub-owner", "cmpm80k", "p1")
	videos.rows[v.ID].Title = "My demo"
	videos.rows[v.ID].ThumbnailOffset = 0.5
	videos.rows[v.ID].DurationSeconds = pointers.Ptr(42.5)
	if _, err := stars.Create(dbctx.New(ctx), starFor("sub-fan", "vid-1")); err != nil {
		t.Fatalf("seed star: %v", err)
	}

	viewer := sessionFor("sub-fan", "fan@school.test")
	view, err := svc.Get(ctx, viewer, "vid-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if view.Title != "My demo" || view.OwnerName != "Owner One" || view.OwnerAvatarURL != "https://img.test/o.png" {
		t.Fatalf("owner join missing: %+v", view)
	}
	if view.PlaybackURL != "https://play.test/vid-1/iframe" {
		t.Fatalf("playback url: got=%q", view.PlaybackURL)
	}
	if view.ThumbnailURL != "https://play.test/vid-1/thumbnails/thumbnail.jpg?time=21.25s" {
		t.Fatalf("thumbnail url: got=%q", view.ThumbnailURL)
	}
	if view.DurationLabel != "0:42" {
		t.Fatalf("duration label: want=0:42 got=%q", view.DurationLabel)
	}
	if view.Processing {
		t.Fatalf("clip with a duration is not processing")
	}
	if view.Stars != 1 || !view.Starred {
		t.Fatalf("star state: stars=%d starred=%v", view.Stars, view.Starred)
	}
	if view.Mine {
		t.Fatalf("viewer does not own this clip")
	}
}

func TestVideoGetMissing(t *testing.T) {
	_, _, _, svc := newVideoFixture(t)
	if _, err := svc.Get(context.Background(), nil, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound got %v", err)
	}
	if _, err := svc.Get(context.Background(), nil, ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty id: want ErrNotFound got %v", err)
	}
}

func TestVideoHiddenReadsAsMissing(t *testing.T) {
	_, videos, _, svc := newVideoFixture(t)
	ctx := context.Background()
	v := seedVideo(videos, "vid-h", "sub-owner", "cmpm80k", "p1")
	videos.rows[v.ID].Hidden = true

	if _, err := svc.Get(ctx, sessionFor("sub-other", "other@school.test"), "vid-h"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("classmate: want ErrNotFound got %v", err)
	}
	if _, err := svc.Get(ctx, sessionFor("sub-owner", "owner@school.test"), "vid-h"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("owner is not exempt from hiding: want ErrNotFound got %v", err)
	}
	if _, err := svc.Get(ctx, nil, "vid-h"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("anonymous: want ErrNotFound got %v", err)
	}

	view, err := svc.Get(ctx, sessionFor("sub-mod", "mod@school.test"), "vid-h")
	if err != nil {
		t.Fatalf("moderator should see hidden clip: %v", err)
	}
	if !view.Hidden {
		t.Fatalf("moderator view should carry the hidden flag")
	}
}

func TestVideoToggleStar(t *testing.T) {
	_, videos, _, svc := newVideoFixture(t)
	ctx := context.Background()
	seedVideo(videos, "vid-1", "sub-owner", "cmpm80k", "p1")
	viewer := sessionFor("sub-fan", "fan@school.test")

	st, err := svc.ToggleStar(ctx, viewer, "vid-1")
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if !st.Starred || st.Stars != 1 {
		t.Fatalf("first toggle: want starred/1 got %+v", st)
	}

	st, err = svc.ToggleStar(ctx, viewer, "vid-1")
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if st.Starred || st.Stars != 0 {
		t.Fatalf("second toggle: want unstarred/0 got %+v", st)
	}
}

func TestVideoToggleStarSelf(t *testing.T) {
	_, videos, _, svc := newVideoFixture(t)
	seedVideo(videos, "vid-1", "sub-owner", "cmpm80k", "p1")
	if _, err := svc.ToggleStar(context.Background(), sessionFor("sub-owner", "owner@school.test"), "vid-1"); !errors.Is(err, ErrSelfStar) {
		t.Fatalf("want ErrSelfStar got %v", err)
	}
}

func TestVideoToggleStarAbsorbsInsertRace(t *testing.T) {
	_, videos, stars, svc := newVideoFixture(t)
	ctx := context.Background()
	seedVideo(videos, "vid-1", "sub-owner", "cmpm80k", "p1")
	viewer := sessionFor("sub-fan", "fan@school.test")

	// A concurrent identical toggle already inserted the row; this request
	// read "no star" before that landed, so its insert hits the unique
	// index. The outcome it wanted is true anyway.
	if _, err := stars.Create(dbctx.New(ctx), starFor(viewer.Subject, "vid-1")); err != nil {
		t.Fatalf("seed star: %v", err)
	}
	stars.missNextLookup = true

	st, err := svc.ToggleStar(ctx, viewer, "vid-1")
	if err != nil {
		t.Fatalf("toggle across race: %v", err)
	}
	if !st.Starred || st.Stars != 1 {
		t.Fatalf("race toggle: want starred/1 got %+v", st)
	}
}

func TestVideoUpdateMetaOwnerOnly(t *testing.T) {
	_, videos, _, svc := newVideoFixture(t)
	ctx := context.Background()
	seedVideo(videos, "vid-1", "sub-owner", "cmpm80k", "p1")

	patch := metaPatch(pointers.Ptr("New title"), nil, nil, nil)
	if _, err := svc.UpdateMeta(ctx, sessionFor("sub-other", "other@school.test"), "vid-1", patch); !errors.Is(err, ErrForbidden) {
		t.Fatalf("classmate: want ErrForbidden got %v", err)
	}
	if _, err := svc.UpdateMeta(ctx, sessionFor("sub-mod", "mod@school.test"), "vid-1", patch); !errors.Is(err, ErrForbidden) {
		t.Fatalf("moderators hide, they do not edit: want ErrForbidden got %v", err)
	}

	view, err := svc.UpdateMeta(ctx, sessionFor("sub-owner", "owner@school.test"), "vid-1",
		metaPatch(pointers.Ptr("New title"), pointers.Ptr("now with sound"), pointers.Ptr("https://example.test/writeup"), pointers.Ptr(0.25)))
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if view.Title != "New title" || view.Description != "now with sound" || view.LinkURL != "https://example.test/writeup" || view.ThumbnailOffset != 0.25 {
		t.Fatalf("patch not applied: %+v", view)
	}
}

func TestVideoUpdateMetaValidation(t *testing.T) {
	_, videos, _, svc := newVideoFixture(t)
	ctx := context.Background()
	seedVideo(videos, "vid-1", "sub-owner", "cmpm80k", "p1")
	owner := sessionFor("sub-owner", "owner@school.test")

	if _, err := svc.UpdateMeta(ctx, owner, "vid-1", metaPatch(nil, nil, nil, pointers.Ptr(1.5))); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("offset over 1: want ErrInvalidInput got %v", err)
	}
	if _, err := svc.UpdateMeta(ctx, owner, "vid-1", metaPatch(nil, nil, nil, pointers.Ptr(-0.1))); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("negative offset: want ErrInvalidInput got %v", err)
	}
	if _, err := svc.UpdateMeta(ctx, owner, "vid-1", metaPatch(nil, nil, pointers.Ptr("javascript:alert(1)"), nil)); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("non-http link: want ErrInvalidInput got %v", err)
	}
	if _, err := svc.UpdateMeta(ctx, owner, "vid-1", metaPatch(nil, nil, pointers.Ptr(""), nil)); err != nil {
		t.Fatalf("clearing the link is allowed: %v", err)
	}
}

func TestVideoDeleteOwnerOnly(t *testing.T) {
	fs, videos, stars, svc := newVideoFixture(t)
	ctx := context.Background()
	seedVideo(videos, "vid-1", "sub-owner", "cmpm80k", "p1")
	if _, err := stars.Create(dbctx.New(ctx), starFor("sub-fan", "vid-1")); err != nil {
		t.Fatalf("seed star: %v", err)
	}

	if err := svc.Delete(ctx, sessionFor("sub-other", "other@school.test"), "vid-1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("classmate delete: want ErrForbidden got %v", err)
	}

	if err := svc.Delete(ctx, sessionFor("sub-owner", "owner@school.test"), "vid-1"); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if rows, _ := videos.GetByIDs(dbctx.New(ctx), []string{"vid-1"}); len(rows) != 0 {
		t.Fatalf("row survived delete")
	}
	if counts, _ := stars.CountByVideoIDs(dbctx.New(ctx), []string{"vid-1"}); counts["vid-1"] != 0 {
		t.Fatalf("stars survived delete")
	}
	if deleted := fs.deletedIDs(); len(deleted) != 1 || deleted[0] != "vid-1" {
		t.Fatalf("remote delete ids: want=[vid-1] got=%v", deleted)
	}
}

func TestVideoDeleteToleratesRemoteFailure(t *testing.T) {
	fs, videos, _, svc := newVideoFixture(t)
	ctx := context.Background()
	seedVideo(videos, "vid-1", "sub-owner", "cmpm80k", "p1")
	fs.deleteErr = errors.New("stream says no")

	if err := svc.Delete(ctx, sessionFor("sub-owner", "owner@school.test"), "vid-1"); err != nil {
		t.Fatalf("local delete must proceed: %v", err)
	}
	if rows, _ := videos.GetByIDs(dbctx.New(ctx), []string{"vid-1"}); len(rows) != 0 {
		t.Fatalf("row survived delete")
	}
}

func TestVideoSetHiddenModeratorOnly(t *testing.T) {
	_, videos, _, svc := newVideoFixture(t)
	ctx := context.Background()
	seedVideo(videos, "vid-1", "sub-owner", "cmpm80k", "p1")

	if _, err := svc.SetHidden(ctx, sessionFor("sub-owner", "owner@school.test"), "vid-1", true); !errors.Is(err, ErrForbidden) {
		t.Fatalf("owner cannot moderate: want ErrForbidden got %v", err)
	}
	if _, err := svc.SetHidden(ctx, nil, "vid-1", true); !errors.Is(err, ErrForbidden) {
		t.Fatalf("anonymous: want ErrForbidden got %v", err)
	}

	mod := sessionFor("sub-mod", "mod@school.test")
	view, err := svc.SetHidden(ctx, mod, "vid-1", true)
	if err != nil {
		t.Fatalf("moderator hide: %v", err)
	}
	if !view.Hidden {
		t.Fatalf("hide did not stick")
	}
	if _, err := svc.Get(ctx, sessionFor("sub-owner", "owner@school.test"), "vid-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("hidden clip should read as missing to the owner")
	}

	view, err = svc.SetHidden(ctx, mod, "vid-1", false)
	if err != nil {
		t.Fatalf("moderator unhide: %v", err)
	}
	if view.Hidden {
		t.Fatalf("unhide did not stick")
	}
	if _, err := svc.Get(ctx, sessionFor("sub-owner", "owner@school.test"), "vid-1"); err != nil {
		t.Fatalf("unhidden clip should be visible again: %v", err)
	}
}
