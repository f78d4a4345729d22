package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	googleclient "github.com/rndmcnlly/democlips-gallery/internal/clients/google"
	"github.com/rndmcnlly/democlips-gallery/internal/clients/stream"
	repoGallery "github.com/rndmcnlly/democlips-gallery/internal/data/repos/gallery"
	types "github.com/rndmcnlly/democlips-gallery/internal/domain"
	"github.com/rndmcnlly/democlips-gallery/internal/platform/dbctx"
)

// fakeStream records provider traffic and serves canned responses. The
// duration backfill probes it from several goroutines, hence the mutex.
type fakeStream struct {
	mu sync.Mutex

	sessionErr error
	uploadErr  error
	nextID     int

	sessionCalls int
	uploadCalls  int
	lastLength   int64
	lastCreator  string
	lastFilename string
	lastBody     []byte

	deleted   []string
	deleteErr error

	statuses  map[string]*stream.VideoStatus
	statusErr error
	getCalls  int
}

func (f *fakeStream) CreateUploadSession(_ context.Context, ownerEmail string, uploadLength int64) (*stream.UploadSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessionCalls++
	f.lastCreator = ownerEmail
	f.lastLength = uploadLength
	if f.sessionErr != nil {
		return nil, f.sessionErr
	}
	f.nextID++
	id := fmt.Sprintf("fake-vid-%d", f.nextID)
	return &stream.UploadSession{VideoID: id, UploadURL: "https://upload.test/" + id}, nil
}

func (f *fakeStream) Upload(_ context.Context, r io.Reader, filename, _ string, ownerEmail string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadCalls++
	f.lastCreator = ownerEmail
	f.lastFilename = filename
	body, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.lastBody = body
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.nextID++
	return fmt.Sprintf("fake-vid-%d", f.nextID), nil
}

func (f *fakeStream) Delete(_ context.Context, videoID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, videoID)
	return f.deleteErr
}

func (f *fakeStream) GetVideo(_ context.Context, videoID string) (*stream.VideoStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	if st, ok := f.statuses[videoID]; ok {
		return st, nil
	}
	return &stream.VideoStatus{VideoID: videoID}, nil
}

func (f *fakeStream) PlaybackURL(videoID string) string {
	return "https://play.test/" + videoID + "/iframe"
}

func (f *fakeStream) ThumbnailURL(videoID string, offset float64) string {
	return fmt.Sprintf("https://play.test/%s/thumbnails/thumbnail.jpg?time=%gs", videoID, offset)
}

func (f *fakeStream) deletedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

// memVideoRepo is a map-backed VideoRepo. Reads hand out copies the way a
// real query materializes fresh rows.
type memVideoRepo struct {
	rows      map[string]*types.Video
	owners    map[string]*types.Identity
	createErr error
	deleteErr error
}

func newMemVideoRepo() *memVideoRepo {
	return &memVideoRepo{rows: map[string]*types.Video{}, owners: map[string]*types.Identity{}}
}

func (m *memVideoRepo) addOwner(id *types.Identity) {
	m.owners[id.SubjectID] = id
}

func (m *memVideoRepo) copyRow(v *types.Video) *types.Video {
	cp := *v
	if v.DurationSeconds != nil {
		d := *v.DurationSeconds
		cp.DurationSeconds = &d
	}
	if owner, ok := m.owners[v.OwnerID]; ok {
		cp.Owner = owner
	}
	return &cp
}

func (m *memVideoRepo) Create(_ dbctx.Context, v *types.Video) (*types.Video, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	if _, exists := m.rows[v.ID]; exists {
		return nil, &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint \"video_pkey\""}
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now()
	}
	cp := *v
	m.rows[v.ID] = &cp
	return v, nil
}

func (m *memVideoRepo) GetByIDs(_ dbctx.Context, ids []string) ([]*types.Video, error) {
	var out []*types.Video
	for _, id := range ids {
		if v, ok := m.rows[id]; ok {
			out = append(out, m.copyRow(v))
		}
	}
	return out, nil
}

func (m *memVideoRepo) GetByOwnerAndGallery(_ dbctx.Context, ownerID, courseID, assignmentID string) ([]*types.Video, error) {
	var out []*types.Video
	for _, v := range m.rows {
		if v.OwnerID == ownerID && v.CourseID == courseID && v.AssignmentID == assignmentID {
			out = append(out, m.copyRow(v))
		}
	}
	return out, nil
}

func (m *memVideoRepo) ListByGallery(_ dbctx.Context, courseID, assignmentID string) ([]*types.Video, error) {
	var out []*types.Video
	for _, v := range m.rows {
		if v.CourseID == courseID && v.AssignmentID == assignmentID {
			out = append(out, m.copyRow(v))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memVideoRepo) ListProcessing(_ dbctx.Context, olderThan time.Time, limit int) ([]*types.Video, error) {
	var out []*types.Video
	for _, v := range m.rows {
		if v.DurationSeconds == nil && v.CreatedAt.Before(olderThan) {
			out = append(out, m.copyRow(v))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memVideoRepo) UpdateMeta(_ dbctx.Context, id string, patch repoGallery.VideoMetaPatch) error {
	v, ok := m.rows[id]
	if !ok {
		return nil
	}
	if patch.Title != nil {
		v.Title = *patch.Title
	}
	if patch.Description != nil {
		v.Description = *patch.Description
	}
	if patch.LinkURL != nil {
		v.LinkURL = *patch.LinkURL
	}
	if patch.ThumbnailOffset != nil {
		v.ThumbnailOffset = *patch.ThumbnailOffset
	}
	return nil
}

func (m *memVideoRepo) SetHidden(_ dbctx.Context, id string, hidden bool) error {
	if v, ok := m.rows[id]; ok {
		v.Hidden = hidden
	}
	return nil
}

func (m *memVideoRepo) SetDuration(_ dbctx.Context, id string, seconds float64) error {
	if v, ok := m.rows[id]; ok {
		v.DurationSeconds = &seconds
	}
	return nil
}

func (m *memVideoRepo) DeleteByIDs(_ dbctx.Context, ids []string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	for _, id := range ids {
		delete(m.rows, id)
	}
	return nil
}

func (m *memVideoRepo) GallerySummary(_ dbctx.Context) ([]repoGallery.GalleryCount, error) {
	byKey := map[string]*repoGallery.GalleryCount{}
	for _, v := range m.rows {
		key := v.CourseID + "/" + v.AssignmentID
		gc, ok := byKey[key]
		if !ok {
			gc = &repoGallery.GalleryCount{CourseID: v.CourseID, AssignmentID: v.AssignmentID}
			byKey[key] = gc
		}
		gc.Total++
		if v.Hidden {
			gc.Hidden++
		}
		if v.DurationSeconds == nil {
			gc.Processing++
		}
	}
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]repoGallery.GalleryCount, 0, len(keys))
	for _, k := range keys {
		out = append(out, *byKey[k])
	}
	return out, nil
}

// memStarRepo mimics the unique (identity_id, video_id) index, returning the
// same 23505 a real insert would. missNextLookup lets a test stage the
// lookup/insert race the toggle path has to absorb.
type memStarRepo struct {
	rows           []*types.Star
	missNextLookup bool
}

func (m *memStarRepo) find(identityID, videoID string) int {
	for i, s := range m.rows {
		if s.IdentityID == identityID && s.VideoID == videoID {
			return i
		}
	}
	return -1
}

func (m *memStarRepo) Create(_ dbctx.Context, s *types.Star) (*types.Star, error) {
	if m.find(s.IdentityID, s.VideoID) >= 0 {
		return nil, &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint \"idx_star_identity_video\""}
	}
	cp := *s
	m.rows = append(m.rows, &cp)
	return s, nil
}

func (m *memStarRepo) DeleteByIdentityAndVideo(_ dbctx.Context, identityID, videoID string) error {
	if i := m.find(identityID, videoID); i >= 0 {
		m.rows = append(m.rows[:i], m.rows[i+1:]...)
	}
	return nil
}

func (m *memStarRepo) DeleteByVideoIDs(_ dbctx.Context, videoIDs []string) error {
	keep := m.rows[:0]
	for _, s := range m.rows {
		drop := false
		for _, id := range videoIDs {
			if s.VideoID == id {
				drop = true
				break
			}
		}
		if !drop {
			keep = append(keep, s)
		}
	}
	m.rows = keep
	return nil
}

func (m *memStarRepo) GetByIdentityAndVideos(_ dbctx.Context, identityID string, videoIDs []string) ([]*types.Star, error) {
	if m.missNextLookup {
		m.missNextLookup = false
		return nil, nil
	}
	var out []*types.Star
	for _, s := range m.rows {
		if s.IdentityID != identityID {
			continue
		}
		for _, id := range videoIDs {
			if s.VideoID == id {
				cp := *s
				out = append(out, &cp)
				break
			}
		}
	}
	return out, nil
}

func (m *memStarRepo) CountByVideoIDs(_ dbctx.Context, videoIDs []string) (map[string]int64, error) {
	out := map[string]int64{}
	for _, s := range m.rows {
		for _, id := range videoIDs {
			if s.VideoID == id {
				out[s.VideoID]++
				break
			}
		}
	}
	return out, nil
}

type memIdentityRepo struct {
	rows        map[string]*types.Identity
	upsertCalls int
}

func newMemIdentityRepo() *memIdentityRepo {
	return &memIdentityRepo{rows: map[string]*types.Identity{}}
}

func (m *memIdentityRepo) Upsert(_ dbctx.Context, id *types.Identity) (*types.Identity, error) {
	m.upsertCalls++
	cp := *id
	m.rows[id.SubjectID] = &cp
	return id, nil
}

func (m *memIdentityRepo) GetBySubjectIDs(_ dbctx.Context, subjectIDs []string) ([]*types.Identity, error) {
	var out []*types.Identity
	for _, sid := range subjectIDs {
		if id, ok := m.rows[sid]; ok {
			cp := *id
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeGoogle struct {
	profile     *googleclient.Profile
	exchangeErr error
	lastCode    string
}

func (f *fakeGoogle) AuthCodeURL(state string) string {
	return "https://accounts.test/o/oauth2/auth?state=" + state
}

func (f *fakeGoogle) Exchange(_ context.Context, code string) (*googleclient.Profile, error) {
	f.lastCode = code
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	if f.profile == nil {
		return nil, fmt.Errorf("no profile configured")
	}
	cp := *f.profile
	return &cp, nil
}

func seedVideo(repo *memVideoRepo, id, ownerID, courseID, assignmentID string) *types.Video {
	v := &types.Video{
		ID:           id,
		OwnerID:      ownerID,
		CourseID:     courseID,
		AssignmentID: assignmentID,
		CreatedAt:    time.Now(),
	}
	cp := *v
	repo.rows[v.ID] = &cp
	return v
}

func starFor(identityID, videoID string) *types.Star {
	return &types.Star{IdentityID: identityID, VideoID: videoID}
}

func metaPatch(title, description, linkURL *string, thumbnailOffset *float64) repoGallery.VideoMetaPatch {
	return repoGallery.VideoMetaPatch{Title: title, Description: description, LinkURL: linkURL, ThumbnailOffset: thumbnailOffset}
}

func sessionFor(subjectID, email string) *SessionClaims {
	claims := &SessionClaims{Email: email, Purpose: purposeSession}
	claims.Subject = subjectID
	claims.Name = strings.SplitN(email, "@", 2)[0]
	return claims
}
