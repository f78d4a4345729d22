package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	repoGallery "github.com/rndmcnlly/democlips-gallery/internal/data/repos/gallery"
	types "github.com/rndmcnlly/democlips-gallery/internal/domain"
	"github.com/rndmcnlly/democlips-gallery/internal/http/middleware"
	"github.com/rndmcnlly/democlips-gallery/internal/platform/logger"
	"github.com/rndmcnlly/democlips-gallery/internal/services"
)

const handlerTestSecret = "handler-test-secret"

func testTokens(t *testing.T) services.TokenService {
	t.Helper()
	tokens, err := services.NewTokenService(logger.NewNop(), services.TokenConfig{Secret: handlerTestSecret})
	if err != nil {
		t.Fatalf("new token service: %v", err)
	}
	return tokens
}

func sessionTokenFor(t *testing.T, tokens services.TokenService, subjectID, email string) string {
	t.Helper()
	token, err := tokens.IssueSession(&types.Identity{SubjectID: subjectID, Email: email})
	if err != nil {
		t.Fatalf("issue session: %v", err)
	}
	return token
}

// sessionGroup mounts the real session middleware the way the router does,
// so handler tests exercise cookie extraction too.
func sessionGroup(engine *gin.Engine, tokens services.TokenService) *gin.RouterGroup {
	sm := middleware.NewSessionMiddleware(logger.NewNop(), tokens)
	api := engine.Group("/api")
	api.Use(sm.RequireSession())
	return api
}

func doRequest(t *testing.T, engine *gin.Engine, method, path, sessionToken string, body io.Reader, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if sessionToken != "" {
		req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: sessionToken})
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

type fakeUploadService struct {
	mu          sync.Mutex
	beginCalls  int
	directCalls int
	beginErr    error
	directErr   error

	lastOwner        services.Uploader
	lastCourseID     string
	lastAssignmentID string
	lastLength       int64
	lastFilename     string
	lastContentType  string
	lastBody         []byte

	intent *services.UploadIntent
}

func (f *fakeUploadService) Begin(ctx context.Context, owner services.Uploader, courseID, assignmentID string, uploadLength int64) (*services.UploadIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.beginCalls++
	f.lastOwner = owner
	f.lastCourseID = courseID
	f.lastAssignmentID = assignmentID
	f.lastLength = uploadLength
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	if f.intent != nil {
		return f.intent, nil
	}
	return &services.UploadIntent{VideoID: "vid-new", UploadURL: "https://upload.test/vid-new"}, nil
}

func (f *fakeUploadService) Direct(ctx context.Context, owner services.Uploader, courseID, assignmentID string, r io.Reader, filename, contentType string) (*services.UploadIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.directCalls++
	f.lastOwner = owner
	f.lastCourseID = courseID
	f.lastAssignmentID = assignmentID
	f.lastFilename = filename
	f.lastContentType = contentType
	if r != nil {
		body, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("read upload body: %w", err)
		}
		f.lastBody = body
	}
	if f.directErr != nil {
		return nil, f.directErr
	}
	if f.intent != nil {
		return f.intent, nil
	}
	return &services.UploadIntent{VideoID: "vid-new"}, nil
}

type fakeVideoService struct {
	view  *services.VideoView
	state *services.StarState

	getErr    error
	updateErr error
	deleteErr error
	starErr   error
	hiddenErr error

	lastViewer *services.SessionClaims
	lastID     string
	lastPatch  repoGallery.VideoMetaPatch
	lastHidden bool

	deleteCalls int
}

func (f *fakeVideoService) Get(ctx context.Context, viewer *services.SessionClaims, id string) (*services.VideoView, error) {
	f.lastViewer = viewer
	f.lastID = id
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.view, nil
}

func (f *fakeVideoService) UpdateMeta(ctx context.Context, viewer *services.SessionClaims, id string, patch repoGallery.VideoMetaPatch) (*services.VideoView, error) {
	f.lastViewer = viewer
	f.lastID = id
	f.lastPatch = patch
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.view, nil
}

func (f *fakeVideoService) Delete(ctx context.Context, viewer *services.SessionClaims, id string) error {
	f.lastViewer = viewer
	f.lastID = id
	f.deleteCalls++
	return f.deleteErr
}

func (f *fakeVideoService) ToggleStar(ctx context.Context, viewer *services.SessionClaims, id string) (*services.StarState, error) {
	f.lastViewer = viewer
	f.lastID = id
	if f.starErr != nil {
		return nil, f.starErr
	}
	return f.state, nil
}

func (f *fakeVideoService) SetHidden(ctx context.Context, viewer *services.SessionClaims, id string, hidden bool) (*services.VideoView, error) {
	f.lastViewer = viewer
	f.lastID = id
	f.lastHidden = hidden
	if f.hiddenErr != nil {
		return nil, f.hiddenErr
	}
	return f.view, nil
}

type fakeGalleryService struct {
	page   *services.GalleryPage
	counts []repoGallery.GalleryCount

	listErr    error
	summaryErr error

	lastViewer       *services.SessionClaims
	lastCourseID     string
	lastAssignmentID string
}

func (f *fakeGalleryService) List(ctx context.Context, viewer *services.SessionClaims, courseID, assignmentID string) (*services.GalleryPage, error) {
	f.lastViewer = viewer
	f.lastCourseID = courseID
	f.lastAssignmentID = assignmentID
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.page, nil
}

func (f *fakeGalleryService) Summary(ctx context.Context, viewer *services.SessionClaims) ([]repoGallery.GalleryCount, error) {
	f.lastViewer = viewer
	if f.summaryErr != nil {
		return nil, f.summaryErr
	}
	return f.counts, nil
}

type fakeAuthService struct {
	completeErr error
	keyErr      error

	token    string
	identity *types.Identity
	key      string

	lastState        string
	lastCode         string
	lastViewer       *services.SessionClaims
	lastCourseID     string
	lastAssignmentID string
}

func (f *fakeAuthService) LoginURL(state string) string {
	f.lastState = state
	return "https://accounts.test/o/oauth2/auth?state=" + state
}

func (f *fakeAuthService) CompleteLogin(ctx context.Context, code string) (string, *types.Identity, error) {
	f.lastCode = code
	if f.completeErr != nil {
		return "", nil, f.completeErr
	}
	return f.token, f.identity, nil
}

func (f *fakeAuthService) CreateUploadKey(viewer *services.SessionClaims, courseID, assignmentID string) (string, error) {
	f.lastViewer = viewer
	f.lastCourseID = courseID
	f.lastAssignmentID = assignmentID
	if f.keyErr != nil {
		return "", f.keyErr
	}
	if f.key != "" {
		return f.key, nil
	}
	return "fake-upload-key", nil
}
