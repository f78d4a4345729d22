package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/datatypes"

	googleclient "github.com/rndmcnlly/democlips-gallery/internal/clients/google"
	repoAuth "github.com/rndmcnlly/democlips-gallery/internal/data/repos/auth"
	types "github.com/rndmcnlly/democlips-gallery/internal/domain"
	"github.com/rndmcnlly/democlips-gallery/internal/platform/dbctx"
	"github.com/rndmcnlly/democlips-gallery/internal/platform/logger"
)

type AuthService interface {
	LoginURL(state string) string
	// CompleteLogin exchanges the OAuth callback code, enforces the
	// organizational-domain allow-list, upserts the identity, and returns a
	// signed session token.
	CompleteLogin(ctx context.Context, code string) (string, *types.Identity, error)
	// CreateUploadKey mints a delegated upload token scoped to one gallery
	// for the session's identity.
	CreateUploadKey(viewer *SessionClaims, courseID, assignmentID string) (string, error)
}

type AuthConfig struct {
	// AllowedEmailDomain restricts sign-in to one organization. Empty means
	// open sign-in (local development).
	AllowedEmailDomain string
}

type authService struct {
	log        *logger.Logger
	cfg        AuthConfig
	google     googleclient.Client
	tokens     TokenService
	identities repoAuth.IdentityRepo
}

func NewAuthService(log *logger.Logger, cfg AuthConfig, google googleclient.Client, tokens TokenService, identities repoAuth.IdentityRepo) (AuthService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if google == nil {
		return nil, fmt.Errorf("google client required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token service required")
	}
	if identities == nil {
		return nil, fmt.Errorf("identity repo required")
	}
	return &authService{
		log:        log.With("service", "AuthService"),
		cfg:        cfg,
		google:     google,
		tokens:     tokens,
		identities: identities,
	}, nil
}

func (s *authService) LoginURL(state string) string {
	return s.google.AuthCodeURL(state)
}

func (s *authService) CompleteLogin(ctx context.Context, code string) (string, *types.Identity, error) {
	profile, err := s.google.Exchange(ctx, code)
	if err != nil {
		return "", nil, fmt.Errorf("complete login: %w", err)
	}
	if !profile.EmailVerified {
		return "", nil, fmt.Errorf("%w: email not verified", ErrForbidden)
	}
	// Hard server-side gate. The hd hint on the consent URL only shapes the
	// account chooser; an attacker-supplied account lands here regardless.
	if !s.domainAllowed(profile.HostedDomain, profile.Email) {
		s.log.Warn("login rejected for disallowed domain", "email", profile.Email, "hosted_domain", profile.HostedDomain)
		return "", nil, fmt.Errorf("%w: account domain not allowed", ErrForbidden)
	}

	rawClaims, err := json.Marshal(profile)
	if err != nil {
		return "", nil, fmt.Errorf("encode claims: %w", err)
	}
	id := &types.Identity{
		SubjectID:    profile.Sub,
		Email:        profile.Email,
		DisplayName:  profile.Name,
		AvatarURL:    profile.Picture,
		HostedDomain: profile.HostedDomain,
		RawClaims:    datatypes.JSON(rawClaims),
	}
	if _, err := s.identities.Upsert(dbctx.New(ctx), id); err != nil {
		return "", nil, fmt.Errorf("upsert identity: %w", err)
	}

	token, err := s.tokens.IssueSession(id)
	if err != nil {
		return "", nil, fmt.Errorf("issue session: %w", err)
	}
	s.log.Info("login completed", "subject_id", id.SubjectID, "email", id.Email)
	return token, id, nil
}

func (s *authService) CreateUploadKey(viewer *SessionClaims, courseID, assignmentID string) (string, error) {
	if viewer == nil {
		return "", ErrInvalidToken
	}
	if strings.TrimSpace(courseID) == "" || strings.TrimSpace(assignmentID) == "" {
		return "", fmt.Errorf("%w: gallery coordinate required", ErrInvalidInput)
	}
	return s.tokens.IssueUploadKey(viewer.Subject, viewer.Email, courseID, assignmentID)
}

// domainAllowed accepts the hosted-domain claim when present, and falls back
// to the verified email's domain for accounts whose userinfo omits hd.
func (s *authService) domainAllowed(hostedDomain, email string) bool {
	allowed := strings.ToLower(strings.TrimSpace(s.cfg.AllowedEmailDomain))
	if allowed == "" {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(hostedDomain), allowed) {
		return true
	}
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(email)), "@"+allowed)
}
