package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	types "github.com/rndmcnlly/democlips-gallery/internal/domain"
	"github.com/rndmcnlly/democlips-gallery/internal/platform/logger"
)

// One signing secret covers both token kinds, so every claim set carries a
// purpose tag and each verifier accepts exactly one purpose. A session token
// presented as an upload key fails verification, and vice versa.
const (
	purposeSession = "session"
	purposeUpload  = "upload"
)

// SessionClaims is the browser-session token payload.
type SessionClaims struct {
	Email        string `json:"email"`
	Name         string `json:"name,omitempty"`
	Picture      string `json:"picture,omitempty"`
	HostedDomain string `json:"hd,omitempty"`
	Purpose      string `json:"use"`
	jwt.RegisteredClaims
}

// UploadKeyClaims is the delegated upload token payload: one identity, one
// gallery, reusable until expiry.
type UploadKeyClaims struct {
	Email        string `json:"email"`
	CourseID     string `json:"course"`
	AssignmentID string `json:"assignment"`
	Purpose      string `json:"use"`
	jwt.RegisteredClaims
}

type TokenService interface {
	IssueSession(id *types.Identity) (string, error)
	VerifySession(token string) (*SessionClaims, error)
	IssueUploadKey(subjectID, email, courseID, assignmentID string) (string, error)
	VerifyUploadKey(token string) (*UploadKeyClaims, error)
}

type TokenConfig struct {
	Secret       string
	SessionTTL   time.Duration
	UploadKeyTTL time.Duration
}

type tokenService struct {
	log *logger.Logger
	cfg TokenConfig
}

func NewTokenService(log *logger.Logger, cfg TokenConfig) (TokenService, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, fmt.Errorf("missing token secret")
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 7 * 24 * time.Hour
	}
	if cfg.UploadKeyTTL <= 0 {
		cfg.UploadKeyTTL = 24 * time.Hour
	}
	return &tokenService{log: log.With("service", "TokenService"), cfg: cfg}, nil
}

func (s *tokenService) IssueSession(id *types.Identity) (string, error) {
	if id == nil || strings.TrimSpace(id.SubjectID) == "" {
		return "", fmt.Errorf("identity required")
	}
	now := time.Now()
	claims := SessionClaims{
		Email:        id.Email,
		Name:         id.DisplayName,
		Picture:      id.AvatarURL,
		HostedDomain: id.HostedDomain,
		Purpose:      purposeSession,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.SubjectID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.SessionTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
}

func (s *tokenService) VerifySession(token string) (*SessionClaims, error) {
	var claims SessionClaims
	if err := s.parse(token, &claims); err != nil {
		s.log.Debug("session token rejected", "error", err.Error())
		return nil, ErrInvalidToken
	}
	if claims.Purpose != purposeSession || strings.TrimSpace(claims.Subject) == "" {
		s.log.Debug("session token rejected", "error", "purpose mismatch")
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

func (s *tokenService) IssueUploadKey(subjectID, email, courseID, assignmentID string) (string, error) {
	if strings.TrimSpace(subjectID) == "" {
		return "", fmt.Errorf("subjectID required")
	}
	if strings.TrimSpace(courseID) == "" || strings.TrimSpace(assignmentID) == "" {
		return "", fmt.Errorf("gallery coordinate required")
	}
	now := time.Now()
	claims := UploadKeyClaims{
		Email:        email,
		CourseID:     courseID,
		AssignmentID: assignmentID,
		Purpose:      purposeUpload,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.UploadKeyTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.Secret))
}

func (s *tokenService) VerifyUploadKey(token string) (*UploadKeyClaims, error) {
	var claims UploadKeyClaims
	if err := s.parse(token, &claims); err != nil {
		s.log.Debug("upload key rejected", "error", err.Error())
		return nil, ErrInvalidToken
	}
	if claims.Purpose != purposeUpload || strings.TrimSpace(claims.Subject) == "" {
		s.log.Debug("upload key rejected", "error", "purpose mismatch")
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

func (s *tokenService) parse(token string, claims jwt.Claims) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return err
	}
	if !parsed.Valid {
		return fmt.Errorf("invalid token")
	}
	return nil
}
