package services

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound covers both genuinely missing videos and videos hidden
	// from the viewer; callers must not be able to tell the two apart.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is a generic sentinel for permission failures.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidInput is a generic sentinel for rejected request input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidToken is the single answer for every token failure, whether
	// malformed, badly signed, expired, or of the wrong purpose.
	ErrInvalidToken = errors.New("unauthenticated")
	// ErrSelfStar rejects starring one's own clip.
	ErrSelfStar = errors.New("cannot star your own video")
)

// isUniqueViolation reports whether err is Postgres unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
