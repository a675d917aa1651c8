package repository

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrConflict is returned when an insert violates a uniqueness constraint.
var ErrConflict = errors.New("repository: unique constraint violated")

// ErrDuplicateNumber is returned when a generated ticket number is already taken.
var ErrDuplicateNumber = errors.New("repository: ticket number already taken")

// ErrStale is returned when an optimistic update finds the row changed since it was read.
var ErrStale = errors.New("repository: row modified concurrently")

// ErrNotFound aliases pgx.ErrNoRows so callers can match either.
var ErrNotFound = pgx.ErrNoRows

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// violatesConstraint reports whether err is a unique violation of the named constraint.
func violatesConstraint(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == constraint
}

// IsNotFound reports whether err means the row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func normaliseLimit(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 500 {
		limit = 500
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
