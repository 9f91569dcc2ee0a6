package models

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

var (
	// ErrProductNotFound is returned when a product does not exist or belongs to another owner.
	ErrProductNotFound = errors.New("product not found")
	// ErrImageNotFound is returned when an image does not exist.
	ErrImageNotFound = errors.New("image not found")
	// ErrUnauthorized is returned when the caller does not own the target entity.
	ErrUnauthorized = errors.New("unauthorized")
)

// ConstraintKind names the class of integrity rule a write violated.
type ConstraintKind string

const (
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintForeignKey ConstraintKind = "foreign_key"
	ConstraintNotNull    ConstraintKind = "not_null"
	ConstraintCheck      ConstraintKind = "check"
)

const genericDBMessage = "Something went wrong"

// DBError is a database failure reduced to something safe to show a caller.
// Kind is empty when the failure is not an integrity violation.
type DBError struct {
	Kind       ConstraintKind
	Message    string
	Constraint string
	Err        error
}

func (e *DBError) Error() string {
	if e.Constraint != "" {
		return e.Message + " (" + e.Constraint + ")"
	}
	return e.Message
}

func (e *DBError) Unwrap() error {
	return e.Err
}

// IsConstraintViolation reports whether the store rejected the write.
func (e *DBError) IsConstraintViolation() bool {
	return e.Kind != ""
}

// ClassifyDBError maps driver errors from pgx, lib/pq and sqlite onto a DBError.
// It returns nil for a nil error.
func ClassifyDBError(err error) *DBError {
	if err == nil {
		return nil
	}

	var classified *DBError
	if errors.As(err, &classified) {
		return classified
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fromSQLState(pgErr.Code, pgErr.ConstraintName, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return fromSQLState(string(pqErr.Code), pqErr.Constraint, err)
	}

	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return newConstraintError(ConstraintUnique, "", err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return newConstraintError(ConstraintForeignKey, "", err)
	}

	// sqlite reports constraint failures only through the message text.
	msg := err.Error()
	for _, p := range sqliteConstraintPrefixes {
		if idx := strings.Index(msg, p.prefix); idx >= 0 {
			constraint := strings.TrimSpace(strings.TrimPrefix(msg[idx+len(p.prefix):], ":"))
			return newConstraintError(p.kind, constraint, err)
		}
	}

	return &DBError{Message: genericDBMessage, Err: err}
}

var sqliteConstraintPrefixes = []struct {
	prefix string
	kind   ConstraintKind
}{
	{"UNIQUE constraint failed", ConstraintUnique},
	{"FOREIGN KEY constraint failed", ConstraintForeignKey},
	{"NOT NULL constraint failed", ConstraintNotNull},
	{"CHECK constraint failed", ConstraintCheck},
}

func fromSQLState(code, constraint string, err error) *DBError {
	switch code {
	case "23505":
		return newConstraintError(ConstraintUnique, constraint, err)
	case "23503":
		return newConstraintError(ConstraintForeignKey, constraint, err)
	case "23502":
		return newConstraintError(ConstraintNotNull, constraint, err)
	case "23514":
		return newConstraintError(ConstraintCheck, constraint, err)
	}
	return &DBError{Message: genericDBMessage, Err: err}
}

func newConstraintError(kind ConstraintKind, constraint string, err error) *DBError {
	var msg string
	switch kind {
	case ConstraintUnique:
		msg = "A record with this value already exists"
		if strings.Contains(strings.ToLower(constraint), "sku") {
			msg = "A product with this SKU already exists"
		}
	case ConstraintForeignKey:
		msg = "Referenced record does not exist"
	case ConstraintNotNull:
		msg = "A required value is missing"
	case ConstraintCheck:
		msg = "A value is out of range"
	}
	return &DBError{Kind: kind, Message: msg, Constraint: constraint, Err: err}
}
