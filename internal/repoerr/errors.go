// Package repoerr defines the closed set of failures the ledger store can
// report. Every public store operation returns either nil or an *Error.
package repoerr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind identifies a failure class. The zero value is not a valid kind.
type Kind int

const (
	// ContextUnavailable means the persistence backend could not be reached or opened.
	ContextUnavailable Kind = iota + 1
	// EntityNotFound means the operation targeted an id that does not exist.
	EntityNotFound
	// InvalidData means a record failed validation before persistence.
	InvalidData
	// ConflictDetected means a business invariant would be violated.
	ConflictDetected
	// SaveFailed wraps a lower-level write failure.
	SaveFailed
	// FetchFailed wraps a lower-level read failure.
	FetchFailed
	// MigrationRequired means the on-disk schema does not match this build.
	MigrationRequired
)

// Kinds lists every kind in declaration order.
var Kinds = []Kind{
	ContextUnavailable,
	EntityNotFound,
	InvalidData,
	ConflictDetected,
	SaveFailed,
	FetchFailed,
	MigrationRequired,
}

func (k Kind) String() string {
	switch k {
	case ContextUnavailable:
		return "context unavailable"
	case EntityNotFound:
		return "entity not found"
	case InvalidData:
		return "invalid data"
	case ConflictDetected:
		return "conflict detected"
	case SaveFailed:
		return "save failed"
	case FetchFailed:
		return "fetch failed"
	case MigrationRequired:
		return "migration required"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the typed failure returned by the store and its managers.
type Error struct {
	Kind   Kind
	Entity string // "account", "transaction", ...
	ID     string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Entity != "" {
		b.WriteString(": ")
		b.WriteString(e.Entity)
	}
	if e.ID != "" {
		b.WriteString(" ")
		b.WriteString(e.ID)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a sentinel of the same kind. Sentinels carry
// only a kind, so errors.Is(err, ErrNotFound) matches any not-found error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return (t.Entity == "" || t.Entity == e.Entity) && (t.ID == "" || t.ID == e.ID)
}

// Sentinels for errors.Is.
var (
	ErrContextUnavailable = &Error{Kind: ContextUnavailable}
	ErrNotFound           = &Error{Kind: EntityNotFound}
	ErrInvalidData        = &Error{Kind: InvalidData}
	ErrConflict           = &Error{Kind: ConflictDetected}
	ErrSaveFailed         = &Error{Kind: SaveFailed}
	ErrFetchFailed        = &Error{Kind: FetchFailed}
	ErrMigrationRequired  = &Error{Kind: MigrationRequired}
)

func Unavailable(err error) *Error {
	return &Error{Kind: ContextUnavailable, Err: err}
}

func NotFound(entity, id string) *Error {
	return &Error{Kind: EntityNotFound, Entity: entity, ID: id}
}

func Invalid(entity, format string, args ...any) *Error {
	return &Error{Kind: InvalidData, Entity: entity, Detail: fmt.Sprintf(format, args...)}
}

func Conflict(entity, format string, args ...any) *Error {
	return &Error{Kind: ConflictDetected, Entity: entity, Detail: fmt.Sprintf(format, args...)}
}

func Save(entity string, err error) *Error {
	return &Error{Kind: SaveFailed, Entity: entity, Err: err}
}

func Fetch(entity string, err error) *Error {
	return &Error{Kind: FetchFailed, Entity: entity, Err: err}
}

func Migration(detail string, err error) *Error {
	return &Error{Kind: MigrationRequired, Detail: detail, Err: err}
}

// KindOf extracts the kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// As returns the first *Error in err's chain, or nil.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}
