package locations

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned by repositories when no row matches.
	ErrNotFound = errors.New("location not found")

	// ErrDuplicateKey is returned by repositories when a create hits a
	// uniqueness constraint. The resolver treats it as "a concurrent
	// writer won the race" and re-fetches instead of failing.
	ErrDuplicateKey = errors.New("duplicate key")
)

// ValidationError reports a malformed or missing input field. Row-level
// during bulk import; never batch-fatal.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// ConflictError reports a uniqueness violation on an explicit
// single-entity create or update. Import absorbs these; the CRUD API
// surfaces them with the conflicting field named.
type ConflictError struct {
	Level Level
	Field string
	Value string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("%s with %s %q already exists", e.Level, e.Field, e.Value)
}

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Level Level
	ID    string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Level, e.ID)
}

func (e NotFoundError) Unwrap() error { return ErrNotFound }

// DependencyExistsError blocks a delete while live children remain.
type DependencyExistsError struct {
	Level      Level
	ChildLevel Level
	Count      int
}

func (e DependencyExistsError) Error() string {
	noun := string(e.ChildLevel)
	if e.Count != 1 {
		if strings.HasSuffix(noun, "y") {
			noun = noun[:len(noun)-1] + "ies"
		} else {
			noun += "s"
		}
	}
	return fmt.Sprintf("cannot delete %s: %d %s still reference it", e.Level, e.Count, noun)
}
