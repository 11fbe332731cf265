package storage

import (
	"fmt"

	"github.com/google/uuid"
)

// ConflictError reports a uniqueness violation on insert. Field names the
// offending column, e.g. "id", "name" or "recipe id".
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("an entry with this %s already exists", e.Field)
}

// NotFoundError reports a lookup that matched nothing.
type NotFoundError struct {
	ID uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no entry found with id %s", e.ID)
}

// MissingIngredientsError reports every requested ingredient id that was not
// found, not just the first. Bulk callers depend on the complete set.
type MissingIngredientsError struct {
	IDs []uuid.UUID
}

func (e *MissingIngredientsError) Error() string {
	return fmt.Sprintf("the following ingredient ids were not found: %v", e.IDs)
}
