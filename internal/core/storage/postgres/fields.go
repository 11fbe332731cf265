package postgres

import (
	"errors"

	"github.com/lib/pq"
)

// uniqueViolation is the postgres error code for unique-constraint failures.
const uniqueViolation = "23505"

// constraintToField maps unique-constraint names from the schema to the field
// name reported in conflict errors.
var constraintToField = map[string]string{
	"ingredients_name_key":        "name",
	"ingredients_pkey":            "id",
	"recipes_pkey":                "recipe id",
	"ingredients_in_recipes_pkey": "ingredient id",
}

// conflictField extracts the conflicting field name from a postgres
// unique-violation error. Returns false when err is not one.
func conflictField(err error) (string, bool) {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || string(pqErr.Code) != uniqueViolation {
		return "", false
	}
	if field, ok := constraintToField[pqErr.Constraint]; ok {
		return field, true
	}
	return pqErr.Constraint, true
}
