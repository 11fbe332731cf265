package domain

import (
	"github.com/google/uuid"
)

// IngredientName is a non-empty ingredient name. Input is stored verbatim,
// without trimming.
type IngredientName string

// NewIngredientName validates and wraps a raw name.
func NewIngredientName(value string) (IngredientName, error) {
	if value == "" {
		return "", NewValidationError("name")
	}
	return IngredientName(value), nil
}

func (n IngredientName) String() string { return string(n) }

// IngredientDescription is a non-empty ingredient description.
type IngredientDescription string

// NewIngredientDescription validates and wraps a raw description.
func NewIngredientDescription(value string) (IngredientDescription, error) {
	if value == "" {
		return "", NewValidationError("description")
	}
	return IngredientDescription(value), nil
}

func (d IngredientDescription) String() string { return string(d) }

// DietViolation tags an ingredient as violating a diet.
type DietViolation string

const (
	DietVegan      DietViolation = "Vegan"
	DietVegetarian DietViolation = "Vegetarian"
	DietGlutenFree DietViolation = "GlutenFree"
)

var dietViolationVariants = []string{
	string(DietVegan),
	string(DietVegetarian),
	string(DietGlutenFree),
}

// ParseDietViolation parses a single tag with strict matching.
func ParseDietViolation(value string) (DietViolation, error) {
	switch value {
	case string(DietVegan):
		return DietVegan, nil
	case string(DietVegetarian):
		return DietVegetarian, nil
	case string(DietGlutenFree):
		return DietGlutenFree, nil
	default:
		return "", &MatchError{Field: "diet_violations", Allowed: dietViolationVariants}
	}
}

// WhichDiets is an ordered collection of diet violations. Duplicates are
// permitted; order matters only for round-tripping.
type WhichDiets []DietViolation

// ParseWhichDiets builds a collection from raw strings. Unrecognized tags are
// dropped, not reported.
func ParseWhichDiets(values []string) WhichDiets {
	out := make(WhichDiets, 0, len(values))
	for _, v := range values {
		if diet, err := ParseDietViolation(v); err == nil {
			out = append(out, diet)
		}
	}
	return out
}

// Strings converts the collection back to its raw form.
func (w WhichDiets) Strings() []string {
	out := make([]string, len(w))
	for i, d := range w {
		out[i] = string(d)
	}
	return out
}

func (w WhichDiets) clone() WhichDiets {
	if w == nil {
		return nil
	}
	out := make(WhichDiets, len(w))
	copy(out, w)
	return out
}

// Ingredient is identified by its ID; its name must additionally be unique
// across the collection.
type Ingredient struct {
	ID             uuid.UUID
	Name           IngredientName
	Description    IngredientDescription
	DietViolations WhichDiets
}

// Clone returns a deep copy, so repository callers cannot mutate stored state.
func (i Ingredient) Clone() Ingredient {
	i.DietViolations = i.DietViolations.clone()
	return i
}

// IngredientChangeset is a partial update; nil fields are left unchanged.
type IngredientChangeset struct {
	Name           *IngredientName
	Description    *IngredientDescription
	DietViolations *WhichDiets
}

// IngredientChangesetFields lists every settable field, in the order reported
// when a changeset is empty.
var IngredientChangesetFields = []string{"name", "description", "diet_violations"}

// IsEmpty reports whether no field is set. An empty changeset is a validation
// error, not a no-op.
func (c IngredientChangeset) IsEmpty() bool {
	return c.Name == nil && c.Description == nil && c.DietViolations == nil
}
