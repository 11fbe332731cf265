package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RecipeSteps is a non-empty ordered list of instruction steps.
type RecipeSteps []string

// NewRecipeSteps filters out blank steps and rejects an empty result.
func NewRecipeSteps(steps []string) (RecipeSteps, error) {
	out := make(RecipeSteps, 0, len(steps))
	for _, s := range steps {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil, NewValidationError("steps")
	}
	return out, nil
}

func (s RecipeSteps) clone() RecipeSteps {
	out := make(RecipeSteps, len(s))
	copy(out, s)
	return out
}

// ServingsKind discriminates the servings variants.
type ServingsKind string

const (
	ServingsExact  ServingsKind = "exact"
	ServingsFromTo ServingsKind = "from_to"
)

// Servings is either an exact serving count or an inclusive range. Counts are
// small unsigned integers; fractional or negative input is rejected at decode
// time.
type Servings struct {
	Kind  ServingsKind
	Exact uint16
	From  uint16
	To    uint16
}

// ExactServings builds an exact serving count.
func ExactServings(count uint16) Servings {
	return Servings{Kind: ServingsExact, Exact: count}
}

// FromToServings builds a serving range.
func FromToServings(from, to uint16) Servings {
	return Servings{Kind: ServingsFromTo, From: from, To: to}
}

// Validate rejects a servings value that carries no known variant, such as
// the zero value an absent JSON field binds to.
func (s Servings) Validate() error {
	switch s.Kind {
	case ServingsExact, ServingsFromTo:
		return nil
	}
	return NewValidationError("servings")
}

// MarshalJSON writes the tagged representation, e.g. {"exact":4} or
// {"from_to":[2,4]}.
func (s Servings) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case ServingsExact:
		return json.Marshal(map[string]uint16{string(ServingsExact): s.Exact})
	case ServingsFromTo:
		return json.Marshal(map[string][2]uint16{string(ServingsFromTo): {s.From, s.To}})
	default:
		return nil, fmt.Errorf("unknown servings kind %q", s.Kind)
	}
}

// UnmarshalJSON accepts only the tagged object representation.
func (s *Servings) UnmarshalJSON(data []byte) error {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	if len(tagged) != 1 {
		return fmt.Errorf("expected exactly one servings tag, got %d", len(tagged))
	}

	for tag, raw := range tagged {
		switch ServingsKind(tag) {
		case ServingsExact:
			var exact uint16
			if err := json.Unmarshal(raw, &exact); err != nil {
				return err
			}
			*s = ExactServings(exact)
			return nil
		case ServingsFromTo:
			var bounds [2]uint16
			if err := json.Unmarshal(raw, &bounds); err != nil {
				return err
			}
			*s = FromToServings(bounds[0], bounds[1])
			return nil
		default:
			return fmt.Errorf("unknown servings tag %q", tag)
		}
	}
	return fmt.Errorf("empty servings object")
}

// IngredientWithAmount couples an ingredient with how much of it a recipe
// uses. Notes is free text, empty when absent.
type IngredientWithAmount struct {
	Ingredient Ingredient
	Amount     IngredientUnit
	Notes      string
	Optional   bool
}

// Clone returns a deep copy.
func (i IngredientWithAmount) Clone() IngredientWithAmount {
	i.Ingredient = i.Ingredient.Clone()
	return i
}

// RecipeIngredients is a non-empty list of ingredients with amounts.
type RecipeIngredients []IngredientWithAmount

// NewRecipeIngredients rejects an empty list. A recipe without ingredients is
// not a recipe.
func NewRecipeIngredients(ingredients []IngredientWithAmount) (RecipeIngredients, error) {
	if len(ingredients) == 0 {
		return nil, NewValidationError("ingredients")
	}
	return RecipeIngredients(ingredients), nil
}

// FindByIngredientID returns the entry referencing the given ingredient, or
// nil when the recipe does not use it.
func (r RecipeIngredients) FindByIngredientID(id uuid.UUID) *IngredientWithAmount {
	for i := range r {
		if r[i].Ingredient.ID == id {
			return &r[i]
		}
	}
	return nil
}

func (r RecipeIngredients) clone() RecipeIngredients {
	out := make(RecipeIngredients, len(r))
	for i, ing := range r {
		out[i] = ing.Clone()
	}
	return out
}

// Recipe is the aggregate root of the recipe collection.
type Recipe struct {
	ID          uuid.UUID
	Name        string
	Description string
	Steps       RecipeSteps
	Ingredients RecipeIngredients
	Time        map[string]time.Duration
	Servings    Servings
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Clone returns a deep copy, so repository callers cannot mutate stored state.
func (r Recipe) Clone() Recipe {
	r.Steps = r.Steps.clone()
	r.Ingredients = r.Ingredients.clone()
	if r.Time != nil {
		times := make(map[string]time.Duration, len(r.Time))
		for k, v := range r.Time {
			times[k] = v
		}
		r.Time = times
	}
	return r
}

// DietViolations aggregates the diet violations of every ingredient used by
// the recipe, preserving order of appearance and dropping duplicates.
func (r Recipe) DietViolations() WhichDiets {
	seen := make(map[DietViolation]bool)
	var out WhichDiets
	for _, ing := range r.Ingredients {
		for _, d := range ing.Ingredient.DietViolations {
			if !seen[d] {
				seen[d] = true
				out = append(out, d)
			}
		}
	}
	return out
}

// RecipeChangeset is a partial update; nil fields are left unchanged.
type RecipeChangeset struct {
	Name        *string
	Description *string
	Steps       *RecipeSteps
	Time        *map[string]time.Duration
	Servings    *Servings
}

// RecipeChangesetFields lists every settable field, in the order reported
// when a changeset is empty.
var RecipeChangesetFields = []string{"name", "description", "steps", "time", "servings"}

// IsEmpty reports whether no field is set. An empty changeset is a validation
// error, not a no-op.
func (c RecipeChangeset) IsEmpty() bool {
	return c.Name == nil && c.Description == nil && c.Steps == nil &&
		c.Time == nil && c.Servings == nil
}

// IngredientAmountData references an ingredient by ID together with the
// amount a recipe should use. It is the pre-resolution form of
// IngredientWithAmount.
type IngredientAmountData struct {
	IngredientID uuid.UUID
	Amount       IngredientUnit
	Notes        string
	Optional     bool
}
