package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// UnitKind discriminates the measurement variants of an IngredientUnit.
type UnitKind string

const (
	UnitMilliliters UnitKind = "milliliters"
	UnitGrams       UnitKind = "grams"
	UnitTeaspoons   UnitKind = "teaspoons"
	UnitCups        UnitKind = "cups"
	UnitOther       UnitKind = "other"
)

// IngredientUnit is a tagged measurement quantity. Unit is only set for the
// UnitOther kind.
type IngredientUnit struct {
	Kind   UnitKind
	Amount float64
	Unit   string
}

// Grams builds a gram quantity.
func Grams(amount float64) IngredientUnit {
	return IngredientUnit{Kind: UnitGrams, Amount: amount}
}

// Milliliters builds a milliliter quantity.
func Milliliters(amount float64) IngredientUnit {
	return IngredientUnit{Kind: UnitMilliliters, Amount: amount}
}

// Teaspoons builds a teaspoon quantity.
func Teaspoons(amount float64) IngredientUnit {
	return IngredientUnit{Kind: UnitTeaspoons, Amount: amount}
}

// Cups builds a cup quantity.
func Cups(amount float64) IngredientUnit {
	return IngredientUnit{Kind: UnitCups, Amount: amount}
}

// OtherUnit builds a free-form quantity.
func OtherUnit(amount float64, unit string) IngredientUnit {
	return IngredientUnit{Kind: UnitOther, Amount: amount, Unit: unit}
}

// FromTablespoons converts tablespoons to teaspoons (1 tbsp = 3 tsp).
func FromTablespoons(tablespoons float64) IngredientUnit {
	return Teaspoons(tablespoons * 3.0)
}

// DefaultUnit is the zero quantity, Grams(0).
func DefaultUnit() IngredientUnit {
	return Grams(0)
}

// Validate rejects a unit that carries no known variant, such as the zero
// value an absent JSON field binds to.
func (u IngredientUnit) Validate() error {
	switch u.Kind {
	case UnitMilliliters, UnitGrams, UnitTeaspoons, UnitCups, UnitOther:
		return nil
	}
	return NewValidationError("amount")
}

type otherUnitPayload struct {
	Amount *float64 `json:"amount"`
	Unit   *string  `json:"unit"`
}

// MarshalJSON writes the externally tagged representation, e.g. {"grams":20}
// or {"other":{"amount":10,"unit":"cloves"}}.
func (u IngredientUnit) MarshalJSON() ([]byte, error) {
	switch u.Kind {
	case UnitMilliliters, UnitGrams, UnitTeaspoons, UnitCups:
		return json.Marshal(map[string]float64{string(u.Kind): u.Amount})
	case UnitOther:
		return json.Marshal(map[string]interface{}{
			string(UnitOther): map[string]interface{}{
				"amount": u.Amount,
				"unit":   u.Unit,
			},
		})
	default:
		return nil, fmt.Errorf("unknown unit kind %q", u.Kind)
	}
}

// UnmarshalJSON accepts only the tagged object representation; anything else
// is a deserialization failure.
func (u *IngredientUnit) UnmarshalJSON(data []byte) error {
	var tagged map[string]json.RawMessage
	if err := json.Unmarshal(data, &tagged); err != nil {
		return err
	}
	if len(tagged) != 1 {
		return fmt.Errorf("expected exactly one unit tag, got %d", len(tagged))
	}

	for tag, raw := range tagged {
		switch UnitKind(tag) {
		case UnitMilliliters, UnitGrams, UnitTeaspoons, UnitCups:
			var amount float64
			if err := json.Unmarshal(raw, &amount); err != nil {
				return err
			}
			*u = IngredientUnit{Kind: UnitKind(tag), Amount: amount}
			return nil
		case UnitOther:
			var payload otherUnitPayload
			if err := json.Unmarshal(raw, &payload); err != nil {
				return err
			}
			if payload.Amount == nil || payload.Unit == nil {
				return fmt.Errorf("unit tag %q requires both amount and unit", tag)
			}
			*u = OtherUnit(*payload.Amount, *payload.Unit)
			return nil
		default:
			return fmt.Errorf("unknown unit tag %q", tag)
		}
	}
	return fmt.Errorf("empty unit object")
}

var measurementPattern = regexp.MustCompile(`^\s*([0-9]+(?:[.,][0-9]+)?)\s*(\S.*?)\s*$`)

// ParseIngredientUnit parses a free-text measurement such as "4 tbsp" or
// "10 cloves" into a tagged quantity. Recognized unit synonyms normalize to
// their canonical variant; anything else becomes an Other quantity.
func ParseIngredientUnit(input string) (IngredientUnit, error) {
	matches := measurementPattern.FindStringSubmatch(input)
	if matches == nil {
		return IngredientUnit{}, &MeasurementError{Input: input}
	}

	amount, err := strconv.ParseFloat(strings.ReplaceAll(matches[1], ",", "."), 64)
	if err != nil {
		return IngredientUnit{}, &MeasurementError{Input: input}
	}

	unit := matches[2]
	switch strings.ToLower(unit) {
	case "g", "gr", "gram", "grams":
		return Grams(amount), nil
	case "ml", "milliliter", "milliliters", "mililiters":
		return Milliliters(amount), nil
	case "cup", "cups":
		return Cups(amount), nil
	case "tsp", "teaspoon", "teaspoons":
		return Teaspoons(amount), nil
	case "tbsp", "tablespoon", "tablespoons":
		return FromTablespoons(amount), nil
	default:
		return OtherUnit(amount, unit), nil
	}
}
