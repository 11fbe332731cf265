package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIngredientName(t *testing.T) {
	name, err := NewIngredientName("Tomato")
	require.NoError(t, err)
	assert.Equal(t, "Tomato", name.String())

	_, err = NewIngredientName("")
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, []string{"name"}, validation.Fields)
}

func TestNewIngredientNameKeepsInputVerbatim(t *testing.T) {
	name, err := NewIngredientName("  Tomato  ")
	require.NoError(t, err)
	assert.Equal(t, "  Tomato  ", name.String())
}

func TestNewIngredientDescription(t *testing.T) {
	_, err := NewIngredientDescription("")
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, []string{"description"}, validation.Fields)
}

func TestParseDietViolation(t *testing.T) {
	for _, valid := range []string{"Vegan", "Vegetarian", "GlutenFree"} {
		diet, err := ParseDietViolation(valid)
		require.NoError(t, err)
		assert.Equal(t, valid, string(diet))
	}

	_, err := ParseDietViolation("vegan")
	var match *MatchError
	require.ErrorAs(t, err, &match)
	assert.Equal(t, "diet_violations", match.Field)
}

func TestParseWhichDietsDropsUnknownTags(t *testing.T) {
	diets := ParseWhichDiets([]string{"Vegan", "INVALID", "GlutenFree", ""})
	assert.Equal(t, WhichDiets{DietVegan, DietGlutenFree}, diets)
}

func TestIngredientChangesetIsEmpty(t *testing.T) {
	assert.True(t, IngredientChangeset{}.IsEmpty())

	name := IngredientName("Salt")
	assert.False(t, IngredientChangeset{Name: &name}.IsEmpty())
}

func TestIngredientCloneIsDeep(t *testing.T) {
	original := Ingredient{
		Name:           "Tomato",
		Description:    "red",
		DietViolations: WhichDiets{DietVegan},
	}

	clone := original.Clone()
	clone.DietViolations[0] = DietGlutenFree

	assert.Equal(t, WhichDiets{DietVegan}, original.DietViolations)
}
