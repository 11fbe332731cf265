package ingredient

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe-manager/internal/core/domain"
	"recipe-manager/internal/core/storage"
	"recipe-manager/internal/core/storage/memory"
)

func newTestService() (*Service, *memory.RecipeRepository) {
	recipes := memory.NewRecipeRepository()
	return NewService(memory.NewIngredientRepository(), recipes, nil), recipes
}

func TestCreateIngredient(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	created, err := svc.Create(ctx, CreateIngredient{
		Name:           "Tomato",
		Description:    "red and round",
		DietViolations: []string{"Vegan", "INVALID"},
	})
	require.NoError(t, err)
	assert.NotEqual(t, created.ID.String(), "00000000-0000-0000-0000-000000000000")
	assert.Equal(t, "Tomato", created.Name.String())
	assert.Equal(t, domain.WhichDiets{domain.DietVegan}, created.DietViolations)

	fetched, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, fetched)
}

func TestCreateIngredientReportsAllEmptyFields(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	_, err := svc.Create(ctx, CreateIngredient{})
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, []string{"name", "description"}, validation.Fields)
}

func TestCreateIngredientDuplicateName(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	_, err := svc.Create(ctx, CreateIngredient{Name: "Tomato", Description: "red"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, CreateIngredient{Name: "Tomato", Description: "also red"})
	var conflict *storage.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "name", conflict.Field)
}

func TestUpdateIngredient(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	created, err := svc.Create(ctx, CreateIngredient{Name: "Tomato", Description: "red"})
	require.NoError(t, err)

	t.Run("all-absent input fails and does not mutate", func(t *testing.T) {
		_, err := svc.Update(ctx, created.ID, UpdateIngredient{})
		var validation *domain.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, []string{"name", "description", "diet_violations"}, validation.Fields)

		stored, err := svc.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, stored)
	})

	t.Run("empty value on a present field fails", func(t *testing.T) {
		empty := ""
		_, err := svc.Update(ctx, created.ID, UpdateIngredient{Name: &empty})
		var validation *domain.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, []string{"name"}, validation.Fields)
	})

	t.Run("partial update applies", func(t *testing.T) {
		diets := []string{"GlutenFree"}
		updated, err := svc.Update(ctx, created.ID, UpdateIngredient{DietViolations: &diets})
		require.NoError(t, err)
		assert.Equal(t, domain.WhichDiets{domain.DietGlutenFree}, updated.DietViolations)
		assert.Equal(t, created.Name, updated.Name)
	})
}

func TestDeleteIngredient(t *testing.T) {
	ctx := context.Background()
	svc, recipes := newTestService()

	created, err := svc.Create(ctx, CreateIngredient{Name: "Tomato", Description: "red"})
	require.NoError(t, err)

	steps, err := domain.NewRecipeSteps([]string{"Dice it"})
	require.NoError(t, err)
	recipeIngredients, err := domain.NewRecipeIngredients([]domain.IngredientWithAmount{
		{Ingredient: created, Amount: domain.Grams(100)},
	})
	require.NoError(t, err)

	recipeID, err := uuid.NewV7()
	require.NoError(t, err)
	dish := domain.Recipe{
		ID:          recipeID,
		Name:        "Tomato Dish",
		Description: "simple",
		Steps:       steps,
		Ingredients: recipeIngredients,
		Servings:    domain.ExactServings(1),
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	_, err = recipes.Insert(ctx, dish)
	require.NoError(t, err)

	t.Run("blocked while referenced", func(t *testing.T) {
		err := svc.Delete(ctx, created.ID)
		require.ErrorIs(t, err, ErrInUseByRecipe)

		_, err = svc.GetByID(ctx, created.ID)
		assert.NoError(t, err)
	})

	t.Run("allowed after the recipe is gone", func(t *testing.T) {
		require.NoError(t, recipes.Delete(ctx, dish.ID))
		require.NoError(t, svc.Delete(ctx, created.ID))

		_, err := svc.GetByID(ctx, created.ID)
		var notFound *storage.NotFoundError
		assert.ErrorAs(t, err, &notFound)
	})
}
