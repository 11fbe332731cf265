package recipe

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe-manager/internal/core/domain"
	"recipe-manager/internal/core/storage"
	"recipe-manager/internal/core/storage/memory"
)

func newTestService(t *testing.T) (*Service, storage.IngredientRepository) {
	t.Helper()
	ingredients := memory.NewIngredientRepository()
	return NewService(memory.NewRecipeRepository(), ingredients, nil), ingredients
}

func seedIngredient(t *testing.T, repo storage.IngredientRepository, name string) domain.Ingredient {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	created, err := repo.Insert(context.Background(), domain.Ingredient{
		ID:          id,
		Name:        domain.IngredientName(name),
		Description: "a test ingredient",
	})
	require.NoError(t, err)
	return created
}

func validInput(ingredients ...domain.Ingredient) CreateRecipe {
	data := make([]domain.IngredientAmountData, len(ingredients))
	for i, ing := range ingredients {
		data[i] = domain.IngredientAmountData{
			IngredientID: ing.ID,
			Amount:       domain.Grams(100),
		}
	}
	return CreateRecipe{
		Name:        "Test Dish",
		Description: "simple",
		Steps:       []string{"Dice it"},
		Ingredients: data,
		Time:        map[string]time.Duration{"prep": 10 * time.Minute},
		Servings:    domain.ExactServings(2),
	}
}

func TestCreateRecipe(t *testing.T) {
	ctx := context.Background()
	svc, ingredients := newTestService(t)

	tomato := seedIngredient(t, ingredients, "Tomato")
	salt := seedIngredient(t, ingredients, "Salt")

	created, err := svc.Create(ctx, validInput(tomato, salt))
	require.NoError(t, err)
	require.Len(t, created.Ingredients, 2)
	assert.Equal(t, tomato.ID, created.Ingredients[0].Ingredient.ID)
	assert.Equal(t, salt.ID, created.Ingredients[1].Ingredient.ID)
	assert.Equal(t, domain.ExactServings(2), created.Servings)
	assert.False(t, created.CreatedAt.IsZero())
}

func TestCreateRecipeReportsEveryMissingIngredient(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	missingA, err := uuid.NewV7()
	require.NoError(t, err)
	missingB, err := uuid.NewV7()
	require.NoError(t, err)

	input := CreateRecipe{
		Name:  "Ghost Dish",
		Steps: []string{"Stir"},
		Ingredients: []domain.IngredientAmountData{
			{IngredientID: missingA, Amount: domain.Grams(1)},
			{IngredientID: missingB, Amount: domain.Grams(2)},
		},
		Servings: domain.ExactServings(1),
	}

	_, err = svc.Create(ctx, input)
	var notFound *IngredientsNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, []uuid.UUID{missingA, missingB}, notFound.IDs)
}

func TestCreateRecipeValidation(t *testing.T) {
	ctx := context.Background()
	svc, ingredients := newTestService(t)
	tomato := seedIngredient(t, ingredients, "Tomato")

	t.Run("blank steps rejected", func(t *testing.T) {
		input := validInput(tomato)
		input.Steps = []string{"", "  "}
		_, err := svc.Create(ctx, input)
		var validation *domain.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, []string{"steps"}, validation.Fields)
	})

	t.Run("no ingredients rejected", func(t *testing.T) {
		input := validInput(tomato)
		input.Ingredients = nil
		_, err := svc.Create(ctx, input)
		var validation *domain.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, []string{"ingredients"}, validation.Fields)
	})
}

func TestCreateRecipeRejectsZeroValueTaggedTypes(t *testing.T) {
	ctx := context.Background()
	svc, ingredients := newTestService(t)
	tomato := seedIngredient(t, ingredients, "Tomato")

	t.Run("absent servings", func(t *testing.T) {
		input := validInput(tomato)
		input.Servings = domain.Servings{}
		_, err := svc.Create(ctx, input)
		var validation *domain.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, []string{"servings"}, validation.Fields)
	})

	t.Run("absent amount", func(t *testing.T) {
		input := validInput(tomato)
		input.Ingredients[0].Amount = domain.IngredientUnit{}
		_, err := svc.Create(ctx, input)
		var validation *domain.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, []string{"amount"}, validation.Fields)
	})

	t.Run("nothing invalid was stored", func(t *testing.T) {
		stored, err := svc.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, stored)
	})
}

func TestUpdateRecipe(t *testing.T) {
	ctx := context.Background()
	svc, ingredients := newTestService(t)
	tomato := seedIngredient(t, ingredients, "Tomato")

	created, err := svc.Create(ctx, validInput(tomato))
	require.NoError(t, err)

	t.Run("empty changeset rejected before any repository call", func(t *testing.T) {
		_, err := svc.Update(ctx, created.ID, UpdateRecipe{})
		require.ErrorIs(t, err, ErrChangesetEmpty)

		stored, err := svc.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, stored)
	})

	t.Run("partial update applies", func(t *testing.T) {
		name := "Renamed Dish"
		updated, err := svc.Update(ctx, created.ID, UpdateRecipe{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, name, updated.Name)
		assert.Equal(t, created.Description, updated.Description)
	})

	t.Run("unknown recipe", func(t *testing.T) {
		missing, err := uuid.NewV7()
		require.NoError(t, err)
		name := "x"
		_, err = svc.Update(ctx, missing, UpdateRecipe{Name: &name})
		var notFound *RecipeNotFoundError
		assert.ErrorAs(t, err, &notFound)
	})
}

func TestAddIngredientDistinguishesLookupFailures(t *testing.T) {
	ctx := context.Background()
	svc, ingredients := newTestService(t)
	tomato := seedIngredient(t, ingredients, "Tomato")
	salt := seedIngredient(t, ingredients, "Salt")

	created, err := svc.Create(ctx, validInput(tomato))
	require.NoError(t, err)

	t.Run("unknown recipe", func(t *testing.T) {
		missing, err := uuid.NewV7()
		require.NoError(t, err)
		_, err = svc.AddIngredient(ctx, missing, domain.IngredientAmountData{
			IngredientID: salt.ID, Amount: domain.Grams(5),
		})
		var notFound *RecipeNotFoundError
		assert.ErrorAs(t, err, &notFound)
	})

	t.Run("unknown ingredient", func(t *testing.T) {
		missing, err := uuid.NewV7()
		require.NoError(t, err)
		_, err = svc.AddIngredient(ctx, created.ID, domain.IngredientAmountData{
			IngredientID: missing, Amount: domain.Grams(5),
		})
		var notFound *IngredientNotFoundError
		assert.ErrorAs(t, err, &notFound)
	})

	t.Run("success returns the refreshed recipe", func(t *testing.T) {
		updated, err := svc.AddIngredient(ctx, created.ID, domain.IngredientAmountData{
			IngredientID: salt.ID, Amount: domain.Teaspoons(1), Notes: "to taste",
		})
		require.NoError(t, err)
		require.Len(t, updated.Ingredients, 2)

		added := updated.Ingredients.FindByIngredientID(salt.ID)
		require.NotNil(t, added)
		assert.Equal(t, domain.Teaspoons(1), added.Amount)
		assert.Equal(t, "to taste", added.Notes)
	})
}

func TestRemoveIngredient(t *testing.T) {
	ctx := context.Background()
	svc, ingredients := newTestService(t)
	tomato := seedIngredient(t, ingredients, "Tomato")
	salt := seedIngredient(t, ingredients, "Salt")

	created, err := svc.Create(ctx, validInput(tomato, salt))
	require.NoError(t, err)

	t.Run("unknown ingredient in recipe", func(t *testing.T) {
		missing, err := uuid.NewV7()
		require.NoError(t, err)
		err = svc.RemoveIngredient(ctx, created.ID, missing)
		var notInRecipe *IngredientNotInRecipeError
		require.ErrorAs(t, err, &notInRecipe)
		assert.Equal(t, missing, notInRecipe.ID)
	})

	t.Run("removes the association", func(t *testing.T) {
		require.NoError(t, svc.RemoveIngredient(ctx, created.ID, salt.ID))

		stored, err := svc.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Len(t, stored.Ingredients, 1)
	})

	t.Run("last ingredient is protected", func(t *testing.T) {
		err := svc.RemoveIngredient(ctx, created.ID, tomato.ID)
		require.ErrorIs(t, err, ErrLastIngredient)

		stored, err := svc.GetByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Len(t, stored.Ingredients, 1)
	})
}

func TestUpdateIngredientAmount(t *testing.T) {
	ctx := context.Background()
	svc, ingredients := newTestService(t)
	tomato := seedIngredient(t, ingredients, "Tomato")

	created, err := svc.Create(ctx, validInput(tomato))
	require.NoError(t, err)

	t.Run("unknown ingredient in recipe", func(t *testing.T) {
		missing, err := uuid.NewV7()
		require.NoError(t, err)
		_, err = svc.UpdateIngredientAmount(ctx, created.ID, missing, domain.Cups(1))
		var notInRecipe *IngredientNotInRecipeError
		assert.ErrorAs(t, err, &notInRecipe)
	})

	t.Run("replaces the amount", func(t *testing.T) {
		updated, err := svc.UpdateIngredientAmount(ctx, created.ID, tomato.ID, domain.Cups(1))
		require.NoError(t, err)

		target := updated.Ingredients.FindByIngredientID(tomato.ID)
		require.NotNil(t, target)
		assert.Equal(t, domain.Cups(1), target.Amount)
	})

	t.Run("rejects a zero-value unit and keeps the recipe serializable", func(t *testing.T) {
		_, err := svc.UpdateIngredientAmount(ctx, created.ID, tomato.ID, domain.IngredientUnit{})
		var validation *domain.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, []string{"amount"}, validation.Fields)

		stored, err := svc.GetByID(ctx, created.ID)
		require.NoError(t, err)
		_, err = json.Marshal(stored)
		require.NoError(t, err)

		target := stored.Ingredients.FindByIngredientID(tomato.ID)
		require.NotNil(t, target)
		assert.Equal(t, domain.Cups(1), target.Amount)
	})
}

func TestAddIngredientRejectsZeroValueUnit(t *testing.T) {
	ctx := context.Background()
	svc, ingredients := newTestService(t)
	tomato := seedIngredient(t, ingredients, "Tomato")
	salt := seedIngredient(t, ingredients, "Salt")

	created, err := svc.Create(ctx, validInput(tomato))
	require.NoError(t, err)

	_, err = svc.AddIngredient(ctx, created.ID, domain.IngredientAmountData{
		IngredientID: salt.ID, Amount: domain.IngredientUnit{},
	})
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, []string{"amount"}, validation.Fields)

	stored, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Ingredients, 1)
}

func TestUpdateRecipeRejectsZeroValueServings(t *testing.T) {
	ctx := context.Background()
	svc, ingredients := newTestService(t)
	tomato := seedIngredient(t, ingredients, "Tomato")

	created, err := svc.Create(ctx, validInput(tomato))
	require.NoError(t, err)

	_, err = svc.Update(ctx, created.ID, UpdateRecipe{Servings: &domain.Servings{}})
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, []string{"servings"}, validation.Fields)

	stored, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ExactServings(2), stored.Servings)
}

func TestDeleteRecipe(t *testing.T) {
	ctx := context.Background()
	svc, ingredients := newTestService(t)
	tomato := seedIngredient(t, ingredients, "Tomato")

	created, err := svc.Create(ctx, validInput(tomato))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.GetByID(ctx, created.ID)
	var notFound *RecipeNotFoundError
	assert.ErrorAs(t, err, &notFound)

	err = svc.Delete(ctx, created.ID)
	assert.ErrorAs(t, err, &notFound)
}
