package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe-manager/internal/core/domain"
	"recipe-manager/internal/core/storage"
)

func testIngredient(t *testing.T, name string) domain.Ingredient {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	return domain.Ingredient{
		ID:             id,
		Name:           domain.IngredientName(name),
		Description:    "a test ingredient",
		DietViolations: domain.WhichDiets{domain.DietVegan},
	}
}

func TestIngredientInsertConflicts(t *testing.T) {
	ctx := context.Background()
	repo := NewIngredientRepository()

	tomato := testIngredient(t, "Tomato")
	_, err := repo.Insert(ctx, tomato)
	require.NoError(t, err)

	t.Run("duplicate id", func(t *testing.T) {
		duplicate := tomato
		duplicate.Name = "Cherry Tomato"
		_, err := repo.Insert(ctx, duplicate)
		var conflict *storage.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "id", conflict.Field)
	})

	t.Run("duplicate name", func(t *testing.T) {
		_, err := repo.Insert(ctx, testIngredient(t, "Tomato"))
		var conflict *storage.ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "name", conflict.Field)
	})
}

func TestIngredientGetByID(t *testing.T) {
	ctx := context.Background()
	repo := NewIngredientRepository()

	tomato := testIngredient(t, "Tomato")
	_, err := repo.Insert(ctx, tomato)
	require.NoError(t, err)

	found, err := repo.GetByID(ctx, tomato.ID)
	require.NoError(t, err)
	assert.Equal(t, tomato, found)

	missing, err := uuid.NewV7()
	require.NoError(t, err)
	_, err = repo.GetByID(ctx, missing)
	var notFound *storage.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, missing, notFound.ID)
}

func TestIngredientGetAllByIDReportsEveryMissingID(t *testing.T) {
	ctx := context.Background()
	repo := NewIngredientRepository()

	tomato := testIngredient(t, "Tomato")
	_, err := repo.Insert(ctx, tomato)
	require.NoError(t, err)

	missingA, err := uuid.NewV7()
	require.NoError(t, err)
	missingB, err := uuid.NewV7()
	require.NoError(t, err)

	_, err = repo.GetAllByID(ctx, []uuid.UUID{missingA, tomato.ID, missingB})
	var missing *storage.MissingIngredientsError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []uuid.UUID{missingA, missingB}, missing.IDs)
}

func TestIngredientGetAllByIDPreservesRequestOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewIngredientRepository()

	tomato := testIngredient(t, "Tomato")
	salt := testIngredient(t, "Salt")
	for _, ing := range []domain.Ingredient{tomato, salt} {
		_, err := repo.Insert(ctx, ing)
		require.NoError(t, err)
	}

	resolved, err := repo.GetAllByID(ctx, []uuid.UUID{salt.ID, tomato.ID})
	require.NoError(t, err)
	require.Len(t, resolved, 2)
	assert.Equal(t, salt.ID, resolved[0].ID)
	assert.Equal(t, tomato.ID, resolved[1].ID)
}

func TestIngredientUpdate(t *testing.T) {
	ctx := context.Background()
	repo := NewIngredientRepository()

	tomato := testIngredient(t, "Tomato")
	_, err := repo.Insert(ctx, tomato)
	require.NoError(t, err)

	t.Run("empty changeset fails and does not mutate", func(t *testing.T) {
		_, err := repo.Update(ctx, tomato.ID, domain.IngredientChangeset{})
		var validation *domain.ValidationError
		require.ErrorAs(t, err, &validation)
		assert.Equal(t, []string{"name", "description", "diet_violations"}, validation.Fields)

		stored, err := repo.GetByID(ctx, tomato.ID)
		require.NoError(t, err)
		assert.Equal(t, tomato, stored)
	})

	t.Run("partial update leaves other fields alone", func(t *testing.T) {
		name := domain.IngredientName("Roma Tomato")
		updated, err := repo.Update(ctx, tomato.ID, domain.IngredientChangeset{Name: &name})
		require.NoError(t, err)
		assert.Equal(t, name, updated.Name)
		assert.Equal(t, tomato.Description, updated.Description)
		assert.Equal(t, tomato.DietViolations, updated.DietViolations)
	})

	t.Run("unknown id", func(t *testing.T) {
		missing, err := uuid.NewV7()
		require.NoError(t, err)
		name := domain.IngredientName("x")
		_, err = repo.Update(ctx, missing, domain.IngredientChangeset{Name: &name})
		var notFound *storage.NotFoundError
		assert.ErrorAs(t, err, &notFound)
	})
}

func TestIngredientDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewIngredientRepository()

	tomato := testIngredient(t, "Tomato")
	_, err := repo.Insert(ctx, tomato)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, tomato.ID))

	err = repo.Delete(ctx, tomato.ID)
	var notFound *storage.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}
