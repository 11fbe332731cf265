package storage

import (
	"context"

	"github.com/google/uuid"

	"recipe-manager/internal/core/domain"
)

// IngredientRepository is the durable collection of ingredients. All
// implementations must be safe for concurrent use and must return deep copies
// so callers can never mutate stored state.
type IngredientRepository interface {
	// Insert stores a new ingredient. Returns ConflictError when an
	// ingredient with the same id or name already exists.
	Insert(ctx context.Context, ingredient domain.Ingredient) (domain.Ingredient, error)

	// GetByID returns the ingredient with the given id, or NotFoundError.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Ingredient, error)

	// GetAll returns every stored ingredient.
	GetAll(ctx context.Context) ([]domain.Ingredient, error)

	// GetAllByID resolves the given ids, preserving request order. When any
	// id is missing it returns MissingIngredientsError listing every missing
	// id.
	GetAllByID(ctx context.Context, ids []uuid.UUID) ([]domain.Ingredient, error)

	// Update applies the changeset to the ingredient with the given id and
	// returns the updated ingredient. An empty changeset is a validation
	// error.
	Update(ctx context.Context, id uuid.UUID, changes domain.IngredientChangeset) (domain.Ingredient, error)

	// Delete removes the ingredient with the given id, or returns
	// NotFoundError. Referential checks are the caller's responsibility.
	Delete(ctx context.Context, id uuid.UUID) error
}

// RecipeRepository is the durable collection of recipes together with their
// ingredient associations.
type RecipeRepository interface {
	// Insert stores a new recipe and its ingredient associations. Returns
	// ConflictError when a recipe with the same id already exists.
	Insert(ctx context.Context, recipe domain.Recipe) (domain.Recipe, error)

	// GetByID returns the recipe with the given id, or NotFoundError.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Recipe, error)

	// GetAll returns every stored recipe.
	GetAll(ctx context.Context) ([]domain.Recipe, error)

	// Delete removes the recipe and its ingredient associations, or returns
	// NotFoundError.
	Delete(ctx context.Context, id uuid.UUID) error

	// Update applies the changeset to the recipe with the given id and
	// returns the updated recipe. Fields equal to the stored value are
	// skipped.
	Update(ctx context.Context, id uuid.UUID, changes domain.RecipeChangeset) (domain.Recipe, error)

	// AddIngredient associates an ingredient with the recipe.
	AddIngredient(ctx context.Context, recipe domain.Recipe, ingredient domain.IngredientWithAmount) error

	// DeleteIngredient removes an association. Rejects the removal with a
	// validation error when it would leave the recipe without ingredients.
	DeleteIngredient(ctx context.Context, recipe domain.Recipe, ingredient domain.IngredientWithAmount) error

	// UpdateIngredientAmount replaces the amount of an existing association.
	UpdateIngredientAmount(ctx context.Context, recipe domain.Recipe, ingredient domain.IngredientWithAmount, amount domain.IngredientUnit) error

	// RecipesContainingIngredientExist reports whether any recipe references
	// the ingredient.
	RecipesContainingIngredientExist(ctx context.Context, ingredient domain.Ingredient) (bool, error)
}
