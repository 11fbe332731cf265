package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"recipe-manager/internal/core/domain"
	"recipe-manager/internal/core/storage"
)

// RecipeRepository is an in-memory recipe store. Ingredient associations are
// embedded in the recipe value itself.
type RecipeRepository struct {
	mu      sync.Mutex
	recipes map[uuid.UUID]domain.Recipe
}

// NewRecipeRepository builds an empty in-memory recipe store.
func NewRecipeRepository() *RecipeRepository {
	return &RecipeRepository{
		recipes: make(map[uuid.UUID]domain.Recipe),
	}
}

// Insert stores the recipe.
func (r *RecipeRepository) Insert(ctx context.Context, recipe domain.Recipe) (domain.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.recipes[recipe.ID]; ok {
		return domain.Recipe{}, &storage.ConflictError{Field: "recipe id"}
	}

	r.recipes[recipe.ID] = recipe.Clone()
	return recipe, nil
}

// GetByID returns a copy of the recipe with the given id.
func (r *RecipeRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	recipe, ok := r.recipes[id]
	if !ok {
		return domain.Recipe{}, &storage.NotFoundError{ID: id}
	}
	return recipe.Clone(), nil
}

// GetAll returns a copy of every stored recipe.
func (r *RecipeRepository) GetAll(ctx context.Context) ([]domain.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Recipe, 0, len(r.recipes))
	for _, recipe := range r.recipes {
		out = append(out, recipe.Clone())
	}
	return out, nil
}

// Delete removes the recipe and its embedded associations.
func (r *RecipeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.recipes[id]; !ok {
		return &storage.NotFoundError{ID: id}
	}
	delete(r.recipes, id)
	return nil
}

// Update applies the changeset and refreshes updated_at.
func (r *RecipeRepository) Update(ctx context.Context, id uuid.UUID, changes domain.RecipeChangeset) (domain.Recipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	recipe, ok := r.recipes[id]
	if !ok {
		return domain.Recipe{}, &storage.NotFoundError{ID: id}
	}

	if changes.Name != nil {
		recipe.Name = *changes.Name
	}
	if changes.Description != nil {
		recipe.Description = *changes.Description
	}
	if changes.Steps != nil {
		recipe.Steps = *changes.Steps
	}
	if changes.Time != nil {
		recipe.Time = *changes.Time
	}
	if changes.Servings != nil {
		recipe.Servings = *changes.Servings
	}
	recipe.UpdatedAt = time.Now().UTC()

	r.recipes[id] = recipe.Clone()
	return recipe.Clone(), nil
}

// AddIngredient appends an association to the recipe.
func (r *RecipeRepository) AddIngredient(ctx context.Context, recipe domain.Recipe, ingredient domain.IngredientWithAmount) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.recipes[recipe.ID]
	if !ok {
		return &storage.NotFoundError{ID: recipe.ID}
	}

	stored.Ingredients = append(stored.Ingredients, ingredient.Clone())
	stored.UpdatedAt = time.Now().UTC()
	r.recipes[recipe.ID] = stored
	return nil
}

// DeleteIngredient removes an association. Rebuilding the ingredient list
// through its constructor is what enforces the never-empty invariant here.
func (r *RecipeRepository) DeleteIngredient(ctx context.Context, recipe domain.Recipe, ingredient domain.IngredientWithAmount) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.recipes[recipe.ID]
	if !ok {
		return &storage.NotFoundError{ID: recipe.ID}
	}

	remaining := make([]domain.IngredientWithAmount, 0, len(stored.Ingredients))
	for _, assoc := range stored.Ingredients {
		if assoc.Ingredient.ID != ingredient.Ingredient.ID {
			remaining = append(remaining, assoc)
		}
	}
	if len(remaining) == len(stored.Ingredients) {
		// Nothing matched; succeed without touching the timestamp.
		return nil
	}

	rebuilt, err := domain.NewRecipeIngredients(remaining)
	if err != nil {
		return err
	}

	stored.Ingredients = rebuilt
	stored.UpdatedAt = time.Now().UTC()
	r.recipes[recipe.ID] = stored
	return nil
}

// UpdateIngredientAmount replaces the amount on an existing association.
func (r *RecipeRepository) UpdateIngredientAmount(ctx context.Context, recipe domain.Recipe, ingredient domain.IngredientWithAmount, amount domain.IngredientUnit) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.recipes[recipe.ID]
	if !ok {
		return &storage.NotFoundError{ID: recipe.ID}
	}

	for i := range stored.Ingredients {
		if stored.Ingredients[i].Ingredient.ID == ingredient.Ingredient.ID {
			stored.Ingredients[i].Amount = amount
			stored.UpdatedAt = time.Now().UTC()
			r.recipes[recipe.ID] = stored
			return nil
		}
	}
	return &storage.NotFoundError{ID: ingredient.Ingredient.ID}
}

// RecipesContainingIngredientExist reports whether any recipe references the
// ingredient.
func (r *RecipeRepository) RecipesContainingIngredientExist(ctx context.Context, ingredient domain.Ingredient) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, recipe := range r.recipes {
		if recipe.Ingredients.FindByIngredientID(ingredient.ID) != nil {
			return true, nil
		}
	}
	return false, nil
}
