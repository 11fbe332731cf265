package recipe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"recipe-manager/internal/core/domain"
	"recipe-manager/internal/core/storage"
	"recipe-manager/internal/infrastructure/cache"
	"recipe-manager/internal/pkg/common"
)

// ErrChangesetEmpty rejects an update where every field is absent.
var ErrChangesetEmpty = errors.New("the changeset did not contain any changes")

// ErrLastIngredient blocks removing the only ingredient of a recipe.
var ErrLastIngredient = errors.New("cannot remove the last ingredient of a recipe")

// RecipeNotFoundError reports that the recipe lookup of a composite command
// failed, as opposed to the ingredient lookup.
type RecipeNotFoundError struct {
	ID uuid.UUID
}

func (e *RecipeNotFoundError) Error() string {
	return fmt.Sprintf("no recipe found with id %s", e.ID)
}

// IngredientNotFoundError reports that the ingredient lookup of a composite
// command failed.
type IngredientNotFoundError struct {
	ID uuid.UUID
}

func (e *IngredientNotFoundError) Error() string {
	return fmt.Sprintf("no ingredient found with id %s", e.ID)
}

// IngredientsNotFoundError lists every referenced ingredient id that does not
// exist.
type IngredientsNotFoundError struct {
	IDs []uuid.UUID
}

func (e *IngredientsNotFoundError) Error() string {
	return fmt.Sprintf("the following ingredient ids were not found: %v", e.IDs)
}

// IngredientNotInRecipeError reports an ingredient the recipe does not use.
type IngredientNotInRecipeError struct {
	ID uuid.UUID
}

func (e *IngredientNotInRecipeError) Error() string {
	return fmt.Sprintf("the recipe does not contain an ingredient with id %s", e.ID)
}

// CreateRecipe is the input of Create. Ingredients reference existing
// ingredient ids.
type CreateRecipe struct {
	Name        string
	Description string
	Steps       []string
	Ingredients []domain.IngredientAmountData
	Time        map[string]time.Duration
	Servings    domain.Servings
}

// UpdateRecipe is the input of Update; nil fields are left unchanged.
type UpdateRecipe struct {
	Name        *string
	Description *string
	Steps       *[]string
	Time        *map[string]time.Duration
	Servings    *domain.Servings
}

// Service orchestrates recipe commands and queries over the repositories.
type Service struct {
	recipes     storage.RecipeRepository
	ingredients storage.IngredientRepository
	cache       *cache.Cache
}

// NewService builds the recipe service. cache may be nil.
func NewService(recipes storage.RecipeRepository, ingredients storage.IngredientRepository, c *cache.Cache) *Service {
	return &Service{recipes: recipes, ingredients: ingredients, cache: c}
}

func (s *Service) getRecipe(ctx context.Context, id uuid.UUID) (domain.Recipe, error) {
	recipe, err := s.recipes.GetByID(ctx, id)
	var notFound *storage.NotFoundError
	if errors.As(err, &notFound) {
		return domain.Recipe{}, &RecipeNotFoundError{ID: id}
	}
	if err != nil {
		return domain.Recipe{}, err
	}
	return recipe, nil
}

// Create validates the input, resolves every referenced ingredient in one
// bulk lookup, and stores the recipe. The stored state is re-fetched so the
// caller sees exactly what persisted.
func (s *Service) Create(ctx context.Context, input CreateRecipe) (domain.Recipe, error) {
	steps, err := domain.NewRecipeSteps(input.Steps)
	if err != nil {
		return domain.Recipe{}, err
	}
	if err := input.Servings.Validate(); err != nil {
		return domain.Recipe{}, err
	}

	ids := make([]uuid.UUID, len(input.Ingredients))
	for i, data := range input.Ingredients {
		if err := data.Amount.Validate(); err != nil {
			return domain.Recipe{}, err
		}
		ids[i] = data.IngredientID
	}

	resolved, err := s.ingredients.GetAllByID(ctx, ids)
	if err != nil {
		var missing *storage.MissingIngredientsError
		if errors.As(err, &missing) {
			return domain.Recipe{}, &IngredientsNotFoundError{IDs: missing.IDs}
		}
		return domain.Recipe{}, err
	}

	withAmounts := make([]domain.IngredientWithAmount, len(resolved))
	for i, ing := range resolved {
		data := input.Ingredients[i]
		withAmounts[i] = domain.IngredientWithAmount{
			Ingredient: ing,
			Amount:     data.Amount,
			Notes:      data.Notes,
			Optional:   data.Optional,
		}
	}

	ingredients, err := domain.NewRecipeIngredients(withAmounts)
	if err != nil {
		return domain.Recipe{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return domain.Recipe{}, err
	}

	now := time.Now().UTC()
	_, err = s.recipes.Insert(ctx, domain.Recipe{
		ID:          id,
		Name:        input.Name,
		Description: input.Description,
		Steps:       steps,
		Ingredients: ingredients,
		Time:        input.Time,
		Servings:    input.Servings,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return domain.Recipe{}, err
	}

	common.LogInfo("recipe created", zap.String("id", id.String()))
	return s.getRecipe(ctx, id)
}

// GetByID returns the recipe with the given id, served from cache when
// possible.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (domain.Recipe, error) {
	key := cache.RecipeKey(id.String())
	if data, ok := s.cache.Get(ctx, key); ok {
		var cached domain.Recipe
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
		s.cache.Delete(ctx, key)
	}

	recipe, err := s.getRecipe(ctx, id)
	if err != nil {
		return domain.Recipe{}, err
	}

	if data, err := json.Marshal(recipe); err == nil {
		s.cache.Set(ctx, key, data)
	}
	return recipe, nil
}

// GetAll returns every recipe.
func (s *Service) GetAll(ctx context.Context) ([]domain.Recipe, error) {
	return s.recipes.GetAll(ctx)
}

// Update applies a partial update. An empty changeset is rejected before any
// repository call.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateRecipe) (domain.Recipe, error) {
	var changes domain.RecipeChangeset
	changes.Name = input.Name
	changes.Description = input.Description
	if input.Steps != nil {
		steps, err := domain.NewRecipeSteps(*input.Steps)
		if err != nil {
			return domain.Recipe{}, err
		}
		changes.Steps = &steps
	}
	changes.Time = input.Time
	if input.Servings != nil {
		if err := input.Servings.Validate(); err != nil {
			return domain.Recipe{}, err
		}
		changes.Servings = input.Servings
	}

	if changes.IsEmpty() {
		return domain.Recipe{}, ErrChangesetEmpty
	}

	updated, err := s.recipes.Update(ctx, id, changes)
	var notFound *storage.NotFoundError
	if errors.As(err, &notFound) {
		return domain.Recipe{}, &RecipeNotFoundError{ID: id}
	}
	if err != nil {
		return domain.Recipe{}, err
	}

	s.cache.Delete(ctx, cache.RecipeKey(id.String()))
	return updated, nil
}

// Delete removes the recipe and its ingredient associations.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.getRecipe(ctx, id); err != nil {
		return err
	}
	if err := s.recipes.Delete(ctx, id); err != nil {
		var notFound *storage.NotFoundError
		if errors.As(err, &notFound) {
			return &RecipeNotFoundError{ID: id}
		}
		return err
	}

	s.cache.Delete(ctx, cache.RecipeKey(id.String()))
	common.LogInfo("recipe deleted", zap.String("id", id.String()))
	return nil
}

// AddIngredient associates an existing ingredient with the recipe. The two
// lookups fail with distinct error types so callers can tell which reference
// was dangling.
func (s *Service) AddIngredient(ctx context.Context, recipeID uuid.UUID, data domain.IngredientAmountData) (domain.Recipe, error) {
	if err := data.Amount.Validate(); err != nil {
		return domain.Recipe{}, err
	}

	recipe, err := s.getRecipe(ctx, recipeID)
	if err != nil {
		return domain.Recipe{}, err
	}

	ingredient, err := s.ingredients.GetByID(ctx, data.IngredientID)
	if err != nil {
		var notFound *storage.NotFoundError
		if errors.As(err, &notFound) {
			return domain.Recipe{}, &IngredientNotFoundError{ID: data.IngredientID}
		}
		return domain.Recipe{}, err
	}

	err = s.recipes.AddIngredient(ctx, recipe, domain.IngredientWithAmount{
		Ingredient: ingredient,
		Amount:     data.Amount,
		Notes:      data.Notes,
		Optional:   data.Optional,
	})
	if err != nil {
		return domain.Recipe{}, err
	}

	s.cache.Delete(ctx, cache.RecipeKey(recipeID.String()))
	return s.getRecipe(ctx, recipeID)
}

// RemoveIngredient disassociates an ingredient from the recipe. Removing the
// only ingredient fails fast, before any mutation is attempted; the
// repository enforces the same invariant again.
func (s *Service) RemoveIngredient(ctx context.Context, recipeID, ingredientID uuid.UUID) error {
	recipe, err := s.getRecipe(ctx, recipeID)
	if err != nil {
		return err
	}

	if len(recipe.Ingredients) == 1 {
		return ErrLastIngredient
	}

	target := recipe.Ingredients.FindByIngredientID(ingredientID)
	if target == nil {
		return &IngredientNotInRecipeError{ID: ingredientID}
	}

	if err := s.recipes.DeleteIngredient(ctx, recipe, *target); err != nil {
		var validation *domain.ValidationError
		if errors.As(err, &validation) {
			return ErrLastIngredient
		}
		return err
	}

	s.cache.Delete(ctx, cache.RecipeKey(recipeID.String()))
	return nil
}

// UpdateIngredientAmount replaces how much of an ingredient the recipe uses.
func (s *Service) UpdateIngredientAmount(ctx context.Context, recipeID, ingredientID uuid.UUID, amount domain.IngredientUnit) (domain.Recipe, error) {
	if err := amount.Validate(); err != nil {
		return domain.Recipe{}, err
	}

	recipe, err := s.getRecipe(ctx, recipeID)
	if err != nil {
		return domain.Recipe{}, err
	}

	target := recipe.Ingredients.FindByIngredientID(ingredientID)
	if target == nil {
		return domain.Recipe{}, &IngredientNotInRecipeError{ID: ingredientID}
	}

	if err := s.recipes.UpdateIngredientAmount(ctx, recipe, *target, amount); err != nil {
		return domain.Recipe{}, err
	}

	s.cache.Delete(ctx, cache.RecipeKey(recipeID.String()))
	return s.getRecipe(ctx, recipeID)
}
