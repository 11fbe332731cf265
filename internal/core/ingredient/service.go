package ingredient

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"recipe-manager/internal/core/domain"
	"recipe-manager/internal/core/storage"
	"recipe-manager/internal/infrastructure/cache"
	"recipe-manager/internal/pkg/common"
)

// ErrInUseByRecipe blocks deletion of an ingredient still referenced by a
// recipe.
var ErrInUseByRecipe = errors.New("ingredient is used by at least one recipe")

// CreateIngredient is the input of Create.
type CreateIngredient struct {
	Name           string
	Description    string
	DietViolations []string
}

// UpdateIngredient is the input of Update; nil fields are left unchanged.
type UpdateIngredient struct {
	Name           *string
	Description    *string
	DietViolations *[]string
}

// Service orchestrates ingredient commands and queries over the repositories.
type Service struct {
	ingredients storage.IngredientRepository
	recipes     storage.RecipeRepository
	cache       *cache.Cache
}

// NewService builds the ingredient service. cache may be nil.
func NewService(ingredients storage.IngredientRepository, recipes storage.RecipeRepository, c *cache.Cache) *Service {
	return &Service{ingredients: ingredients, recipes: recipes, cache: c}
}

// Create validates the input and stores a new ingredient with a time-ordered
// id. Every empty field is reported in one validation error.
func (s *Service) Create(ctx context.Context, input CreateIngredient) (domain.Ingredient, error) {
	var emptyFields []string
	name, err := domain.NewIngredientName(input.Name)
	if err != nil {
		emptyFields = append(emptyFields, "name")
	}
	description, err := domain.NewIngredientDescription(input.Description)
	if err != nil {
		emptyFields = append(emptyFields, "description")
	}
	if len(emptyFields) > 0 {
		return domain.Ingredient{}, domain.NewValidationError(emptyFields...)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return domain.Ingredient{}, err
	}

	created, err := s.ingredients.Insert(ctx, domain.Ingredient{
		ID:             id,
		Name:           name,
		Description:    description,
		DietViolations: domain.ParseWhichDiets(input.DietViolations),
	})
	if err != nil {
		return domain.Ingredient{}, err
	}

	s.cache.Delete(ctx, cache.IngredientsKey)
	common.LogInfo("ingredient created", zap.String("id", created.ID.String()))
	return created, nil
}

// GetByID returns the ingredient with the given id.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (domain.Ingredient, error) {
	return s.ingredients.GetByID(ctx, id)
}

// GetAll returns every ingredient, served from cache when possible.
func (s *Service) GetAll(ctx context.Context) ([]domain.Ingredient, error) {
	if data, ok := s.cache.Get(ctx, cache.IngredientsKey); ok {
		var cached []domain.Ingredient
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
		s.cache.Delete(ctx, cache.IngredientsKey)
	}

	ingredients, err := s.ingredients.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(ingredients); err == nil {
		s.cache.Set(ctx, cache.IngredientsKey, data)
	}
	return ingredients, nil
}

// Update builds a changeset from the input and applies it. An all-absent
// input fails validation here as well as in the repository.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateIngredient) (domain.Ingredient, error) {
	var changes domain.IngredientChangeset
	var emptyFields []string

	if input.Name != nil {
		name, err := domain.NewIngredientName(*input.Name)
		if err != nil {
			emptyFields = append(emptyFields, "name")
		} else {
			changes.Name = &name
		}
	}
	if input.Description != nil {
		description, err := domain.NewIngredientDescription(*input.Description)
		if err != nil {
			emptyFields = append(emptyFields, "description")
		} else {
			changes.Description = &description
		}
	}
	if len(emptyFields) > 0 {
		return domain.Ingredient{}, domain.NewValidationError(emptyFields...)
	}
	if input.DietViolations != nil {
		diets := domain.ParseWhichDiets(*input.DietViolations)
		changes.DietViolations = &diets
	}

	if changes.IsEmpty() {
		return domain.Ingredient{}, domain.NewValidationError(domain.IngredientChangesetFields...)
	}

	updated, err := s.ingredients.Update(ctx, id, changes)
	if err != nil {
		return domain.Ingredient{}, err
	}

	s.cache.Delete(ctx, cache.IngredientsKey)
	return updated, nil
}

// Delete removes an ingredient unless a recipe still references it. The
// usage check runs before the delete and its result is authoritative.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	ingredient, err := s.ingredients.GetByID(ctx, id)
	if err != nil {
		return err
	}

	inUse, err := s.recipes.RecipesContainingIngredientExist(ctx, ingredient)
	if err != nil {
		return err
	}
	if inUse {
		return ErrInUseByRecipe
	}

	if err := s.ingredients.Delete(ctx, id); err != nil {
		return err
	}

	s.cache.Delete(ctx, cache.IngredientsKey)
	common.LogInfo("ingredient deleted", zap.String("id", id.String()))
	return nil
}
