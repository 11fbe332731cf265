package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"recipe-manager/internal/core/domain"
	"recipe-manager/internal/core/storage"
)

// IngredientRepository is an in-memory ingredient store. One mutex guards the
// whole map; operations hold it for their full duration.
type IngredientRepository struct {
	mu          sync.Mutex
	ingredients map[uuid.UUID]domain.Ingredient
}

// NewIngredientRepository builds an empty in-memory ingredient store.
func NewIngredientRepository() *IngredientRepository {
	return &IngredientRepository{
		ingredients: make(map[uuid.UUID]domain.Ingredient),
	}
}

// Insert stores the ingredient, enforcing uniqueness of both id and name.
func (r *IngredientRepository) Insert(ctx context.Context, ingredient domain.Ingredient) (domain.Ingredient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ingredients[ingredient.ID]; ok {
		return domain.Ingredient{}, &storage.ConflictError{Field: "id"}
	}
	for _, existing := range r.ingredients {
		if existing.Name == ingredient.Name {
			return domain.Ingredient{}, &storage.ConflictError{Field: "name"}
		}
	}

	r.ingredients[ingredient.ID] = ingredient.Clone()
	return ingredient, nil
}

// GetByID returns a copy of the ingredient with the given id.
func (r *IngredientRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Ingredient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ingredient, ok := r.ingredients[id]
	if !ok {
		return domain.Ingredient{}, &storage.NotFoundError{ID: id}
	}
	return ingredient.Clone(), nil
}

// GetAll returns a copy of every stored ingredient.
func (r *IngredientRepository) GetAll(ctx context.Context) ([]domain.Ingredient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Ingredient, 0, len(r.ingredients))
	for _, ingredient := range r.ingredients {
		out = append(out, ingredient.Clone())
	}
	return out, nil
}

// GetAllByID resolves ids in request order, collecting every missing id
// before failing.
func (r *IngredientRepository) GetAllByID(ctx context.Context, ids []uuid.UUID) ([]domain.Ingredient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Ingredient, 0, len(ids))
	var missing []uuid.UUID
	for _, id := range ids {
		ingredient, ok := r.ingredients[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		out = append(out, ingredient.Clone())
	}
	if len(missing) > 0 {
		return nil, &storage.MissingIngredientsError{IDs: missing}
	}
	return out, nil
}

// Update applies the changeset. An empty changeset fails validation listing
// every settable field.
func (r *IngredientRepository) Update(ctx context.Context, id uuid.UUID, changes domain.IngredientChangeset) (domain.Ingredient, error) {
	if changes.IsEmpty() {
		return domain.Ingredient{}, domain.NewValidationError(domain.IngredientChangesetFields...)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ingredient, ok := r.ingredients[id]
	if !ok {
		return domain.Ingredient{}, &storage.NotFoundError{ID: id}
	}

	if changes.Name != nil {
		ingredient.Name = *changes.Name
	}
	if changes.Description != nil {
		ingredient.Description = *changes.Description
	}
	if changes.DietViolations != nil {
		ingredient.DietViolations = *changes.DietViolations
	}

	r.ingredients[id] = ingredient.Clone()
	return ingredient.Clone(), nil
}

// Delete removes the ingredient with the given id.
func (r *IngredientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.ingredients[id]; !ok {
		return &storage.NotFoundError{ID: id}
	}
	delete(r.ingredients, id)
	return nil
}
