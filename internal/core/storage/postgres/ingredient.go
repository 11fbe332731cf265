package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"recipe-manager/internal/core/domain"
	"recipe-manager/internal/core/storage"
)

// IngredientRepository stores ingredients in postgres.
type IngredientRepository struct {
	db *sqlx.DB
}

// NewIngredientRepository builds a postgres-backed ingredient store.
func NewIngredientRepository(db *sqlx.DB) *IngredientRepository {
	return &IngredientRepository{db: db}
}

type ingredientRow struct {
	ID             uuid.UUID      `db:"id"`
	Name           string         `db:"name"`
	Description    string         `db:"description"`
	DietViolations pq.StringArray `db:"diet_violations"`
}

func (row ingredientRow) toDomain() (domain.Ingredient, error) {
	name, err := domain.NewIngredientName(row.Name)
	if err != nil {
		return domain.Ingredient{}, &domain.DeserializationError{Field: "name", Err: err}
	}
	description, err := domain.NewIngredientDescription(row.Description)
	if err != nil {
		return domain.Ingredient{}, &domain.DeserializationError{Field: "description", Err: err}
	}
	return domain.Ingredient{
		ID:             row.ID,
		Name:           name,
		Description:    description,
		DietViolations: domain.ParseWhichDiets(row.DietViolations),
	}, nil
}

// Insert stores the ingredient, mapping unique violations to the offending
// field.
func (r *IngredientRepository) Insert(ctx context.Context, ingredient domain.Ingredient) (domain.Ingredient, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO ingredients (id, name, description, diet_violations) VALUES ($1, $2, $3, $4)`,
		ingredient.ID, ingredient.Name.String(), ingredient.Description.String(),
		pq.Array(ingredient.DietViolations.Strings()),
	)
	if err != nil {
		if field, ok := conflictField(err); ok {
			return domain.Ingredient{}, &storage.ConflictError{Field: field}
		}
		return domain.Ingredient{}, fmt.Errorf("insert ingredient: %w", err)
	}
	return ingredient, nil
}

// GetByID returns the ingredient with the given id.
func (r *IngredientRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Ingredient, error) {
	var row ingredientRow
	err := r.db.GetContext(ctx, &row,
		`SELECT id, name, description, diet_violations FROM ingredients WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Ingredient{}, &storage.NotFoundError{ID: id}
	}
	if err != nil {
		return domain.Ingredient{}, fmt.Errorf("get ingredient: %w", err)
	}
	return row.toDomain()
}

// GetAll returns every stored ingredient.
func (r *IngredientRepository) GetAll(ctx context.Context) ([]domain.Ingredient, error) {
	var rows []ingredientRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT id, name, description, diet_violations FROM ingredients`)
	if err != nil {
		return nil, fmt.Errorf("get all ingredients: %w", err)
	}

	out := make([]domain.Ingredient, 0, len(rows))
	for _, row := range rows {
		ingredient, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, ingredient)
	}
	return out, nil
}

// GetAllByID resolves ids in request order, collecting every missing id
// before failing.
func (r *IngredientRepository) GetAllByID(ctx context.Context, ids []uuid.UUID) ([]domain.Ingredient, error) {
	var rows []ingredientRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT id, name, description, diet_violations FROM ingredients WHERE id = ANY($1)`,
		pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("get ingredients by id: %w", err)
	}

	found := make(map[uuid.UUID]ingredientRow, len(rows))
	for _, row := range rows {
		found[row.ID] = row
	}

	out := make([]domain.Ingredient, 0, len(ids))
	var missing []uuid.UUID
	for _, id := range ids {
		row, ok := found[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		ingredient, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, ingredient)
	}
	if len(missing) > 0 {
		return nil, &storage.MissingIngredientsError{IDs: missing}
	}
	return out, nil
}

// Update applies the changeset field by field, skipping writes whose new
// value equals the stored one.
func (r *IngredientRepository) Update(ctx context.Context, id uuid.UUID, changes domain.IngredientChangeset) (domain.Ingredient, error) {
	if changes.IsEmpty() {
		return domain.Ingredient{}, domain.NewValidationError(domain.IngredientChangesetFields...)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Ingredient{}, fmt.Errorf("begin update ingredient: %w", err)
	}
	defer tx.Rollback()

	var row ingredientRow
	err = tx.GetContext(ctx, &row,
		`SELECT id, name, description, diet_violations FROM ingredients WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Ingredient{}, &storage.NotFoundError{ID: id}
	}
	if err != nil {
		return domain.Ingredient{}, fmt.Errorf("fetch ingredient for update: %w", err)
	}

	if changes.Name != nil && changes.Name.String() != row.Name {
		if _, err := tx.ExecContext(ctx,
			`UPDATE ingredients SET name = $1 WHERE id = $2`, changes.Name.String(), id); err != nil {
			if field, ok := conflictField(err); ok {
				return domain.Ingredient{}, &storage.ConflictError{Field: field}
			}
			return domain.Ingredient{}, fmt.Errorf("update ingredient name: %w", err)
		}
		row.Name = changes.Name.String()
	}
	if changes.Description != nil && changes.Description.String() != row.Description {
		if _, err := tx.ExecContext(ctx,
			`UPDATE ingredients SET description = $1 WHERE id = $2`, changes.Description.String(), id); err != nil {
			return domain.Ingredient{}, fmt.Errorf("update ingredient description: %w", err)
		}
		row.Description = changes.Description.String()
	}
	if changes.DietViolations != nil {
		raw := changes.DietViolations.Strings()
		if _, err := tx.ExecContext(ctx,
			`UPDATE ingredients SET diet_violations = $1 WHERE id = $2`, pq.Array(raw), id); err != nil {
			return domain.Ingredient{}, fmt.Errorf("update ingredient diet violations: %w", err)
		}
		row.DietViolations = raw
	}

	if err := tx.Commit(); err != nil {
		return domain.Ingredient{}, fmt.Errorf("commit update ingredient: %w", err)
	}
	return row.toDomain()
}

// Delete removes the ingredient with the given id.
func (r *IngredientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM ingredients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete ingredient: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete ingredient: %w", err)
	}
	if affected == 0 {
		return &storage.NotFoundError{ID: id}
	}
	return nil
}
