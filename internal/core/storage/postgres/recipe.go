package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"recipe-manager/internal/core/domain"
	"recipe-manager/internal/core/storage"
	"recipe-manager/internal/pkg/common"
)

// RecipeRepository stores recipes in postgres. Ingredient associations live
// in a join table and are loaded alongside the recipe row.
type RecipeRepository struct {
	db *sqlx.DB
}

// NewRecipeRepository builds a postgres-backed recipe store.
func NewRecipeRepository(db *sqlx.DB) *RecipeRepository {
	return &RecipeRepository{db: db}
}

type recipeRow struct {
	ID          uuid.UUID      `db:"id"`
	Name        string         `db:"name"`
	Description string         `db:"description"`
	Steps       pq.StringArray `db:"steps"`
	Time        []byte         `db:"time"`
	Servings    []byte         `db:"servings"`
	CreatedAt   time.Time      `db:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at"`
}

type associationRow struct {
	ingredientRow
	Amount   []byte `db:"amount"`
	Notes    string `db:"notes"`
	Optional bool   `db:"optional"`
}

func (row recipeRow) toDomain(associations []associationRow) (domain.Recipe, error) {
	steps, err := domain.NewRecipeSteps(row.Steps)
	if err != nil {
		return domain.Recipe{}, &domain.DeserializationError{Field: "steps", Err: err}
	}

	var times map[string]time.Duration
	if err := json.Unmarshal(row.Time, &times); err != nil {
		return domain.Recipe{}, &domain.DeserializationError{Field: "time", Err: err}
	}

	var servings domain.Servings
	if err := json.Unmarshal(row.Servings, &servings); err != nil {
		return domain.Recipe{}, &domain.DeserializationError{Field: "servings", Err: err}
	}

	withAmounts := make([]domain.IngredientWithAmount, 0, len(associations))
	for _, assoc := range associations {
		ingredient, err := assoc.toDomain()
		if err != nil {
			return domain.Recipe{}, err
		}
		var amount domain.IngredientUnit
		if err := json.Unmarshal(assoc.Amount, &amount); err != nil {
			return domain.Recipe{}, &domain.DeserializationError{Field: "amount", Err: err}
		}
		withAmounts = append(withAmounts, domain.IngredientWithAmount{
			Ingredient: ingredient,
			Amount:     amount,
			Notes:      assoc.Notes,
			Optional:   assoc.Optional,
		})
	}

	ingredients, err := domain.NewRecipeIngredients(withAmounts)
	if err != nil {
		return domain.Recipe{}, &domain.DeserializationError{Field: "ingredients", Err: err}
	}

	return domain.Recipe{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		Steps:       steps,
		Ingredients: ingredients,
		Time:        times,
		Servings:    servings,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}, nil
}

func marshalColumn(field string, value interface{}) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", field, err)
	}
	return data, nil
}

// Insert stores the recipe row and its association rows in one transaction.
func (r *RecipeRepository) Insert(ctx context.Context, recipe domain.Recipe) (domain.Recipe, error) {
	timeData, err := marshalColumn("time", recipe.Time)
	if err != nil {
		return domain.Recipe{}, err
	}
	servingsData, err := marshalColumn("servings", recipe.Servings)
	if err != nil {
		return domain.Recipe{}, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Recipe{}, fmt.Errorf("begin insert recipe: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO recipes (id, name, description, steps, time, servings, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		recipe.ID, recipe.Name, recipe.Description, pq.Array([]string(recipe.Steps)),
		timeData, servingsData, recipe.CreatedAt, recipe.UpdatedAt,
	)
	if err != nil {
		if field, ok := conflictField(err); ok {
			return domain.Recipe{}, &storage.ConflictError{Field: field}
		}
		return domain.Recipe{}, fmt.Errorf("insert recipe: %w", err)
	}

	for _, assoc := range recipe.Ingredients {
		amountData, err := marshalColumn("amount", assoc.Amount)
		if err != nil {
			return domain.Recipe{}, err
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO ingredients_in_recipes (recipe_id, ingredient_id, amount, notes, optional)
			 VALUES ($1, $2, $3, $4, $5)`,
			recipe.ID, assoc.Ingredient.ID, amountData, assoc.Notes, assoc.Optional,
		)
		if err != nil {
			if field, ok := conflictField(err); ok {
				return domain.Recipe{}, &storage.ConflictError{Field: field}
			}
			return domain.Recipe{}, fmt.Errorf("insert recipe ingredient: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Recipe{}, fmt.Errorf("commit insert recipe: %w", err)
	}
	return recipe, nil
}

func (r *RecipeRepository) getAssociations(ctx context.Context, q sqlx.QueryerContext, recipeID uuid.UUID) ([]associationRow, error) {
	var rows []associationRow
	err := sqlx.SelectContext(ctx, q, &rows,
		`SELECT i.id, i.name, i.description, i.diet_violations, a.amount, a.notes, a.optional
		 FROM ingredients_in_recipes a
		 JOIN ingredients i ON i.id = a.ingredient_id
		 WHERE a.recipe_id = $1
		 ORDER BY i.name`, recipeID)
	if err != nil {
		return nil, fmt.Errorf("get recipe ingredients: %w", err)
	}
	return rows, nil
}

// GetByID returns the recipe with the given id, associations included.
func (r *RecipeRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Recipe, error) {
	var row recipeRow
	err := r.db.GetContext(ctx, &row,
		`SELECT id, name, description, steps, time, servings, created_at, updated_at
		 FROM recipes WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Recipe{}, &storage.NotFoundError{ID: id}
	}
	if err != nil {
		return domain.Recipe{}, fmt.Errorf("get recipe: %w", err)
	}

	associations, err := r.getAssociations(ctx, r.db, id)
	if err != nil {
		return domain.Recipe{}, err
	}
	return row.toDomain(associations)
}

// GetAll returns every stored recipe.
func (r *RecipeRepository) GetAll(ctx context.Context) ([]domain.Recipe, error) {
	var rows []recipeRow
	err := r.db.SelectContext(ctx, &rows,
		`SELECT id, name, description, steps, time, servings, created_at, updated_at FROM recipes`)
	if err != nil {
		return nil, fmt.Errorf("get all recipes: %w", err)
	}

	out := make([]domain.Recipe, 0, len(rows))
	for _, row := range rows {
		associations, err := r.getAssociations(ctx, r.db, row.ID)
		if err != nil {
			return nil, err
		}
		recipe, err := row.toDomain(associations)
		if err != nil {
			return nil, err
		}
		out = append(out, recipe)
	}
	return out, nil
}

// Delete removes the recipe and its association rows in one transaction.
func (r *RecipeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete recipe: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM ingredients_in_recipes WHERE recipe_id = $1`, id); err != nil {
		return fmt.Errorf("delete recipe ingredients: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM recipes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	if affected == 0 {
		return &storage.NotFoundError{ID: id}
	}

	return tx.Commit()
}

// Update applies the changeset field by field, skipping writes whose new
// value equals the stored one, then refreshes updated_at.
func (r *RecipeRepository) Update(ctx context.Context, id uuid.UUID, changes domain.RecipeChangeset) (domain.Recipe, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.Recipe{}, fmt.Errorf("begin update recipe: %w", err)
	}
	defer tx.Rollback()

	var row recipeRow
	err = tx.GetContext(ctx, &row,
		`SELECT id, name, description, steps, time, servings, created_at, updated_at
		 FROM recipes WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Recipe{}, &storage.NotFoundError{ID: id}
	}
	if err != nil {
		return domain.Recipe{}, fmt.Errorf("fetch recipe for update: %w", err)
	}

	changed := false

	if changes.Name != nil && *changes.Name != row.Name {
		if _, err := tx.ExecContext(ctx,
			`UPDATE recipes SET name = $1 WHERE id = $2`, *changes.Name, id); err != nil {
			return domain.Recipe{}, fmt.Errorf("update recipe name: %w", err)
		}
		changed = true
	}
	if changes.Description != nil && *changes.Description != row.Description {
		if _, err := tx.ExecContext(ctx,
			`UPDATE recipes SET description = $1 WHERE id = $2`, *changes.Description, id); err != nil {
			return domain.Recipe{}, fmt.Errorf("update recipe description: %w", err)
		}
		changed = true
	}
	if changes.Steps != nil && !stringSlicesEqual([]string(*changes.Steps), row.Steps) {
		if _, err := tx.ExecContext(ctx,
			`UPDATE recipes SET steps = $1 WHERE id = $2`, pq.Array([]string(*changes.Steps)), id); err != nil {
			return domain.Recipe{}, fmt.Errorf("update recipe steps: %w", err)
		}
		changed = true
	}
	if changes.Time != nil {
		timeData, err := marshalColumn("time", *changes.Time)
		if err != nil {
			return domain.Recipe{}, err
		}
		if string(timeData) != string(row.Time) {
			if _, err := tx.ExecContext(ctx,
				`UPDATE recipes SET time = $1 WHERE id = $2`, timeData, id); err != nil {
				return domain.Recipe{}, fmt.Errorf("update recipe time: %w", err)
			}
			changed = true
		}
	}
	if changes.Servings != nil {
		servingsData, err := marshalColumn("servings", *changes.Servings)
		if err != nil {
			return domain.Recipe{}, err
		}
		if string(servingsData) != string(row.Servings) {
			if _, err := tx.ExecContext(ctx,
				`UPDATE recipes SET servings = $1 WHERE id = $2`, servingsData, id); err != nil {
				return domain.Recipe{}, fmt.Errorf("update recipe servings: %w", err)
			}
			changed = true
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Recipe{}, fmt.Errorf("commit update recipe: %w", err)
	}

	if changed {
		r.touchUpdatedAt(ctx, id)
	}
	return r.GetByID(ctx, id)
}

// AddIngredient inserts an association row and refreshes updated_at.
func (r *RecipeRepository) AddIngredient(ctx context.Context, recipe domain.Recipe, ingredient domain.IngredientWithAmount) error {
	amountData, err := marshalColumn("amount", ingredient.Amount)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO ingredients_in_recipes (recipe_id, ingredient_id, amount, notes, optional)
		 VALUES ($1, $2, $3, $4, $5)`,
		recipe.ID, ingredient.Ingredient.ID, amountData, ingredient.Notes, ingredient.Optional,
	)
	if err != nil {
		if field, ok := conflictField(err); ok {
			return &storage.ConflictError{Field: field}
		}
		return fmt.Errorf("add recipe ingredient: %w", err)
	}

	r.touchUpdatedAt(ctx, recipe.ID)
	return nil
}

// DeleteIngredient removes an association row. The removal is rolled back
// when it would leave the recipe without ingredients.
func (r *RecipeRepository) DeleteIngredient(ctx context.Context, recipe domain.Recipe, ingredient domain.IngredientWithAmount) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete recipe ingredient: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`DELETE FROM ingredients_in_recipes WHERE recipe_id = $1 AND ingredient_id = $2`,
		recipe.ID, ingredient.Ingredient.ID)
	if err != nil {
		return fmt.Errorf("delete recipe ingredient: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete recipe ingredient: %w", err)
	}
	if affected == 0 {
		return &storage.NotFoundError{ID: ingredient.Ingredient.ID}
	}

	var remaining int
	err = tx.GetContext(ctx, &remaining,
		`SELECT COUNT(*) FROM ingredients_in_recipes WHERE recipe_id = $1`, recipe.ID)
	if err != nil {
		return fmt.Errorf("count recipe ingredients: %w", err)
	}
	if remaining == 0 {
		return domain.NewValidationError("ingredients")
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete recipe ingredient: %w", err)
	}

	r.touchUpdatedAt(ctx, recipe.ID)
	return nil
}

// UpdateIngredientAmount replaces the amount on an existing association and
// refreshes updated_at.
func (r *RecipeRepository) UpdateIngredientAmount(ctx context.Context, recipe domain.Recipe, ingredient domain.IngredientWithAmount, amount domain.IngredientUnit) error {
	amountData, err := marshalColumn("amount", amount)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE ingredients_in_recipes SET amount = $1 WHERE recipe_id = $2 AND ingredient_id = $3`,
		amountData, recipe.ID, ingredient.Ingredient.ID)
	if err != nil {
		return fmt.Errorf("update recipe ingredient amount: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update recipe ingredient amount: %w", err)
	}
	if affected == 0 {
		return &storage.NotFoundError{ID: ingredient.Ingredient.ID}
	}

	r.touchUpdatedAt(ctx, recipe.ID)
	return nil
}

// RecipesContainingIngredientExist reports whether any recipe references the
// ingredient.
func (r *RecipeRepository) RecipesContainingIngredientExist(ctx context.Context, ingredient domain.Ingredient) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM ingredients_in_recipes WHERE ingredient_id = $1)`,
		ingredient.ID)
	if err != nil {
		return false, fmt.Errorf("check ingredient usage: %w", err)
	}
	return exists, nil
}

// touchUpdatedAt refreshes the audit timestamp. Best effort, failures are
// logged and swallowed so they never fail the parent operation.
func (r *RecipeRepository) touchUpdatedAt(ctx context.Context, id uuid.UUID) {
	_, err := r.db.ExecContext(ctx,
		`UPDATE recipes SET updated_at = $1 WHERE id = $2`, time.Now().UTC(), id)
	if err != nil {
		common.LogWarn("failed to touch recipe updated_at",
			zap.String("recipe_id", id.String()), zap.Error(err))
	}
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
