package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recipe-manager/internal/core/domain"
	"recipe-manager/internal/core/storage"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func mustIngredient(t *testing.T) domain.Ingredient {
	t.Helper()
	id, err := uuid.NewV7()
	require.NoError(t, err)
	return domain.Ingredient{
		ID:             id,
		Name:           "Tomato",
		Description:    "red",
		DietViolations: domain.WhichDiets{domain.DietVegan},
	}
}

func TestInsertMapsUniqueViolationToConflictField(t *testing.T) {
	tests := []struct {
		name       string
		constraint string
		wantField  string
	}{
		{"name constraint", "ingredients_name_key", "name"},
		{"primary key constraint", "ingredients_pkey", "id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewIngredientRepository(db)

			mock.ExpectExec(`INSERT INTO ingredients`).
				WillReturnError(&pq.Error{Code: "23505", Constraint: tt.constraint})

			_, err := repo.Insert(context.Background(), mustIngredient(t))
			var conflict *storage.ConflictError
			require.ErrorAs(t, err, &conflict)
			assert.Equal(t, tt.wantField, conflict.Field)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGetByIDMapsNoRowsToNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewIngredientRepository(db)

	id, err := uuid.NewV7()
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT id, name, description, diet_violations FROM ingredients WHERE id`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "diet_violations"}))

	_, err = repo.GetByID(context.Background(), id)
	var notFound *storage.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, id, notFound.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDDecodesRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewIngredientRepository(db)

	want := mustIngredient(t)
	mock.ExpectQuery(`SELECT id, name, description, diet_violations FROM ingredients WHERE id`).
		WithArgs(want.ID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "diet_violations"}).
			AddRow(want.ID, want.Name.String(), want.Description.String(), pq.StringArray{"Vegan"}))

	got, err := repo.GetByID(context.Background(), want.ID)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteMapsZeroRowsToNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewIngredientRepository(db)

	id, err := uuid.NewV7()
	require.NoError(t, err)

	mock.ExpectExec(`DELETE FROM ingredients WHERE id`).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.Delete(context.Background(), id)
	var notFound *storage.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateSkipsUnchangedFields(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewIngredientRepository(db)

	current := mustIngredient(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, name, description, diet_violations FROM ingredients WHERE id`).
		WithArgs(current.ID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "diet_violations"}).
			AddRow(current.ID, current.Name.String(), current.Description.String(), pq.StringArray{"Vegan"}))
	// The name equals the stored value, so no UPDATE is expected.
	mock.ExpectCommit()

	sameName := current.Name
	got, err := repo.Update(context.Background(), current.ID, domain.IngredientChangeset{Name: &sameName})
	require.NoError(t, err)
	assert.Equal(t, current, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRejectsEmptyChangeset(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewIngredientRepository(db)

	id, err := uuid.NewV7()
	require.NoError(t, err)

	_, err = repo.Update(context.Background(), id, domain.IngredientChangeset{})
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, []string{"name", "description", "diet_violations"}, validation.Fields)
}
