package repository_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jonesrussell/north-crm/entity-service/internal/repository"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var recordColumns = []string{"id", "data", "created_at", "updated_at"}

func newRepo(t *testing.T, resource string) (*repository.EntityRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	repo, err := repository.NewEntityRepository(sqlx.NewDb(db, "postgres"), resource)
	require.NoError(t, err)
	return repo, mock
}

func TestNewEntityRepository_RejectsUnknownResource(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = repository.NewEntityRepository(sqlx.NewDb(db, "postgres"), "users; DROP TABLE users")
	assert.Error(t, err)
}

func TestEntityRepository_Create(t *testing.T) {
	repo, mock := newRepo(t, "clients")
	id := uuid.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	data := []byte(`{"name":"Acme"}`)

	mock.ExpectQuery(`INSERT INTO clients \(id, data, created_at, updated_at\)`).
		WithArgs(sqlmock.AnyArg(), string(data), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows(recordColumns).AddRow(id.String(), data, now, now))

	rec, err := repo.Create(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, id, rec.ID)
	assert.JSONEq(t, string(data), string(rec.Data))
	assert.Equal(t, now, rec.CreatedAt)
}

func TestEntityRepository_CreateConflict(t *testing.T) {
	repo, mock := newRepo(t, "users")

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "idx_users_email"})

	_, err := repo.Create(context.Background(), []byte(`{"email":"a@b.co"}`))
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestEntityRepository_GetByID(t *testing.T) {
	id := uuid.New()
	now := time.Now().UTC()

	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		wantErr   error
	}{
		{
			name: "found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT id, data, created_at, updated_at FROM notes WHERE id = \$1`).
					WithArgs(id).
					WillReturnRows(sqlmock.NewRows(recordColumns).AddRow(id.String(), []byte(`{"title":"t"}`), now, now))
			},
		},
		{
			name: "not found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM notes WHERE id`).WithArgs(id).WillReturnError(sql.ErrNoRows)
			},
			wantErr: repository.ErrNotFound,
		},
		{
			name: "store failure",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM notes WHERE id`).WithArgs(id).WillReturnError(sql.ErrConnDone)
			},
			wantErr: sql.ErrConnDone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepo(t, "notes")
			tt.setupMock(mock)

			rec, err := repo.GetByID(context.Background(), id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, rec)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, id, rec.ID)
		})
	}
}

func TestEntityRepository_List(t *testing.T) {
	tests := []struct {
		name       string
		filter     repository.ListFilter
		wantLimit  int
		wantOffset int
	}{
		{"defaults", repository.ListFilter{}, repository.DefaultLimit, 0},
		{"explicit", repository.ListFilter{Limit: 10, Offset: 20}, 10, 20},
		{"clamped", repository.ListFilter{Limit: 10_000, Offset: -5}, repository.MaxLimit, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepo(t, "products")
			now := time.Now().UTC()

			mock.ExpectQuery(`SELECT id, data, created_at, updated_at FROM products\s+ORDER BY created_at, id\s+LIMIT \$1 OFFSET \$2`).
				WithArgs(tt.wantLimit, tt.wantOffset).
				WillReturnRows(sqlmock.NewRows(recordColumns).
					AddRow(uuid.NewString(), []byte(`{"name":"a","price":1}`), now, now).
					AddRow(uuid.NewString(), []byte(`{"name":"b","price":2}`), now, now))

			records, err := repo.List(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.Len(t, records, 2)
		})
	}
}

func TestEntityRepository_ListEmptyIsNotNil(t *testing.T) {
	repo, mock := newRepo(t, "contacts")
	mock.ExpectQuery(`FROM contacts`).WillReturnRows(sqlmock.NewRows(recordColumns))

	records, err := repo.List(context.Background(), repository.ListFilter{})
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestEntityRepository_Update(t *testing.T) {
	id := uuid.New()
	data := []byte(`{"title":"Q","client_id":"x","items":[],"status":"sent","total":0}`)

	t.Run("updated", func(t *testing.T) {
		repo, mock := newRepo(t, "quotes")
		now := time.Now().UTC()

		mock.ExpectQuery(`UPDATE quotes SET data = \$2, updated_at = \$3`).
			WithArgs(id, string(data), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows(recordColumns).AddRow(id.String(), data, now.Add(-time.Hour), now))

		rec, err := repo.Update(context.Background(), id, data)
		require.NoError(t, err)
		assert.True(t, rec.UpdatedAt.After(rec.CreatedAt))
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newRepo(t, "quotes")
		mock.ExpectQuery(`UPDATE quotes`).WillReturnError(sql.ErrNoRows)

		_, err := repo.Update(context.Background(), id, data)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestEntityRepository_Delete(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name    string
		result  driverResult
		wantErr error
	}{
		{"deleted", driverResult{rows: 1}, nil},
		{"not found", driverResult{rows: 0}, repository.ErrNotFound},
		{"store failure", driverResult{err: errors.New("connection reset")}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepo(t, "users")
			exp := mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).WithArgs(id)
			if tt.result.err != nil {
				exp.WillReturnError(tt.result.err)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, tt.result.rows))
			}

			err := repo.Delete(context.Background(), id)
			switch {
			case tt.result.err != nil:
				assert.ErrorContains(t, err, "connection reset")
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

type driverResult struct {
	rows int64
	err  error
}

func TestRecord_MarshalJSON(t *testing.T) {
	id := uuid.MustParse("6f1c1a52-6c1e-4a8e-9a7e-0f2f3c4d5e6f")
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rec := repository.Record{
		ID:        id,
		Data:      []byte(`{"name":"Acme","id":"spoofed"}`),
		CreatedAt: created,
		UpdatedAt: created.Add(time.Minute),
	}

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id":"6f1c1a52-6c1e-4a8e-9a7e-0f2f3c4d5e6f",
		"name":"Acme",
		"created_at":"2026-01-02T03:04:05Z",
		"updated_at":"2026-01-02T03:05:05Z"
	}`, string(out))
}
