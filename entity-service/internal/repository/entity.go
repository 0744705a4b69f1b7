// Package repository stores entity documents in PostgreSQL.
package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	infraerrors "github.com/jonesrussell/north-crm/infrastructure/errors"
	"github.com/jonesrussell/north-crm/infrastructure/resources"
	"github.com/lib/pq"
)

// Pagination bounds for List.
const (
	DefaultLimit = 100
	MaxLimit     = 500
)

const uniqueViolation = pq.ErrorCode("23505")

var (
	// ErrNotFound is returned when no row has the requested id.
	ErrNotFound = errors.New("entity not found")
	// ErrConflict is returned when a write violates a unique index.
	ErrConflict = errors.New("entity conflicts with an existing one")
)

// Record is one stored entity. Data holds the validated entity fields.
type Record struct {
	ID        uuid.UUID `db:"id"`
	Data      []byte    `db:"data"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Fields decodes Data into a field map.
func (r *Record) Fields() (map[string]json.RawMessage, error) {
	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(r.Data, &fields); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", r.ID, err)
	}
	return fields, nil
}

// MarshalJSON renders the entity fields with the server-managed ones.
func (r Record) MarshalJSON() ([]byte, error) {
	fields, err := r.Fields()
	if err != nil {
		return nil, err
	}

	out := make(map[string]any, len(fields)+3)
	for k, v := range fields {
		out[k] = v
	}
	out["id"] = r.ID.String()
	out["created_at"] = r.CreatedAt.UTC()
	out["updated_at"] = r.UpdatedAt.UTC()

	return json.Marshal(out)
}

// ListFilter holds pagination params for List.
type ListFilter struct {
	Limit  int
	Offset int
}

// Normalize clamps the filter to the pagination bounds.
func (f ListFilter) Normalize() ListFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultLimit
	}
	f.Limit = min(f.Limit, MaxLimit)
	f.Offset = max(f.Offset, 0)
	return f
}

// EntityRepository reads and writes the table of one resource.
type EntityRepository struct {
	db    *sqlx.DB
	table string
	now   func() time.Time
}

// NewEntityRepository creates a repository for resource. Only catalog
// resources are accepted because the name becomes the table name.
func NewEntityRepository(db *sqlx.DB, resource string) (*EntityRepository, error) {
	if _, ok := resources.Lookup(resource); !ok {
		return nil, fmt.Errorf("no table for resource %q", resource)
	}
	return &EntityRepository{db: db, table: resource, now: time.Now}, nil
}

const columns = `id, data, created_at, updated_at`

// Create stores data under a new id.
func (r *EntityRepository) Create(ctx context.Context, data []byte) (*Record, error) {
	now := r.now().UTC()
	// #nosec G201 -- table name comes from the resource whitelist
	query := fmt.Sprintf(`
		INSERT INTO %s (id, data, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		RETURNING %s`, r.table, columns)

	var rec Record
	// jsonb parameters are sent as text; lib/pq would encode []byte as bytea.
	if err := r.db.GetContext(ctx, &rec, query, uuid.New(), string(data), now); err != nil {
		return nil, r.writeError("insert", err)
	}
	return &rec, nil
}

// GetByID returns the entity with id.
func (r *EntityRepository) GetByID(ctx context.Context, id uuid.UUID) (*Record, error) {
	// #nosec G201 -- table name comes from the resource whitelist
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, columns, r.table)

	var rec Record
	err := r.db.GetContext(ctx, &rec, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, infraerrors.WrapWithContextf(err, "select %s %s", r.table, id)
	}
	return &rec, nil
}

// List returns one page of entities ordered by creation time.
func (r *EntityRepository) List(ctx context.Context, filter ListFilter) ([]Record, error) {
	filter = filter.Normalize()
	// #nosec G201 -- table name comes from the resource whitelist
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		ORDER BY created_at, id
		LIMIT $1 OFFSET $2`, columns, r.table)

	records := make([]Record, 0)
	if err := r.db.SelectContext(ctx, &records, query, filter.Limit, filter.Offset); err != nil {
		return nil, infraerrors.WrapWithContextf(err, "list %s", r.table)
	}
	return records, nil
}

// Update replaces the stored data of id.
func (r *EntityRepository) Update(ctx context.Context, id uuid.UUID, data []byte) (*Record, error) {
	// #nosec G201 -- table name comes from the resource whitelist
	query := fmt.Sprintf(`
		UPDATE %s SET data = $2, updated_at = $3
		WHERE id = $1
		RETURNING %s`, r.table, columns)

	var rec Record
	err := r.db.GetContext(ctx, &rec, query, id, string(data), r.now().UTC())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, r.writeError("update", err)
	}
	return &rec, nil
}

// Delete removes the entity with id.
func (r *EntityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	// #nosec G201 -- table name comes from the resource whitelist
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.table)

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return infraerrors.WrapWithContextf(err, "delete %s %s", r.table, id)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return infraerrors.WrapWithContext(err, "rows affected")
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *EntityRepository) writeError(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrConflict, pqErr.Constraint)
	}
	return infraerrors.WrapWithContextf(err, "%s %s", op, r.table)
}
