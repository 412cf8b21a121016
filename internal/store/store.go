// internal/store/store.go
//
// Transactional query layer for the `user` table.
//
/*
Context
--------
The store owns durability.  Every mutation runs inside one transaction:
read, merge or strip via the fields codec, write, commit.  Rollback on
any failure, no partial writes.  Rows being read-merge-written are
locked with SELECT … FOR UPDATE so two concurrent updates to the same
email serialize on the row lock instead of silently dropping a tenant's
slice.

Updates and deletes key off email, not id.  The upstream CMS treats
email as the stable identity shared across tenants; two tenants
presenting the same email share one row with independent custom-field
slices.  Email is deliberately not unique — should duplicates ever
appear, ORDER BY id LIMIT 1 keeps the target deterministic.

Notes
-----
  • sql.ErrNoRows maps to ErrNotFound; everything else propagates
    wrapped, never retried here.
  • Oxford commas, two spaces after periods.
*/
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/yanizio/usersync/internal/fields"
)

// ErrNotFound is returned when an email or id matches no user row, or
// when a delete targets a tenant slice that is already gone.
var ErrNotFound = errors.New("user not found")

const selectCols = "id, name, email, password, role, custom_fields, created_at, updated_at"

// Store wraps a process-wide sqlx pool.  Construct once at startup and
// inject; there is no package-level singleton.
type Store struct {
	db *sqlx.DB
}

// New wraps an open pool.  The caller keeps ownership and closes it.
func New(db *sqlx.DB) *Store { return &Store{db: db} }

// DB exposes the underlying pool for callers that need raw access
// (health probes, the report CLI).
func (s *Store) DB() *sqlx.DB { return s.db }

// Close releases the pool.
func (s *Store) Close() error { return s.db.Close() }

/*──────────────────────────── mutations ───────────────────────────────────*/

// Create inserts a new row and returns it as persisted.  Constraint
// violations propagate to the caller verbatim.
func (s *Store) Create(ctx context.Context, std fields.Standard, custom map[string]map[string]any) (*Record, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx, `
        INSERT INTO user (name, email, password, role, custom_fields)
        VALUES (?, ?, ?, ?, ?)`,
		std.Name, std.Email, std.Password, std.Role, TenantJSON(custom))
	if err != nil {
		return nil, fmt.Errorf("store: insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("store: insert id: %w", err)
	}

	rec, err := getTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: commit: %w", err)
	}
	return rec, nil
}

// UpdateByEmail rewrites the row's standard columns and replaces
// tenantID's custom slice, leaving every other tenant's slice intact.
// The read-merge-write runs under a row lock inside one transaction.
func (s *Store) UpdateByEmail(ctx context.Context, email string, std fields.Standard, tenantID string, tf map[string]any) (*Record, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	cur, err := lockByEmail(ctx, tx, email)
	if err != nil {
		return nil, err
	}

	merged := fields.Merge(cur.CustomFields, tenantID, tf)

	if _, err := tx.ExecContext(ctx, `
        UPDATE user
        SET    name = ?, email = ?, role = ?, custom_fields = ?,
               updated_at = CURRENT_TIMESTAMP
        WHERE  id = ?`,
		std.Name, std.Email, std.Role, TenantJSON(merged), cur.ID); err != nil {
		return nil, fmt.Errorf("store: update user: %w", err)
	}

	rec, err := getTx(ctx, tx, cur.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: commit: %w", err)
	}
	return rec, nil
}

// DeleteTenantSlice detaches tenantID from the row matching email.  When
// the tenant was the last one referencing the row, the row itself is
// deleted and deletedRow is true; otherwise the row survives with that
// slice stripped.  A tenant that was already absent yields ErrNotFound —
// a repeated delete is an error, never a silent no-op.
//
// The returned Record is the pre-deletion snapshot.
func (s *Store) DeleteTenantSlice(ctx context.Context, email, tenantID string) (snapshot *Record, deletedRow bool, err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	cur, err := lockByEmail(ctx, tx, email)
	if err != nil {
		return nil, false, err
	}

	remaining, had := fields.Strip(cur.CustomFields, tenantID)
	if !had {
		return nil, false, fmt.Errorf("store: tenant %q has no slice on %q: %w", tenantID, email, ErrNotFound)
	}

	if len(remaining) == 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM user WHERE id = ?`, cur.ID); err != nil {
			return nil, false, fmt.Errorf("store: delete user: %w", err)
		}
		deletedRow = true
	} else {
		if _, err := tx.ExecContext(ctx, `
            UPDATE user
            SET    custom_fields = ?, updated_at = CURRENT_TIMESTAMP
            WHERE  id = ?`,
			TenantJSON(remaining), cur.ID); err != nil {
			return nil, false, fmt.Errorf("store: strip tenant: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("store: commit: %w", err)
	}
	return cur, deletedRow, nil
}

/*──────────────────────────── reads ───────────────────────────────────────*/

// GetByID is a plain read; no transaction required.
func (s *Store) GetByID(ctx context.Context, id int64) (*Record, error) {
	var rec Record
	err := s.db.GetContext(ctx, &rec,
		`SELECT `+selectCols+` FROM user WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get user %d: %w", id, err)
	}
	return &rec, nil
}

// ListByTenant returns every row carrying a custom-field slice for
// tenantID.  Used by admin reporting, not by the sync path.
func (s *Store) ListByTenant(ctx context.Context, tenantID string) ([]Record, error) {
	var rows []Record
	err := s.db.SelectContext(ctx, &rows, `
        SELECT `+selectCols+`
        FROM   user
        WHERE  JSON_CONTAINS_PATH(custom_fields, 'one', ?)
        ORDER  BY id`,
		fmt.Sprintf(`$.%q`, tenantID))
	if err != nil {
		return nil, fmt.Errorf("store: list tenant %q: %w", tenantID, err)
	}
	return rows, nil
}

/*──────────────────────────── tx helpers ──────────────────────────────────*/

// lockByEmail reads the target row under FOR UPDATE so the surrounding
// read-merge-write serializes with concurrent writers.
func lockByEmail(ctx context.Context, tx *sqlx.Tx, email string) (*Record, error) {
	var rec Record
	err := tx.GetContext(ctx, &rec,
		`SELECT `+selectCols+` FROM user WHERE email = ? ORDER BY id LIMIT 1 FOR UPDATE`,
		email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: lock %q: %w", email, err)
	}
	return &rec, nil
}

func getTx(ctx context.Context, tx *sqlx.Tx, id int64) (*Record, error) {
	var rec Record
	err := tx.GetContext(ctx, &rec,
		`SELECT `+selectCols+` FROM user WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get user %d: %w", id, err)
	}
	return &rec, nil
}
