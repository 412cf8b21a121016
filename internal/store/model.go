// internal/store/model.go
//
// Row model for the `user` table.
//
// The JSON `custom_fields` column is the one durable contract that must
// survive schema versions: a tenant-keyed map of open extension
// attributes, at most one entry per tenant.  TenantJSON gives sqlx a
// Valuer/Scanner for that column so rows round-trip without ad hoc
// marshalling at call sites.
package store

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/yanizio/usersync/internal/fields"
)

//
// JSON column codec
//

// TenantJSON mirrors the shape of the custom_fields column:
// tenant identifier → attribute map.
type TenantJSON map[string]map[string]any

// Value serialises the map for the driver.  A nil map is stored as {} so
// the column never holds SQL NULL.
func (t TenantJSON) Value() (driver.Value, error) {
	if t == nil {
		t = TenantJSON{}
	}
	return json.Marshal(t)
}

// Scan accepts []byte or string, the two forms MySQL drivers hand back
// for JSON columns.
func (t *TenantJSON) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = TenantJSON{}
		return nil
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	default:
		return fmt.Errorf("store: cannot scan %T into TenantJSON", src)
	}
}

//
// Row model
//

// Record mirrors one row in the `user` table.  It is the authoritative
// representation; every cache entry is derived from it.
type Record struct {
	ID           int64      `db:"id"`
	Name         string     `db:"name"`
	Email        string     `db:"email"`
	Password     string     `db:"password"`
	Role         int64      `db:"role"`
	CustomFields TenantJSON `db:"custom_fields"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

// Project returns the tenant-flattened view of the record: standard
// attributes overlaid with tenantID's custom slice.  Timestamps are
// rendered as RFC 3339 strings so a view served from the cache compares
// equal to one straight from the store.  The password placeholder is
// never projected.
func (r *Record) Project(tenantID string) map[string]any {
	std := map[string]any{
		"id":         r.ID,
		"name":       r.Name,
		"email":      r.Email,
		"role":       r.Role,
		"created_at": fields.Timestamp(r.CreatedAt),
		"updated_at": fields.Timestamp(r.UpdatedAt),
	}
	return fields.Project(std, r.CustomFields, tenantID)
}
