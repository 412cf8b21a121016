// internal/fields/fields.go
//
// Tenant-scoped partitioning of upstream user records.
//
/*
Context
--------
The CMS delivers a user entry as one flat attribute map.  A fixed subset
of those attributes (name, email, password, role) maps to columns on the
`user` table; everything else is an open-ended extension owned by exactly
one tenant.  The store keeps all tenants' extensions side by side in a
single JSON column shaped as

	{ "<tenantID>": { attr: value, … }, … }

This package is the only place that partitions, merges, strips, or
flattens that structure.  Every function is pure: inputs are never
mutated, and callers may retain the results without copying.

Notes
-----
  • Upstream bookkeeping keys (provider, confirmed, publishedAt, …) are
    consumed and discarded; they are CMS state, not user attributes.
  • Unknown keys are never rejected — anything outside the standard set
    is custom by definition.
  • Oxford commas, two spaces after periods.
*/
package fields

import (
	"encoding/json"
	"strconv"
	"time"
)

//
// Standard attribute set
//

// Standard carries the fixed per-user columns.  Password is a placeholder
// only: the upstream never transmits a usable credential, so the stored
// value is always empty.
type Standard struct {
	Name     string
	Email    string
	Password string
	Role     int64
}

// dropped lists upstream bookkeeping keys that are neither standard nor
// custom.  They describe the CMS entry, not the user.
var dropped = map[string]struct{}{
	"id":          {},
	"documentId":  {},
	"provider":    {},
	"confirmed":   {},
	"blocked":     {},
	"createdAt":   {},
	"updatedAt":   {},
	"publishedAt": {},
}

// standard lists the keys consumed into the Standard struct.  The CMS
// sends "username" where our schema says "name"; both are accepted.
var standard = map[string]struct{}{
	"name":     {},
	"username": {},
	"email":    {},
	"password": {},
	"role":     {},
}

//
// Split
//

// Split partitions a raw upstream entry into the fixed standard
// attributes and a tenant-scoped custom map `{tenantID: remainder}`.
// Attribute names are not validated; every key outside the standard and
// bookkeeping sets lands in the remainder.
func Split(raw map[string]any, tenantID string) (Standard, map[string]map[string]any) {
	std := Standard{
		Name:  asString(firstOf(raw, "username", "name")),
		Email: asString(raw["email"]),
		Role:  roleID(raw["role"]),
		// Password stays "" — see Standard doc.
	}

	custom := make(map[string]any)
	for k, v := range raw {
		if _, ok := standard[k]; ok {
			continue
		}
		if _, ok := dropped[k]; ok {
			continue
		}
		custom[k] = v
	}

	return std, map[string]map[string]any{tenantID: custom}
}

//
// Merge / Strip
//

// Merge returns a new map equal to existing with tenantID's slice
// replaced by tf.  All other tenants' slices are carried over untouched.
// A nil existing map is treated as empty.
func Merge(existing map[string]map[string]any, tenantID string, tf map[string]any) map[string]map[string]any {
	out := make(map[string]map[string]any, len(existing)+1)
	for k, v := range existing {
		out[k] = v
	}
	if tf == nil {
		tf = map[string]any{}
	}
	out[tenantID] = tf
	return out
}

// Strip returns a new map with tenantID removed, and reports whether the
// tenant previously had a slice.  Callers use hadEntry to distinguish
// "tenant detached" from "tenant was never here".
func Strip(existing map[string]map[string]any, tenantID string) (remaining map[string]map[string]any, hadEntry bool) {
	remaining = make(map[string]map[string]any, len(existing))
	for k, v := range existing {
		if k == tenantID {
			hadEntry = true
			continue
		}
		remaining[k] = v
	}
	return remaining, hadEntry
}

//
// Project
//

// Project flattens one tenant's view: the standard attribute map overlaid
// with that tenant's custom slice (absent slice contributes nothing).
// Custom attributes win on a key collision, matching upstream behavior.
func Project(std map[string]any, custom map[string]map[string]any, tenantID string) map[string]any {
	out := make(map[string]any, len(std)+len(custom[tenantID]))
	for k, v := range std {
		out[k] = v
	}
	for k, v := range custom[tenantID] {
		out[k] = v
	}
	return out
}

//
// Coercion helpers
//

func firstOf(raw map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := raw[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// roleID extracts a numeric role from the forms the CMS is known to send:
// a bare number, a numeric string, or a populated relation {"id": n}.
func roleID(v any) int64 {
	switch t := v.(type) {
	case nil:
		return 0
	case int:
		return int64(t)
	case int64:
		return t
	case float64:
		return int64(t)
	case json.Number:
		n, _ := t.Int64()
		return n
	case string:
		n, _ := strconv.ParseInt(t, 10, 64)
		return n
	case map[string]any:
		return roleID(t["id"])
	default:
		return 0
	}
}

// Timestamp formats projection timestamps the same way encoding/json
// renders time.Time, so cache-served and store-served views compare equal.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
