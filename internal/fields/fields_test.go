// internal/fields/fields_test.go
//
// Unit-tests for the tenant field codec.
//
// The concrete fixtures mirror real upstream payloads: a user created
// under tenant "acme", then extended under "globex", then detached one
// tenant at a time.

package fields

import (
	"reflect"
	"testing"
)

func TestSplit_PartitionsStandardAndCustom(t *testing.T) {
	raw := map[string]any{
		"username":    "John Doe",
		"email":       "john@x.com",
		"provider":    "local",
		"confirmed":   true,
		"blocked":     false,
		"createdAt":   "2025-01-01T00:00:00Z",
		"updatedAt":   "2025-01-01T00:00:00Z",
		"publishedAt": "2025-01-01T00:00:00Z",
		"role":        map[string]any{"id": float64(1), "name": "Authenticated"},
		"dept":        "Eng",
		"location":    "New York",
	}

	std, custom := Split(raw, "acme")

	if std.Name != "John Doe" || std.Email != "john@x.com" || std.Role != 1 {
		t.Fatalf("standard fields wrong: %+v", std)
	}
	if std.Password != "" {
		t.Fatalf("password placeholder must stay empty, got %q", std.Password)
	}

	want := map[string]map[string]any{
		"acme": {"dept": "Eng", "location": "New York"},
	}
	if !reflect.DeepEqual(custom, want) {
		t.Fatalf("custom = %#v, want %#v", custom, want)
	}
}

func TestSplit_NameFallbackAndBareRole(t *testing.T) {
	std, custom := Split(map[string]any{
		"name":  "John",
		"email": "john@x.com",
		"role":  float64(1),
		"dept":  "Eng",
	}, "acme")

	if std.Name != "John" {
		t.Fatalf("name = %q, want John", std.Name)
	}
	if std.Role != 1 {
		t.Fatalf("role = %d, want 1", std.Role)
	}
	if !reflect.DeepEqual(custom["acme"], map[string]any{"dept": "Eng"}) {
		t.Fatalf("custom = %#v", custom["acme"])
	}
}

func TestSplit_NoCustomAttributes(t *testing.T) {
	_, custom := Split(map[string]any{"username": "n", "email": "e", "role": float64(2)}, "acme")
	if len(custom["acme"]) != 0 {
		t.Fatalf("expected empty tenant slice, got %#v", custom["acme"])
	}
}

func TestMerge_PreservesOtherTenants(t *testing.T) {
	existing := map[string]map[string]any{
		"acme": {"dept": "Eng"},
	}

	merged := Merge(existing, "globex", map[string]any{"dept": "Sales"})

	if !reflect.DeepEqual(merged["acme"], map[string]any{"dept": "Eng"}) {
		t.Fatalf("acme slice disturbed: %#v", merged["acme"])
	}
	if !reflect.DeepEqual(merged["globex"], map[string]any{"dept": "Sales"}) {
		t.Fatalf("globex slice = %#v", merged["globex"])
	}

	// Input must not be mutated.
	if _, ok := existing["globex"]; ok {
		t.Fatal("Merge mutated its input")
	}
}

func TestMerge_ReplacesSameTenant(t *testing.T) {
	existing := map[string]map[string]any{
		"acme": {"dept": "Eng", "title": "SWE"},
	}

	merged := Merge(existing, "acme", map[string]any{"dept": "Sales"})

	// Replacement, not a deep merge: stale keys vanish.
	want := map[string]any{"dept": "Sales"}
	if !reflect.DeepEqual(merged["acme"], want) {
		t.Fatalf("acme slice = %#v, want %#v", merged["acme"], want)
	}
}

func TestMerge_NilExisting(t *testing.T) {
	merged := Merge(nil, "acme", map[string]any{"dept": "Eng"})
	if len(merged) != 1 || merged["acme"]["dept"] != "Eng" {
		t.Fatalf("merged = %#v", merged)
	}
}

func TestStrip(t *testing.T) {
	existing := map[string]map[string]any{
		"acme":   {"dept": "Eng"},
		"globex": {"dept": "Sales"},
	}

	remaining, had := Strip(existing, "acme")
	if !had {
		t.Fatal("hadEntry = false, want true")
	}
	if !reflect.DeepEqual(remaining, map[string]map[string]any{"globex": {"dept": "Sales"}}) {
		t.Fatalf("remaining = %#v", remaining)
	}

	// Stripping a tenant that was never present.
	remaining, had = Strip(remaining, "initech")
	if had {
		t.Fatal("hadEntry = true for absent tenant")
	}
	if len(remaining) != 1 {
		t.Fatalf("remaining = %#v", remaining)
	}

	// Stripping the last tenant empties the map.
	remaining, had = Strip(remaining, "globex")
	if !had || len(remaining) != 0 {
		t.Fatalf("had = %v, remaining = %#v", had, remaining)
	}
}

func TestProject_TenantIsolation(t *testing.T) {
	std := map[string]any{"name": "John", "email": "john@x.com", "role": int64(1)}
	custom := map[string]map[string]any{
		"acme":   {"dept": "Eng"},
		"globex": {"dept": "Sales"},
	}

	acme := Project(std, custom, "acme")
	if acme["dept"] != "Eng" || acme["name"] != "John" {
		t.Fatalf("acme view = %#v", acme)
	}

	globex := Project(std, custom, "globex")
	if globex["dept"] != "Sales" {
		t.Fatalf("globex view = %#v", globex)
	}

	// A tenant with no slice sees standard attributes only.
	initech := Project(std, custom, "initech")
	if !reflect.DeepEqual(initech, std) {
		t.Fatalf("initech view = %#v, want %#v", initech, std)
	}
}
