// cmd/syncreport/main.go
//
// Admin CLI: print every user carrying a custom-field slice for one
// tenant.  Used for spot checks and batch audits, not by the sync path.
//
// Usage:
//
//	syncreport <tenant-id>
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/yanizio/usersync/internal/config"
	"github.com/yanizio/usersync/internal/database"
	"github.com/yanizio/usersync/internal/store"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: syncreport <tenant-id>")
		os.Exit(2)
	}
	tenantID := os.Args[1]

	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	dsn := cfg.Database.DSN
	if strings.Contains(dsn, "%s") {
		dsn = fmt.Sprintf(dsn, cfg.Database.Password)
	}

	db, err := database.Open(dsn)
	if err != nil {
		log.Fatalf("connect MySQL: %v", err)
	}
	st := store.New(db)
	defer st.Close()

	rows, err := st.ListByTenant(ctx, tenantID)
	if err != nil {
		log.Fatalf("list tenant %q: %v", tenantID, err)
	}

	fmt.Printf("=== Users for %s ===\n", tenantID)
	fmt.Printf("Total users found: %d\n\n", len(rows))

	for i, rec := range rows {
		custom, _ := json.MarshalIndent(rec.CustomFields, "", "  ")
		fmt.Printf("User %d:\n", i+1)
		fmt.Printf("  ID:            %d\n", rec.ID)
		fmt.Printf("  Name:          %s\n", rec.Name)
		fmt.Printf("  Email:         %s\n", rec.Email)
		fmt.Printf("  Role:          %d\n", rec.Role)
		fmt.Printf("  Custom Fields: %s\n", custom)
		fmt.Printf("  Created At:    %s\n", rec.CreatedAt)
		fmt.Printf("  Updated At:    %s\n\n", rec.UpdatedAt)
	}
}
