// internal/store/migrate.go
//
// Schema bootstrap for the `user` table.  Ran once at daemon startup so
// a fresh database is usable without an external migration step.
package store

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS user (
    id            BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
    name          VARCHAR(255)    NOT NULL,
    email         VARCHAR(255)    NOT NULL,
    password      VARCHAR(255)    NOT NULL DEFAULT '',
    role          BIGINT          NOT NULL DEFAULT 0,
    custom_fields JSON            NOT NULL,
    created_at    TIMESTAMP       NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    TIMESTAMP       NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (id),
    KEY idx_user_email (email)
)`

// Migrate creates the user table when absent.  updated_at is refreshed
// explicitly by each mutation rather than by an ON UPDATE clause, so the
// refresh stays visible in the queries themselves.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	return nil
}
