package persistent

import (
	"context"
	_ "embed"
	"fmt"
)

// Schema holds the bootstrap SQL for local development and tests.
//
//go:embed schema.sql
var Schema string

// EnsureSchema applies the bootstrap SQL; every statement is idempotent.
func (r *InventoryRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.Pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("InventoryRepo - EnsureSchema - r.Pool.Exec: %w", err)
	}

	return nil
}
