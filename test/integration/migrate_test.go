//go:build integration

package integration

import (
	"context"
	"testing"

	"github.com/medhealth/medhealth/internal/platform/db"
)

func TestMigrator_UpIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := db.NewMigrator(globalPool, findMigrationsDir())

	applied, err := m.Up(ctx)
	if err != nil {
		t.Fatalf("Up: %v", err)
	}
	if applied != 0 {
		t.Errorf("expected nothing left to apply, got %d", applied)
	}

	statuses, err := m.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if len(statuses) == 0 {
		t.Fatal("expected at least one migration")
	}
	for _, s := range statuses {
		if !s.Applied || s.AppliedAt == nil {
			t.Errorf("migration %s: expected applied with timestamp", s.Name)
		}
	}
}
