package store

import (
	"context"
	"errors"
	"testing"

	"github.com/redmagesol/solitaire-server/internal/game"
)

func TestMemoryStoreCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	if _, err := s.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing = %v, want ErrNotFound", err)
	}

	g := game.NewSeeded(1)
	if err := s.Save(ctx, g); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.Get(ctx, g.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != g {
		t.Error("Get returned a different game instance")
	}

	if err := s.Delete(ctx, g.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, g.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete = %v, want ErrNotFound", err)
	}
	// Deleting again is a no-op.
	if err := s.Delete(ctx, g.ID); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}
