package sqlitestore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/arosenfeld2003/lockstep/internal/template"
	"github.com/arosenfeld2003/lockstep/internal/wizard"
)

func openTemp(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "drafts.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("  "); err == nil {
		t.Fatal("expected error for blank path")
	}
}

func TestSlotRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTemp(t)
	store := db.Slot("alex")

	if _, err := store.Load(ctx); !errors.Is(err, wizard.ErrNoSnapshot) {
		t.Fatalf("Load on empty slot: %v", err)
	}

	st := wizard.New()
	if err := st.SelectTemplate(template.IDHens); err != nil {
		t.Fatal(err)
	}
	st.SetHostName("Jess")
	if err := store.Save(ctx, st); err != nil {
		t.Fatal(err)
	}

	st.SetHostName("Jessica")
	if err := store.Save(ctx, st); err != nil {
		t.Fatal(err)
	}

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.EventName != "Jessica's Hens Party" {
		t.Errorf("EventName = %q, last write should win", got.EventName)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load(ctx); !errors.Is(err, wizard.ErrNoSnapshot) {
		t.Errorf("Load after Clear: %v", err)
	}
}

func TestDraftsListsSlots(t *testing.T) {
	ctx := context.Background()
	db := openTemp(t)

	for _, slot := range []string{"one", "two"} {
		if err := db.Slot(slot).Save(ctx, wizard.New()); err != nil {
			t.Fatal(err)
		}
	}
	drafts, err := db.Drafts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(drafts) != 2 {
		t.Fatalf("Drafts = %d, want 2", len(drafts))
	}
	for _, d := range drafts {
		if d.Step != wizard.StepType {
			t.Errorf("%s step = %q", d.Slot, d.Step)
		}
	}
}
