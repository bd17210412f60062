package persist

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tamaranch/ranch/internal/clock"
	"github.com/tamaranch/ranch/internal/core/event"
	"github.com/tamaranch/ranch/internal/world"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "ranch.db"), clock.NewFake(start), zap.NewNop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteSaveLoad(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if _, err := s.Load(ctx, "default"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found got %v", err)
	}
	st := sampleState()
	if err := s.Save(ctx, "default", st); err != nil {
		t.Fatalf("save: %v", err)
	}
	st.Resources[world.Coins] = 10
	if err := s.Save(ctx, "default", st); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := s.Load(ctx, "default")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Resources[world.Coins] != 10 || len(got.Tamas) != 1 {
		t.Fatalf("expected the latest save, got %v", got.Resources)
	}
}

func TestSQLiteStampsSavesWithInjectedClock(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewFake(start)
	s, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "ranch.db"), clk, zap.NewNop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if _, err := s.SavedAt(ctx, "default"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found got %v", err)
	}
	clk.Advance(3 * time.Hour)
	if err := s.Save(ctx, "default", sampleState()); err != nil {
		t.Fatalf("save: %v", err)
	}
	at, err := s.SavedAt(ctx, "default")
	if err != nil {
		t.Fatalf("saved at: %v", err)
	}
	if !at.Equal(start.Add(3 * time.Hour)) {
		t.Fatalf("expected save stamped at %v got %v", start.Add(3*time.Hour), at)
	}
}

func TestSQLiteReopenKeepsSaves(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ranch.db")
	s, err := OpenSQLite(ctx, path, clock.NewFake(start), zap.NewNop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := s.Save(ctx, "slot-a", sampleState()); err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = s.Close()

	s, err = OpenSQLite(ctx, path, clock.NewFake(start), zap.NewNop())
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()
	if _, err := s.Load(ctx, "slot-a"); err != nil {
		t.Fatalf("load after reopen: %v", err)
	}
}

func TestLedgerFlush(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	bus := event.NewBus()
	l := NewLedger(s, clock.NewFake(start))
	l.Attach(bus)

	event.Emit(bus, event.ResourceFlow{Kind: "contract_payment", Ref: "c1", Resource: world.Coins, Amount: 120})
	event.Emit(bus, event.ResourceFlow{Kind: "contract_payment", Ref: "c2", Resource: world.Coins, Amount: 80})
	event.Emit(bus, event.ResourceFlow{Kind: "building_cost", Ref: "b1", Resource: world.Coins, Amount: -100})
	event.Emit(bus, event.ResourceFlow{Kind: "production", Ref: "b1", Resource: world.Berries, Amount: 0})
	bus.Drain()

	if l.Pending() != 3 {
		t.Fatalf("zero flows are skipped, have %d pending", l.Pending())
	}
	if err := l.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	if l.Pending() != 0 {
		t.Fatalf("flush should empty the buffer")
	}
	totals, err := s.LedgerTotals(ctx, "contract_payment")
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if totals["coins"] != 200 {
		t.Fatalf("expected 200 coins paid got %v", totals)
	}
}

type failingWriter struct{ calls int }

func (f *failingWriter) WriteLedger(context.Context, []LedgerEntry) error {
	f.calls++
	return errors.New("disk full")
}

func TestLedgerKeepsEntriesOnFailure(t *testing.T) {
	w := &failingWriter{}
	l := NewLedger(w, clock.NewFake(start))
	l.Record(event.ResourceFlow{Kind: "reward", Resource: world.Coins, Amount: 50})
	if err := l.Flush(context.Background()); err == nil {
		t.Fatalf("expected flush error")
	}
	if l.Pending() != 1 || w.calls != 1 {
		t.Fatalf("entries should stay buffered after a failed flush")
	}
}
