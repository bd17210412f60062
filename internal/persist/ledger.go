package persist

import (
	"context"
	"sync"

	"github.com/tamaranch/ranch/internal/clock"
	"github.com/tamaranch/ranch/internal/core/event"
)

// Ledger buffers resource flows from the event bus until the next flush.
type Ledger struct {
	w   LedgerWriter
	clk clock.Clock

	mu      sync.Mutex
	pending []LedgerEntry
}

func NewLedger(w LedgerWriter, clk clock.Clock) *Ledger {
	return &Ledger{w: w, clk: clk}
}

// Attach subscribes the ledger to resource flows on bus.
func (l *Ledger) Attach(bus *event.Bus) {
	event.Subscribe(bus, l.Record)
}

func (l *Ledger) Record(ev event.ResourceFlow) {
	if ev.Amount == 0 {
		return
	}
	l.mu.Lock()
	l.pending = append(l.pending, LedgerEntry{
		Kind:     ev.Kind,
		Ref:      ev.Ref,
		Resource: ev.Resource.String(),
		Amount:   ev.Amount,
		At:       l.clk.Now(),
	})
	l.mu.Unlock()
}

func (l *Ledger) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Flush writes the buffered entries. On error they stay buffered for the
// next attempt.
func (l *Ledger) Flush(ctx context.Context) error {
	l.mu.Lock()
	batch := l.pending
	l.pending = nil
	l.mu.Unlock()
	if len(batch) == 0 {
		return nil
	}
	if err := l.w.WriteLedger(ctx, batch); err != nil {
		l.mu.Lock()
		l.pending = append(batch, l.pending...)
		l.mu.Unlock()
		return err
	}
	return nil
}
