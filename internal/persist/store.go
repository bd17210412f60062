// Package persist stores ranch snapshots and the economy ledger in SQLite or
// PostgreSQL.
package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tamaranch/ranch/internal/clock"
	"github.com/tamaranch/ranch/internal/config"
	"github.com/tamaranch/ranch/internal/world"
)

var ErrNotFound = errors.New("save slot not found")

// Store is a save-game backend.
type Store interface {
	Save(ctx context.Context, slot string, st *world.State) error
	// Load returns ErrNotFound when the slot has never been saved.
	Load(ctx context.Context, slot string) (*world.State, error)
	// SavedAt reports when the slot was last written.
	SavedAt(ctx context.Context, slot string) (time.Time, error)
	LedgerWriter
	Close() error
}

// LedgerEntry is one resource movement in the economy ledger.
type LedgerEntry struct {
	Kind     string
	Ref      string
	Resource string
	Amount   int
	At       time.Time
}

type LedgerWriter interface {
	WriteLedger(ctx context.Context, entries []LedgerEntry) error
}

// Open opens the configured backend and applies its migrations.
func Open(ctx context.Context, cfg config.StorageConfig, clk clock.Clock, log *zap.Logger) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		s, err := OpenSQLite(ctx, cfg.DSN, clk, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := OpenPostgres(ctx, cfg, clk, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
