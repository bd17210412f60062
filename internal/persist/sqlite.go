package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/tamaranch/ranch/internal/clock"
	"github.com/tamaranch/ranch/internal/world"
)

// SQLiteStore keeps saves in a single SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	clk clock.Clock
	log *zap.Logger
}

func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

// OpenSQLite opens (creating if needed) the database at path and applies the
// embedded migrations.
func OpenSQLite(ctx context.Context, path string, clk clock.Clock, log *zap.Logger) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	clean := filepath.Clean(path)
	if dir := filepath.Dir(clean); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	dsn := clean + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// one writer; the pragmas are per connection
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := runMigrations(ctx, db, "sqlite3", "migrations/sqlite"); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Info("sqlite store ready", zap.String("path", clean))
	return &SQLiteStore{db: db, clk: clk, log: log}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Save(ctx context.Context, slot string, st *world.State) error {
	snap, err := Encode(st)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO saves (slot, version, checksum, payload, saved_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(slot) DO UPDATE SET
		   version = excluded.version,
		   checksum = excluded.checksum,
		   payload = excluded.payload,
		   saved_at = excluded.saved_at`,
		slot, snap.Version, snap.Checksum, snap.Payload, toMillis(s.clk.Now()),
	)
	if err != nil {
		return fmt.Errorf("save slot %s: %w", slot, err)
	}
	s.log.Debug("saved", zap.String("slot", slot), zap.Int("bytes", len(snap.Payload)))
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, slot string) (*world.State, error) {
	var snap Snapshot
	err := s.db.QueryRowContext(ctx,
		`SELECT version, checksum, payload FROM saves WHERE slot = ?`, slot,
	).Scan(&snap.Version, &snap.Checksum, &snap.Payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load slot %s: %w", slot, err)
	}
	st, err := Decode(snap)
	if err != nil {
		return nil, fmt.Errorf("load slot %s: %w", slot, err)
	}
	return st, nil
}

func (s *SQLiteStore) SavedAt(ctx context.Context, slot string) (time.Time, error) {
	var ms int64
	err := s.db.QueryRowContext(ctx, `SELECT saved_at FROM saves WHERE slot = ?`, slot).Scan(&ms)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("saved at %s: %w", slot, err)
	}
	return time.UnixMilli(ms).UTC(), nil
}

// WriteLedger appends entries in a single transaction.
func (s *SQLiteStore) WriteLedger(ctx context.Context, entries []LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ledger begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO ledger (kind, ref, resource, amount, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("ledger prepare: %w", err)
	}
	defer stmt.Close()
	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.Kind, e.Ref, e.Resource, e.Amount, toMillis(e.At)); err != nil {
			return fmt.Errorf("ledger insert: %w", err)
		}
	}
	return tx.Commit()
}

// LedgerTotals sums ledger amounts per resource for one entry kind.
func (s *SQLiteStore) LedgerTotals(ctx context.Context, kind string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT resource, SUM(amount) FROM ledger WHERE kind = ? GROUP BY resource`, kind)
	if err != nil {
		return nil, fmt.Errorf("ledger totals: %w", err)
	}
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var r string
		var n int
		if err := rows.Scan(&r, &n); err != nil {
			return nil, fmt.Errorf("ledger totals: %w", err)
		}
		out[r] = n
	}
	return out, rows.Err()
}
