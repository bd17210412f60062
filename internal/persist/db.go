package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"

	"github.com/tamaranch/ranch/internal/clock"
	"github.com/tamaranch/ranch/internal/config"
	"github.com/tamaranch/ranch/internal/world"
)

// PostgresStore keeps saves in PostgreSQL through a pgx pool.
type PostgresStore struct {
	Pool *pgxpool.Pool
	clk  clock.Clock
	log  *zap.Logger
}

func OpenPostgres(ctx context.Context, cfg config.StorageConfig, clk clock.Clock, log *zap.Logger) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.MaxIdleConns)
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	err = runMigrations(ctx, db, "postgres", "migrations/postgres")
	db.Close()
	if err != nil {
		pool.Close()
		return nil, err
	}
	log.Info("postgres store ready", zap.Int32("max_conns", poolCfg.MaxConns))
	return &PostgresStore{Pool: pool, clk: clk, log: log}, nil
}

func (s *PostgresStore) Close() error {
	s.Pool.Close()
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, slot string, st *world.State) error {
	snap, err := Encode(st)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx,
		`INSERT INTO saves (slot, version, checksum, payload, saved_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (slot) DO UPDATE SET
		   version = EXCLUDED.version,
		   checksum = EXCLUDED.checksum,
		   payload = EXCLUDED.payload,
		   saved_at = EXCLUDED.saved_at`,
		slot, snap.Version, snap.Checksum, snap.Payload, s.clk.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save slot %s: %w", slot, err)
	}
	s.log.Debug("saved", zap.String("slot", slot), zap.Int("bytes", len(snap.Payload)))
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, slot string) (*world.State, error) {
	var snap Snapshot
	err := s.Pool.QueryRow(ctx,
		`SELECT version, checksum, payload FROM saves WHERE slot = $1`, slot,
	).Scan(&snap.Version, &snap.Checksum, &snap.Payload)
	if errors.Is(err, pgx.ErrNoRows) {
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

func (s *PostgresStore) SavedAt(ctx context.Context, slot string) (time.Time, error) {
	var at time.Time
	err := s.Pool.QueryRow(ctx, `SELECT saved_at FROM saves WHERE slot = $1`, slot).Scan(&at)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("saved at %s: %w", slot, err)
	}
	return at.UTC(), nil
}

// WriteLedger appends entries in a single transaction.
func (s *PostgresStore) WriteLedger(ctx context.Context, entries []LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ledger begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		if _, err := tx.Exec(ctx,
			`INSERT INTO ledger (kind, ref, resource, amount, created_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			e.Kind, e.Ref, e.Resource, e.Amount, e.At.UTC(),
		); err != nil {
			return fmt.Errorf("ledger insert: %w", err)
		}
	}
	return tx.Commit(ctx)
}
