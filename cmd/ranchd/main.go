package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tamaranch/ranch/internal/clock"
	"github.com/tamaranch/ranch/internal/config"
	"github.com/tamaranch/ranch/internal/core/event"
	"github.com/tamaranch/ranch/internal/data"
	"github.com/tamaranch/ranch/internal/engine"
	"github.com/tamaranch/ranch/internal/persist"
	"github.com/tamaranch/ranch/internal/random"
	"github.com/tamaranch/ranch/internal/scripting"
	"github.com/tamaranch/ranch/internal/system"
	"github.com/tamaranch/ranch/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func printSection(title string) {
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", max(3, 44-len(title))))
}

func printStat(label string, count int) {
	num := fmt.Sprintf("%d", count)
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", max(3, 42-len(label)-len(num))), num)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func run() error {
	cfgPath := "config/ranch.toml"
	if p := os.Getenv("RANCH_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printSection("Data")
	tables, err := loadTables(cfg.Data)
	if err != nil {
		return fmt.Errorf("load tables: %w", err)
	}
	printStat("Buildings", len(tables.Buildings.All()))
	printStat("Recipes", len(tables.Recipes.All()))
	printStat("Achievements", len(tables.Achievements.All()))

	scripts := scripting.NewEngine(log)
	defer scripts.Close()
	if cfg.Data.Scripts != "" {
		if err := scripts.LoadOverrides(cfg.Data.Scripts); err != nil {
			return fmt.Errorf("load scripts: %w", err)
		}
		printOK("Achievement scripts loaded")
	}
	fmt.Println()

	printSection("Storage")
	clk := clock.Real{}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	store, err := persist.Open(ctx, cfg.Storage, clk, log)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer store.Close()
	printOK(cfg.Storage.Driver + " store ready")

	seed, err := random.Seed(cfg.Engine.Seed)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	log.Info("random source seeded", zap.Int64("seed", seed))
	deps := &system.Deps{
		Tables:  tables,
		Config:  cfg,
		Clock:   clk,
		Rand:    rand.New(rand.NewSource(seed)),
		Bus:     event.NewBus(),
		Scripts: scripts,
		Log:     log,
	}
	eng, err := engine.New(deps, nil)
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	ledger := persist.NewLedger(store, clk)
	ledger.Attach(deps.Bus)

	slot := cfg.Engine.SaveSlot
	st, err := loadOrCreate(ctx, store, eng, slot, log)
	if err != nil {
		return err
	}
	for _, p := range eng.ValidateState(st) {
		log.Warn("state problem", zap.String("problem", p))
	}

	// catch up on the time the ranch was closed
	away := clk.Now().Sub(st.LastTick)
	rep := eng.ProcessTick(st, 0)
	log.Info("caught up",
		zap.Duration("away", away.Round(time.Second)),
		zap.Int("crafts", len(rep.Crafts)),
		zap.Int("contracts", len(rep.Contracts)),
		zap.Int("exp", rep.ExperienceGranted),
	)
	printStat("Tamas", len(st.Tamas))
	printStat("Level", st.Progression.Level)
	printStat("Coins", st.Resources[world.Coins])
	fmt.Println()

	save := func() {
		saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.Save(saveCtx, slot, st); err != nil {
			log.Error("save failed", zap.Error(err))
			return
		}
		if err := ledger.Flush(saveCtx); err != nil {
			log.Error("ledger flush failed", zap.Error(err), zap.Int("pending", ledger.Pending()))
		}
	}
	save()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Engine.TickRate)
	defer ticker.Stop()
	autosave := time.NewTicker(cfg.Engine.AutosaveInterval)
	defer autosave.Stop()

	log.Info("ranch running", zap.String("slot", slot), zap.Duration("tick_rate", cfg.Engine.TickRate))
	last := clk.Now()
	for {
		select {
		case now := <-ticker.C:
			rep := eng.ProcessTick(st, now.Sub(last))
			last = now
			for _, a := range rep.Achievements {
				log.Info("achievement unlocked", zap.String("id", a))
			}
		case <-autosave.C:
			save()
		case sig := <-shutdownCh:
			log.Info("shutting down", zap.String("signal", sig.String()))
			save()
			return nil
		}
	}
}

func loadTables(cfg config.DataConfig) (*data.Tables, error) {
	if cfg.Dir == "" {
		return data.LoadDefault()
	}
	return data.LoadDir(cfg.Dir)
}

func loadOrCreate(ctx context.Context, store persist.Store, eng *engine.Engine, slot string, log *zap.Logger) (*world.State, error) {
	st, err := store.Load(ctx, slot)
	switch {
	case errors.Is(err, persist.ErrNotFound):
		log.Info("no save found, starting a new ranch", zap.String("slot", slot))
		return eng.NewGame(), nil
	case err != nil:
		return nil, fmt.Errorf("load save: %w", err)
	}
	if at, err := store.SavedAt(ctx, slot); err == nil {
		log.Info("save loaded", zap.String("slot", slot), zap.Time("saved_at", at))
	}
	eng.InitializeCustomers(st)
	return st, nil
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
