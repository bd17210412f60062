package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

type Config struct {
	Economy     EconomyConfig     `toml:"economy"`
	Crafting    CraftingConfig    `toml:"crafting"`
	Customers   CustomersConfig   `toml:"customers"`
	Progression ProgressionConfig `toml:"progression"`
	Engine      EngineConfig      `toml:"engine"`
	Storage     StorageConfig     `toml:"storage"`
	Data        DataConfig        `toml:"data"`
	Logging     LoggingConfig     `toml:"logging"`
}

type EconomyConfig struct {
	UpgradeMultiplier float64 `toml:"upgrade_multiplier"`
	RefundRatio       float64 `toml:"refund_ratio"`
	DecayPerHour      float64 `toml:"decay_per_hour"` // condition points lost per hour
	RepairCostRatio   float64 `toml:"repair_cost_ratio"`
	BaseTamaCapacity  int     `toml:"base_tama_capacity"`
	FeedResource      string  `toml:"feed_resource"`
	AutoFeedThreshold float64 `toml:"auto_feed_threshold"` // hunger below this gets fed
}

type CraftingConfig struct {
	MinTimeRatio float64 `toml:"min_time_ratio"`
}

type CustomersConfig struct {
	Population       int           `toml:"population"`
	BoardSize        int           `toml:"board_size"` // pending contracts kept on offer
	RotationInterval time.Duration `toml:"rotation_interval"`
}

type ProgressionConfig struct {
	ExpBase             float64 `toml:"exp_base"`
	CurveExponent       float64 `toml:"curve_exponent"`
	MaxLevel            int     `toml:"max_level"`
	PrestigeMinLevel    int     `toml:"prestige_min_level"`
	PrestigeMinTamas    int     `toml:"prestige_min_tamas"`
	PrestigeMinRare     int     `toml:"prestige_min_rare"` // tamas at tier ≥ 3
	PrestigeExpStep     float64 `toml:"prestige_exp_step"` // experience multiplier per prestige level
	SpecializationLevel int     `toml:"specialization_level"`
}

type EngineConfig struct {
	TickRate         time.Duration `toml:"tick_rate" env:"RANCH_TICK_RATE"`
	Seed             int64         `toml:"seed" env:"RANCH_SEED"` // 0 = random
	AutosaveInterval time.Duration `toml:"autosave_interval"`
	SaveSlot         string        `toml:"save_slot" env:"RANCH_SAVE_SLOT"`
}

type StorageConfig struct {
	Driver          string        `toml:"driver" env:"RANCH_STORAGE_DRIVER"` // "sqlite" or "postgres"
	DSN             string        `toml:"dsn" env:"RANCH_STORAGE_DSN"`
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

type DataConfig struct {
	Dir     string `toml:"dir" env:"RANCH_DATA_DIR"` // empty = embedded tables
	// Scripts is an optional Lua file overriding achievement conditions.
	Scripts string `toml:"scripts" env:"RANCH_SCRIPTS"`
}

type LoggingConfig struct {
	Level  string `toml:"level" env:"RANCH_LOG_LEVEL"`
	Format string `toml:"format" env:"RANCH_LOG_FORMAT"` // "json" or "console"
}

// Load reads a TOML file over the defaults, then applies RANCH_* environment
// overrides. A missing file is not an error; the defaults are used.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func Default() *Config {
	return &Config{
		Economy: EconomyConfig{
			UpgradeMultiplier: 1.5,
			RefundRatio:       0.5,
			DecayPerHour:      1.0,
			RepairCostRatio:   0.5,
			BaseTamaCapacity:  3,
			FeedResource:      "berries",
			AutoFeedThreshold: 70,
		},
		Crafting: CraftingConfig{
			MinTimeRatio: 0.1,
		},
		Customers: CustomersConfig{
			Population:       10,
			BoardSize:        5,
			RotationInterval: 30 * 24 * time.Hour,
		},
		Progression: ProgressionConfig{
			ExpBase:             100,
			CurveExponent:       1.5,
			MaxLevel:            100,
			PrestigeMinLevel:    50,
			PrestigeMinTamas:    5,
			PrestigeMinRare:     2,
			PrestigeExpStep:     0.1,
			SpecializationLevel: 10,
		},
		Engine: EngineConfig{
			TickRate:         time.Second,
			AutosaveInterval: 5 * time.Minute,
			SaveSlot:         "default",
		},
		Storage: StorageConfig{
			Driver:          "sqlite",
			DSN:             "data/ranch.db",
			MaxOpenConns:    4,
			MaxIdleConns:    1,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
