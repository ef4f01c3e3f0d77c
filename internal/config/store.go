package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
	StoreDriverMemory   = "memory"
)

type StoreConfig struct {
	Driver      string `env:"STORE_DRIVER" envDefault:"postgres"`
	PostgresDSN string `env:"POSTGRES_DSN"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"practice.db"`
	AutoMigrate bool   `env:"STORE_AUTO_MIGRATE" envDefault:"true"`
}

func LoadStore() (StoreConfig, error) {
	var cfg StoreConfig
	if err := env.Parse(&cfg); err != nil {
		return StoreConfig{}, err
	}
	cfg.Driver = strings.ToLower(strings.TrimSpace(cfg.Driver))
	if err := cfg.Validate(); err != nil {
		return StoreConfig{}, err
	}
	return cfg, nil
}

func (c StoreConfig) Validate() error {
	switch c.Driver {
	case StoreDriverPostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return fmt.Errorf("POSTGRES_DSN is required for store driver %q", c.Driver)
		}
	case StoreDriverSQLite:
		if strings.TrimSpace(c.SQLitePath) == "" {
			return fmt.Errorf("SQLITE_PATH is required for store driver %q", c.Driver)
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Driver)
	}
	return nil
}
