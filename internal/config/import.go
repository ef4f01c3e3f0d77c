package config

import "github.com/caarlos0/env/v11"

type ImportConfig struct {
	RosterDir       string `env:"IMPORT_ROSTER_DIR"`
	FormPath        string `env:"IMPORT_FORM_PATH"`
	FormSource      string `env:"IMPORT_FORM_SOURCE" envDefault:"registration-form"`
	IntervalSeconds int    `env:"IMPORT_INTERVAL_SECONDS" envDefault:"60"`
}

func LoadImport() (ImportConfig, error) {
	var cfg ImportConfig
	err := env.Parse(&cfg)
	return cfg, err
}

func (c ImportConfig) Enabled() bool {
	return c.RosterDir != "" || c.FormPath != ""
}
