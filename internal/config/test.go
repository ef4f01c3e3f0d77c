package config

import "github.com/caarlos0/env/v11"

// TestConfig is read by the storage integration tests. They skip when
// TEST_POSTGRES_DSN is unset.
type TestConfig struct {
	PostgresDSN string `env:"TEST_POSTGRES_DSN,required,notEmpty"`
	KeepSchema  bool   `env:"TEST_KEEP_SCHEMA" envDefault:"false"`
}

func LoadTest() (TestConfig, error) {
	var cfg TestConfig
	err := env.Parse(&cfg)
	return cfg, err
}
