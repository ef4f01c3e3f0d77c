package config

import "github.com/caarlos0/env/v11"

// LogConfig controls the global zerolog logger. File enables a second,
// rolling sink next to stdout.
type LogConfig struct {
	Level       string `env:"LOG_LEVEL" envDefault:"info"`
	Pretty      bool   `env:"LOG_PRETTY" envDefault:"false"`
	SampleEvery int    `env:"LOG_SAMPLE_EVERY" envDefault:"0"`
	Service     string `env:"LOG_SERVICE" envDefault:"practice-server"`
	File        string `env:"LOG_FILE"`
	MaxMB       int    `env:"LOG_MAX_MB" envDefault:"10"`
}

func LoadLog() (LogConfig, error) {
	var cfg LogConfig
	err := env.Parse(&cfg)
	return cfg, err
}

// MaxBytes is the rolling file cap. Non-positive MaxMB falls back to 10MB.
func (c LogConfig) MaxBytes() int64 {
	mb := c.MaxMB
	if mb <= 0 {
		mb = 10
	}
	return int64(mb) << 20
}
