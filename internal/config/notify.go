package config

import "github.com/caarlos0/env/v11"

type NotifyConfig struct {
	BaseURL   string `env:"NOTIFY_BASE_URL"`
	TimeoutMS int    `env:"NOTIFY_TIMEOUT_MS" envDefault:"5000"`
}

func LoadNotify() (NotifyConfig, error) {
	var cfg NotifyConfig
	err := env.Parse(&cfg)
	return cfg, err
}
