package config

import "github.com/caarlos0/env/v11"

type ServerConfig struct {
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8000"`
	AdminAPIKey string `env:"ADMIN_API_KEY"`

	SignupMaxAttempts      int `env:"SIGNUP_MAX_ATTEMPTS" envDefault:"3"`
	ShutdownTimeoutSeconds int `env:"SHUTDOWN_TIMEOUT_SECONDS" envDefault:"10"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
