package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"practice-roster/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	mu      sync.Mutex
	current io.Writer = os.Stdout
	closer  io.Closer
)

// Init configures the global zerolog logger. When cfg.File is set, output
// goes to both stdout and a rolling file capped at cfg.MaxBytes().
func Init(cfg config.LogConfig) error {
	level := zerolog.InfoLevel
	if v := strings.TrimSpace(cfg.Level); v != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil {
			level = parsed
		}
	}

	var stdout io.Writer = os.Stdout
	if cfg.Pretty {
		stdout = zerolog.ConsoleWriter{Out: os.Stdout}
	}

	output := stdout
	var c io.Closer
	if path := strings.TrimSpace(cfg.File); path != "" {
		fw, err := newRollingWriter(path, cfg.MaxBytes())
		if err != nil {
			return err
		}
		output = zerolog.MultiLevelWriter(stdout, fw)
		c = fw
	}

	zerolog.SetGlobalLevel(level)
	ctx := zerolog.New(output).With().Timestamp()
	if cfg.Service != "" {
		ctx = ctx.Str("service", cfg.Service)
	}
	logger := ctx.Logger()
	if cfg.SampleEvery > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(cfg.SampleEvery)})
	}
	log.Logger = logger

	mu.Lock()
	prev := closer
	current = output
	closer = c
	mu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}
	return nil
}

// Writer returns the sink the global logger writes to, for components that
// log through their own encoder.
func Writer() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	return current
}

func Close() error {
	mu.Lock()
	c := closer
	closer = nil
	current = os.Stdout
	mu.Unlock()
	if c == nil {
		return nil
	}
	return c.Close()
}
