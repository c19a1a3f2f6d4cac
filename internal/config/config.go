package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds environment-driven settings for the long-running modes
// (watch, preview, language server). Per-invocation options stay on the
// command line.
type Config struct {
	WatchInterval time.Duration `env:"LITWEAVE_WATCH_INTERVAL" envDefault:"1s"`
	WatchWindow   time.Duration `env:"LITWEAVE_WATCH_WINDOW" envDefault:"2s"`
	PreviewAddr   string        `env:"LITWEAVE_PREVIEW_ADDR" envDefault:":8077"`
	ShadowRoot    string        `env:"LITWEAVE_SHADOW_ROOT"`
	// Command for the language server backing litweave-ls
	BackendLS string `env:"LITWEAVE_BACKEND_LS" envDefault:"lua-language-server"`
}

func Load() (Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.ShadowRoot == "" {
		cfg.ShadowRoot = filepath.Join(os.TempDir(), "litweave-workspace")
	}

	return cfg, nil
}
