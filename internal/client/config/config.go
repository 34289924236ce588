// Package config loads the mrms CLI settings from MRMS_-prefixed environment
// variables.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	APIURL      string        `env:"API_URL,      default=http://localhost:8080"`
	TokenPath   string        `env:"TOKEN_PATH"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT, default=10s"`
	LogLevel    string        `env:"LOG_LEVEL,    default=warn"`

	// PreserveSessionOnNetworkError keeps the stored token when the
	// startup check fails for a transient reason.
	PreserveSessionOnNetworkError bool `env:"PRESERVE_SESSION_ON_NETWORK_ERROR, default=false"`
}

// Load reads the client configuration. An empty TOKEN_PATH resolves to
// <user config dir>/mrms/token.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper(), os.UserConfigDir)
}

func load(ctx context.Context, l envconfig.Lookuper, configDir func() (string, error)) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: envconfig.PrefixLookuper("MRMS_", l),
	}); err != nil {
		return nil, fmt.Errorf("client config: %w", err)
	}

	if cfg.TokenPath == "" {
		dir, err := configDir()
		if err != nil {
			return nil, fmt.Errorf("client config: resolve token path: %w", err)
		}
		cfg.TokenPath = filepath.Join(dir, "mrms", "token")
	}
	return &cfg, nil
}
