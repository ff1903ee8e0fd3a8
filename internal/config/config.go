package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/ziadkadry99/pastemark/internal/filetable"
	"github.com/ziadkadry99/pastemark/internal/paste"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (PASTEMARK_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: PASTEMARK_PORT -> port, etc.
	if err := k.Load(env.Provider("PASTEMARK_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "PASTEMARK_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 0 and 65535", c.Port)
	}

	if c.DatabasePath == "" {
		return fmt.Errorf("database_path is required")
	}

	if !filetable.KnownStyle(c.Style) {
		return fmt.Errorf("unknown style %q", c.Style)
	}

	if !filetable.KnownLexer(c.DefaultLexer) {
		return fmt.Errorf("unknown default_lexer %q", c.DefaultLexer)
	}

	if c.MaxFiles <= 0 {
		return fmt.Errorf("max_files must be positive")
	}

	if c.MaxFileSize <= 0 {
		return fmt.Errorf("max_file_size must be positive")
	}

	if c.RenderCacheSize <= 0 {
		return fmt.Errorf("render_cache_size must be positive")
	}

	if c.TabWidth < 0 {
		return fmt.Errorf("tab_width must be non-negative")
	}

	if _, err := paste.ParseExpiry(c.DefaultExpiry); err != nil {
		return fmt.Errorf("default_expiry: %w", err)
	}

	if d, err := time.ParseDuration(c.ReapInterval); err != nil {
		return fmt.Errorf("invalid reap_interval %q: %w", c.ReapInterval, err)
	} else if d < 0 {
		return fmt.Errorf("reap_interval must be non-negative")
	}

	return nil
}
