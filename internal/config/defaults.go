package config

import "github.com/ziadkadry99/pastemark/internal/paste"

// DefaultPath is where commands look for the configuration file.
const DefaultPath = ".pastemark.yml"

// DefaultExcludes are glob patterns skipped on import by default.
var DefaultExcludes = []string{
	"vendor/**",
	"node_modules/**",
	".git/**",
	".pastemark/**",
	"dist/**",
	"build/**",
	"*.min.js",
	"*.min.css",
	"*.lock",
	"go.sum",
	"package-lock.json",
	"yarn.lock",
}

// Styles offered by the init wizard. Any chroma style name is accepted in
// the file.
var Styles = []string{"github", "monokai", "dracula", "solarized-light", "solarized-dark", "vs"}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:            8000,
		DatabasePath:    ".pastemark/pastemark.db",
		Style:           "github",
		DefaultLexer:    "autodetect",
		Include:         []string{"**"},
		Exclude:         append([]string(nil), DefaultExcludes...),
		MaxFiles:        64,
		MaxFileSize:     256 * 1024,
		RenderCacheSize: 128,
		AllowAllOrigins: false,
		TabWidth:        4,
		DefaultExpiry:   paste.DefaultExpiry,
		ReapInterval:    "1h",
	}
}
