package config

import "time"

// Config is the top-level pastemark configuration, corresponding to .pastemark.yml.
type Config struct {
	Port            int      `yaml:"port" koanf:"port"`
	DatabasePath    string   `yaml:"database_path" koanf:"database_path"`
	Style           string   `yaml:"style" koanf:"style"`
	DefaultLexer    string   `yaml:"default_lexer" koanf:"default_lexer"`
	Include         []string `yaml:"include" koanf:"include"`
	Exclude         []string `yaml:"exclude" koanf:"exclude"`
	MaxFiles        int      `yaml:"max_files" koanf:"max_files"`
	MaxFileSize     int64    `yaml:"max_file_size" koanf:"max_file_size"`
	RenderCacheSize int      `yaml:"render_cache_size" koanf:"render_cache_size"`
	AllowAllOrigins bool     `yaml:"allow_all_origins" koanf:"allow_all_origins"`
	TabWidth        int      `yaml:"tab_width" koanf:"tab_width"`
	DefaultExpiry   string   `yaml:"default_expiry" koanf:"default_expiry"`
	ReapInterval    string   `yaml:"reap_interval" koanf:"reap_interval"` // "0" disables reaping in serve
}

// ReapEvery returns the parsed reap interval. Validate must have passed.
func (c *Config) ReapEvery() time.Duration {
	d, _ := time.ParseDuration(c.ReapInterval)
	return d
}
