package cmd

import (
	"fmt"

	"github.com/ziadkadry99/pastemark/internal/config"
	"github.com/ziadkadry99/pastemark/internal/db"
	"github.com/ziadkadry99/pastemark/internal/filetable"
	"github.com/ziadkadry99/pastemark/internal/paste"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `pastemark init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// openStore opens the configured database and wraps it in a paste store.
// The caller closes the returned DB.
func openStore(cfg *config.Config) (*db.DB, *paste.Store, error) {
	database, err := db.Open(cfg.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}
	store := paste.NewStore(database, paste.Limits{
		MaxFiles:    cfg.MaxFiles,
		MaxFileSize: cfg.MaxFileSize,
	})
	return database, store, nil
}

func newRenderer(cfg *config.Config) *filetable.Renderer {
	return filetable.NewRenderer(cfg.Style, cfg.TabWidth)
}
