package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/aptscope/internal/config"
	"github.com/blackwell-systems/aptscope/internal/dpkg"
	"github.com/blackwell-systems/aptscope/internal/store"
)

// External tool calls, replaced in tests.
var (
	hasTool              = dpkg.HasTool
	deborphan            = dpkg.Deborphan
	autoremoveCandidates = dpkg.AutoremoveCandidates
	aptFileList          = dpkg.AptFileList
	listAvailable        = dpkg.ListAvailable
)

// commandContext returns the command's context, or a background context
// when the command is run outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// loadConfig reads the config file named by --config (or the default
// location) and applies the --db override.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("failed to locate config: %w", err)
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if dbPath != "" {
		cfg.DB = dbPath
	}
	return cfg, nil
}

// openStore opens the index database, creating its directory if needed.
// The schema is not created; queries on a fresh database return
// store.ErrNotInitialized.
func openStore(cfg *config.Config) (*store.Store, error) {
	if cfg.DB != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DB), 0755); err != nil {
			return nil, fmt.Errorf("failed to create index directory: %w", err)
		}
	}

	st, err := store.New(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	return st, nil
}

// withStore loads the config, opens the index and runs fn.
func withStore(fn func(cfg *config.Config, st *store.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	return fn(cfg, st)
}

func dpkgPaths(cfg *config.Config) dpkg.Paths {
	return dpkg.Paths{
		StatusFile:     cfg.StatusFile,
		ExtendedStates: cfg.ExtendedStates,
	}
}
