// Package config provides configuration file parsing for aptscope.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// FileName is the config file name inside Dir.
const FileName = "config.toml"

// Dir returns the aptscope config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/aptscope if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "aptscope"), nil
}

// Config is the on-disk configuration. Zero fields fall back to Default.
type Config struct {
	StatusFile     string `toml:"status_file"`
	ExtendedStates string `toml:"extended_states"`
	InfoDir        string `toml:"info_dir"`
	HistoryDir     string `toml:"history_dir"`
	DB             string `toml:"db"`

	Remote  Remote  `toml:"remote"`
	Orphans Orphans `toml:"orphans"`
}

// Remote configures the fallback file-list lookup.
type Remote struct {
	// URL may contain the {suite}, {arch} and {package} placeholders.
	URL     string        `toml:"url"`
	Suite   string        `toml:"suite"`
	Arch    string        `toml:"arch"`
	Timeout time.Duration `toml:"timeout"`
}

// Orphans configures the orphan detector.
type Orphans struct {
	ExtraCorePatterns []string `toml:"extra_core_patterns"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		StatusFile:     "/var/lib/dpkg/status",
		ExtendedStates: "/var/lib/apt/extended_states",
		InfoDir:        "/var/lib/dpkg/info",
		HistoryDir:     "/var/log/apt",
		DB:             filepath.Join(home, ".aptscope", "index.db"),
		Remote: Remote{
			URL:     "https://packages.debian.org/{suite}/{arch}/{package}/filelist",
			Suite:   "stable",
			Arch:    "amd64",
			Timeout: 10 * time.Second,
		},
	}
}

// DefaultPath returns {Dir}/config.toml.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Load reads the config file at path and merges it over Default. If the
// file does not exist, the defaults are returned without an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var file Config
	md, err := toml.Decode(string(data), &file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config key %q in %s", undecoded[0].String(), path)
	}

	cfg.merge(&file)
	return cfg, nil
}

func (c *Config) merge(o *Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}

	set(&c.StatusFile, o.StatusFile)
	set(&c.ExtendedStates, o.ExtendedStates)
	set(&c.InfoDir, o.InfoDir)
	set(&c.HistoryDir, o.HistoryDir)
	set(&c.DB, o.DB)
	set(&c.Remote.URL, o.Remote.URL)
	set(&c.Remote.Suite, o.Remote.Suite)
	set(&c.Remote.Arch, o.Remote.Arch)

	if o.Remote.Timeout > 0 {
		c.Remote.Timeout = o.Remote.Timeout
	}
	c.Orphans.ExtraCorePatterns = append(c.Orphans.ExtraCorePatterns, o.Orphans.ExtraCorePatterns...)
}
