// Package config loads gdbdrive configuration from file and environment.
//
// Precedence (highest to lowest):
//  1. Environment variables (GDBDRIVE_*, OTEL_EXPORTER_OTLP_*)
//  2. Config file
//  3. Built-in defaults
//
// Config file search order when no explicit path is given:
//  1. .gdbdrive.yaml in current directory
//  2. ~/.config/gdbdrive/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/timvw/gdbdrive/internal/model"
	"github.com/timvw/gdbdrive/internal/transport"
	"gopkg.in/yaml.v3"
)

// Config holds all gdbdrive configuration.
type Config struct {
	// Debugger process
	GDB       string   `yaml:"gdb"`
	GDBArgs   []string `yaml:"gdb_args"`
	Transport string   `yaml:"transport"` // "pty" (default) or "pipe"

	// Session protocol
	Prompt        string `yaml:"prompt"`
	Timeout       string `yaml:"timeout"`        // Go duration string; "0" or "off" waits forever
	HandoffMarker string `yaml:"handoff_marker"` // no-op command sent before a handoff

	// Target environment
	Sysroot          string   `yaml:"sysroot"`
	SolibSearchPaths []string `yaml:"solib_search_paths"`
	SourceRoot       string   `yaml:"source_root"`
	SourceSuffix     string   `yaml:"source_suffix"`

	// Stack canonicalization
	Denylist        []model.DenyEntry `yaml:"denylist"`
	ReplaceDenylist bool              `yaml:"replace_denylist"` // drop the built-in entries

	// Session log: every byte gdb prints
	LogFile string `yaml:"log_file"`

	// OTEL
	OTELEndpoint string `yaml:"otel_endpoint"`
	OTELHeaders  string `yaml:"otel_headers"`

	// TimeoutDuration is parsed from Timeout after loading.
	TimeoutDuration time.Duration `yaml:"-"`

	// ConfigFile is the path to the config file that was loaded (empty if none).
	ConfigFile string `yaml:"-"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		GDB:           "gdb",
		GDBArgs:       []string{"--quiet"},
		Transport:     transport.KindPTY,
		Prompt:        "(gdb) ",
		Timeout:       "30s",
		HandoffMarker: "python True",
	}
}

// Load reads configuration from path, or from the default search locations
// when path is empty, and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	var (
		data []byte
		err  error
	)
	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		path, data, err = findConfigFile()
	}
	if err == nil {
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		cfg.ConfigFile = path
		mergeFile(cfg, &fileCfg)
	}

	mergeEnv(cfg)

	cfg.TimeoutDuration, err = parseDurationOrDisable(cfg.Timeout, 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid timeout %q: %w", cfg.Timeout, err)
	}
	if cfg.Prompt == "" {
		return nil, fmt.Errorf("prompt must not be empty")
	}

	return cfg, nil
}

// EffectiveDenylist returns the frames to prune: the built-in table plus the
// configured entries, or only the configured entries when ReplaceDenylist
// is set.
func (c *Config) EffectiveDenylist() []model.DenyEntry {
	if c.ReplaceDenylist {
		return append([]model.DenyEntry(nil), c.Denylist...)
	}
	return append(model.DefaultDenylist(), c.Denylist...)
}

// SetTimeout replaces the command timeout, e.g. from a command-line flag.
func (c *Config) SetTimeout(s string) error {
	d, err := parseDurationOrDisable(s, c.TimeoutDuration)
	if err != nil {
		return fmt.Errorf("invalid timeout %q: %w", s, err)
	}
	c.Timeout = s
	c.TimeoutDuration = d
	return nil
}

// findConfigFile searches for a config file and returns its path and contents.
func findConfigFile() (string, []byte, error) {
	if data, err := os.ReadFile(".gdbdrive.yaml"); err == nil {
		return ".gdbdrive.yaml", data, nil
	}

	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".config", "gdbdrive", "config.yaml")
		if data, err := os.ReadFile(path); err == nil {
			return path, data, nil
		}
	}

	return "", nil, fmt.Errorf("no config file found")
}

// mergeFile applies non-zero file values onto cfg.
func mergeFile(cfg *Config, file *Config) {
	if file.GDB != "" {
		cfg.GDB = file.GDB
	}
	if file.GDBArgs != nil {
		cfg.GDBArgs = file.GDBArgs
	}
	if file.Transport != "" {
		cfg.Transport = file.Transport
	}
	if file.Prompt != "" {
		cfg.Prompt = file.Prompt
	}
	if file.Timeout != "" {
		cfg.Timeout = file.Timeout
	}
	if file.HandoffMarker != "" {
		cfg.HandoffMarker = file.HandoffMarker
	}
	if file.Sysroot != "" {
		cfg.Sysroot = file.Sysroot
	}
	if len(file.SolibSearchPaths) > 0 {
		cfg.SolibSearchPaths = file.SolibSearchPaths
	}
	if file.SourceRoot != "" {
		cfg.SourceRoot = file.SourceRoot
	}
	if file.SourceSuffix != "" {
		cfg.SourceSuffix = file.SourceSuffix
	}
	if len(file.Denylist) > 0 {
		cfg.Denylist = file.Denylist
	}
	if file.ReplaceDenylist {
		cfg.ReplaceDenylist = true
	}
	if file.LogFile != "" {
		cfg.LogFile = file.LogFile
	}
	if file.OTELEndpoint != "" {
		cfg.OTELEndpoint = file.OTELEndpoint
	}
	if file.OTELHeaders != "" {
		cfg.OTELHeaders = file.OTELHeaders
	}
}

// mergeEnv applies environment variables onto cfg. Env always wins.
func mergeEnv(cfg *Config) {
	if v := os.Getenv("GDBDRIVE_GDB"); v != "" {
		cfg.GDB = v
	}
	if v := os.Getenv("GDBDRIVE_TRANSPORT"); v != "" {
		cfg.Transport = v
	}
	if v := os.Getenv("GDBDRIVE_PROMPT"); v != "" {
		cfg.Prompt = v
	}
	if v := os.Getenv("GDBDRIVE_TIMEOUT"); v != "" {
		cfg.Timeout = v
	}
	if v := os.Getenv("GDBDRIVE_HANDOFF_MARKER"); v != "" {
		cfg.HandoffMarker = v
	}
	if v := os.Getenv("GDBDRIVE_SYSROOT"); v != "" {
		cfg.Sysroot = v
	}
	if v := os.Getenv("GDBDRIVE_SOLIB_SEARCH_PATH"); v != "" {
		cfg.SolibSearchPaths = filepath.SplitList(v)
	}
	if v := os.Getenv("GDBDRIVE_SOURCE_ROOT"); v != "" {
		cfg.SourceRoot = v
	}
	if v := os.Getenv("GDBDRIVE_SOURCE_SUFFIX"); v != "" {
		cfg.SourceSuffix = v
	}
	if v := os.Getenv("GDBDRIVE_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.OTELEndpoint = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"); v != "" {
		cfg.OTELHeaders = v
	}
}

// parseDurationOrDisable parses a duration string. "0", "off", "disable" return 0.
// Empty string returns the fallback value.
func parseDurationOrDisable(s string, fallback time.Duration) (time.Duration, error) {
	if s == "" {
		return fallback, nil
	}
	if s == "0" || s == "off" || s == "disable" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
