package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"gopkg.in/yaml.v3"

	"templecode/engine"
	"templecode/errors"
	"templecode/expression"
	"templecode/logging"
)

// Config represents the application configuration
type Config struct {
	Engine  EngineConfig  `json:"engine" yaml:"engine"`
	Logging LoggingConfig `json:"logging" yaml:"logging"`
	REPL    REPLConfig    `json:"repl" yaml:"repl"`
	Input   InputConfig   `json:"input" yaml:"input"`
}

// EngineConfig contains execution limits
type EngineConfig struct {
	MaxIterations int `json:"max_iterations,omitempty" yaml:"max_iterations,omitempty"`
	// Timeout is a Go duration such as "10s"; "off" disables the deadline
	Timeout        string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	MaxCallDepth   int    `json:"max_call_depth,omitempty" yaml:"max_call_depth,omitempty"`
	PrintZoneWidth int    `json:"print_zone_width,omitempty" yaml:"print_zone_width,omitempty"`
	CacheSize      int    `json:"cache_size,omitempty" yaml:"cache_size,omitempty"`
	Seed           int64  `json:"seed,omitempty" yaml:"seed,omitempty"`
	StrictLabels   bool   `json:"strict_labels,omitempty" yaml:"strict_labels,omitempty"`
	Verbose        bool   `json:"verbose,omitempty" yaml:"verbose,omitempty"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `json:"level,omitempty" yaml:"level,omitempty"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
	// File receives log entries instead of stderr when set
	File string `json:"file,omitempty" yaml:"file,omitempty"`
	// Console keeps stderr logging alongside File
	Console bool `json:"console,omitempty" yaml:"console,omitempty"`
}

// REPLConfig contains REPL configuration
type REPLConfig struct {
	Prompt         string `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	ContinuePrompt string `json:"continue_prompt,omitempty" yaml:"continue_prompt,omitempty"`
	HistorySize    int    `json:"history_size,omitempty" yaml:"history_size,omitempty"`
	HistoryFile    string `json:"history_file,omitempty" yaml:"history_file,omitempty"`
	ShowWelcome    bool   `json:"show_welcome,omitempty" yaml:"show_welcome,omitempty"`
	Colors         bool   `json:"colors,omitempty" yaml:"colors,omitempty"`
}

// InputConfig controls where A: and INPUT answers come from in batch runs
type InputConfig struct {
	// Script is an answers file, one per line, or a .lua answer script
	Script string `json:"script,omitempty" yaml:"script,omitempty"`
	// LuaTimeout bounds each call into a Lua answer script
	LuaTimeout string `json:"lua_timeout,omitempty" yaml:"lua_timeout,omitempty"`
	// Echo copies prompts and scripted answers to the output
	Echo bool `json:"echo,omitempty" yaml:"echo,omitempty"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			MaxIterations:  engine.DefaultMaxIterations,
			Timeout:        engine.DefaultTimeout.String(),
			MaxCallDepth:   engine.DefaultMaxCallDepth,
			PrintZoneWidth: engine.DefaultPrintZoneWidth,
			CacheSize:      expression.DefaultCacheSize,
		},
		Logging: LoggingConfig{
			Level:  "error",
			Format: "text",
		},
		REPL: REPLConfig{
			Prompt:         "> ",
			ContinuePrompt: "... ",
			HistorySize:    1000,
			HistoryFile:    "~/.templecode_history",
			ShowWelcome:    true,
			Colors:         true,
		},
		Input: InputConfig{
			Echo: true,
		},
	}
}

// LoadConfig loads configuration from a file on fs. A missing file
// yields the defaults; a present one must match the config schema.
func LoadConfig(fs billy.Filesystem, path string) (*Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}
	path = expandHome(path)

	data, err := util.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	isJSON := strings.ToLower(filepath.Ext(path)) == ".json"

	var document interface{}
	if isJSON {
		err = json.Unmarshal(data, &document)
	} else {
		err = yaml.Unmarshal(data, &document)
	}
	if err != nil {
		return nil, errors.NewConfigError("CONFIG_PARSE", fmt.Sprintf("cannot parse %s", path)).Wrap(err)
	}
	if document == nil {
		// empty file
		return config, nil
	}
	if err := validateConfigDocument(document); err != nil {
		return nil, errors.NewConfigError("CONFIG_INVALID", fmt.Sprintf("%s does not match the config schema", path)).Wrap(err)
	}

	if isJSON {
		err = json.Unmarshal(data, config)
	} else {
		err = yaml.Unmarshal(data, config)
	}
	if err != nil {
		return nil, errors.NewConfigError("CONFIG_PARSE", fmt.Sprintf("cannot decode %s", path)).Wrap(err)
	}
	return config, nil
}

// SaveConfig saves configuration to a file, YAML unless the path ends in .json
func SaveConfig(fs billy.Filesystem, config *Config, path string) error {
	path = expandHome(path)

	if dir := filepath.Dir(path); dir != "." {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	var (
		data []byte
		err  error
	)
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		data, err = json.MarshalIndent(config, "", "  ")
	} else {
		var buf bytes.Buffer
		err = writeConfigYAML(&buf, config)
		data = buf.Bytes()
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := util.WriteFile(fs, path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// writeConfigYAML encodes config as YAML with two-space indentation
func writeConfigYAML(w io.Writer, config *Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(config); err != nil {
		return err
	}
	return enc.Close()
}

// ApplyOverrides merges non-zero fields of overrides into c, e.g. the
// values of command-line flags
func (c *Config) ApplyOverrides(overrides Config) error {
	if err := mergo.Merge(c, overrides, mergo.WithOverride); err != nil {
		return errors.NewConfigError("CONFIG_MERGE", "cannot apply overrides").Wrap(err)
	}
	return nil
}

// EngineSettings converts the engine section to engine.Config
func (c *Config) EngineSettings() (engine.Config, error) {
	ec := engine.Config{
		MaxIterations:  c.Engine.MaxIterations,
		MaxCallDepth:   c.Engine.MaxCallDepth,
		PrintZoneWidth: c.Engine.PrintZoneWidth,
		CacheSize:      c.Engine.CacheSize,
		Seed:           c.Engine.Seed,
	}
	timeout, err := parseTimeout(c.Engine.Timeout)
	if err != nil {
		return engine.Config{}, err
	}
	ec.Timeout = timeout
	return ec, nil
}

// LuaTimeout returns the per-call budget of Lua answer scripts; zero
// means the provider default
func (c *Config) LuaTimeout() (time.Duration, error) {
	if c.Input.LuaTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Input.LuaTimeout)
	if err != nil || d <= 0 {
		return 0, errors.NewConfigError("BAD_DURATION", fmt.Sprintf("invalid lua_timeout %q", c.Input.LuaTimeout))
	}
	return d, nil
}

// parseTimeout reads a run timeout. "" keeps the engine default and
// "off" disables the deadline.
func parseTimeout(s string) (time.Duration, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return 0, nil
	case "off", "none":
		return -1, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, errors.NewConfigError("BAD_DURATION", fmt.Sprintf("invalid timeout %q", s))
	}
	return d, nil
}

// NewLogger builds the application logger from the logging section
func (c *Config) NewLogger() (logging.Logger, error) {
	formatter, err := logging.NewFormatter(c.Logging.Format)
	if err != nil {
		return nil, errors.NewConfigError("BAD_LOG_FORMAT", err.Error())
	}

	var writer logging.Writer = logging.NewConsoleWriterWithFile(os.Stderr)
	if c.Logging.File != "" {
		fw, err := logging.NewFileWriter(expandHome(c.Logging.File))
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		if c.Logging.Console {
			writer = logging.NewMultiWriter(fw, writer)
		} else {
			writer = fw
		}
	}

	lc := logging.LoggerConfig{
		Formatters: []logging.Formatter{formatter},
		Writers:    []logging.Writer{writer},
	}
	lc.ApplyLogLevel(c.Logging.Level)
	if c.Engine.Verbose {
		lc.Level = logging.LevelDebug
	}
	return logging.NewDefaultLoggerWithConfig(lc), nil
}

// expandHome expands ~ to the user's home directory
func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
