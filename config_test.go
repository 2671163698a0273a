package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"templecode/engine"
	"templecode/errors"
	"templecode/logging"
)

func TestLoadConfig_MissingFileKeepsDefaults(t *testing.T) {
	cfg, err := LoadConfig(memfs.New(), "nowhere.yaml")
	require.NoError(t, err)
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfig_EmptyFileKeepsDefaults(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "empty.yaml", nil, 0o644))

	cfg, err := LoadConfig(fs, "empty.yaml")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_YAMLOverlaysDefaults(t *testing.T) {
	fs := memfs.New()
	content := `engine:
  max_iterations: 500
  timeout: 2s
  strict_labels: true
logging:
  level: debug
repl:
  prompt: "tc> "
input:
  script: answers.txt
`
	require.NoError(t, util.WriteFile(fs, "templecode.yaml", []byte(content), 0o644))

	cfg, err := LoadConfig(fs, "templecode.yaml")
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Engine.MaxIterations)
	assert.Equal(t, "2s", cfg.Engine.Timeout)
	assert.True(t, cfg.Engine.StrictLabels)
	assert.Equal(t, engine.DefaultMaxCallDepth, cfg.Engine.MaxCallDepth)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "tc> ", cfg.REPL.Prompt)
	assert.Equal(t, "... ", cfg.REPL.ContinuePrompt)
	assert.Equal(t, "answers.txt", cfg.Input.Script)
	assert.True(t, cfg.Input.Echo)
}

func TestLoadConfig_JSON(t *testing.T) {
	fs := memfs.New()
	content := `{"engine": {"seed": 42, "timeout": "off"}, "logging": {"format": "json"}}`
	require.NoError(t, util.WriteFile(fs, "templecode.json", []byte(content), 0o644))

	cfg, err := LoadConfig(fs, "templecode.json")
	require.NoError(t, err)

	assert.Equal(t, int64(42), cfg.Engine.Seed)
	assert.Equal(t, "off", cfg.Engine.Timeout)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, engine.DefaultMaxIterations, cfg.Engine.MaxIterations)
}

func TestLoadConfig_SchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		detail  string
	}{
		{"unknown key", "a.yaml", "engine:\n  max_iteration: 5\n", "max_iteration"},
		{"unknown section", "b.yaml", "languages:\n  lua: true\n", "languages"},
		{"wrong type", "c.yaml", "engine:\n  max_iterations: lots\n", "max_iterations"},
		{"below minimum", "d.json", `{"engine": {"max_call_depth": 0}}`, "max_call_depth"},
		{"bad level", "e.yaml", "logging:\n  level: loud\n", "level"},
		{"bad timeout", "f.yaml", "engine:\n  timeout: soon\n", "timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := memfs.New()
			require.NoError(t, util.WriteFile(fs, tt.file, []byte(tt.content), 0o644))

			_, err := LoadConfig(fs, tt.file)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
			assert.Contains(t, err.Error(), "does not match the config schema")
			assert.Contains(t, err.Error(), tt.detail)
		})
	}
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	fs := memfs.New()
	require.NoError(t, util.WriteFile(fs, "bad.json", []byte(`{"engine": `), 0o644))

	_, err := LoadConfig(fs, "bad.json")
	require.Error(t, err)
	execErr, ok := errors.GetExecutionError(err)
	require.True(t, ok)
	assert.Equal(t, "CONFIG_PARSE", execErr.Code)
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	for _, name := range []string{"conf/templecode.yaml", "conf/templecode.json"} {
		t.Run(name, func(t *testing.T) {
			fs := memfs.New()
			want := DefaultConfig()
			want.Engine.MaxIterations = 77
			want.Engine.Timeout = "off"
			want.REPL.Colors = false
			want.Input.Script = "answers.lua"

			require.NoError(t, SaveConfig(fs, want, name))
			got, err := LoadConfig(fs, name)
			require.NoError(t, err)

			// false values are omitted on save, so the defaults come back
			want.REPL.Colors = true
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Input.Script = "from-file.txt"

	err := cfg.ApplyOverrides(Config{
		Engine:  EngineConfig{MaxIterations: 10, Verbose: true},
		Logging: LoggingConfig{Level: "error"},
	})
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.Engine.MaxIterations)
	assert.True(t, cfg.Engine.Verbose)
	assert.Equal(t, "error", cfg.Logging.Level)
	assert.Equal(t, engine.DefaultTimeout.String(), cfg.Engine.Timeout)
	assert.Equal(t, "from-file.txt", cfg.Input.Script)
}

func TestEngineSettings_Timeout(t *testing.T) {
	tests := []struct {
		timeout string
		want    time.Duration
		wantErr bool
	}{
		{"", 0, false},
		{"off", -1, false},
		{"None", -1, false},
		{"2s", 2 * time.Second, false},
		{"1m30s", 90 * time.Second, false},
		{"soon", 0, true},
		{"-1s", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.timeout, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Engine.Timeout = tt.timeout
			cfg.Engine.Seed = 9

			settings, err := cfg.EngineSettings()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, settings.Timeout)
			assert.Equal(t, int64(9), settings.Seed)
			assert.Equal(t, engine.DefaultMaxIterations, settings.MaxIterations)
		})
	}
}

func TestLuaTimeout(t *testing.T) {
	cfg := DefaultConfig()
	d, err := cfg.LuaTimeout()
	require.NoError(t, err)
	assert.Zero(t, d)

	cfg.Input.LuaTimeout = "250ms"
	d, err = cfg.LuaTimeout()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, d)

	cfg.Input.LuaTimeout = "later"
	_, err = cfg.LuaTimeout()
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	cfg := DefaultConfig()
	logger, err := cfg.NewLogger()
	require.NoError(t, err)
	assert.Equal(t, logging.LevelError, logger.GetLevel())

	cfg.Engine.Verbose = true
	logger, err = cfg.NewLogger()
	require.NoError(t, err)
	assert.Equal(t, logging.LevelDebug, logger.GetLevel())

	cfg.Logging.Format = "xml"
	_, err = cfg.NewLogger()
	assert.Error(t, err)
}

func TestNewLogger_FileWithConsole(t *testing.T) {
	for _, console := range []bool{false, true} {
		cfg := DefaultConfig()
		cfg.Logging.File = filepath.Join(t.TempDir(), "templecode.log")
		cfg.Logging.Format = "simple"
		cfg.Logging.Console = console

		logger, err := cfg.NewLogger()
		require.NoError(t, err)
		logger.Error("run stopped")
		closer, ok := logger.(interface{ Close() error })
		require.True(t, ok)
		require.NoError(t, closer.Close())

		data, err := os.ReadFile(cfg.Logging.File)
		require.NoError(t, err)
		assert.Contains(t, string(data), "run stopped")
	}
}

func TestLoadConfig_LoggingConsole(t *testing.T) {
	fs := memfs.New()
	content := "logging:\n  file: tc.log\n  console: true\n"
	require.NoError(t, util.WriteFile(fs, "tc.yaml", []byte(content), 0o644))

	cfg, err := LoadConfig(fs, "tc.yaml")
	require.NoError(t, err)
	assert.True(t, cfg.Logging.Console)
	assert.Equal(t, "tc.log", cfg.Logging.File)
}
