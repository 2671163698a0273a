package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"templecode/errors"
)

func newBufferLogger(buf *bytes.Buffer, formatter Formatter, level LogLevel) *DefaultLogger {
	return NewDefaultLoggerWithConfig(LoggerConfig{
		Level:      level,
		Formatters: []Formatter{formatter},
		Writers:    []Writer{NewStreamWriter(buf)},
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarning, ParseLevel("WARN"))
	assert.Equal(t, LevelError, ParseLevel(" error "))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))

	var cfg LoggerConfig
	cfg.ApplyLogLevel("fatal")
	assert.Equal(t, LevelFatal, cfg.Level)
}

func TestDefaultLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, NewSimpleFormatter(), LevelWarning)

	logger.Debug("hidden")
	logger.Info("hidden too")
	logger.Warn("shown")

	assert.Equal(t, "WARNING shown\n", buf.String())
}

func TestDefaultLogger_TextFieldsAreSorted(t *testing.T) {
	var buf bytes.Buffer
	formatter := &TextFormatter{}
	logger := newBufferLogger(&buf, formatter, LevelDebug)

	logger.WithComponent("engine").WithFields(StringField("z", "last")).Info("run finished", IntField("a", 1))

	assert.Equal(t, "[INFO] [engine] run finished [a=1, z=last]\n", buf.String())
}

func TestDefaultLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, NewJSONFormatter(), LevelDebug)

	logger.Info("started", IntField("statements", 3))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "INFO", decoded["level"])
	assert.Equal(t, "started", decoded["message"])
	fields := decoded["fields"].(map[string]interface{})
	assert.Equal(t, float64(3), fields["statements"])
}

func TestDefaultLogger_ErrorExecution(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf, &TextFormatter{}, LevelDebug)

	logger.ErrorExecution(errors.NewRuntimeError("UNKNOWN_COMMAND", "unknown command FOO").WithLine(4))
	assert.Equal(t, "[WARNING] unknown command FOO [error_code=UNKNOWN_COMMAND, error_type=RUNTIME, line=4]\n", buf.String())

	buf.Reset()
	logger.ErrorExecution(errors.NewFatalError("RETURN_WITHOUT_GOSUB", "RETURN without GOSUB"))
	assert.Contains(t, buf.String(), "[ERROR] RETURN without GOSUB")
}

func TestWithFieldsDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := newBufferLogger(&buf, &TextFormatter{}, LevelDebug)
	_ = parent.WithFields(StringField("child", "yes"))

	parent.Info("plain")
	assert.Equal(t, "[INFO] plain\n", buf.String())
}

func TestNopLogger(t *testing.T) {
	logger := NewNopLogger()
	logger.Error("dropped")
	assert.Equal(t, LevelFatal+1, logger.GetLevel())
}

func TestNewFormatter(t *testing.T) {
	f, err := NewFormatter("json")
	require.NoError(t, err)
	assert.Equal(t, "json", f.GetName())

	_, err = NewFormatter("xml")
	assert.Error(t, err)
}

func TestMultiWriter_FansOut(t *testing.T) {
	var first, second bytes.Buffer
	logger := NewDefaultLoggerWithConfig(LoggerConfig{
		Level:      LevelInfo,
		Formatters: []Formatter{NewSimpleFormatter()},
		Writers:    []Writer{NewMultiWriter(NewStreamWriter(&first), NewStreamWriter(&second))},
	})

	logger.Info("run started")
	assert.Equal(t, first.String(), second.String())
	assert.Contains(t, first.String(), "run started")
	assert.Equal(t, "multi", NewMultiWriter().GetName())
}
