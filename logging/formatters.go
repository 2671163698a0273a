package logging

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// JSONFormatter formats log entries as JSON, one object per line
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format formats a log entry as JSON
func (f *JSONFormatter) Format(entry *LogEntry) ([]byte, error) {
	output := make(map[string]interface{})

	output["timestamp"] = entry.Timestamp.Format(time.RFC3339)
	output["level"] = entry.Level.String()
	output["message"] = entry.Message

	if entry.Caller != "" {
		output["caller"] = entry.Caller
	}
	if entry.Component != "" {
		output["component"] = entry.Component
	}
	if entry.Error != nil {
		output["error"] = entry.Error.Error()
	}
	if len(entry.Fields) > 0 {
		output["fields"] = entry.Fields
	}

	data, err := json.Marshal(output)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// GetName returns the name of the formatter
func (f *JSONFormatter) GetName() string {
	return "json"
}

// TextFormatter formats log entries as plain text
type TextFormatter struct {
	// IncludeTimestamp controls whether to include the timestamp
	IncludeTimestamp bool
	// IncludeCaller controls whether to include the caller information
	IncludeCaller bool
	// ColorOutput controls whether to use ANSI color codes
	ColorOutput bool
}

// NewTextFormatter creates a new text formatter with default settings
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{
		IncludeTimestamp: true,
		IncludeCaller:    false,
		ColorOutput:      false,
	}
}

// Format formats a log entry as plain text.
// Fields are sorted by key so output is stable.
func (f *TextFormatter) Format(entry *LogEntry) ([]byte, error) {
	var b strings.Builder

	if f.IncludeTimestamp {
		fmt.Fprintf(&b, "[%s] ", entry.Timestamp.Format("2006-01-02 15:04:05.000"))
	}

	levelStr := entry.Level.String()
	if f.ColorOutput {
		levelStr = colorizeLevel(levelStr, entry.Level)
	}
	fmt.Fprintf(&b, "[%s] ", levelStr)

	if entry.Component != "" {
		fmt.Fprintf(&b, "[%s] ", entry.Component)
	}

	b.WriteString(entry.Message)

	if f.IncludeCaller && entry.Caller != "" {
		fmt.Fprintf(&b, " (caller: %s)", entry.Caller)
	}
	if entry.Error != nil {
		fmt.Fprintf(&b, " (error: %s)", entry.Error.Error())
	}
	if len(entry.Fields) > 0 {
		b.WriteString(" ")
		b.WriteString(formatFields(entry.Fields))
	}

	b.WriteString("\n")
	return []byte(b.String()), nil
}

// GetName returns the name of the formatter
func (f *TextFormatter) GetName() string {
	return "text"
}

func formatFields(fields map[string]interface{}) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func colorizeLevel(level string, logLevel LogLevel) string {
	switch logLevel {
	case LevelDebug:
		return fmt.Sprintf("\x1b[36m%s\x1b[0m", level) // Cyan
	case LevelInfo:
		return fmt.Sprintf("\x1b[32m%s\x1b[0m", level) // Green
	case LevelWarning:
		return fmt.Sprintf("\x1b[33m%s\x1b[0m", level) // Yellow
	case LevelError:
		return fmt.Sprintf("\x1b[31m%s\x1b[0m", level) // Red
	case LevelFatal:
		return fmt.Sprintf("\x1b[35m%s\x1b[0m", level) // Magenta
	default:
		return level
	}
}

// ConsoleFormatter formats log entries for an interactive terminal
type ConsoleFormatter struct {
	*TextFormatter
}

// NewConsoleFormatter creates a new console formatter
func NewConsoleFormatter() *ConsoleFormatter {
	return &ConsoleFormatter{
		TextFormatter: &TextFormatter{IncludeTimestamp: false, ColorOutput: true},
	}
}

// GetName returns the name of the formatter
func (f *ConsoleFormatter) GetName() string {
	return "console"
}

// SimpleFormatter formats log entries in a simple, minimal format
type SimpleFormatter struct{}

// NewSimpleFormatter creates a new simple formatter
func NewSimpleFormatter() *SimpleFormatter {
	return &SimpleFormatter{}
}

// Format formats a log entry as "LEVEL message"
func (f *SimpleFormatter) Format(entry *LogEntry) ([]byte, error) {
	output := fmt.Sprintf("%s %s", entry.Level.String(), entry.Message)
	if entry.Error != nil {
		output += fmt.Sprintf(" (error: %s)", entry.Error.Error())
	}
	return []byte(output + "\n"), nil
}

// GetName returns the name of the formatter
func (f *SimpleFormatter) GetName() string {
	return "simple"
}

// NewFormatter returns the formatter registered under name
func NewFormatter(name string) (Formatter, error) {
	switch strings.ToLower(name) {
	case "", "text":
		return NewTextFormatter(), nil
	case "json":
		return NewJSONFormatter(), nil
	case "console":
		return NewConsoleFormatter(), nil
	case "simple":
		return NewSimpleFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", name)
	}
}
