package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const configSchemaURL = "templecode://config.schema.json"

// configSchema describes the configuration file. Unknown keys are
// rejected so that typos surface instead of silently keeping defaults.
const configSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "engine": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "max_iterations":   {"type": "integer", "minimum": 1},
        "timeout":          {"type": "string", "pattern": "^(off|none|[0-9]+(\\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$"},
        "max_call_depth":   {"type": "integer", "minimum": 1},
        "print_zone_width": {"type": "integer", "minimum": 1},
        "cache_size":       {"type": "integer", "minimum": 0},
        "seed":             {"type": "integer"},
        "strict_labels":    {"type": "boolean"},
        "verbose":          {"type": "boolean"}
      }
    },
    "logging": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "level":   {"enum": ["debug", "info", "warn", "warning", "error", "fatal"]},
        "format":  {"enum": ["text", "json", "console", "simple"]},
        "file":    {"type": "string"},
        "console": {"type": "boolean"}
      }
    },
    "repl": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "prompt":          {"type": "string"},
        "continue_prompt": {"type": "string"},
        "history_size":    {"type": "integer", "minimum": 1},
        "history_file":    {"type": "string"},
        "show_welcome":    {"type": "boolean"},
        "colors":          {"type": "boolean"}
      }
    },
    "input": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "script":      {"type": "string"},
        "lua_timeout": {"type": "string"},
        "echo":        {"type": "boolean"}
      }
    }
  }
}`

var (
	compiledSchema     *jsonschema.Schema
	compiledSchemaErr  error
	compiledSchemaOnce sync.Once
)

func loadConfigSchema() (*jsonschema.Schema, error) {
	compiledSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource(configSchemaURL, strings.NewReader(configSchema)); err != nil {
			compiledSchemaErr = err
			return
		}
		compiledSchema, compiledSchemaErr = compiler.Compile(configSchemaURL)
	})
	return compiledSchema, compiledSchemaErr
}

// validateConfigDocument checks a decoded YAML or JSON document against
// the config schema. The document is normalized through JSON first since
// the validator only understands JSON value types.
func validateConfigDocument(document interface{}) error {
	schema, err := loadConfigSchema()
	if err != nil {
		return err
	}

	data, err := json.Marshal(document)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var normalized interface{}
	if err := dec.Decode(&normalized); err != nil {
		return err
	}
	return schema.Validate(normalized)
}
