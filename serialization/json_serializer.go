package serialization

import (
	"encoding/json"

	"templecode/turtle"
)

// JSONSerializer writes drawings as indented JSON for web canvases
type JSONSerializer struct {
	version string
	indent  bool
}

// NewJSONSerializer creates a new JSON serializer
func NewJSONSerializer() *JSONSerializer {
	return &JSONSerializer{
		version: "1.0.0",
		indent:  true,
	}
}

// Compact switches to single-line output
func (js *JSONSerializer) Compact() *JSONSerializer {
	js.indent = false
	return js
}

// Serialize converts a snapshot to JSON bytes
func (js *JSONSerializer) Serialize(snap turtle.Snapshot) ([]byte, error) {
	if snap.Lines == nil {
		snap.Lines = []turtle.Segment{}
	}

	var (
		data []byte
		err  error
	)
	if js.indent {
		data, err = json.MarshalIndent(snap, "", "  ")
	} else {
		data, err = json.Marshal(snap)
	}
	if err != nil {
		return nil, NewSerializationError("json", "serialize", err.Error())
	}
	return data, nil
}

// Deserialize converts JSON bytes back to a snapshot
func (js *JSONSerializer) Deserialize(data []byte) (turtle.Snapshot, error) {
	if len(data) == 0 {
		return turtle.Snapshot{}, NewSerializationError("json", "deserialize", "data is empty")
	}

	var snap turtle.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return turtle.Snapshot{}, NewSerializationError("json", "deserialize", err.Error())
	}
	return snap, nil
}

// GetName returns the name of the serializer
func (js *JSONSerializer) GetName() string {
	return "json"
}

// GetVersion returns the version of the serializer
func (js *JSONSerializer) GetVersion() string {
	return js.version
}

// SupportsVersion checks if the serializer supports a specific version
func (js *JSONSerializer) SupportsVersion(version string) bool {
	// every 1.x.x layout is field-compatible
	return version == "1.0.0" || (len(version) > 2 && version[:2] == "1.")
}

// Extension returns ".json"
func (js *JSONSerializer) Extension() string {
	return ".json"
}
