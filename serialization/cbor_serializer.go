package serialization

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"templecode/turtle"
)

// CBORSerializer writes drawings as canonical CBOR, so identical drawings
// always encode to identical bytes
type CBORSerializer struct {
	version string
	encMode cbor.EncMode
}

// NewCBORSerializer creates a canonical CBOR serializer
func NewCBORSerializer() (*CBORSerializer, error) {
	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("failed to create CBOR encoder: %w", err)
	}
	return &CBORSerializer{version: "1.0.0", encMode: encMode}, nil
}

// Serialize converts a snapshot to CBOR bytes
func (cs *CBORSerializer) Serialize(snap turtle.Snapshot) ([]byte, error) {
	data, err := cs.encMode.Marshal(snap)
	if err != nil {
		return nil, NewSerializationError("cbor", "serialize", err.Error())
	}
	return data, nil
}

// Deserialize converts CBOR bytes back to a snapshot
func (cs *CBORSerializer) Deserialize(data []byte) (turtle.Snapshot, error) {
	if len(data) == 0 {
		return turtle.Snapshot{}, NewSerializationError("cbor", "deserialize", "data is empty")
	}

	var snap turtle.Snapshot
	if err := cbor.Unmarshal(data, &snap); err != nil {
		return turtle.Snapshot{}, NewSerializationError("cbor", "deserialize", err.Error())
	}
	return snap, nil
}

// GetName returns the name of the serializer
func (cs *CBORSerializer) GetName() string {
	return "cbor"
}

// GetVersion returns the version of the serializer
func (cs *CBORSerializer) GetVersion() string {
	return cs.version
}

// SupportsVersion checks if the serializer supports a specific version
func (cs *CBORSerializer) SupportsVersion(version string) bool {
	return version == "1.0.0"
}

// Extension returns ".cbor"
func (cs *CBORSerializer) Extension() string {
	return ".cbor"
}
