package serialization

import (
	"path/filepath"
	"strings"

	"templecode/turtle"
)

// NewDefaultSerializerRegistry creates a registry holding the json, cbor
// and binary drawing formats, with json as the default
func NewDefaultSerializerRegistry() (*SerializerRegistry, error) {
	registry := NewSerializerRegistry()

	cborSerializer, err := NewCBORSerializer()
	if err != nil {
		return nil, err
	}

	for _, s := range []DrawingSerializer{
		NewJSONSerializer(),
		cborSerializer,
		NewBinarySerializer(),
	} {
		if err := registry.RegisterSerializer(s); err != nil {
			return nil, err
		}
	}

	if err := registry.SetDefaultSerializer("json"); err != nil {
		return nil, err
	}
	return registry, nil
}

// ResolveFormat picks the serializer for an export. An explicit format
// wins; otherwise the file extension decides; otherwise the default.
func (sr *SerializerRegistry) ResolveFormat(format, path string) (DrawingSerializer, error) {
	if format != "" {
		return sr.GetSerializer(strings.ToLower(format))
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != "" {
		if s, ok := sr.ForExtension(ext); ok {
			return s, nil
		}
	}
	return sr.GetDefaultSerializer()
}

// Serialize serializes a snapshot using the named format
func Serialize(snap turtle.Snapshot, format string) ([]byte, error) {
	registry, err := NewDefaultSerializerRegistry()
	if err != nil {
		return nil, err
	}
	serializer, err := registry.GetSerializer(format)
	if err != nil {
		return nil, err
	}
	return serializer.Serialize(snap)
}

// Deserialize deserializes a snapshot using the named format
func Deserialize(data []byte, format string) (turtle.Snapshot, error) {
	registry, err := NewDefaultSerializerRegistry()
	if err != nil {
		return turtle.Snapshot{}, err
	}
	serializer, err := registry.GetSerializer(format)
	if err != nil {
		return turtle.Snapshot{}, err
	}
	return serializer.Deserialize(data)
}

// SupportedFormats lists the default registry's formats
func SupportedFormats() []string {
	registry, err := NewDefaultSerializerRegistry()
	if err != nil {
		return nil
	}
	return registry.ListSerializers()
}
