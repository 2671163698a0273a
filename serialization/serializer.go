// Package serialization exports and imports turtle drawings.
package serialization

import (
	"errors"
	"fmt"
	"sort"

	"templecode/turtle"
)

// DrawingSerializer converts turtle snapshots to and from bytes
type DrawingSerializer interface {
	// Serialize converts a snapshot to bytes
	Serialize(snap turtle.Snapshot) ([]byte, error)

	// Deserialize converts bytes back to a snapshot
	Deserialize(data []byte) (turtle.Snapshot, error)

	// GetName returns the name of the serializer
	GetName() string

	// GetVersion returns the version of the serializer
	GetVersion() string

	// SupportsVersion checks if the serializer supports a specific version
	SupportsVersion(version string) bool

	// Extension is the file extension, with the dot, used for this format
	Extension() string
}

// VersionedDrawing is serialized drawing data tagged with its format
type VersionedDrawing struct {
	Data    []byte `json:"data"`
	Version string `json:"version"`
	Format  string `json:"format"`
}

// SerializationError represents an error that occurred during serialization
type SerializationError struct {
	Operation string
	Message   string
	Format    string
	Context   map[string]interface{}
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("[%s serialization error] %s", e.Format, e.Message)
}

// NewSerializationError creates a new serialization error
func NewSerializationError(format, operation, message string) *SerializationError {
	return &SerializationError{
		Format:    format,
		Operation: operation,
		Message:   message,
		Context:   make(map[string]interface{}),
	}
}

// WithContext adds context information to the error
func (e *SerializationError) WithContext(key string, value interface{}) *SerializationError {
	e.Context[key] = value
	return e
}

// SerializerRegistry manages multiple serializers
type SerializerRegistry struct {
	serializers       map[string]DrawingSerializer
	defaultSerializer string
}

// NewSerializerRegistry creates a new serializer registry
func NewSerializerRegistry() *SerializerRegistry {
	return &SerializerRegistry{
		serializers:       make(map[string]DrawingSerializer),
		defaultSerializer: "json",
	}
}

// RegisterSerializer registers a serializer
func (sr *SerializerRegistry) RegisterSerializer(serializer DrawingSerializer) error {
	name := serializer.GetName()
	if _, exists := sr.serializers[name]; exists {
		return fmt.Errorf("serializer '%s' is already registered", name)
	}

	sr.serializers[name] = serializer
	return nil
}

// GetSerializer returns a serializer by name
func (sr *SerializerRegistry) GetSerializer(name string) (DrawingSerializer, error) {
	serializer, exists := sr.serializers[name]
	if !exists {
		return nil, fmt.Errorf("serializer '%s' not found", name)
	}
	return serializer, nil
}

// GetDefaultSerializer returns the default serializer
func (sr *SerializerRegistry) GetDefaultSerializer() (DrawingSerializer, error) {
	if sr.defaultSerializer == "" {
		return nil, errors.New("no default serializer configured")
	}
	return sr.GetSerializer(sr.defaultSerializer)
}

// SetDefaultSerializer sets the default serializer
func (sr *SerializerRegistry) SetDefaultSerializer(name string) error {
	if _, exists := sr.serializers[name]; !exists {
		return fmt.Errorf("serializer '%s' not found", name)
	}

	sr.defaultSerializer = name
	return nil
}

// ListSerializers returns the sorted names of all registered serializers
func (sr *SerializerRegistry) ListSerializers() []string {
	names := make([]string, 0, len(sr.serializers))
	for name := range sr.serializers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForExtension finds the serializer writing files with ext, e.g. ".cbor"
func (sr *SerializerRegistry) ForExtension(ext string) (DrawingSerializer, bool) {
	for _, name := range sr.ListSerializers() {
		if s := sr.serializers[name]; s.Extension() == ext {
			return s, true
		}
	}
	return nil, false
}

// SerializeWithVersion serializes a snapshot with version information
func (sr *SerializerRegistry) SerializeWithVersion(snap turtle.Snapshot, format string) (*VersionedDrawing, error) {
	serializer, err := sr.GetSerializer(format)
	if err != nil {
		return nil, err
	}

	data, err := serializer.Serialize(snap)
	if err != nil {
		return nil, NewSerializationError(format, "serialize", err.Error())
	}

	return &VersionedDrawing{
		Data:    data,
		Version: serializer.GetVersion(),
		Format:  format,
	}, nil
}

// DeserializeWithVersion deserializes versioned drawing data
func (sr *SerializerRegistry) DeserializeWithVersion(versioned *VersionedDrawing) (turtle.Snapshot, error) {
	serializer, err := sr.GetSerializer(versioned.Format)
	if err != nil {
		return turtle.Snapshot{}, err
	}

	if !serializer.SupportsVersion(versioned.Version) {
		return turtle.Snapshot{}, NewSerializationError(versioned.Format, "deserialize",
			fmt.Sprintf("version '%s' not supported", versioned.Version))
	}

	return serializer.Deserialize(versioned.Data)
}

// ConvertFormat converts serialized data from one format to another
func (sr *SerializerRegistry) ConvertFormat(data []byte, fromFormat, toFormat string) ([]byte, error) {
	fromSerializer, err := sr.GetSerializer(fromFormat)
	if err != nil {
		return nil, err
	}

	snap, err := fromSerializer.Deserialize(data)
	if err != nil {
		return nil, NewSerializationError(fromFormat, "deserialize", err.Error())
	}

	toSerializer, err := sr.GetSerializer(toFormat)
	if err != nil {
		return nil, err
	}

	converted, err := toSerializer.Serialize(snap)
	if err != nil {
		return nil, NewSerializationError(toFormat, "serialize", err.Error())
	}

	return converted, nil
}

// IsFormatSupported checks if a format is supported
func (sr *SerializerRegistry) IsFormatSupported(format string) bool {
	_, exists := sr.serializers[format]
	return exists
}
