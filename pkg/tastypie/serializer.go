package tastypie

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Serializer converts between wire payloads and generic value trees made of
// map[string]any, []any and scalars.
type Serializer interface {
	Encode(value any) ([]byte, error)
	Decode(data []byte) (any, error)
	// ContentType is sent as the Accept header.
	ContentType() string
}

// JSONSerializer is the default Serializer.
type JSONSerializer struct{}

// NewJSONSerializer creates a JSON serializer.
func NewJSONSerializer() *JSONSerializer {
	return &JSONSerializer{}
}

// Encode implements Serializer.
func (s *JSONSerializer) Encode(value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encoding JSON: %w", err)
	}

	return data, nil
}

// Decode implements Serializer.
func (s *JSONSerializer) Decode(data []byte) (any, error) {
	var value any

	err := json.Unmarshal(data, &value)
	if err != nil {
		return nil, fmt.Errorf("decoding JSON: %w", err)
	}

	return value, nil
}

// ContentType implements Serializer.
func (s *JSONSerializer) ContentType() string {
	return "application/json"
}

// YAMLSerializer speaks Tastypie's YAML format.
type YAMLSerializer struct{}

// NewYAMLSerializer creates a YAML serializer.
func NewYAMLSerializer() *YAMLSerializer {
	return &YAMLSerializer{}
}

// Encode implements Serializer.
func (s *YAMLSerializer) Encode(value any) ([]byte, error) {
	data, err := yaml.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encoding YAML: %w", err)
	}

	return data, nil
}

// Decode implements Serializer.
func (s *YAMLSerializer) Decode(data []byte) (any, error) {
	var value any

	err := yaml.Unmarshal(data, &value)
	if err != nil {
		return nil, fmt.Errorf("decoding YAML: %w", err)
	}

	return value, nil
}

// ContentType implements Serializer.
func (s *YAMLSerializer) ContentType() string {
	return "text/yaml"
}
