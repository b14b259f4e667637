package http

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Serializer converts values to and from a textual body representation.
type Serializer interface {
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(data []byte, v interface{}) error
}

// JSONSerializer is the default Serializer backed by encoding/json.
type JSONSerializer struct {
	// DisallowUnknownFields rejects objects with fields the target does not declare
	DisallowUnknownFields bool
}

// Marshal implements Serializer.
func (s JSONSerializer) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal implements Serializer.
func (s JSONSerializer) Unmarshal(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if s.DisallowUnknownFields {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(v); err != nil {
		return err
	}
	// Reject trailing content after the first JSON value
	if dec.More() {
		return fmt.Errorf("unexpected data after JSON value at offset %d", dec.InputOffset())
	}
	return nil
}
