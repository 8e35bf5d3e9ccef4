package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Field is one input-schema descriptor as returned by the sampling API.
//
// Only Name is interpreted locally. Every attribute the service returned is kept
// and re-emitted unchanged when the field is marshaled back into a job payload.
type Field struct {
	Name     string
	DataType string

	raw json.RawMessage
}

type fieldWire struct {
	Name     *string `json:"name"`
	DataType string  `json:"dataType,omitempty"`
}

// UnmarshalJSON decodes a descriptor and retains its original bytes.
func (f *Field) UnmarshalJSON(b []byte) error {
	var w fieldWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if w.Name == nil {
		return fmt.Errorf("field descriptor missing name")
	}
	f.Name = *w.Name
	f.DataType = w.DataType
	f.raw = append(json.RawMessage(nil), bytes.TrimSpace(b)...)
	return nil
}

// MarshalJSON re-emits the descriptor verbatim when it came from the service.
func (f Field) MarshalJSON() ([]byte, error) {
	if len(f.raw) > 0 {
		return f.raw, nil
	}
	w := fieldWire{Name: &f.Name, DataType: f.DataType}
	return json.Marshal(w)
}

// ParseFields decodes a JSON array of field descriptors.
//
// A descriptor that is not an object, or has a missing or blank name, is
// rejected with an error naming its index.
func ParseFields(raw json.RawMessage) ([]Field, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, fmt.Errorf("input schema is missing")
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("input schema is not a list: %w", err)
	}

	out := make([]Field, 0, len(items))
	for i, item := range items {
		var f Field
		if err := json.Unmarshal(item, &f); err != nil {
			return nil, fmt.Errorf("input schema field %d: %w", i, err)
		}
		if strings.TrimSpace(f.Name) == "" {
			return nil, fmt.Errorf("input schema field %d: name is empty", i)
		}
		out = append(out, f)
	}
	return out, nil
}

// Names returns the field names in schema order.
func Names(fields []Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}

// Contains reports whether a field with the given name is present.
func Contains(fields []Field, name string) bool {
	for _, f := range fields {
		if f.Name == name {
			return true
		}
	}
	return false
}
