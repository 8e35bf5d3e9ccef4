package schema

import (
	"fmt"
	"strings"
)

// AddressingMode selects how the ingestion source names its object: as a full
// URI or as an object name relative to the connection.
type AddressingMode string

const (
	AddressingURIs    AddressingMode = "uris"
	AddressingObjects AddressingMode = "objects"
)

// ParseAddressingMode accepts "uris" or "objects" (and the singular forms).
func ParseAddressingMode(raw string) (AddressingMode, error) {
	s := strings.TrimSpace(strings.ToLower(raw))
	switch s {
	case "uris", "uri":
		return AddressingURIs, nil
	case "objects", "object":
		return AddressingObjects, nil
	default:
		return "", fmt.Errorf("invalid addressing mode %q (want %q or %q)", raw, AddressingURIs, AddressingObjects)
	}
}

func (m AddressingMode) String() string {
	return string(m)
}
