package gpurt

import (
	"fmt"
	"strings"
)

// ElementType is the element type of a device buffer.
type ElementType int

const (
	// Float32 is a 32-bit IEEE float (kernel type f32).
	Float32 ElementType = iota
	// Int32 is a signed 32-bit integer (kernel type i32).
	Int32
	// Uint32 is an unsigned 32-bit integer (kernel type u32).
	Uint32
)

// elementSize is the size in bytes of every supported element type.
const elementSize = 4

// ParseType parses a host-side type name. The canonical names are
// "float", "int" and "uint"; the WGSL and Go spellings are accepted too.
func ParseType(name string) (ElementType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "float", "f32", "float32":
		return Float32, nil
	case "int", "i32", "int32":
		return Int32, nil
	case "uint", "u32", "uint32":
		return Uint32, nil
	}
	return 0, fmt.Errorf("%w: unknown element type %q", ErrInvalidArgument, name)
}

// String returns the canonical host-side name.
func (t ElementType) String() string {
	switch t {
	case Float32:
		return "float"
	case Int32:
		return "int"
	case Uint32:
		return "uint"
	default:
		return fmt.Sprintf("ElementType(%d)", int(t))
	}
}

// WGSL returns the kernel-side scalar type name.
func (t ElementType) WGSL() string {
	switch t {
	case Int32:
		return "i32"
	case Uint32:
		return "u32"
	default:
		return "f32"
	}
}

// Size returns the element size in bytes.
func (t ElementType) Size() int { return elementSize }

func (t ElementType) valid() bool { return t >= Float32 && t <= Uint32 }

// MarshalText implements encoding.TextMarshaler.
func (t ElementType) MarshalText() ([]byte, error) {
	if !t.valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, t)
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ElementType) UnmarshalText(b []byte) error {
	v, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Handle identifies a buffer registered on a Device. Handles start at 1,
// increase strictly and are never reused.
type Handle int
