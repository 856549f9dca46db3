package gpurt

import "fmt"

// BufferConfig describes how the one-shot path materializes a buffer.
// Exactly one of Data, Size or Value must be set: Data for an array with
// literal values (an empty non-nil slice is a zero-length array), Size for
// a zero-initialized array, Value for a scalar.
type BufferConfig struct {
	Name  string
	Type  ElementType
	Data  []float64
	Size  *int
	Value *float64
}

// Array describes an array initialized from values.
func Array(name string, t ElementType, values ...float64) BufferConfig {
	if values == nil {
		values = []float64{}
	}
	return BufferConfig{Name: name, Type: t, Data: values}
}

// Zeros describes a zero-initialized array of n elements.
func Zeros(name string, t ElementType, n int) BufferConfig {
	return BufferConfig{Name: name, Type: t, Size: &n}
}

// Scalar describes a scalar input. Scalars never appear in results.
func Scalar(name string, t ElementType, v float64) BufferConfig {
	return BufferConfig{Name: name, Type: t, Value: &v}
}

// IsScalar reports whether the config describes a scalar.
func (c BufferConfig) IsScalar() bool { return c.Value != nil }

// Len returns the element count the config materializes.
func (c BufferConfig) Len() int {
	switch {
	case c.Value != nil:
		return 1
	case c.Size != nil:
		return *c.Size
	default:
		return len(c.Data)
	}
}

// Validate checks that the config resolves to exactly one of data, size
// or value.
func (c BufferConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: buffer config has no name", ErrInvalidArgument)
	}
	if !c.Type.valid() {
		return fmt.Errorf("%w: buffer %q: element type %v", ErrInvalidArgument, c.Name, c.Type)
	}
	set := 0
	if c.Data != nil {
		set++
	}
	if c.Size != nil {
		set++
	}
	if c.Value != nil {
		set++
	}
	switch {
	case set == 0:
		return fmt.Errorf("%w: buffer %q: one of data, size or value is required", ErrInvalidArgument, c.Name)
	case set > 1:
		return fmt.Errorf("%w: buffer %q: data, size and value are mutually exclusive", ErrInvalidArgument, c.Name)
	}
	if c.Size != nil && *c.Size < 0 {
		return fmt.Errorf("%w: buffer %q: negative size %d", ErrInvalidArgument, c.Name, *c.Size)
	}
	return nil
}

// ValidateConfigs validates each config and rejects duplicate names.
func ValidateConfigs(configs []BufferConfig) error {
	seen := make(map[string]struct{}, len(configs))
	for _, c := range configs {
		if err := c.Validate(); err != nil {
			return err
		}
		if _, dup := seen[c.Name]; dup {
			return fmt.Errorf("%w: duplicate buffer name %q", ErrInvalidArgument, c.Name)
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}
