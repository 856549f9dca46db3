package gpurt

import (
	"encoding/binary"
	"math"
)

// toInt64 truncates v toward zero, saturating at the int64 range.
// NaN maps to zero.
func toInt64(v float64) int64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v >= math.MaxInt64:
		return math.MaxInt64
	case v <= math.MinInt64:
		return math.MinInt64
	}
	return int64(v)
}

// encodeElement writes v as one element of type t into dst[0:4].
// Host values are truncated, never rounded: float64 narrows to float32,
// and integers drop the fractional part (toward zero) then wrap through
// int64 into the 32-bit range.
func encodeElement(dst []byte, t ElementType, v float64) {
	var bits uint32
	switch t {
	case Float32:
		bits = math.Float32bits(float32(v))
	case Int32:
		bits = uint32(int32(toInt64(v))) //nolint:gosec // G115: two's-complement wrap is the documented conversion
	case Uint32:
		bits = uint32(toInt64(v)) //nolint:gosec // G115: two's-complement wrap is the documented conversion
	}
	binary.LittleEndian.PutUint32(dst, bits)
}

// decodeElement reads one element of type t from src[0:4] and widens it.
func decodeElement(src []byte, t ElementType) float64 {
	bits := binary.LittleEndian.Uint32(src)
	switch t {
	case Int32:
		return float64(int32(bits)) //nolint:gosec // G115: reinterpretation of device bits
	case Uint32:
		return float64(bits)
	default:
		return float64(math.Float32frombits(bits))
	}
}

// encodeValues converts host values into the device byte layout of t.
func encodeValues(t ElementType, values []float64) []byte {
	out := make([]byte, len(values)*elementSize)
	for i, v := range values {
		encodeElement(out[i*elementSize:], t, v)
	}
	return out
}

// decodeValues converts device bytes of type t into host values.
func decodeValues(t ElementType, data []byte) []float64 {
	out := make([]float64, len(data)/elementSize)
	for i := range out {
		out[i] = decodeElement(data[i*elementSize:], t)
	}
	return out
}

// Truncate returns v as it would read back after a round trip through a
// buffer of type t.
func Truncate(t ElementType, v float64) float64 {
	var b [elementSize]byte
	encodeElement(b[:], t, v)
	return decodeElement(b[:], t)
}
