package gpurt

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		typ  ElementType
		in   float64
		want float64
	}{
		{"int positive", Int32, 3.7, 3},
		{"int negative", Int32, -2.9, -2},
		{"int exact", Int32, 42, 42},
		{"uint fraction", Uint32, 7.99, 7},
		{"uint negative wraps", Uint32, -1, math.MaxUint32},
		{"int NaN", Int32, math.NaN(), 0},
		{"int wraps past range", Int32, math.MaxInt32 + 1, math.MinInt32},
		{"float narrows", Float32, 0.1, float64(float32(0.1))},
		{"float exact", Float32, 1.5, 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.typ, tt.in); got != tt.want {
				t.Errorf("Truncate(%v, %v) = %v, want %v", tt.typ, tt.in, got, tt.want)
			}
		})
	}
}

func TestEncodeDecodeValues(t *testing.T) {
	in := []float64{3.7, -2.9, 0, 1e3}
	data := encodeValues(Int32, in)
	if len(data) != len(in)*4 {
		t.Fatalf("encoded %d bytes, want %d", len(data), len(in)*4)
	}
	assert.Equal(t, []float64{3, -2, 0, 1000}, decodeValues(Int32, data))

	f := decodeValues(Float32, encodeValues(Float32, []float64{1, 2.5, -0.25}))
	assert.InDeltaSlice(t, []float64{1, 2.5, -0.25}, f, 1e-7)
}

func TestDecodeValuesEmpty(t *testing.T) {
	if got := decodeValues(Uint32, nil); len(got) != 0 {
		t.Errorf("decodeValues(nil) = %v, want empty", got)
	}
}

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		want    ElementType
		wantErr bool
	}{
		{"float", Float32, false},
		{"int", Int32, false},
		{"uint", Uint32, false},
		{"F32", Float32, false},
		{" u32 ", Uint32, false},
		{"int32", Int32, false},
		{"double", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseType(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidArgument)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestElementTypeText(t *testing.T) {
	for _, typ := range []ElementType{Float32, Int32, Uint32} {
		b, err := typ.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", typ, err)
		}
		var back ElementType
		if err := back.UnmarshalText(b); err != nil || back != typ {
			t.Errorf("round trip %v -> %q -> %v (%v)", typ, b, back, err)
		}
	}
	if _, err := ElementType(9).MarshalText(); err == nil {
		t.Error("MarshalText of invalid type should fail")
	}
	if Int32.WGSL() != "i32" || Uint32.WGSL() != "u32" || Float32.WGSL() != "f32" {
		t.Error("unexpected WGSL names")
	}
}
