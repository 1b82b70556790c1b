// Copyright 2024 The mkvstream Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package ebml

import (
	"errors"
	"math"
	"testing"
)

// TestDecodeUintRoundTrip checks that decoding a big-endian encoding of x
// at width w returns x for 0 <= x < 2^(8w).
func TestDecodeUintRoundTrip(t *testing.T) {
	tests := []struct {
		width int
		value uint64
	}{
		{1, 0},
		{1, 0xFF},
		{2, 0x1234},
		{4, 0xDEADBEEF},
		{8, 0xFFFFFFFFFFFFFFFF},
	}
	for _, tt := range tests {
		b := make([]byte, tt.width)
		for i := 0; i < tt.width; i++ {
			shift := uint(8 * (tt.width - 1 - i))
			b[i] = byte(tt.value >> shift)
		}
		got := decodeUint(b)
		if got != tt.value {
			t.Errorf("decodeUint(width=%d, %x) = %#x, want %#x", tt.width, b, got, tt.value)
		}
	}
}

// TestDecodeSintRoundTrip checks the two's-complement round trip at
// widths 1, 2, 4 and 8.
func TestDecodeSintRoundTrip(t *testing.T) {
	tests := []struct {
		width int
		value int64
	}{
		{1, 0},
		{1, -1},
		{1, 127},
		{1, -128},
		{2, -32768},
		{4, -2147483648},
		{8, math.MinInt64},
		{8, math.MaxInt64},
	}
	for _, tt := range tests {
		u := uint64(tt.value)
		b := make([]byte, tt.width)
		for i := 0; i < tt.width; i++ {
			shift := uint(8 * (tt.width - 1 - i))
			b[i] = byte(u >> shift)
		}
		got := decodeSint(b)
		if got != tt.value {
			t.Errorf("decodeSint(width=%d, %x) = %d, want %d", tt.width, b, got, tt.value)
		}
	}
}

// TestDecodeFloatRoundTrip checks the IEEE 754 binary32/binary64 round
// trip, including sign of zero and extreme magnitudes.
func TestDecodeFloatRoundTrip(t *testing.T) {
	f32s := []float32{0, float32(math.Copysign(0, -1)), 1, -1, 3.14159, math.MaxFloat32, math.SmallestNonzeroFloat32}
	for _, f := range f32s {
		bits := math.Float32bits(f)
		b := []byte{byte(bits >> 24), byte(bits >> 16), byte(bits >> 8), byte(bits)}
		got, err := decodeFloat(b)
		if err != nil {
			t.Fatalf("decodeFloat(%v) failed: %v", f, err)
		}
		if (float32(got) != f || math.Signbit(got) != math.Signbit(float64(f))) && !(math.IsNaN(float64(f)) && math.IsNaN(got)) {
			t.Errorf("decodeFloat32(%v) = %v, want %v", f, got, f)
		}
	}

	f64s := []float64{0, math.Copysign(0, -1), 1, -1, 2.71828182845, math.MaxFloat64, math.SmallestNonzeroFloat64}
	for _, f := range f64s {
		bits := math.Float64bits(f)
		b := make([]byte, 8)
		for i := 0; i < 8; i++ {
			b[i] = byte(bits >> uint(8*(7-i)))
		}
		got, err := decodeFloat(b)
		if err != nil {
			t.Fatalf("decodeFloat(%v) failed: %v", f, err)
		}
		if got != f || math.Signbit(got) != math.Signbit(f) {
			t.Errorf("decodeFloat64(%v) = %v, want %v", f, got, f)
		}
	}
}

func TestDecodeFloatBadWidth(t *testing.T) {
	for _, n := range []int{0, 1, 2, 3, 5, 6, 7, 9} {
		_, err := decodeFloat(make([]byte, n))
		if !errors.Is(err, ErrBadFloatWidth) {
			t.Errorf("decodeFloat(width=%d) err = %v, want ErrBadFloatWidth", n, err)
		}
	}
}

func TestDecodeStringValid(t *testing.T) {
	s, err := decodeString([]byte("matroska"))
	if err != nil {
		t.Fatalf("decodeString failed: %v", err)
	}
	if s != "matroska" {
		t.Fatalf("decodeString = %q, want %q", s, "matroska")
	}
}

func TestDecodeStringInvalidUTF8(t *testing.T) {
	_, err := decodeString([]byte{0xFF, 0xFE, 0x80})
	if !errors.Is(err, ErrInvalidUTF8) {
		t.Fatalf("decodeString(invalid) err = %v, want ErrInvalidUTF8", err)
	}
}

func TestDecodeNestedID(t *testing.T) {
	reg := NewRegistry()
	entry, ok := decodeNestedID([]byte{0xA3}, reg)
	if !ok || entry.Name != "SimpleBlock" {
		t.Fatalf("decodeNestedID(0xa3) = (%v, %v), want SimpleBlock", entry, ok)
	}

	_, ok = decodeNestedID([]byte{0xFE, 0xFE}, reg)
	if ok {
		t.Fatalf("decodeNestedID(unknown) should not resolve")
	}
}
