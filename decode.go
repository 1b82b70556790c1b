// Copyright 2024 The mkvstream Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package ebml

import (
	"fmt"
	"math"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// decodeUint interprets b as a big-endian unsigned integer. Widths 1-8 are
// supported; the magnitude is returned as a uint64, sufficient to hold the
// full 8-byte width.
func decodeUint(b []byte) uint64 {
	var result uint64
	for _, v := range b {
		result = (result << 8) | uint64(v)
	}
	return result
}

// decodeSint interprets b as a big-endian two's-complement signed integer
// of 1-8 bytes: signed = unsigned - 2*(1 << (8*len-1)) when the top bit is
// set.
func decodeSint(b []byte) int64 {
	if len(b) == 0 {
		return 0
	}
	unsigned := decodeUint(b)
	if b[0]&0x80 == 0 {
		return int64(unsigned)
	}
	bits := uint(8 * len(b))
	if bits >= 64 {
		return int64(unsigned)
	}
	return int64(unsigned) - int64(uint64(2)<<(bits-1))
}

// decodeFloat reinterprets b as IEEE 754 binary32 (len==4) or binary64
// (len==8), preserving sign of zero and denormals. Any other width is a
// syntax error.
func decodeFloat(b []byte) (float64, error) {
	switch len(b) {
	case 4:
		bits := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
		return float64(math.Float32frombits(bits)), nil
	case 8:
		var bits uint64
		for _, v := range b {
			bits = (bits << 8) | uint64(v)
		}
		return math.Float64frombits(bits), nil
	default:
		return 0, newErr(ErrKindSyntax, -1, fmt.Errorf("%w: got %d bytes", ErrBadFloatWidth, len(b)))
	}
}

// decodeString decodes b as UTF-8, surfacing malformed sequences as an
// error rather than silently replacing them. Validation runs through
// golang.org/x/text/encoding's UTF8Validator transformer, which fails
// strictly on overlong encodings and other malformed sequences rather than
// papering over them with a replacement character.
func decodeString(b []byte) (string, error) {
	if _, _, err := transform.Bytes(encoding.UTF8Validator, b); err != nil {
		return "", newErr(ErrKindSyntax, -1, fmt.Errorf("%w: %v", ErrInvalidUTF8, err))
	}
	return string(b), nil
}

// decodeNestedID treats b as a raw ID (marker bit included, as it appeared
// on the wire) and resolves it through reg. Returns (entry, true) if
// known, (nil, false) otherwise; an unresolved nested ID is not itself an
// error, mirroring unknown top-level IDs.
func decodeNestedID(b []byte, reg *Registry) (*SchemaEntry, bool) {
	idHex := hexLower(b)
	return reg.Lookup(idHex)
}
