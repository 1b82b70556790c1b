// Copyright 2024 The mkvstream Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package ebml

import "fmt"

// vintWidth returns the total byte width of a VINT given its first byte,
// by counting the position of the leading 1 marker bit (1-indexed from the
// most significant bit). firstByte == 0x00 is invalid and reports width 0.
func vintWidth(firstByte byte) int {
	for i := 0; i < 8; i++ {
		if firstByte&(0x80>>uint(i)) != 0 {
			return i + 1
		}
	}
	return 0
}

// readVint reads a VINT's first byte, rejects 0x00 and widths above
// maxWidth, then reads the remaining width-1 bytes and returns all of them
// as raw, marker bit included. It does not fold the bytes into an integer:
// value is always 0, and readSize decodes the size form on its own.
func readVint(src Source, maxWidth int) (value uint64, width int, raw []byte, err error) {
	first, ioErr := src.ReadOne()
	if ioErr != nil {
		return 0, 0, nil, ioErr
	}
	if first == 0x00 {
		return 0, 0, nil, newErr(ErrKindSyntax, -1, ErrLeadingZero)
	}
	width = vintWidth(first)
	if maxWidth > 0 && width > maxWidth {
		return 0, 0, nil, newErr(ErrKindSyntax, -1, fmt.Errorf("%w: got %d bytes, max %d", ErrVintTooWide, width, maxWidth))
	}

	raw = make([]byte, width)
	raw[0] = first
	if width > 1 {
		rest, rerr := src.Read(width - 1)
		if rerr != nil {
			return 0, 0, nil, rerr
		}
		copy(raw[1:], rest)
	}
	return 0, width, raw, nil
}

// readID reads the ID form of a VINT: the marker bit is retained, and the
// result is the exact byte sequence that appeared in the stream, reported
// as a lowercase hex string. maxWidth is EBMLMaxIDLength once known, or 0
// (no limit beyond the structural 8-byte cap) before the EBML header has
// been parsed.
func readID(src Source, maxWidth int) (idHex string, width int, err error) {
	_, width, raw, err := readVint(src, maxWidth)
	if err != nil {
		return "", 0, err
	}
	return hexLower(raw), width, nil
}

// readSize reads the size form of a VINT: the marker bit is cleared and
// the remaining bits across all bytes form a big-endian unsigned integer.
// Returns (size_len, value). maxWidth is EBMLMaxSizeLength once known, or
// 0 before the EBML header has been parsed.
func readSize(src Source, maxWidth int) (sizeLen int, value uint64, err error) {
	first, ioErr := src.ReadOne()
	if ioErr != nil {
		return 0, 0, ioErr
	}
	if first == 0x00 {
		return 0, 0, newErr(ErrKindSyntax, -1, ErrLeadingZero)
	}
	width := vintWidth(first)
	if maxWidth > 0 && width > maxWidth {
		return 0, 0, newErr(ErrKindSyntax, -1, fmt.Errorf("%w: got %d bytes, max %d", ErrVintTooWide, width, maxWidth))
	}

	lengthMask := byte(0x80) >> uint(width-1)
	result := uint64(first &^ lengthMask)

	if width > 1 {
		rest, rerr := src.Read(width - 1)
		if rerr != nil {
			return 0, 0, rerr
		}
		for _, b := range rest {
			result = (result << 8) | uint64(b)
		}
	}

	maxVal := uint64(1)<<(uint(7*width)) - 1
	if result == maxVal {
		return width, 0, newErr(ErrKindSyntax, -1, ErrUnknownSize)
	}
	return width, result, nil
}

const hexDigits = "0123456789abcdef"

func hexLower(b []byte) string {
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hexDigits[v>>4]
		out[i*2+1] = hexDigits[v&0x0f]
	}
	return string(out)
}
