// Copyright 2024 The mkvstream Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package ebml

import "github.com/gabriel-vasile/mimetype"

// sniffDocType peeks at up to 512 bytes from a seekable Source's current
// position, restores that position, and reports a best-effort MIME hint
// via gabriel-vasile/mimetype's content sniffing. This is advisory only:
// Reader.SniffedMIME() calls it for a caller that wants a fast "does this
// look like a Matroska/WebM file" pre-check before paying for a full EBML
// header parse. It never blocks parsing and is skipped on non-seekable sources,
// since sniffing would otherwise consume bytes the Element Reader needs.
func sniffDocType(src Source) string {
	if !src.Seekable() {
		return ""
	}
	start, ok := src.Pos()
	if !ok {
		return ""
	}
	// Source.Read is all-or-nothing, so a stream shorter than peekLen
	// can't be read with a single Read(peekLen) call; read one byte at a
	// time until EOF or peekLen is reached instead.
	const peekLen = 512
	peek := make([]byte, 0, peekLen)
	for len(peek) < peekLen {
		b, err := src.ReadOne()
		if err != nil {
			break
		}
		peek = append(peek, b)
	}
	_ = src.SeekTo(start)
	if len(peek) == 0 {
		return ""
	}
	mt := mimetype.Detect(peek)
	return mt.String()
}
