// Copyright 2024 The mkvstream Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package ebml

import (
	"errors"
	"testing"
)

func TestNewReaderDefaults(t *testing.T) {
	r := NewReader(OpenBytes(nil), nil, nil)
	if r.reg != DefaultRegistry {
		t.Fatalf("NewReader(nil reg) should fall back to DefaultRegistry")
	}
	if r.logger == nil {
		t.Fatalf("NewReader should always construct a logger")
	}
}

func TestReadEBMLHeaderFields(t *testing.T) {
	src := OpenBytes(buildTestDoc())
	r := NewReader(src, nil, nil)
	defer r.Close()

	e, err := r.ReadEBMLHeader()
	if err != nil {
		t.Fatalf("ReadEBMLHeader failed: %v", err)
	}
	if e.Name != "EBML" {
		t.Fatalf("got %s, want EBML", e.Name)
	}
	if r.DocType() != "webm" {
		t.Fatalf("DocType() = %q, want webm", r.DocType())
	}
	if h := r.Header(); h == nil || h.DocType != "webm" {
		t.Fatalf("Header() = %v, want DocType=webm", h)
	}
}

func TestReadEBMLHeaderRejectsWrongFirstElement(t *testing.T) {
	src := OpenBytes([]byte{0xEC, 0x81, 0x00}) // Void, not EBML.
	r := NewReader(src, nil, nil)
	defer r.Close()

	_, err := r.ReadEBMLHeader()
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Kind != ErrKindSyntax {
		t.Fatalf("ReadEBMLHeader on a non-header first element err = %v, want a syntax error", err)
	}
}

func TestReaderMaxIDAndSizeWidthFromHeader(t *testing.T) {
	// EBML header declaring EBMLMaxIDLength=4, EBMLMaxSizeLength=8.
	maxID := []byte{0x42, 0xF2, 0x81, 0x04}
	maxSize := []byte{0x42, 0xF3, 0x81, 0x08}
	content := append(append([]byte{}, maxID...), maxSize...)
	header := append([]byte{0x1A, 0x45, 0xDF, 0xA3, byte(0x80 | len(content))}, content...)

	src := OpenBytes(header)
	r := NewReader(src, nil, nil)
	defer r.Close()

	if _, err := r.ReadEBMLHeader(); err != nil {
		t.Fatalf("ReadEBMLHeader failed: %v", err)
	}
	if r.maxIDWidth != 4 {
		t.Fatalf("maxIDWidth = %d, want 4", r.maxIDWidth)
	}
	if r.maxSizeWidth != 8 {
		t.Fatalf("maxSizeWidth = %d, want 8", r.maxSizeWidth)
	}
}

func TestReaderAnomaliesNonCanonicalSize(t *testing.T) {
	// DocType element whose size VINT uses 2 bytes (0x40 0x01) when 1
	// byte (0x81) would have sufficed to encode content_len=1.
	in := []byte{0x42, 0x82, 0x40, 0x01, 'x'}
	src := OpenBytes(in)
	r := NewReader(src, nil, nil)
	defer r.Close()

	if _, err := r.ReadElement(); err != nil {
		t.Fatalf("ReadElement failed: %v", err)
	}
	anomalies := r.Anomalies()
	if len(anomalies) != 1 {
		t.Fatalf("Anomalies() = %v, want exactly one entry", anomalies)
	}
}

func TestReaderAnomaliesCleanStream(t *testing.T) {
	src := OpenBytes(buildTestDoc())
	r := NewReader(src, nil, nil)
	defer r.Close()

	if _, err := r.ReadEBMLHeader(); err != nil {
		t.Fatalf("ReadEBMLHeader failed: %v", err)
	}
	if got := r.Anomalies(); len(got) != 0 {
		t.Fatalf("Anomalies() on a canonical stream = %v, want empty", got)
	}
}

func TestSniffedMIMEGatedByOption(t *testing.T) {
	src := OpenBytes(buildTestDoc())
	r := NewReader(src, nil, &Options{Sniff: false})
	defer r.Close()
	if got := r.SniffedMIME(); got != "" {
		t.Fatalf("SniffedMIME() with Sniff disabled = %q, want empty", got)
	}
}

func TestSniffedMIMEEnabled(t *testing.T) {
	src := OpenBytes(buildTestDoc())
	r := NewReader(src, nil, &Options{Sniff: true})
	defer r.Close()
	// mimetype.Detect always returns a non-nil match (falls back to
	// application/octet-stream), so this should never be empty on a
	// seekable source.
	if got := r.SniffedMIME(); got == "" {
		t.Fatalf("SniffedMIME() with Sniff enabled = %q, want a non-empty MIME string", got)
	}
}

func TestReaderCloseThenUseFails(t *testing.T) {
	src := OpenBytes(buildTestDoc())
	r := NewReader(src, nil, nil)

	if _, err := r.ReadEBMLHeader(); err != nil {
		t.Fatalf("ReadEBMLHeader failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	// A second Close must be a harmless no-op.
	if err := r.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}

	_, err := r.ReadElement()
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Kind != ErrKindLifecycle || !errors.Is(err, ErrReaderClosed) {
		t.Fatalf("ReadElement after Close err = %v, want lifecycle error wrapping ErrReaderClosed", err)
	}
}

func TestPopulateChildrenRespectsMaxDepth(t *testing.T) {
	src := OpenBytes(buildTestDoc())
	r := NewReader(src, nil, &Options{MaxDepth: 1})
	defer r.Close()

	if _, err := r.ReadEBMLHeader(); err != nil {
		t.Fatalf("ReadEBMLHeader failed: %v", err)
	}
	segment, err := r.ReadElement()
	if err != nil {
		t.Fatalf("ReadElement failed: %v", err)
	}
	if err := segment.PopulateChildren(true, false); err != nil {
		t.Fatalf("PopulateChildren failed: %v", err)
	}

	info := segment.ChildByName("Info")
	if info == nil {
		t.Fatal("Segment missing Info child")
	}
	if info.Depth != 1 {
		t.Fatalf("Info.Depth = %d, want 1", info.Depth)
	}
	if len(info.Value.Children) != 0 {
		t.Fatalf("Info.Value.Children = %v, want empty: MaxDepth=1 should stop descent at depth 1", info.Value.Children)
	}
}

func TestElementUseAfterReaderCloseFails(t *testing.T) {
	src := OpenBytes(buildTestDoc())
	r := NewReader(src, nil, nil)

	if _, err := r.ReadEBMLHeader(); err != nil {
		t.Fatalf("ReadEBMLHeader failed: %v", err)
	}
	segment, err := r.ReadElement()
	if err != nil {
		t.Fatalf("ReadElement failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	_, err = segment.NextChild(false)
	if !errors.Is(err, ErrReaderClosed) {
		t.Fatalf("NextChild on an element whose Reader closed err = %v, want ErrReaderClosed", err)
	}
}
