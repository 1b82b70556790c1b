// Copyright 2024 The mkvstream Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

// Package ebml implements a low-level parser for EBML (Extensible Binary
// Meta Language) streams, with the Matroska multimedia container as its
// primary schema. It consumes an octet stream and produces a lazy,
// navigable tree of typed elements suitable as a backend for higher-level
// Matroska readers (demuxers, metadata extractors, stream validators).
//
// The core is the binary decoder and element-tree engine: variable-length
// integer decoding, typed value decoding, and the lazy traversal machinery
// that lets an element expose its children incrementally while honoring
// the byte budget declared by the parent's data size. The element schema
// (EBML header plus Matroska body) is a static declarative table (see
// schema.go); higher-level semantics such as track interpretation, frame
// extraction, and codec-specific parsing are out of scope.
//
// Example usage:
//
//	src, err := ebml.OpenFile("movie.mkv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	r := ebml.NewReader(src, nil, nil)
//	defer r.Close()
//
//	if _, err := r.ReadEBMLHeader(); err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("DocType: %s\n", r.DocType())
//
//	segment, err := r.ReadElement()
//	if err != nil {
//	    log.Fatal(err)
//	}
package ebml

import (
	"io"
	"os"

	klog "github.com/go-kratos/kratos/v2/log"
)

// Options configures a Reader.
type Options struct {
	// EagerBinary forces Binary elements to be materialized into memory
	// at read time instead of lazily via saved position. Non-seekable
	// sources require this to be true for every Binary element they
	// contain.
	EagerBinary bool

	// MaxDepth caps recursive PopulateChildren descent to guard against
	// pathological nesting; 0 means unlimited.
	MaxDepth int

	// Logger is an optional structured logger. When nil, Reader falls
	// back to a leveled stdout logger filtered to error level, built
	// with log.NewStdLogger + log.NewFilter + log.FilterLevel(log.LevelError).
	Logger klog.Logger

	// Sniff enables the gabriel-vasile/mimetype pre-check recorded as
	// Reader.SniffedMIME(). Disabled by default since it consumes a Pos/
	// SeekTo round trip that a non-seekable source cannot afford.
	Sniff bool
}

// Reader is the top-level parser handle: it owns a Source and a Registry
// and produces the root Element plus any Elements reached by walking it.
// A Reader is not safe for concurrent use.
type Reader struct {
	src    Source
	reg    *Registry
	opts   Options
	logger *klog.Helper
	closed bool

	maxIDWidth   int
	maxSizeWidth int

	header *Header

	anomalies []string
}

// Header is a small typed summary of the decoded EBML header fields.
type Header struct {
	Version            uint64
	ReadVersion        uint64
	MaxIDLength        uint64
	MaxSizeLength      uint64
	DocType            string
	DocTypeVersion     uint64
	DocTypeReadVersion uint64
}

// NewReader creates a Reader over src using reg for schema lookups. A nil
// reg uses DefaultRegistry; a nil opts uses the zero Options.
func NewReader(src Source, reg *Registry, opts *Options) *Reader {
	if reg == nil {
		reg = DefaultRegistry
	}
	o := Options{}
	if opts != nil {
		o = *opts
	}

	var logger klog.Logger
	if o.Logger == nil {
		logger = klog.NewFilter(klog.NewStdLogger(os.Stdout), klog.FilterLevel(klog.LevelError))
	} else {
		logger = o.Logger
	}

	return &Reader{
		src:    src,
		reg:    reg,
		opts:   o,
		logger: klog.NewHelper(logger),
	}
}

// ReadElement reads one element at the current source position,
// attaching it to this Reader so its lazy operations (NextChild,
// GetValue, Skip) work.
func (r *Reader) ReadElement() (*Element, error) {
	if r.closed {
		return nil, newErr(ErrKindLifecycle, -1, ErrReaderClosed)
	}
	e, err := readElement(r.src, r.reg, r.opts.EagerBinary, r.maxIDWidth, r.maxSizeWidth)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, nil
	}
	e.reader = r
	r.checkAnomalies(e)
	return e, nil
}

// ReadEBMLHeader reads and parses the EBML header element, populating its
// children eagerly, and records the stream's declared
// EBMLMaxIDLength/EBMLMaxSizeLength so subsequent VINT reads are bounded
// by them.
func (r *Reader) ReadEBMLHeader() (*Element, error) {
	e, err := r.ReadElement()
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, newErr(ErrKindEOF, -1, io.EOF)
	}
	if e.IDHex != "1a45dfa3" {
		return nil, newElemErr(ErrKindSyntax, -1, e.IDHex, errNotEBMLHeader)
	}

	if err := e.PopulateChildren(false, true); err != nil {
		return nil, err
	}

	h := &Header{}
	for _, c := range e.Value.Children {
		switch c.Name {
		case "EBMLVersion":
			h.Version = c.Value.Uint
		case "EBMLReadVersion":
			h.ReadVersion = c.Value.Uint
		case "EBMLMaxIDLength":
			h.MaxIDLength = c.Value.Uint
		case "EBMLMaxSizeLength":
			h.MaxSizeLength = c.Value.Uint
		case "DocType":
			h.DocType = c.Value.Str
		case "DocTypeVersion":
			h.DocTypeVersion = c.Value.Uint
		case "DocTypeReadVersion":
			h.DocTypeReadVersion = c.Value.Uint
		}
	}
	r.header = h
	if h.MaxIDLength > 0 {
		r.maxIDWidth = int(h.MaxIDLength)
	}
	if h.MaxSizeLength > 0 {
		r.maxSizeWidth = int(h.MaxSizeLength)
	}

	return e, nil
}

// DocType returns the decoded DocType from the EBML header, or "" if
// ReadEBMLHeader has not been called yet: a caller that just wants to
// know "is this a Matroska/WebM stream" shouldn't have to re-derive it
// via ChildrenByName every time.
func (r *Reader) DocType() string {
	if r.header == nil {
		return ""
	}
	return r.header.DocType
}

// Header returns the decoded EBML header, or nil if ReadEBMLHeader has not
// run yet.
func (r *Reader) Header() *Header { return r.header }

// Anomalies returns the structurally-legal-but-suspicious observations
// recorded so far. The only kind recorded is a non-canonical (wider than
// needed) size VINT on an element read through ReadElement; unknown
// element IDs are logged at debug level but not recorded here.
func (r *Reader) Anomalies() []string {
	out := make([]string, len(r.anomalies))
	copy(out, r.anomalies)
	return out
}

// checkAnomalies only runs for elements read directly through
// Reader.ReadElement; children read via NextChild/PopulateChildren don't
// pass through it, so non-canonical size VINTs below the top level are
// never flagged here. Best-effort only, not a structural guarantee.
func (r *Reader) checkAnomalies(e *Element) {
	if e.SizeLen > 1 {
		minWidth := minimalSizeWidth(e.ContentLen)
		if e.SizeLen > minWidth {
			r.anomalies = append(r.anomalies, "non-canonical size VINT on "+e.IDHex)
			r.logger.Debugf("non-canonical size VINT on %s: used %d bytes, %d would suffice", e.IDHex, e.SizeLen, minWidth)
		}
	}
	if !e.HasSchema {
		r.logger.Debugf("skipped unknown element %s (%d content bytes)", e.IDHex, e.ContentLen)
	}
}

// minimalSizeWidth returns the smallest VINT size-form width that can
// encode v without hitting the reserved all-ones "unknown size" value for
// that width.
func minimalSizeWidth(v uint64) int {
	for w := 1; w <= 8; w++ {
		max := uint64(1)<<(uint(7*w)) - 1
		if v < max {
			return w
		}
	}
	return 8
}

// SniffedMIME returns a gabriel-vasile/mimetype best-effort guess when
// Options.Sniff is set, or "" otherwise. The guess is made on each call
// from up to 512 bytes at the source's current position, which is then
// restored.
func (r *Reader) SniffedMIME() string {
	if !r.opts.Sniff {
		return ""
	}
	return sniffDocType(r.src)
}

// Close closes the underlying Source. After Close, lazy operations on
// Elements produced by this Reader fail with ErrReaderClosed.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.src.Close()
}
