// Copyright 2024 The mkvstream Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package ebml

import (
	"errors"
	"fmt"
	"io"
)

// Value is a tagged union over the decoded payload, with the tag derived
// from the schema entry's value_type. The zero Value (Kind == TypeSub
// with no payload set) represents "no value decoded", used for unknown
// IDs, Skip elements, and Binary elements read non-eagerly.
type Value struct {
	Kind     ValueType
	Str      string
	Uint     uint64
	Sint     int64
	Float    float64
	Binary   []byte
	EbmlID   *SchemaEntry
	Children []*Element
	set      bool
}

// IsZero reports whether no value has been decoded into this Value yet.
func (v Value) IsZero() bool { return !v.set }

// Element is the runtime realization of one parsed header. It holds a
// non-owning (weak) back-reference to the Reader that produced it:
// dereferencing it after the Reader closes fails cleanly via
// ErrReaderClosed instead of crashing.
type Element struct {
	IDHex     string
	Name      string   // "" if the ID is unknown to the schema
	HasSchema bool
	Type      ValueType // meaningful only if HasSchema
	SizeLen   int
	ContentLen uint64
	FullLen   uint64
	Depth     int

	ElemPos Position
	DataPos Position
	HasPos  bool // false on non-seekable sources

	Value Value

	// Iterator bookkeeping for NextChild.
	remainingLen    int64
	remainingValid  bool
	posOffset       int64
	allChildrenRead bool
	childCursor     int

	reader *Reader // weak: observes Reader.closed, never keeps it alive
}

// IDByteLen returns the number of bytes the ID occupied on the wire,
// implicit in the length of its hex string (two hex digits per byte).
func (e *Element) IDByteLen() int {
	return len(e.IDHex) / 2
}

// liveReader returns e's Reader, or ErrReaderClosed if it has been closed
// or the Element was never attached to one (e.g. a synthetic root built
// for a test).
func (e *Element) liveReader() (*Reader, error) {
	if e.reader == nil || e.reader.closed {
		return nil, newElemErr(ErrKindLifecycle, -1, e.IDHex, ErrReaderClosed)
	}
	return e.reader, nil
}

// readElement reads one element header from src's current position,
// consults reg, decodes the value for scalar types, and returns an
// element with depth 0 — the
// caller (or the child iterator) assigns a non-zero depth when embedding.
// A nil Element with a nil error means src was at end-of-stream.
func readElement(src Source, reg *Registry, eagerBinary bool, maxIDWidth, maxSizeWidth int) (*Element, error) {
	if src.EOF() {
		return nil, nil
	}

	elemPos, hasElemPos := src.Pos()

	idHex, idWidth, err := readID(src, maxIDWidth)
	if err != nil {
		if isCleanEOF(err) {
			return nil, nil
		}
		return nil, err
	}

	sizeLen, contentLen, err := readSize(src, maxSizeWidth)
	if err != nil {
		return nil, withElem(err, idHex)
	}

	fullLen := uint64(idWidth) + uint64(sizeLen) + contentLen

	dataPos, hasDataPos := src.Pos()

	e := &Element{
		IDHex:      idHex,
		SizeLen:    sizeLen,
		ContentLen: contentLen,
		FullLen:    fullLen,
		Depth:      0,
		HasPos:     hasElemPos && hasDataPos,
	}
	if hasElemPos {
		e.ElemPos = elemPos
	}
	if hasDataPos {
		e.DataPos = dataPos
	}

	entry, known := reg.Lookup(idHex)
	if !known {
		if serr := src.Skip(int64(contentLen)); serr != nil {
			return nil, withElem(serr, idHex)
		}
		return e, nil
	}

	e.Name = entry.Name
	e.Type = entry.Type
	e.HasSchema = true

	switch entry.Type {
	case TypeSub:
		e.Value = Value{Kind: TypeSub, Children: nil, set: true}

	case TypeSkip:
		if serr := src.Skip(int64(contentLen)); serr != nil {
			return nil, withElem(serr, idHex)
		}

	case TypeStr:
		raw, rerr := src.Read(int(contentLen))
		if rerr != nil {
			return nil, withElem(rerr, idHex)
		}
		s, derr := decodeString(raw)
		if derr != nil {
			return nil, withElem(derr, idHex)
		}
		e.Value = Value{Kind: TypeStr, Str: s, set: true}

	case TypeUint:
		raw, rerr := src.Read(int(contentLen))
		if rerr != nil {
			return nil, withElem(rerr, idHex)
		}
		e.Value = Value{Kind: TypeUint, Uint: decodeUint(raw), set: true}

	case TypeSint:
		raw, rerr := src.Read(int(contentLen))
		if rerr != nil {
			return nil, withElem(rerr, idHex)
		}
		e.Value = Value{Kind: TypeSint, Sint: decodeSint(raw), set: true}

	case TypeFloat:
		raw, rerr := src.Read(int(contentLen))
		if rerr != nil {
			return nil, withElem(rerr, idHex)
		}
		f, derr := decodeFloat(raw)
		if derr != nil {
			return nil, withElem(derr, idHex)
		}
		e.Value = Value{Kind: TypeFloat, Float: f, set: true}

	case TypeEbmlId:
		raw, rerr := src.Read(int(contentLen))
		if rerr != nil {
			return nil, withElem(rerr, idHex)
		}
		nested, _ := decodeNestedID(raw, reg)
		e.Value = Value{Kind: TypeEbmlId, EbmlID: nested, set: true}

	case TypeBinary:
		if eagerBinary {
			raw, rerr := src.Read(int(contentLen))
			if rerr != nil {
				return nil, withElem(rerr, idHex)
			}
			e.Value = Value{Kind: TypeBinary, Binary: raw, set: true}
		} else {
			if serr := src.Skip(int64(contentLen)); serr != nil {
				return nil, withElem(serr, idHex)
			}
		}

	default:
		return nil, newElemErr(ErrKindSyntax, -1, idHex, ErrUnknownValueType)
	}

	return e, nil
}

func withElem(err error, idHex string) error {
	if pe, ok := err.(*ParseError); ok && pe.Elem == "" {
		pe.Elem = idHex
		return pe
	}
	return err
}

func isCleanEOF(err error) bool {
	return errors.Is(err, io.EOF)
}

// String renders a compact diagnostic form, handy for test failure
// messages and the log lines the ambient logging stack emits.
func (e *Element) String() string {
	return fmt.Sprintf("%s(id=%s type=%s depth=%d content_len=%d)", e.Name, e.IDHex, e.Type, e.Depth, e.ContentLen)
}
