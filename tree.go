// Copyright 2024 The mkvstream Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package ebml

import "fmt"

// NextChild advances child iteration; defined only when e's value_type is
// Sub. It returns (nil, nil) when iteration is exhausted for this pass; a
// subsequent call restarts iteration at index 0.
func (e *Element) NextChild(eagerBinary bool) (*Element, error) {
	if !e.HasSchema || e.Type != TypeSub {
		return nil, newElemErr(ErrKindSyntax, -1, e.IDHex, ErrNotContainer)
	}
	r, err := e.liveReader()
	if err != nil {
		return nil, err
	}

	if e.allChildrenRead {
		if e.childCursor >= len(e.Value.Children) {
			e.childCursor = 0
			return nil, nil
		}
		c := e.Value.Children[e.childCursor]
		e.childCursor++
		return c, nil
	}

	remaining := e.ContentLen
	if e.remainingValid {
		remaining = uint64(e.remainingLen)
	}
	if remaining == 0 {
		e.allChildrenRead = true
		return nil, nil
	}

	if r.src.Seekable() {
		if !e.HasPos {
			return nil, newElemErr(ErrKindLifecycle, -1, e.IDHex, ErrNotSeekable)
		}
		if err := r.src.SeekTo(Position(int64(e.DataPos) + e.posOffset)); err != nil {
			return nil, err
		}
	}
	// On non-seekable sources we rely on the source already being
	// positioned correctly, since children are read contiguously.

	child, err := readElement(r.src, r.reg, eagerBinary, r.maxIDWidth, r.maxSizeWidth)
	if err != nil {
		return nil, err
	}
	if child == nil {
		e.allChildrenRead = true
		return nil, nil
	}

	e.posOffset += int64(child.FullLen)
	newRemaining := int64(remaining) - int64(child.FullLen)
	if newRemaining < 0 {
		return nil, newElemErr(ErrKindSyntax, -1, e.IDHex, fmt.Errorf("%w: %s", ErrBudgetOverrun, e.Name))
	}
	e.remainingLen = newRemaining
	e.remainingValid = true

	child.Depth = e.Depth + 1
	child.reader = r
	e.Value.Children = append(e.Value.Children, child)

	return child, nil
}

// PopulateChildren drives NextChild until exhausted, and if recurse is
// true, also drills into every child whose type is Sub. Calling this
// with recurse=true on the root loads the entire document into memory
// and eliminates subsequent seeks.
func (e *Element) PopulateChildren(recurse, eagerBinary bool) error {
	for {
		child, err := e.NextChild(eagerBinary)
		if err != nil {
			return err
		}
		if child == nil {
			break
		}
		if recurse && child.HasSchema && child.Type == TypeSub {
			if r, rerr := child.liveReader(); rerr == nil && r.opts.MaxDepth > 0 && child.Depth >= r.opts.MaxDepth {
				continue
			}
			if err := child.PopulateChildren(true, eagerBinary); err != nil {
				return err
			}
		}
	}
	return nil
}

// ChildrenByName scans only already-materialized children. If no
// children are materialized, it returns an empty slice, a deliberate
// choice to avoid exhaustively reading unseekable streams on a mere
// lookup.
func (e *Element) ChildrenByName(name string) []*Element {
	var out []*Element
	for _, c := range e.Value.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// ChildByName is a convenience wrapper over ChildrenByName for the common
// case of an at-most-one-match lookup: it returns the single match if
// exactly one exists, or nil otherwise.
func (e *Element) ChildByName(name string) *Element {
	matches := e.ChildrenByName(name)
	if len(matches) == 1 {
		return matches[0]
	}
	return nil
}

// GetValue is only valid for Binary elements read non-eagerly. It
// requires a seekable source and a recorded
// data_pos, seeks to data_pos, reads content_len bytes, and either returns
// them transiently (keep=false) or caches them into e.Value (keep=true)
// for subsequent calls.
func (e *Element) GetValue(keep bool) ([]byte, error) {
	if !e.HasSchema || e.Type != TypeBinary {
		return nil, newElemErr(ErrKindLifecycle, -1, e.IDHex, ErrNotBinary)
	}
	if e.Value.set {
		return e.Value.Binary, nil
	}
	r, err := e.liveReader()
	if err != nil {
		return nil, err
	}
	if !r.src.Seekable() || !e.HasPos {
		return nil, newElemErr(ErrKindLifecycle, -1, e.IDHex, ErrNotSeekable)
	}

	saved, hasSaved := r.src.Pos()
	if err := r.src.SeekTo(e.DataPos); err != nil {
		return nil, err
	}
	raw, rerr := r.src.Read(int(e.ContentLen))
	if rerr != nil {
		return nil, withElem(rerr, e.IDHex)
	}
	if hasSaved {
		_ = r.src.SeekTo(saved)
	}

	if keep {
		e.Value = Value{Kind: TypeBinary, Binary: raw, set: true}
	}
	return raw, nil
}

// Skip is only legal immediately after readElement and before any reads
// have changed the source position, i.e. the current source position
// must still equal data_pos.
func (e *Element) Skip() error {
	r, err := e.liveReader()
	if err != nil {
		return err
	}
	if !r.src.Seekable() {
		if serr := r.src.Skip(int64(e.ContentLen)); serr != nil {
			return withElem(serr, e.IDHex)
		}
		return nil
	}
	if !e.HasPos {
		return newElemErr(ErrKindLifecycle, -1, e.IDHex, ErrSkipMoved)
	}
	cur, ok := r.src.Pos()
	if !ok || cur != e.DataPos {
		return newElemErr(ErrKindLifecycle, -1, e.IDHex, ErrSkipMoved)
	}
	target := Position(int64(e.DataPos) + int64(e.ContentLen))
	if err := r.src.SeekTo(target); err != nil {
		return err
	}
	return nil
}
