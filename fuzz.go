// Copyright 2024 The mkvstream Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package ebml

// Fuzz is a go-fuzz entry point using the legacy function-signature
// convention: it does not import the go-fuzz package, the build tooling
// supplies that when compiling a fuzz target. It feeds data through the
// full public surface (header, recursive population, name lookup, lazy
// binary re-read) so a fuzzer exploring malformed streams exercises the
// whole element tree.
func Fuzz(data []byte) int {
	src := OpenBytes(data)
	r := NewReader(src, nil, &Options{EagerBinary: false})
	defer r.Close()

	header, err := r.ReadEBMLHeader()
	if err != nil {
		return 0
	}
	if err := header.PopulateChildren(true, true); err != nil {
		return 0
	}
	_ = header.ChildrenByName("DocType")

	for {
		e, err := r.ReadElement()
		if err != nil {
			return 0
		}
		if e == nil {
			break
		}
		if e.HasSchema && e.Type == TypeSub {
			if err := e.PopulateChildren(true, false); err != nil {
				return 0
			}
		}
		if e.HasSchema && e.Type == TypeBinary {
			if _, err := e.GetValue(false); err != nil {
				return 0
			}
		}
	}

	return 1
}
