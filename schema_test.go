// Copyright 2024 The mkvstream Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package ebml

import "testing"

func TestRegistryLookupKnown(t *testing.T) {
	tests := []struct {
		idHex string
		name  string
		typ   ValueType
	}{
		{"1a45dfa3", "EBML", TypeSub},
		{"4282", "DocType", TypeStr},
		{"18538067", "Segment", TypeSub},
		{"bf", "CRC32", TypeBinary},
		{"ec", "Void", TypeBinary},
		{"e7", "Timecode", TypeUint},
		{"a3", "SimpleBlock", TypeBinary},
		{"b5", "SamplingFrequency", TypeFloat},
		{"4461", "DateUTC", TypeSint},
	}

	reg := NewRegistry()
	for _, tt := range tests {
		entry, ok := reg.Lookup(tt.idHex)
		if !ok {
			t.Errorf("Lookup(%s) not found, want %s", tt.idHex, tt.name)
			continue
		}
		if entry.Name != tt.name || entry.Type != tt.typ {
			t.Errorf("Lookup(%s) = (%s, %s), want (%s, %s)", tt.idHex, entry.Name, entry.Type, tt.name, tt.typ)
		}
	}
}

func TestRegistryLookupUnknown(t *testing.T) {
	reg := NewRegistry()
	if _, ok := reg.Lookup("ffeeddcc"); ok {
		t.Errorf("Lookup(unknown) should report not-found")
	}
}

func TestRegistryNoDuplicateIDs(t *testing.T) {
	seen := make(map[string]string)
	for _, d := range matroskaSchema {
		if prev, ok := seen[d.id]; ok {
			t.Errorf("duplicate schema id %s: %s and %s", d.id, prev, d.name)
		}
		seen[d.id] = d.name
	}
}

func TestSegmentChildren(t *testing.T) {
	reg := NewRegistry()
	entry, ok := reg.Lookup("18538067")
	if !ok {
		t.Fatal("Segment not found")
	}
	for _, want := range []string{"114d9b74", "1549a966", "1f43b675", "1654ae6b"} {
		if _, ok := entry.Children[want]; !ok {
			t.Errorf("Segment missing expected child %s", want)
		}
	}
}

func TestDefaultRegistryIsShared(t *testing.T) {
	if DefaultRegistry == nil {
		t.Fatal("DefaultRegistry must not be nil")
	}
	if _, ok := DefaultRegistry.Lookup("1a45dfa3"); !ok {
		t.Fatal("DefaultRegistry must know the EBML header")
	}
}
