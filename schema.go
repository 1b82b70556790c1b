// Copyright 2024 The mkvstream Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package ebml

// ValueType classifies how a schema entry's content bytes are decoded.
type ValueType int

const (
	// TypeSub marks a container element: its content is itself a
	// sequence of child elements, never decoded inline.
	TypeSub ValueType = iota

	// TypeStr marks a UTF-8 string element.
	TypeStr

	// TypeUint marks an unsigned integer of 1-8 bytes.
	TypeUint

	// TypeSint marks a two's-complement signed integer of 1-8 bytes.
	TypeSint

	// TypeFloat marks an IEEE 754 binary32 or binary64 float.
	TypeFloat

	// TypeBinary marks an opaque byte payload.
	TypeBinary

	// TypeEbmlId marks a nested EBML ID resolved through the registry.
	TypeEbmlId

	// TypeSkip marks an element whose bytes are always skipped and never
	// decoded, regardless of whether the ID is known.
	TypeSkip
)

func (t ValueType) String() string {
	switch t {
	case TypeSub:
		return "Sub"
	case TypeStr:
		return "Str"
	case TypeUint:
		return "Uint"
	case TypeSint:
		return "Sint"
	case TypeFloat:
		return "Float"
	case TypeBinary:
		return "Binary"
	case TypeEbmlId:
		return "EbmlId"
	case TypeSkip:
		return "Skip"
	default:
		return "Unknown"
	}
}

// SchemaEntry is an immutable, process-wide description of one known EBML
// ID: its name, value type, cardinality, and (for container elements) the
// set of child IDs it may legally contain.
type SchemaEntry struct {
	IDHex    string
	Name     string
	Type     ValueType
	Multiple bool
	Children map[string]struct{} // nil for non-container entries
}

// Registry is a read-only, concurrency-safe lookup table from lowercase
// hex element ID to SchemaEntry. The zero value is not usable; construct
// one with NewRegistry or use DefaultRegistry.
type Registry struct {
	byID map[string]*SchemaEntry
}

// Lookup returns the schema entry for idHex, or (nil, false) if idHex is
// not a known element. Unknown IDs are legal EBML and are handled by the
// Element Reader, not by this method.
func (r *Registry) Lookup(idHex string) (*SchemaEntry, bool) {
	e, ok := r.byID[idHex]
	return e, ok
}

type schemaDef struct {
	id       string
	name     string
	typ      ValueType
	multiple bool
	children []string
}

// NewRegistry builds a Registry covering the EBML header and the
// Matroska Segment subtree, enumerated here as a declarative table
// rather than as code. Callers
// that need vendor-specific IDs beyond this minimum can still parse
// streams containing them: unknown IDs are tolerated and skipped by the
// Element Reader, they are simply not named or typed.
func NewRegistry() *Registry {
	defs := matroskaSchema
	r := &Registry{byID: make(map[string]*SchemaEntry, len(defs))}
	for _, d := range defs {
		e := &SchemaEntry{
			IDHex:    d.id,
			Name:     d.name,
			Type:     d.typ,
			Multiple: d.multiple,
		}
		if d.children != nil {
			e.Children = make(map[string]struct{}, len(d.children))
			for _, c := range d.children {
				e.Children[c] = struct{}{}
			}
		}
		r.byID[d.id] = e
	}
	return r
}

// DefaultRegistry is a shared, read-only Registry instance. It is safe to
// share across Readers since it is never mutated after construction.
var DefaultRegistry = NewRegistry()

// matroskaSchema is the static declarative table backing DefaultRegistry.
// IDs are lowercase hex strings of the canonical VINT-ID byte sequence
// (length marker included), exactly as read_id reports them.
var matroskaSchema = []schemaDef{
	// --- EBML header ---
	{"1a45dfa3", "EBML", TypeSub, false, []string{
		"4286", "42f7", "42f2", "42f3", "4282", "4287", "4285", "4281", "4283", "ec",
	}},
	{"4286", "EBMLVersion", TypeUint, false, nil},
	{"42f7", "EBMLReadVersion", TypeUint, false, nil},
	{"42f2", "EBMLMaxIDLength", TypeUint, false, nil},
	{"42f3", "EBMLMaxSizeLength", TypeUint, false, nil},
	{"4282", "DocType", TypeStr, false, nil},
	{"4287", "DocTypeVersion", TypeUint, false, nil},
	{"4285", "DocTypeReadVersion", TypeUint, false, nil},
	{"4281", "DocTypeExtension", TypeSub, true, []string{"4283", "4284"}},
	{"4283", "DocTypeExtensionName", TypeStr, false, nil},
	{"4284", "DocTypeExtensionVersion", TypeUint, false, nil},

	// --- Top-level, schema-independent ---
	{"bf", "CRC32", TypeBinary, false, nil},
	{"ec", "Void", TypeBinary, true, nil},

	// --- Segment ---
	{"18538067", "Segment", TypeSub, false, []string{
		"114d9b74", "1549a966", "1f43b675", "1654ae6b", "1c53bb6b",
		"1941a469", "1043a770", "1254c367", "bf", "ec",
	}},

	// SeekHead
	{"114d9b74", "SeekHead", TypeSub, true, []string{"4dbb", "bf", "ec"}},
	{"4dbb", "Seek", TypeSub, true, []string{"53ab", "53ac"}},
	{"53ab", "SeekID", TypeBinary, false, nil},
	{"53ac", "SeekPosition", TypeUint, false, nil},

	// Info
	{"1549a966", "Info", TypeSub, true, []string{
		"73a4", "7384", "3cb923", "3c83ab", "3eb923", "3e83bb", "4444",
		"2ad7b1", "4489", "4461", "7ba9", "4d80", "5741", "bf", "ec",
	}},
	{"73a4", "SegmentUID", TypeBinary, false, nil},
	{"7384", "SegmentFilename", TypeStr, false, nil},
	{"3cb923", "PrevUID", TypeBinary, false, nil},
	{"3c83ab", "PrevFilename", TypeStr, false, nil},
	{"3eb923", "NextUID", TypeBinary, false, nil},
	{"3e83bb", "NextFilename", TypeStr, false, nil},
	{"4444", "SegmentFamily", TypeBinary, true, nil},
	{"2ad7b1", "TimecodeScale", TypeUint, false, nil},
	{"4489", "Duration", TypeFloat, false, nil},
	{"4461", "DateUTC", TypeSint, false, nil},
	{"7ba9", "Title", TypeStr, false, nil},
	{"4d80", "MuxingApp", TypeStr, false, nil},
	{"5741", "WritingApp", TypeStr, false, nil},

	// Cluster
	{"1f43b675", "Cluster", TypeSub, true, []string{
		"e7", "a3", "a0", "ab", "a7", "af", "bf", "ec",
	}},
	{"e7", "Timecode", TypeUint, false, nil},
	{"a3", "SimpleBlock", TypeBinary, true, nil},
	{"a0", "BlockGroup", TypeSub, true, []string{"a1", "a2", "9b", "fb", "75a1"}},
	{"a1", "Block", TypeBinary, false, nil},
	{"a2", "BlockVirtual", TypeBinary, false, nil},
	{"9b", "BlockDuration", TypeUint, false, nil},
	{"fb", "ReferenceBlock", TypeSint, true, nil},
	{"75a1", "BlockAdditions", TypeSub, false, nil},
	{"ab", "PrevSize", TypeUint, false, nil},
	{"a7", "Position", TypeUint, false, nil},
	{"af", "EncryptedBlock", TypeBinary, false, nil},

	// Tracks
	{"1654ae6b", "Tracks", TypeSub, false, []string{"ae", "bf", "ec"}},
	{"ae", "TrackEntry", TypeSub, true, []string{
		"d7", "73c5", "83", "536e", "22b59c", "86", "63a2", "258688",
		"e0", "e1", "9a", "aa", "b9", "6de7", "bf", "ec",
	}},
	{"d7", "TrackNumber", TypeUint, false, nil},
	{"73c5", "TrackUID", TypeUint, false, nil},
	{"83", "TrackType", TypeUint, false, nil},
	{"536e", "Name", TypeStr, false, nil},
	{"22b59c", "Language", TypeStr, false, nil},
	{"86", "CodecID", TypeStr, false, nil},
	{"63a2", "CodecPrivate", TypeBinary, false, nil},
	{"258688", "CodecName", TypeStr, false, nil},
	{"9a", "FlagInterlaced", TypeUint, false, nil},
	{"aa", "CodecDecodeAll", TypeUint, false, nil},
	{"b9", "FlagEnabled", TypeUint, false, nil},
	{"6de7", "MinCache", TypeUint, false, nil},

	// Video
	{"e0", "Video", TypeSub, false, []string{"b0", "ba", "54b0", "54ba", "54aa"}},
	{"b0", "PixelWidth", TypeUint, false, nil},
	{"ba", "PixelHeight", TypeUint, false, nil},
	{"54b0", "DisplayWidth", TypeUint, false, nil},
	{"54ba", "DisplayHeight", TypeUint, false, nil},
	{"54aa", "PixelCropBottom", TypeUint, false, nil},

	// Audio
	{"e1", "Audio", TypeSub, false, []string{"b5", "78b5", "9f", "6264"}},
	{"b5", "SamplingFrequency", TypeFloat, false, nil},
	{"78b5", "OutputSamplingFrequency", TypeFloat, false, nil},
	{"9f", "Channels", TypeUint, false, nil},
	{"6264", "BitDepth", TypeUint, false, nil},

	// Cues
	{"1c53bb6b", "Cues", TypeSub, false, []string{"bb", "bf", "ec"}},
	{"bb", "CuePoint", TypeSub, true, []string{"b3", "b7"}},
	{"b3", "CueTime", TypeUint, false, nil},
	{"b7", "CueTrackPositions", TypeSub, true, []string{"f7", "f1", "f0"}},
	{"f7", "CueTrack", TypeUint, false, nil},
	{"f1", "CueClusterPosition", TypeUint, false, nil},
	{"f0", "CueRelativePosition", TypeUint, false, nil},

	// Attachments
	{"1941a469", "Attachments", TypeSub, false, []string{"61a7", "bf", "ec"}},
	{"61a7", "AttachedFile", TypeSub, true, []string{"467e", "466e", "4660", "46ae", "465c"}},
	{"467e", "FileDescription", TypeStr, false, nil},
	{"466e", "FileName", TypeStr, false, nil},
	{"4660", "FileMimeType", TypeStr, false, nil},
	{"46ae", "FileUID", TypeUint, false, nil},
	{"465c", "FileData", TypeBinary, false, nil},

	// Chapters
	{"1043a770", "Chapters", TypeSub, false, []string{"45b9", "bf", "ec"}},
	{"45b9", "EditionEntry", TypeSub, true, []string{"b6", "45bd", "45db", "45bc"}},
	{"b6", "ChapterAtom", TypeSub, true, []string{"73c4", "91", "92", "80"}},
	{"45bd", "EditionFlagHidden", TypeUint, false, nil},
	{"45db", "EditionFlagDefault", TypeUint, false, nil},
	{"45bc", "EditionUID", TypeUint, false, nil},
	{"73c4", "ChapterUID", TypeUint, false, nil},
	{"91", "ChapterTimeStart", TypeUint, false, nil},
	{"92", "ChapterTimeEnd", TypeUint, false, nil},
	{"80", "ChapterDisplay", TypeSub, true, []string{"85", "437c"}},
	{"85", "ChapString", TypeStr, false, nil},
	{"437c", "ChapLanguage", TypeStr, true, nil},

	// Tags
	{"1254c367", "Tags", TypeSub, false, []string{"7373", "bf", "ec"}},
	{"7373", "Tag", TypeSub, true, []string{"63c0", "67c8"}},
	{"63c0", "Targets", TypeSub, false, []string{"68ca", "63c5"}},
	{"68ca", "TargetTypeValue", TypeUint, false, nil},
	{"63c5", "TrackUID_Target", TypeUint, true, nil},
	{"67c8", "SimpleTag", TypeSub, true, []string{"45a3", "4487"}},
	{"45a3", "TagName", TypeStr, false, nil},
	{"4487", "TagString", TypeStr, false, nil},
}
