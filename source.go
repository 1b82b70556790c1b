// Copyright 2024 The mkvstream Authors. All rights reserved.
// Use of this source code is governed by a BSD-style license
// that can be found in the LICENSE file.

package ebml

import (
	"errors"
	"fmt"
	"io"
	"os"

	mmap "github.com/edsrzf/mmap-go"
)

// Position is an opaque source offset. It compares by equality and is
// only meaningful relative to the Source that produced it.
type Position int64

// Source is the uniform byte-source abstraction: a seekable or
// non-seekable provider of bytes. Implementations for a
// filesystem path, an already-open stream, and an in-memory buffer are
// provided by OpenFile, OpenStream, and OpenBytes respectively.
type Source interface {
	// Read consumes exactly n bytes or fails.
	Read(n int) ([]byte, error)

	// ReadOne consumes exactly one byte or fails.
	ReadOne() (byte, error)

	// Skip advances the stream by n bytes, seeking when possible and
	// falling back to read-and-discard otherwise.
	Skip(n int64) error

	// EOF reports whether the source has been exhausted. It is only
	// reliable after an attempted read has observed end-of-stream; a
	// Source is not required to support look-ahead.
	EOF() bool

	// Seekable reports whether Pos/SeekTo are usable.
	Seekable() bool

	// Pos returns the current position, or (0, false) on a non-seekable
	// source.
	Pos() (Position, bool)

	// SeekTo moves to an absolute position. It fails with a seek-
	// consistency error (ErrKindSeekConsistency) if, after seeking, Pos
	// does not report exactly the requested position. Only valid when
	// Seekable reports true.
	SeekTo(p Position) error

	// Close releases the underlying handle. Closing a Source that wraps
	// a caller-supplied stream also closes that stream.
	Close() error
}

// seekableSource is the shared implementation backing OpenFile (via mmap)
// and OpenBytes: it memory-maps a file instead of issuing read syscalls,
// and treats an in-memory byte slice the same way for uniform random
// access.
type seekableSource struct {
	data   []byte
	pos    int64
	closer io.Closer // non-nil only for OpenFile
	mm     mmap.MMap // non-nil only for OpenFile
}

// OpenFile opens a filesystem path in raw byte mode, memory-mapping its
// contents via mmap.Map(f, mmap.RDONLY, 0) for O(1) random access.
func OpenFile(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newErr(ErrKindIO, -1, err)
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		_ = f.Close()
		return nil, newErr(ErrKindIO, -1, err)
	}
	return &seekableSource{data: data, closer: f, mm: data}, nil
}

// OpenBytes treats an in-memory byte buffer as a seekable source.
func OpenBytes(b []byte) Source {
	return &seekableSource{data: b}
}

func (s *seekableSource) Read(n int) ([]byte, error) {
	if n < 0 {
		return nil, newErr(ErrKindIO, s.pos, errors.New("negative read length"))
	}
	if s.pos+int64(n) > int64(len(s.data)) {
		if s.pos >= int64(len(s.data)) {
			return nil, io.EOF
		}
		return nil, newErr(ErrKindIO, s.pos, io.ErrUnexpectedEOF)
	}
	out := make([]byte, n)
	copy(out, s.data[s.pos:s.pos+int64(n)])
	s.pos += int64(n)
	return out, nil
}

func (s *seekableSource) ReadOne() (byte, error) {
	if s.pos >= int64(len(s.data)) {
		return 0, io.EOF
	}
	b := s.data[s.pos]
	s.pos++
	return b, nil
}

func (s *seekableSource) Skip(n int64) error {
	target := s.pos + n
	if target < 0 || target > int64(len(s.data)) {
		return newErr(ErrKindIO, s.pos, fmt.Errorf("skip(%d) out of range", n))
	}
	s.pos = target
	return nil
}

func (s *seekableSource) EOF() bool { return s.pos >= int64(len(s.data)) }

func (s *seekableSource) Seekable() bool { return true }

func (s *seekableSource) Pos() (Position, bool) { return Position(s.pos), true }

func (s *seekableSource) SeekTo(p Position) error {
	if int64(p) < 0 || int64(p) > int64(len(s.data)) {
		return newErr(ErrKindSeekConsistency, s.pos, fmt.Errorf("seek target %d out of range", p))
	}
	s.pos = int64(p)
	got, _ := s.Pos()
	if got != p {
		return newErr(ErrKindSeekConsistency, s.pos, fmt.Errorf("seek landed at %d, wanted %d", got, p))
	}
	return nil
}

func (s *seekableSource) Close() error {
	var err error
	if s.mm != nil {
		err = s.mm.Unmap()
	}
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return newErr(ErrKindIO, s.pos, err)
	}
	return nil
}

// streamSource wraps a plain io.Reader with no seek capability: Pos
// returns none and SeekTo always fails.
type streamSource struct {
	r     io.Reader
	c     io.Closer
	pos   int64
	atEOF bool
}

// OpenStream wraps an already-open byte stream handle for use in place;
// closing the returned Source closes the handle. If r also implements
// io.Seeker, the stream is wrapped by a Source that
// seeks directly on the handle instead of slurping it into memory, so a
// large already-open file or pipe-with-seek keeps its lazy-access
// properties. Otherwise the Source is read-forward only.
func OpenStream(r io.Reader) Source {
	if rs, ok := r.(io.ReadSeeker); ok {
		rss := &readSeekerSource{rs: rs}
		if c, ok2 := r.(io.Closer); ok2 {
			rss.c = c
		}
		return rss
	}
	ss := &streamSource{r: r}
	if c, ok := r.(io.Closer); ok {
		ss.c = c
	}
	return ss
}

// readSeekerSource backs OpenStream when the supplied handle implements
// io.ReadSeeker. Unlike seekableSource it does not require the whole
// stream to be mapped or buffered up front; it seeks directly on rs.
type readSeekerSource struct {
	rs    io.ReadSeeker
	c     io.Closer
	pos   int64
	atEOF bool
}

func (s *readSeekerSource) Read(n int) ([]byte, error) {
	buf := make([]byte, n)
	got, err := io.ReadFull(s.rs, buf)
	s.pos += int64(got)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			s.atEOF = true
			return nil, io.EOF
		}
		return nil, newErr(ErrKindIO, s.pos, err)
	}
	return buf, nil
}

func (s *readSeekerSource) ReadOne() (byte, error) {
	b, err := s.Read(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (s *readSeekerSource) Skip(n int64) error {
	np, err := s.rs.Seek(n, io.SeekCurrent)
	if err != nil {
		return newErr(ErrKindIO, s.pos, err)
	}
	s.pos = np
	return nil
}

func (s *readSeekerSource) EOF() bool { return s.atEOF }

func (s *readSeekerSource) Seekable() bool { return true }

func (s *readSeekerSource) Pos() (Position, bool) { return Position(s.pos), true }

func (s *readSeekerSource) SeekTo(p Position) error {
	np, err := s.rs.Seek(int64(p), io.SeekStart)
	if err != nil {
		return newErr(ErrKindSeekConsistency, s.pos, err)
	}
	s.pos = np
	if Position(np) != p {
		return newErr(ErrKindSeekConsistency, s.pos, fmt.Errorf("seek landed at %d, wanted %d", np, p))
	}
	s.atEOF = false
	return nil
}

func (s *readSeekerSource) Close() error {
	if s.c != nil {
		if err := s.c.Close(); err != nil {
			return newErr(ErrKindIO, s.pos, err)
		}
	}
	return nil
}

func (s *streamSource) Read(n int) ([]byte, error) {
	buf := make([]byte, n)
	got, err := io.ReadFull(s.r, buf)
	s.pos += int64(got)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			s.atEOF = true
			return nil, io.EOF
		}
		return nil, newErr(ErrKindIO, s.pos, err)
	}
	return buf, nil
}

func (s *streamSource) ReadOne() (byte, error) {
	b, err := s.Read(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (s *streamSource) Skip(n int64) error {
	if n < 0 {
		return newErr(ErrKindIO, s.pos, errors.New("negative skip length"))
	}
	const chunk = 32 * 1024
	buf := make([]byte, chunk)
	remaining := n
	for remaining > 0 {
		want := remaining
		if want > chunk {
			want = chunk
		}
		got, err := io.ReadFull(s.r, buf[:want])
		s.pos += int64(got)
		remaining -= int64(got)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				s.atEOF = true
				return io.EOF
			}
			return newErr(ErrKindIO, s.pos, err)
		}
	}
	return nil
}

func (s *streamSource) EOF() bool { return s.atEOF }

func (s *streamSource) Seekable() bool { return false }

func (s *streamSource) Pos() (Position, bool) { return 0, false }

func (s *streamSource) SeekTo(Position) error {
	return newErr(ErrKindLifecycle, s.pos, ErrNotSeekable)
}

func (s *streamSource) Close() error {
	if s.c != nil {
		if err := s.c.Close(); err != nil {
			return newErr(ErrKindIO, s.pos, err)
		}
	}
	return nil
}
