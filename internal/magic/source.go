package magic

import (
	"bufio"
	"io"
)

// Source supplies the bytes a Rule tests against. A short read — fewer
// bytes available than requested — is not an error: it means the
// candidate rule cannot match, nothing more. A non-nil error means the
// underlying medium genuinely failed and becomes a SourceError at the
// call site (match.go).
type Source interface {
	Bytes(offset int64, length int) ([]byte, error)
}

// Peeker is the mark/reset contract this package needs from a stream: a
// single bounded, non-consuming look-ahead. *bufio.Reader satisfies it.
// NewStreamSource wraps any reader that doesn't in a bufio.Reader, so a
// stream without mark support never reaches the matcher and raises no
// error.
type Peeker interface {
	Peek(n int) ([]byte, error)
}

// readerAtSource adapts a random-access medium (an open *os.File, a
// bytes.Reader) to Source. Every call reads independently; no window is
// cached.
type readerAtSource struct {
	ra io.ReaderAt
}

// NewReaderAtSource wraps a random-access byte source (an open file, an
// in-memory buffer) that can seek to any rule's offset directly, without
// caching a window up front.
func NewReaderAtSource(ra io.ReaderAt) Source {
	return &readerAtSource{ra: ra}
}

func (s *readerAtSource) Bytes(offset int64, length int) ([]byte, error) {
	if offset < 0 || length <= 0 {
		return nil, nil
	}
	buf := make([]byte, length)
	n, err := s.ra.ReadAt(buf, offset)
	if err != nil && err != io.EOF {
		return buf[:n], err
	}
	return buf[:n], nil
}

// streamSource adapts a forward-only stream to Source by peeking the
// entire required window exactly once and slicing out of that buffer for
// every subsequent Bytes call: one look-ahead per match call, never one
// per rule, so the underlying reader position never has to move.
type streamSource struct {
	p      Peeker
	max    int
	buf    []byte
	peeked bool
	err    error
}

// NewStreamSource wraps r for a single match call that will read at most
// maxReadLength bytes. If r already implements Peeker it is used
// directly; otherwise it is wrapped in a bufio.Reader sized to the
// requested window.
func NewStreamSource(r io.Reader, maxReadLength int64) (Source, error) {
	if maxReadLength <= 0 {
		return nil, &UsageError{Reason: "max read length must be positive"}
	}
	var p Peeker
	if pk, ok := r.(Peeker); ok {
		p = pk
	} else {
		p = bufio.NewReaderSize(r, int(maxReadLength)+1)
	}
	return &streamSource{p: p, max: int(maxReadLength)}, nil
}

func (s *streamSource) ensure() {
	if s.peeked {
		return
	}
	s.peeked = true
	buf, err := s.p.Peek(s.max)
	// bufio.Reader.Peek returns as many bytes as it could alongside
	// io.EOF/bufio.ErrBufferFull when the stream is shorter than
	// requested; both are short reads, not failures.
	s.buf = buf
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		s.err = err
	}
}

func (s *streamSource) Bytes(offset int64, length int) ([]byte, error) {
	s.ensure()
	if s.err != nil {
		return nil, s.err
	}
	if offset < 0 || offset >= int64(len(s.buf)) || length <= 0 {
		return nil, nil
	}
	end := offset + int64(length)
	if end > int64(len(s.buf)) {
		end = int64(len(s.buf))
	}
	return s.buf[offset:end], nil
}
