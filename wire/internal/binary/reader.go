package binary

import (
	"bufio"
	"io"
)

// byteSource is the minimal contract the decoder needs from a byte
// source: ordered bytes, single-byte and block reads.
type byteSource interface {
	io.Reader
	io.ByteReader
}

// Reader wraps an io.Reader with position tracking. The position feeds
// the offset reported in corruption errors.
type Reader struct {
	r   byteSource
	pos int
}

// NewReader creates a Reader over r. Sources that do not implement
// io.ByteReader are buffered; the buffer is private to this Reader, so
// callers decoding several values from one underlying stream must pass
// a source that owns its own read-ahead (bufio.Reader, bytes.Reader).
func NewReader(r io.Reader) *Reader {
	if bs, ok := r.(byteSource); ok {
		return &Reader{r: bs}
	}
	return &Reader{r: bufio.NewReader(r)}
}

// Position returns the number of bytes consumed so far.
func (r *Reader) Position() int {
	return r.pos
}

// ReadByte reads a single byte and advances the position.
func (r *Reader) ReadByte() (byte, error) {
	b, err := r.r.ReadByte()
	if err != nil {
		return 0, err
	}
	r.pos++
	return b, nil
}

// ReadFull reads exactly n bytes. A short read surfaces as
// io.ErrUnexpectedEOF.
func (r *Reader) ReadFull(n int) ([]byte, error) {
	buf := make([]byte, n)
	m, err := io.ReadFull(r.r, buf)
	r.pos += m
	if err != nil {
		return nil, err
	}
	return buf, nil
}
