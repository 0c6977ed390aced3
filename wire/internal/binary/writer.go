package binary

import "io"

// Writer wraps an io.Writer sink with position tracking and a
// byte-level write primitive. The sink is append-only; there is no
// seeking.
type Writer struct {
	w   io.Writer
	bw  io.ByteWriter // non-nil when the sink writes single bytes natively
	one [1]byte
	pos int
}

// NewWriter creates a Writer over w.
func NewWriter(w io.Writer) *Writer {
	bw, _ := w.(io.ByteWriter)
	return &Writer{w: w, bw: bw}
}

// Position returns the number of bytes written so far.
func (w *Writer) Position() int {
	return w.pos
}

// WriteByte writes a single byte.
func (w *Writer) WriteByte(b byte) error {
	if w.bw != nil {
		if err := w.bw.WriteByte(b); err != nil {
			return err
		}
		w.pos++
		return nil
	}
	w.one[0] = b
	n, err := w.w.Write(w.one[:])
	w.pos += n
	return err
}

// Write writes a byte slice.
func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.w.Write(p)
	w.pos += n
	return n, err
}
