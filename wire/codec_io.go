package wire

// Raw stream access for custom codecs. A codec owns its payload
// layout; these helpers expose the packed-integer and string framing
// the engine itself uses, plus the recursive Encode/Decode entry
// points for nested values.

// WriteUint writes a packed unsigned integer into the codec payload.
func (e *Encoder) WriteUint(v uint64) error {
	return PackUint64(e.w, v)
}

// WriteInt writes a packed signed integer (zigzag) into the codec
// payload.
func (e *Encoder) WriteInt(v int64) error {
	return packZigzag64(e.w, v)
}

// WriteString writes a length-prefixed string into the codec payload.
func (e *Encoder) WriteString(s string) error {
	return e.writeString(s)
}

// WriteBytes writes a length-prefixed byte block into the codec
// payload.
func (e *Encoder) WriteBytes(b []byte) error {
	if err := PackUint64(e.w, uint64(len(b))); err != nil {
		return err
	}
	_, err := e.w.Write(b)
	return err
}

// ReadUint reads a packed unsigned integer from the codec payload.
func (d *Decoder) ReadUint() (uint64, error) {
	return d.unpack64("codec payload")
}

// ReadInt reads a packed signed integer (zigzag) from the codec
// payload.
func (d *Decoder) ReadInt() (int64, error) {
	return d.unpackZigzag("codec payload")
}

// ReadString reads a length-prefixed string from the codec payload.
func (d *Decoder) ReadString() (string, error) {
	return d.readString("codec payload")
}

// ReadBytes reads a length-prefixed byte block from the codec payload.
func (d *Decoder) ReadBytes() ([]byte, error) {
	n, err := d.readCount("codec payload length")
	if err != nil {
		return nil, err
	}
	return d.readFull(n, "codec payload")
}
