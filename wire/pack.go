package wire

import (
	"errors"
	"io"
	"math/bits"
)

// Packed integer codec. Values are split into 7-bit groups written
// most-significant first; the high bit of each byte marks the END of a
// value, not continuation (the reverse of the usual varint
// convention). Zero therefore encodes as the single byte 0x80.

// ErrPackOverflow is returned when a packed integer exceeds the
// maximum bit width for its type.
var ErrPackOverflow = errors.New("pack: varint exceeds bit width")

// PackUint64 writes a packed non-negative integer, 1..10 bytes.
func PackUint64(w io.ByteWriter, v uint64) error {
	shift := 63 - bits.LeadingZeros64(v|1)
	shift -= shift % 7
	for shift != 0 {
		if err := w.WriteByte(byte(v>>uint(shift)) & 0x7F); err != nil {
			return err
		}
		shift -= 7
	}
	return w.WriteByte(byte(v&0x7F) | 0x80)
}

// PackUint32 writes a packed non-negative integer, 1..5 bytes.
func PackUint32(w io.ByteWriter, v uint32) error {
	shift := 31 - bits.LeadingZeros32(v|1)
	shift -= shift % 7
	for shift != 0 {
		if err := w.WriteByte(byte(v>>uint(shift)) & 0x7F); err != nil {
			return err
		}
		shift -= 7
	}
	return w.WriteByte(byte(v&0x7F) | 0x80)
}

// UnpackUint64 reads a packed integer of up to 10 bytes. Groups
// accumulate MSB-first until a byte with the terminator bit set.
// Accumulated bits that would shift past the top of the type are an
// overflow, not a silent wrap.
func UnpackUint64(r io.ByteReader) (uint64, error) {
	var ret uint64
	for i := 0; i < 10; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		if ret&(0x7F<<57) != 0 {
			return 0, ErrPackOverflow
		}
		ret = ret<<7 | uint64(b&0x7F)
		if b&0x80 != 0 {
			return ret, nil
		}
	}
	return 0, ErrPackOverflow
}

// UnpackUint32 reads a packed integer of up to 5 bytes.
func UnpackUint32(r io.ByteReader) (uint32, error) {
	var ret uint32
	for i := 0; i < 5; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		if ret&(0x7F<<25) != 0 {
			return 0, ErrPackOverflow
		}
		ret = ret<<7 | uint32(b&0x7F)
		if b&0x80 != 0 {
			return ret, nil
		}
	}
	return 0, ErrPackOverflow
}

// packZigzag64 writes a signed integer used inside payloads (slice
// elements, timestamps, exponents) where no sign tag is available.
func packZigzag64(w io.ByteWriter, v int64) error {
	return PackUint64(w, uint64(v<<1)^uint64(v>>63))
}

func unpackZigzag64(r io.ByteReader) (int64, error) {
	u, err := UnpackUint64(r)
	if err != nil {
		return 0, err
	}
	return int64(u>>1) ^ -int64(u&1), nil
}
