package wire_test

import (
	"bytes"
	"errors"
	"io"
	"math"
	"testing"

	"github.com/wirepack/wirepack/wire"
)

func TestPackUint64Layout(t *testing.T) {
	tests := []struct {
		value   uint64
		encoded []byte
	}{
		{0, []byte{0x80}},
		{1, []byte{0x81}},
		{16, []byte{0x90}},
		{0x7F, []byte{0xFF}},
		{0x80, []byte{0x01, 0x80}},
		{100, []byte{0xE4}},
		{300, []byte{0x02, 0xAC}},
		{0xFFF, []byte{0x1F, 0xFF}},
		{0x3FFF, []byte{0x7F, 0xFF}},
		{0x4000, []byte{0x01, 0x00, 0x80}},
		{0xFFFFF, []byte{0x3F, 0x7F, 0xFF}},
		{0xFFFFFFF, []byte{0x7F, 0x7F, 0x7F, 0xFF}},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		if err := wire.PackUint64(&buf, tt.value); err != nil {
			t.Fatalf("PackUint64(%#x): %v", tt.value, err)
		}
		if !bytes.Equal(buf.Bytes(), tt.encoded) {
			t.Errorf("PackUint64(%#x): got % x, want % x", tt.value, buf.Bytes(), tt.encoded)
		}

		got, err := wire.UnpackUint64(bytes.NewReader(tt.encoded))
		if err != nil {
			t.Fatalf("UnpackUint64(% x): %v", tt.encoded, err)
		}
		if got != tt.value {
			t.Errorf("UnpackUint64(% x): got %#x, want %#x", tt.encoded, got, tt.value)
		}
	}
}

func TestPackSizeGrowsPerSevenBits(t *testing.T) {
	// One byte per 7 bits of magnitude.
	tests := []struct {
		value uint64
		size  int
	}{
		{0, 1},
		{0x7F, 1},
		{0x80, 2},
		{0x3FFF, 2},
		{0x4000, 3},
		{0x1FFFFF, 3},
		{0x200000, 4},
		{math.MaxUint32, 5},
		{math.MaxUint64, 10},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		if err := wire.PackUint64(&buf, tt.value); err != nil {
			t.Fatalf("PackUint64(%#x): %v", tt.value, err)
		}
		if buf.Len() != tt.size {
			t.Errorf("PackUint64(%#x): %d bytes, want %d", tt.value, buf.Len(), tt.size)
		}
	}
}

func TestPackUint32RoundTrip(t *testing.T) {
	values := []uint32{0, 1, 0x7F, 0x80, 0xFFF, 0xFFFF, math.MaxUint32}
	for _, v := range values {
		var buf bytes.Buffer
		if err := wire.PackUint32(&buf, v); err != nil {
			t.Fatalf("PackUint32(%#x): %v", v, err)
		}
		got, err := wire.UnpackUint32(bytes.NewReader(buf.Bytes()))
		if err != nil {
			t.Fatalf("UnpackUint32(%#x): %v", v, err)
		}
		if got != v {
			t.Errorf("round trip %#x: got %#x", v, got)
		}
	}
}

func TestUnpackTruncated(t *testing.T) {
	// All continuation bytes, terminator never arrives.
	_, err := wire.UnpackUint64(bytes.NewReader([]byte{0x01, 0x02}))
	if !errors.Is(err, io.EOF) {
		t.Errorf("truncated unpack: got %v, want EOF", err)
	}

	_, err = wire.UnpackUint64(bytes.NewReader(nil))
	if !errors.Is(err, io.EOF) {
		t.Errorf("empty unpack: got %v, want EOF", err)
	}
}

func TestUnpackOverflow(t *testing.T) {
	// 11 continuation bytes can never be a valid 64-bit value.
	data := bytes.Repeat([]byte{0x01}, 11)
	_, err := wire.UnpackUint64(bytes.NewReader(data))
	if !errors.Is(err, wire.ErrPackOverflow) {
		t.Errorf("got %v, want ErrPackOverflow", err)
	}

	_, err = wire.UnpackUint32(bytes.NewReader([]byte{0x01, 0x01, 0x01, 0x01, 0x01, 0x81}))
	if !errors.Is(err, wire.ErrPackOverflow) {
		t.Errorf("got %v, want ErrPackOverflow", err)
	}
}

func TestUnpackRejectsWideMagnitudes(t *testing.T) {
	// Maximum-length sequences whose accumulated bits exceed the type:
	// they must error, not wrap around to a small value.
	tests := []struct {
		name string
		data []byte
	}{
		// 2^32 in five 7-bit groups.
		{"uint32 one past max", []byte{0x10, 0x00, 0x00, 0x00, 0x80}},
		{"uint32 wide lead byte", []byte{0x7F, 0x7F, 0x7F, 0x7F, 0xFF}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := wire.UnpackUint32(bytes.NewReader(tt.data))
			if !errors.Is(err, wire.ErrPackOverflow) {
				t.Errorf("got %v, want ErrPackOverflow", err)
			}
		})
	}

	// 2^64 in ten 7-bit groups.
	data := append([]byte{0x02}, bytes.Repeat([]byte{0x00}, 8)...)
	data = append(data, 0x80)
	if _, err := wire.UnpackUint64(bytes.NewReader(data)); !errors.Is(err, wire.ErrPackOverflow) {
		t.Errorf("got %v, want ErrPackOverflow", err)
	}

	// The true extremes still decode.
	var buf bytes.Buffer
	if err := wire.PackUint64(&buf, math.MaxUint64); err != nil {
		t.Fatalf("PackUint64: %v", err)
	}
	if got, err := wire.UnpackUint64(bytes.NewReader(buf.Bytes())); err != nil || got != math.MaxUint64 {
		t.Errorf("max uint64: got %#x, %v", got, err)
	}
	buf.Reset()
	if err := wire.PackUint32(&buf, math.MaxUint32); err != nil {
		t.Fatalf("PackUint32: %v", err)
	}
	if got, err := wire.UnpackUint32(bytes.NewReader(buf.Bytes())); err != nil || got != math.MaxUint32 {
		t.Errorf("max uint32: got %#x, %v", got, err)
	}
}
