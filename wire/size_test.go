package wire_test

import (
	"bytes"
	"math"
	"testing"

	"github.com/wirepack/wirepack/wire"
)

func encodedSize(t *testing.T, s *wire.Serializer, v any) int {
	t.Helper()
	var buf bytes.Buffer
	if err := s.Serialize(&buf, v); err != nil {
		t.Fatalf("Serialize(%v): %v", v, err)
	}
	return buf.Len()
}

// Encoded sizes are part of the format contract: one byte for the
// small-literal range and the extremes, then one header byte plus one
// payload byte per started 7 bits of magnitude.
func TestEncodedSizeInt32(t *testing.T) {
	s := newSerializer(t)

	tests := []struct {
		value int32
		size  int
	}{
		{0, 1},
		{-9, 1},
		{16, 1},
		{math.MinInt32, 1},
		{math.MaxInt32, 1},
		{100, 2},
		{-100, 2},
		{127, 2},
		{-128, 2},
		{0xFFF, 3},
		{-0xFFF, 3},
		{0x3FFF, 3},
		{0x4000, 4},
		{0xFFFFF, 4},
		{-0xFFFFF, 4},
		{0xFFFFFFF, 5},
		{-0xFFFFFFF, 5},
	}

	for _, tt := range tests {
		if got := encodedSize(t, s, tt.value); got != tt.size {
			t.Errorf("int32(%d): %d bytes, want %d", tt.value, got, tt.size)
		}
	}
}

func TestEncodedSizeInt64(t *testing.T) {
	s := newSerializer(t)

	tests := []struct {
		value int64
		size  int
	}{
		{0, 1},
		{-9, 1},
		{16, 1},
		{math.MinInt64, 1},
		{math.MaxInt64, 1},
		{100, 2},
		{-100, 2},
		{0xFFF, 3},
		{-0xFFF, 3},
		{0xFFFFF, 4},
		{-0xFFFFF, 4},
		{0xFFFFFFF, 5},
		{-0xFFFFFFF, 5},
		{0x7FFFFFFFF, 6},
		{-0x7FFFFFFFF, 6},
	}

	for _, tt := range tests {
		if got := encodedSize(t, s, tt.value); got != tt.size {
			t.Errorf("int64(%d): %d bytes, want %d", tt.value, got, tt.size)
		}
	}
}

func TestEncodedSizeSmallLiteralsAreOneByte(t *testing.T) {
	s := newSerializer(t)

	for v := wire.SmallIntMin; v <= wire.SmallIntMax; v++ {
		if got := encodedSize(t, s, v); got != 1 {
			t.Errorf("int(%d): %d bytes, want 1", v, got)
		}
		if got := encodedSize(t, s, int32(v)); got != 1 {
			t.Errorf("int32(%d): %d bytes, want 1", v, got)
		}
		if got := encodedSize(t, s, int64(v)); got != 1 {
			t.Errorf("int64(%d): %d bytes, want 1", v, got)
		}
	}
}

func TestEncodedSizeStrings(t *testing.T) {
	s := newSerializer(t)

	if got := encodedSize(t, s, ""); got != 1 {
		t.Errorf("empty string: %d bytes, want 1", got)
	}
	// tag + 1-byte length + payload
	if got := encodedSize(t, s, "abc"); got != 5 {
		t.Errorf("3-byte string: %d bytes, want 5", got)
	}
}
