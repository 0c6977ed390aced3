package wire

import (
	"container/list"
	"io"
	"math"
	"math/big"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/wirepack/wirepack/errors"
	"github.com/wirepack/wirepack/wire/internal/binary"
)

// Encoder turns a Go value graph into the tagged byte stream. It is
// created per Serialize call and owns that call's identity stack.
type Encoder struct {
	s         *Serializer
	w         *binary.Writer
	stack     encodeStack
	missing   map[string]struct{}
	onMissing MissingTypeCallback
}

// Serialize writes v as one self-contained value to w. Shared and
// cyclic references inside v are preserved; references are not shared
// across separate Serialize calls.
func (s *Serializer) Serialize(w io.Writer, v any) error {
	return s.newEncoder(w).Encode(v)
}

func (s *Serializer) newEncoder(w io.Writer) *Encoder {
	return &Encoder{s: s, w: binary.NewWriter(w), onMissing: s.cfg.onMissing}
}

// isReference reports whether v occupies an identity-stack slot.
// Membership is decided by type alone so the encoder and decoder
// assign the same indices without negotiation.
func isReference(v any, rv reflect.Value) bool {
	switch v.(type) {
	case time.Time, uuid.UUID, decimal.Decimal, reflect.Type:
		return false
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.Pointer, reflect.Struct:
		return true
	}
	return false
}

// Encode writes one tagged value. Custom codecs call this to delegate
// nested values back to the engine.
func (e *Encoder) Encode(v any) error {
	switch x := v.(type) {
	case nil:
		return e.w.WriteByte(TagNull)
	case *time.Time:
		if x == nil {
			return e.w.WriteByte(TagNull)
		}
		v = *x
	case *uuid.UUID:
		if x == nil {
			return e.w.WriteByte(TagNull)
		}
		v = *x
	case *decimal.Decimal:
		if x == nil {
			return e.w.WriteByte(TagNull)
		}
		v = *x
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map:
		if rv.IsNil() {
			return e.w.WriteByte(TagNull)
		}
	}

	if len(e.s.cfg.singletonIndex) > 0 && rv.Type().Comparable() {
		if idx, ok := e.s.cfg.singletonIndex[v]; ok {
			if err := e.w.WriteByte(TagSingleton); err != nil {
				return err
			}
			return PackUint64(e.w, idx)
		}
	}

	if isReference(v, rv) {
		if idx, hit := e.stack.lookup(rv); hit {
			if err := e.w.WriteByte(TagBackref); err != nil {
				return err
			}
			return PackUint64(e.w, idx)
		}
		e.stack.push(rv)
	}

	return e.encodeValue(v, rv)
}

func (e *Encoder) encodeValue(v any, rv reflect.Value) error {
	switch x := v.(type) {
	case bool:
		if x {
			return e.w.WriteByte(TagTrue)
		}
		return e.w.WriteByte(TagFalse)

	case int:
		return e.encodeInt(int64(x), tagSmallIntBase, TagInt, TagIntNeg, TagIntMin, TagIntMax, math.MinInt, math.MaxInt)
	case int32:
		return e.encodeInt(int64(x), tagSmallInt32Base, TagInt32, TagInt32Neg, TagInt32Min, TagInt32Max, math.MinInt32, math.MaxInt32)
	case int64:
		return e.encodeInt(x, tagSmallInt64Base, TagInt64, TagInt64Neg, TagInt64Min, TagInt64Max, math.MinInt64, math.MaxInt64)
	case int8:
		if err := e.w.WriteByte(TagInt8); err != nil {
			return err
		}
		return e.w.WriteByte(byte(x))
	case int16:
		if err := e.w.WriteByte(TagInt16); err != nil {
			return err
		}
		if err := e.w.WriteByte(byte(uint16(x) >> 8)); err != nil {
			return err
		}
		return e.w.WriteByte(byte(uint16(x)))

	case uint:
		if err := e.w.WriteByte(TagUint); err != nil {
			return err
		}
		return PackUint64(e.w, uint64(x))
	case uint8:
		if err := e.w.WriteByte(TagUint8); err != nil {
			return err
		}
		return e.w.WriteByte(x)
	case uint16:
		if err := e.w.WriteByte(TagChar); err != nil {
			return err
		}
		return PackUint32(e.w, uint32(x))
	case uint32:
		if err := e.w.WriteByte(TagUint32); err != nil {
			return err
		}
		return PackUint32(e.w, x)
	case uint64:
		if err := e.w.WriteByte(TagUint64); err != nil {
			return err
		}
		return PackUint64(e.w, x)

	case float32:
		if err := e.w.WriteByte(TagFloat32); err != nil {
			return err
		}
		return e.writeBE(uint64(math.Float32bits(x)), 4)
	case float64:
		if err := e.w.WriteByte(TagFloat64); err != nil {
			return err
		}
		return e.writeBE(math.Float64bits(x), 8)

	case string:
		if x == "" {
			return e.w.WriteByte(TagStringEmpty)
		}
		if err := e.w.WriteByte(TagString); err != nil {
			return err
		}
		return e.writeString(x)

	case []byte:
		if err := e.w.WriteByte(TagBytes); err != nil {
			return err
		}
		if err := PackUint64(e.w, uint64(len(x))); err != nil {
			return err
		}
		_, err := e.w.Write(x)
		return err

	case []bool:
		return e.encodeBoolSlice(x)

	case []int16:
		if err := e.writeSliceHeader(TagInt16Slice, len(x)); err != nil {
			return err
		}
		for _, n := range x {
			if err := packZigzag64(e.w, int64(n)); err != nil {
				return err
			}
		}
		return nil
	case []uint16:
		if err := e.writeSliceHeader(TagUint16Slice, len(x)); err != nil {
			return err
		}
		for _, n := range x {
			if err := PackUint32(e.w, uint32(n)); err != nil {
				return err
			}
		}
		return nil
	case []int32:
		if err := e.writeSliceHeader(TagInt32Slice, len(x)); err != nil {
			return err
		}
		for _, n := range x {
			if err := packZigzag64(e.w, int64(n)); err != nil {
				return err
			}
		}
		return nil
	case []int64:
		if err := e.writeSliceHeader(TagInt64Slice, len(x)); err != nil {
			return err
		}
		for _, n := range x {
			if err := packZigzag64(e.w, n); err != nil {
				return err
			}
		}
		return nil
	case []float32:
		if err := e.writeSliceHeader(TagFloat32Slice, len(x)); err != nil {
			return err
		}
		for _, f := range x {
			if err := e.writeBE(uint64(math.Float32bits(f)), 4); err != nil {
				return err
			}
		}
		return nil
	case []float64:
		if err := e.writeSliceHeader(TagFloat64Slice, len(x)); err != nil {
			return err
		}
		for _, f := range x {
			if err := e.writeBE(math.Float64bits(f), 8); err != nil {
				return err
			}
		}
		return nil
	case []string:
		if err := e.writeSliceHeader(TagStringSlice, len(x)); err != nil {
			return err
		}
		for _, s := range x {
			if err := e.writeString(s); err != nil {
				return err
			}
		}
		return nil
	case []any:
		if err := e.writeSliceHeader(TagAnySlice, len(x)); err != nil {
			return err
		}
		for _, el := range x {
			if err := e.Encode(el); err != nil {
				return err
			}
		}
		return nil

	case map[any]any:
		if err := e.writeSliceHeader(TagMap, len(x)); err != nil {
			return err
		}
		for k, val := range x {
			if err := e.Encode(k); err != nil {
				return err
			}
			if err := e.Encode(val); err != nil {
				return err
			}
		}
		return nil
	case map[string]any:
		if err := e.writeSliceHeader(TagStringMap, len(x)); err != nil {
			return err
		}
		for k, val := range x {
			if err := e.writeString(k); err != nil {
				return err
			}
			if err := e.Encode(val); err != nil {
				return err
			}
		}
		return nil

	case *list.List:
		if err := e.writeSliceHeader(TagList, x.Len()); err != nil {
			return err
		}
		for el := x.Front(); el != nil; el = el.Next() {
			if err := e.Encode(el.Value); err != nil {
				return err
			}
		}
		return nil

	case time.Time:
		if err := e.w.WriteByte(TagTime); err != nil {
			return err
		}
		if err := packZigzag64(e.w, x.Unix()); err != nil {
			return err
		}
		return PackUint64(e.w, uint64(x.Nanosecond()))

	case *big.Int:
		if err := e.w.WriteByte(TagBigInt); err != nil {
			return err
		}
		return e.writeBigInt(x)

	case decimal.Decimal:
		if err := e.w.WriteByte(TagDecimal); err != nil {
			return err
		}
		if err := packZigzag64(e.w, int64(x.Exponent())); err != nil {
			return err
		}
		return e.writeBigInt(x.Coefficient())

	case uuid.UUID:
		if err := e.w.WriteByte(TagUUID); err != nil {
			return err
		}
		_, err := e.w.Write(x[:])
		return err

	case reflect.Type:
		return e.encodeType(x)
	}

	switch rv.Kind() {
	case reflect.Slice:
		return e.encodeTypedSlice(rv)
	case reflect.Struct:
		return e.encodeStruct(rv)
	case reflect.Pointer:
		if rv.Elem().Kind() == reflect.Struct {
			return e.encodeStruct(rv)
		}
	}

	if nv, ok := normalize(rv); ok {
		return e.encodeValue(nv, reflect.ValueOf(nv))
	}

	return errors.UnsupportedType(errors.PhaseEncode, rv.Type().String(), "no encoding for this Go type")
}

// encodeInt writes a signed integer using the type's tag family:
// single-byte literals for the small range and the extremes, otherwise
// a sign-selected tag with the packed magnitude (complement for
// negatives).
func (e *Encoder) encodeInt(v int64, smallBase, tag, tagNeg, tagMin, tagMax byte, min, max int64) error {
	if v >= SmallIntMin && v <= SmallIntMax {
		return e.w.WriteByte(smallBase + byte(v-SmallIntMin))
	}
	switch v {
	case min:
		return e.w.WriteByte(tagMin)
	case max:
		return e.w.WriteByte(tagMax)
	}
	if v < 0 {
		if err := e.w.WriteByte(tagNeg); err != nil {
			return err
		}
		return PackUint64(e.w, uint64(^v))
	}
	if err := e.w.WriteByte(tag); err != nil {
		return err
	}
	return PackUint64(e.w, uint64(v))
}

func (e *Encoder) encodeBoolSlice(x []bool) error {
	if err := e.writeSliceHeader(TagBoolSlice, len(x)); err != nil {
		return err
	}
	var cur byte
	for i, b := range x {
		if b {
			cur |= 1 << (uint(i) % 8)
		}
		if i%8 == 7 {
			if err := e.w.WriteByte(cur); err != nil {
				return err
			}
			cur = 0
		}
	}
	if len(x)%8 != 0 {
		return e.w.WriteByte(cur)
	}
	return nil
}

func (e *Encoder) encodeType(t reflect.Type) error {
	name, ok := e.s.cfg.typeNames[t]
	if !ok {
		name, ok = builtinTypeNames[t]
	}
	if !ok {
		return errors.UnsupportedType(errors.PhaseEncode, t.String(),
			"type literal requires a registered or built-in type")
	}
	if err := e.w.WriteByte(TagType); err != nil {
		return err
	}
	return e.writeString(name)
}

// encodeTypedSlice handles slices with no dedicated tag ([]int,
// [][]int32, []uint64, ...). The component descriptor lets the decoder
// rebuild the exact slice type.
func (e *Encoder) encodeTypedSlice(rv reflect.Value) error {
	desc, err := componentDescriptor(rv.Type().Elem(), 0)
	if err != nil {
		return err
	}
	if err := e.w.WriteByte(TagSlice); err != nil {
		return err
	}
	if _, err := e.w.Write(desc); err != nil {
		return err
	}
	if err := PackUint64(e.w, uint64(rv.Len())); err != nil {
		return err
	}
	for i := 0; i < rv.Len(); i++ {
		if err := e.Encode(rv.Index(i).Interface()); err != nil {
			return err
		}
	}
	return nil
}

const maxComponentDepth = 16

// componentDescriptor renders a slice component type as a tag string:
// a terminal component tag, or TagSlice prefixes for each level of
// nesting.
func componentDescriptor(t reflect.Type, depth int) ([]byte, error) {
	if depth > maxComponentDepth {
		return nil, errors.UnsupportedType(errors.PhaseEncode, t.String(), "slice nesting too deep")
	}
	if tag, ok := componentTags[t]; ok {
		return []byte{tag}, nil
	}
	if t.Kind() == reflect.Slice {
		inner, err := componentDescriptor(t.Elem(), depth+1)
		if err != nil {
			return nil, err
		}
		return append([]byte{TagSlice}, inner...), nil
	}
	return nil, errors.UnsupportedType(errors.PhaseEncode, t.String(),
		"type cannot be a slice component; use []any")
}

func (e *Encoder) writeSliceHeader(tag byte, n int) error {
	if err := e.w.WriteByte(tag); err != nil {
		return err
	}
	return PackUint64(e.w, uint64(n))
}

func (e *Encoder) writeString(s string) error {
	if err := PackUint64(e.w, uint64(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(e.w, s)
	return err
}

// writeBigInt writes sign byte, packed magnitude length, magnitude
// bytes big-endian. Zero is the sign byte alone.
func (e *Encoder) writeBigInt(x *big.Int) error {
	var sign byte
	switch x.Sign() {
	case 1:
		sign = 1
	case -1:
		sign = 2
	}
	if err := e.w.WriteByte(sign); err != nil {
		return err
	}
	if sign == 0 {
		return nil
	}
	mag := x.Bytes()
	if err := PackUint64(e.w, uint64(len(mag))); err != nil {
		return err
	}
	_, err := e.w.Write(mag)
	return err
}

func (e *Encoder) writeBE(v uint64, n int) error {
	for i := n - 1; i >= 0; i-- {
		if err := e.w.WriteByte(byte(v >> (uint(i) * 8))); err != nil {
			return err
		}
	}
	return nil
}

// reportMissing fires the missing-type callback at most once per
// distinct type name within this call.
func (e *Encoder) reportMissing(name string) {
	if _, seen := e.missing[name]; seen {
		return
	}
	if e.missing == nil {
		e.missing = make(map[string]struct{})
	}
	e.missing[name] = struct{}{}
	Logger().Debug("encoding unregistered type", zap.String("type", name))
	if e.onMissing != nil {
		e.onMissing(name)
	}
}
