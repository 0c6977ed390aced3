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

// Decoder turns the tagged byte stream back into Go values. It is
// created per Deserialize call and owns that call's identity stack.
type Decoder struct {
	s         *Serializer
	r         *binary.Reader
	stack     decodeStack
	missing   map[string]struct{}
	onMissing MissingTypeCallback
}

// Deserialize reads one value from r. It returns io.EOF untouched when
// the source is exhausted before the first byte, so callers can loop
// over a stream of concatenated values. A source that does not
// implement io.ByteReader must be wrapped in one bufio.Reader for the
// whole stream: each call buffers such sources independently, and
// read-ahead held by a per-call buffer is lost when the call returns.
func (s *Serializer) Deserialize(r io.Reader) (any, error) {
	return s.newDecoder(r).Decode()
}

func (s *Serializer) newDecoder(r io.Reader) *Decoder {
	return &Decoder{s: s, r: binary.NewReader(r), onMissing: s.cfg.onMissing}
}

// Decode reads one tagged value. Custom codecs call this to delegate
// nested values back to the engine.
func (d *Decoder) Decode() (any, error) {
	tag, err := d.readTag()
	if err != nil {
		return nil, err
	}

	if v, kind, ok := smallLiteral(tag); ok {
		switch kind {
		case "int":
			return v, nil
		case "int32":
			return int32(v), nil
		default:
			return int64(v), nil
		}
	}

	switch tag {
	case TagNull:
		return nil, nil
	case TagTrue:
		return true, nil
	case TagFalse:
		return false, nil

	case TagInt:
		u, err := d.unpack64("int")
		if err != nil {
			return nil, err
		}
		if u > uint64(math.MaxInt) {
			return nil, errors.InvalidData(d.r.Position(), "int value exceeds platform int range")
		}
		return int(u), nil
	case TagIntNeg:
		u, err := d.unpack64("int")
		if err != nil {
			return nil, err
		}
		n := ^int64(u)
		if n < math.MinInt {
			return nil, errors.InvalidData(d.r.Position(), "int value exceeds platform int range")
		}
		return int(n), nil
	case TagInt32:
		u, err := d.unpack32("int32")
		if err != nil {
			return nil, err
		}
		if u > math.MaxInt32 {
			return nil, errors.InvalidData(d.r.Position(), "int32 magnitude out of range")
		}
		return int32(u), nil
	case TagInt32Neg:
		u, err := d.unpack32("int32")
		if err != nil {
			return nil, err
		}
		return int32(^u), nil
	case TagInt64:
		u, err := d.unpack64("int64")
		if err != nil {
			return nil, err
		}
		if u > math.MaxInt64 {
			return nil, errors.InvalidData(d.r.Position(), "int64 magnitude out of range")
		}
		return int64(u), nil
	case TagInt64Neg:
		u, err := d.unpack64("int64")
		if err != nil {
			return nil, err
		}
		return ^int64(u), nil
	case TagInt8:
		b, err := d.readFull(1, "int8")
		if err != nil {
			return nil, err
		}
		return int8(b[0]), nil
	case TagInt16:
		b, err := d.readFull(2, "int16")
		if err != nil {
			return nil, err
		}
		return int16(uint16(b[0])<<8 | uint16(b[1])), nil

	case TagUint:
		u, err := d.unpack64("uint")
		if err != nil {
			return nil, err
		}
		if u > uint64(^uint(0)) {
			return nil, errors.InvalidData(d.r.Position(), "uint value exceeds platform uint range")
		}
		return uint(u), nil
	case TagUint8:
		b, err := d.readFull(1, "uint8")
		if err != nil {
			return nil, err
		}
		return b[0], nil
	case TagChar:
		u, err := d.unpack32("char")
		if err != nil {
			return nil, err
		}
		if u > math.MaxUint16 {
			return nil, errors.InvalidData(d.r.Position(), "char code unit out of range")
		}
		return uint16(u), nil
	case TagUint32:
		u, err := d.unpack32("uint32")
		if err != nil {
			return nil, err
		}
		return u, nil
	case TagUint64:
		u, err := d.unpack64("uint64")
		if err != nil {
			return nil, err
		}
		return u, nil

	case TagIntMin:
		return math.MinInt, nil
	case TagIntMax:
		return math.MaxInt, nil
	case TagInt32Min:
		return int32(math.MinInt32), nil
	case TagInt32Max:
		return int32(math.MaxInt32), nil
	case TagInt64Min:
		return int64(math.MinInt64), nil
	case TagInt64Max:
		return int64(math.MaxInt64), nil

	case TagFloat32:
		b, err := d.readFull(4, "float32")
		if err != nil {
			return nil, err
		}
		return math.Float32frombits(uint32(be(b))), nil
	case TagFloat64:
		b, err := d.readFull(8, "float64")
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(be(b)), nil

	case TagStringEmpty:
		return "", nil
	case TagString:
		s, err := d.readString("string")
		if err != nil {
			return nil, err
		}
		return s, nil

	case TagBytes:
		n, err := d.readCount("byte slice length")
		if err != nil {
			return nil, err
		}
		b, err := d.readFull(n, "byte slice")
		if err != nil {
			return nil, err
		}
		d.stack.push(b)
		return b, nil

	case TagBoolSlice:
		return d.decodeBoolSlice()

	case TagInt16Slice:
		n, err := d.readCount("int16 slice length")
		if err != nil {
			return nil, err
		}
		out := make([]int16, n)
		for i := range out {
			v, err := d.unpackZigzag("int16 element")
			if err != nil {
				return nil, err
			}
			out[i] = int16(v)
		}
		d.stack.push(out)
		return out, nil
	case TagUint16Slice:
		n, err := d.readCount("uint16 slice length")
		if err != nil {
			return nil, err
		}
		out := make([]uint16, n)
		for i := range out {
			u, err := d.unpack32("uint16 element")
			if err != nil {
				return nil, err
			}
			out[i] = uint16(u)
		}
		d.stack.push(out)
		return out, nil
	case TagInt32Slice:
		n, err := d.readCount("int32 slice length")
		if err != nil {
			return nil, err
		}
		out := make([]int32, n)
		for i := range out {
			v, err := d.unpackZigzag("int32 element")
			if err != nil {
				return nil, err
			}
			out[i] = int32(v)
		}
		d.stack.push(out)
		return out, nil
	case TagInt64Slice:
		n, err := d.readCount("int64 slice length")
		if err != nil {
			return nil, err
		}
		out := make([]int64, n)
		for i := range out {
			v, err := d.unpackZigzag("int64 element")
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		d.stack.push(out)
		return out, nil
	case TagFloat32Slice:
		n, err := d.readCount("float32 slice length")
		if err != nil {
			return nil, err
		}
		out := make([]float32, n)
		for i := range out {
			b, err := d.readFull(4, "float32 element")
			if err != nil {
				return nil, err
			}
			out[i] = math.Float32frombits(uint32(be(b)))
		}
		d.stack.push(out)
		return out, nil
	case TagFloat64Slice:
		n, err := d.readCount("float64 slice length")
		if err != nil {
			return nil, err
		}
		out := make([]float64, n)
		for i := range out {
			b, err := d.readFull(8, "float64 element")
			if err != nil {
				return nil, err
			}
			out[i] = math.Float64frombits(be(b))
		}
		d.stack.push(out)
		return out, nil
	case TagStringSlice:
		n, err := d.readCount("string slice length")
		if err != nil {
			return nil, err
		}
		out := make([]string, n)
		for i := range out {
			s, err := d.readString("string element")
			if err != nil {
				return nil, err
			}
			out[i] = s
		}
		d.stack.push(out)
		return out, nil

	case TagAnySlice:
		n, err := d.readCount("slice length")
		if err != nil {
			return nil, err
		}
		out := make([]any, n)
		d.stack.push(out)
		for i := range out {
			el, err := d.Decode()
			if err != nil {
				return nil, err
			}
			out[i] = el
		}
		return out, nil

	case TagSlice:
		return d.decodeTypedSlice()

	case TagMap:
		n, err := d.readCount("map size")
		if err != nil {
			return nil, err
		}
		m := make(map[any]any, n)
		d.stack.push(m)
		for i := 0; i < n; i++ {
			k, err := d.Decode()
			if err != nil {
				return nil, err
			}
			if k != nil && !reflect.TypeOf(k).Comparable() {
				return nil, errors.InvalidData(d.r.Position(), "map key is not comparable")
			}
			v, err := d.Decode()
			if err != nil {
				return nil, err
			}
			m[k] = v
		}
		return m, nil

	case TagStringMap:
		n, err := d.readCount("map size")
		if err != nil {
			return nil, err
		}
		m := make(map[string]any, n)
		d.stack.push(m)
		for i := 0; i < n; i++ {
			k, err := d.readString("map key")
			if err != nil {
				return nil, err
			}
			v, err := d.Decode()
			if err != nil {
				return nil, err
			}
			m[k] = v
		}
		return m, nil

	case TagList:
		n, err := d.readCount("list length")
		if err != nil {
			return nil, err
		}
		l := list.New()
		d.stack.push(l)
		for i := 0; i < n; i++ {
			el, err := d.Decode()
			if err != nil {
				return nil, err
			}
			l.PushBack(el)
		}
		return l, nil

	case TagTime:
		sec, err := d.unpackZigzag("unix seconds")
		if err != nil {
			return nil, err
		}
		nanos, err := d.unpack64("nanoseconds")
		if err != nil {
			return nil, err
		}
		if nanos >= uint64(time.Second) {
			return nil, errors.InvalidData(d.r.Position(), "nanosecond component out of range")
		}
		return time.Unix(sec, int64(nanos)).UTC(), nil

	case TagBigInt:
		x, err := d.readBigInt()
		if err != nil {
			return nil, err
		}
		d.stack.push(x)
		return x, nil

	case TagDecimal:
		exp, err := d.unpackZigzag("decimal exponent")
		if err != nil {
			return nil, err
		}
		if exp < math.MinInt32 || exp > math.MaxInt32 {
			return nil, errors.InvalidData(d.r.Position(), "decimal exponent out of range")
		}
		coef, err := d.readBigInt()
		if err != nil {
			return nil, err
		}
		return decimal.NewFromBigInt(coef, int32(exp)), nil

	case TagUUID:
		b, err := d.readFull(16, "uuid")
		if err != nil {
			return nil, err
		}
		var id uuid.UUID
		copy(id[:], b)
		return id, nil

	case TagType:
		return d.decodeType()

	case TagBackref:
		pos := d.r.Position()
		idx, err := d.unpack64("back-reference")
		if err != nil {
			return nil, err
		}
		v, ok := d.stack.get(idx)
		if !ok {
			return nil, errors.BadBackref(pos, idx, d.stack.len())
		}
		return v, nil

	case TagSingleton:
		pos := d.r.Position()
		idx, err := d.unpack64("singleton index")
		if err != nil {
			return nil, err
		}
		if idx >= uint64(len(d.s.cfg.singletons)) {
			return nil, errors.InvalidData(pos, "singleton index beyond the registered table")
		}
		return d.s.cfg.singletons[idx], nil

	case TagStructDef:
		return d.decodeStructDef()
	case TagStruct:
		return d.decodeStructRef()
	case TagResolver:
		return d.decodeResolver()
	case TagCustom:
		return d.decodeCustom()
	}

	return nil, errors.InvalidTag(d.r.Position()-1, tag)
}

// readTag reads the next header tag. io.EOF before the first byte of
// the stream passes through untouched.
func (d *Decoder) readTag() (byte, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		if err == io.EOF && d.r.Position() == 0 {
			return 0, io.EOF
		}
		return 0, errors.Truncated(d.r.Position(), "header tag", err)
	}
	return b, nil
}

func (d *Decoder) decodeBoolSlice() (any, error) {
	n, err := d.readCount("bool slice length")
	if err != nil {
		return nil, err
	}
	packed, err := d.readFull((n+7)/8, "bool slice bits")
	if err != nil {
		return nil, err
	}
	out := make([]bool, n)
	for i := range out {
		out[i] = packed[i/8]&(1<<(uint(i)%8)) != 0
	}
	d.stack.push(out)
	return out, nil
}

func (d *Decoder) decodeTypedSlice() (any, error) {
	elem, err := d.readComponentType(0)
	if err != nil {
		return nil, err
	}
	n, err := d.readCount("slice length")
	if err != nil {
		return nil, err
	}
	sl := reflect.MakeSlice(reflect.SliceOf(elem), n, n)
	d.stack.push(sl.Interface())
	for i := 0; i < n; i++ {
		el, err := d.Decode()
		if err != nil {
			return nil, err
		}
		if el == nil {
			continue
		}
		ev := reflect.ValueOf(el)
		if !ev.Type().AssignableTo(elem) {
			return nil, errors.TypeMismatch(elem.String(),
				"slice element decoded as "+ev.Type().String())
		}
		sl.Index(i).Set(ev)
	}
	return sl.Interface(), nil
}

func (d *Decoder) readComponentType(depth int) (reflect.Type, error) {
	if depth > maxComponentDepth {
		return nil, errors.InvalidData(d.r.Position(), "slice component nesting too deep")
	}
	b, err := d.r.ReadByte()
	if err != nil {
		return nil, errors.Truncated(d.r.Position(), "slice component descriptor", err)
	}
	if b == TagSlice {
		inner, err := d.readComponentType(depth + 1)
		if err != nil {
			return nil, err
		}
		return reflect.SliceOf(inner), nil
	}
	if t, ok := componentTypes[b]; ok {
		return t, nil
	}
	return nil, errors.InvalidData(d.r.Position()-1, "invalid slice component tag "+TagName(b))
}

func (d *Decoder) decodeType() (any, error) {
	name, err := d.readString("type name")
	if err != nil {
		return nil, err
	}
	if t, ok := d.s.cfg.names[name]; ok {
		return t, nil
	}
	if t, ok := builtinTypesByName[name]; ok {
		return t, nil
	}
	d.reportMissing(name)
	return nil, errors.UnknownType(errors.PhaseDecode, name)
}

func (d *Decoder) readBigInt() (*big.Int, error) {
	sb, err := d.readFull(1, "big-int sign")
	if err != nil {
		return nil, err
	}
	switch sb[0] {
	case 0:
		return new(big.Int), nil
	case 1, 2:
	default:
		return nil, errors.InvalidData(d.r.Position()-1, "invalid big-int sign byte")
	}
	n, err := d.readCount("big-int magnitude length")
	if err != nil {
		return nil, err
	}
	mag, err := d.readFull(n, "big-int magnitude")
	if err != nil {
		return nil, err
	}
	x := new(big.Int).SetBytes(mag)
	if sb[0] == 2 {
		x.Neg(x)
	}
	return x, nil
}

// maxCount caps decoded collection lengths so a corrupt length prefix
// cannot trigger a huge allocation before the stream runs dry.
const maxCount = 1 << 30

func (d *Decoder) readCount(what string) (int, error) {
	u, err := d.unpack64(what)
	if err != nil {
		return 0, err
	}
	if u > maxCount {
		return 0, errors.InvalidData(d.r.Position(), what+" is implausibly large")
	}
	return int(u), nil
}

func (d *Decoder) readString(what string) (string, error) {
	n, err := d.readCount(what + " length")
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	b, err := d.readFull(n, what)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (d *Decoder) readFull(n int, what string) ([]byte, error) {
	b, err := d.r.ReadFull(n)
	if err != nil {
		return nil, errors.Truncated(d.r.Position(), what, err)
	}
	return b, nil
}

func (d *Decoder) unpack64(what string) (uint64, error) {
	u, err := UnpackUint64(d.r)
	if err != nil {
		return 0, d.packErr(what, err)
	}
	return u, nil
}

func (d *Decoder) unpack32(what string) (uint32, error) {
	u, err := UnpackUint32(d.r)
	if err != nil {
		return 0, d.packErr(what, err)
	}
	return u, nil
}

func (d *Decoder) unpackZigzag(what string) (int64, error) {
	v, err := unpackZigzag64(d.r)
	if err != nil {
		return 0, d.packErr(what, err)
	}
	return v, nil
}

func (d *Decoder) packErr(what string, err error) error {
	if err == ErrPackOverflow {
		return errors.Overflow(d.r.Position(), err)
	}
	return errors.Truncated(d.r.Position(), what, err)
}

func be(b []byte) uint64 {
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v
}

// reportMissing fires the missing-type callback at most once per
// distinct type name within this call.
func (d *Decoder) reportMissing(name string) {
	if _, seen := d.missing[name]; seen {
		return
	}
	if d.missing == nil {
		d.missing = make(map[string]struct{})
	}
	d.missing[name] = struct{}{}
	Logger().Debug("decoding unknown type", zap.String("type", name))
	if d.onMissing != nil {
		d.onMissing(name)
	}
}
