package wire

import (
	"container/list"
	"math/big"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var typeAny = reflect.TypeOf((*any)(nil)).Elem()

// componentTags maps Go types that can appear as a typed-slice
// component (or a field category) to their canonical tag. The inverse
// table drives decoding of TagSlice component descriptors.
var componentTags = map[reflect.Type]byte{
	reflect.TypeOf(false):               TagTrue,
	reflect.TypeOf(int(0)):              TagInt,
	reflect.TypeOf(int8(0)):             TagInt8,
	reflect.TypeOf(int16(0)):            TagInt16,
	reflect.TypeOf(int32(0)):            TagInt32,
	reflect.TypeOf(int64(0)):            TagInt64,
	reflect.TypeOf(uint(0)):             TagUint,
	reflect.TypeOf(uint8(0)):            TagUint8,
	reflect.TypeOf(uint16(0)):           TagChar,
	reflect.TypeOf(uint32(0)):           TagUint32,
	reflect.TypeOf(uint64(0)):           TagUint64,
	reflect.TypeOf(float32(0)):          TagFloat32,
	reflect.TypeOf(float64(0)):          TagFloat64,
	reflect.TypeOf(""):                  TagString,
	typeAny:                             TagNull,
	reflect.TypeOf(time.Time{}):         TagTime,
	reflect.TypeOf(uuid.UUID{}):         TagUUID,
	reflect.TypeOf(decimal.Decimal{}):   TagDecimal,
	reflect.TypeOf((*big.Int)(nil)):     TagBigInt,
	reflect.TypeOf([]byte(nil)):         TagBytes,
	reflect.TypeOf([]bool(nil)):         TagBoolSlice,
	reflect.TypeOf([]int16(nil)):        TagInt16Slice,
	reflect.TypeOf([]uint16(nil)):       TagUint16Slice,
	reflect.TypeOf([]int32(nil)):        TagInt32Slice,
	reflect.TypeOf([]int64(nil)):        TagInt64Slice,
	reflect.TypeOf([]float32(nil)):      TagFloat32Slice,
	reflect.TypeOf([]float64(nil)):      TagFloat64Slice,
	reflect.TypeOf([]string(nil)):       TagStringSlice,
	reflect.TypeOf([]any(nil)):          TagAnySlice,
	reflect.TypeOf(map[any]any(nil)):    TagMap,
	reflect.TypeOf(map[string]any(nil)): TagStringMap,
}

var componentTypes = make(map[byte]reflect.Type, len(componentTags))

func init() {
	for t, tag := range componentTags {
		componentTypes[tag] = t
	}
}

// builtinTypeNames gives stable wire names to the types a class
// literal (TagType) can name without registration.
var builtinTypeNames = map[reflect.Type]string{
	reflect.TypeOf(false):               "bool",
	reflect.TypeOf(int(0)):              "int",
	reflect.TypeOf(int8(0)):             "int8",
	reflect.TypeOf(int16(0)):            "int16",
	reflect.TypeOf(int32(0)):            "int32",
	reflect.TypeOf(int64(0)):            "int64",
	reflect.TypeOf(uint(0)):             "uint",
	reflect.TypeOf(uint8(0)):            "uint8",
	reflect.TypeOf(uint16(0)):           "uint16",
	reflect.TypeOf(uint32(0)):           "uint32",
	reflect.TypeOf(uint64(0)):           "uint64",
	reflect.TypeOf(float32(0)):          "float32",
	reflect.TypeOf(float64(0)):          "float64",
	reflect.TypeOf(""):                  "string",
	reflect.TypeOf([]byte(nil)):         "[]byte",
	reflect.TypeOf([]bool(nil)):         "[]bool",
	reflect.TypeOf([]int16(nil)):        "[]int16",
	reflect.TypeOf([]uint16(nil)):       "[]uint16",
	reflect.TypeOf([]int32(nil)):        "[]int32",
	reflect.TypeOf([]int64(nil)):        "[]int64",
	reflect.TypeOf([]float32(nil)):      "[]float32",
	reflect.TypeOf([]float64(nil)):      "[]float64",
	reflect.TypeOf([]string(nil)):       "[]string",
	reflect.TypeOf([]any(nil)):          "[]any",
	reflect.TypeOf(map[any]any(nil)):    "map[any]any",
	reflect.TypeOf(map[string]any(nil)): "map[string]any",
	reflect.TypeOf((*list.List)(nil)):   "list.List",
	reflect.TypeOf(time.Time{}):         "time.Time",
	reflect.TypeOf(uuid.UUID{}):         "uuid.UUID",
	reflect.TypeOf(decimal.Decimal{}):   "decimal.Decimal",
	reflect.TypeOf((*big.Int)(nil)):     "big.Int",
}

var builtinTypesByName = make(map[string]reflect.Type, len(builtinTypeNames))

func init() {
	for t, name := range builtinTypeNames {
		builtinTypesByName[name] = t
	}
}

// categoryOf maps a declared field type to the tag recorded in its
// field descriptor. Categories are advisory: decoded values are
// self-describing, and the decoder ignores a category it disagrees
// with.
func categoryOf(t reflect.Type) byte {
	if tag, ok := componentTags[t]; ok {
		return tag
	}
	switch t.Kind() {
	case reflect.Pointer:
		return categoryOf(t.Elem())
	case reflect.Bool:
		return TagTrue
	case reflect.Int:
		return TagInt
	case reflect.Int8:
		return TagInt8
	case reflect.Int16:
		return TagInt16
	case reflect.Int32:
		return TagInt32
	case reflect.Int64:
		return TagInt64
	case reflect.Uint, reflect.Uintptr:
		return TagUint
	case reflect.Uint8:
		return TagUint8
	case reflect.Uint16:
		return TagChar
	case reflect.Uint32:
		return TagUint32
	case reflect.Uint64:
		return TagUint64
	case reflect.Float32:
		return TagFloat32
	case reflect.Float64:
		return TagFloat64
	case reflect.String:
		return TagString
	case reflect.Slice:
		return TagSlice
	case reflect.Map:
		return TagMap
	case reflect.Struct:
		return TagStruct
	}
	return TagNull
}

// normalize converts a value of a named primitive type (type Celsius
// float64, type Flags uint32, ...) to its underlying base so it can
// re-enter the concrete-type dispatch.
func normalize(rv reflect.Value) (any, bool) {
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool(), true
	case reflect.Int:
		return int(rv.Int()), true
	case reflect.Int8:
		return int8(rv.Int()), true
	case reflect.Int16:
		return int16(rv.Int()), true
	case reflect.Int32:
		return int32(rv.Int()), true
	case reflect.Int64:
		return rv.Int(), true
	case reflect.Uint:
		return uint(rv.Uint()), true
	case reflect.Uint8:
		return uint8(rv.Uint()), true
	case reflect.Uint16:
		return uint16(rv.Uint()), true
	case reflect.Uint32:
		return uint32(rv.Uint()), true
	case reflect.Uint64:
		return rv.Uint(), true
	case reflect.Float32:
		return float32(rv.Float()), true
	case reflect.Float64:
		return rv.Float(), true
	case reflect.String:
		return rv.String(), true
	}
	return nil, false
}
