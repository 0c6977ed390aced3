package wire

import "fmt"

// Header tags. Every encoded value starts with exactly one of these
// bytes; the tag selects the decoding routine for the bytes that
// follow. Tag values are frozen: changing one breaks every stream
// written with the old value.
const (
	TagNull  byte = 0x00 // no payload
	TagTrue  byte = 0x01 // no payload
	TagFalse byte = 0x02 // no payload

	// Scalar integers. Negative values are stored as the packed bitwise
	// complement (^v), which keeps small negatives small.
	TagInt      byte = 0x03 // packed magnitude
	TagIntNeg   byte = 0x04 // packed ^v
	TagInt32    byte = 0x05
	TagInt32Neg byte = 0x06
	TagInt64    byte = 0x07
	TagInt64Neg byte = 0x08
	TagInt8     byte = 0x09 // 1 raw byte
	TagInt16    byte = 0x0A // 2 bytes big-endian
	TagUint     byte = 0x0B // packed
	TagUint32   byte = 0x0C // packed
	TagUint64   byte = 0x0D // packed
	TagUint8    byte = 0x0E // 1 raw byte
	TagChar     byte = 0x0F // uint16 code unit, packed

	TagFloat32 byte = 0x10 // 4 bytes big-endian IEEE 754
	TagFloat64 byte = 0x11 // 8 bytes big-endian IEEE 754

	TagString      byte = 0x12 // packed byte length + UTF-8 bytes
	TagStringEmpty byte = 0x13 // no payload

	// Primitive slices: packed element count, then elements.
	TagBytes        byte = 0x14 // raw bytes
	TagBoolSlice    byte = 0x15 // 8 booleans per byte, LSB first
	TagInt16Slice   byte = 0x16 // zigzag packed elements
	TagUint16Slice  byte = 0x17 // packed elements
	TagInt32Slice   byte = 0x18 // zigzag packed elements
	TagInt64Slice   byte = 0x19 // zigzag packed elements
	TagFloat32Slice byte = 0x1A // 4 bytes per element
	TagFloat64Slice byte = 0x1B // 8 bytes per element
	TagStringSlice  byte = 0x1C // packed length + bytes per element

	// Reference slices: elements re-enter the top-level dispatch, so
	// shared and cyclic sub-elements are handled uniformly.
	TagAnySlice byte = 0x1D // packed count + tagged elements
	TagSlice    byte = 0x1E // component descriptor + packed count + tagged elements

	TagMap       byte = 0x1F // packed size + tagged key/value pairs
	TagStringMap byte = 0x20 // packed size + packed string key + tagged value
	TagList      byte = 0x21 // container/list: packed size + tagged elements

	TagTime    byte = 0x22 // zigzag unix seconds + packed nanoseconds
	TagBigInt  byte = 0x23 // sign byte + packed length + magnitude bytes
	TagDecimal byte = 0x24 // zigzag exponent + big-int coefficient
	TagUUID    byte = 0x25 // 16 raw bytes
	TagType    byte = 0x26 // packed type name

	TagBackref   byte = 0x27 // packed identity-stack index
	TagSingleton byte = 0x28 // packed singleton-table index

	// Structured objects.
	TagStructDef byte = 0x29 // inline descriptor + field values; assigns the next type id
	TagStruct    byte = 0x2A // packed type id + field values
	TagResolver  byte = 0x2B // packed type name + tagged surrogate
	TagCustom    byte = 0x2C // packed codec index + codec payload

	// Single-byte encodings of the integer extremes, which would
	// otherwise cost the full packed width.
	TagIntMin   byte = 0x2D
	TagIntMax   byte = 0x2E
	TagInt32Min byte = 0x2F
	TagInt32Max byte = 0x30
	TagInt64Min byte = 0x31
	TagInt64Max byte = 0x32
)

// Small-literal runs. Integers in [SmallIntMin, SmallIntMax] encode as
// a single tag byte with no payload; each Go integer type has its own
// run so round trips preserve the concrete type.
const (
	SmallIntMin = -9
	SmallIntMax = 16

	tagSmallIntBase   byte = 0x40 // 0x40..0x59: int literals
	tagSmallInt32Base byte = 0x60 // 0x60..0x79: int32 literals
	tagSmallInt64Base byte = 0x80 // 0x80..0x99: int64 literals

	smallRunLen = SmallIntMax - SmallIntMin + 1
)

// tagNames maps every fixed tag to its name. Decoding errors and the
// wiredump tool use it; the taxonomy test walks it to prove tag
// uniqueness.
var tagNames = map[byte]string{
	TagNull:         "null",
	TagTrue:         "true",
	TagFalse:        "false",
	TagInt:          "int",
	TagIntNeg:       "int-neg",
	TagInt32:        "int32",
	TagInt32Neg:     "int32-neg",
	TagInt64:        "int64",
	TagInt64Neg:     "int64-neg",
	TagInt8:         "int8",
	TagInt16:        "int16",
	TagUint:         "uint",
	TagUint32:       "uint32",
	TagUint64:       "uint64",
	TagUint8:        "uint8",
	TagChar:         "char",
	TagFloat32:      "float32",
	TagFloat64:      "float64",
	TagString:       "string",
	TagStringEmpty:  "string-empty",
	TagBytes:        "bytes",
	TagBoolSlice:    "bool-slice",
	TagInt16Slice:   "int16-slice",
	TagUint16Slice:  "uint16-slice",
	TagInt32Slice:   "int32-slice",
	TagInt64Slice:   "int64-slice",
	TagFloat32Slice: "float32-slice",
	TagFloat64Slice: "float64-slice",
	TagStringSlice:  "string-slice",
	TagAnySlice:     "any-slice",
	TagSlice:        "slice",
	TagMap:          "map",
	TagStringMap:    "string-map",
	TagList:         "list",
	TagTime:         "time",
	TagBigInt:       "bigint",
	TagDecimal:      "decimal",
	TagUUID:         "uuid",
	TagType:         "type",
	TagBackref:      "backref",
	TagSingleton:    "singleton",
	TagStructDef:    "struct-def",
	TagStruct:       "struct",
	TagResolver:     "resolver",
	TagCustom:       "custom",
	TagIntMin:       "int-min",
	TagIntMax:       "int-max",
	TagInt32Min:     "int32-min",
	TagInt32Max:     "int32-max",
	TagInt64Min:     "int64-min",
	TagInt64Max:     "int64-max",
}

// TagName returns a human-readable name for a header tag, including
// the small-literal runs.
func TagName(tag byte) string {
	if name, ok := tagNames[tag]; ok {
		return name
	}
	if v, kind, ok := smallLiteral(tag); ok {
		return fmt.Sprintf("%s(%d)", kind, v)
	}
	return fmt.Sprintf("unknown(0x%02x)", tag)
}

// smallLiteral decodes a small-literal tag into its value and Go kind.
func smallLiteral(tag byte) (int, string, bool) {
	switch {
	case tag >= tagSmallIntBase && tag < tagSmallIntBase+smallRunLen:
		return int(tag-tagSmallIntBase) + SmallIntMin, "int", true
	case tag >= tagSmallInt32Base && tag < tagSmallInt32Base+smallRunLen:
		return int(tag-tagSmallInt32Base) + SmallIntMin, "int32", true
	case tag >= tagSmallInt64Base && tag < tagSmallInt64Base+smallRunLen:
		return int(tag-tagSmallInt64Base) + SmallIntMin, "int64", true
	}
	return 0, "", false
}
