// Package wire implements a compact binary codec for Go value graphs.
//
// Values encode as a one-byte header tag followed by a tag-specific
// payload. Integers use a packed big-endian varint whose terminator
// bit is the HIGH bit of the last byte (the reverse of the usual
// continuation convention), so small magnitudes stay small and zero is
// a single byte.
//
// Reference values (slices, maps, pointers, structs, lists) are
// tracked on a per-call identity stack: the second and later
// occurrences of the same object encode as a back-reference to its
// first position. Shared sub-objects decode back to one shared object,
// and cyclic graphs round-trip without infinite recursion.
//
// Struct types encode through cached reflection descriptors. The first
// instance of a type in a stream carries an inline descriptor (wire
// name plus field list) and implicitly assigns the next type id; later
// instances carry only the id. Decoders match descriptors to local
// types by wire name, so fields can be added or removed on either side
// without breaking old streams.
//
// A Serializer's descriptor and type-id caches grow across calls and
// are not synchronized: use one Serializer per stream, not one per
// process.
package wire
