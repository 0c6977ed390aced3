package wire

import "reflect"

// The identity stack records every reference value in first-seen
// order during one serialize or deserialize call. A value encountered
// again encodes as a back-reference to its position, which is what
// makes shared and cyclic structures round-trip to the same live
// object instead of copies. The stack lives exactly as long as one
// top-level call.

// refKey identifies a Go value by reference. Slices key on the data
// pointer plus length; maps and pointers key on the pointer alone.
type refKey struct {
	ptr uintptr
	len int
}

func keyFor(rv reflect.Value) (refKey, bool) {
	switch rv.Kind() {
	case reflect.Slice:
		if rv.Len() == 0 {
			// Zero-length slices have no usable identity and cannot
			// participate in a cycle.
			return refKey{}, false
		}
		return refKey{ptr: rv.Pointer(), len: rv.Len()}, true
	case reflect.Map, reflect.Pointer:
		if rv.IsNil() {
			return refKey{}, false
		}
		return refKey{ptr: rv.Pointer(), len: -1}, true
	}
	return refKey{}, false
}

// encodeStack is the encoder's side of the identity stack. Every
// reference value occupies an index whether or not it has a usable
// key, so indices stay aligned with the decoder's stack.
type encodeStack struct {
	index map[refKey]uint64
	next  uint64
}

func (s *encodeStack) lookup(rv reflect.Value) (uint64, bool) {
	key, ok := keyFor(rv)
	if !ok {
		return 0, false
	}
	idx, hit := s.index[key]
	return idx, hit
}

// push records rv at the next index. Called exactly once per value,
// before its children are encoded.
func (s *encodeStack) push(rv reflect.Value) {
	if key, ok := keyFor(rv); ok {
		if s.index == nil {
			s.index = make(map[refKey]uint64)
		}
		s.index[key] = s.next
	}
	s.next++
}

// decodeStack is the decoder's arena of materialized objects,
// addressable by back-reference index. Containers are registered
// before they are filled, so a back-reference can resolve to a value
// that is still under construction.
type decodeStack struct {
	objs []any
}

func (s *decodeStack) push(v any) uint64 {
	s.objs = append(s.objs, v)
	return uint64(len(s.objs) - 1)
}

// reserve claims an index whose value is not yet constructed; set
// patches it in once it exists.
func (s *decodeStack) reserve() uint64 {
	return s.push(nil)
}

func (s *decodeStack) set(idx uint64, v any) {
	s.objs[idx] = v
}

func (s *decodeStack) get(idx uint64) (any, bool) {
	if idx >= uint64(len(s.objs)) {
		return nil, false
	}
	return s.objs[idx], true
}

func (s *decodeStack) len() uint64 {
	return uint64(len(s.objs))
}
