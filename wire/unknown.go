package wire

import (
	"io"
	"sort"
)

// FindUnknownTypes reports the wire names of every unregistered struct
// type reachable from the given values, sorted and de-duplicated. It
// runs a full encode against a discarded stream, so the values must be
// encodable.
func (s *Serializer) FindUnknownTypes(values ...any) ([]string, error) {
	found := make(map[string]struct{})
	e := s.newEncoder(io.Discard)
	e.onMissing = func(name string) {
		found[name] = struct{}{}
	}
	for _, v := range values {
		if err := e.Encode(v); err != nil {
			return nil, err
		}
	}
	names := make([]string, 0, len(found))
	for name := range found {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
