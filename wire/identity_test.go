package wire_test

import (
	"bytes"
	"container/list"
	"errors"
	"reflect"
	"testing"

	wperrors "github.com/wirepack/wirepack/errors"
	"github.com/wirepack/wirepack/wire"
)

func samePointer(a, b any) bool {
	return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
}

func TestSelfReferentialSlice(t *testing.T) {
	s := newSerializer(t)

	in := make([]any, 2)
	in[0] = "head"
	in[1] = in

	out := roundTrip(t, s, in).([]any)
	if out[0] != "head" {
		t.Fatalf("element 0: got %#v", out[0])
	}
	if !samePointer(out, out[1]) {
		t.Error("slice does not contain itself after round trip")
	}
}

func TestSelfReferentialMap(t *testing.T) {
	s := newSerializer(t)

	in := map[any]any{}
	in["self"] = in
	in["n"] = 1

	out := roundTrip(t, s, in).(map[any]any)
	if out["n"] != 1 {
		t.Fatalf("key n: got %#v", out["n"])
	}
	if !samePointer(out, out["self"]) {
		t.Error("map does not contain itself after round trip")
	}
}

func TestSelfReferentialList(t *testing.T) {
	s := newSerializer(t)

	in := list.New()
	in.PushBack(in)
	in.PushBack("tail")

	out := roundTrip(t, s, in).(*list.List)
	if out.Len() != 2 {
		t.Fatalf("length %d, want 2", out.Len())
	}
	if out.Front().Value != out {
		t.Error("list does not contain itself after round trip")
	}
	if out.Back().Value != "tail" {
		t.Errorf("tail: got %#v", out.Back().Value)
	}
}

func TestSharedSubObjectDecodesOnce(t *testing.T) {
	s := newSerializer(t)

	shared := []any{1, 2, 3}
	in := []any{shared, shared, "x", shared}

	out := roundTrip(t, s, in).([]any)
	if !samePointer(out[0], out[1]) || !samePointer(out[0], out[3]) {
		t.Error("shared slice decoded into distinct copies")
	}

	// Mutating through one alias must be visible through the other.
	out[0].([]any)[0] = 99
	if out[1].([]any)[0] != 99 {
		t.Error("aliases do not share backing storage")
	}
}

func TestSharedMapInsideSlice(t *testing.T) {
	s := newSerializer(t)

	shared := map[string]any{"k": "v"}
	in := []any{shared, shared}

	out := roundTrip(t, s, in).([]any)
	if !samePointer(out[0], out[1]) {
		t.Error("shared map decoded into distinct copies")
	}
}

func TestDistinctEqualValuesStayDistinct(t *testing.T) {
	s := newSerializer(t)

	a := []any{1}
	b := []any{1}
	out := roundTrip(t, s, []any{a, b}).([]any)
	if samePointer(out[0], out[1]) {
		t.Error("distinct but equal slices were merged")
	}
}

func TestIdentityDoesNotSpanCalls(t *testing.T) {
	s := newSerializer(t)

	shared := []any{1}
	var buf bytes.Buffer
	if err := s.Serialize(&buf, shared); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if err := s.Serialize(&buf, shared); err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	r := bytes.NewReader(buf.Bytes())
	first, err := s.Deserialize(r)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	second, err := s.Deserialize(r)
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if samePointer(first, second) {
		t.Error("identity leaked across top-level calls")
	}
}

func TestBackrefBeyondStackFails(t *testing.T) {
	s := newSerializer(t)

	// A back-reference at the top level has an empty identity stack
	// behind it; any index is out of range.
	data := []byte{wire.TagBackref, 0x85}
	_, err := s.Deserialize(bytes.NewReader(data))
	var we *wperrors.Error
	if !errors.As(err, &we) || we.Kind != wperrors.KindBadBackref {
		t.Fatalf("got %v, want bad_backref", err)
	}
	if !wperrors.IsCorruption(err) {
		t.Error("bad backref not classified as corruption")
	}
}

func TestSingletonPreservesInstance(t *testing.T) {
	type policy struct{ Name string }
	alpha := &policy{Name: "alpha"}
	beta := &policy{Name: "beta"}

	s := newSerializer(t, wire.WithSingletons(alpha, beta))

	out := roundTrip(t, s, []any{beta, alpha, beta}).([]any)
	if out[0] != beta || out[1] != alpha || out[2] != beta {
		t.Error("singletons did not decode to the registered instances")
	}

	// A singleton reference is a tag plus a packed index.
	if got := encodedSize(t, s, alpha); got != 2 {
		t.Errorf("singleton: %d bytes, want 2", got)
	}
}

func TestSingletonIndexOutOfRange(t *testing.T) {
	s := newSerializer(t)

	data := []byte{wire.TagSingleton, 0x83}
	_, err := s.Deserialize(bytes.NewReader(data))
	var we *wperrors.Error
	if !errors.As(err, &we) || we.Kind != wperrors.KindInvalidData {
		t.Fatalf("got %v, want invalid_data", err)
	}
}
