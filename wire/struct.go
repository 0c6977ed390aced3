package wire

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"

	"github.com/wirepack/wirepack/errors"
)

// TagFieldName is the struct tag key; `wirepack:"-"` excludes a field.
const TagFieldName = "wirepack"

// typeDescriptor is the cached introspection result for one struct
// type: its wire name and the exported fields in declaration order.
type typeDescriptor struct {
	name       string
	registered bool
	fields     []fieldDescriptor
}

type fieldDescriptor struct {
	name     string
	category byte // advisory tag for the declared field type
	index    int  // field index in the Go struct
}

// streamDescriptor is a descriptor as read from the stream, matched
// against the local registry by name. Stream field order rules the
// wire; the index maps each stream field to the local struct, or -1
// when the local type has no such field.
type streamDescriptor struct {
	name   string
	rtype  reflect.Type
	fields []streamField
}

type streamField struct {
	name     string
	category byte
	index    int
}

// descriptorFor introspects t once per Serializer lifetime. Fields are
// taken in declaration order; unexported fields and fields tagged
// `wirepack:"-"` are skipped.
func (s *Serializer) descriptorFor(t reflect.Type) *typeDescriptor {
	if d, ok := s.descs[t]; ok {
		return d
	}
	name, registered := s.typeName(t)
	d := &typeDescriptor{name: name, registered: registered}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue
		}
		if f.Tag.Get(TagFieldName) == "-" {
			continue
		}
		d.fields = append(d.fields, fieldDescriptor{
			name:     f.Name,
			category: categoryOf(f.Type),
			index:    i,
		})
	}
	s.descs[t] = d
	Logger().Debug("type descriptor cached",
		zap.String("type", name),
		zap.Int("fields", len(d.fields)))
	return d
}

// encodeStruct writes a struct value (or pointer to one). Dispatch
// order: custom codec, then resolver, then the generic descriptor
// path. The first sight of a type inlines its descriptor and assigns
// the next type id; every later instance carries only the id.
func (e *Encoder) encodeStruct(rv reflect.Value) error {
	sv := rv
	if sv.Kind() == reflect.Pointer {
		sv = sv.Elem()
	}
	t := sv.Type()

	if idx, ok := e.s.cfg.codecIndex[t]; ok {
		if err := e.w.WriteByte(TagCustom); err != nil {
			return err
		}
		if err := PackUint64(e.w, uint64(idx)); err != nil {
			return err
		}
		return e.s.cfg.codecs[idx].codec.Encode(e, rv.Interface())
	}

	if r, ok := e.s.cfg.resolvers[t]; ok {
		name, registered := e.s.typeName(t)
		if !registered {
			return errors.UnsupportedType(errors.PhaseEncode, t.String(),
				"resolver types must also be registered by name")
		}
		if err := e.w.WriteByte(TagResolver); err != nil {
			return err
		}
		if err := e.writeString(name); err != nil {
			return err
		}
		surrogate, err := r.Substitute(rv.Interface())
		if err != nil {
			return err
		}
		return e.Encode(surrogate)
	}

	desc := e.s.descriptorFor(t)
	if !desc.registered {
		e.reportMissing(desc.name)
	}

	if id, ok := e.s.ids[t]; ok {
		if err := e.w.WriteByte(TagStruct); err != nil {
			return err
		}
		if err := PackUint64(e.w, id); err != nil {
			return err
		}
	} else {
		id := uint64(len(e.s.ids))
		e.s.ids[t] = id
		Logger().Debug("type id assigned",
			zap.String("type", desc.name),
			zap.Uint64("id", id))
		if err := e.w.WriteByte(TagStructDef); err != nil {
			return err
		}
		if err := e.writeString(desc.name); err != nil {
			return err
		}
		if err := PackUint64(e.w, uint64(len(desc.fields))); err != nil {
			return err
		}
		for _, f := range desc.fields {
			if err := e.writeString(f.name); err != nil {
				return err
			}
			if err := e.w.WriteByte(f.category); err != nil {
				return err
			}
		}
	}

	for _, f := range desc.fields {
		if err := e.Encode(sv.Field(f.index).Interface()); err != nil {
			return err
		}
	}
	return nil
}

// decodeStructDef reads an inline descriptor, records it under the
// next type id, and decodes the field values that follow.
func (d *Decoder) decodeStructDef() (any, error) {
	name, err := d.readString("struct type name")
	if err != nil {
		return nil, err
	}
	n, err := d.readCount("struct field count")
	if err != nil {
		return nil, err
	}
	fields := make([]streamField, n)
	for i := range fields {
		fname, err := d.readString("struct field name")
		if err != nil {
			return nil, err
		}
		cat, err := d.r.ReadByte()
		if err != nil {
			return nil, errors.Truncated(d.r.Position(), "field category", err)
		}
		fields[i] = streamField{name: fname, category: cat, index: -1}
	}

	sd := &streamDescriptor{name: name, fields: fields}
	if rt, ok := d.s.cfg.names[name]; ok && rt.Kind() == reflect.Struct {
		sd.rtype = rt
		local := d.s.descriptorFor(rt)
		byName := make(map[string]int, len(local.fields))
		for _, f := range local.fields {
			byName[f.name] = f.index
		}
		for i := range sd.fields {
			if idx, ok := byName[sd.fields[i].name]; ok {
				sd.fields[i].index = idx
			}
		}
	}
	d.s.seen = append(d.s.seen, sd)
	Logger().Debug("stream descriptor recorded",
		zap.String("type", name),
		zap.Uint64("id", uint64(len(d.s.seen)-1)),
		zap.Bool("known", sd.rtype != nil))

	return d.decodeStructBody(sd)
}

// decodeStructRef resolves a type id assigned by an earlier
// TagStructDef in streams read through this Serializer.
func (d *Decoder) decodeStructRef() (any, error) {
	pos := d.r.Position()
	id, err := d.unpack64("struct type id")
	if err != nil {
		return nil, err
	}
	if id >= uint64(len(d.s.seen)) {
		return nil, errors.InvalidData(pos, fmt.Sprintf("struct type id %d has no prior definition", id))
	}
	return d.decodeStructBody(d.s.seen[id])
}

// decodeStructBody materializes a *T, registers it on the identity
// stack BEFORE filling fields, then assigns decoded values by the
// stream's field order. Registering first is what lets a field chain
// reach back to the struct that contains it.
func (d *Decoder) decodeStructBody(sd *streamDescriptor) (any, error) {
	if sd.rtype == nil {
		d.reportMissing(sd.name)
		return nil, errors.UnknownType(errors.PhaseDecode, sd.name)
	}

	pv := reflect.New(sd.rtype)
	d.stack.push(pv.Interface())
	elem := pv.Elem()

	for _, f := range sd.fields {
		val, err := d.Decode()
		if err != nil {
			return nil, err
		}
		if f.index < 0 {
			// The local struct dropped this field; the value is
			// decoded to keep the stream aligned, then discarded.
			continue
		}
		if err := assignField(elem.Field(f.index), val, sd.name, f.name); err != nil {
			return nil, err
		}
	}
	return pv.Interface(), nil
}

// decodeResolver reads a surrogate and hands it to the registered
// resolver. The restored object is patched into the slot reserved
// before the surrogate was decoded, keeping indices aligned with the
// encoder.
func (d *Decoder) decodeResolver() (any, error) {
	name, err := d.readString("resolver type name")
	if err != nil {
		return nil, err
	}
	rt, ok := d.s.cfg.names[name]
	if !ok {
		d.reportMissing(name)
		return nil, errors.UnknownType(errors.PhaseDecode, name)
	}
	r, ok := d.s.cfg.resolvers[rt]
	if !ok {
		return nil, errors.New(errors.PhaseDecode, errors.KindUnknownType).
			TypeName(name).
			Detail("type is registered but has no resolver").
			Build()
	}

	slot := d.stack.reserve()
	surrogate, err := d.Decode()
	if err != nil {
		return nil, err
	}
	restored, err := r.Restore(surrogate)
	if err != nil {
		return nil, err
	}
	d.stack.set(slot, restored)
	return restored, nil
}

// decodeCustom delegates the payload to the codec at the packed
// registration index.
func (d *Decoder) decodeCustom() (any, error) {
	pos := d.r.Position()
	idx, err := d.unpack64("codec index")
	if err != nil {
		return nil, err
	}
	if idx >= uint64(len(d.s.cfg.codecs)) {
		return nil, errors.InvalidData(pos, fmt.Sprintf("codec index %d beyond the registered table", idx))
	}

	slot := d.stack.reserve()
	v, err := d.s.cfg.codecs[idx].codec.Decode(d)
	if err != nil {
		return nil, err
	}
	d.stack.set(slot, v)
	return v, nil
}

// assignField stores a decoded value into a struct field, bridging the
// pointer-ness gap in either direction and converting same-kind named
// types.
func assignField(fv reflect.Value, val any, typeName, fieldName string) error {
	if val == nil {
		return nil
	}
	dv := reflect.ValueOf(val)
	switch {
	case dv.Type().AssignableTo(fv.Type()):
		fv.Set(dv)
	case dv.Kind() == reflect.Pointer && dv.Type().Elem().AssignableTo(fv.Type()):
		fv.Set(dv.Elem())
	case fv.Kind() == reflect.Pointer && dv.Type().AssignableTo(fv.Type().Elem()):
		p := reflect.New(fv.Type().Elem())
		p.Elem().Set(dv)
		fv.Set(p)
	case dv.Kind() == fv.Kind() && dv.Type().ConvertibleTo(fv.Type()):
		fv.Set(dv.Convert(fv.Type()))
	default:
		return errors.TypeMismatch(typeName,
			fmt.Sprintf("field %s of type %s cannot hold decoded %T", fieldName, fv.Type(), val))
	}
	return nil
}
