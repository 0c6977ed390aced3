package wire

import (
	"reflect"

	"go.uber.org/zap"

	"github.com/wirepack/wirepack/errors"
)

// Codec fully delegates the encoding of one struct type. The payload
// layout is the codec's own; the engine frames it with the custom tag
// and the codec's registration index.
type Codec interface {
	Encode(e *Encoder, v any) error
	Decode(d *Decoder) (any, error)
}

// Resolver substitutes a surrogate representation before encoding and
// reconstructs the original after decoding.
type Resolver interface {
	Substitute(v any) (any, error)
	Restore(surrogate any) (any, error)
}

// MissingTypeCallback observes struct types that are not registered.
// It fires at most once per distinct type per call.
type MissingTypeCallback func(typeName string)

type codecEntry struct {
	typ   reflect.Type
	codec Codec
}

type config struct {
	names          map[string]reflect.Type
	typeNames      map[reflect.Type]string
	codecs         []codecEntry
	codecIndex     map[reflect.Type]int
	resolvers      map[reflect.Type]Resolver
	singletons     []any
	singletonIndex map[any]uint64
	onMissing      MissingTypeCallback
}

// Option configures a Serializer at construction time.
type Option func(*config) error

// baseType strips one level of pointer so T and *T register the same.
func baseType(v any) reflect.Type {
	t := reflect.TypeOf(v)
	if t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// WithType registers a struct type under an explicit stable name. The
// name is the type's identity on the wire; encoder and decoder must
// agree on it.
func WithType(name string, sample any) Option {
	return func(c *config) error {
		t := baseType(sample)
		if t == nil {
			return errors.Registration("cannot register a nil type for %q", name)
		}
		if name == "" {
			return errors.Registration("empty type name for %s", t.String())
		}
		if prev, ok := c.names[name]; ok && prev != t {
			return errors.Registration("type name %q already registered to %s", name, prev.String())
		}
		c.names[name] = t
		c.typeNames[t] = name
		return nil
	}
}

// WithTypes registers struct types under their Go type strings
// (package.Name). Use WithType when the wire name must outlive a
// package rename.
func WithTypes(samples ...any) Option {
	return func(c *config) error {
		for _, sample := range samples {
			t := baseType(sample)
			if t == nil {
				return errors.Registration("cannot register a nil type")
			}
			if err := WithType(t.String(), sample)(c); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithCodec registers a custom codec that fully owns the wire form of
// the sample's type. Codec order must match between the writing and
// reading serializer: the registration index is what goes on the wire.
func WithCodec(sample any, codec Codec) Option {
	return func(c *config) error {
		t := baseType(sample)
		if t == nil || codec == nil {
			return errors.Registration("codec registration needs a type and a codec")
		}
		if _, ok := c.codecIndex[t]; ok {
			return errors.Registration("codec already registered for %s", t.String())
		}
		c.codecIndex[t] = len(c.codecs)
		c.codecs = append(c.codecs, codecEntry{typ: t, codec: codec})
		return nil
	}
}

// WithResolver registers a surrogate resolver for the sample's type.
// The type must also be registered by name so the decoder can find
// the resolver again.
func WithResolver(sample any, r Resolver) Option {
	return func(c *config) error {
		t := baseType(sample)
		if t == nil || r == nil {
			return errors.Registration("resolver registration needs a type and a resolver")
		}
		if _, ok := c.resolvers[t]; ok {
			return errors.Registration("resolver already registered for %s", t.String())
		}
		c.resolvers[t] = r
		return nil
	}
}

// WithSingletons registers well-known objects that encode as a table
// index and decode to the exact registered instance. Registration
// order is the wire index and must match on both sides. Singleton
// values must be comparable (pointers, typically): identity is what is
// preserved.
func WithSingletons(objs ...any) Option {
	return func(c *config) error {
		for _, obj := range objs {
			if obj == nil {
				return errors.Registration("cannot register a nil singleton")
			}
			if !reflect.TypeOf(obj).Comparable() {
				return errors.Registration("singleton of type %T is not comparable; register a pointer", obj)
			}
			if _, ok := c.singletonIndex[obj]; ok {
				return errors.Registration("singleton of type %T registered twice", obj)
			}
			c.singletonIndex[obj] = uint64(len(c.singletons))
			c.singletons = append(c.singletons, obj)
		}
		return nil
	}
}

// WithMissingTypeCallback installs the observer invoked when a graph
// contains a struct type the registry does not know.
func WithMissingTypeCallback(fn MissingTypeCallback) Option {
	return func(c *config) error {
		c.onMissing = fn
		return nil
	}
}

// Serializer is the object-graph codec. One instance owns a type
// descriptor cache and a type-id table that grow on first sight of
// each struct type and live for the instance's lifetime, so a single
// instance is not safe for concurrent use. The intended pattern is one
// instance per stream, with many sequential calls amortizing the
// caches.
type Serializer struct {
	cfg config

	descs map[reflect.Type]*typeDescriptor // introspection cache
	ids   map[reflect.Type]uint64          // encode-side type ids, first-seen order
	seen  []*streamDescriptor              // decode-side descriptors by id
}

// New creates a Serializer from construction-time options.
func New(opts ...Option) (*Serializer, error) {
	cfg := config{
		names:          make(map[string]reflect.Type),
		typeNames:      make(map[reflect.Type]string),
		codecIndex:     make(map[reflect.Type]int),
		resolvers:      make(map[reflect.Type]Resolver),
		singletonIndex: make(map[any]uint64),
	}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}
	Logger().Debug("serializer configured",
		zap.Int("types", len(cfg.names)),
		zap.Int("codecs", len(cfg.codecs)),
		zap.Int("singletons", len(cfg.singletons)))
	return &Serializer{
		cfg:   cfg,
		descs: make(map[reflect.Type]*typeDescriptor),
		ids:   make(map[reflect.Type]uint64),
	}, nil
}

// typeName returns the wire name for t: the registered name when there
// is one, the Go type string otherwise.
func (s *Serializer) typeName(t reflect.Type) (string, bool) {
	if name, ok := s.cfg.typeNames[t]; ok {
		return name, true
	}
	return t.String(), false
}
