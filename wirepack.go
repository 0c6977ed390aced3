package wirepack

import (
	"bytes"

	"go.uber.org/zap"

	"github.com/wirepack/wirepack/wire"
)

// The root package re-exports the wire engine's surface so most
// programs can depend on a single import path.

type (
	// Serializer is the object-graph codec; see wire.Serializer.
	Serializer = wire.Serializer
	// Encoder is the per-call encoding state passed to custom codecs.
	Encoder = wire.Encoder
	// Decoder is the per-call decoding state passed to custom codecs.
	Decoder = wire.Decoder
	// Option configures a Serializer at construction time.
	Option = wire.Option
	// Codec fully owns the wire form of one registered type.
	Codec = wire.Codec
	// Resolver swaps a type for a surrogate across the wire.
	Resolver = wire.Resolver
	// MissingTypeCallback observes unregistered struct types.
	MissingTypeCallback = wire.MissingTypeCallback
)

// Construction options, re-exported from the wire package.
var (
	WithType                = wire.WithType
	WithTypes               = wire.WithTypes
	WithCodec               = wire.WithCodec
	WithResolver            = wire.WithResolver
	WithSingletons          = wire.WithSingletons
	WithMissingTypeCallback = wire.WithMissingTypeCallback
)

// New creates a Serializer from construction-time options.
func New(opts ...Option) (*Serializer, error) {
	return wire.New(opts...)
}

// Marshal encodes v into a byte slice using a throwaway Serializer
// with no registrations. Struct-heavy graphs should build a configured
// Serializer instead and reuse it per stream.
func Marshal(v any) ([]byte, error) {
	s, err := wire.New()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := s.Serialize(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes one value from data using a throwaway Serializer
// with no registrations.
func Unmarshal(data []byte) (any, error) {
	s, err := wire.New()
	if err != nil {
		return nil, err
	}
	return s.Deserialize(bytes.NewReader(data))
}

// SetLogger installs a logger for the whole module; the default is a
// no-op logger.
func SetLogger(l *zap.Logger) {
	wire.SetLogger(l)
}
