package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Phase indicates which half of a round trip the error occurred in.
type Phase string

const (
	PhaseConfig Phase = "config" // serializer construction
	PhaseEncode Phase = "encode" // Go value to byte stream
	PhaseDecode Phase = "decode" // byte stream to Go value
)

// Kind categorizes the error.
type Kind string

const (
	// Stream corruption kinds. A corrupt stream aborts the call.
	KindInvalidTag  Kind = "invalid_tag"  // header tag outside the known range
	KindTruncated   Kind = "truncated"    // source exhausted mid-value
	KindOverflow    Kind = "overflow"     // packed integer exceeds its width
	KindBadBackref  Kind = "bad_backref"  // back-reference past the identity stack
	KindInvalidData Kind = "invalid_data" // payload violates the tag's contract

	// Policy kinds, distinguishable from corruption.
	KindUnknownType     Kind = "unknown_type"     // type not registered/resolvable
	KindUnsupportedType Kind = "unsupported_type" // no encoding exists for the Go type
	KindTypeMismatch    Kind = "type_mismatch"    // decoded value does not fit its target
	KindRegistration    Kind = "registration"     // bad construction-time option
)

// Error is the structured error type used throughout the module.
type Error struct {
	Cause    error
	Phase    Phase
	Kind     Kind
	TypeName string
	Offset   int // byte offset in the stream, -1 when not applicable
	Detail   string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Offset >= 0 {
		fmt.Fprintf(&b, " at offset %d", e.Offset)
	}

	if e.TypeName != "" {
		b.WriteString(": type ")
		b.WriteString(e.TypeName)
	}

	if e.Detail != "" {
		if e.TypeName != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction.
type Builder struct {
	err Error
}

// New creates a new error builder.
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase:  phase,
			Kind:   kind,
			Offset: -1,
		},
	}
}

// Offset sets the stream byte offset.
func (b *Builder) Offset(off int) *Builder {
	b.err.Offset = off
	return b
}

// TypeName sets the type the error concerns.
func (b *Builder) TypeName(name string) *Builder {
	b.err.TypeName = name
	return b
}

// Cause sets the underlying error.
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message.
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error.
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// InvalidTag creates an out-of-range header tag error.
func InvalidTag(offset int, tag byte) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindInvalidTag,
		Offset: offset,
		Detail: fmt.Sprintf("unknown header tag 0x%02x", tag),
	}
}

// Truncated creates an error for a source exhausted mid-value.
// The cause is preserved so errors.Is still matches io.EOF and
// io.ErrUnexpectedEOF.
func Truncated(offset int, what string, cause error) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindTruncated,
		Offset: offset,
		Detail: fmt.Sprintf("stream ended while reading %s", what),
		Cause:  cause,
	}
}

// Overflow creates an error for a packed integer that exceeds its width.
func Overflow(offset int, cause error) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindOverflow,
		Offset: offset,
		Detail: "packed integer exceeds its bit width",
		Cause:  cause,
	}
}

// BadBackref creates an error for a back-reference beyond the identity stack.
func BadBackref(offset int, index, length uint64) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindBadBackref,
		Offset: offset,
		Detail: fmt.Sprintf("back-reference %d beyond identity stack of length %d", index, length),
	}
}

// InvalidData creates an error for a payload violating its tag's contract.
func InvalidData(offset int, detail string) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindInvalidData,
		Offset: offset,
		Detail: detail,
	}
}

// UnknownType creates an error for an unregistered or unresolvable type.
func UnknownType(phase Phase, typeName string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindUnknownType,
		Offset:   -1,
		TypeName: typeName,
		Detail:   "type is not registered",
	}
}

// UnsupportedType creates an error for a Go type with no encoding.
func UnsupportedType(phase Phase, typeName, detail string) *Error {
	return &Error{
		Phase:    phase,
		Kind:     KindUnsupportedType,
		Offset:   -1,
		TypeName: typeName,
		Detail:   detail,
	}
}

// TypeMismatch creates an error for a decoded value that does not fit
// its destination.
func TypeMismatch(typeName, detail string) *Error {
	return &Error{
		Phase:    PhaseDecode,
		Kind:     KindTypeMismatch,
		Offset:   -1,
		TypeName: typeName,
		Detail:   detail,
	}
}

// Registration creates a construction-time configuration error.
func Registration(detail string, args ...any) *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindRegistration,
		Offset: -1,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// IsCorruption reports whether err is a fatal stream-corruption error,
// as opposed to a policy error such as an unknown type. Wrapped errors
// are unwrapped first.
func IsCorruption(err error) bool {
	var e *Error
	if !stderrors.As(err, &e) {
		return false
	}
	switch e.Kind {
	case KindInvalidTag, KindTruncated, KindOverflow, KindBadBackref, KindInvalidData:
		return true
	}
	return false
}

// IsUnknownType reports whether err is an unknown-type error. Wrapped
// errors are unwrapped first.
func IsUnknownType(err error) bool {
	var e *Error
	return stderrors.As(err, &e) && e.Kind == KindUnknownType
}
