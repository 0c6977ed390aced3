// Package errors provides structured error types for the wirepack codec.
//
// Every error carries a Phase (where in the round trip it happened) and
// a Kind (what went wrong). Stream-corruption kinds abort a call and are
// distinguishable from policy kinds such as unknown_type via
// IsCorruption and IsUnknownType:
//
//	_, err := s.Deserialize(r)
//	if errors.IsUnknownType(err) {
//	    // register the type and retry
//	}
package errors
