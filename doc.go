// Package wirepack serializes Go value graphs into a compact binary
// form that preserves object identity: shared sub-objects stay shared
// and cyclic structures round-trip without special handling.
//
// The root package is a thin facade over wirepack/wire, which holds
// the engine. Structured errors live in wirepack/errors.
package wirepack
