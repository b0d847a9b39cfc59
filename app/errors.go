package app

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by this package matches exactly one of
// these through errors.Is.
var (
	ErrMalformedInput = errors.New("malformed bencode input")
	ErrTypeMismatch   = errors.New("type mismatch")
	ErrSchemaMismatch = errors.New("schema mismatch")
	ErrIOFailure      = errors.New("i/o failure")
)

// Causes carried by a SyntaxError.
var (
	ErrUnexpectedEOF     = errors.New("unexpected end of input")
	ErrUnrecognizedTag   = errors.New("unrecognized value tag")
	ErrMissingDelimiter  = errors.New("missing ':' after string length")
	ErrInvalidLength     = errors.New("invalid string length")
	ErrMissingTerminator = errors.New("missing 'e' terminator")
	ErrInvalidInteger    = errors.New("invalid integer")
	ErrIntegerOverflow   = errors.New("integer overflows 64 bits")
	ErrNonStringKey      = errors.New("dictionary key is not a string")
	ErrNestingTooDeep    = errors.New("nesting too deep")
	ErrTrailingData      = errors.New("trailing data after value")
)

// SyntaxError is returned when the input does not follow the bencode grammar.
type SyntaxError struct {
	Offset int    // byte offset where the problem was detected
	Err    error  // one of the Err* causes above
	Detail string // optional extra context
}

func (e *SyntaxError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%v at offset %d: %v: %s", ErrMalformedInput, e.Offset, e.Err, e.Detail)
	}
	return fmt.Sprintf("%v at offset %d: %v", ErrMalformedInput, e.Offset, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

func (e *SyntaxError) Is(target error) bool { return target == ErrMalformedInput }

// TypeMismatchError is returned when a node is projected to a type it does
// not hold.
type TypeMismatchError struct {
	Want   BType
	Got    BType
	Reason string
}

func (e *TypeMismatchError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%v: want %s: %s", ErrTypeMismatch, e.Want, e.Reason)
	}
	return fmt.Sprintf("%v: want %s, got %s", ErrTypeMismatch, e.Want, e.Got)
}

func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }

// SchemaError is returned when a decoded torrent lacks a required key or
// holds it with the wrong shape.
type SchemaError struct {
	Key    string // dotted path of the offending key, empty for the root
	Reason string
	Err    error
}

func (e *SchemaError) Error() string {
	key := e.Key
	if key == "" {
		key = "<root>"
	}
	msg := fmt.Sprintf("%v: %s: %s", ErrSchemaMismatch, key, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// SchemaError has no Unwrap: a TypeMismatchError held in Err
// must not make the failure match ErrTypeMismatch.
func (e *SchemaError) Is(target error) bool { return target == ErrSchemaMismatch }

// IOError is returned when a torrent file cannot be read.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrIOFailure, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func (e *IOError) Is(target error) bool { return target == ErrIOFailure }
