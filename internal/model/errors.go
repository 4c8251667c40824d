package model

import (
	"errors"
	"fmt"
	"strings"
)

// Fatal error kinds. Any of these aborts a pipeline run before an artifact
// is published.
var (
	ErrParse                  = errors.New("parse error")
	ErrUnrecognizedIdentifier = errors.New("unrecognized identifier")
	ErrSchemaMismatch         = errors.New("schema mismatch")
)

// ParseError reports a raw field that could not be converted to its
// declared type.
type ParseError struct {
	Source string
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s line %d: parsing %s %q: %v", e.Source, e.Line, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() []error { return []error{ErrParse, e.Err} }

// SchemaError reports two column sets that were expected to match.
type SchemaError struct {
	Source   string
	Expected []string
	Got      []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: expected columns [%s], got [%s]",
		e.Source, strings.Join(e.Expected, ","), strings.Join(e.Got, ","))
}

func (e *SchemaError) Unwrap() error { return ErrSchemaMismatch }

// IdentifierError reports a raw identifier that is absent from a lookup
// table.
type IdentifierError struct {
	Kind  string
	Value string
}

func (e *IdentifierError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.Value)
}

func (e *IdentifierError) Unwrap() error { return ErrUnrecognizedIdentifier }
