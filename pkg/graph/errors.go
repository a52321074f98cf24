package graph

import (
	"errors"
	"fmt"
)

// Input errors
var (
	ErrMalformedRecord = errors.New("malformed record")
	ErrNilGraph        = errors.New("graph cannot be nil")
)

// MalformedRecordError rejects a whole call because one input record lacks a
// required identity field or duplicates another record's id.
type MalformedRecordError struct {
	Index  int
	Field  string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("malformed record at index %d: %s", e.Index, e.Reason)
	}
	return fmt.Sprintf("malformed record at index %d: %s: %s", e.Index, e.Field, e.Reason)
}

func (e *MalformedRecordError) Unwrap() error {
	return ErrMalformedRecord
}

// Malformed builds a MalformedRecordError.
func Malformed(index int, field, reason string) *MalformedRecordError {
	return &MalformedRecordError{Index: index, Field: field, Reason: reason}
}
