package cborstream

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDepthExceeded is returned by the diagnostic renderer when input
// nesting goes beyond MaxDiagnosticDepth.
var ErrDepthExceeded = errors.New("cborstream: nesting depth limit exceeded")

// NotWellFormedError reports malformed wire data: a reserved header bit
// pattern, a truncated multi-byte value or chunk payload, or an
// unterminated indefinite container at stream end. Once raised, the stream
// position is undefined and the whole decode must be treated as failed.
type NotWellFormedError struct {
	Reason string
}

func (e *NotWellFormedError) Error() string {
	return "cborstream: not well-formed: " + e.Reason
}

func notWellFormed(format string, args ...any) error {
	return &NotWellFormedError{Reason: fmt.Sprintf(format, args...)}
}

// TypeError reports that a caller requested an interpretation the current
// event does not support. It carries the actual header plus the accepted
// alternatives. When raised from a peek-validate step of the parser it is
// non-consuming: the offending event stays available for a different typed
// read.
type TypeError struct {
	Header      Header
	WantMajors  []Major
	WantTypes   []LogicalType
	WantFormats []InfoFormat
}

func (e *TypeError) Error() string {
	var want []string
	for _, m := range e.WantMajors {
		want = append(want, m.String())
	}
	for _, t := range e.WantTypes {
		want = append(want, t.String())
	}
	for _, f := range e.WantFormats {
		want = append(want, f.String()+" format")
	}
	return fmt.Sprintf("cborstream: have %s, want %s",
		e.Header, strings.Join(want, " or "))
}

// OverflowError reports that a numeric interpretation exceeds the target
// width. Values are never silently truncated. Like TypeError it is locally
// recoverable: the event can still be read through a wider accessor.
type OverflowError struct {
	Value    uint64
	Negative bool // negative-integer major, logical value is -(Value+1)
	Target   string
}

func (e *OverflowError) Error() string {
	if e.Negative {
		return fmt.Sprintf("cborstream: -(%d+1) overflows %s", e.Value, e.Target)
	}
	return fmt.Sprintf("cborstream: %d overflows %s", e.Value, e.Target)
}

// StructuralError reports a break encountered where a complete data item
// was expected.
type StructuralError struct {
	Reason string
}

func (e *StructuralError) Error() string {
	return "cborstream: " + e.Reason
}
