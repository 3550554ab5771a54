// diag.go provides the shared diagnostic result types produced by the H.264
// and HDMV parsers and compliance checkers: parser errors, BD-compliance
// errors, non-fatal warnings, and restart requests (see spec section 7).

// Package diag provides the diagnostic result types shared by the H.264 and
// HDMV parsing and compliance-checking packages: fatal parser errors,
// BD-compliance errors, latched warnings, and restart requests.
package diag

import (
	"fmt"

	"github.com/pkg/errors"
)

// ParserError indicates the bitstream itself is malformed: a bad start
// code, an impossible Exp-Golomb code, a reserved value in a required
// field, or premature EOF. ParserError is always fatal.
type ParserError struct {
	Offset int64  // file offset of the offending NAL/segment.
	Field  string // name or description of the field that failed.
	Cause  error
}

func (e *ParserError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parser error at offset %d (%s): %v", e.Offset, e.Field, e.Cause)
	}
	return fmt.Sprintf("parser error at offset %d: %s", e.Offset, e.Field)
}

func (e *ParserError) Unwrap() error { return e.Cause }

// NewParserError wraps cause as a ParserError at the given file offset.
func NewParserError(offset int64, field string, cause error) *ParserError {
	return &ParserError{Offset: offset, Field: field, Cause: errors.Wrap(cause, field)}
}

// ComplianceError indicates a stream that is valid H.264/HDMV but violates
// the selected Blu-ray profile. By default fatal; a lax Mode downgrades
// a subset of these to Warning.
type ComplianceError struct {
	Offset int64
	Rule   string // the BD rule that was violated, e.g. "level_idc".
	Value  fmt.Stringer
	Msg    string
}

func (e *ComplianceError) Error() string {
	return fmt.Sprintf("compliance error at offset %d: %s: %s", e.Offset, e.Rule, e.Msg)
}

// NewComplianceError builds a ComplianceError.
func NewComplianceError(offset int64, rule, msg string) *ComplianceError {
	return &ComplianceError{Offset: offset, Rule: rule, Msg: msg}
}

// Warning is a non-fatal deviation. Each warning class is latched by a
// WarnOnce set so that it fires at most once per stream.
type Warning struct {
	Offset int64
	Class  string
	Msg    string
}

func (w *Warning) Error() string {
	return fmt.Sprintf("warning at offset %d: %s: %s", w.Offset, w.Class, w.Msg)
}

// NewWarning builds a Warning.
func NewWarning(offset int64, class, msg string) *Warning {
	return &Warning{Offset: offset, Class: class, Msg: msg}
}

// RestartRequest is a recoverable mismatch in the parsing-mode assumptions,
// e.g. an odd picture-order-count value observed under half-POC timing.
// The caller must discard the current handler and re-create it with
// adjusted options; RestartRequest is never silently retried internally.
type RestartRequest struct {
	Reason string
}

func (r *RestartRequest) Error() string {
	return fmt.Sprintf("restart requested: %s", r.Reason)
}

// NewRestartRequest builds a RestartRequest.
func NewRestartRequest(reason string) *RestartRequest {
	return &RestartRequest{Reason: reason}
}

// IsFatal reports whether err, under mode's laxness setting, should abort
// parsing. ParserError is always fatal. ComplianceError is fatal unless
// mode.Lax is set. Warning and RestartRequest are never fatal by
// themselves (RestartRequest is handled by the caller's restart loop).
func IsFatal(err error, mode Mode) bool {
	var perr *ParserError
	if errors.As(err, &perr) {
		return true
	}
	var cerr *ComplianceError
	if errors.As(err, &cerr) {
		return !mode.Lax
	}
	return false
}

// Mode toggles the compliance checker between "explode on any violation"
// (the default) and "log and continue" (Lax).
type Mode struct {
	Lax bool
}
