package diag

import "github.com/ausocean/utils/logging"

// Sink receives diagnostics as they are produced. Collector is the default
// implementation; callers may supply their own for streaming output.
type Sink interface {
	Report(err error)
}

// Collector is a Sink that accumulates diagnostics in memory and, if Log is
// non-nil, also writes them through a logging.Logger (the same interface
// used throughout the teacher package for cmd/* and codec/jpeg).
type Collector struct {
	Log   logging.Logger
	diags []error
}

// NewCollector returns a Collector that logs through l. l may be nil, in
// which case diagnostics are only accumulated.
func NewCollector(l logging.Logger) *Collector {
	return &Collector{Log: l}
}

// Report records err and, if a Logger is set, logs it at a level derived
// from its type: ParserError and ComplianceError log at Error, Warning logs
// at Warning, everything else logs at Debug.
func (c *Collector) Report(err error) {
	c.diags = append(c.diags, err)
	if c.Log == nil {
		return
	}
	switch err.(type) {
	case *ParserError, *ComplianceError:
		c.Log.Error(err.Error())
	case *Warning:
		c.Log.Warning(err.Error())
	default:
		c.Log.Debug(err.Error())
	}
}

// Diagnostics returns all diagnostics reported so far, in report order.
func (c *Collector) Diagnostics() []error { return c.diags }
