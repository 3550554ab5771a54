// Package script builds the opaque output command stream consumed by the
// downstream multiplexer, spec section 6.4: source-file registration,
// per-frame timestamps, PES-payload copies, literal or block-table data
// insertion, and end-of-stream markers.
package script
