// Package config holds the recognized configuration options for the
// compliance core (spec section 6.5) and wires up the lumberjack-backed
// logger that a diag.Collector can write diagnostics through.
package config
