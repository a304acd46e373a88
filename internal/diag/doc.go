// Package diag defines the diagnostic model shared by every pass: the five
// core subsystems, the driver, and the CLI. It never performs IO; rendering
// to a terminal lives in render.go and orchestration lives in the driver and
// pipeline packages.
//
// A Diagnostic is a Kind (one of the taxonomy in §6/§7), a Severity, an
// optional source position, a message, and optional secondary Notes.
// CompilerErr, NotImplementedErr, and LinErr are the Kinds this repository's
// own passes raise; the rest pass through unchanged from upstream stages
// (the parser, the elaborator, the driver's DataIOErr-reporting loader).
//
// Producers emit through a Reporter — typically a BagReporter backed by a
// Bag, which supports capacity limits, deterministic sorting, and
// deduplication so that two runs over the same input produce byte-identical
// diagnostic output (§5).
package diag
