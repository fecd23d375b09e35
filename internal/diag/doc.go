// Package diag defines the diagnostic model shared by all compilation stages.
//
// A Diagnostic carries a Severity, a numeric Code with a stable string form
// (LEX/SYN/SEM/IO/PRJ/CFG prefixes), a short message, the primary source.Span
// and optional notes pointing at related spans ("function defined here").
//
// Producers emit through a Reporter; BagReporter collects into a Bag that the
// driver sorts before rendering. Formatting lives in internal/diagfmt.
package diag
