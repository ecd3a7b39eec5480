// Package logging configures structured slog output for dubber.
//
// Two handler formats are supported: a compact console format intended for
// interactive use and a JSON format for machine consumption. Attr helpers
// mirror the slog constructors so call sites stay terse, and WithComponent
// standardizes the component attribute the console handler hoists into the
// message prefix.
package logging
