// Package export orchestrates the full render: silent-audio preprocessing,
// per-segment synthesis with duration reconciliation, gap/segment splicing,
// concatenation, multi-video combination, and background music mixing.
// Stages run strictly in timeline order; any failure aborts the remaining
// stages, reports through the progress callback, and still cleans up
// intermediate artifacts.
package export
