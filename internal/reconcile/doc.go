// Package reconcile adjusts segment windows to match measured synthesized
// audio durations. Audio that fits leaves the segment alone; audio that
// outgrows the window extends the segment into free headroom, or surfaces a
// conflict for the caller to resolve by truncation, shifting, or
// resynthesis.
package reconcile
