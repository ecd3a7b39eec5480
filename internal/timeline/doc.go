// Package timeline holds the segment and video model. A timeline keeps its
// segments sorted by start time and pairwise non-overlapping; every mutation
// re-validates those invariants before committing.
package timeline
