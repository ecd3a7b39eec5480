// Package combiner decides whether multiple source videos can be spliced
// together and picks the cheapest correct strategy: stream-copy concatenation
// when specs already match, otherwise per-input normalization to a common
// target before re-encoding.
package combiner
