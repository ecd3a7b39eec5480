// Package ttscache persists synthesized audio artifacts keyed by the full
// synthesis request (text, voice, rate, volume, pitch). Entries pointing at
// files that have since disappeared are pruned lazily on lookup.
package ttscache
