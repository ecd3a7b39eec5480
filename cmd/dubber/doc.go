// Command dubber is the CLI for the voice-over timeline engine: it lists
// and inspects saved projects, queries the synthesis service's voice
// catalog, and drives full or single-segment exports.
package main
