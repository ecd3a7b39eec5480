// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect executes ffprobe and returns the parsed Result; helper methods
// expose duration, stream counts, and the video stream summary the timeline
// model caches (width, height, fps, codec, audio presence).
package ffprobe
