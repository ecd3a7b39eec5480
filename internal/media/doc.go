// Package media defines the encoding engine contract and its ffmpeg-backed
// implementation. The export pipeline and combiner depend only on the Engine
// interface so tests can substitute a fake.
package media
