package main

import (
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
)

func secondsDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

// stdoutIsTerminal reports whether stdout is an interactive terminal.
// In-place progress rewriting is only safe when it is.
func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func formatDuration(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds + 0.5)
	minutes := total / 60
	secs := total % 60
	if minutes >= 60 {
		return fmt.Sprintf("%d:%02d:%02d", minutes/60, minutes%60, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}
