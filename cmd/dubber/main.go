package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		// An interrupted export already reported its progress; a bare
		// "context canceled" on top of that is noise.
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, "dubber:", err)
		}
		os.Exit(1)
	}
}
