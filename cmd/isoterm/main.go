package main

import (
	"fmt"
	"os"
)

// Version is set at build time via -ldflags.
var Version = "v0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "\nError: %v\n", err)
		os.Exit(1)
	}
}
