// Package main is the entry point for the xchainkeys daemon.
package main

import (
	"context"
	"fmt"
	"os"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	root := newRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "xchainkeys: %v\n", err)
		return 1
	}
	return 0
}
