// ABOUTME: Entry point for lift CLI.
// ABOUTME: Invokes the root Cobra command and prints failures in red.
package main

import (
	"os"

	"github.com/fatih/color"
)

func main() {
	err := rootCmd.Execute()
	if cerr := shutdown(); err == nil {
		err = cerr
	}
	if err != nil {
		color.Red("✗ %v", err)
		os.Exit(1)
	}
}
