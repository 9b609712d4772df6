// Command waitdie prints Wait-Die schedules for inputs given on the command
// line, in YAML files, or from the built-in samples.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
