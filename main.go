// Package main provides the entry point for rvpipe.
// rvpipe is a cycle-accurate 5-stage RISC-V pipeline simulator.
//
// For the full CLI, use: go run ./cmd/rvpipe
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("rvpipe - 5-stage RISC-V pipeline simulator")
	fmt.Println("")
	fmt.Println("Usage: rvpipe <command> [options]")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  run <program>      Run a program on one configuration")
	fmt.Println("  compare <program>  Compare Basic, NoHazards, NoPredictor, and Full")
	fmt.Println("  bench              Run the built-in microbenchmarks")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/rvpipe --help' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: You provided arguments. Use 'go run ./cmd/rvpipe' instead.")
	}
}
