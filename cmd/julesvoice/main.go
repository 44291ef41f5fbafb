// Package main is the entry point for the julesvoice CLI.
//
// Usage:
//
//	julesvoice [flags] <command> [subcommand] [args]
//
// Commands:
//
//	talk        - Push-to-talk session with the microphone
//	ask         - Answer one typed request
//	transcribe  - Transcribe an audio file
//	jules       - Jules API (sessions, sources)
//	history     - Show stored interactions
//	config      - Configuration management (contexts, services)
//	version     - Show version information
package main

import (
	"fmt"
	"os"

	"github.com/haivivi/julesvoice/cmd/julesvoice/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
