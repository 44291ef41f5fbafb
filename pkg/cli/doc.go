// Package cli provides common utilities for the julesvoice command line.
//
// This package includes:
//   - Output formatting (YAML, JSON, raw) with optional jq filtering
//   - Request file loading (YAML/JSON)
//   - Data directory layout
//   - Terminal styles for the interactive session
//
// Example usage:
//
//	var req jules.CreateSessionRequest
//	if err := cli.LoadRequest("task.yaml", &req); err != nil {
//	    return err
//	}
//
//	cli.Output(session, cli.OutputOptions{
//	    Format: cli.FormatJSON,
//	    Query:  ".sourceContext.source",
//	})
package cli
