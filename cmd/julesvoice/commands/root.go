package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/haivivi/julesvoice/cmd/julesvoice/internal/config"
	"github.com/haivivi/julesvoice/pkg/cli"
)

var (
	// Global flags
	verbose     bool
	contextName string
	outputFile  string
	outputJSON  bool
	outputQuery string
)

var rootCmd = &cobra.Command{
	Use:   "julesvoice",
	Short: "Talk to Jules by voice or text",
	Long: `julesvoice - a voice and text assistant for Jules coding tasks.

Requests are answered by a language backend (Gemini or an OpenAI-compatible
API) that can list, create and steer Jules sessions on your behalf.

Configuration is stored in the OS config directory:
  macOS:   ~/Library/Application Support/julesvoice/
  Linux:   ~/.config/julesvoice/
  Windows: %AppData%/julesvoice/

Examples:
  # Create a context and configure the services
  julesvoice config add-context personal
  julesvoice config use-context personal
  julesvoice config set personal gemini api_key YOUR_GEMINI_KEY
  julesvoice config set personal jules api_key YOUR_JULES_KEY
  julesvoice config set personal jules default_source sources/github/acme/app

  # Talk, or ask a single question
  julesvoice talk
  julesvoice ask "what are my running tasks?"`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initLogger(cmd)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logs)")
	rootCmd.PersistentFlags().StringVarP(&contextName, "context", "c", "", "context name to use")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "output as JSON (for piping)")
	rootCmd.PersistentFlags().StringVarP(&outputQuery, "query", "q", "", "jq expression applied to the output")
}

func initLogger(cmd *cobra.Command) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
}

// GetConfig loads the configuration.
func GetConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config not available: %w", err)
	}
	return cfg, nil
}

// IsVerbose returns whether verbose mode is enabled.
func IsVerbose() bool {
	return verbose
}

func outputResult(cmd *cobra.Command, result any) error {
	format := cli.FormatYAML
	if outputJSON {
		format = cli.FormatJSON
	}
	opts := cli.OutputOptions{Format: format, File: outputFile, Query: outputQuery}
	if outputFile == "" {
		opts.Writer = cmd.OutOrStdout()
	}
	return cli.Output(result, opts)
}
