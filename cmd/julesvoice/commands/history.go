package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/julesvoice/pkg/history"
)

var (
	historyWindow   bool
	historyLookback time.Duration
	historyLimit    int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded interactions",
	Long: `Show the interactions recorded for the current context, newest first.

With --window only the answered interactions that would be sent as
conversation history are shown, oldest first, as the model sees them.

Examples:
  julesvoice history
  julesvoice history --limit 5 --json
  julesvoice history --window --lookback 1h`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadServices()
		if err != nil {
			return err
		}
		store, closeStore, err := openStore(s)
		if err != nil {
			return err
		}
		defer closeStore()

		all, err := store.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list interactions: %w", err)
		}

		if !historyWindow {
			if historyLimit > 0 && len(all) > historyLimit {
				all = all[:historyLimit]
			}
			return outputResult(cmd, all)
		}

		lookback := historyLookback
		if lookback == 0 {
			if lookback, err = s.Assistant.LookbackDuration(); err != nil {
				return err
			}
		}
		kept := history.Select(all, time.Now(), lookback)
		turns := make([]map[string]string, 0, len(kept))
		for _, it := range kept {
			turns = append(turns, map[string]string{
				"user":  history.UserText(it),
				"model": it.Response,
			})
		}
		return outputResult(cmd, turns)
	},
}

func init() {
	historyCmd.Flags().BoolVar(&historyWindow, "window", false, "show only the conversation history window")
	historyCmd.Flags().DurationVar(&historyLookback, "lookback", 0, "window length (default: assistant.lookback)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "maximum number of interactions (0 for all)")
	rootCmd.AddCommand(historyCmd)
}
