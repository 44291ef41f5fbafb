package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haivivi/julesvoice/pkg/assistant"
)

var askCmd = &cobra.Command{
	Use:   "ask <text...>",
	Short: "Submit one typed request and print the turn",
	Long: `Submit one typed request to the assistant.

The request goes through the same dialogue as a spoken one and is recorded
in the context's history. Earlier turns within assistant.lookback are sent
as conversation history.

Examples:
  julesvoice ask what are my running tasks
  julesvoice ask --json "create a task to add a README" -q .response`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("request text is empty")
		}
		s, err := loadServices()
		if err != nil {
			return err
		}
		a, closeFn, err := newAssistant(cmd.Context(), s, assistantOptions{})
		if err != nil {
			return err
		}
		defer closeFn()

		turn, err := a.SubmitText(cmd.Context(), text)
		if err != nil {
			if turn != nil {
				outputResult(cmd, turn)
			}
			return fmt.Errorf("%s", assistant.UserMessage(err))
		}
		return outputResult(cmd, turn)
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
