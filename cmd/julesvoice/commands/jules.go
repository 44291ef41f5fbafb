package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/julesvoice/pkg/cli"
	"github.com/haivivi/julesvoice/pkg/jules"
)

var (
	julesPageSize int
	julesPrompt   string
	julesSource   string
	julesTitle    string
	julesBranch   string
	julesInput    string
)

var julesCmd = &cobra.Command{
	Use:   "jules",
	Short: "Call the Jules API directly",
	Long: `Call the Jules API with the credentials of the current context.

These commands run the same operations the assistant dispatches as tools.

Examples:
  julesvoice jules sessions list
  julesvoice jules sessions get sessions/123
  julesvoice jules sessions create --prompt "add a health endpoint"
  julesvoice jules sessions create -f request.yaml
  julesvoice jules sessions approve sessions/123
  julesvoice jules sessions send sessions/123 "use postgres"
  julesvoice jules sources list`,
}

var julesSessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Manage Jules sessions",
}

var julesSourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List connected repositories",
}

// julesClient loads the current context and returns its Jules client and
// default source.
func julesClient() (*jules.Client, string, error) {
	s, err := loadServices()
	if err != nil {
		return nil, "", err
	}
	client, err := newJulesClient(s)
	if err != nil {
		return nil, "", err
	}
	return client, s.Jules.DefaultSource, nil
}

var julesSessionsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List the most recent sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := julesClient()
		if err != nil {
			return err
		}
		sessions, err := client.ListSessions(cmd.Context(), julesPageSize)
		if err != nil {
			return err
		}
		return outputResult(cmd, sessions)
	},
}

var julesSessionsGetCmd = &cobra.Command{
	Use:   "get <session>",
	Short: "Show a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := julesClient()
		if err != nil {
			return err
		}
		session, err := client.GetSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return outputResult(cmd, session)
	},
}

var julesSessionsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Start a new session",
	Long: `Start a new session from flags or a request file.

The request file (YAML or JSON, "-" for stdin) has the fields:
  prompt: add a health endpoint
  source: sources/github/acme/app
  title: Health endpoint
  startingBranch: develop

The source defaults to jules.default_source of the context.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, defaultSource, err := julesClient()
		if err != nil {
			return err
		}
		req, err := createSessionRequest(defaultSource)
		if err != nil {
			return err
		}
		session, err := client.CreateSession(cmd.Context(), req)
		if err != nil {
			return err
		}
		return outputResult(cmd, session)
	},
}

// createSessionRequest merges the request file with the flags. Flags win.
func createSessionRequest(defaultSource string) (*jules.CreateSessionRequest, error) {
	var req jules.CreateSessionRequest
	if julesInput != "" {
		if err := cli.LoadRequest(julesInput, &req); err != nil {
			return nil, err
		}
	}
	if julesPrompt != "" {
		req.Prompt = julesPrompt
	}
	if julesSource != "" {
		req.Source = julesSource
	}
	if julesTitle != "" {
		req.Title = julesTitle
	}
	if julesBranch != "" {
		req.StartingBranch = julesBranch
	}
	if req.Source == "" {
		req.Source = defaultSource
	}
	if req.Prompt == "" {
		return nil, fmt.Errorf("prompt is required (use --prompt or -f)")
	}
	return &req, nil
}

var julesSessionsApproveCmd = &cobra.Command{
	Use:   "approve <session>",
	Short: "Approve the plan of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return julesAction(cmd, func(ctx context.Context, c *jules.Client) error {
			return c.ApprovePlan(ctx, args[0])
		})
	},
}

var julesSessionsSendCmd = &cobra.Command{
	Use:   "send <session> <message>",
	Short: "Send a message to a session",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return julesAction(cmd, func(ctx context.Context, c *jules.Client) error {
			return c.SendMessage(ctx, args[0], args[1])
		})
	},
}

// julesAction runs an operation without a result and reports success the
// way the assistant tools do.
func julesAction(cmd *cobra.Command, fn func(context.Context, *jules.Client) error) error {
	client, _, err := julesClient()
	if err != nil {
		return err
	}
	if err := fn(cmd.Context(), client); err != nil {
		return err
	}
	return outputResult(cmd, map[string]any{"success": true})
}

var julesSessionsActivitiesCmd = &cobra.Command{
	Use:   "activities <session>",
	Short: "List the latest activities of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := julesClient()
		if err != nil {
			return err
		}
		activities, err := client.ListActivities(cmd.Context(), args[0], julesPageSize)
		if err != nil {
			return err
		}
		return outputResult(cmd, activities)
	},
}

var julesSourcesListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List connected repositories",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := julesClient()
		if err != nil {
			return err
		}
		sources, err := client.ListSources(cmd.Context(), julesPageSize)
		if err != nil {
			return err
		}
		return outputResult(cmd, sources)
	},
}

func init() {
	for _, c := range []*cobra.Command{julesSessionsListCmd, julesSessionsActivitiesCmd, julesSourcesListCmd} {
		c.Flags().IntVar(&julesPageSize, "page-size", jules.DefaultPageSize, "number of entries to return")
	}

	julesSessionsCreateCmd.Flags().StringVarP(&julesInput, "file", "f", "", "request file (YAML or JSON, - for stdin)")
	julesSessionsCreateCmd.Flags().StringVar(&julesPrompt, "prompt", "", "task prompt")
	julesSessionsCreateCmd.Flags().StringVar(&julesSource, "source", "", "source resource name (default: jules.default_source)")
	julesSessionsCreateCmd.Flags().StringVar(&julesTitle, "title", "", "session title (default: start of the prompt)")
	julesSessionsCreateCmd.Flags().StringVar(&julesBranch, "branch", "", "starting branch")

	julesSessionsCmd.AddCommand(julesSessionsListCmd)
	julesSessionsCmd.AddCommand(julesSessionsGetCmd)
	julesSessionsCmd.AddCommand(julesSessionsCreateCmd)
	julesSessionsCmd.AddCommand(julesSessionsApproveCmd)
	julesSessionsCmd.AddCommand(julesSessionsSendCmd)
	julesSessionsCmd.AddCommand(julesSessionsActivitiesCmd)
	julesSourcesCmd.AddCommand(julesSourcesListCmd)

	julesCmd.AddCommand(julesSessionsCmd)
	julesCmd.AddCommand(julesSourcesCmd)
	rootCmd.AddCommand(julesCmd)
}
