package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/haivivi/julesvoice/cmd/julesvoice/internal/config"
)

// validateServiceName checks that a service name is non-empty and safe for use as a filename.
func validateServiceName(service string) error {
	if service == "" {
		return fmt.Errorf("service name cannot be empty")
	}
	if strings.ContainsAny(service, "/\\") {
		return fmt.Errorf("service name %q must not contain path separators", service)
	}
	if strings.HasPrefix(service, ".") {
		return fmt.Errorf("service name %q must not start with '.'", service)
	}
	return nil
}

// scalarValue keeps integers and booleans typed so they load into the
// service structs. Secrets are always strings.
func scalarValue(key, value string) any {
	if secretKeys[key] {
		return value
	}
	switch value {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	return value
}

// secretKeys are masked by 'config view'.
var secretKeys = map[string]bool{"api_key": true}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Manage contexts and service configurations.

A context is a named directory holding per-service YAML config files:
  gemini.yaml     api_key, model, base_url
  jules.yaml      api_key, default_source, starting_branch, base_url, timeout
  openai.yaml     api_key, model, base_url, transcribe_model, language
  assistant.yaml  backend, transcriber, lookback, instructions, history

Examples:
  julesvoice config list-contexts
  julesvoice config add-context personal
  julesvoice config use-context personal
  julesvoice config set personal jules default_source sources/github/acme/app
  julesvoice config get personal jules default_source
  julesvoice config view personal`,
}

var configListContextsCmd = &cobra.Command{
	Use:     "list-contexts",
	Aliases: []string{"ls"},
	Short:   "List all contexts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		names, err := cfg.ListContexts()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(names) == 0 {
			fmt.Fprintln(out, "No contexts configured.")
			fmt.Fprintln(out, "Create one with: julesvoice config add-context <name>")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CURRENT\tNAME\tSERVICES")
		for _, name := range names {
			current := ""
			if name == cfg.CurrentContext {
				current = "*"
			}
			services, _ := config.ListServices(cfg.ContextDir(name))
			fmt.Fprintf(w, "%s\t%s\t%s\n", current, name, strings.Join(services, ", "))
		}
		return w.Flush()
	},
}

var configAddContextCmd = &cobra.Command{
	Use:   "add-context <name>",
	Short: "Create a new context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		name := args[0]
		if err := cfg.AddContext(name); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Context %q created.\n", name)
		fmt.Fprintf(cmd.OutOrStdout(), "Configure services with: julesvoice config set %s <service> <key> <value>\n", name)
		return nil
	},
}

var configDeleteContextCmd = &cobra.Command{
	Use:   "delete-context <name>",
	Short: "Delete a context and all its service configs",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if err := cfg.DeleteContext(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Context %q deleted.\n", args[0])
		return nil
	},
}

var configUseContextCmd = &cobra.Command{
	Use:   "use-context <name>",
	Short: "Set the current context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if err := cfg.UseContext(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Switched to context %q.\n", args[0])
		return nil
	},
}

var configCurrentContextCmd = &cobra.Command{
	Use:   "current-context",
	Short: "Display the current context name",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		if cfg.CurrentContext == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "No current context set.")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), cfg.CurrentContext)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <context> <service> <key> <value>",
	Short: "Set a service config value",
	Long: `Set a key-value pair in a service's YAML config file.

Examples:
  julesvoice config set personal gemini api_key AIza...
  julesvoice config set personal jules default_source sources/github/acme/app
  julesvoice config set personal assistant lookback 1h`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		ctxName, service, key, value := args[0], args[1], args[2], args[3]
		if err := config.ValidateContextName(ctxName); err != nil {
			return err
		}
		if err := validateServiceName(service); err != nil {
			return err
		}

		contextDir := cfg.ContextDir(ctxName)
		if _, err := os.Stat(contextDir); os.IsNotExist(err) {
			return fmt.Errorf("context %q not found", ctxName)
		}

		m, err := config.LoadOptionalService[map[string]any](contextDir, service)
		if err != nil {
			return fmt.Errorf("cannot read existing %s config: %w", service, err)
		}
		// Empty YAML files unmarshal to a nil map.
		if *m == nil {
			*m = map[string]any{}
		}
		(*m)[key] = scalarValue(key, value)

		if err := config.SaveService(contextDir, service, m); err != nil {
			return err
		}
		shown := value
		if secretKeys[key] {
			shown = config.MaskAPIKey(value)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s.%s = %s (context: %s)\n", service, key, shown, ctxName)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <context> <service> <key>",
	Short: "Get a service config value",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		ctxName, service, key := args[0], args[1], args[2]
		if err := config.ValidateContextName(ctxName); err != nil {
			return err
		}
		if err := validateServiceName(service); err != nil {
			return err
		}

		m, err := config.LoadService[map[string]any](cfg.ContextDir(ctxName), service)
		if err != nil {
			return err
		}
		val, ok := (*m)[key]
		if !ok {
			return fmt.Errorf("key %q not found in %s config", key, service)
		}
		fmt.Fprintln(cmd.OutOrStdout(), val)
		return nil
	},
}

var configViewCmd = &cobra.Command{
	Use:   "view [context]",
	Short: "Show every service config of a context, secrets masked",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := GetConfig()
		if err != nil {
			return err
		}
		name := contextName
		if len(args) == 1 {
			name = args[0]
		}
		dir, err := cfg.ResolveContext(name)
		if err != nil {
			return err
		}
		services, err := config.ListServices(dir)
		if err != nil {
			return err
		}

		view := make(map[string]map[string]any, len(services))
		for _, service := range services {
			m, err := config.LoadService[map[string]any](dir, service)
			if err != nil {
				return err
			}
			for k, v := range *m {
				if s, ok := v.(string); ok && secretKeys[k] {
					(*m)[k] = config.MaskAPIKey(s)
				}
			}
			view[service] = *m
		}
		return outputResult(cmd, map[string]any{
			"context":  filepath.Base(dir),
			"services": view,
		})
	},
}

func init() {
	configCmd.AddCommand(configListContextsCmd)
	configCmd.AddCommand(configAddContextCmd)
	configCmd.AddCommand(configDeleteContextCmd)
	configCmd.AddCommand(configUseContextCmd)
	configCmd.AddCommand(configCurrentContextCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configViewCmd)

	rootCmd.AddCommand(configCmd)
}
