// Package cli is marketctl, the operator command line for the marketplace.
package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"agentmart/pkg/config"
	"agentmart/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type App struct {
	ConfigPath string
	LogLevel   string
	PrettyJSON bool
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "marketctl",
		Short:        "Operate an agentmart marketplace",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Inspect a session cookie value
  marketctl session decode '%7B%22id%22%3A%22u1%22...'

  # Ask the edge gate what it would do with a request
  marketctl route check /dashboard/admin --cookie "$COOKIE"

  # Create the first admin
  marketctl users create --email root@example.com --password ... --role admin
`),
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", envOr("AGENTMART_CONFIG", "configs/config.yaml"), "Path to the YAML config file")
	cmd.PersistentFlags().StringVar(&app.LogLevel, "log-level", "warn", "Log level for storage diagnostics")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")

	cmd.AddCommand(newSessionCmd(app))
	cmd.AddCommand(newRouteCmd(app))
	cmd.AddCommand(newUsersCmd(app))
	cmd.AddCommand(newMigrateCmd(app))

	return cmd
}

func (a *App) loadConfig() (*config.Config, error) {
	return config.Load(a.ConfigPath)
}

func (a *App) logger() *zap.SugaredLogger {
	return logger.New(a.LogLevel).Sugar()
}

func envOr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

// writeOut prints v wrapped in a {"data": ...} envelope.
func writeOut(cmd *cobra.Command, app *App, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	if app.PrettyJSON {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(map[string]any{"data": v})
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
