package cli

import (
	"agentmart/internal/infrastructure/repositories"

	"github.com/spf13/cobra"
)

// newMigrateCmd opens the configured store, which applies pending schema
// migrations for the SQL backends, and reports the backend reached.
func newMigrateCmd(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			repos, err := repositories.NewRepositoryFactory(cmd.Context(), cfg, a.logger())
			if err != nil {
				return writeErr(cmd, err)
			}
			defer repos.Close()

			if err := repos.HealthCheck(cmd.Context()); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, a, map[string]any{
				"backend": repos.Backend(),
				"status":  "up to date",
			})
		},
	}
}
