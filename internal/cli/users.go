package cli

import (
	"agentmart/internal/app"
	"agentmart/internal/core/domain"
	"agentmart/internal/core/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

func newUsersCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage marketplace accounts",
	}
	cmd.AddCommand(newUsersCreateCmd(a))
	return cmd
}

// Admin accounts can only be created here or through seeding; sign-up
// refuses them.
func newUsersCreateCmd(a *App) *cobra.Command {
	var email, password, name, role string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an account in the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := domain.ParseRole(role)
			if err != nil {
				return writeErr(cmd, err)
			}
			cfg, err := a.loadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			ctx := cmd.Context()
			market, err := app.New(ctx, cfg, prometheus.NewRegistry(), a.logger())
			if err != nil {
				return writeErr(cmd, err)
			}
			defer market.Close()

			var ident *domain.Identity
			if r == domain.RoleAdmin {
				ident, err = market.Auth.SeedAdmin(ctx, email, password)
			} else {
				ident, err = market.Auth.SignUp(ctx, ports.SignUpRequest{
					Email:    email,
					Password: password,
					Name:     name,
					Role:     r,
				})
			}
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, a, map[string]any{
				"user":      ident,
				"dashboard": ident.Role.DashboardPath(),
				"storage":   market.Repos.Backend(),
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&role, "role", "", "Role (enterprise|creator|admin)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	_ = cmd.MarkFlagRequired("role")
	return cmd
}
