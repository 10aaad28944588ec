package cli

import (
	"net/http"
	"net/http/httptest"

	"agentmart/internal/app"
	"agentmart/internal/core/routing"

	"github.com/spf13/cobra"
)

func newRouteCmd(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "route",
		Short: "Inspect the edge route table",
	}
	cmd.AddCommand(newRouteCheckCmd(a))
	return cmd
}

// newRouteCheckCmd runs the configured gate against a synthetic request so
// operators can see why a path redirects.
func newRouteCheckCmd(a *App) *cobra.Command {
	var cookie string
	cmd := &cobra.Command{
		Use:   "check <path>",
		Short: "Show the edge decision for a path and optional session cookie",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			codec, err := app.NewCodec(cfg)
			if err != nil {
				return writeErr(cmd, err)
			}
			gate, err := app.NewGate(cfg)
			if err != nil {
				return writeErr(cmd, err)
			}

			req := httptest.NewRequest(http.MethodGet, args[0], nil)
			if cookie != "" {
				req.AddCookie(&http.Cookie{Name: codec.CookieName(), Value: cookie})
			}
			state, d := codec.Read(req)
			in := routing.Request{Path: req.URL.Path, RawQuery: req.URL.RawQuery, Session: state}
			if d != nil {
				in.Identity = d.Identity()
			}
			decision := gate.Decide(in)

			return writeOut(cmd, a, map[string]any{
				"path":         req.URL.Path,
				"session":      state.String(),
				"action":       decision.Action.String(),
				"reason":       decision.Reason,
				"location":     decision.Location,
				"clear_cookie": decision.ClearCookie,
			})
		},
	}
	cmd.Flags().StringVar(&cookie, "cookie", "", "Raw user-session cookie value")
	return cmd
}
