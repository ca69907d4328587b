package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/strrl/copycat/internal/router"
	"github.com/strrl/copycat/internal/service"
)

type statusView struct {
	BaseURL       string `json:"base_url"`
	User          string `json:"user"`
	Email         string `json:"email"`
	Projects      int    `json:"projects"`
	ContentModel  string `json:"content_model"`
	GenerateCount int    `json:"generate_count"`
	Staging       string `json:"staging"`
}

// NewStatusCommand creates the status command
func NewStatusCommand(rt *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the session, project count and active model at a glance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.enter(router.Home); err != nil {
				return err
			}

			a := rt.app
			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				return a.Users.FetchProfile(ctx)
			})
			g.Go(func() error {
				if res := a.Projects.FetchProjects(ctx, service.DefaultPage, 1); !res.Success() {
					return resultError(res)
				}
				return nil
			})
			g.Go(func() error {
				return a.Settings.FetchConfig(ctx)
			})
			if err := g.Wait(); err != nil {
				return fmt.Errorf("failed to load status: %w", err)
			}

			info := a.Users.UserInfo()
			cfg := a.Settings.Config()
			v := statusView{
				BaseURL:       a.Client.BaseURL(),
				User:          info.Name,
				Email:         info.Email,
				Projects:      a.Projects.Pagination().Total,
				ContentModel:  fmt.Sprintf("%s/%s", cfg.ContentAnalysis.Provider, cfg.ContentAnalysis.Model),
				GenerateCount: a.Settings.GenerateCount(),
				Staging:       "inline",
			}
			if a.Config.Staging.Enabled() {
				v.Staging = "minio " + a.Config.Staging.Endpoint
			}

			var b strings.Builder
			fmt.Fprintf(&b, "# %s\n\n", v.User)
			fmt.Fprintf(&b, "- **Email:** %s\n", v.Email)
			fmt.Fprintf(&b, "- **Backend:** %s\n", v.BaseURL)
			fmt.Fprintf(&b, "- **Projects:** %d\n", v.Projects)
			fmt.Fprintf(&b, "- **Content model:** %s\n", v.ContentModel)
			fmt.Fprintf(&b, "- **Variants per generation:** %d\n", v.GenerateCount)
			fmt.Fprintf(&b, "- **Image staging:** %s\n", v.Staging)
			return rt.output(cmd.OutOrStdout(), v, b.String())
		},
	}
}
