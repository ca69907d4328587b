package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strrl/copycat/internal/app"
	"github.com/strrl/copycat/internal/render"
	"github.com/strrl/copycat/internal/router"
	"github.com/strrl/copycat/internal/service"
	"github.com/strrl/copycat/pkg/models"
)

// NewProjectsCommand creates the projects command
func NewProjectsCommand(rt *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project", "p"},
		Short:   "Manage saved analysis projects",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			return rt.enter(router.History)
		},
	}

	cmd.AddCommand(
		newProjectsListCommand(rt),
		newProjectsShowCommand(rt),
		newProjectsCreateCommand(rt),
		newProjectsUpdateCommand(rt),
		newProjectsDeleteCommand(rt),
		newProjectsCheckCommand(rt),
	)
	return cmd
}

func newProjectsListCommand(rt *cliState) *cobra.Command {
	var page, pageSize int

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List projects, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res := rt.app.Projects.FetchProjects(cmd.Context(), page, pageSize)
			if !res.Success() {
				return resultError(res)
			}
			list := rt.app.Projects.Projects()
			pg := rt.app.Projects.Pagination()
			if rt.jsonOutput {
				return rt.output(cmd.OutOrStdout(), models.ProjectList{
					List: list, Total: pg.Total, Page: pg.Page, PageSize: pg.PageSize,
				}, "")
			}
			return rt.output(cmd.OutOrStdout(), nil, render.Projects(list, pg))
		},
	}

	cmd.Flags().IntVar(&page, "page", service.DefaultPage, "Page number")
	cmd.Flags().IntVar(&pageSize, "page-size", service.DefaultPageSize, "Projects per page")
	return cmd
}

func newProjectsShowCommand(rt *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := getProject(cmd.Context(), rt, args[0])
			if err != nil {
				return err
			}
			return rt.output(cmd.OutOrStdout(), p, render.Project(*p))
		},
	}
}

func getProject(ctx context.Context, rt *cliState, id string) (*models.Project, error) {
	p, err := app.Unwrap(rt.app.Services.Projects.Get(ctx, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get project %s: %w", id, err)
	}
	return p, nil
}

func newProjectsCreateCommand(rt *cliState) *cobra.Command {
	var req service.CreateProjectRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project from a URL or pasted content",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.SourceURL == "" && req.SourceContent == "" {
				return fmt.Errorf("pass --url or --content")
			}
			p, res := rt.app.Projects.CreateProject(cmd.Context(), req)
			if !res.Success() {
				return resultError(res)
			}
			return rt.output(cmd.OutOrStdout(), p, render.Project(p))
		},
	}

	cmd.Flags().StringVar(&req.SourceURL, "url", "", "Source post URL")
	cmd.Flags().StringVar(&req.SourceContent, "content", "", "Source text")
	return cmd
}

func newProjectsUpdateCommand(rt *cliState) *cobra.Command {
	var req service.UpdateProjectRequest
	var status string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Status = models.ProjectStatus(status)
			if req == (service.UpdateProjectRequest{}) {
				return fmt.Errorf("nothing to update")
			}
			switch req.Status {
			case "", models.StatusDraft, models.StatusAnalyzed, models.StatusCompleted:
			default:
				return fmt.Errorf("invalid status %q", status)
			}
			res := rt.app.Projects.UpdateProject(cmd.Context(), args[0], req)
			if !res.Success() {
				return resultError(res)
			}
			return rt.say(cmd.OutOrStdout(), res.Message)
		},
	}

	cmd.Flags().StringVar(&req.SourceURL, "url", "", "Source post URL")
	cmd.Flags().StringVar(&req.SourceContent, "content", "", "Source text")
	cmd.Flags().StringVar(&req.NewTopic, "topic", "", "Topic for generated copy")
	cmd.Flags().StringVar(&req.GeneratedContent, "generated", "", "Generated copy")
	cmd.Flags().StringVar(&status, "status", "", "draft, analyzed or completed")
	return cmd
}

func newProjectsDeleteCommand(rt *cliState) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>...",
		Aliases: []string{"rm", "batch-delete"},
		Short:   "Delete one or more projects",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				res := rt.app.Projects.DeleteProject(cmd.Context(), args[0])
				if !res.Success() {
					return resultError(res)
				}
				return rt.say(cmd.OutOrStdout(), res.Message)
			}
			n, res := rt.app.Projects.BatchDeleteProjects(cmd.Context(), args)
			if !res.Success() {
				return resultError(res)
			}
			return rt.say(cmd.OutOrStdout(), fmt.Sprintf("%s, %d deleted", res.Message, n))
		},
	}
}

func newProjectsCheckCommand(rt *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "check <url>",
		Short: "Find the project already tracking a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := rt.app.Services.Projects.CheckByURL(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to check %s: %w", args[0], err)
			}
			if !env.OK() {
				return env.Err()
			}
			if env.Data == nil || env.Data.ID == "" {
				return rt.say(cmd.OutOrStdout(), "no project tracks "+args[0])
			}
			return rt.output(cmd.OutOrStdout(), env.Data, render.Project(*env.Data))
		},
	}
}
