package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/strrl/copycat/internal/app"
	"github.com/strrl/copycat/internal/render"
	"github.com/strrl/copycat/internal/router"
	"github.com/strrl/copycat/pkg/models"
)

// NewAnalyzeCommand creates the analyze command
func NewAnalyzeCommand(rt *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "analyze",
		Aliases: []string{"a"},
		Short:   "Break down a post, pasted copy or a set of images",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			return rt.enter(router.Home)
		},
	}

	cmd.AddCommand(
		newAnalyzeURLCommand(rt),
		newAnalyzeTextCommand(rt),
		newAnalyzeImagesCommand(rt),
	)
	return cmd
}

type urlResult struct {
	*app.URLAnalysis
	Generated *models.GenerateResult `json:",omitempty"`
}

func newAnalyzeURLCommand(rt *cliState) *cobra.Command {
	var topic string

	cmd := &cobra.Command{
		Use:   "url <post-url>",
		Short: "Crawl a post, analyze it and optionally write new copy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			res, err := rt.app.AnalyzeURL(ctx, args[0])
			if err != nil {
				return err
			}
			out := urlResult{URLAnalysis: res}

			var b strings.Builder
			b.WriteString(render.Note(res.Note))
			b.WriteString("\n")
			b.WriteString(render.Analysis(res.Analysis))

			if topic != "" {
				gen, err := rt.app.Generate(ctx, res.Project.ID, topic, res.HistoryID)
				if err != nil {
					return err
				}
				out.Generated = gen
				b.WriteString("\n")
				b.WriteString(render.Variants(*gen))
			}
			return rt.output(cmd.OutOrStdout(), out, b.String())
		},
	}

	cmd.Flags().StringVarP(&topic, "topic", "t", "", "Also generate copy on this topic")
	return cmd
}

func newAnalyzeTextCommand(rt *cliState) *cobra.Command {
	var title, contentType string

	cmd := &cobra.Command{
		Use:   "text [content]",
		Short: "Analyze pasted copy; reads stdin when content is omitted or -",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := argOrStdin(cmd, args)
			if err != nil {
				return err
			}
			ct := models.ContentType(contentType)
			if ct != models.ContentText && ct != models.ContentVideo {
				return fmt.Errorf("invalid content type %q, want text or video", contentType)
			}
			res, err := rt.app.AnalyzeText(cmd.Context(), title, content, ct)
			if err != nil {
				return err
			}
			return rt.output(cmd.OutOrStdout(), res, render.Analysis(*res))
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Post title")
	cmd.Flags().StringVar(&contentType, "type", string(models.ContentText), "text or video (a video script)")
	return cmd
}

func newAnalyzeImagesCommand(rt *cliState) *cobra.Command {
	var projectID string

	cmd := &cobra.Command{
		Use:   "images <file-or-url>...",
		Short: "Analyze the visual strategy of a set of images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := rt.app.AnalyzeImages(cmd.Context(), args, projectID)
			if err != nil {
				return err
			}
			return rt.output(cmd.OutOrStdout(), res, render.Images(*res))
		},
	}

	cmd.Flags().StringVar(&projectID, "project", "", "Attach the analysis to this project")
	return cmd
}

// NewGenerateCommand creates the generate command
func NewGenerateCommand(rt *cliState) *cobra.Command {
	var topic string

	cmd := &cobra.Command{
		Use:     "generate <project-id>",
		Aliases: []string{"gen"},
		Short:   "Write new copy on a topic in the style of an analyzed project",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.enter(router.Home); err != nil {
				return err
			}
			res, err := rt.app.Generate(cmd.Context(), args[0], topic, "")
			if err != nil {
				return err
			}
			return rt.output(cmd.OutOrStdout(), res, render.Variants(*res))
		},
	}

	cmd.Flags().StringVarP(&topic, "topic", "t", "", "New topic")
	_ = cmd.MarkFlagRequired("topic")
	return cmd
}

// NewCrawlCommand creates the crawl command
func NewCrawlCommand(rt *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "crawl <post-url>",
		Short: "Fetch a post without analyzing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.enter(router.Home); err != nil {
				return err
			}
			res, err := app.Unwrap(rt.app.Services.Crawler.Crawl(cmd.Context(), args[0]))
			if err != nil {
				return fmt.Errorf("failed to crawl %s: %w", args[0], err)
			}
			if !res.Success || res.Content == nil {
				msg := res.Error
				if msg == "" {
					msg = "crawler returned no content"
				}
				return fmt.Errorf("failed to crawl %s: %s", args[0], msg)
			}
			return rt.output(cmd.OutOrStdout(), res, render.Note(*res.Content))
		},
	}
}

func argOrStdin(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 1 && args[0] != "-" {
		return args[0], nil
	}
	raw, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}
