package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/strrl/copycat/internal/app"
	"github.com/strrl/copycat/internal/render"
	"github.com/strrl/copycat/internal/router"
	"github.com/strrl/copycat/internal/service"
	"github.com/strrl/copycat/pkg/models"
)

const defaultWatchInterval = 2 * time.Second

// NewBatchCommand creates the batch command
func NewBatchCommand(rt *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Analyze many post URLs in the background",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			return rt.enter(router.Home)
		},
	}

	cmd.AddCommand(
		newBatchCreateCommand(rt),
		newBatchStatusCommand(rt),
		newBatchListCommand(rt),
		newBatchWatchCommand(rt),
	)
	return cmd
}

func newBatchCreateCommand(rt *cliState) *cobra.Command {
	var watch bool
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "create <post-url>...",
		Short: "Queue URLs for analysis; reads one URL per line from stdin when none are given",
		RunE: func(cmd *cobra.Command, args []string) error {
			urls := args
			if len(urls) == 0 {
				text, err := argOrStdin(cmd, nil)
				if err != nil {
					return err
				}
				urls = strings.Fields(text)
			}
			if len(urls) == 0 {
				return fmt.Errorf("no URLs given")
			}

			created, err := app.Unwrap(rt.app.Services.Batch.Create(cmd.Context(), urls))
			if err != nil {
				return fmt.Errorf("failed to create batch: %w", err)
			}
			if !watch {
				return rt.output(cmd.OutOrStdout(), created,
					fmt.Sprintf("Batch `%s` queued with %d URLs (%s)\n", created.BatchID, created.TotalCount, created.Status))
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "batch %s queued with %d URLs\n", created.BatchID, created.TotalCount)
			return watchBatch(cmd, rt, created.BatchID, interval)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Wait for the batch to finish")
	cmd.Flags().DurationVar(&interval, "interval", defaultWatchInterval, "Poll interval while watching")
	return cmd
}

func newBatchStatusCommand(rt *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "status <batch-id>",
		Short: "Show the progress of a batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := batchStatus(cmd.Context(), rt, args[0])
			if err != nil {
				return err
			}
			return rt.output(cmd.OutOrStdout(), st, render.Batch(*st))
		},
	}
}

func newBatchListCommand(rt *cliState) *cobra.Command {
	var page, pageSize int

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List batch tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := app.Unwrap(rt.app.Services.Batch.List(cmd.Context(), page, pageSize))
			if err != nil {
				return fmt.Errorf("failed to list batches: %w", err)
			}

			var b strings.Builder
			b.WriteString("| Batch | Status | Done | Failed | Total |\n|---|---|---|---|---|\n")
			for _, t := range list.List {
				fmt.Fprintf(&b, "| %s | %s | %d | %d | %d |\n", t.BatchID, t.Status, t.SuccessCount, t.FailedCount, t.TotalCount)
			}
			fmt.Fprintf(&b, "\nPage %d, %d per page, %d total\n", list.Page, list.PageSize, list.Total)
			return rt.output(cmd.OutOrStdout(), list, b.String())
		},
	}

	cmd.Flags().IntVar(&page, "page", service.DefaultPage, "Page number")
	cmd.Flags().IntVar(&pageSize, "page-size", service.DefaultPageSize, "Batches per page")
	return cmd
}

func newBatchWatchCommand(rt *cliState) *cobra.Command {
	var interval time.Duration

	cmd := &cobra.Command{
		Use:   "watch <batch-id>",
		Short: "Poll a batch until it finishes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return watchBatch(cmd, rt, args[0], interval)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", defaultWatchInterval, "Poll interval")
	return cmd
}

func batchStatus(ctx context.Context, rt *cliState, id string) (*models.BatchTaskStatus, error) {
	st, err := app.Unwrap(rt.app.Services.Batch.Status(ctx, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get batch %s: %w", id, err)
	}
	return st, nil
}

// watchBatch polls until the batch is done or the context ends. Progress goes
// to stderr so stdout only carries the final report.
func watchBatch(cmd *cobra.Command, rt *cliState, id string, interval time.Duration) error {
	if interval <= 0 {
		interval = defaultWatchInterval
	}
	ctx := cmd.Context()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		st, err := batchStatus(ctx, rt, id)
		if err != nil {
			return err
		}
		if st.Done() {
			return rt.output(cmd.OutOrStdout(), st, render.Batch(*st))
		}
		progress(cmd.ErrOrStderr(), st)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func progress(w io.Writer, st *models.BatchTaskStatus) {
	fmt.Fprintf(w, "%s: %d/%d done, %d failed\n", st.Status, st.SuccessCount+st.FailedCount, st.TotalCount, st.FailedCount)
}
