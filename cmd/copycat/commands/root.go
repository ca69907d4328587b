package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/strrl/copycat/internal/app"
	"github.com/strrl/copycat/internal/config"
	"github.com/strrl/copycat/internal/logging"
	"github.com/strrl/copycat/internal/render"
	"github.com/strrl/copycat/internal/router"
	"github.com/strrl/copycat/internal/tui"
)

// ErrNotLoggedIn is returned by commands that need a session when none exists
var ErrNotLoggedIn = errors.New("not logged in, run `copycat login` first")

// cliState is shared by every command. It is filled in by the root command's
// PersistentPreRunE once flags are parsed.
type cliState struct {
	configPath string
	baseURL    string
	verbose    bool
	jsonOutput bool

	logger *zap.Logger
	app    *app.App
}

// NewRootCommand creates the root command. The returned state owns the app
// built before any subcommand runs; call its teardown once the command returns.
func NewRootCommand() (*cobra.Command, *cliState) {
	rt := &cliState{}

	rootCmd := &cobra.Command{
		Use:   "copycat",
		Short: "Break down viral posts and write new copy from them",
		Long: `copycat is a terminal client for the CopyCat analysis service.
Run it without arguments for the interactive interface, or use the
subcommands to script analyses, projects, batches and settings.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(cmd.Context(), rt.app)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&rt.configPath, "config", config.DefaultPath(), "Path to the config file")
	flags.StringVar(&rt.baseURL, "base-url", "", "Backend API root (overrides config)")
	flags.BoolVarP(&rt.verbose, "verbose", "v", false, "Log debug output")
	flags.BoolVar(&rt.jsonOutput, "json", false, "Print raw JSON instead of formatted output")

	rootCmd.AddCommand(
		NewTUICommand(rt),
		NewLoginCommand(rt),
		NewRegisterCommand(rt),
		NewLogoutCommand(rt),
		NewWhoamiCommand(rt),
		NewProfileCommand(rt),
		NewProjectsCommand(rt),
		NewAnalyzeCommand(rt),
		NewGenerateCommand(rt),
		NewCrawlCommand(rt),
		NewBatchCommand(rt),
		NewSettingsCommand(rt),
		NewStatusCommand(rt),
		NewConfigCommand(rt),
	)

	return rootCmd, rt
}

// Execute runs the root command
func Execute() {
	config.LoadDotEnv()

	rootCmd, rt := NewRootCommand()
	err := rootCmd.ExecuteContext(context.Background())
	rt.teardown()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// NewTUICommand creates the tui command
func NewTUICommand(rt *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(cmd.Context(), rt.app)
		},
	}
}

// interactive reports whether cmd takes over the terminal
func interactive(cmd *cobra.Command) bool {
	return !cmd.HasParent() || cmd.Name() == "tui"
}

func (rt *cliState) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(rt.configPath)
	if err != nil {
		return err
	}
	if rt.baseURL != "" {
		cfg.BaseURL = rt.baseURL
	}
	if rt.verbose {
		cfg.LogLevel = zapcore.DebugLevel.String()
	}

	logFile := ""
	if interactive(cmd) {
		logFile = cfg.LogPath()
	}
	rt.logger, err = logging.New(cfg.LogLevel, logFile)
	if err != nil {
		return err
	}

	rt.app, err = app.New(cfg, rt.logger)
	if err != nil {
		return fmt.Errorf("failed to start: %w", err)
	}
	rt.app.Initialize(cmd.Context())
	return nil
}

// teardown closes the app and flushes the logger; it is safe to call twice
func (rt *cliState) teardown() {
	if rt.app != nil {
		if err := rt.app.Close(); err != nil {
			rt.logger.Warn("failed to close app", zap.Error(err))
		}
		rt.app = nil
	}
	if rt.logger != nil {
		_ = rt.logger.Sync()
		rt.logger = nil
	}
}

// enter passes the command through the login gate as if it were a screen
func (rt *cliState) enter(name router.Name) error {
	dest, err := rt.app.Router.Navigate(name)
	if err != nil {
		return err
	}
	if dest == router.Login && name != router.Login {
		return ErrNotLoggedIn
	}
	return nil
}

// output prints v as JSON with --json, otherwise md rendered for the terminal
func (rt *cliState) output(w io.Writer, v any, md string) error {
	if rt.jsonOutput {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := io.WriteString(w, render.New(100).Render(md))
	return err
}

// say prints a one-line message unless --json is set, in which case it prints
// {"message": msg}
func (rt *cliState) say(w io.Writer, msg string) error {
	if rt.jsonOutput {
		return json.NewEncoder(w).Encode(map[string]string{"message": msg})
	}
	_, err := fmt.Fprintln(w, msg)
	return err
}
