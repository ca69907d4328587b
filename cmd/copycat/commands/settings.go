package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/strrl/copycat/internal/providers"
	"github.com/strrl/copycat/internal/router"
	"github.com/strrl/copycat/internal/store"
	"github.com/strrl/copycat/pkg/models"
)

// NewSettingsCommand creates the settings command. Every subcommand loads the
// saved configuration first, so changes apply on top of it.
func NewSettingsCommand(rt *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change model providers, keys and generation settings",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			if err := rt.enter(router.Settings); err != nil {
				return err
			}
			if err := rt.app.Settings.FetchConfig(cmd.Context()); err != nil {
				return fmt.Errorf("failed to load settings: %w", err)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return showSettings(cmd, rt)
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the saved configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return showSettings(cmd, rt)
			},
		},
		newSettingsSetKeyCommand(rt),
		newSettingsSetSlotCommand(rt),
		newSettingsSetGenerateCommand(rt),
		newSettingsSetTaskCommand(rt),
		newSettingsTestCommand(rt),
		newSettingsProvidersCommand(rt),
	)
	return cmd
}

type slotView struct {
	Task     models.TaskType `json:"task"`
	Provider models.Provider `json:"provider"`
	Model    string          `json:"model"`
	BaseURL  string          `json:"base_url"`
	APIKey   string          `json:"api_key"`
}

type settingsView struct {
	Slots         []slotView                 `json:"slots"`
	ProviderKeys  map[models.Provider]string `json:"provider_keys"`
	GenerateCount int                        `json:"generate_count"`
	DefaultTask   models.TaskType            `json:"default_task"`
}

func showSettings(cmd *cobra.Command, rt *cliState) error {
	s := rt.app.Settings
	cfg := s.Config()
	keys := s.ProviderKeys()

	v := settingsView{
		ProviderKeys:  map[models.Provider]string{},
		GenerateCount: s.GenerateCount(),
		DefaultTask:   s.ActiveTab(),
	}
	for _, t := range models.TaskTypes {
		slot := cfg.Slot(t)
		v.Slots = append(v.Slots, slotView{
			Task:     t,
			Provider: slot.Provider,
			Model:    slot.Model,
			BaseURL:  slot.BaseURL,
			APIKey:   maskKey(slot.APIKey),
		})
	}
	for _, p := range models.Providers {
		if k := keys.Get(p); k != "" {
			v.ProviderKeys[p] = maskKey(k)
		}
	}

	var b strings.Builder
	b.WriteString("# Settings\n\n| Task | Provider | Model | Base URL | Key |\n|---|---|---|---|---|\n")
	for _, sl := range v.Slots {
		marker := ""
		if sl.Task == v.DefaultTask {
			marker = " *"
		}
		fmt.Fprintf(&b, "| %s%s | %s | %s | %s | %s |\n", sl.Task, marker, sl.Provider, sl.Model, orNone(sl.BaseURL), orNone(sl.APIKey))
	}
	b.WriteString("\n## Provider keys\n\n")
	if len(v.ProviderKeys) == 0 {
		b.WriteString("No keys saved.\n")
	}
	for _, p := range models.Providers {
		if k, ok := v.ProviderKeys[p]; ok {
			fmt.Fprintf(&b, "- **%s:** %s\n", p, k)
		}
	}
	fmt.Fprintf(&b, "\nVariants per generation: %d\n", v.GenerateCount)

	return rt.output(cmd.OutOrStdout(), v, b.String())
}

func newSettingsSetKeyCommand(rt *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "set-key <provider> <api-key>",
		Short: "Save the API key for a provider",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.app.Settings.SetProviderKey(models.Provider(args[0]), args[1]); err != nil {
				return err
			}
			return sayResult(cmd, rt, rt.app.Settings.SaveAPIConfig(cmd.Context()))
		},
	}
}

func newSettingsSetSlotCommand(rt *cliState) *cobra.Command {
	var provider, model, baseURL, apiKey string

	cmd := &cobra.Command{
		Use:   "set-slot <task>",
		Short: "Change the provider, model or endpoint used for a task",
		Long: `Change the provider, model or endpoint used for a task.
Tasks: contentAnalysis, imageAnalysis, videoAnalysis, speechSynthesis.
Switching --provider without --base-url uses the provider's default endpoint.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task := models.TaskType(args[0])
			cfg := rt.app.Settings.Config()
			slot := cfg.Slot(task)
			if slot == nil {
				return fmt.Errorf("unknown task type %q", task)
			}
			next := *slot

			flags := cmd.Flags()
			if flags.Changed("provider") {
				info, ok := providers.Lookup(models.Provider(provider))
				if !ok {
					return fmt.Errorf("unknown provider %q", provider)
				}
				next.Provider = info.Provider
				if !flags.Changed("base-url") {
					next.BaseURL = info.BaseURL
				}
			}
			if flags.Changed("model") {
				next.Model = model
			}
			if flags.Changed("base-url") {
				next.BaseURL = baseURL
			}
			keyChanged := flags.Changed("api-key")
			if next == *slot && !keyChanged {
				return fmt.Errorf("nothing to change")
			}

			s := rt.app.Settings
			if err := s.SetSlot(task, next); err != nil {
				return err
			}
			// Keys are stored per provider; the slot's own api_key is never sent.
			if keyChanged {
				if err := s.SetProviderKey(next.Provider, apiKey); err != nil {
					return err
				}
			}
			if res := s.SaveAPIConfig(cmd.Context()); !res.Success() {
				return resultError(res)
			}
			return sayResult(cmd, rt, s.SaveModelConfig(cmd.Context()))
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Provider name, see `copycat settings providers`")
	cmd.Flags().StringVar(&model, "model", "", "Model name")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "API endpoint")
	cmd.Flags().StringVar(&apiKey, "api-key", "", "API key for the slot's provider")
	return cmd
}

func newSettingsSetGenerateCommand(rt *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "set-generate <count>",
		Short: "Set how many variants each generation returns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid count %q: %w", args[0], err)
			}
			if err := rt.app.Settings.SetGenerateCount(n); err != nil {
				return err
			}
			return sayResult(cmd, rt, rt.app.Settings.SaveGenerateConfig(cmd.Context()))
		},
	}
}

func newSettingsSetTaskCommand(rt *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "set-task <task>",
		Short: "Set the task shown first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task := models.TaskType(args[0])
			if err := rt.app.Settings.SetActiveTab(task); err != nil {
				return err
			}
			return sayResult(cmd, rt, rt.app.Settings.SaveTaskType(cmd.Context(), task))
		},
	}
}

func newSettingsTestCommand(rt *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "test [task]",
		Short: "Check that the provider configured for a task accepts its key",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task := rt.app.Settings.ActiveTab()
			if len(args) == 1 {
				task = models.TaskType(args[0])
			}
			return sayResult(cmd, rt, rt.app.Settings.TestProvider(cmd.Context(), task))
		},
	}
}

func newSettingsProvidersCommand(rt *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List supported providers and their default endpoints",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Root().PersistentPreRunE(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			list := providers.Catalog()
			var b strings.Builder
			b.WriteString("| Provider | Name | Default endpoint |\n|---|---|---|\n")
			for _, p := range list {
				fmt.Fprintf(&b, "| %s | %s | %s |\n", p.Provider, p.DisplayName, p.BaseURL)
			}
			return rt.output(cmd.OutOrStdout(), list, b.String())
		},
	}
}

func sayResult(cmd *cobra.Command, rt *cliState, res store.Result) error {
	if !res.Success() {
		return resultError(res)
	}
	return rt.say(cmd.OutOrStdout(), res.Message)
}

// maskKey keeps the first and last four characters of long keys
func maskKey(k string) string {
	switch {
	case k == "":
		return ""
	case len(k) <= 8:
		return strings.Repeat("*", len(k))
	default:
		return k[:4] + strings.Repeat("*", len(k)-8) + k[len(k)-4:]
	}
}

func orNone(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
