package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/strrl/copycat/internal/config"
)

// NewConfigCommand creates the config command. It works on the file alone,
// so it needs neither a session nor the backend.
func NewConfigCommand(rt *cliState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or edit the config file",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file location",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), rt.configPath)
				return err
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the saved settings, secrets masked",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.LoadFile(rt.configPath)
				if err != nil {
					return err
				}
				cfg.Staging.SecretKey = maskKey(cfg.Staging.SecretKey)
				if rt.jsonOutput {
					return rt.output(cmd.OutOrStdout(), cfg, "")
				}
				out, err := yaml.Marshal(cfg)
				if err != nil {
					return fmt.Errorf("failed to marshal config: %w", err)
				}
				_, err = cmd.OutOrStdout().Write(out)
				return err
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Change one setting and save the file",
			Long:  "Change one setting and save the file.\nKeys: " + strings.Join(config.Keys, ", "),
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.LoadFile(rt.configPath)
				if err != nil {
					return err
				}
				if err := cfg.Set(args[0], args[1]); err != nil {
					return err
				}
				if err := cfg.Save(rt.configPath); err != nil {
					return err
				}
				return rt.say(cmd.OutOrStdout(), fmt.Sprintf("%s saved to %s", args[0], rt.configPath))
			},
		},
	)
	return cmd
}
