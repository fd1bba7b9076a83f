package cli

import (
	"errors"
	"fmt"
	"os"
	"reflect"

	"github.com/Davincible/hdwallet/pkg/config"
	"github.com/spf13/cobra"
)

func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or reset the configuration file",
	}

	cmd.AddCommand(
		newConfigShowCommand(),
		newConfigInitCommand(),
		newConfigPathCommand(),
	)

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeJSON(cmd.OutOrStdout(), configFrom(cmd))
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		Long: `Write the default configuration to the config file. An existing file that
differs from the defaults is kept unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cm := configManagerFrom(cmd)
			if cm == nil {
				return errors.New("configuration is not loaded")
			}

			if _, err := os.Stat(cm.Path()); err == nil && !force && !isDefault(cm.GetConfig()) {
				return fmt.Errorf("config file %s already exists (use --force to overwrite)", cm.Path())
			}

			cm.SetConfig(config.DefaultConfig())
			if err := cm.SaveConfig(); err != nil {
				return err
			}

			green.Fprintf(cmd.OutOrStdout(), "✓ Default configuration written to %s\n", cm.Path())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing configuration")

	return cmd
}

func newConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cm := configManagerFrom(cmd)
			if cm == nil {
				return errors.New("configuration is not loaded")
			}
			fmt.Fprintln(cmd.OutOrStdout(), cm.Path())
			return nil
		},
	}
}

func isDefault(cfg *config.Config) bool {
	return reflect.DeepEqual(cfg, config.DefaultConfig())
}
