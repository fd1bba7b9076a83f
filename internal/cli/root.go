package cli

import (
	"context"
	"fmt"

	"github.com/Davincible/hdwallet/internal/log"
	"github.com/Davincible/hdwallet/pkg/config"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type configKey struct{}

// NewRootCommand builds the hdwallet command tree.
func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hdwallet",
		Short: "BIP39/BIP32 wallet generation and address derivation",
		Long: `hdwallet generates BIP39 mnemonic phrases and derives Bitcoin keys and
addresses from them under the three standard schemes:

- BIP44 legacy (P2PKH, 1...)
- BIP49 wrapped segwit (P2SH-P2WPKH, 3...)
- BIP84 native segwit (P2WPKH, bc1q...)

Every address can be recomputed from the phrase and optional passphrase.
Account extended public keys allow watch-only derivation without secrets.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setup,
	}

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("config", "", "Config file path (default $HDWALLET_CONFIG or ~/.config/hdwallet/config.json)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	rootCmd.AddCommand(
		NewGenerateCommand(),
		NewDeriveCommand(),
		NewValidateCommand(),
		NewWatchCommand(),
		NewConfigCommand(),
	)

	return rootCmd
}

// setup loads the config file and initialises logging before any command
// runs.
func setup(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("config")

	var (
		cm  *config.ConfigManager
		err error
	)
	if path != "" {
		cm, err = config.NewConfigManagerAt(path)
	} else {
		cm, err = config.NewConfigManager()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg := cm.GetConfig()

	level := cfg.Log.Level
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}
	if flagLevel, _ := cmd.Flags().GetString("log-level"); flagLevel != "" {
		if !log.ValidLevel(flagLevel) {
			return fmt.Errorf("invalid log level %q", flagLevel)
		}
		level = flagLevel
	}
	log.Init(cmd.ErrOrStderr(), level, cfg.Log.JSON)

	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor || !cfg.UI.UseColor {
		color.NoColor = true
	}

	log.Config.Debug().
		Str("command", cmd.Name()).
		Str("path", cm.Path()).
		Str("level", level).
		Msg("configuration loaded")

	cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cm))
	return nil
}

func configManagerFrom(cmd *cobra.Command) *config.ConfigManager {
	if ctx := cmd.Context(); ctx != nil {
		if cm, ok := ctx.Value(configKey{}).(*config.ConfigManager); ok {
			return cm
		}
	}
	return nil
}

// configFrom returns the loaded config, or the defaults when the command
// runs outside the root.
func configFrom(cmd *cobra.Command) *config.Config {
	if cm := configManagerFrom(cmd); cm != nil {
		return cm.GetConfig()
	}
	return config.DefaultConfig()
}
