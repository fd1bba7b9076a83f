package cli

import (
	"fmt"
	"strings"

	"github.com/Davincible/hdwallet/internal/log"
	"github.com/Davincible/hdwallet/internal/validation"
	"github.com/Davincible/hdwallet/pkg/wallet"
	"github.com/spf13/cobra"
)

func NewWatchCommand() *cobra.Command {
	var (
		key    string
		change int
		start  int
		count  int
	)

	cmd := &cobra.Command{
		Use:   "watch [account-xpub]",
		Short: "Derive addresses from an account extended public key",
		Long: `Derive receive or change addresses from an account level extended public
key (xpub, ypub, zpub or their testnet forms). No secret material is needed.
The address format and network follow from the key prefix.`,
		Example: `  # First 10 receive addresses of a BIP84 account
  hdwallet watch zpub6rFR7y4Q2AijBEqTUquhVz398htDFrtymD9xYYfG1m4wAcvPhXNfE3EfH1r1ADqtfSdVCToUG868RvUUkgDKf31mGDtKsAYz2oz2AGutZYs --count 10

  # Change addresses 20 to 24
  hdwallet watch --xpub xpub... --change 1 --index 20 --count 5`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFrom(cmd)
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				if key != "" {
					return fmt.Errorf("give the key either as an argument or with --xpub")
				}
				key = args[0]
			}
			key = strings.TrimSpace(key)
			if key == "" {
				return fmt.Errorf("an account extended public key is required")
			}
			if err := validation.ValidateExtendedKey(key); err != nil {
				return err
			}

			if !cmd.Flags().Changed("count") {
				count = int(cfg.Defaults.AddressCount)
			}
			if err := validation.ValidateAddressCount(count); err != nil {
				return err
			}
			if err := validation.ValidateIndex("index", start); err != nil {
				return err
			}
			if change != 0 && change != 1 {
				return fmt.Errorf("%w: change must be 0 or 1 (got %d)", wallet.ErrInvalidChain, change)
			}

			opts, err := cfg.AssemblerOptions()
			if err != nil {
				return err
			}
			a := wallet.NewAssembler(append(opts, wallet.WithLogger(log.Wallet))...)
			watch, err := a.DeriveWatchOnly(key, uint32(change), uint32(start), uint32(count))
			if err != nil {
				return err
			}

			log.CLI.Debug().
				Str("scheme", watch.Scheme.String()).
				Str("network", watch.Network).
				Int("addresses", len(watch.Addresses)).
				Msg("watch-only addresses derived")

			if outputJSON(cmd, cfg) {
				return writeJSON(out, watch)
			}
			printWatchOnly(out, watch)
			return nil
		},
	}

	cmd.Flags().StringVar(&key, "xpub", "", "Account extended public key")
	cmd.Flags().IntVar(&change, "change", 0, "Chain: 0 for receive, 1 for change")
	cmd.Flags().IntVarP(&start, "index", "i", 0, "First address index")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "Number of addresses (default from config)")

	return cmd
}
