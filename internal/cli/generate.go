package cli

import (
	"fmt"

	"github.com/Davincible/hdwallet/internal/log"
	"github.com/Davincible/hdwallet/pkg/wallet"
	"github.com/spf13/cobra"
)

func NewGenerateCommand() *cobra.Command {
	var (
		wordCount  int
		passphrase bool
		name       string
		batch      int
		showKeys   bool
		flags      derivationFlags
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a new mnemonic and derive its wallet",
		Long: `Generate a new cryptographically secure BIP39 mnemonic phrase and derive
the account extended public keys and first receive addresses for the
legacy, wrapped segwit and native segwit schemes.`,
		Example: `  # Generate a 24-word wallet with 3 addresses per scheme
  hdwallet generate

  # 12 words, 5 native segwit addresses only
  hdwallet generate --words 12 --count 5 --scheme native-segwit

  # Protect the seed with a passphrase and label the wallet
  hdwallet generate --passphrase --name "cold storage"

  # Ten testnet wallets as JSON
  hdwallet generate --batch 10 --network testnet --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFrom(cmd)
			out := cmd.OutOrStdout()

			if !cmd.Flags().Changed("words") {
				wordCount = cfg.Defaults.WordCount
			}
			strength, err := parseWordCount(wordCount)
			if err != nil {
				return err
			}
			if batch < 1 {
				return fmt.Errorf("batch must be at least 1 (got %d)", batch)
			}

			a, count, err := flags.assembler(cmd, cfg)
			if err != nil {
				return err
			}

			pass, err := collectPassphrase(cmd, newInputReader(cmd), passphrase, cfg)
			if err != nil {
				return err
			}

			done := log.Benchmark("generate")
			wallets := make([]*wallet.Wallet, 0, batch)
			for i := 0; i < batch; i++ {
				w, err := a.Generate(strength, pass, count)
				if err != nil {
					return fmt.Errorf("failed to generate wallet: %w", err)
				}
				w.Name = walletName(name, i, batch)
				if !showKeys {
					hideRootKeys(w)
				}
				wallets = append(wallets, w)
			}
			done()

			log.CLI.Info().
				Int("wallets", len(wallets)).
				Int("words", strength.WordCount()).
				Uint32("count", count).
				Msg("wallets generated")

			if outputJSON(cmd, cfg) {
				if batch == 1 {
					return writeJSON(out, wallets[0])
				}
				return writeJSON(out, wallets)
			}

			for _, w := range wallets {
				printWallet(out, w, showKeys)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&wordCount, "words", "w", 24, "Number of words (12 or 24)")
	cmd.Flags().BoolVarP(&passphrase, "passphrase", "p", false, "Prompt for an optional BIP39 passphrase")
	cmd.Flags().StringVar(&name, "name", "", "Label carried into the output")
	cmd.Flags().IntVarP(&batch, "batch", "b", 1, "Number of independent wallets to generate")
	cmd.Flags().BoolVar(&showKeys, "show-keys", false, "Include the per-scheme root private keys")
	flags.register(cmd)

	return cmd
}

func walletName(name string, i, total int) string {
	if total == 1 || name == "" {
		if total > 1 {
			return fmt.Sprintf("wallet-%d", i+1)
		}
		return name
	}
	return fmt.Sprintf("%s-%d", name, i+1)
}

func hideRootKeys(w *wallet.Wallet) {
	for i := range w.Accounts {
		w.Accounts[i].RootKey = ""
	}
}
