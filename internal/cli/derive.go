package cli

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/Davincible/hdwallet/internal/validation"
	"github.com/Davincible/hdwallet/pkg/crypto/address"
	"github.com/Davincible/hdwallet/pkg/crypto/hdkey"
	"github.com/Davincible/hdwallet/pkg/crypto/mnemonic"
	"github.com/Davincible/hdwallet/pkg/secure"
	"github.com/Davincible/hdwallet/pkg/wallet"
	"github.com/spf13/cobra"
)

// DeriveResult is the output of a single-path derivation.
type DeriveResult struct {
	Path        string `json:"path"`
	Scheme      string `json:"scheme"`
	PublicKey   string `json:"public_key"`
	ExtendedKey string `json:"extended_public_key"`
	Address     string `json:"address"`
}

func NewDeriveCommand() *cobra.Command {
	var (
		phrase     string
		seedHex    string
		passphrase bool
		path       string
		showKeys   bool
		flags      derivationFlags
	)

	cmd := &cobra.Command{
		Use:   "derive [words...]",
		Short: "Derive keys and addresses from an existing mnemonic",
		Long: `Derive the account extended public keys and receive addresses of an
existing BIP39 mnemonic phrase. The phrase may be given as arguments, with
--mnemonic, or typed at the prompt. --seed accepts a raw hex seed instead.

With --path a single key is derived and encoded under the first selected
scheme.`,
		Example: `  # Prompt for the phrase and derive 3 addresses per scheme
  hdwallet derive

  # Phrase as arguments, 10 native segwit addresses on account 1
  hdwallet derive --scheme native-segwit --count 10 --account 1 abandon abandon ... about

  # A single key at an explicit path
  hdwallet derive --path "m/84'/0'/0'/1/7" --scheme native-segwit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFrom(cmd)
			out := cmd.OutOrStdout()
			in := newInputReader(cmd)

			if len(args) > 0 {
				phrase = strings.Join(args, " ")
			}

			a, count, err := flags.assembler(cmd, cfg)
			if err != nil {
				return err
			}

			var seed []byte
			var words []string
			if seedHex != "" {
				if err := validation.ValidateSeedHex(seedHex); err != nil {
					return err
				}
				seed, err = hex.DecodeString(strings.TrimSpace(seedHex))
				if err != nil {
					return fmt.Errorf("invalid seed: %w", err)
				}
			} else {
				if phrase == "" {
					if phrase, err = in.readMnemonic(cmd); err != nil {
						return err
					}
				}
				phrase = validation.NormalizeMnemonic(phrase)
				if err := validation.ValidateMnemonic(phrase); err != nil {
					return err
				}
				m, err := mnemonic.FromWords(phrase)
				if err != nil {
					return err
				}

				pass, err := collectPassphrase(cmd, in, passphrase, cfg)
				if err != nil {
					return err
				}
				seed = m.Seed(pass)
				words = m.WordList()
			}
			defer secure.ClearBytes(&seed)

			if path != "" {
				result, err := deriveSinglePath(a, seed, path, flags.schemes)
				if err != nil {
					return err
				}
				if outputJSON(cmd, cfg) {
					return writeJSON(out, result)
				}
				printDeriveResult(out, result)
				return nil
			}

			w, err := a.DeriveFromSeed(seed, count)
			if err != nil {
				return fmt.Errorf("failed to derive wallet: %w", err)
			}
			if !cfg.Security.HideMnemonic {
				w.Mnemonic = words
			}
			if !showKeys {
				hideRootKeys(w)
			}

			if outputJSON(cmd, cfg) {
				return writeJSON(out, w)
			}
			printWallet(out, w, showKeys)
			return nil
		},
	}

	cmd.Flags().StringVarP(&phrase, "mnemonic", "m", "", "Mnemonic phrase (prompted when omitted)")
	cmd.Flags().StringVar(&seedHex, "seed", "", "Hex encoded seed to use instead of a mnemonic")
	cmd.Flags().BoolVarP(&passphrase, "passphrase", "p", false, "Prompt for the BIP39 passphrase")
	cmd.Flags().StringVar(&path, "path", "", "Derive a single key at this BIP32 path")
	cmd.Flags().BoolVar(&showKeys, "show-keys", false, "Include the per-scheme root private keys")
	flags.register(cmd)

	cmd.MarkFlagsMutuallyExclusive("mnemonic", "seed")

	return cmd
}

// deriveSinglePath derives one key at path and encodes it under the first
// selected scheme, native segwit by default.
func deriveSinglePath(a *wallet.Assembler, seed []byte, path string, schemeNames []string) (*DeriveResult, error) {
	if err := validation.ValidateDerivationPath(path); err != nil {
		return nil, err
	}

	kind := wallet.NativeSegwit
	if len(schemeNames) > 0 {
		kinds, err := wallet.ParseSchemeKinds(schemeNames)
		if err != nil {
			return nil, err
		}
		kind = kinds[0]
	}
	scheme, err := a.Network().Scheme(kind)
	if err != nil {
		return nil, err
	}

	master, err := hdkey.NewMasterKey(seed, scheme.KeyVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to create master key: %w", err)
	}
	defer master.Zero()

	key, err := master.DerivePath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}
	defer key.Zero()

	addr, err := address.Encode(key.PublicKey(), scheme.Format, a.Network().Params)
	if err != nil {
		return nil, err
	}

	return &DeriveResult{
		Path:        path,
		Scheme:      kind.String(),
		PublicKey:   key.PublicKeyHex(),
		ExtendedKey: key.Neuter().String(),
		Address:     addr,
	}, nil
}

func printDeriveResult(w io.Writer, r *DeriveResult) {
	fmt.Fprintln(w)
	green.Fprintln(w, "=== DERIVED KEY ===")
	fmt.Fprintln(w)

	yellow.Fprintln(w, "Derivation Path:")
	fmt.Fprintf(w, "  %s\n\n", r.Path)

	yellow.Fprintln(w, "Public Key:")
	fmt.Fprintf(w, "  %s\n\n", r.PublicKey)

	yellow.Fprintln(w, "Extended Public Key:")
	fmt.Fprintf(w, "  %s\n\n", r.ExtendedKey)

	yellow.Fprintf(w, "Address (%s):\n", r.Scheme)
	fmt.Fprintf(w, "  %s\n\n", r.Address)

	green.Fprintln(w, "=== END ===")
}
