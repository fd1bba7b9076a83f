package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Davincible/hdwallet/internal/validation"
	"github.com/Davincible/hdwallet/pkg/crypto/address"
	"github.com/Davincible/hdwallet/pkg/crypto/mnemonic"
	"github.com/Davincible/hdwallet/pkg/wallet"
	"github.com/spf13/cobra"
)

var ErrValidationFailed = errors.New("validation failed")

// ValidationResult is the JSON form of a validate run.
type ValidationResult struct {
	Valid     bool   `json:"valid"`
	Kind      string `json:"kind"`
	WordCount int    `json:"word_count,omitempty"`
	Format    string `json:"format,omitempty"`
	Network   string `json:"network,omitempty"`
	Error     string `json:"error,omitempty"`
}

func NewValidateCommand() *cobra.Command {
	var (
		addr    string
		network string
	)

	cmd := &cobra.Command{
		Use:   "validate [words...]",
		Short: "Check a mnemonic phrase or an address",
		Long: `Check that a mnemonic phrase uses the BIP39 English word list and carries a
valid checksum. With --address the given address is decoded instead and
its format and network are reported.`,
		Example: `  # Check a phrase given as arguments
  hdwallet validate abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about

  # Check an address against testnet
  hdwallet validate --address tb1q... --network testnet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFrom(cmd)
			out := cmd.OutOrStdout()

			if network == "" {
				network = cfg.Defaults.Network
			}
			n, err := wallet.NetworkByName(network)
			if err != nil {
				return err
			}

			var result *ValidationResult
			if addr != "" {
				result = validateAddress(addr, n)
			} else {
				phrase := strings.Join(args, " ")
				if phrase == "" {
					if phrase, err = newInputReader(cmd).readMnemonic(cmd); err != nil {
						return err
					}
				}
				result = validatePhrase(phrase)
			}

			if outputJSON(cmd, cfg) {
				if err := writeJSON(out, result); err != nil {
					return err
				}
			} else {
				printValidation(out, result)
			}

			if !result.Valid {
				return fmt.Errorf("%w: %s", ErrValidationFailed, result.Error)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "address", "", "Validate an address instead of a phrase")
	cmd.Flags().StringVar(&network, "network", "", "Network the address must belong to (default from config)")

	return cmd
}

func validatePhrase(phrase string) *ValidationResult {
	phrase = validation.NormalizeMnemonic(phrase)
	result := &ValidationResult{Kind: "mnemonic", WordCount: len(strings.Fields(phrase))}

	if err := validation.ValidateMnemonic(phrase); err != nil {
		result.Error = err.Error()
		return result
	}
	if _, err := mnemonic.FromWords(phrase); err != nil {
		result.Error = err.Error()
		return result
	}

	result.Valid = true
	return result
}

func validateAddress(addr string, n wallet.Network) *ValidationResult {
	result := &ValidationResult{Kind: "address", Network: n.Name}

	format, _, err := address.Decode(strings.TrimSpace(addr), n.Params)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Valid = true
	result.Format = format.String()
	return result
}

func printValidation(w io.Writer, r *ValidationResult) {
	fmt.Fprintln(w)
	if !r.Valid {
		red.Fprintf(w, "✗ Invalid %s: %s\n", r.Kind, r.Error)
		fmt.Fprintln(w)
		return
	}

	switch r.Kind {
	case "address":
		green.Fprintf(w, "✓ Valid %s address on %s\n", r.Format, r.Network)
	default:
		green.Fprintf(w, "✓ Valid %d-word mnemonic\n", r.WordCount)
	}
	fmt.Fprintln(w)
}
