package cli

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Davincible/hdwallet/internal/log"
	"github.com/Davincible/hdwallet/internal/validation"
	"github.com/Davincible/hdwallet/pkg/config"
	"github.com/Davincible/hdwallet/pkg/crypto/mnemonic"
	"github.com/Davincible/hdwallet/pkg/secure"
	"github.com/Davincible/hdwallet/pkg/wallet"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// derivationFlags are shared by generate and derive.
type derivationFlags struct {
	count   int
	account int
	network string
	schemes []string
}

func (f *derivationFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.count, "count", "n", 0, "Addresses per scheme (default from config)")
	cmd.Flags().IntVarP(&f.account, "account", "a", 0, "Account index (default from config)")
	cmd.Flags().StringVar(&f.network, "network", "", "Network: mainnet or testnet (default from config)")
	cmd.Flags().StringSliceVarP(&f.schemes, "scheme", "s", nil, "Schemes to derive: legacy, wrapped-segwit, native-segwit")
}

// assembler merges flags over the config defaults and returns the address
// count together with a configured Assembler.
func (f *derivationFlags) assembler(cmd *cobra.Command, cfg *config.Config) (*wallet.Assembler, uint32, error) {
	opts, err := cfg.AssemblerOptions()
	if err != nil {
		return nil, 0, err
	}
	opts = append(opts, wallet.WithLogger(log.Wallet))

	count := int(cfg.Defaults.AddressCount)
	if cmd.Flags().Changed("count") {
		count = f.count
	}
	if err := validation.ValidateAddressCount(count); err != nil {
		return nil, 0, err
	}

	if cmd.Flags().Changed("account") {
		if err := validation.ValidateIndex("account", f.account); err != nil {
			return nil, 0, err
		}
		opts = append(opts, wallet.WithAccount(uint32(f.account)))
	}

	if f.network != "" {
		network, err := wallet.NetworkByName(f.network)
		if err != nil {
			return nil, 0, err
		}
		opts = append(opts, wallet.WithNetwork(network))
	}

	if len(f.schemes) > 0 {
		kinds, err := wallet.ParseSchemeKinds(f.schemes)
		if err != nil {
			return nil, 0, err
		}
		opts = append(opts, wallet.WithSchemes(kinds...))
	}

	return wallet.NewAssembler(opts...), uint32(count), nil
}

// inputReader wraps the command input so that several prompts can share
// one buffer.
type inputReader struct {
	in     io.Reader
	reader *bufio.Reader
}

func newInputReader(cmd *cobra.Command) *inputReader {
	in := cmd.InOrStdin()
	return &inputReader{in: in, reader: bufio.NewReader(in)}
}

func (r *inputReader) isTerminal() bool {
	f, ok := r.in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (r *inputReader) readLine() (string, error) {
	line, err := r.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readPassphrase reads a passphrase without echo on a terminal and as a
// plain line otherwise.
func (r *inputReader) readPassphrase(cmd *cobra.Command, prompt string, wipe bool) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)

	if r.isTerminal() {
		f := r.in.(*os.File)
		passBytes, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		passphrase := string(passBytes)
		if wipe {
			secure.Zero(passBytes)
		}
		return passphrase, nil
	}

	pass, err := r.readLine()
	if errors.Is(err, io.EOF) {
		return "", nil
	}
	return pass, err
}

// readMnemonic prompts for a phrase and normalises it.
func (r *inputReader) readMnemonic(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), "Enter mnemonic phrase: ")
	input, err := r.readLine()
	if err != nil {
		return "", fmt.Errorf("failed to read mnemonic: %w", err)
	}
	return validation.NormalizeMnemonic(input), nil
}

// collectPassphrase prompts when asked to and applies the passphrase policy.
func collectPassphrase(cmd *cobra.Command, r *inputReader, prompt bool, cfg *config.Config) (string, error) {
	var passphrase string
	if prompt || cfg.Security.RequirePassphrase {
		var err error
		passphrase, err = r.readPassphrase(cmd, "Enter passphrase: ", cfg.Security.WipeMemory)
		if err != nil {
			return "", fmt.Errorf("failed to read passphrase: %w", err)
		}
	}

	if err := validation.ValidatePassphrase(passphrase); err != nil {
		return "", err
	}
	if err := cfg.CheckPassphrase(passphrase); err != nil {
		return "", err
	}
	return passphrase, nil
}

func parseWordCount(words int) (mnemonic.Strength, error) {
	strength, err := mnemonic.ParseStrength(words)
	if err != nil {
		return 0, fmt.Errorf("invalid word count: %w", err)
	}
	return strength, nil
}

func outputJSON(cmd *cobra.Command, cfg *config.Config) bool {
	if cmd.Flags().Changed("json") {
		v, _ := cmd.Flags().GetBool("json")
		return v
	}
	return cfg.UI.JSONOutput
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
