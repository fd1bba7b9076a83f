package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/Davincible/hdwallet/pkg/wallet"
	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen, color.Bold)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan, color.Bold)
)

func printMnemonic(w io.Writer, words []string) {
	yellow.Fprintf(w, "Mnemonic (%d words):\n\n", len(words))
	for i := 0; i < len(words); i += 4 {
		end := i + 4
		if end > len(words) {
			end = len(words)
		}
		var row []string
		for j := i; j < end; j++ {
			row = append(row, fmt.Sprintf("%2d. %-9s", j+1, words[j]))
		}
		fmt.Fprintf(w, "  %s\n", strings.TrimRight(strings.Join(row, " "), " "))
	}
	fmt.Fprintln(w)
	yellow.Fprintln(w, "Complete phrase:")
	fmt.Fprintf(w, "  %s\n\n", strings.Join(words, " "))
}

func printSecurityNotice(w io.Writer) {
	red.Fprintln(w, "⚠️  IMPORTANT SECURITY NOTICE:")
	fmt.Fprintln(w, "This mnemonic phrase is your master seed. Anyone who knows this")
	fmt.Fprintln(w, "phrase can access all derived accounts and steal your funds.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "- Write it down on paper (never digitally)")
	fmt.Fprintln(w, "- Store it in a secure location")
	fmt.Fprintln(w, "- Never share it with anyone")
	fmt.Fprintln(w)
}

func printWallet(w io.Writer, wal *wallet.Wallet, showRootKeys bool) {
	fmt.Fprintln(w)
	if wal.Name != "" {
		green.Fprintf(w, "=== WALLET: %s (%s) ===\n", wal.Name, wal.Network)
	} else {
		green.Fprintf(w, "=== WALLET (%s) ===\n", wal.Network)
	}
	fmt.Fprintln(w)

	if len(wal.Mnemonic) > 0 {
		printSecurityNotice(w)
		printMnemonic(w, wal.Mnemonic)
	}

	for _, acct := range wal.Accounts {
		printAccount(w, &acct, showRootKeys)
	}

	green.Fprintln(w, "=== END ===")
}

func printAccount(w io.Writer, acct *wallet.Account, showRootKey bool) {
	cyan.Fprintf(w, "--- %s (%s) ---\n", acct.Name, acct.Scheme)
	fmt.Fprintln(w)

	if showRootKey {
		red.Fprintln(w, "Root Key (KEEP SECRET):")
		fmt.Fprintf(w, "  %s\n\n", acct.RootKey)
	}

	yellow.Fprintf(w, "Account Extended Public Key (%s):\n", acct.AccountPath)
	fmt.Fprintf(w, "  %s\n\n", acct.AccountXPub)

	printAddresses(w, acct.Addresses)
}

func printAddresses(w io.Writer, addresses []wallet.Address) {
	if len(addresses) == 0 {
		return
	}
	yellow.Fprintln(w, "Addresses:")
	for _, addr := range addresses {
		fmt.Fprintf(w, "  %-22s %s\n", addr.Path, addr.Address)
	}
	fmt.Fprintln(w)
}

func printWatchOnly(w io.Writer, watch *wallet.WatchOnly) {
	fmt.Fprintln(w)
	green.Fprintf(w, "=== WATCH-ONLY %s (%s) ===\n", strings.ToUpper(watch.Scheme.String()), watch.Network)
	fmt.Fprintln(w)

	yellow.Fprintln(w, "Account Extended Public Key:")
	fmt.Fprintf(w, "  %s\n\n", watch.AccountXPub)

	printAddresses(w, watch.Addresses)
	green.Fprintln(w, "=== END ===")
}
