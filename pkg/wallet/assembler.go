// Package wallet assembles mnemonic generation, seed stretching, key
// derivation and address encoding into complete multi-scheme wallets.
package wallet

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/Davincible/hdwallet/pkg/crypto/address"
	"github.com/Davincible/hdwallet/pkg/crypto/hdkey"
	"github.com/Davincible/hdwallet/pkg/crypto/mnemonic"
	"github.com/Davincible/hdwallet/pkg/secure"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// MaxAddressCount bounds a single derivation batch.
const MaxAddressCount = 10000

var (
	ErrInvalidStrength = errors.New("mnemonic strength must be 128 or 256 bits")
	ErrInvalidCount    = errors.New("address count out of range")
	ErrInvalidChain    = errors.New("change must be 0 (external) or 1 (internal)")
)

// Assembler derives wallets. It holds no secret state and is safe for
// concurrent use.
type Assembler struct {
	network     Network
	entropy     io.Reader
	logger      zerolog.Logger
	account     uint32
	concurrency int
	schemes     []SchemeKind
}

type Option func(*Assembler)

func WithNetwork(n Network) Option {
	return func(a *Assembler) { a.network = n }
}

// WithEntropy replaces crypto/rand.Reader as the entropy source. The reader
// must be safe for concurrent use if the Assembler is shared.
func WithEntropy(r io.Reader) Option {
	return func(a *Assembler) { a.entropy = r }
}

func WithLogger(l zerolog.Logger) Option {
	return func(a *Assembler) { a.logger = l }
}

func WithAccount(account uint32) Option {
	return func(a *Assembler) { a.account = account }
}

// WithConcurrency limits the number of derivation goroutines. Values below
// one mean sequential.
func WithConcurrency(n int) Option {
	return func(a *Assembler) {
		if n < 1 {
			n = 1
		}
		a.concurrency = n
	}
}

// WithSchemes restricts and orders the schemes DeriveWallet produces.
func WithSchemes(kinds ...SchemeKind) Option {
	return func(a *Assembler) {
		if len(kinds) > 0 {
			a.schemes = append([]SchemeKind(nil), kinds...)
		}
	}
}

func NewAssembler(opts ...Option) *Assembler {
	a := &Assembler{
		network:     Mainnet,
		entropy:     rand.Reader,
		logger:      zerolog.Nop(),
		concurrency: runtime.GOMAXPROCS(0),
		schemes:     AllSchemes,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Assembler) Network() Network {
	return a.network
}

// GenerateMnemonic draws fresh entropy and encodes it as 12 (128 bits) or
// 24 (256 bits) words.
func (a *Assembler) GenerateMnemonic(strength mnemonic.Strength) ([]string, error) {
	if strength != mnemonic.Strength128 && strength != mnemonic.Strength256 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidStrength, int(strength))
	}
	m, err := mnemonic.NewMnemonicFrom(a.entropy, int(strength))
	if err != nil {
		return nil, err
	}
	return m.WordList(), nil
}

// ValidateMnemonic reports whether words are known and the checksum holds.
func (a *Assembler) ValidateMnemonic(words []string) bool {
	return mnemonic.Validate(words)
}

// Generate creates a new phrase and derives its wallet.
func (a *Assembler) Generate(strength mnemonic.Strength, passphrase string, count uint32) (*Wallet, error) {
	words, err := a.GenerateMnemonic(strength)
	if err != nil {
		return nil, err
	}
	return a.DeriveWallet(strings.Join(words, " "), passphrase, count)
}

// DeriveWallet checks the phrase, stretches it into a seed and derives count
// external addresses for every configured scheme. No partial wallet is ever
// returned.
func (a *Assembler) DeriveWallet(phrase, passphrase string, count uint32) (*Wallet, error) {
	m, err := mnemonic.FromWords(phrase)
	if err != nil {
		return nil, err
	}

	raw := m.Seed(passphrase)
	seed := secure.FromBytes(raw)
	secure.Zero(raw)
	defer seed.Destroy()

	var w *Wallet
	err = seed.With(func(b []byte) error {
		var err error
		w, err = a.DeriveFromSeed(b, count)
		return err
	})
	if err != nil {
		return nil, err
	}
	w.Mnemonic = m.WordList()
	return w, nil
}

// DeriveFromSeed is DeriveWallet for a seed that was produced elsewhere.
// The seed is not modified.
func (a *Assembler) DeriveFromSeed(seed []byte, count uint32) (*Wallet, error) {
	start := time.Now()
	if err := checkBatch(0, count); err != nil {
		return nil, err
	}

	schemes := make([]Scheme, 0, len(a.schemes))
	for _, kind := range a.schemes {
		s, err := a.network.Scheme(kind)
		if err != nil {
			return nil, err
		}
		schemes = append(schemes, s)
	}

	master, err := hdkey.NewMasterKey(seed, a.network.versions[0])
	if err != nil {
		return nil, fmt.Errorf("failed to create master key: %w", err)
	}
	defer master.Zero()

	accounts, err := a.deriveAccounts(master, schemes, hdkey.ExternalChain, 0, count)
	if err != nil {
		return nil, err
	}

	a.logger.Debug().
		Str("network", a.network.Name).
		Int("schemes", len(schemes)).
		Uint32("count", count).
		Dur("elapsed", time.Since(start)).
		Msg("wallet derived")

	return &Wallet{
		Network:  a.network.Name,
		Accounts: accounts,
	}, nil
}

// DeriveScheme derives a single scheme's account from seed.
func (a *Assembler) DeriveScheme(seed []byte, kind SchemeKind, count uint32) (*Account, error) {
	if err := checkBatch(0, count); err != nil {
		return nil, err
	}
	s, err := a.network.Scheme(kind)
	if err != nil {
		return nil, err
	}

	master, err := hdkey.NewMasterKey(seed, s.KeyVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to create master key: %w", err)
	}
	defer master.Zero()

	accounts, err := a.deriveAccounts(master, []Scheme{s}, hdkey.ExternalChain, 0, count)
	if err != nil {
		return nil, err
	}
	return &accounts[0], nil
}

// DeriveWatchOnly derives count addresses on the given chain of an account
// extended public key, starting at index start. The scheme and network
// follow from the key's version. An extended private key is neutered first.
func (a *Assembler) DeriveWatchOnly(accountKey string, change, start, count uint32) (*WatchOnly, error) {
	if change != hdkey.ExternalChain && change != hdkey.InternalChain {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidChain, change)
	}
	if err := checkBatch(start, count); err != nil {
		return nil, err
	}

	key, err := hdkey.ParseExtendedKey(accountKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse account key: %w", err)
	}
	if key.IsPrivate() {
		private := key
		key = key.Neuter()
		private.Zero()
	}

	network, scheme, err := schemeForVersion(key.Version())
	if err != nil {
		return nil, err
	}
	if key.Depth() != 3 {
		a.logger.Warn().Uint8("depth", key.Depth()).Msg("extended key is not at account depth")
	}

	chain, err := key.Child(change, false)
	if err != nil {
		return nil, fmt.Errorf("failed to derive chain %d: %w", change, err)
	}

	prefix := accountPrefix(key, scheme, network.CoinType)
	addresses, err := a.deriveAddresses(chain, scheme, network, prefix, start, count)
	if err != nil {
		return nil, err
	}

	return &WatchOnly{
		Scheme:      scheme.Kind,
		Network:     network.Name,
		AccountXPub: key.String(),
		Change:      change,
		Addresses:   addresses,
	}, nil
}

type accountState struct {
	scheme  Scheme
	account *hdkey.ExtendedKey
	chain   *hdkey.ExtendedKey
	out     *Account
}

// deriveAccounts runs the shared per-scheme routine: account keys in
// parallel, then all addresses of all schemes as one flat batch.
func (a *Assembler) deriveAccounts(master *hdkey.ExtendedKey, schemes []Scheme, change, start, count uint32) ([]Account, error) {
	accounts := make([]Account, len(schemes))
	states := make([]accountState, len(schemes))
	defer func() {
		for _, st := range states {
			if st.account != nil {
				st.account.Zero()
			}
			if st.chain != nil {
				st.chain.Zero()
			}
		}
	}()

	eg := &errgroup.Group{}
	eg.SetLimit(a.concurrency)
	for i, s := range schemes {
		i, s := i, s
		eg.Go(func() error {
			root := master.WithVersion(s.KeyVersion)
			defer root.Zero()

			account, err := root.DeriveSegments(s.AccountPath(a.network.CoinType, a.account))
			if err != nil {
				return fmt.Errorf("%s: failed to derive account: %w", s.Name, err)
			}
			states[i].account = account

			chain, err := account.Child(change, false)
			if err != nil {
				return fmt.Errorf("%s: failed to derive chain: %w", s.Name, err)
			}
			states[i].chain = chain
			states[i].scheme = s
			states[i].out = &accounts[i]

			accounts[i] = Account{
				Scheme:      s.Kind,
				Name:        s.Name,
				RootKey:     root.String(),
				AccountPath: accountPath(account, s.Purpose, a.network.CoinType),
				AccountXPub: account.Neuter().String(),
				Addresses:   make([]Address, count),
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	eg = &errgroup.Group{}
	eg.SetLimit(a.concurrency)
	for _, st := range states {
		st := st
		for j := uint32(0); j < count; j++ {
			j := j
			eg.Go(func() error {
				addr, err := deriveAddress(st.chain, st.scheme, a.network, st.out.AccountPath, start+j)
				if err != nil {
					return fmt.Errorf("%s: %w", st.scheme.Name, err)
				}
				st.out.Addresses[j] = addr
				return nil
			})
		}
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	for _, st := range states {
		err := resequence(st.out.Addresses, start, func(index uint32) (Address, error) {
			return deriveAddress(st.chain, st.scheme, a.network, st.out.AccountPath, index)
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", st.scheme.Name, err)
		}
	}
	return accounts, nil
}

func (a *Assembler) deriveAddresses(chain *hdkey.ExtendedKey, s Scheme, n Network, prefix string, start, count uint32) ([]Address, error) {
	addresses := make([]Address, count)

	eg := &errgroup.Group{}
	eg.SetLimit(a.concurrency)
	for j := uint32(0); j < count; j++ {
		j := j
		eg.Go(func() error {
			addr, err := deriveAddress(chain, s, n, prefix, start+j)
			if err != nil {
				return err
			}
			addresses[j] = addr
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	err := resequence(addresses, start, func(index uint32) (Address, error) {
		return deriveAddress(chain, s, n, prefix, index)
	})
	if err != nil {
		return nil, err
	}
	return addresses, nil
}

// resequence fixes up a batch derived in parallel from start+j. When index i
// is invalid, Child returns i+1, so slot j and slot j+1 hold the same key and
// every later slot is one behind. Walking the batch in order and re-deriving
// any slot at or below its predecessor restores strictly ascending indices.
func resequence(addrs []Address, start uint32, derive func(uint32) (Address, error)) error {
	next := start
	for j := range addrs {
		if addrs[j].Index < next {
			addr, err := derive(next)
			if err != nil {
				return err
			}
			addrs[j] = addr
		}
		next = addrs[j].Index + 1
	}
	return nil
}

// deriveAddress derives chain/index and encodes it under s. prefix is the
// path of the chain's parent account, or "" when unknown.
func deriveAddress(chain *hdkey.ExtendedKey, s Scheme, n Network, prefix string, index uint32) (Address, error) {
	key, err := chain.Child(index, false)
	if err != nil {
		return Address{}, fmt.Errorf("failed to derive address %d: %w", index, err)
	}
	defer key.Zero()

	pub := key.PublicKey()
	encoded, err := address.Encode(pub, s.Format, n.Params)
	if err != nil {
		return Address{}, fmt.Errorf("failed to encode address %d: %w", index, err)
	}

	path := fmt.Sprintf("%d/%d", chain.ChildIndex(), key.ChildIndex())
	if prefix != "" {
		path = prefix + "/" + path
	}
	return Address{
		Path:      path,
		Index:     key.ChildIndex(),
		Address:   encoded,
		PublicKey: key.PublicKeyHex(),
	}, nil
}

func accountPath(account *hdkey.ExtendedKey, purpose, coinType uint32) string {
	return fmt.Sprintf("m/%d'/%d'/%d'", purpose, coinType, account.ChildIndex()-hdkey.HardenedKeyOffset)
}

// accountPrefix reconstructs the account path of a parsed key when it sits
// at account depth under a hardened index.
func accountPrefix(key *hdkey.ExtendedKey, s Scheme, coinType uint32) string {
	if key.Depth() != 3 || !key.IsHardened() {
		return ""
	}
	return accountPath(key, s.Purpose, coinType)
}

func checkBatch(start, count uint32) error {
	if count > MaxAddressCount {
		return fmt.Errorf("%w: %d exceeds %d", ErrInvalidCount, count, MaxAddressCount)
	}
	if uint64(start)+uint64(count) > uint64(hdkey.HardenedKeyOffset) {
		return fmt.Errorf("%w: %d+%d", hdkey.ErrInvalidIndex, start, count)
	}
	return nil
}
