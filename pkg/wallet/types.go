package wallet

// Wallet is the derived view of one seed: for every scheme, the root key,
// the account extended public key and a batch of receive addresses.
type Wallet struct {
	Name     string    `json:"name,omitempty"`
	Mnemonic []string  `json:"mnemonic,omitempty"`
	Network  string    `json:"network"`
	Accounts []Account `json:"accounts"`
}

// Account returns the derivation for kind, if it was requested.
func (w *Wallet) Account(kind SchemeKind) (*Account, bool) {
	for i := range w.Accounts {
		if w.Accounts[i].Scheme == kind {
			return &w.Accounts[i], true
		}
	}
	return nil, false
}

// Account holds one scheme's keys. RootKey is the master private key
// serialised under the scheme's version (xprv, yprv or zprv on mainnet).
type Account struct {
	Scheme      SchemeKind `json:"scheme"`
	Name        string     `json:"name"`
	RootKey     string     `json:"root_key,omitempty"`
	AccountPath string     `json:"account_path"`
	AccountXPub string     `json:"account_xpub"`
	Addresses   []Address  `json:"addresses"`
}

type Address struct {
	Path      string `json:"path"`
	Index     uint32 `json:"index"`
	Address   string `json:"address"`
	PublicKey string `json:"public_key"`
}

// WatchOnly is a batch of addresses derived from an account extended public
// key alone.
type WatchOnly struct {
	Scheme      SchemeKind `json:"scheme"`
	Network     string     `json:"network"`
	AccountXPub string     `json:"account_xpub"`
	Change      uint32     `json:"change"`
	Addresses   []Address  `json:"addresses"`
}
