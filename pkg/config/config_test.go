package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Davincible/hdwallet/pkg/crypto/hdkey"
	"github.com/Davincible/hdwallet/pkg/wallet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 24, cfg.Defaults.WordCount)
	assert.Equal(t, uint32(3), cfg.Defaults.AddressCount)
	assert.Equal(t, wallet.AllSchemes, cfg.Defaults.Schemes)
	assert.True(t, cfg.Security.WipeMemory)
}

func TestNewConfigManagerCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")

	cm, err := NewConfigManagerAt(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cm.GetConfig())
	assert.Equal(t, path, cm.Path())

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"native-segwit"`)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cm, err := NewConfigManagerAt(path)
	require.NoError(t, err)

	cfg := cm.GetConfig()
	cfg.Defaults.WordCount = 12
	cfg.Defaults.Network = "testnet"
	cfg.Defaults.Schemes = []wallet.SchemeKind{wallet.NativeSegwit}
	cm.SetConfig(cfg)
	require.NoError(t, cm.SaveConfig())

	reloaded, err := NewConfigManagerAt(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, reloaded.GetConfig())
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"defaults":{"address_count":7}}`), 0600))

	cm, err := NewConfigManagerAt(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), cm.GetConfig().Defaults.AddressCount)
	assert.Equal(t, 24, cm.GetConfig().Defaults.WordCount)
	assert.Equal(t, "warn", cm.GetConfig().Log.Level)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"bad json":    `{"defaults":`,
		"word count":  `{"defaults":{"word_count":18}}`,
		"network":     `{"defaults":{"network":"regtest"}}`,
		"scheme":      `{"defaults":{"schemes":["taproot"]}}`,
		"no schemes":  `{"defaults":{"schemes":[]}}`,
		"concurrency": `{"defaults":{"concurrency":-1}}`,
		"zero count":  `{"defaults":{"address_count":0}}`,
		"big count":   `{"defaults":{"address_count":10001}}`,
		"hardened":    `{"defaults":{"account":2147483648}}`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.json")
			require.NoError(t, os.WriteFile(path, []byte(content), 0600))

			_, err := NewConfigManagerAt(path)
			assert.Error(t, err)
		})
	}
}

func TestValidateBounds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"zero address count", func(c *Config) { c.Defaults.AddressCount = 0 }, false},
		{"one address", func(c *Config) { c.Defaults.AddressCount = 1 }, true},
		{"max address count", func(c *Config) { c.Defaults.AddressCount = wallet.MaxAddressCount }, true},
		{"hardened account", func(c *Config) { c.Defaults.Account = hdkey.HardenedKeyOffset }, false},
		{"max account", func(c *Config) { c.Defaults.Account = hdkey.HardenedKeyOffset - 1 }, true},
		{"negative passphrase length", func(c *Config) { c.Security.MinPassphraseLength = -1 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}

func TestConfigPathResolution(t *testing.T) {
	t.Setenv("HDWALLET_CONFIG", "/tmp/custom.json")
	path, err := getConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/custom.json", path)

	t.Setenv("HDWALLET_CONFIG", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	path, err = getConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/xdg", "hdwallet", "config.json"), path)
}

func TestNewConfigManagerUsesEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.json")
	t.Setenv("HDWALLET_CONFIG", path)

	cm, err := NewConfigManager()
	require.NoError(t, err)
	assert.Equal(t, path, cm.Path())
	assert.FileExists(t, path)
}

func TestCheckPassphrase(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.CheckPassphrase(""))
	assert.NoError(t, cfg.CheckPassphrase("long enough"))
	assert.Error(t, cfg.CheckPassphrase("short"))

	cfg.Security.RequirePassphrase = true
	assert.Error(t, cfg.CheckPassphrase(""))
}

func TestAssemblerOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Defaults.Network = "testnet"
	cfg.Defaults.Account = 2
	cfg.Defaults.Schemes = []wallet.SchemeKind{wallet.Legacy}
	cfg.Defaults.Concurrency = 2

	opts, err := cfg.AssemblerOptions()
	require.NoError(t, err)

	a := wallet.NewAssembler(opts...)
	assert.Equal(t, wallet.Testnet, a.Network())

	w, err := a.DeriveWallet("abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about", "", 1)
	require.NoError(t, err)
	require.Len(t, w.Accounts, 1)
	assert.Equal(t, "m/44'/1'/2'", w.Accounts[0].AccountPath)

	cfg.Defaults.Network = "nope"
	_, err = cfg.AssemblerOptions()
	assert.ErrorIs(t, err, wallet.ErrUnknownNetwork)
}
