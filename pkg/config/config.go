// Package config provides configuration management for the hdwallet CLI tool
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Davincible/hdwallet/pkg/crypto/hdkey"
	"github.com/Davincible/hdwallet/pkg/wallet"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the main configuration structure
type Config struct {
	Version  string          `json:"version"`
	Defaults DefaultSettings `json:"defaults"`
	Security SecurityConfig  `json:"security"`
	UI       UIConfig        `json:"ui"`
	Log      LogConfig       `json:"log"`
}

// DefaultSettings contains default values for derivation
type DefaultSettings struct {
	WordCount    int                 `json:"word_count"`    // 12 or 24
	AddressCount uint32              `json:"address_count"` // Addresses per scheme
	Account      uint32              `json:"account"`       // BIP44 account index
	Network      string              `json:"network"`       // mainnet or testnet
	Schemes      []wallet.SchemeKind `json:"schemes"`       // Derivation order
	Concurrency  int                 `json:"concurrency"`   // 0 = one per CPU
}

// SecurityConfig contains security-related settings
type SecurityConfig struct {
	RequirePassphrase   bool `json:"require_passphrase"`    // Force passphrase use
	MinPassphraseLength int  `json:"min_passphrase_length"` // Minimum passphrase length
	WipeMemory          bool `json:"wipe_memory"`           // Zero secrets after use
	HideMnemonic        bool `json:"hide_mnemonic"`         // Omit words from derive output
}

// UIConfig contains user interface settings
type UIConfig struct {
	UseColor   bool   `json:"use_color"`   // Enable colored output
	Verbosity  string `json:"verbosity"`   // quiet, normal, verbose
	JSONOutput bool   `json:"json_output"` // Default to JSON output
}

type LogConfig struct {
	Level string `json:"level"`
	JSON  bool   `json:"json"`
}

// ConfigManager manages configuration loading and saving
type ConfigManager struct {
	config     *Config
	configPath string
}

// NewConfigManager loads the config file, writing the defaults on first use.
func NewConfigManager() (*ConfigManager, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}
	return NewConfigManagerAt(configPath)
}

// NewConfigManagerAt is NewConfigManager for an explicit path.
func NewConfigManagerAt(configPath string) (*ConfigManager, error) {
	cm := &ConfigManager{configPath: configPath}

	err := cm.LoadConfig()
	switch {
	case errors.Is(err, os.ErrNotExist):
		cm.config = DefaultConfig()
		if err := cm.SaveConfig(); err != nil {
			return nil, fmt.Errorf("failed to save default config: %w", err)
		}
	case err != nil:
		return nil, err
	}

	return cm, nil
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: "1.0.0",
		Defaults: DefaultSettings{
			WordCount:    24,
			AddressCount: 3,
			Account:      0,
			Network:      wallet.Mainnet.Name,
			Schemes:      append([]wallet.SchemeKind(nil), wallet.AllSchemes...),
			Concurrency:  0,
		},
		Security: SecurityConfig{
			RequirePassphrase:   false,
			MinPassphraseLength: 8,
			WipeMemory:          true,
			HideMnemonic:        false,
		},
		UI: UIConfig{
			UseColor:   true,
			Verbosity:  "normal",
			JSONOutput: false,
		},
		Log: LogConfig{
			Level: "warn",
			JSON:  false,
		},
	}
}

// LoadConfig loads the configuration from disk. Missing fields keep their
// default values.
func (cm *ConfigManager) LoadConfig() error {
	data, err := os.ReadFile(cm.configPath)
	if err != nil {
		return err
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if err := config.Validate(); err != nil {
		return err
	}

	cm.config = config
	return nil
}

// SaveConfig saves the configuration to disk
func (cm *ConfigManager) SaveConfig() error {
	configDir := filepath.Dir(cm.configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cm.config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(cm.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// GetConfig returns the current configuration
func (cm *ConfigManager) GetConfig() *Config {
	return cm.config
}

// SetConfig updates the configuration
func (cm *ConfigManager) SetConfig(config *Config) {
	cm.config = config
}

func (cm *ConfigManager) Path() string {
	return cm.configPath
}

// Validate checks value ranges and names.
func (c *Config) Validate() error {
	if c.Defaults.WordCount != 12 && c.Defaults.WordCount != 24 {
		return fmt.Errorf("%w: word_count must be 12 or 24 (got %d)", ErrInvalidConfig, c.Defaults.WordCount)
	}
	if c.Defaults.AddressCount == 0 {
		return fmt.Errorf("%w: address_count must be at least 1", ErrInvalidConfig)
	}
	if c.Defaults.AddressCount > wallet.MaxAddressCount {
		return fmt.Errorf("%w: address_count exceeds %d", ErrInvalidConfig, wallet.MaxAddressCount)
	}
	if c.Defaults.Account >= hdkey.HardenedKeyOffset {
		return fmt.Errorf("%w: account must be below %d (got %d)", ErrInvalidConfig, hdkey.HardenedKeyOffset, c.Defaults.Account)
	}
	if _, err := wallet.NetworkByName(c.Defaults.Network); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if len(c.Defaults.Schemes) == 0 {
		return fmt.Errorf("%w: at least one scheme is required", ErrInvalidConfig)
	}
	if c.Defaults.Concurrency < 0 {
		return fmt.Errorf("%w: concurrency must not be negative", ErrInvalidConfig)
	}
	if c.Security.MinPassphraseLength < 0 {
		return fmt.Errorf("%w: min_passphrase_length must not be negative", ErrInvalidConfig)
	}
	return nil
}

// CheckPassphrase applies the passphrase policy.
func (c *Config) CheckPassphrase(passphrase string) error {
	if c.Security.RequirePassphrase && passphrase == "" {
		return fmt.Errorf("passphrase is required by security policy")
	}

	if passphrase != "" && len(passphrase) < c.Security.MinPassphraseLength {
		return fmt.Errorf("passphrase must be at least %d characters",
			c.Security.MinPassphraseLength)
	}
	return nil
}

// AssemblerOptions maps the defaults onto wallet options.
func (c *Config) AssemblerOptions() ([]wallet.Option, error) {
	network, err := wallet.NetworkByName(c.Defaults.Network)
	if err != nil {
		return nil, err
	}

	opts := []wallet.Option{
		wallet.WithNetwork(network),
		wallet.WithAccount(c.Defaults.Account),
		wallet.WithSchemes(c.Defaults.Schemes...),
	}
	if c.Defaults.Concurrency > 0 {
		opts = append(opts, wallet.WithConcurrency(c.Defaults.Concurrency))
	}
	return opts, nil
}

// getConfigPath returns the configuration file path
func getConfigPath() (string, error) {
	if customPath := os.Getenv("HDWALLET_CONFIG"); customPath != "" {
		return customPath, nil
	}

	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "hdwallet", "config.json"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "hdwallet", "config.json"), nil
}
