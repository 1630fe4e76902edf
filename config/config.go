// Package config handles application configuration.
//
// Configuration is split into two categories:
//   - Protocol rules: constants in protocol.go, must match across all nodes
//   - Node settings: runtime configuration, can vary per node
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// NetworkType identifies mainnet or testnet.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// =============================================================================
// Node Configuration (runtime, per-node settings)
// =============================================================================

// Config holds node-specific runtime configuration.
// These settings can vary between nodes without breaking consensus.
type Config struct {
	// Core
	Network NetworkType `conf:"network" validate:"required,oneof=mainnet testnet"`
	DataDir string      `conf:"datadir" validate:"required"`

	// Block storage
	Store StoreConfig

	// Block production key
	Producer ProducerConfig

	// Logging
	Log LogConfig
}

// StoreBackend selects the block store implementation.
type StoreBackend string

const (
	StoreBadger StoreBackend = "badger"
	StoreMemory StoreBackend = "memory"
)

// StoreConfig holds block storage settings.
type StoreConfig struct {
	Backend StoreBackend `conf:"store.backend" validate:"required,oneof=badger memory"`
	Path    string       `conf:"store.path"` // Defaults to <datadir>/<network>/blocks
}

// KeySource selects where the producer private key comes from.
type KeySource string

const (
	KeySourceHex       KeySource = "hex"       // plain hex file
	KeySourceEncrypted KeySource = "encrypted" // password-protected key file
	KeySourceMnemonic  KeySource = "mnemonic"  // BIP-39 mnemonic file
)

// ProducerConfig holds the block producer's key settings.
type ProducerConfig struct {
	KeySource KeySource `conf:"producer.keysource" validate:"omitempty,oneof=hex encrypted mnemonic"`
	KeyFile   string    `conf:"producer.keyfile" validate:"required_with=KeySource"`
	Account   uint32    `conf:"producer.account" validate:"lt=2147483648"`
	Index     uint32    `conf:"producer.index" validate:"lt=2147483648"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level" validate:"omitempty,oneof=trace debug info warn error"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// =============================================================================
// Directory helpers
// =============================================================================

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.gscblock
//	macOS:   ~/Library/Application Support/GSCBlock
//	Windows: %APPDATA%\GSCBlock
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gscblock"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "GSCBlock")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "GSCBlock")
		}
		return filepath.Join(home, "AppData", "Roaming", "GSCBlock")
	default:
		return filepath.Join(home, ".gscblock")
	}
}

// ChainDataDir returns the network-specific data directory.
func (c *Config) ChainDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// BlocksDir returns the blocks storage directory.
func (c *Config) BlocksDir() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	return filepath.Join(c.ChainDataDir(), "blocks")
}

// KeystoreDir returns the keystore directory.
func (c *Config) KeystoreDir() string {
	return filepath.Join(c.ChainDataDir(), "keystore")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "gscblock.conf")
}
