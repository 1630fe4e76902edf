package config

import (
	"github.com/spf13/pflag"
)

// Flags holds parsed command-line flags shared by every command.
type Flags struct {
	// Core
	Network string
	Testnet bool
	DataDir string
	Config  string

	// Store
	StoreBackend string
	StorePath    string

	// Producer
	KeySource string
	KeyFile   string
	Account   uint32
	Index     uint32

	// Logging
	LogLevel string
	LogFile  string
	LogJSON  bool

	fs *pflag.FlagSet
}

// Register binds the flags to fs. The set is kept so that ApplyFlags can
// tell explicitly-set flags from defaults.
func (f *Flags) Register(fs *pflag.FlagSet) {
	f.fs = fs

	// Core
	fs.StringVar(&f.Network, "network", "", "Network type (mainnet or testnet)")
	fs.BoolVar(&f.Testnet, "testnet", false, "Shorthand for --network=testnet")
	fs.StringVar(&f.DataDir, "datadir", "", "Data directory path")
	fs.StringVarP(&f.Config, "config", "c", "", "Config file path (default: <datadir>/gscblock.conf)")

	// Store
	fs.StringVar(&f.StoreBackend, "store", "", "Block store backend (badger or memory)")
	fs.StringVar(&f.StorePath, "store-path", "", "Block store directory")

	// Producer
	fs.StringVar(&f.KeySource, "key-source", "", "Producer key source (hex, encrypted, mnemonic)")
	fs.StringVar(&f.KeyFile, "key-file", "", "Producer key file")
	fs.Uint32Var(&f.Account, "account", 0, "BIP-44 account (mnemonic key source)")
	fs.Uint32Var(&f.Index, "index", 0, "BIP-44 address index (mnemonic key source)")

	// Logging
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path")
	fs.BoolVar(&f.LogJSON, "log-json", false, "Output logs as JSON")
}

// NetworkType returns the network selected by --network or --testnet.
func (f *Flags) NetworkType() NetworkType {
	if f.Testnet {
		return Testnet
	}
	if f.Network != "" {
		return NetworkType(f.Network)
	}
	return Mainnet
}

// ApplyFlags applies command-line flags to a Config struct.
func ApplyFlags(cfg *Config, f *Flags) {
	// Core
	if f.Testnet || f.Network != "" {
		cfg.Network = f.NetworkType()
	}
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}

	// Store
	if f.StoreBackend != "" {
		cfg.Store.Backend = StoreBackend(f.StoreBackend)
	}
	if f.StorePath != "" {
		cfg.Store.Path = f.StorePath
	}

	// Producer
	if f.KeySource != "" {
		cfg.Producer.KeySource = KeySource(f.KeySource)
	}
	if f.KeyFile != "" {
		cfg.Producer.KeyFile = f.KeyFile
	}
	if f.isSet("account") {
		cfg.Producer.Account = f.Account
	}
	if f.isSet("index") {
		cfg.Producer.Index = f.Index
	}

	// Logging
	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Log.File = f.LogFile
	}
	if f.isSet("log-json") {
		cfg.Log.JSON = f.LogJSON
	}
}

// isSet checks if a flag was explicitly set.
func (f *Flags) isSet(name string) bool {
	if f.fs == nil {
		return false
	}
	return f.fs.Changed(name)
}
