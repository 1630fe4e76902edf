package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// LoadFile loads node configuration from a .conf file.
// Format: key = value (one per line, # for comments)
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}
		key = strings.TrimSpace(key)
		values[key] = unquote(strings.TrimSpace(value))
	}

	return values, scanner.Err()
}

func unquote(value string) string {
	if len(value) >= 2 {
		if (value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'') {
			return value[1 : len(value)-1]
		}
	}
	return value
}

// ApplyFileConfig applies file configuration to a Config struct.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

// setConfigValue sets a node config value by key.
// Only node-operational settings, NOT protocol rules.
func setConfigValue(cfg *Config, key, value string) error {
	switch key {
	// Core
	case "network":
		cfg.Network = NetworkType(value)
	case "datadir":
		cfg.DataDir = value

	// Store
	case "store.backend", "store":
		cfg.Store.Backend = StoreBackend(strings.ToLower(value))
	case "store.path":
		cfg.Store.Path = value

	// Producer
	case "producer.keysource":
		cfg.Producer.KeySource = KeySource(strings.ToLower(value))
	case "producer.keyfile":
		cfg.Producer.KeyFile = value
	case "producer.account":
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return err
		}
		cfg.Producer.Account = uint32(n)
	case "producer.index":
		n, err := strconv.ParseUint(value, 10, 32)
		if err != nil {
			return err
		}
		cfg.Producer.Index = uint32(n)

	// Logging
	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)

	default:
		// Unknown keys are ignored
	}
	return nil
}

// parseBool parses a boolean value.
func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// Load builds the effective configuration for a network: defaults, then the
// config file at path (or the data dir default when path is empty).
func Load(network NetworkType, dataDir, path string) (*Config, error) {
	cfg := Default(network)
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if path == "" {
		path = cfg.ConfigFile()
	}

	values, err := LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config file: %w", err)
	}
	if err := ApplyFileConfig(cfg, values); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WriteDefaultConfig writes a default node configuration file.
func WriteDefaultConfig(path string, network NetworkType) error {
	content := `# GSC block tool configuration
#
# This file contains NODE settings only.
# Block limits and versions are protocol rules and cannot be changed here.

# Network: mainnet or testnet
network = ` + string(network) + `

# Data directory (default: ~/.gscblock)
# datadir = ~/.gscblock

# ============================================================================
# Block Store
# ============================================================================

# Backend: badger or memory
store.backend = badger
# store.path = ~/.gscblock/` + string(network) + `/blocks

# ============================================================================
# Block Producer
# ============================================================================

# Key source: hex, encrypted or mnemonic
# producer.keysource = encrypted
# producer.keyfile = ~/.gscblock/` + string(network) + `/keystore/producer.key

# BIP-44 account and address index (mnemonic key source only)
# producer.account = 0
# producer.index = 0

# ============================================================================
# Logging
# ============================================================================

log.level = info
# log.file =
log.json = false
`
	return os.WriteFile(path, []byte(content), 0644)
}
