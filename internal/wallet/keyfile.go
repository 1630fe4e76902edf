package wallet

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gscnet/blockcore/config"
	"github.com/gscnet/blockcore/internal/log"
	"github.com/gscnet/blockcore/pkg/crypto"
)

var (
	ErrInvalidMnemonic = errors.New("invalid mnemonic")
	ErrKeyFileFormat   = errors.New("malformed key file")
	ErrDecrypt         = errors.New("decrypt key file: wrong password or corrupted file")
	ErrKeyFileExists   = errors.New("key file already exists")
	ErrNoKeySource     = errors.New("no producer key source configured")
)

// KeyProvider supplies the producer's raw 32-byte private key.
type KeyProvider interface {
	PrivateKey() ([]byte, error)
}

// HexKeyFile reads a hex-encoded private key from a plain file.
type HexKeyFile struct {
	Path string
}

// PrivateKey implements KeyProvider.
func (f HexKeyFile) PrivateKey() ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	s := strings.TrimPrefix(strings.TrimSpace(string(data)), "0x")
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrKeyFileFormat, f.Path, err)
	}
	return checkKey(key)
}

// EncryptedKeyFile reads a private key sealed by SaveEncryptedKey.
type EncryptedKeyFile struct {
	Path     string
	Password []byte
}

// PrivateKey implements KeyProvider.
func (f EncryptedKeyFile) PrivateKey() ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	key, err := Decrypt(data, f.Password)
	if err != nil {
		return nil, err
	}
	return checkKey(key)
}

// MnemonicKey derives the producer key from a BIP-39 mnemonic file.
type MnemonicKey struct {
	Path       string
	Passphrase string
	Account    uint32
	Index      uint32
}

// PrivateKey implements KeyProvider.
func (m MnemonicKey) PrivateKey() ([]byte, error) {
	data, err := os.ReadFile(m.Path)
	if err != nil {
		return nil, fmt.Errorf("read mnemonic file: %w", err)
	}
	mnemonic := strings.Join(strings.Fields(string(data)), " ")
	seed, err := SeedFromMnemonic(mnemonic, m.Passphrase)
	if err != nil {
		return nil, err
	}
	defer zero(seed)

	master, err := NewMasterKey(seed)
	if err != nil {
		return nil, err
	}
	child, err := master.DeriveProducer(m.Account, m.Index)
	if err != nil {
		return nil, err
	}
	return checkKey(append([]byte(nil), child.PrivateKeyBytes()...))
}

// FromConfig builds the key provider selected by the producer settings.
// The password unlocks encrypted key files and is the BIP-39 passphrase
// for mnemonics.
func FromConfig(cfg config.ProducerConfig, password []byte) (KeyProvider, error) {
	log.Keys.Debug().
		Str("source", string(cfg.KeySource)).
		Str("file", cfg.KeyFile).
		Msg("Loading producer key")

	switch cfg.KeySource {
	case config.KeySourceHex:
		return HexKeyFile{Path: cfg.KeyFile}, nil
	case config.KeySourceEncrypted:
		return EncryptedKeyFile{Path: cfg.KeyFile, Password: password}, nil
	case config.KeySourceMnemonic:
		return MnemonicKey{
			Path:       cfg.KeyFile,
			Passphrase: string(password),
			Account:    cfg.Account,
			Index:      cfg.Index,
		}, nil
	case "":
		return nil, ErrNoKeySource
	default:
		return nil, fmt.Errorf("unknown key source %q", cfg.KeySource)
	}
}

// SaveEncryptedKey seals key with password and writes it to path. An
// existing file is never overwritten.
func SaveEncryptedKey(path string, key, password []byte, params EncryptionParams) error {
	if _, err := checkKey(key); err != nil {
		return err
	}
	sealed, err := Encrypt(key, password, params)
	if err != nil {
		return fmt.Errorf("encrypt key: %w", err)
	}
	return writeNew(path, sealed)
}

// SaveHexKey writes key hex-encoded to path. An existing file is never
// overwritten.
func SaveHexKey(path string, key []byte) error {
	if _, err := checkKey(key); err != nil {
		return err
	}
	return writeNew(path, []byte(hex.EncodeToString(key)+"\n"))
}

// SaveMnemonic writes a validated mnemonic to path for use with
// MnemonicKey. An existing file is never overwritten.
func SaveMnemonic(path, mnemonic string) error {
	if !ValidateMnemonic(mnemonic) {
		return ErrInvalidMnemonic
	}
	return writeNew(path, []byte(mnemonic+"\n"))
}

func writeNew(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create key dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%w: %s", ErrKeyFileExists, path)
	}
	if err != nil {
		return fmt.Errorf("create key file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write key file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close key file: %w", err)
	}
	log.Keys.Info().Str("path", path).Msg("Wrote key file")
	return nil
}

// checkKey rejects keys that are not valid secp256k1 scalars.
func checkKey(key []byte) ([]byte, error) {
	pk, err := crypto.PrivateKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyFileFormat, err)
	}
	pk.Zero()
	return key, nil
}
