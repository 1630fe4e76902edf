package wallet

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

// Encrypted key file layout:
//
//	magic(4) | version(1) | salt(32) | memory(4) | iterations(4) | parallelism(1) | nonce(24) | ciphertext
//
// Everything before the nonce is authenticated as additional data, so the
// KDF parameters cannot be swapped without failing decryption.
const (
	SaltSize = 32

	keyFileVersion = 1
)

var keyFileMagic = []byte("GSCK")

var headerSize = len(keyFileMagic) + 1 + SaltSize + 4 + 4 + 1

// EncryptionParams holds Argon2id parameters.
type EncryptionParams struct {
	Memory      uint32 // in KiB
	Iterations  uint32
	Parallelism uint8
}

// DefaultParams returns recommended Argon2id parameters.
func DefaultParams() EncryptionParams {
	return EncryptionParams{
		Memory:      64 * 1024, // 64 MB
		Iterations:  3,
		Parallelism: 4,
	}
}

// deriveKey uses Argon2id to derive a 32-byte encryption key from password and salt.
func deriveKey(password, salt []byte, params EncryptionParams) []byte {
	return argon2.IDKey(
		password,
		salt,
		params.Iterations,
		params.Memory,
		params.Parallelism,
		chacha20poly1305.KeySize,
	)
}

// Encrypt encrypts data with password using Argon2id + XChaCha20-Poly1305.
func Encrypt(data, password []byte, params EncryptionParams) ([]byte, error) {
	if params.Memory == 0 || params.Iterations == 0 || params.Parallelism == 0 {
		return nil, fmt.Errorf("invalid argon2 parameters %+v", params)
	}
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}

	key := deriveKey(password, salt, params)
	defer zero(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}

	out := make([]byte, 0, headerSize+len(nonce)+len(data)+aead.Overhead())
	out = append(out, keyFileMagic...)
	out = append(out, keyFileVersion)
	out = append(out, salt...)
	out = binary.LittleEndian.AppendUint32(out, params.Memory)
	out = binary.LittleEndian.AppendUint32(out, params.Iterations)
	out = append(out, params.Parallelism)
	header := bytes.Clone(out)
	out = append(out, nonce...)
	return aead.Seal(out, nonce, data, header), nil
}

// Decrypt decrypts data encrypted by Encrypt with the given password.
// A wrong password or tampered file yields ErrDecrypt.
func Decrypt(encrypted, password []byte) ([]byte, error) {
	nonceSize := chacha20poly1305.NonceSizeX
	minSize := headerSize + nonceSize + chacha20poly1305.Overhead
	if len(encrypted) < minSize {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrKeyFileFormat, len(encrypted), minSize)
	}
	if !bytes.Equal(encrypted[:len(keyFileMagic)], keyFileMagic) {
		return nil, fmt.Errorf("%w: bad magic", ErrKeyFileFormat)
	}
	if v := encrypted[len(keyFileMagic)]; v != keyFileVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrKeyFileFormat, v)
	}

	off := len(keyFileMagic) + 1
	salt := encrypted[off : off+SaltSize]
	off += SaltSize
	params := EncryptionParams{
		Memory:      binary.LittleEndian.Uint32(encrypted[off:]),
		Iterations:  binary.LittleEndian.Uint32(encrypted[off+4:]),
		Parallelism: encrypted[off+8],
	}
	if params.Memory == 0 || params.Iterations == 0 || params.Parallelism == 0 {
		return nil, fmt.Errorf("%w: invalid argon2 parameters", ErrKeyFileFormat)
	}

	header := encrypted[:headerSize]
	nonce := encrypted[headerSize : headerSize+nonceSize]
	ciphertext := encrypted[headerSize+nonceSize:]

	key := deriveKey(password, salt, params)
	defer zero(key)

	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	plaintext, err := aead.Open(nil, nonce, ciphertext, header)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
