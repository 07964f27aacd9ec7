// Package cipher seals secret values with XChaCha20-Poly1305.
package cipher

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

var ErrInvalidCiphertext = errors.New("invalid ciphertext")

// Cipher encrypts with a single active key identified by Version.
type Cipher struct {
	aead    aead
	version string
}

type aead interface {
	NonceSize() int
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
}

// New builds a cipher from a 32-byte key.
func New(key []byte, version string) (*Cipher, error) {
	a, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("init vault cipher: %w", err)
	}
	return &Cipher{aead: a, version: version}, nil
}

// NewFromHex decodes a hex key. An empty key yields a random ephemeral key,
// which only makes sense for memory-backed vaults.
func NewFromHex(hexKey, version string) (*Cipher, bool, error) {
	if hexKey == "" {
		key := make([]byte, chacha20poly1305.KeySize)
		if _, err := rand.Read(key); err != nil {
			return nil, false, fmt.Errorf("generate vault key: %w", err)
		}
		c, err := New(key, version)
		return c, true, err
	}
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, false, fmt.Errorf("decode vault key: %w", err)
	}
	c, err := New(key, version)
	return c, false, err
}

func (c *Cipher) Version() string {
	return c.version
}

// Seal returns nonce||ciphertext. aad binds the value to its owner.
func (c *Cipher) Seal(plaintext, aad []byte) ([]byte, error) {
	nonce := make([]byte, c.aead.NonceSize(), c.aead.NonceSize()+len(plaintext)+chacha20poly1305.Overhead)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return c.aead.Seal(nonce, nonce, plaintext, aad), nil
}

// Open reverses Seal.
func (c *Cipher) Open(sealed, aad []byte) ([]byte, error) {
	n := c.aead.NonceSize()
	if len(sealed) < n {
		return nil, ErrInvalidCiphertext
	}
	out, err := c.aead.Open(nil, sealed[:n], sealed[n:], aad)
	if err != nil {
		return nil, ErrInvalidCiphertext
	}
	return out, nil
}
