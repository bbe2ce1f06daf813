package cryptobox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/sha3"
)

// KeySize is the required key length in bytes (AES-256).
const KeySize = 32

var (
	// ErrCipher is returned when decryption fails: wrong key, truncated
	// input, or tampered ciphertext. GCM authentication guarantees a wrong
	// key can never silently yield the original plaintext.
	ErrCipher = errors.New("cryptobox: cipher failure")
	// ErrKeySize is returned when a key is not KeySize bytes.
	ErrKeySize = errors.New("cryptobox: key must be 32 bytes")
)

// Box performs authenticated symmetric encryption with a fixed key.
// Instances are immutable after New and safe for concurrent use.
type Box struct {
	aead cipher.AEAD
}

// New builds a Box from a KeySize-byte key.
func New(key []byte) (*Box, error) {
	if len(key) != KeySize {
		return nil, ErrKeySize
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCipher, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCipher, err)
	}

	return &Box{aead: aead}, nil
}

// Encrypt seals plaintext with a fresh random nonce. The nonce is prepended
// to the ciphertext and the whole value is base64url-encoded, so a single
// string round-trips through storage. Encryption is randomized: two calls
// with the same plaintext produce different ciphertexts.
func (b *Box) Encrypt(plaintext string) (string, error) {
	if b == nil || b.aead == nil {
		return "", ErrCipher
	}

	nonce := make([]byte, b.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCipher, err)
	}

	sealed := b.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt reverses Encrypt. It returns ErrCipher when the value was not
// produced by this key or has been altered.
func (b *Box) Decrypt(encoded string) (string, error) {
	if b == nil || b.aead == nil {
		return "", ErrCipher
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCipher, err)
	}
	if len(raw) < b.aead.NonceSize() {
		return "", ErrCipher
	}

	nonce, sealed := raw[:b.aead.NonceSize()], raw[b.aead.NonceSize():]
	plaintext, err := b.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrCipher
	}
	return string(plaintext), nil
}

// Hash returns the hex-encoded SHA3-256 digest of input. Deterministic,
// used for one-time-code comparison and store indexing, never for passwords.
func Hash(input string) string {
	sum := sha3.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])
}

// GenerateKey returns a fresh random KeySize-byte key. Development fallback
// only; production deployments must supply a key out of band.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCipher, err)
	}
	return key, nil
}
