// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"golang.org/x/crypto/pbkdf2"
)

// EncryptedPrefix marks a sealed value (format: ENC:base64(salt|nonce|ciphertext|tag))
const EncryptedPrefix = "ENC:"

const (
	// NonceSize is the AES-GCM nonce size in bytes
	NonceSize = 12
	// KeySize is the AES-256 key size in bytes
	KeySize = 32
	// SaltSize is the PBKDF2 salt size in bytes
	SaltSize = 16
	// DefaultIterations is the PBKDF2 iteration count (OWASP 2023 for SHA-256)
	DefaultIterations = 600000
)

var (
	// ErrEmptyPassphrase is returned by NewSealer for an empty passphrase.
	ErrEmptyPassphrase = errors.New("crypt: empty passphrase")
	// ErrNotSealed is returned by Open for a value without the ENC: prefix.
	ErrNotSealed = errors.New("crypt: value is not sealed")
	// ErrDecrypt is returned when authentication fails (wrong passphrase or tampering).
	ErrDecrypt = errors.New("crypt: decryption failed")
)

// Sealer encrypts short strings with a key derived from a passphrase.
//
// Each Sealer draws one random salt, so sealing is cheap after the first
// derivation. Values sealed under other salts are opened by deriving
// (and caching) their key.
type Sealer struct {
	passphrase []byte
	iterations int
	salt       []byte

	mu   sync.Mutex
	keys map[string]cipher.AEAD
}

// Option configures a Sealer.
type Option func(*Sealer)

// WithIterations overrides the PBKDF2 iteration count.
func WithIterations(n int) Option {
	return func(s *Sealer) {
		if n > 0 {
			s.iterations = n
		}
	}
}

// NewSealer creates a Sealer for passphrase.
func NewSealer(passphrase string, opts ...Option) (*Sealer, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}

	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}

	s := &Sealer{
		passphrase: []byte(passphrase),
		iterations: DefaultIterations,
		salt:       salt,
		keys:       make(map[string]cipher.AEAD),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// DeriveKey derives an AES-256 key from passphrase and salt.
func DeriveKey(passphrase, salt []byte, iterations int) []byte {
	return pbkdf2.Key(passphrase, salt, iterations, KeySize, sha256.New)
}

func (s *Sealer) aead(salt []byte) (cipher.AEAD, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gcm, ok := s.keys[string(salt)]; ok {
		return gcm, nil
	}

	key := DeriveKey(s.passphrase, salt, s.iterations)
	defer zeroBytes(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	s.keys[string(salt)] = gcm
	return gcm, nil
}

// Seal encrypts plaintext and returns an ENC:-prefixed string.
func (s *Sealer) Seal(plaintext string) (string, error) {
	gcm, err := s.aead(s.salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	out := make([]byte, 0, SaltSize+NonceSize+len(plaintext)+gcm.Overhead())
	out = append(out, s.salt...)
	out = append(out, nonce...)
	out = gcm.Seal(out, nonce, []byte(plaintext), nil)

	return EncryptedPrefix + base64.StdEncoding.EncodeToString(out), nil
}

// Open decrypts a value produced by Seal.
func (s *Sealer) Open(sealed string) (string, error) {
	if !IsSealed(sealed) {
		return "", ErrNotSealed
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(sealed, EncryptedPrefix))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	if len(raw) < SaltSize+NonceSize {
		return "", fmt.Errorf("%w: value too short", ErrDecrypt)
	}

	salt, nonce, ciphertext := raw[:SaltSize], raw[SaltSize:SaltSize+NonceSize], raw[SaltSize+NonceSize:]
	gcm, err := s.aead(salt)
	if err != nil {
		return "", err
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", ErrDecrypt
	}
	return string(plaintext), nil
}

// IsSealed reports whether value carries the ENC: prefix.
func IsSealed(value string) bool {
	return strings.HasPrefix(value, EncryptedPrefix)
}

// zeroBytes overwrites b so derived keys do not linger on the heap.
func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
