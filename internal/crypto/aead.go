package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
)

// SessionNonceSize is the length of the fixed, session-wide GCM nonce.
// The coordinator and worker each derive a fresh AES key per connection
// via ECDH, so reusing one nonce for every frame in a session never
// repeats a (key, nonce) pair across sessions.
const SessionNonceSize = 16

// SessionNonce is the literal sixteen ASCII '0' bytes used as the nonce
// for every encrypted frame on a connection.
var SessionNonce = [SessionNonceSize]byte{'0', '0', '0', '0', '0', '0', '0', '0', '0', '0', '0', '0', '0', '0', '0', '0'}

var (
	// ErrInvalidKeySize is returned when the provided key is not 32 bytes
	ErrInvalidKeySize = errors.New("key must be exactly 32 bytes for AES-256")

	// ErrInvalidNonceSize is returned when the provided nonce is not SessionNonceSize bytes
	ErrInvalidNonceSize = fmt.Errorf("nonce must be exactly %d bytes", SessionNonceSize)

	// ErrAuthenticationFailed is returned when GCM authentication tag verification fails
	ErrAuthenticationFailed = errors.New("authentication failed: ciphertext has been tampered with")
)

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCMWithNonceSize(block, SessionNonceSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// Seal encrypts and authenticates plaintext under the session key using
// AES-256-GCM with the fixed session nonce. The authentication tag is
// appended to the returned ciphertext (Go's cipher.AEAD convention),
// which resolves the tag-placement choice spec.md left open.
//
// Security Warning:
//   - NEVER reuse a session key across connections — the nonce never
//     changes within a session, so key reuse would repeat (key, nonce).
func Seal(key []byte, nonce []byte, plaintext []byte) ([]byte, error) {
	if len(nonce) != SessionNonceSize {
		return nil, ErrInvalidNonceSize
	}
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	return gcm.Seal(nil, nonce, plaintext, nil), nil
}

// Open decrypts and verifies ciphertext produced by Seal. It returns
// ErrAuthenticationFailed (never partial plaintext) if the tag does not
// verify, which the frame codec maps to PROTOCOL_ERROR.
func Open(key []byte, nonce []byte, ciphertext []byte) ([]byte, error) {
	if len(nonce) != SessionNonceSize {
		return nil, ErrInvalidNonceSize
	}
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthenticationFailed, err)
	}
	return plaintext, nil
}