// Package crypto provides the cryptographic primitives shared by the
// coordinator and worker: ephemeral P-256 ECDH keypairs, HKDF-based
// session key derivation, and AES-256-GCM authenticated encryption.
//
// Every key here is ephemeral and scoped to a single TCP connection;
// there is no persisted identity and no long-term key material.
package crypto

import (
	"crypto/ecdh"
)

// KeyPair is an ephemeral P-256 ECDH keypair generated fresh per connection.
type KeyPair struct {
	Private *ecdh.PrivateKey
	Public  *ecdh.PublicKey
}

// SessionKey is the 32-byte AES-256 key derived for one connection.
type SessionKey [32]byte
