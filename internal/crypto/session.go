package crypto

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// sessionInfo is the HKDF context literal fixed by the wire protocol.
const sessionInfo = "ecdh-aesgcm"

// DeriveSessionKey derives the 32-byte AES-256 key shared by both ends
// of a connection from the raw ECDH shared secret, using HKDF-SHA256
// with an empty salt and the fixed context string "ecdh-aesgcm".
func DeriveSessionKey(sharedSecret []byte) (SessionKey, error) {
	var key SessionKey
	reader := hkdf.New(sha256.New, sharedSecret, nil, []byte(sessionInfo))
	if _, err := io.ReadFull(reader, key[:]); err != nil {
		return SessionKey{}, fmt.Errorf("HKDF key derivation failed: %w", err)
	}
	return key, nil
}
