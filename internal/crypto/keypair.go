package crypto

import (
	"crypto/ecdh"
	"crypto/ecdsa"
	"crypto/rand"
	"crypto/x509"
	"fmt"
)

// GenerateKeyPair generates a new ephemeral P-256 ECDH keypair for one
// handshake. It should be generated fresh per connection and discarded
// once the session key is derived.
func GenerateKeyPair() (*KeyPair, error) {
	priv, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate P-256 keypair: %w", err)
	}
	return &KeyPair{Private: priv, Public: priv.PublicKey()}, nil
}

// MarshalPublicKey encodes a public key as a DER SubjectPublicKeyInfo,
// the wire form the handshake exchanges in the HELLO message.
func MarshalPublicKey(pub *ecdh.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}
	return der, nil
}

// ParsePublicKey decodes a DER SubjectPublicKeyInfo into a P-256 public key.
func ParsePublicKey(der []byte) (*ecdh.PublicKey, error) {
	pub, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	// x509 returns NIST-curve keys as *ecdsa.PublicKey; convert to ECDH.
	var ecdhPub *ecdh.PublicKey
	switch k := pub.(type) {
	case *ecdsa.PublicKey:
		ecdhPub, err = k.ECDH()
		if err != nil {
			return nil, fmt.Errorf("public key is not an ECDH key: %w", err)
		}
	case *ecdh.PublicKey:
		ecdhPub = k
	default:
		return nil, fmt.Errorf("public key is not an ECDH key")
	}
	if ecdhPub.Curve() != ecdh.P256() {
		return nil, fmt.Errorf("public key is not on curve P-256")
	}
	return ecdhPub, nil
}

// SharedSecret performs the ECDH exchange and returns the raw shared
// point's X coordinate as a fixed-length big-endian byte string (the
// curve's field size), ready to feed into the session KDF.
func SharedSecret(ourPrivate *ecdh.PrivateKey, theirPublic *ecdh.PublicKey) ([]byte, error) {
	secret, err := ourPrivate.ECDH(theirPublic)
	if err != nil {
		return nil, fmt.Errorf("ECDH exchange failed: %w", err)
	}
	return secret, nil
}
