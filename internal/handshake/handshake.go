// Package handshake performs the anonymous ECDH-then-AES key agreement
// that precedes all task traffic on a connection. It runs once,
// immediately after TCP accept/connect, and installs the derived
// session key on the wire.Conn it is given — every frame after that
// point is transparently encrypted.
//
// There is no identity binding: either side's ephemeral key is trusted
// on first use, by design (spec.md Non-goals explicitly excludes
// authenticated key agreement and Byzantine-worker resistance).
package handshake

import (
	"fmt"

	"github.com/hashforge/cluster/internal/crypto"
	"github.com/hashforge/cluster/internal/wire"
)

var (
	fieldHello = wire.EncodeString("HELLO")
	fieldOK    = wire.EncodeString("OK")
)

// ErrHandshakeFailed wraps any failure during key agreement: a bad
// greeting, an unparsable public key, or an OK mismatch. The caller
// must close the connection without registering it anywhere — there is
// no partial state to unwind.
var ErrHandshakeFailed = fmt.Errorf("handshake: failed")

func fail(reason string, cause error) error {
	if cause != nil {
		return fmt.Errorf("%w: %s: %v", ErrHandshakeFailed, reason, cause)
	}
	return fmt.Errorf("%w: %s", ErrHandshakeFailed, reason)
}

// ServerHandshake runs the coordinator side of the handshake and
// returns the worker's declared logical core count on success.
func ServerHandshake(conn *wire.Conn) (uint32, error) {
	serverKP, err := crypto.GenerateKeyPair()
	if err != nil {
		return 0, fail("generate server keypair", err)
	}
	serverPubDER, err := crypto.MarshalPublicKey(serverKP.Public)
	if err != nil {
		return 0, fail("marshal server public key", err)
	}

	if err := conn.Send(fieldHello, serverPubDER); err != nil {
		return 0, fail("send server HELLO", err)
	}

	_, fields, err := conn.Receive(1)
	if err != nil {
		return 0, fail("receive client HELLO", err)
	}
	if len(fields) != 2 || string(fields[0]) != "HELLO" {
		return 0, fail("malformed client HELLO", nil)
	}

	// The cores field is a raw 4-byte big-endian value whose bytes may
	// include NUL, so it is read by its fixed width rather than by a
	// further NUL split; one separator then precedes the DER key.
	rest := fields[1]
	if len(rest) < 5 || rest[4] != 0 {
		return 0, fail("malformed client HELLO", nil)
	}
	cores := wire.DecodeUint32(rest[:4])
	clientPub, err := crypto.ParsePublicKey(rest[5:])
	if err != nil {
		return 0, fail("parse client public key", err)
	}

	shared, err := crypto.SharedSecret(serverKP.Private, clientPub)
	if err != nil {
		return 0, fail("compute shared secret", err)
	}
	key, err := crypto.DeriveSessionKey(shared)
	if err != nil {
		return 0, fail("derive session key", err)
	}
	conn.SetSessionKey(key)

	_, fields, err = conn.Receive(-1)
	if err != nil {
		return 0, fail("receive client OK", err)
	}
	if len(fields) != 1 || string(fields[0]) != "OK" {
		return 0, fail("client OK mismatch", nil)
	}

	if err := conn.Send(fieldOK); err != nil {
		return 0, fail("send server OK", err)
	}

	return cores, nil
}

// ClientHandshake runs the worker side of the handshake, declaring
// cores as its logical core count.
func ClientHandshake(conn *wire.Conn, cores uint32) error {
	_, fields, err := conn.Receive(1)
	if err != nil {
		return fail("receive server HELLO", err)
	}
	if len(fields) != 2 || string(fields[0]) != "HELLO" {
		return fail("malformed server HELLO", nil)
	}

	serverPub, err := crypto.ParsePublicKey(fields[1])
	if err != nil {
		return fail("parse server public key", err)
	}

	clientKP, err := crypto.GenerateKeyPair()
	if err != nil {
		return fail("generate client keypair", err)
	}
	clientPubDER, err := crypto.MarshalPublicKey(clientKP.Public)
	if err != nil {
		return fail("marshal client public key", err)
	}

	if err := conn.Send(fieldHello, wire.EncodeUint32(cores), clientPubDER); err != nil {
		return fail("send client HELLO", err)
	}

	shared, err := crypto.SharedSecret(clientKP.Private, serverPub)
	if err != nil {
		return fail("compute shared secret", err)
	}
	key, err := crypto.DeriveSessionKey(shared)
	if err != nil {
		return fail("derive session key", err)
	}
	conn.SetSessionKey(key)

	if err := conn.Send(fieldOK); err != nil {
		return fail("send client OK", err)
	}

	_, fields, err = conn.Receive(-1)
	if err != nil {
		return fail("receive server OK", err)
	}
	if len(fields) != 1 || string(fields[0]) != "OK" {
		return fail("server OK mismatch", nil)
	}

	return nil
}
