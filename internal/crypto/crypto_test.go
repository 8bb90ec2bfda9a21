package crypto

import (
	"bytes"
	"testing"
)

func TestGenerateKeyPair(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair() failed: %v", err)
	}
	if kp.Private == nil || kp.Public == nil {
		t.Fatal("expected non-nil private and public key")
	}
}

func TestMarshalParsePublicKeyRoundTrip(t *testing.T) {
	kp, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair() failed: %v", err)
	}

	der, err := MarshalPublicKey(kp.Public)
	if err != nil {
		t.Fatalf("MarshalPublicKey() failed: %v", err)
	}

	parsed, err := ParsePublicKey(der)
	if err != nil {
		t.Fatalf("ParsePublicKey() failed: %v", err)
	}

	if !bytes.Equal(parsed.Bytes(), kp.Public.Bytes()) {
		t.Error("parsed public key does not match original")
	}
}

func TestParsePublicKeyRejectsGarbage(t *testing.T) {
	if _, err := ParsePublicKey([]byte("not a der key")); err == nil {
		t.Error("expected error parsing garbage DER")
	}
}

func TestSharedSecretSymmetric(t *testing.T) {
	alice, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("failed to generate Alice's keypair: %v", err)
	}
	bob, err := GenerateKeyPair()
	if err != nil {
		t.Fatalf("failed to generate Bob's keypair: %v", err)
	}

	aliceShared, err := SharedSecret(alice.Private, bob.Public)
	if err != nil {
		t.Fatalf("Alice's SharedSecret failed: %v", err)
	}
	bobShared, err := SharedSecret(bob.Private, alice.Public)
	if err != nil {
		t.Fatalf("Bob's SharedSecret failed: %v", err)
	}

	if !bytes.Equal(aliceShared, bobShared) {
		t.Error("shared secrets do not match")
	}
}

func TestDeriveSessionKeySymmetric(t *testing.T) {
	alice, _ := GenerateKeyPair()
	bob, _ := GenerateKeyPair()

	aliceShared, _ := SharedSecret(alice.Private, bob.Public)
	bobShared, _ := SharedSecret(bob.Private, alice.Public)

	aliceKey, err := DeriveSessionKey(aliceShared)
	if err != nil {
		t.Fatalf("Alice's DeriveSessionKey failed: %v", err)
	}
	bobKey, err := DeriveSessionKey(bobShared)
	if err != nil {
		t.Fatalf("Bob's DeriveSessionKey failed: %v", err)
	}

	if aliceKey != bobKey {
		t.Error("derived session keys do not match")
	}
}

func TestSealOpenRoundTrip(t *testing.T) {
	var key SessionKey
	copy(key[:], bytes.Repeat([]byte{0x42}, 32))

	plaintext := []byte("HELLO\x00world")
	ciphertext, err := Seal(key[:], SessionNonce[:], plaintext)
	if err != nil {
		t.Fatalf("Seal() failed: %v", err)
	}

	decrypted, err := Open(key[:], SessionNonce[:], ciphertext)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}

	if !bytes.Equal(decrypted, plaintext) {
		t.Error("decrypted plaintext does not match original")
	}
}

func TestOpenDetectsTampering(t *testing.T) {
	var key SessionKey
	copy(key[:], bytes.Repeat([]byte{0x07}, 32))

	ciphertext, err := Seal(key[:], SessionNonce[:], []byte("data"))
	if err != nil {
		t.Fatalf("Seal() failed: %v", err)
	}
	ciphertext[0] ^= 0xFF

	if _, err := Open(key[:], SessionNonce[:], ciphertext); err == nil {
		t.Error("expected authentication failure on tampered ciphertext")
	}
}

func TestSealRejectsBadNonceSize(t *testing.T) {
	var key SessionKey
	if _, err := Seal(key[:], []byte("short"), []byte("x")); err == nil {
		t.Error("expected error for wrong nonce size")
	}
}
