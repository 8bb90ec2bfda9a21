package wire

import (
	"bytes"
	"net"
	"testing"

	"github.com/hashforge/cluster/internal/crypto"
)

func TestSendReceivePlaintextRoundTrip(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	sc := New(server)
	cc := New(client)

	fields := [][]byte{[]byte("HELLO"), []byte("world"), {}}

	done := make(chan error, 1)
	go func() { done <- sc.Send(fields...) }()

	_, got, err := cc.Receive(-1)
	if err != nil {
		t.Fatalf("Receive() failed: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("Send() failed: %v", err)
	}

	if len(got) != len(fields) {
		t.Fatalf("got %d fields, want %d", len(got), len(fields))
	}
	for i := range fields {
		if !bytes.Equal(got[i], fields[i]) {
			t.Errorf("field %d = %q, want %q", i, got[i], fields[i])
		}
	}
}

func TestSendReceiveEncryptedRoundTrip(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	sc := New(server)
	cc := New(client)

	var key crypto.SessionKey
	copy(key[:], bytes.Repeat([]byte{0x11}, 32))
	sc.SetSessionKey(key)
	cc.SetSessionKey(key)

	fields := [][]byte{[]byte("TASK"), []byte("42"), {0xDE, 0xAD, 0x00, 0xBE}}

	done := make(chan error, 1)
	go func() { done <- sc.Send(fields...) }()

	_, got, err := cc.Receive(2)
	if err != nil {
		t.Fatalf("Receive() failed: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("Send() failed: %v", err)
	}

	if len(got) != 3 {
		t.Fatalf("got %d fields, want 3 (limit=2 splits)", len(got))
	}
	if !bytes.Equal(got[0], []byte("TASK")) || !bytes.Equal(got[1], []byte("42")) {
		t.Errorf("unexpected decoded fields: %v", got)
	}
}

func TestReceiveCleanEOF(t *testing.T) {
	server, client := net.Pipe()
	client.Close()

	cc := New(server)
	raw, fields, err := cc.Receive(-1)
	if err != nil {
		t.Fatalf("expected clean EOF, got error: %v", err)
	}
	if raw != nil || fields != nil {
		t.Errorf("expected nil raw/fields on EOF, got %v / %v", raw, fields)
	}
}

// tamperConn flips the first ciphertext byte (just past the AES prefix)
// on the second Write call (the payload write; the first Write is
// always the 4-byte length header), simulating an on-the-wire bit flip.
type tamperConn struct {
	net.Conn
	writes int
}

func (t *tamperConn) Write(b []byte) (int, error) {
	t.writes++
	if t.writes == 2 && len(b) > len(aesPrefix) {
		tampered := append([]byte{}, b...)
		tampered[len(aesPrefix)] ^= 0xFF
		return t.Conn.Write(tampered)
	}
	return t.Conn.Write(b)
}

func TestReceiveDetectsTamperedCiphertext(t *testing.T) {
	pr, pw := net.Pipe()
	defer pr.Close()
	defer pw.Close()

	sender := New(&tamperConn{Conn: pw})
	receiver := New(pr)

	var key crypto.SessionKey
	copy(key[:], bytes.Repeat([]byte{0x22}, 32))
	sender.SetSessionKey(key)
	receiver.SetSessionKey(key)

	done := make(chan error, 1)
	go func() { done <- sender.Send([]byte("FOUND"), []byte("7")) }()

	_, _, err := receiver.Receive(-1)
	<-done

	if err == nil {
		t.Fatal("expected ErrProtocol on tampered ciphertext, got nil")
	}
}
