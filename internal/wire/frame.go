// Package wire implements the transport both coordinator and worker
// speak: a length-prefixed, NUL-separated field frame, optionally
// wrapped in AES-256-GCM once a session key has been installed by the
// handshake. One Conn wraps exactly one net.Conn; see
// internal/handshake for the key-exchange that installs the session key.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/hashforge/cluster/internal/crypto"
)

const (
	lengthSize = 4
	separator  = 0x00
)

var aesPrefix = []byte("AES\x00")

// Conn is one connection's frame codec. Sends are serialized with a
// mutex (per spec.md §5, "writes to a connection's socket are
// serialized per connection"); reads are expected to happen only on
// the connection's own goroutine and are not separately locked.
type Conn struct {
	nc net.Conn

	writeMu sync.Mutex

	keyMu sync.RWMutex
	key   *crypto.SessionKey
}

// New wraps a raw net.Conn in the frame codec. No encryption is active
// until SetSessionKey is called.
func New(nc net.Conn) *Conn {
	return &Conn{nc: nc}
}

// SetSessionKey installs the AES key derived by the handshake. After
// this call every Send encrypts its payload, and Receive decrypts any
// frame carrying the AES prefix; a frame without the prefix is still
// returned as plaintext.
func (c *Conn) SetSessionKey(key crypto.SessionKey) {
	c.keyMu.Lock()
	defer c.keyMu.Unlock()
	c.key = &key
}

func (c *Conn) sessionKey() *crypto.SessionKey {
	c.keyMu.RLock()
	defer c.keyMu.RUnlock()
	return c.key
}

// RemoteAddr returns the underlying connection's remote address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.nc.RemoteAddr()
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.nc.Close()
}

// Send joins fields with a single NUL byte, encrypts the payload if a
// session key is installed, prefixes the 4-byte big-endian length, and
// writes the frame atomically with respect to other Send calls on this
// Conn.
func (c *Conn) Send(fields ...[]byte) error {
	payload := bytes.Join(fields, []byte{separator})

	if key := c.sessionKey(); key != nil {
		ciphertext, err := crypto.Seal(key[:], crypto.SessionNonce[:], payload)
		if err != nil {
			return fmt.Errorf("%w: encrypt frame: %v", ErrIO, err)
		}
		payload = append(append([]byte{}, aesPrefix...), ciphertext...)
	}

	header := make([]byte, lengthSize)
	binary.BigEndian.PutUint32(header, uint32(len(payload)))

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if _, err := c.nc.Write(header); err != nil {
		return fmt.Errorf("%w: write length: %v", ErrIO, err)
	}
	if _, err := c.nc.Write(payload); err != nil {
		return fmt.Errorf("%w: write payload: %v", ErrIO, err)
	}
	return nil
}

// Receive reads exactly one frame: a 4-byte length followed by that many
// payload bytes (looping on short reads), strips and decrypts the AES
// wrapper if present, then splits the plaintext on NUL with at most
// limit splits (limit = -1 means unlimited). A clean EOF before any
// bytes of the length prefix are read returns (nil, nil, nil). Any
// other truncation returns ErrIO (length prefix) or ErrProtocol
// (payload, or AES tag mismatch).
func (c *Conn) Receive(limit int) ([]byte, [][]byte, error) {
	header := make([]byte, lengthSize)
	if _, err := io.ReadFull(c.nc, header); err != nil {
		if err == io.EOF {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("%w: read length: %v", ErrIO, err)
	}

	length := binary.BigEndian.Uint32(header)
	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(c.nc, payload); err != nil {
			return nil, nil, fmt.Errorf("%w: read payload: %v", ErrProtocol, err)
		}
	}

	if bytes.HasPrefix(payload, aesPrefix) {
		key := c.sessionKey()
		if key == nil {
			return nil, nil, fmt.Errorf("%w: encrypted frame before session key installed", ErrProtocol)
		}
		ciphertext := payload[len(aesPrefix):]
		plaintext, err := crypto.Open(key[:], crypto.SessionNonce[:], ciphertext)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: decrypt frame: %v", ErrProtocol, err)
		}
		payload = plaintext
	}

	if len(payload) == 0 {
		return payload, [][]byte{}, nil
	}

	splitLimit := limit
	if splitLimit >= 0 {
		splitLimit++ // bytes.SplitN's n counts resulting pieces, spec's limit counts splits
	}
	fields := bytes.SplitN(payload, []byte{separator}, splitLimit)
	return payload, fields, nil
}
