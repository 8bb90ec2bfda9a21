package wire

import "errors"

// ErrIO marks a transport-local failure: socket closed, write failure,
// or a truncated read before any length prefix was obtained. Per
// spec.md §7 this is never fatal to the coordinator — the connection
// is closed and its work reassigned.
var ErrIO = errors.New("wire: io error")

// ErrProtocol marks a malformed frame: a truncated payload read after
// the length prefix was already obtained, or an AES authentication tag
// mismatch. Treated the same as ErrIO by callers (close and reassign)
// but reported distinctly for diagnostics.
var ErrProtocol = errors.New("wire: protocol error")
