package task

import (
	"encoding/base64"
	"strconv"
	"strings"

	"github.com/zeebo/blake3"
)

// Fingerprint returns the base64-encoded BLAKE3 hash of a Task's
// canonical encoding: action, id, digest, and buffer, NUL-joined. Two
// coordinator runs given the same key-space parameters chunk
// identically and therefore produce identical fingerprints — this is
// the per-task building block for the run fingerprint (SPEC_FULL §4.5).
func (t *Task) Fingerprint() string {
	var b strings.Builder
	b.WriteString(string(t.Action))
	b.WriteByte(0)
	b.WriteString(strconv.FormatUint(t.ID, 10))
	b.WriteByte(0)
	b.WriteString(t.Digest)
	for _, item := range t.Buffer {
		b.WriteByte(0)
		b.WriteString(item)
	}

	h := blake3.New()
	h.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// MerkleRoot folds an ordered list of per-task fingerprints (as
// produced by Fingerprint) into a single root hash, duplicating the
// last element of any odd level — the same construction as the
// teacher's file-chunk Merkle root, applied to task fingerprints
// instead of chunk hashes.
func MerkleRoot(fingerprints []string) (string, error) {
	if len(fingerprints) == 0 {
		return "", nil
	}

	level := make([][]byte, len(fingerprints))
	for i, fp := range fingerprints {
		decoded, err := base64.StdEncoding.DecodeString(fp)
		if err != nil {
			return "", err
		}
		level[i] = decoded
	}

	for len(level) > 1 {
		var next [][]byte
		for i := 0; i < len(level); i += 2 {
			var combined []byte
			if i+1 < len(level) {
				combined = append(append([]byte{}, level[i]...), level[i+1]...)
			} else {
				combined = append(append([]byte{}, level[i]...), level[i]...)
			}
			h := blake3.New()
			h.Write(combined)
			next = append(next, h.Sum(nil))
		}
		level = next
	}

	return base64.StdEncoding.EncodeToString(level[0]), nil
}
