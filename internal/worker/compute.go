// Package worker implements the compute side of the cluster: dialing
// the coordinator, running the handshake, and executing dispatched
// Tasks in parallel across the local core count.
package worker

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/hashforge/cluster/internal/task"
)

// hashFunc returns the lowercase hex digest function for a Task's
// declared Action.
func hashFunc(action task.Action) (func([]byte) string, error) {
	switch action {
	case task.ActionMD5:
		return func(b []byte) string {
			sum := md5.Sum(b)
			return hex.EncodeToString(sum[:])
		}, nil
	case task.ActionSHA256:
		return func(b []byte) string {
			sum := sha256.Sum256(b)
			return hex.EncodeToString(sum[:])
		}, nil
	default:
		return nil, fmt.Errorf("worker: unknown action %q", action)
	}
}

// candidates yields the concrete candidate strings a Task's buffer
// represents: range-form buffers are expanded lazily (spec.md §4.4,
// half-open, start inclusive); concrete buffers are returned as-is.
func candidates(buffer []string) (func(yield func(string) bool), error) {
	if !task.IsRangeForm(buffer) {
		return func(yield func(string) bool) {
			for _, c := range buffer {
				if !yield(c) {
					return
				}
			}
		}, nil
	}

	return func(yield func(string) bool) {
		for _, item := range buffer {
			parts := strings.SplitN(item, "-", 2)
			if len(parts) != 2 {
				return
			}
			start, err := strconv.ParseInt(parts[0], 10, 64)
			if err != nil {
				return
			}
			end, err := strconv.ParseInt(parts[1], 10, 64)
			if err != nil {
				return
			}
			for n := start; n < end; n++ {
				if !yield(strconv.FormatInt(n, 10)) {
					return
				}
			}
		}
	}, nil
}

// Compute runs a Task to completion: it hashes each expanded candidate
// and compares against the expected digest, stopping at the first
// match. Returns ("", false) if the buffer is exhausted with no match.
func Compute(t *task.Task) (match string, found bool, err error) {
	hf, err := hashFunc(t.Action)
	if err != nil {
		return "", false, err
	}
	iter, err := candidates(t.Buffer)
	if err != nil {
		return "", false, err
	}

	expected := strings.ToLower(t.Digest)
	for c := range iter {
		if hf([]byte(c)) == expected {
			return c, true, nil
		}
	}
	return "", false, nil
}
