// Package task defines the unit of dispatchable work — the Task — its
// wire encoding, and the chunker that partitions a key space into a
// lazy sequence of Tasks. Coordinator and worker both import this
// package so the two sides agree on one encoding without either owning
// the other's concerns.
package task

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hashforge/cluster/internal/wire"
)

// Action names the hash function a Task asks the worker to run.
type Action string

const (
	ActionMD5    Action = "MD5"
	ActionSHA256 Action = "SHA256"
)

// Task is the unit of work dispatched to a worker and the unit of
// completion reported back. Buffer holds either an explicit list of
// candidate strings, or a list of "start-end" half-open numeric range
// strings that the worker expands lazily (spec.md §4.4).
type Task struct {
	ID     uint64
	Action Action
	Digest string
	Buffer []string
}

// IDGenerator hands out stable, monotonically increasing task ids for
// one run. Not safe for concurrent use by design — the chunker that
// owns it runs on a single goroutine (spec.md §9, "Generators").
type IDGenerator struct {
	next uint64
}

// Next returns the next id, starting at 0.
func (g *IDGenerator) Next() uint64 {
	id := g.next
	g.next++
	return id
}

// IsRangeForm reports whether buffer's elements are "start-end" range
// strings rather than concrete candidates (spec.md §4.4: decided by
// the first element containing "-").
func IsRangeForm(buffer []string) bool {
	return len(buffer) > 0 && strings.Contains(buffer[0], "-")
}

// ExpandedLength returns the number of candidate strings buffer
// represents: for range form, the sum of each range's end-start; for a
// concrete list, its length (spec.md §4.3's throughput accounting).
func ExpandedLength(buffer []string) (int64, error) {
	if !IsRangeForm(buffer) {
		return int64(len(buffer)), nil
	}
	var total int64
	for _, item := range buffer {
		start, end, err := parseRange(item)
		if err != nil {
			return 0, err
		}
		total += end - start
	}
	return total, nil
}

func parseRange(item string) (start, end int64, err error) {
	parts := strings.SplitN(item, "-", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("task: malformed range %q", item)
	}
	start, err = strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("task: malformed range start %q: %w", item, err)
	}
	end, err = strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("task: malformed range end %q: %w", item, err)
	}
	return start, end, nil
}

// EncodeMessage renders a Task as the field list of a TASK frame:
// ["TASK", action, id, digest, count, buf[0], ..., buf[count-1]].
// The chosen explicit layout replaces spec.md's opaque serialized blob
// (spec.md §9 leaves the exact format open, requiring only that it be
// symmetric between coordinator and worker).
func (t *Task) EncodeMessage() [][]byte {
	fields := make([][]byte, 0, 5+len(t.Buffer))
	fields = append(fields,
		wire.EncodeString("TASK"),
		wire.EncodeString(string(t.Action)),
		wire.EncodeString(strconv.FormatUint(t.ID, 10)),
		wire.EncodeString(t.Digest),
		wire.EncodeString(strconv.Itoa(len(t.Buffer))),
	)
	for _, item := range t.Buffer {
		fields = append(fields, wire.EncodeString(item))
	}
	return fields
}

// DecodeMessage parses the field list of a TASK frame produced by
// EncodeMessage. fields[0] ("TASK") has already been consumed by the
// caller's dispatch switch.
func DecodeMessage(fields [][]byte) (*Task, error) {
	if len(fields) < 4 {
		return nil, fmt.Errorf("task: TASK frame too short: %d fields", len(fields))
	}
	action := Action(fields[0])
	id, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("task: bad id %q: %w", fields[1], err)
	}
	digest := string(fields[2])
	count, err := strconv.Atoi(string(fields[3]))
	if err != nil || count < 0 {
		return nil, fmt.Errorf("task: bad buffer count %q", fields[3])
	}
	if len(fields) != 4+count {
		return nil, fmt.Errorf("task: declared %d buffer items, got %d", count, len(fields)-4)
	}
	buffer := make([]string, count)
	for i := 0; i < count; i++ {
		buffer[i] = string(fields[4+i])
	}
	return &Task{ID: id, Action: action, Digest: digest, Buffer: buffer}, nil
}
