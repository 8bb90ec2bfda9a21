package task

import (
	"fmt"
	"strconv"

	"github.com/hashforge/cluster/internal/wire"
)

// EncodeFound renders a worker's match report as the field list of a
// FOUND frame: ["FOUND", task_id, candidate].
func EncodeFound(taskID uint64, candidate string) [][]byte {
	return [][]byte{
		wire.EncodeString("FOUND"),
		wire.EncodeString(strconv.FormatUint(taskID, 10)),
		wire.EncodeString(candidate),
	}
}

// DecodeFound parses the field list of a FOUND frame (fields[0], the
// "FOUND" tag, already consumed by the caller's dispatch switch).
func DecodeFound(fields [][]byte) (taskID uint64, candidate string, err error) {
	if len(fields) != 2 {
		return 0, "", fmt.Errorf("task: FOUND frame has %d fields, want 2", len(fields))
	}
	taskID, err = strconv.ParseUint(string(fields[0]), 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("task: bad FOUND task id %q: %w", fields[0], err)
	}
	return taskID, string(fields[1]), nil
}

// EncodeDone renders a worker's exhaustion report as the field list of
// a DONE frame: ["DONE", task_id].
func EncodeDone(taskID uint64) [][]byte {
	return [][]byte{
		wire.EncodeString("DONE"),
		wire.EncodeString(strconv.FormatUint(taskID, 10)),
	}
}

// DecodeDone parses the field list of a DONE frame (the "DONE" tag
// already consumed).
func DecodeDone(fields [][]byte) (taskID uint64, err error) {
	if len(fields) != 1 {
		return 0, fmt.Errorf("task: DONE frame has %d fields, want 1", len(fields))
	}
	taskID, err = strconv.ParseUint(string(fields[0]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("task: bad DONE task id %q: %w", fields[0], err)
	}
	return taskID, nil
}
