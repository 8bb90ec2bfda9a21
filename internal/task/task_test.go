package task

import "testing"

func TestEncodeDecodeMessageRoundTrip(t *testing.T) {
	orig := &Task{
		ID:     42,
		Action: ActionSHA256,
		Digest: "deadbeef",
		Buffer: []string{"0-100", "100-200"},
	}

	fields := orig.EncodeMessage()
	if string(fields[0]) != "TASK" {
		t.Fatalf("fields[0] = %q, want TASK", fields[0])
	}

	got, err := DecodeMessage(fields[1:])
	if err != nil {
		t.Fatalf("DecodeMessage() failed: %v", err)
	}
	if got.ID != orig.ID || got.Action != orig.Action || got.Digest != orig.Digest {
		t.Fatalf("got %+v, want %+v", got, orig)
	}
	if len(got.Buffer) != len(orig.Buffer) || got.Buffer[0] != orig.Buffer[0] || got.Buffer[1] != orig.Buffer[1] {
		t.Fatalf("buffer mismatch: got %v, want %v", got.Buffer, orig.Buffer)
	}
}

func TestDecodeMessageRejectsShortFrame(t *testing.T) {
	if _, err := DecodeMessage([][]byte{[]byte("MD5")}); err == nil {
		t.Fatal("expected error on short frame")
	}
}

func TestDecodeMessageRejectsCountMismatch(t *testing.T) {
	fields := [][]byte{[]byte("MD5"), []byte("1"), []byte("abc"), []byte("2"), []byte("only-one")}
	if _, err := DecodeMessage(fields); err == nil {
		t.Fatal("expected error on buffer count mismatch")
	}
}

func TestIDGeneratorMonotonic(t *testing.T) {
	var ids IDGenerator
	if got := ids.Next(); got != 0 {
		t.Fatalf("first id = %d, want 0", got)
	}
	if got := ids.Next(); got != 1 {
		t.Fatalf("second id = %d, want 1", got)
	}
}
