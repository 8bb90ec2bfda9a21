package task

import "testing"

func TestEncodeDecodeFoundRoundTrip(t *testing.T) {
	fields := EncodeFound(7, "42")
	id, candidate, err := DecodeFound(fields[1:])
	if err != nil {
		t.Fatalf("DecodeFound() failed: %v", err)
	}
	if id != 7 || candidate != "42" {
		t.Fatalf("got (%d, %q), want (7, \"42\")", id, candidate)
	}
}

func TestEncodeDecodeDoneRoundTrip(t *testing.T) {
	fields := EncodeDone(3)
	id, err := DecodeDone(fields[1:])
	if err != nil {
		t.Fatalf("DecodeDone() failed: %v", err)
	}
	if id != 3 {
		t.Fatalf("got %d, want 3", id)
	}
}

func TestDecodeFoundRejectsWrongArity(t *testing.T) {
	if _, _, err := DecodeFound([][]byte{[]byte("1")}); err == nil {
		t.Fatal("expected error on wrong field count")
	}
}
