package worker

import (
	"net"
	"testing"
	"time"

	"github.com/hashforge/cluster/internal/crypto"
	"github.com/hashforge/cluster/internal/task"
	"github.com/hashforge/cluster/internal/wire"
)

func TestDispatcherReportsFound(t *testing.T) {
	serverRaw, clientRaw := net.Pipe()
	defer serverRaw.Close()
	defer clientRaw.Close()

	serverConn := wire.New(serverRaw)
	clientConn := wire.New(clientRaw)

	var key crypto.SessionKey
	for i := range key {
		key[i] = 0x42
	}
	serverConn.SetSessionKey(key)
	clientConn.SetSessionKey(key)

	d := NewDispatcher(clientConn, 2, nil, nil)
	done := make(chan error, 1)
	go func() { done <- d.Run() }()

	tk := &task.Task{ID: 9, Action: task.ActionMD5, Digest: digestMD5("3"), Buffer: []string{"0-10"}}
	if err := serverConn.Send(tk.EncodeMessage()...); err != nil {
		t.Fatalf("Send(TASK) failed: %v", err)
	}

	_, fields, err := serverConn.Receive(2)
	if err != nil {
		t.Fatalf("Receive() failed: %v", err)
	}
	if string(fields[0]) != "FOUND" {
		t.Fatalf("got message %q, want FOUND", fields[0])
	}
	taskID, candidate, err := task.DecodeFound(fields[1:])
	if err != nil {
		t.Fatalf("DecodeFound() failed: %v", err)
	}
	if taskID != 9 || candidate != "3" {
		t.Fatalf("got (%d, %q), want (9, \"3\")", taskID, candidate)
	}

	clientRaw.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run() did not return after connection close")
	}
}
