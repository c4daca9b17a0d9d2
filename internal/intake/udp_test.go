package intake

import (
	"bytes"
	"context"
	"net"
	"testing"
	"time"
)

func TestUDPListenerDeliversPayloads(t *testing.T) {
	l, err := NewUDPListener("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewUDPListener failed: %v", err)
	}
	defer l.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- l.Monitor(ctx) }()

	conn, err := net.Dial("udp", l.LocalAddr().String())
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	want := []byte{1, 0, 36, 0, 42}
	if _, err := conn.Write(want); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	select {
	case got := <-l.Packets():
		if !bytes.Equal(got, want) {
			t.Errorf("payload = %v, want %v", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for payload")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Monitor returned error on cancellation: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Monitor did not stop after cancellation")
	}
}
