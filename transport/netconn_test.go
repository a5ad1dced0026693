package transport_test

import (
	"bytes"
	"io"
	"net"
	"testing"
	"time"

	"github.com/momentics/wsflush/fake"
	"github.com/momentics/wsflush/transport"
)

func TestConnEndpointGatherWrite(t *testing.T) {
	client, server := net.Pipe()
	defer server.Close()
	ep := transport.NewConnEndpoint(client)
	defer ep.Close()

	read := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 16)
		if _, err := io.ReadFull(server, buf); err != nil {
			read <- nil
			return
		}
		read <- buf
	}()

	cb := fake.NewCallback()
	ep.Write(cb, []byte("0123"), []byte("4567"), []byte("89abcdef"))

	select {
	case <-cb.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("write did not complete")
	}
	if cb.Err() != nil {
		t.Fatal(cb.Err())
	}

	got := <-read
	if !bytes.Equal(got, []byte("0123456789abcdef")) {
		t.Fatalf("read %q", got)
	}
}

func TestConnEndpointWriteFailure(t *testing.T) {
	client, server := net.Pipe()
	server.Close()
	client.Close()
	ep := transport.NewConnEndpoint(client)

	cb := fake.NewCallback()
	ep.Write(cb, []byte("doomed"))

	select {
	case <-cb.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("write did not complete")
	}
	if cb.Err() == nil {
		t.Fatal("expected error on closed pipe")
	}
}
