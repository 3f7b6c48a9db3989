package testutil

import (
	"net"
	"testing"
)

// PipeConn returns both ends of an in-memory connection, closed when the
// test finishes.
func PipeConn(t testing.TB) (client, server net.Conn) {
	t.Helper()
	client, server = net.Pipe()
	t.Cleanup(func() {
		client.Close()
		server.Close()
	})
	return client, server
}

// ListenTCP opens a loopback listener on an ephemeral port and returns it
// together with its address. The listener is closed when the test finishes.
func ListenTCP(t testing.TB) (net.Listener, string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })
	return ln, ln.Addr().String()
}
