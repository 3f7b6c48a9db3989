package testutil

import (
	"net"
	"testing"
	"time"
)

// WaitForTCPReady blocks until the address accepts TCP connections or the
// timeout expires.
func WaitForTCPReady(t testing.TB, addr string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 50*time.Millisecond)
		if err == nil {
			conn.Close()
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("server at %s not ready after %v", addr, timeout)
}

// WaitForCleanup polls cond until it holds or the timeout expires. Use it
// for asynchronous teardown effects such as session removal.
func WaitForCleanup(t testing.TB, cond func() bool, timeout time.Duration, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("%s: condition not met within %v", msg, timeout)
}
