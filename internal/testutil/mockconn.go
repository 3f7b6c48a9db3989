package testutil

import (
	"bytes"
	"io"
	"net"
	"sync"
	"time"
)

// mockAddr is a net.Addr with a fixed host:port string.
type mockAddr struct {
	network string
	address string
}

func (a mockAddr) Network() string { return a.network }
func (a mockAddr) String() string  { return a.address }

// MockConn implements net.Conn over in-memory buffers. Reads drain bytes
// queued with FeedRead, writes land in a buffer the test inspects through
// Written. Safe for concurrent use, so a client's writer goroutine can run
// against it while the test looks at the results.
//
// ReadErr and WriteErr must be set before the conn is handed to another
// goroutine.
type MockConn struct {
	mu       sync.Mutex
	readBuf  bytes.Buffer
	writeBuf bytes.Buffer
	closed   bool

	// ReadErr is returned by every Read when set.
	ReadErr error
	// WriteErr is returned by every Write when set.
	WriteErr error
}

// NewMockConn returns an open MockConn with a parseable remote address, so
// it passes the same host extraction a real TCP connection does.
func NewMockConn() *MockConn {
	return &MockConn{}
}

// FeedRead queues bytes for subsequent Read calls.
func (m *MockConn) FeedRead(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readBuf.Write(data)
}

// Written returns a copy of everything written so far.
func (m *MockConn) Written() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]byte, m.writeBuf.Len())
	copy(out, m.writeBuf.Bytes())
	return out
}

// Closed reports whether Close has been called.
func (m *MockConn) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *MockConn) Read(b []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return 0, m.ReadErr
	}
	if m.closed {
		return 0, io.EOF
	}
	return m.readBuf.Read(b)
}

func (m *MockConn) Write(b []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return 0, m.WriteErr
	}
	if m.closed {
		return 0, net.ErrClosed
	}
	return m.writeBuf.Write(b)
}

func (m *MockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *MockConn) LocalAddr() net.Addr {
	return mockAddr{network: "tcp", address: "127.0.0.1:8888"}
}

func (m *MockConn) RemoteAddr() net.Addr {
	return mockAddr{network: "tcp", address: "192.168.1.100:12345"}
}

func (m *MockConn) SetDeadline(t time.Time) error      { return nil }
func (m *MockConn) SetReadDeadline(t time.Time) error  { return nil }
func (m *MockConn) SetWriteDeadline(t time.Time) error { return nil }
