// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package amqp

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/packetd/amqpc/internal/bufbytes"
)

// defaultAMQPPort and defaultAMQPSPort are the IANA-assigned ports for
// plain and TLS AMQP.
const (
	defaultAMQPPort  = 5672
	defaultAMQPSPort = 5671
)

// Transport is the byte-stream a Connection drives its handshake and
// frame traffic over. The default implementation is TCPTransport; tests
// substitute an in-memory pipe.
type Transport interface {
	Connect(ctx context.Context) error
	Send(ctx context.Context, b []byte) error
	RecvExact(ctx context.Context, n int) ([]byte, error)
	IsConnected() bool
	Close() error
}

// TCPTransport is the default Transport, a plain or TLS TCP socket to a
// single broker node. One goroutine may call RecvExact while another
// calls Send concurrently; writeMu only serializes concurrent Sends
// against each other.
type TCPTransport struct {
	Host      string
	Port      int
	TLSConfig *tls.Config // nil disables TLS

	mu        sync.Mutex
	writeMu   sync.Mutex
	conn      net.Conn
	connected bool

	// readMu serializes RecvExact against itself (the connection's read
	// loop is the only caller, but Close may race it) and guards pending,
	// the bytes already pulled off the socket for an in-progress read
	// that hit its deadline before n bytes arrived. Without it, a read
	// timeout on the 7-byte frame header would drop whatever prefix of
	// that header had already been consumed from the kernel buffer.
	readMu  sync.Mutex
	pending []byte
}

// NewTCPTransport builds a transport for host:port, or host:defaultPort
// if port is 0 (5671 with TLS enabled, 5672 otherwise).
func NewTCPTransport(host string, port int, tlsConfig *tls.Config) *TCPTransport {
	if port == 0 {
		if tlsConfig != nil {
			port = defaultAMQPSPort
		} else {
			port = defaultAMQPPort
		}
	}
	return &TCPTransport{Host: host, Port: port, TLSConfig: tlsConfig}
}

func (t *TCPTransport) Connect(ctx context.Context) error {
	addr := net.JoinHostPort(t.Host, strconv.Itoa(t.Port))

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	if t.TLSConfig != nil {
		tlsConn := tls.Client(conn, t.TLSConfig)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			conn.Close()
			return err
		}
		conn = tlsConn
	}

	t.mu.Lock()
	t.conn = conn
	t.connected = true
	t.mu.Unlock()
	return nil
}

func (t *TCPTransport) Send(ctx context.Context, b []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	conn := t.currentConn()
	if conn == nil {
		return errNotConnected()
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetWriteDeadline(deadline)
		defer conn.SetWriteDeadline(time.Time{})
	}
	_, err := conn.Write(b)
	if err != nil {
		t.markDisconnected()
	}
	return err
}

// RecvExact blocks until exactly n bytes have been read, ctx's deadline
// elapses, or the connection drops. A deadline expiry is reported as
// context.DeadlineExceeded (never a fatal disconnect — the connection's
// read loop uses it to count a missed heartbeat, per spec.md §4.7) and
// any bytes already read toward n are kept for the next call with the
// same n, rather than discarded.
func (t *TCPTransport) RecvExact(ctx context.Context, n int) ([]byte, error) {
	conn := t.currentConn()
	if conn == nil {
		return nil, errNotConnected()
	}

	t.readMu.Lock()
	defer t.readMu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
		defer conn.SetReadDeadline(time.Time{})
	} else {
		conn.SetReadDeadline(time.Time{})
	}

	acc := bufbytes.New(n)
	if len(t.pending) > 0 {
		acc.Write(t.pending)
		t.pending = nil
	}

	chunk := make([]byte, n)
	for !acc.Full() {
		m, err := conn.Read(chunk[:acc.Needed()])
		if m > 0 {
			acc.Write(chunk[:m])
		}
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				t.pending = acc.Clone()
				return nil, context.DeadlineExceeded
			}
			t.markDisconnected()
			return acc.Clone(), err
		}
	}
	return acc.Clone(), nil
}

func (t *TCPTransport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

func (t *TCPTransport) Close() error {
	t.mu.Lock()
	conn := t.conn
	t.connected = false
	t.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

func (t *TCPTransport) currentConn() net.Conn {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.connected {
		return nil
	}
	return t.conn
}

func (t *TCPTransport) markDisconnected() {
	t.mu.Lock()
	t.connected = false
	t.mu.Unlock()
}

func errNotConnected() error {
	return newProtocolError("transport not connected")
}
