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
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTCPTransportConnectSendRecv(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	host, portStr, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	transport := NewTCPTransport(host, port, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, transport.Connect(ctx))
	defer transport.Close()

	serverConn := <-accepted
	defer serverConn.Close()

	require.NoError(t, transport.Send(ctx, []byte("AMQP\x00\x00\x09\x01")))

	buf := make([]byte, 8)
	_, err = serverConn.Read(buf)
	require.NoError(t, err)
	require.Equal(t, "AMQP\x00\x00\x09\x01", string(buf))

	_, err = serverConn.Write([]byte("partial"))
	require.NoError(t, err)
	go func() {
		time.Sleep(10 * time.Millisecond)
		serverConn.Write([]byte("-rest"))
	}()

	got, err := transport.RecvExact(ctx, len("partial-rest"))
	require.NoError(t, err)
	require.Equal(t, "partial-rest", string(got))
	require.True(t, transport.IsConnected())
}

func TestTCPTransportDefaultPorts(t *testing.T) {
	plain := NewTCPTransport("broker", 0, nil)
	require.Equal(t, defaultAMQPPort, plain.Port)
}
