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
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// pipeTransport adapts a net.Conn (one end of a net.Pipe) to the
// Transport interface, standing in for TCPTransport in tests that drive
// a full handshake against a fake broker goroutine on the other end.
type pipeTransport struct {
	conn net.Conn
}

func (p *pipeTransport) Connect(context.Context) error { return nil }

func (p *pipeTransport) Send(_ context.Context, b []byte) error {
	_, err := p.conn.Write(b)
	return err
}

func (p *pipeTransport) RecvExact(_ context.Context, n int) ([]byte, error) {
	buf := make([]byte, n)
	_, err := io.ReadFull(p.conn, buf)
	return buf, err
}

func (p *pipeTransport) IsConnected() bool { return true }

func (p *pipeTransport) Close() error { return p.conn.Close() }

func encodeConnectionStart() []byte {
	w := newWireWriter()
	w.write(encodeOctet(0))
	w.write(encodeOctet(9))
	tbl, _ := encodeTable(Table{"product": "fakebroker"})
	w.write(tbl)
	w.write(encodeLongString("PLAIN"))
	w.write(encodeLongString("en_US"))
	body, _ := w.finish()
	return EncodeMethodFrame(0, classConnection, methodConnectionStart, body)
}

func encodeConnectionTune(channelMax uint16, frameMax uint32, heartbeat uint16) []byte {
	w := newWireWriter()
	w.write(encodeShortUint(channelMax))
	w.write(encodeLongUint(frameMax))
	w.write(encodeShortUint(heartbeat))
	body, _ := w.finish()
	return EncodeMethodFrame(0, classConnection, methodConnectionTune, body)
}

func encodeConnectionOpenOk() []byte {
	w := newWireWriter()
	ss, _ := encodeShortString("")
	w.write(ss)
	body, _ := w.finish()
	return EncodeMethodFrame(0, classConnection, methodConnectionOpenOk, body)
}

func readFrameFromConn(t *testing.T, conn net.Conn) *Frame {
	t.Helper()
	header := make([]byte, headerLength)
	_, err := io.ReadFull(conn, header)
	require.NoError(t, err)
	h, _, err := decodeFrameHeader(header)
	require.NoError(t, err)

	rest := make([]byte, h.Size+1)
	_, err = io.ReadFull(conn, rest)
	require.NoError(t, err)

	frame, _, err := DecodeFrame(append(header, rest...))
	require.NoError(t, err)
	return frame
}

// runFakeBroker drives the server side of a handshake followed by an
// orderly close, mirroring the sequence in
// original_source/amqp_aio/connection.py's AMQPConnection._run.
func runFakeBroker(t *testing.T, conn net.Conn, heartbeat uint16) {
	t.Helper()

	proto := make([]byte, len(protocolHeader))
	_, err := io.ReadFull(conn, proto)
	require.NoError(t, err)
	require.Equal(t, protocolHeader, proto)

	_, err = conn.Write(encodeConnectionStart())
	require.NoError(t, err)

	startOkFrame := readFrameFromConn(t, conn)
	mf := startOkFrame.Payload.(*MethodFrame)
	require.EqualValues(t, methodConnectionStartOk, mf.MethodID)

	_, err = conn.Write(encodeConnectionTune(8, 131072, heartbeat))
	require.NoError(t, err)

	tuneOkFrame := readFrameFromConn(t, conn)
	mf = tuneOkFrame.Payload.(*MethodFrame)
	require.EqualValues(t, methodConnectionTuneOk, mf.MethodID)

	openFrame := readFrameFromConn(t, conn)
	mf = openFrame.Payload.(*MethodFrame)
	require.EqualValues(t, methodConnectionOpen, mf.MethodID)

	_, err = conn.Write(encodeConnectionOpenOk())
	require.NoError(t, err)

	closeFrame := readFrameFromConn(t, conn)
	mf = closeFrame.Payload.(*MethodFrame)
	require.EqualValues(t, methodConnectionClose, mf.MethodID)

	closeOkBody, _ := (&ConnectionCloseOk{}).Encode()
	_, err = conn.Write(EncodeMethodFrame(0, classConnection, methodConnectionCloseOk, closeOkBody))
	require.NoError(t, err)
}

func TestDialHandshakeAndClose(t *testing.T) {
	clientConn, serverConn := net.Pipe()
	defer serverConn.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		runFakeBroker(t, serverConn, 0)
	}()

	opts := DefaultDialOptions()
	opts.Transport = &pipeTransport{conn: clientConn}
	opts.ConnectTimeout = 2 * time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, err := Dial(ctx, opts)
	require.NoError(t, err)
	require.Equal(t, StateOpen, conn.State())
	require.EqualValues(t, 8, conn.tune.ChannelMax)
	require.EqualValues(t, 131072, conn.tune.FrameMax)

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer closeCancel()
	require.NoError(t, conn.Close(closeCtx))

	<-done
	require.Equal(t, StateClosed, conn.State())
}
