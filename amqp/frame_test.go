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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeHeartbeatFrame(t *testing.T) {
	b := EncodeHeartbeatFrame()
	assert.Equal(t, []byte{frameHeartbeat, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, frameEnd}, b)
}

func TestEncodeMethodFrameConnectionCloseOk(t *testing.T) {
	b := EncodeMethodFrame(0, classConnection, methodConnectionCloseOk, nil)

	header, rest, err := decodeFrameHeader(b)
	require.NoError(t, err)
	assert.EqualValues(t, frameMethod, header.Type)
	assert.EqualValues(t, 0, header.Channel)
	assert.EqualValues(t, 4, header.Size) // class id + method id, no args

	assert.Equal(t, byte(frameEnd), rest[header.Size])
}

func TestDecodeFrameIncomplete(t *testing.T) {
	b := EncodeMethodFrame(0, classConnection, methodConnectionCloseOk, nil)
	frame, rest, err := DecodeFrame(b[:headerLength+2])
	require.NoError(t, err)
	assert.Nil(t, frame)
	assert.Equal(t, b[:headerLength+2], rest)
}

func TestDecodeFrameMissingEndOctet(t *testing.T) {
	b := EncodeMethodFrame(0, classConnection, methodConnectionCloseOk, nil)
	b[len(b)-1] = 0x00
	_, _, err := DecodeFrame(b)
	assert.Error(t, err)
}

func TestMethodFrameRoundTrip(t *testing.T) {
	args := &ConnectionClose{ReplyCode: ReplySuccess, ReplyText: "bye", ClassID: 0, FailureMethodID: 0}
	body, err := args.Encode()
	require.NoError(t, err)

	b := EncodeMethodFrame(0, classConnection, methodConnectionClose, body)
	frame, rest, err := DecodeFrame(b)
	require.NoError(t, err)
	assert.Empty(t, rest)

	mf, ok := frame.Payload.(*MethodFrame)
	require.True(t, ok)
	assert.EqualValues(t, classConnection, mf.ClassID)
	assert.EqualValues(t, methodConnectionClose, mf.MethodID)

	got, ok := mf.Args.(*ConnectionClose)
	require.True(t, ok)
	assert.Equal(t, args, got)
}

func TestDecodeFrameUnknownMethodErrors(t *testing.T) {
	startOk := &ConnectionStartOk{
		ClientProperties: Table{"product": "amqpc"},
		Mechanism:        "PLAIN",
		Response:         "\x00guest\x00guest",
		Locale:           "en_US",
	}
	body, err := startOk.Encode()
	require.NoError(t, err)

	// 99 is not a Connection method id, so the catalog has no argument
	// shape for it and decoding fails rather than misinterpreting the body.
	b := EncodeMethodFrame(0, classConnection, 99, body)
	_, _, err = DecodeFrame(b)
	assert.Error(t, err)
}
