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

func TestFrameRouterDispatchesByChannelAndType(t *testing.T) {
	r := NewFrameRouter()

	var gotChannel uint16
	var gotArgs *ConnectionTune
	r.Register(0, &ConnectionTune{}, func(channel uint16, payload any) error {
		gotChannel = channel
		gotArgs = payload.(*ConnectionTune)
		return nil
	})

	frame := &Frame{
		Header:  FrameHeader{Type: frameMethod, Channel: 0},
		Payload: &ConnectionTune{ChannelMax: 5},
	}
	require.NoError(t, r.Route(frame))
	assert.EqualValues(t, 0, gotChannel)
	assert.EqualValues(t, 5, gotArgs.ChannelMax)
}

func TestFrameRouterNoRoute(t *testing.T) {
	r := NewFrameRouter()
	frame := &Frame{Header: FrameHeader{Channel: 1}, Payload: &ConnectionTune{}}
	err := r.Route(frame)
	assert.Equal(t, ErrNoRoute, err)
}

func TestFrameRouterHeartbeat(t *testing.T) {
	r := NewFrameRouter()
	called := false
	r.RegisterHeartbeat(func() { called = true })

	frame := &Frame{Header: FrameHeader{Type: frameHeartbeat, Channel: 0}, Payload: HeartbeatFrame{}}
	require.NoError(t, r.Route(frame))
	assert.True(t, called)
}

func TestFrameRouterUnregister(t *testing.T) {
	r := NewFrameRouter()
	r.Register(0, &ConnectionTune{}, func(uint16, any) error { return nil })
	r.Unregister(0, &ConnectionTune{})

	frame := &Frame{Header: FrameHeader{Channel: 0}, Payload: &ConnectionTune{}}
	err := r.Route(frame)
	assert.Equal(t, ErrNoRoute, err)
}
