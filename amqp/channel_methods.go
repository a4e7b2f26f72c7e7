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

// ChannelOpen requests a new channel on the connection. Reserved1 is a
// deprecated out-of-band field modern brokers ignore.
type ChannelOpen struct {
	Reserved1 string
}

func (m *ChannelOpen) Encode() ([]byte, error) {
	w := newWireWriter()
	ss, err := encodeShortString(m.Reserved1)
	w.writeErr(ss, err)
	return w.finish()
}

// ChannelOpenOk acknowledges ChannelOpen. Reserved1 is deprecated.
type ChannelOpenOk struct {
	Reserved1 string
}

func decodeChannelOpenOk(b []byte) (*ChannelOpenOk, error) {
	r := newWireReader(b)
	m := &ChannelOpenOk{Reserved1: r.longString()}
	return m, r.done()
}

// ChannelFlow asks a peer to pause or resume sending content frames.
type ChannelFlow struct {
	Active bool
}

func (m *ChannelFlow) Encode() ([]byte, error) {
	w := newWireWriter()
	w.write(encodeBoolean(m.Active))
	return w.finish()
}

func decodeChannelFlow(b []byte) (*ChannelFlow, error) {
	r := newWireReader(b)
	m := &ChannelFlow{Active: r.boolean()}
	return m, r.done()
}

// ChannelFlowOk confirms a ChannelFlow request took effect.
type ChannelFlowOk struct {
	Active bool
}

func (m *ChannelFlowOk) Encode() ([]byte, error) {
	w := newWireWriter()
	w.write(encodeBoolean(m.Active))
	return w.finish()
}

func decodeChannelFlowOk(b []byte) (*ChannelFlowOk, error) {
	r := newWireReader(b)
	m := &ChannelFlowOk{Active: r.boolean()}
	return m, r.done()
}

// ChannelClose initiates or answers a channel's closing handshake.
type ChannelClose struct {
	ReplyCode       uint16
	ReplyText       string
	ClassID         uint16
	FailureMethodID uint16
}

func (m *ChannelClose) Encode() ([]byte, error) {
	w := newWireWriter()
	w.write(encodeShortUint(m.ReplyCode))
	ss, err := encodeShortString(m.ReplyText)
	w.writeErr(ss, err)
	w.write(encodeShortUint(m.ClassID))
	w.write(encodeShortUint(m.FailureMethodID))
	return w.finish()
}

func decodeChannelClose(b []byte) (*ChannelClose, error) {
	r := newWireReader(b)
	m := &ChannelClose{
		ReplyCode:       r.shortUint(),
		ReplyText:       r.shortString(),
		ClassID:         r.shortUint(),
		FailureMethodID: r.shortUint(),
	}
	return m, r.done()
}

// ChannelCloseOk has no arguments.
type ChannelCloseOk struct{}

func (m *ChannelCloseOk) Encode() ([]byte, error) { return nil, nil }

func decodeChannelCloseOk(_ []byte) (*ChannelCloseOk, error) {
	return &ChannelCloseOk{}, nil
}

func decodeChannelMethod(methodID uint16, body []byte) (any, error) {
	switch methodID {
	case methodChannelOpenOk:
		return decodeChannelOpenOk(body)
	case methodChannelFlow:
		return decodeChannelFlow(body)
	case methodChannelFlowOk:
		return decodeChannelFlowOk(body)
	case methodChannelClose:
		return decodeChannelClose(body)
	case methodChannelCloseOk:
		return decodeChannelCloseOk(body)
	default:
		return nil, errUnknownClassMethod(classChannel, methodID)
	}
}
