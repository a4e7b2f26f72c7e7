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

// ConnectionStart is the server's greeting, sent once per connection on
// channel 0 immediately after the protocol header handshake.
type ConnectionStart struct {
	VersionMajor     uint8
	VersionMinor     uint8
	ServerProperties Table
	Mechanisms       string
	Locales          string
}

func decodeConnectionStart(b []byte) (*ConnectionStart, error) {
	r := newWireReader(b)
	m := &ConnectionStart{
		VersionMajor:     r.octet(),
		VersionMinor:     r.octet(),
		ServerProperties: r.table(),
		Mechanisms:       r.longString(),
		Locales:          r.longString(),
	}
	return m, r.done()
}

// ConnectionStartOk is this client's answer to ConnectionStart, carrying
// the chosen SASL mechanism and its initial response.
type ConnectionStartOk struct {
	ClientProperties Table
	Mechanism        string
	Response         string
	Locale           string
}

func (m *ConnectionStartOk) Encode() ([]byte, error) {
	w := newWireWriter()
	tbl, err := encodeTable(m.ClientProperties)
	w.writeErr(tbl, err)
	ss, err := encodeShortString(m.Mechanism)
	w.writeErr(ss, err)
	w.write(encodeLongString(m.Response))
	ss, err = encodeShortString(m.Locale)
	w.writeErr(ss, err)
	return w.finish()
}

// ConnectionSecure requests additional SASL challenge/response rounds;
// most brokers never send it with PLAIN, but this client answers it
// if asked (see awaitTune in connection.go).
type ConnectionSecure struct {
	Challenge string
}

func decodeConnectionSecure(b []byte) (*ConnectionSecure, error) {
	r := newWireReader(b)
	m := &ConnectionSecure{Challenge: r.longString()}
	return m, r.done()
}

// ConnectionSecureOk answers ConnectionSecure.
type ConnectionSecureOk struct {
	Response string
}

func (m *ConnectionSecureOk) Encode() ([]byte, error) {
	w := newWireWriter()
	w.write(encodeLongString(m.Response))
	return w.finish()
}

// ConnectionTune proposes channel-max/frame-max/heartbeat; the client's
// ConnectionTuneOk settles each via NegotiateNumeric (see negotiate.go).
type ConnectionTune struct {
	ChannelMax uint16
	FrameMax   uint32
	Heartbeat  uint16
}

func decodeConnectionTune(b []byte) (*ConnectionTune, error) {
	r := newWireReader(b)
	m := &ConnectionTune{
		ChannelMax: r.shortUint(),
		FrameMax:   r.longUint(),
		Heartbeat:  r.shortUint(),
	}
	return m, r.done()
}

// ConnectionTuneOk is this client's settled tuning values.
type ConnectionTuneOk struct {
	ChannelMax uint16
	FrameMax   uint32
	Heartbeat  uint16
}

func (m *ConnectionTuneOk) Encode() ([]byte, error) {
	w := newWireWriter()
	w.write(encodeShortUint(m.ChannelMax))
	w.write(encodeLongUint(m.FrameMax))
	w.write(encodeShortUint(m.Heartbeat))
	return w.finish()
}

// ConnectionOpen selects the virtual host for the session.
// Capabilities and Insist are reserved fields modern brokers ignore; kept
// for wire fidelity rather than collapsed away (see SPEC_FULL.md §4).
type ConnectionOpen struct {
	VirtualHost  string
	Capabilities string
	Insist       bool
}

func (m *ConnectionOpen) Encode() ([]byte, error) {
	w := newWireWriter()
	ss, err := encodeShortString(m.VirtualHost)
	w.writeErr(ss, err)
	ss, err = encodeShortString(m.Capabilities)
	w.writeErr(ss, err)
	w.write(encodeBoolean(m.Insist))
	return w.finish()
}

// ConnectionOpenOk acknowledges ConnectionOpen. KnownHosts is reserved.
type ConnectionOpenOk struct {
	KnownHosts string
}

func decodeConnectionOpenOk(b []byte) (*ConnectionOpenOk, error) {
	r := newWireReader(b)
	m := &ConnectionOpenOk{KnownHosts: r.shortString()}
	return m, r.done()
}

// ConnectionClose initiates or answers the connection closing handshake,
// and carries the reply code/text surfaced as a ReplyError.
type ConnectionClose struct {
	ReplyCode       uint16
	ReplyText       string
	ClassID         uint16
	FailureMethodID uint16
}

func (m *ConnectionClose) Encode() ([]byte, error) {
	w := newWireWriter()
	w.write(encodeShortUint(m.ReplyCode))
	ss, err := encodeShortString(m.ReplyText)
	w.writeErr(ss, err)
	w.write(encodeShortUint(m.ClassID))
	w.write(encodeShortUint(m.FailureMethodID))
	return w.finish()
}

func decodeConnectionClose(b []byte) (*ConnectionClose, error) {
	r := newWireReader(b)
	m := &ConnectionClose{
		ReplyCode:       r.shortUint(),
		ReplyText:       r.shortString(),
		ClassID:         r.shortUint(),
		FailureMethodID: r.shortUint(),
	}
	return m, r.done()
}

// ConnectionCloseOk has no arguments; it just confirms the close handshake.
type ConnectionCloseOk struct{}

func (m *ConnectionCloseOk) Encode() ([]byte, error) { return nil, nil }

func decodeConnectionCloseOk(_ []byte) (*ConnectionCloseOk, error) {
	return &ConnectionCloseOk{}, nil
}

func decodeConnectionMethod(methodID uint16, body []byte) (any, error) {
	switch methodID {
	case methodConnectionStart:
		return decodeConnectionStart(body)
	case methodConnectionStartOk:
		r := newWireReader(body)
		m := &ConnectionStartOk{ClientProperties: r.table(), Mechanism: r.shortString(), Response: r.longString(), Locale: r.shortString()}
		return m, r.done()
	case methodConnectionTuneOk:
		r := newWireReader(body)
		m := &ConnectionTuneOk{ChannelMax: r.shortUint(), FrameMax: r.longUint(), Heartbeat: r.shortUint()}
		return m, r.done()
	case methodConnectionOpen:
		r := newWireReader(body)
		m := &ConnectionOpen{VirtualHost: r.shortString(), Capabilities: r.shortString(), Insist: r.boolean()}
		return m, r.done()
	case methodConnectionSecure:
		return decodeConnectionSecure(body)
	case methodConnectionTune:
		return decodeConnectionTune(body)
	case methodConnectionOpenOk:
		return decodeConnectionOpenOk(body)
	case methodConnectionClose:
		return decodeConnectionClose(body)
	case methodConnectionCloseOk:
		return decodeConnectionCloseOk(body)
	default:
		return nil, errUnknownClassMethod(classConnection, methodID)
	}
}
