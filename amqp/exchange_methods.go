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

// ExchangeDeclare creates or checks an exchange. Reserved1 is a
// deprecated ticket field; AutoDelete and Internal are wired for wire
// fidelity though most brokers apply server-side policy over them. Each
// boolean is written as a full octet; consecutive booleans are not
// bit-packed.
type ExchangeDeclare struct {
	Reserved1  uint16
	Exchange   string
	Type       string
	Passive    bool
	Durable    bool
	AutoDelete bool
	Internal   bool
	NoWait     bool
	Arguments  Table
}

func (m *ExchangeDeclare) Encode() ([]byte, error) {
	w := newWireWriter()
	w.write(encodeShortUint(m.Reserved1))
	ss, err := encodeShortString(m.Exchange)
	w.writeErr(ss, err)
	ss, err = encodeShortString(m.Type)
	w.writeErr(ss, err)
	w.write(encodeBoolean(m.Passive))
	w.write(encodeBoolean(m.Durable))
	w.write(encodeBoolean(m.AutoDelete))
	w.write(encodeBoolean(m.Internal))
	w.write(encodeBoolean(m.NoWait))
	tbl, err := encodeTable(m.Arguments)
	w.writeErr(tbl, err)
	return w.finish()
}

// ExchangeDeclareOk has no arguments.
type ExchangeDeclareOk struct{}

func decodeExchangeDeclareOk(_ []byte) (*ExchangeDeclareOk, error) {
	return &ExchangeDeclareOk{}, nil
}

// ExchangeDelete removes an exchange.
type ExchangeDelete struct {
	Reserved1 uint16
	Exchange  string
	IfUnused  bool
	NoWait    bool
}

func (m *ExchangeDelete) Encode() ([]byte, error) {
	w := newWireWriter()
	w.write(encodeShortUint(m.Reserved1))
	ss, err := encodeShortString(m.Exchange)
	w.writeErr(ss, err)
	w.write(encodeBoolean(m.IfUnused))
	w.write(encodeBoolean(m.NoWait))
	return w.finish()
}

// ExchangeDeleteOk has no arguments.
type ExchangeDeleteOk struct{}

func decodeExchangeDeleteOk(_ []byte) (*ExchangeDeleteOk, error) {
	return &ExchangeDeleteOk{}, nil
}

func decodeExchangeMethod(methodID uint16, body []byte) (any, error) {
	switch methodID {
	case methodExchangeDeclareOk:
		return decodeExchangeDeclareOk(body)
	case methodExchangeDeleteOk:
		return decodeExchangeDeleteOk(body)
	default:
		return nil, errUnknownClassMethod(classExchange, methodID)
	}
}
