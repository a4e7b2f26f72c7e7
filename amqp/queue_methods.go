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

// QueueDeclare creates or checks a queue. Reserved1 is a deprecated
// ticket field. Each boolean is written as a full octet; consecutive
// booleans are not bit-packed.
type QueueDeclare struct {
	Reserved1  uint16
	Queue      string
	Passive    bool
	Durable    bool
	Exclusive  bool
	AutoDelete bool
	NoWait     bool
	Arguments  Table
}

func (m *QueueDeclare) Encode() ([]byte, error) {
	w := newWireWriter()
	w.write(encodeShortUint(m.Reserved1))
	ss, err := encodeShortString(m.Queue)
	w.writeErr(ss, err)
	w.write(encodeBoolean(m.Passive))
	w.write(encodeBoolean(m.Durable))
	w.write(encodeBoolean(m.Exclusive))
	w.write(encodeBoolean(m.AutoDelete))
	w.write(encodeBoolean(m.NoWait))
	tbl, err := encodeTable(m.Arguments)
	w.writeErr(tbl, err)
	return w.finish()
}

// QueueDeclareOk reports the queue's name (server-assigned if the
// request used ""), current message count and consumer count.
type QueueDeclareOk struct {
	Queue         string
	MessageCount  uint32
	ConsumerCount uint32
}

func decodeQueueDeclareOk(b []byte) (*QueueDeclareOk, error) {
	r := newWireReader(b)
	m := &QueueDeclareOk{
		Queue:         r.shortString(),
		MessageCount:  r.longUint(),
		ConsumerCount: r.longUint(),
	}
	return m, r.done()
}

// QueueBind binds a queue to an exchange under a routing key.
type QueueBind struct {
	Reserved1  uint16
	Queue      string
	Exchange   string
	RoutingKey string
	NoWait     bool
	Arguments  Table
}

func (m *QueueBind) Encode() ([]byte, error) {
	w := newWireWriter()
	w.write(encodeShortUint(m.Reserved1))
	ss, err := encodeShortString(m.Queue)
	w.writeErr(ss, err)
	ss, err = encodeShortString(m.Exchange)
	w.writeErr(ss, err)
	ss, err = encodeShortString(m.RoutingKey)
	w.writeErr(ss, err)
	w.write(encodeBoolean(m.NoWait))
	tbl, err := encodeTable(m.Arguments)
	w.writeErr(tbl, err)
	return w.finish()
}

// QueueBindOk has no arguments.
type QueueBindOk struct{}

func decodeQueueBindOk(_ []byte) (*QueueBindOk, error) { return &QueueBindOk{}, nil }

// QueueUnbind removes a binding.
type QueueUnbind struct {
	Reserved1  uint16
	Queue      string
	Exchange   string
	RoutingKey string
	Arguments  Table
}

func (m *QueueUnbind) Encode() ([]byte, error) {
	w := newWireWriter()
	w.write(encodeShortUint(m.Reserved1))
	ss, err := encodeShortString(m.Queue)
	w.writeErr(ss, err)
	ss, err = encodeShortString(m.Exchange)
	w.writeErr(ss, err)
	ss, err = encodeShortString(m.RoutingKey)
	w.writeErr(ss, err)
	tbl, err := encodeTable(m.Arguments)
	w.writeErr(tbl, err)
	return w.finish()
}

// QueueUnbindOk has no arguments.
type QueueUnbindOk struct{}

func decodeQueueUnbindOk(_ []byte) (*QueueUnbindOk, error) { return &QueueUnbindOk{}, nil }

// QueuePurge discards all messages currently in a queue.
type QueuePurge struct {
	Reserved1 uint16
	Queue     string
	NoWait    bool
}

func (m *QueuePurge) Encode() ([]byte, error) {
	w := newWireWriter()
	w.write(encodeShortUint(m.Reserved1))
	ss, err := encodeShortString(m.Queue)
	w.writeErr(ss, err)
	w.write(encodeBoolean(m.NoWait))
	return w.finish()
}

// QueuePurgeOk reports how many messages were discarded.
type QueuePurgeOk struct {
	MessageCount uint32
}

func decodeQueuePurgeOk(b []byte) (*QueuePurgeOk, error) {
	r := newWireReader(b)
	m := &QueuePurgeOk{MessageCount: r.longUint()}
	return m, r.done()
}

// QueueDelete removes a queue.
type QueueDelete struct {
	Reserved1 uint16
	Queue     string
	IfUnused  bool
	IfEmpty   bool
	NoWait    bool
}

func (m *QueueDelete) Encode() ([]byte, error) {
	w := newWireWriter()
	w.write(encodeShortUint(m.Reserved1))
	ss, err := encodeShortString(m.Queue)
	w.writeErr(ss, err)
	w.write(encodeBoolean(m.IfUnused))
	w.write(encodeBoolean(m.IfEmpty))
	w.write(encodeBoolean(m.NoWait))
	return w.finish()
}

// QueueDeleteOk reports how many messages were discarded on deletion.
type QueueDeleteOk struct {
	MessageCount uint32
}

func decodeQueueDeleteOk(b []byte) (*QueueDeleteOk, error) {
	r := newWireReader(b)
	m := &QueueDeleteOk{MessageCount: r.longUint()}
	return m, r.done()
}

func decodeQueueMethod(methodID uint16, body []byte) (any, error) {
	switch methodID {
	case methodQueueDeclareOk:
		return decodeQueueDeclareOk(body)
	case methodQueueBindOk:
		return decodeQueueBindOk(body)
	case methodQueueUnbindOk:
		return decodeQueueUnbindOk(body)
	case methodQueuePurgeOk:
		return decodeQueuePurgeOk(body)
	case methodQueueDeleteOk:
		return decodeQueueDeleteOk(body)
	default:
		return nil, errUnknownClassMethod(classQueue, methodID)
	}
}
