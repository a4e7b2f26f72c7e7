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

// BasicQos sets prefetch limits on a channel.
type BasicQos struct {
	PrefetchSize  uint32
	PrefetchCount uint16
	Global        bool
}

func (m *BasicQos) Encode() ([]byte, error) {
	w := newWireWriter()
	w.write(encodeLongUint(m.PrefetchSize))
	w.write(encodeShortUint(m.PrefetchCount))
	w.write(encodeBoolean(m.Global))
	return w.finish()
}

// BasicQosOk has no arguments.
type BasicQosOk struct{}

func decodeBasicQosOk(_ []byte) (*BasicQosOk, error) { return &BasicQosOk{}, nil }

// BasicConsume starts a consumer. Reserved1 is a deprecated ticket field.
type BasicConsume struct {
	Reserved1   uint16
	Queue       string
	ConsumerTag string
	NoLocal     bool
	NoAck       bool
	Exclusive   bool
	NoWait      bool
	Arguments   Table
}

func (m *BasicConsume) Encode() ([]byte, error) {
	w := newWireWriter()
	w.write(encodeShortUint(m.Reserved1))
	ss, err := encodeShortString(m.Queue)
	w.writeErr(ss, err)
	ss, err = encodeShortString(m.ConsumerTag)
	w.writeErr(ss, err)
	w.write(encodeBoolean(m.NoLocal))
	w.write(encodeBoolean(m.NoAck))
	w.write(encodeBoolean(m.Exclusive))
	w.write(encodeBoolean(m.NoWait))
	tbl, err := encodeTable(m.Arguments)
	w.writeErr(tbl, err)
	return w.finish()
}

// BasicConsumeOk confirms a consumer registration, echoing or assigning
// its tag.
type BasicConsumeOk struct {
	ConsumerTag string
}

func decodeBasicConsumeOk(b []byte) (*BasicConsumeOk, error) {
	r := newWireReader(b)
	m := &BasicConsumeOk{ConsumerTag: r.shortString()}
	return m, r.done()
}

// BasicCancel stops a consumer.
type BasicCancel struct {
	ConsumerTag string
	NoWait      bool
}

func (m *BasicCancel) Encode() ([]byte, error) {
	w := newWireWriter()
	ss, err := encodeShortString(m.ConsumerTag)
	w.writeErr(ss, err)
	w.write(encodeBoolean(m.NoWait))
	return w.finish()
}

// BasicCancelOk confirms BasicCancel.
type BasicCancelOk struct {
	ConsumerTag string
}

func decodeBasicCancelOk(b []byte) (*BasicCancelOk, error) {
	r := newWireReader(b)
	m := &BasicCancelOk{ConsumerTag: r.shortString()}
	return m, r.done()
}

// BasicPublish sends a message's method frame; the content header and
// body frames that carry the payload follow it on the same channel and
// are represented by ContentHeaderFrame/ContentBodyFrame (see frame.go).
// Reserved1 is a deprecated ticket field.
type BasicPublish struct {
	Reserved1  uint16
	Exchange   string
	RoutingKey string
	Mandatory  bool
	Immediate  bool
}

func (m *BasicPublish) Encode() ([]byte, error) {
	w := newWireWriter()
	w.write(encodeShortUint(m.Reserved1))
	ss, err := encodeShortString(m.Exchange)
	w.writeErr(ss, err)
	ss, err = encodeShortString(m.RoutingKey)
	w.writeErr(ss, err)
	w.write(encodeBoolean(m.Mandatory))
	w.write(encodeBoolean(m.Immediate))
	return w.finish()
}

// BasicReturn notifies the client a published message could not be
// routed (when Mandatory/Immediate asked to be told).
type BasicReturn struct {
	ReplyCode  uint16
	ReplyText  string
	Exchange   string
	RoutingKey string
}

func decodeBasicReturn(b []byte) (*BasicReturn, error) {
	r := newWireReader(b)
	m := &BasicReturn{
		ReplyCode:  r.shortUint(),
		ReplyText:  r.shortString(),
		Exchange:   r.shortString(),
		RoutingKey: r.shortString(),
	}
	return m, r.done()
}

// BasicDeliver notifies the client of a message pushed by an active
// consumer.
type BasicDeliver struct {
	ConsumerTag string
	DeliveryTag uint64
	Redelivered bool
	Exchange    string
	RoutingKey  string
}

func decodeBasicDeliver(b []byte) (*BasicDeliver, error) {
	r := newWireReader(b)
	m := &BasicDeliver{
		ConsumerTag: r.shortString(),
		DeliveryTag: r.longLongUint(),
		Redelivered: r.boolean(),
		Exchange:    r.shortString(),
		RoutingKey:  r.shortString(),
	}
	return m, r.done()
}

// BasicGet polls a queue for a single message. Reserved1 is a deprecated
// ticket field.
type BasicGet struct {
	Reserved1 uint16
	Queue     string
	NoAck     bool
}

func (m *BasicGet) Encode() ([]byte, error) {
	w := newWireWriter()
	w.write(encodeShortUint(m.Reserved1))
	ss, err := encodeShortString(m.Queue)
	w.writeErr(ss, err)
	w.write(encodeBoolean(m.NoAck))
	return w.finish()
}

// BasicGetOk answers BasicGet with a message.
type BasicGetOk struct {
	DeliveryTag  uint64
	Redelivered  bool
	Exchange     string
	RoutingKey   string
	MessageCount uint32
}

func decodeBasicGetOk(b []byte) (*BasicGetOk, error) {
	r := newWireReader(b)
	m := &BasicGetOk{
		DeliveryTag:  r.longLongUint(),
		Redelivered:  r.boolean(),
		Exchange:     r.shortString(),
		RoutingKey:   r.shortString(),
		MessageCount: r.longUint(),
	}
	return m, r.done()
}

// BasicGetEmpty answers BasicGet when the queue had nothing to offer.
// Reserved1 is deprecated.
type BasicGetEmpty struct {
	Reserved1 string
}

func decodeBasicGetEmpty(b []byte) (*BasicGetEmpty, error) {
	r := newWireReader(b)
	m := &BasicGetEmpty{Reserved1: r.shortString()}
	return m, r.done()
}

// BasicAck acknowledges one or more delivered messages.
type BasicAck struct {
	DeliveryTag uint64
	Multiple    bool
}

func (m *BasicAck) Encode() ([]byte, error) {
	w := newWireWriter()
	w.write(encodeLongLongUint(m.DeliveryTag))
	w.write(encodeBoolean(m.Multiple))
	return w.finish()
}

// BasicReject rejects a single delivered message.
type BasicReject struct {
	DeliveryTag uint64
	Requeue     bool
}

func (m *BasicReject) Encode() ([]byte, error) {
	w := newWireWriter()
	w.write(encodeLongLongUint(m.DeliveryTag))
	w.write(encodeBoolean(m.Requeue))
	return w.finish()
}

// BasicNack rejects one or more delivered messages; the Nack extension
// to the original spec, kept since every modern broker implements it.
type BasicNack struct {
	DeliveryTag uint64
	Multiple    bool
	Requeue     bool
}

func (m *BasicNack) Encode() ([]byte, error) {
	w := newWireWriter()
	w.write(encodeLongLongUint(m.DeliveryTag))
	w.write(encodeBoolean(m.Multiple))
	w.write(encodeBoolean(m.Requeue))
	return w.finish()
}

func decodeBasicNack(b []byte) (*BasicNack, error) {
	r := newWireReader(b)
	m := &BasicNack{
		DeliveryTag: r.longLongUint(),
		Multiple:    r.boolean(),
		Requeue:     r.boolean(),
	}
	return m, r.done()
}

// BasicRecover asks the broker to redeliver unacknowledged messages.
type BasicRecover struct {
	Requeue bool
}

func (m *BasicRecover) Encode() ([]byte, error) {
	w := newWireWriter()
	w.write(encodeBoolean(m.Requeue))
	return w.finish()
}

// BasicRecoverOk confirms BasicRecover.
type BasicRecoverOk struct{}

func decodeBasicRecoverOk(_ []byte) (*BasicRecoverOk, error) { return &BasicRecoverOk{}, nil }

func decodeBasicMethod(methodID uint16, body []byte) (any, error) {
	switch methodID {
	case methodBasicQosOk:
		return decodeBasicQosOk(body)
	case methodBasicConsumeOk:
		return decodeBasicConsumeOk(body)
	case methodBasicCancelOk:
		return decodeBasicCancelOk(body)
	case methodBasicReturn:
		return decodeBasicReturn(body)
	case methodBasicDeliver:
		return decodeBasicDeliver(body)
	case methodBasicGetOk:
		return decodeBasicGetOk(body)
	case methodBasicGetEmpty:
		return decodeBasicGetEmpty(body)
	case methodBasicNack:
		return decodeBasicNack(body)
	case methodBasicRecoverOk:
		return decodeBasicRecoverOk(body)
	default:
		return nil, errUnknownClassMethod(classBasic, methodID)
	}
}
