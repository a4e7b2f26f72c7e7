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
	"errors"
	"fmt"
)

// Frame type octets, first byte of every frame header.
const (
	frameMethod        = 0x01
	frameContentHeader = 0x02
	frameContentBody   = 0x03
	frameHeartbeat     = 0x08
)

// frameEnd is the fixed sentinel byte terminating every frame; a decoder
// that does not find it where expected treats the frame as corrupt.
const frameEnd = 0xCE

// headerLength is the fixed 7-byte frame header: 1 type octet, 2 channel
// octets, 4 payload-size octets.
const headerLength = 7

// maxPayloadSize bounds a single frame's payload to what a signed 32-bit
// size field can express; the actual negotiated ceiling is usually far
// lower (frame_max, see negotiate.go).
const maxPayloadSize = 2147483647

// FrameHeader is the 7-byte prefix common to every frame on the wire.
type FrameHeader struct {
	Type    uint8
	Channel uint16
	Size    uint32
}

func (h FrameHeader) encode() []byte {
	out := make([]byte, 0, headerLength)
	out = append(out, encodeOctet(h.Type)...)
	out = append(out, encodeShortUint(h.Channel)...)
	out = append(out, encodeLongUint(h.Size)...)
	return out
}

func decodeFrameHeader(b []byte) (FrameHeader, []byte, error) {
	if len(b) < headerLength {
		return FrameHeader{}, nil, errTruncated("frame-header")
	}
	r := newWireReader(b)
	h := FrameHeader{
		Type:    r.octet(),
		Channel: r.shortUint(),
		Size:    r.longUint(),
	}
	if err := r.done(); err != nil {
		return FrameHeader{}, nil, err
	}
	if h.Size > maxPayloadSize {
		return FrameHeader{}, nil, newProtocolError("frame payload size %d exceeds maximum", h.Size)
	}
	return h, b[headerLength:], nil
}

// Frame is a fully-decoded frame: a header plus whatever its type-specific
// payload decodes to (a MethodFrame, HeartbeatFrame, ContentHeaderFrame or
// ContentBodyFrame), as produced by Decode and consumed by FrameRouter.
type Frame struct {
	Header  FrameHeader
	Payload any
}

// MethodFrame carries a decoded method's class id, method id and its
// argument struct (one of the ConnectionXxx/ChannelXxx/... types in the
// per-class *_methods.go files).
type MethodFrame struct {
	ClassID  uint16
	MethodID uint16
	Args     any
}

// HeartbeatFrame has no payload; its presence on channel 0 is itself the
// message.
type HeartbeatFrame struct{}

// ContentHeaderFrame carries a message's class id, declared body size and
// property flags/values as raw, undissected bytes. Full content-header
// property parsing is out of scope (see SPEC_FULL.md §3 and §11); the
// connection only needs to recognize and skip these frames correctly
// while a publish/deliver is in flight.
type ContentHeaderFrame struct {
	ClassID      uint16
	BodySize     uint64
	RawWeight    uint16
	RawPropsTail []byte
}

// ContentBodyFrame carries one chunk of a message's body, as raw bytes.
type ContentBodyFrame struct {
	Body []byte
}

// EncodeMethodFrame serializes a method frame: build the payload first
// (class id, method id, argument bytes), then prepend a header whose Size
// field is only known once the payload exists — the two-pass shape that
// replaces the original library's reverse-iteration field validator (see
// SPEC_FULL.md §2).
func EncodeMethodFrame(channel uint16, classID, methodID uint16, args []byte) []byte {
	payload := make([]byte, 0, 4+len(args))
	payload = append(payload, encodeShortUint(classID)...)
	payload = append(payload, encodeShortUint(methodID)...)
	payload = append(payload, args...)

	header := FrameHeader{Type: frameMethod, Channel: channel, Size: uint32(len(payload))}
	out := make([]byte, 0, headerLength+len(payload)+1)
	out = append(out, header.encode()...)
	out = append(out, payload...)
	out = append(out, frameEnd)
	return out
}

// EncodeHeartbeatFrame serializes the zero-length heartbeat frame, always
// sent on channel 0.
func EncodeHeartbeatFrame() []byte {
	header := FrameHeader{Type: frameHeartbeat, Channel: 0, Size: 0}
	out := make([]byte, 0, headerLength+1)
	out = append(out, header.encode()...)
	out = append(out, frameEnd)
	return out
}

// DecodeFrame reads one complete frame (header, payload, end-octet) from
// the front of b, returning the remainder. It returns (nil, b, nil) if b
// does not yet hold a full frame, so callers can feed it directly from an
// accumulating read buffer without pre-measuring.
func DecodeFrame(b []byte) (*Frame, []byte, error) {
	header, rest, err := decodeFrameHeader(b)
	if err != nil {
		if errors.Is(err, errShortBuffer) {
			return nil, b, nil
		}
		return nil, b, err
	}
	if uint32(len(rest)) < header.Size+1 {
		return nil, b, nil
	}
	body, tail := rest[:header.Size], rest[header.Size:]
	if tail[0] != frameEnd {
		return nil, b, newProtocolError("frame missing end octet, got 0x%02x", tail[0])
	}
	tail = tail[1:]

	payload, err := decodeFramePayload(header, body)
	if err != nil {
		return nil, b, err
	}
	return &Frame{Header: header, Payload: payload}, tail, nil
}

func decodeFramePayload(header FrameHeader, body []byte) (any, error) {
	switch header.Type {
	case frameMethod:
		return decodeMethodPayload(body)
	case frameHeartbeat:
		return HeartbeatFrame{}, nil
	case frameContentHeader:
		return decodeContentHeaderPayload(body)
	case frameContentBody:
		return ContentBodyFrame{Body: append([]byte(nil), body...)}, nil
	default:
		return nil, newProtocolError("unknown frame type 0x%02x", header.Type)
	}
}

func decodeMethodPayload(body []byte) (*MethodFrame, error) {
	r := newWireReader(body)
	classID := r.shortUint()
	methodID := r.shortUint()
	if err := r.err; err != nil {
		return nil, err
	}
	args, err := decodeMethodArgs(classID, methodID, r.buf)
	if err != nil {
		return nil, err
	}
	return &MethodFrame{ClassID: classID, MethodID: methodID, Args: args}, nil
}

func decodeContentHeaderPayload(body []byte) (*ContentHeaderFrame, error) {
	r := newWireReader(body)
	classID := r.shortUint()
	weight := r.shortUint() // always 0 per the spec; kept for wire fidelity
	bodySize := r.longLongUint()
	if err := r.done(); err != nil {
		return nil, err
	}
	return &ContentHeaderFrame{
		ClassID:      classID,
		BodySize:     bodySize,
		RawWeight:    weight,
		RawPropsTail: append([]byte(nil), body[12:]...),
	}, nil
}

func (f *Frame) String() string {
	return fmt.Sprintf("Frame{type=0x%02x channel=%d size=%d}", f.Header.Type, f.Header.Channel, f.Header.Size)
}
