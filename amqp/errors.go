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
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Reply codes the broker sends back in Connection.Close/Channel.Close,
// per AMQP 0-9-1 chapter 1.8.
const (
	ReplyContentTooLarge    = 311
	ReplyNoRoute            = 312
	ReplyNoConsumers        = 313
	ReplyConnectionForced   = 320
	ReplyInvalidPath        = 402
	ReplyAccessRefused      = 403
	ReplyNotFound           = 404
	ReplyResourceLocked     = 405
	ReplyPreconditionFailed = 406
	ReplyFrameError         = 501
	ReplySyntaxError        = 502
	ReplyCommandInvalid     = 503
	ReplyChannelError       = 504
	ReplyUnexpectedFrame    = 505
	ReplyResourceError      = 506
	ReplyNotAllowed         = 530
	ReplyNotImplemented     = 540
	ReplyInternalError      = 541
)

// replyNames maps a reply code to the symbolic name the AMQP spec gives
// it, used to render a readable error without a broker-supplied reply
// text (some brokers send an empty one on hard errors).
var replyNames = map[uint16]string{
	ReplyContentTooLarge:    "CONTENT-TOO-LARGE",
	ReplyNoRoute:            "NO-ROUTE",
	ReplyNoConsumers:        "NO-CONSUMERS",
	ReplyConnectionForced:   "CONNECTION-FORCED",
	ReplyInvalidPath:        "INVALID-PATH",
	ReplyAccessRefused:      "ACCESS-REFUSED",
	ReplyNotFound:           "NOT-FOUND",
	ReplyResourceLocked:     "RESOURCE-LOCKED",
	ReplyPreconditionFailed: "PRECONDITION-FAILED",
	ReplyFrameError:         "FRAME-ERROR",
	ReplySyntaxError:        "SYNTAX-ERROR",
	ReplyCommandInvalid:     "COMMAND-INVALID",
	ReplyChannelError:       "CHANNEL-ERROR",
	ReplyUnexpectedFrame:    "UNEXPECTED-FRAME",
	ReplyResourceError:      "RESOURCE-ERROR",
	ReplyNotAllowed:         "NOT-ALLOWED",
	ReplyNotImplemented:     "NOT-IMPLEMENTED",
	ReplyInternalError:      "INTERNAL-ERROR",
}

// replyName renders a reply code's symbolic name, or "UNKNOWN" for codes
// the broker invented outside the spec's table (matchErrCode's behavior
// in the teacher's decoder, carried over here).
func replyName(code uint16) string {
	if name, ok := replyNames[code]; ok {
		return name
	}
	return "UNKNOWN"
}

// ReplyError is the error a Connection surfaces when the broker closes
// the connection or a channel with Connection.Close/Channel.Close,
// carrying the reply code, symbolic name and broker-supplied text.
type ReplyError struct {
	Code    uint16
	Name    string
	Text    string
	ClassID uint16
	MethodID uint16
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("amqp: %s (%d): %s (class %d, method %d)",
		e.Name, e.Code, e.Text, e.ClassID, e.MethodID)
}

func newReplyError(code uint16, text string, classID, methodID uint16) error {
	return errors.WithStack(&ReplyError{
		Code:     code,
		Name:     replyName(code),
		Text:     text,
		ClassID:  classID,
		MethodID: methodID,
	})
}

// ProtocolError reports a violation of frame or type-grammar structure
// detected locally — a malformed frame, an unexpected frame type, a
// class/method id with no known argument shape. These never come from a
// reply code; they are this client refusing to make sense of the bytes
// it was handed.
type ProtocolError struct {
	msg string
}

func (e *ProtocolError) Error() string { return "amqp: protocol error: " + e.msg }

func newProtocolError(format string, args ...any) error {
	return errors.WithStack(&ProtocolError{msg: fmt.Sprintf(format, args...)})
}

// ConnectionAborted reports that the read loop gave up on the broker:
// more than four consecutive read timeouts of one heartbeat interval each
// passed with no frame — not even a heartbeat — received. It is distinct from
// ProtocolError because nothing about the wire was malformed; the peer
// simply stopped talking.
type ConnectionAborted struct {
	msg string
}

func (e *ConnectionAborted) Error() string { return "amqp: connection aborted: " + e.msg }

func newConnectionAborted(format string, args ...any) error {
	return errors.WithStack(&ConnectionAborted{msg: fmt.Sprintf(format, args...)})
}

// errShortBuffer signals that a decode function was handed fewer bytes
// than it needs; callers reading frames off an accumulating buffer treat
// it as "wait for more data", not as a malformed frame.
var errShortBuffer = errors.New("amqp: short buffer")

func errTruncated(field string) error {
	return errShortBuffer
}

func errShortStringTooLong(n int) error {
	return newProtocolError("short-string length %d exceeds 255", n)
}

func errInvalidString() error {
	return newProtocolError("invalid utf-8 string")
}

func errUnsupportedFieldType(v any) error {
	return newProtocolError("unsupported field-value type %T", v)
}

func errUnknownTag(tag byte) error {
	return newProtocolError("unknown field-value tag %q", tag)
}

func errUnknownClassMethod(classID, methodID uint16) error {
	return newProtocolError("unknown class %d method %d", classID, methodID)
}

func errUnexpectedFrame(got, want string) error {
	return newProtocolError("unexpected frame: got %s, want %s", got, want)
}

// closeError combines the close handshake's own error (Connection.Close
// uses it for a failed send or an expired wait for CloseOk) with whatever
// the transport reported when the socket went away while closing, since
// both carry diagnostic value and neither should be swallowed silently.
func closeError(reply error, transport error) error {
	if reply == nil {
		return transport
	}
	if transport == nil {
		return reply
	}
	var merr *multierror.Error
	merr = multierror.Append(merr, reply, transport)
	return merr
}
