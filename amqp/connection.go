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
	"crypto/tls"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/packetd/amqpc/common"
	"github.com/packetd/amqpc/internal/fasttime"
	"github.com/packetd/amqpc/internal/rescue"
	"github.com/packetd/amqpc/logger"
)

// protocolHeader is the fixed 8-byte preamble every AMQP 0-9-1 connection
// opens with, before any framing begins.
var protocolHeader = []byte{'A', 'M', 'Q', 'P', 0, 0, 9, 1}

// State is a Connection's position in its handshake/open/close lifecycle.
type State int

const (
	StateDisconnected State = iota
	StateGreeted
	StateStarted
	StateTuned
	StateOpen
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateGreeted:
		return "greeted"
	case StateStarted:
		return "started"
	case StateTuned:
		return "tuned"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// DialOptions configures Dial. Dial fills in only a zero ConnectTimeout
// and an empty Mechanisms; other zero values are sent as they are, so
// callers start from DefaultDialOptions.
type DialOptions struct {
	Host           string
	Port           int // 0 picks 5671/5672 depending on TLSConfig
	VirtualHost    string
	Username       string
	Password       string
	Mechanisms     []string // preference order; the response sent is always the PLAIN one built from Username/Password
	Locale         string
	ChannelMax     uint16
	FrameMax       uint32
	Heartbeat      uint16 // seconds; 0 proposes "no preference"
	TLSConfig      *tls.Config
	ConnectTimeout time.Duration

	// ClientProperties carries extra client-properties entries merged
	// into the connection's identifying table (product/version/platform
	// are always set). Values are coerced through common.Options's
	// cast-backed getters when read back by callers.
	ClientProperties common.Options

	// Transport overrides the default TCPTransport, for tests.
	Transport Transport
}

// DefaultDialOptions returns the baseline a caller should start from and
// override selectively.
func DefaultDialOptions() DialOptions {
	return DialOptions{
		Port:           0,
		VirtualHost:    "/",
		Username:       "guest",
		Password:       "guest",
		Mechanisms:     []string{"PLAIN"},
		Locale:         "en_US",
		ChannelMax:     uint16(common.DefaultChannelMax),
		FrameMax:       uint32(common.DefaultFrameMax),
		Heartbeat:      60,
		ConnectTimeout: 10 * time.Second,
	}
}

// Connection drives a single AMQP 0-9-1 connection: the protocol
// handshake, SASL negotiation, tuning, and the long-running read and
// heartbeat loops that keep it alive until Close or a fatal transport/
// protocol error. Reconnection is out of scope: a dropped Connection is
// dead, and callers Dial a new one.
type Connection struct {
	ID   uuid.UUID
	opts DialOptions

	transport Transport
	router    *FrameRouter

	mu    sync.Mutex
	state State
	tune  ConnectionTuneOk

	lastSendUnix atomic.Int64

	// missedHeartbeats counts consecutive read-timeout iterations of
	// readLoop, each one heartbeat interval long. Any frame received —
	// method, content or heartbeat — resets it to 0; exceeding 4 aborts
	// the connection (spec.md §3, §4.7, §7).
	missedHeartbeats atomic.Int32

	closeOnce sync.Once
	closed    chan struct{}
	closeErr  error

	wg sync.WaitGroup
}

// Dial performs the full handshake over a fresh transport and returns an
// open Connection, or an error if the broker rejects the handshake or the
// transport fails partway through.
func Dial(ctx context.Context, opts DialOptions) (*Connection, error) {
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 10 * time.Second
	}
	if len(opts.Mechanisms) == 0 {
		opts.Mechanisms = []string{"PLAIN"}
	}

	c := &Connection{
		ID:     uuid.New(),
		opts:   opts,
		router: NewFrameRouter(),
		closed: make(chan struct{}),
	}

	transport := opts.Transport
	if transport == nil {
		transport = NewTCPTransport(opts.Host, opts.Port, opts.TLSConfig)
	}
	c.transport = transport

	dialCtx, cancel := context.WithTimeout(ctx, c.opts.ConnectTimeout)
	defer cancel()

	if err := c.handshake(dialCtx); err != nil {
		c.transport.Close()
		return nil, err
	}

	c.wg.Add(1)
	go c.readLoop()
	if c.tune.Heartbeat > 0 {
		c.wg.Add(1)
		go c.heartbeatLoop()
	}

	logger.Infof("amqp: connection %s open to %s%s", c.ID, opts.Host, opts.VirtualHost)
	return c, nil
}

func (c *Connection) handshake(ctx context.Context) error {
	if err := c.transport.Connect(ctx); err != nil {
		return err
	}
	if err := c.transport.Send(ctx, protocolHeader); err != nil {
		return err
	}
	c.setState(StateGreeted)

	start, err := c.expectMethod(ctx, &ConnectionStart{})
	if err != nil {
		return err
	}
	startFrame := start.(*ConnectionStart)

	mechanism, err := NegotiateAuthMechanism(startFrame.Mechanisms, c.opts.Mechanisms)
	if err != nil {
		return err
	}
	response := plainResponse(c.opts.Username, c.opts.Password)

	startOk := &ConnectionStartOk{
		ClientProperties: c.clientProperties(),
		Mechanism:        mechanism,
		Response:         response,
		Locale:           c.opts.Locale,
	}
	if err := c.sendMethod(ctx, 0, classConnection, methodConnectionStartOk, startOk); err != nil {
		return err
	}
	c.setState(StateStarted)

	tune, err := c.awaitTune(ctx, response)
	if err != nil {
		return err
	}

	channelMax := uint16(NegotiateNumeric(uint32(c.opts.ChannelMax), uint32(tune.ChannelMax)))
	frameMax := NegotiateNumeric(c.opts.FrameMax, tune.FrameMax)
	heartbeat := uint16(NegotiateNumeric(uint32(c.opts.Heartbeat), uint32(tune.Heartbeat)))

	tuneOk := &ConnectionTuneOk{ChannelMax: channelMax, FrameMax: frameMax, Heartbeat: heartbeat}
	if err := c.sendMethod(ctx, 0, classConnection, methodConnectionTuneOk, tuneOk); err != nil {
		return err
	}
	c.mu.Lock()
	c.tune = *tuneOk
	c.mu.Unlock()
	c.setState(StateTuned)

	open := &ConnectionOpen{VirtualHost: c.opts.VirtualHost}
	if err := c.sendMethod(ctx, 0, classConnection, methodConnectionOpen, open); err != nil {
		return err
	}
	if _, err := c.expectMethod(ctx, &ConnectionOpenOk{}); err != nil {
		return err
	}
	c.setState(StateOpen)

	c.router.Register(0, &ConnectionClose{}, c.handleBrokerClose)
	return nil
}

// handleBrokerClose answers a broker-initiated Connection.Close: the
// protocol requires sending Connection.CloseOk back before tearing down,
// even though the connection is already on its way out.
func (c *Connection) handleBrokerClose(_ uint16, payload any) error {
	args := payload.(*ConnectionClose)
	ackBody, _ := (&ConnectionCloseOk{}).Encode()
	ack := EncodeMethodFrame(0, classConnection, methodConnectionCloseOk, ackBody)
	_ = c.transport.Send(context.Background(), ack)

	c.fail(newReplyError(args.ReplyCode, args.ReplyText, args.ClassID, args.FailureMethodID))
	return nil
}

// awaitTune loops on ConnectionSecure/ConnectionSecureOk rounds (rare
// outside SASL mechanisms requiring more than one challenge) until
// ConnectionTune arrives, per the handshake described in
// original_source/amqp_aio/connection.py's _handle_start_frame.
func (c *Connection) awaitTune(ctx context.Context, priorResponse string) (*ConnectionTune, error) {
	for {
		frame, err := c.readOneFrame(ctx)
		if err != nil {
			return nil, err
		}
		mf, ok := frame.Payload.(*MethodFrame)
		if !ok {
			return nil, errUnexpectedFrame("non-method frame", "ConnectionSecure/ConnectionTune")
		}
		switch args := mf.Args.(type) {
		case *ConnectionTune:
			return args, nil
		case *ConnectionSecure:
			secureOk := &ConnectionSecureOk{Response: priorResponse}
			if err := c.sendMethod(ctx, 0, classConnection, methodConnectionSecureOk, secureOk); err != nil {
				return nil, err
			}
		case *ConnectionClose:
			return nil, newReplyError(args.ReplyCode, args.ReplyText, args.ClassID, args.FailureMethodID)
		default:
			return nil, errUnexpectedFrame(classMethodName(mf.ClassID, mf.MethodID), "ConnectionSecure/ConnectionTune")
		}
	}
}

// expectMethod reads one frame and returns its arguments if they are of
// sample's concrete type. Any other frame is an error; a ConnectionClose
// becomes its ReplyError. The frame's channel is not checked.
func (c *Connection) expectMethod(ctx context.Context, sample any) (any, error) {
	frame, err := c.readOneFrame(ctx)
	if err != nil {
		return nil, err
	}
	mf, ok := frame.Payload.(*MethodFrame)
	if !ok {
		return nil, errUnexpectedFrame("non-method frame", "method frame")
	}
	if closeArgs, ok := mf.Args.(*ConnectionClose); ok {
		return nil, newReplyError(closeArgs.ReplyCode, closeArgs.ReplyText, closeArgs.ClassID, closeArgs.FailureMethodID)
	}
	if typeMatches(mf.Args, sample) {
		return mf.Args, nil
	}
	return nil, errUnexpectedFrame(classMethodName(mf.ClassID, mf.MethodID), "expected method")
}

func typeMatches(got, sample any) bool {
	switch sample.(type) {
	case *ConnectionStart:
		_, ok := got.(*ConnectionStart)
		return ok
	case *ConnectionOpenOk:
		_, ok := got.(*ConnectionOpenOk)
		return ok
	default:
		return false
	}
}

func (c *Connection) clientProperties() Table {
	props := Table{
		"product":         "amqpc",
		"platform":        "Go",
		"version":         "1.0.0",
		"information":     "https://github.com/packetd/amqpc",
		"connection_name": c.ID.String(),
		"capabilities": Table{
			"authentication_failure_close": true,
			"basic.nack":                   true,
			"connection.blocked":           true,
			"publisher_confirms":           true,
			"consumer_cancel_notify":       true,
		},
	}
	if c.opts.ClientProperties != nil {
		for k, v := range c.opts.ClientProperties {
			props[k] = v
		}
	}
	return props
}

func plainResponse(username, password string) string {
	return "\x00" + username + "\x00" + password
}

func (c *Connection) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
	connectionState.Set(float64(s))
}

// State returns the connection's current lifecycle state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Connection) frameMax() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tune.FrameMax == 0 {
		return maxPayloadSize
	}
	return c.tune.FrameMax
}

// sendMethod encodes args and writes the resulting method frame, subject
// to the negotiated frame_max (checked only after tuning completes).
func (c *Connection) sendMethod(ctx context.Context, channel uint16, classID, methodID uint16, args interface{ Encode() ([]byte, error) }) error {
	body, err := args.Encode()
	if err != nil {
		return err
	}
	frame := EncodeMethodFrame(channel, classID, methodID, body)
	if max := c.frameMax(); max > 0 && uint32(len(frame)) > max {
		return newProtocolError("encoded frame of %d bytes exceeds negotiated frame_max %d", len(frame), max)
	}
	if err := c.transport.Send(ctx, frame); err != nil {
		return err
	}
	c.lastSendUnix.Store(fasttime.UnixTimestamp())
	framesSentTotal.WithLabelValues(frameTypeLabel(frameMethod)).Inc()
	return nil
}

// readOneFrame reads exactly one frame off the transport: a fixed 7-byte
// header, then its declared payload plus the trailing end octet.
func (c *Connection) readOneFrame(ctx context.Context) (*Frame, error) {
	header, err := c.transport.RecvExact(ctx, headerLength)
	if err != nil {
		return nil, err
	}
	// A broker that rejects our protocol header answers with its own.
	if string(header[:4]) == "AMQP" {
		rev, err := c.transport.RecvExact(ctx, 1)
		if err != nil {
			return nil, err
		}
		return nil, newProtocolError("broker rejected protocol header, it supports %d-%d-%d", header[5], header[6], rev[0])
	}
	h, _, err := decodeFrameHeader(header)
	if err != nil {
		return nil, err
	}
	rest, err := c.transport.RecvExact(ctx, int(h.Size)+1)
	if err != nil {
		return nil, err
	}
	full := append(append([]byte{}, header...), rest...)
	frame, _, err := DecodeFrame(full)
	if err != nil {
		return nil, err
	}
	if frame == nil {
		return nil, newProtocolError("short frame read")
	}
	framesRecvTotal.WithLabelValues(frameTypeLabel(frame.Header.Type)).Inc()
	return frame, nil
}

// maxMissedHeartbeats is the number of consecutive read-timeout
// intervals readLoop tolerates with no frame at all from the broker
// before aborting the connection (spec.md §3/§4.7/§7).
const maxMissedHeartbeats = 4

// readLoop is the connection's single reader: it owns the transport's
// read side for the connection's entire lifetime and routes every frame
// it decodes. Each read of the next frame's header is bounded by the
// negotiated heartbeat interval; a bare timeout is not a transport
// failure; it only counts against missedHeartbeats, which any
// successfully received frame resets. It exits (and marks the
// connection closed) on a real transport/protocol error, or once
// maxMissedHeartbeats consecutive timeouts have passed with nothing
// received.
func (c *Connection) readLoop() {
	defer c.wg.Done()
	defer rescue.HandleCrash()

	interval := time.Duration(c.tune.Heartbeat) * time.Second
	for {
		frame, err := c.readLoopFrame(interval)
		if err != nil {
			if interval > 0 && errors.Is(err, context.DeadlineExceeded) {
				missed := c.missedHeartbeats.Add(1)
				heartbeatMissedTotal.Inc()
				logger.Warnf("amqp: connection %s missed heartbeat %d/%d", c.ID, missed, maxMissedHeartbeats)
				if missed > maxMissedHeartbeats {
					c.fail(newConnectionAborted("no frame from broker within %d consecutive heartbeat intervals of %s", missed, interval))
					return
				}
				continue
			}
			c.fail(err)
			return
		}
		c.missedHeartbeats.Store(0)
		if err := c.router.Route(frame); err != nil {
			if !errors.Is(err, ErrNoRoute) {
				c.fail(err)
				return
			}
			logger.Debugf("amqp: connection %s skipped unrouted %s", c.ID, frame)
		}
	}
}

// readLoopFrame reads one frame off the transport for readLoop. Only the
// initial 7-byte header read is bounded by interval (0 meaning no
// heartbeat was negotiated, so no deadline applies at all); once a
// header has arrived the frame's remaining bytes are always awaited
// without a deadline, since a broker that commits to a frame size is
// expected to finish sending it.
func (c *Connection) readLoopFrame(interval time.Duration) (*Frame, error) {
	ctx := context.Background()
	if interval > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, interval)
		defer cancel()
	}

	header, err := c.transport.RecvExact(ctx, headerLength)
	if err != nil {
		return nil, err
	}
	h, _, err := decodeFrameHeader(header)
	if err != nil {
		return nil, err
	}
	rest, err := c.transport.RecvExact(context.Background(), int(h.Size)+1)
	if err != nil {
		return nil, err
	}
	full := append(append([]byte{}, header...), rest...)
	frame, _, err := DecodeFrame(full)
	if err != nil {
		return nil, err
	}
	if frame == nil {
		return nil, newProtocolError("short frame read")
	}
	framesRecvTotal.WithLabelValues(frameTypeLabel(frame.Header.Type)).Inc()
	return frame, nil
}

// heartbeatLoop sends a heartbeat frame whenever the connection has gone
// idle for half the negotiated interval. Detecting a non-responsive
// broker is readLoop's job (missedHeartbeats, via per-read timeouts),
// since regular traffic — not just heartbeat frames — proves liveness.
func (c *Connection) heartbeatLoop() {
	defer c.wg.Done()
	defer rescue.HandleCrash()

	interval := time.Duration(c.tune.Heartbeat) * time.Second
	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()

	for {
		select {
		case <-c.closed:
			return
		case <-ticker.C:
			now := fasttime.UnixTimestamp()
			if now-c.lastSendUnix.Load() >= int64(interval/2/time.Second) {
				ctx, cancel := context.WithTimeout(context.Background(), interval/2)
				err := c.transport.Send(ctx, EncodeHeartbeatFrame())
				cancel()
				if err != nil {
					c.fail(err)
					return
				}
				c.lastSendUnix.Store(now)
				framesSentTotal.WithLabelValues(frameTypeLabel(frameHeartbeat)).Inc()
			}
		}
	}
}

func (c *Connection) fail(err error) {
	c.closeOnce.Do(func() {
		c.closeErr = err
		c.setState(StateClosed)
		close(c.closed)
		c.transport.Close()
		closedTotal.Inc()
		logger.Errorf("amqp: connection %s failed: %v", c.ID, err)
	})
}

// Close performs an orderly shutdown: it sends Connection.Close, waits
// for Connection.CloseOk (or ctx's deadline), then tears down the
// transport and stops the background loops.
func (c *Connection) Close(ctx context.Context) error {
	if c.State() == StateClosed {
		return nil
	}
	c.setState(StateClosing)

	replyCh := make(chan error, 1)
	c.router.Register(0, &ConnectionCloseOk{}, func(_ uint16, _ any) error {
		replyCh <- nil
		return nil
	})

	closeMethod := &ConnectionClose{ReplyCode: ReplySuccess, ReplyText: "goodbye"}
	sendErr := c.sendMethod(ctx, 0, classConnection, methodConnectionClose, closeMethod)

	var waitErr error
	if sendErr == nil {
		select {
		case waitErr = <-replyCh:
		case <-ctx.Done():
			waitErr = ctx.Err()
		case <-c.closed:
		}
	}

	c.closeOnce.Do(func() {
		c.setState(StateClosed)
		close(c.closed)
		closedTotal.Inc()
	})
	transportErr := c.transport.Close()
	c.wg.Wait()

	return closeError(firstNonNil(sendErr, waitErr), transportErr)
}

func firstNonNil(errs ...error) error {
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

// ReplySuccess is the reply code a well-behaved peer sends when it
// initiates closing voluntarily, not in response to an error.
const ReplySuccess = 200
