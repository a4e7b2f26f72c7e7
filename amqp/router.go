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
	"reflect"
	"sync"
)

// FrameHandler processes one routed frame. It receives the decoded
// payload (a *ConnectionXxx/*ChannelXxx/... pointer, or HeartbeatFrame)
// rather than the raw Frame, since the routing key already identifies
// its concrete type.
type FrameHandler func(channel uint16, payload any) error

type routeKey struct {
	channel uint16
	argType reflect.Type
}

// FrameRouter dispatches decoded frames to the handler registered for
// their (channel, payload-type) pair. A connection registers one handler
// per method it expects to receive while driving its state machine
// (ConnectionTune, ConnectionClose, ChannelCloseOk, ...); for anything
// else Route returns ErrNoRoute, which the connection's read loop logs
// and skips.
type FrameRouter struct {
	mu        sync.Mutex
	routes    map[routeKey]FrameHandler
	heartbeat func()
}

func NewFrameRouter() *FrameRouter {
	return &FrameRouter{routes: make(map[routeKey]FrameHandler)}
}

// Register binds handler to frames carrying a payload of sample's
// concrete type arriving on channel. sample is only used for its type,
// e.g. Register(0, (*ConnectionTune)(nil), h).
func (r *FrameRouter) Register(channel uint16, sample any, handler FrameHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[routeKey{channel: channel, argType: reflect.TypeOf(sample)}] = handler
}

// Unregister removes a previously registered route, used once a
// transient expectation (like a single ConnectionOpenOk) is satisfied.
func (r *FrameRouter) Unregister(channel uint16, sample any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.routes, routeKey{channel: channel, argType: reflect.TypeOf(sample)})
}

// RegisterHeartbeat sets the handler invoked for every HeartbeatFrame,
// regardless of channel (heartbeats always arrive on channel 0, but
// neither the router nor the connection checks that).
func (r *FrameRouter) RegisterHeartbeat(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.heartbeat = fn
}

// ErrNoRoute is returned by Route when no handler is registered for a
// frame's (channel, type) pair.
var ErrNoRoute = newProtocolError("no route registered for frame")

// Route dispatches f to its registered handler. Content-header and
// content-body frames are looked up by their payload type like any other
// frame; with no route registered for that type Route returns ErrNoRoute.
func (r *FrameRouter) Route(f *Frame) error {
	if _, ok := f.Payload.(HeartbeatFrame); ok {
		r.mu.Lock()
		hb := r.heartbeat
		r.mu.Unlock()
		if hb != nil {
			hb()
		}
		return nil
	}

	// A decoded method frame's routing key is its arguments' concrete
	// type, not the *MethodFrame wrapper itself: registrations key on
	// the arg type (Register's sample is a *ConnectionClose, etc.), so
	// dispatch must unwrap Args before both the lookup and the call.
	args := f.Payload
	if mf, ok := f.Payload.(*MethodFrame); ok {
		args = mf.Args
	}

	key := routeKey{channel: f.Header.Channel, argType: reflect.TypeOf(args)}
	r.mu.Lock()
	handler, ok := r.routes[key]
	r.mu.Unlock()
	if !ok {
		return ErrNoRoute
	}
	return handler(f.Header.Channel, args)
}
