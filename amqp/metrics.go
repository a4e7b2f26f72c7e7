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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/packetd/amqpc/common"
)

var (
	framesSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "frames_sent_total",
			Help:      "frames written to the transport, by frame type",
		},
		[]string{"type"},
	)

	framesRecvTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "frames_received_total",
			Help:      "frames read from the transport, by frame type",
		},
		[]string{"type"},
	)

	connectionState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: common.App,
			Name:      "connection_state",
			Help:      "current connection state as an enum value (see amqp.State)",
		},
	)

	heartbeatMissedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "heartbeat_missed_total",
			Help:      "heartbeats the broker failed to send within the negotiated deadline",
		},
	)

	closedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: common.App,
			Name:      "close_total",
			Help:      "connections closed, whether by request or by error",
		},
	)
)

func frameTypeLabel(t uint8) string {
	switch t {
	case frameMethod:
		return "method"
	case frameContentHeader:
		return "content_header"
	case frameContentBody:
		return "content_body"
	case frameHeartbeat:
		return "heartbeat"
	default:
		return "unknown"
	}
}
