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

import "strings"

// NegotiateAuthMechanism picks the first entry of preferred that also
// appears in the server's space-separated advertisement. It returns an
// error if no overlap exists.
func NegotiateAuthMechanism(serverMechanisms string, preferred []string) (string, error) {
	offered := make(map[string]bool)
	for _, m := range strings.Fields(serverMechanisms) {
		offered[m] = true
	}
	for _, want := range preferred {
		if offered[want] {
			return want, nil
		}
	}
	return "", newProtocolError("no common auth mechanism: server offered %q, client supports %v", serverMechanisms, preferred)
}

// NegotiateNumeric settles one of channel-max/frame-max/heartbeat between
// the client's proposal and the server's ConnectionTune proposal. AMQP
// 0-9-1's rule for all three fields is identical: 0 means "no preference,
// accept the other side's value", and otherwise the smaller of the two
// non-zero values wins.
func NegotiateNumeric(clientWants, serverWants uint32) uint32 {
	switch {
	case clientWants == 0:
		return serverWants
	case serverWants == 0:
		return clientWants
	case clientWants < serverWants:
		return clientWants
	default:
		return serverWants
	}
}
