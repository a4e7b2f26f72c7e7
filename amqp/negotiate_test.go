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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNegotiateAuthMechanismPrefersClientOrder(t *testing.T) {
	m, err := NegotiateAuthMechanism("PLAIN AMQPLAIN EXTERNAL", []string{"EXTERNAL", "PLAIN"})
	require.NoError(t, err)
	assert.Equal(t, "EXTERNAL", m)
}

func TestNegotiateAuthMechanismNoOverlap(t *testing.T) {
	_, err := NegotiateAuthMechanism("GSSAPI", []string{"PLAIN"})
	assert.Error(t, err)
}

func TestNegotiateNumeric(t *testing.T) {
	tests := []struct {
		name              string
		client, server    uint32
		want              uint32
	}{
		{"both zero", 0, 0, 0},
		{"client defers", 0, 2047, 2047},
		{"server defers", 2047, 0, 2047},
		{"client smaller wins", 100, 200, 100},
		{"server smaller wins", 200, 100, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NegotiateNumeric(tt.client, tt.server))
		})
	}
}
