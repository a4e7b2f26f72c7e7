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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplyNameKnownAndUnknown(t *testing.T) {
	assert.Equal(t, "ACCESS-REFUSED", replyName(ReplyAccessRefused))
	assert.Equal(t, "UNKNOWN", replyName(9999))
}

func TestReplyErrorMessage(t *testing.T) {
	err := newReplyError(ReplyNotFound, "no queue 'x'", classQueue, methodQueueDeclare)
	assert.Contains(t, err.Error(), "NOT-FOUND")
	assert.Contains(t, err.Error(), "no queue 'x'")

	var re *ReplyError
	assert.True(t, errors.As(err, &re))
	assert.EqualValues(t, ReplyNotFound, re.Code)
}

func TestCloseErrorCombinesBoth(t *testing.T) {
	reply := newReplyError(ReplyConnectionForced, "forced", 0, 0)
	transport := errNotConnected()

	combined := closeError(reply, transport)
	assert.Contains(t, combined.Error(), "CONNECTION-FORCED")
	assert.Contains(t, combined.Error(), "not connected")
}

func TestCloseErrorHandlesNils(t *testing.T) {
	assert.Nil(t, closeError(nil, nil))

	reply := newReplyError(ReplyNotFound, "x", 0, 0)
	assert.Equal(t, reply, closeError(reply, nil))

	transport := errNotConnected()
	assert.Equal(t, transport, closeError(nil, transport))
}
