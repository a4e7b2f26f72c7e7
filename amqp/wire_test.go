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
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarRoundTrip(t *testing.T) {
	assert.Equal(t, []byte{0x01}, encodeOctet(1))

	b := encodeShortInt(-2)
	v, rest, err := decodeShortInt(b)
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.EqualValues(t, -2, v)

	lb := encodeLongUint(70000)
	lv, _, err := decodeLongUint(lb)
	require.NoError(t, err)
	assert.EqualValues(t, 70000, lv)

	llb := encodeLongLongUint(1 << 40)
	llv, _, err := decodeLongLongUint(llb)
	require.NoError(t, err)
	assert.EqualValues(t, 1<<40, llv)

	fb := encodeFloat(3.5)
	fv, _, err := decodeFloat(fb)
	require.NoError(t, err)
	assert.Equal(t, float32(3.5), fv)

	db := encodeDouble(2.25)
	dv, _, err := decodeDouble(db)
	require.NoError(t, err)
	assert.Equal(t, 2.25, dv)
}

func TestShortStringRoundTrip(t *testing.T) {
	b, err := encodeShortString("guest")
	require.NoError(t, err)
	assert.Equal(t, []byte{5, 'g', 'u', 'e', 's', 't'}, b)

	s, rest, err := decodeShortString(b)
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, "guest", s)
}

func TestShortStringTooLong(t *testing.T) {
	long := make([]byte, 256)
	_, err := encodeShortString(string(long))
	assert.Error(t, err)
}

func TestLongStringRoundTrip(t *testing.T) {
	b := encodeLongString("hello world")
	s, rest, err := decodeLongString(b)
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, "hello world", s)
}

func TestDecimalRoundTrip(t *testing.T) {
	d := Decimal{Scale: 2, Unscaled: 12345}
	b := encodeDecimal(d)
	got, rest, err := decodeDecimal(b)
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, d, got)
	assert.InDelta(t, 123.45, got.Float64(), 0.001)
}

func TestTimestampDefaultsToNow(t *testing.T) {
	before := time.Now().Add(-time.Second)
	b := encodeTimestamp(time.Time{})
	got, _, err := decodeTimestamp(b)
	require.NoError(t, err)
	assert.True(t, !got.Before(before.Truncate(time.Second)))
}

func TestTableEncodeIsSortedByKey(t *testing.T) {
	tbl := Table{"zeta": int32(1), "alpha": int32(2)}
	b, err := encodeTable(tbl)
	require.NoError(t, err)

	decoded, rest, err := decodeTable(b)
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, int32(2), decoded["alpha"])
	assert.Equal(t, int32(1), decoded["zeta"])

	// alpha's entry must appear before zeta's in the encoded bytes.
	alphaIdx := indexOfShortString(b, "alpha")
	zetaIdx := indexOfShortString(b, "zeta")
	require.NotEqual(t, -1, alphaIdx)
	require.NotEqual(t, -1, zetaIdx)
	assert.Less(t, alphaIdx, zetaIdx)
}

func indexOfShortString(b []byte, s string) int {
	for i := 0; i+len(s) <= len(b); i++ {
		if string(b[i:i+len(s)]) == s {
			return i
		}
	}
	return -1
}

func TestArrayRoundTrip(t *testing.T) {
	arr := Array{int32(1), "two", true}
	b, err := encodeArray(arr)
	require.NoError(t, err)

	decoded, rest, err := decodeArray(b)
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, arr, decoded)
}

func TestFieldValueNilIsNoField(t *testing.T) {
	b, err := encodeFieldValue(nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{tagNoField}, b)

	v, rest, err := decodeFieldValue(b)
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Nil(t, v)
}

func TestFieldValueUnsupportedType(t *testing.T) {
	_, err := encodeFieldValue(struct{}{})
	assert.Error(t, err)
}

func TestWireWriterPropagatesFirstError(t *testing.T) {
	w := newWireWriter()
	w.writeErr(nil, errShortStringTooLong(999))
	w.write(encodeOctet(1)) // must be a no-op once w.err is set
	_, err := w.finish()
	assert.Error(t, err)
}
