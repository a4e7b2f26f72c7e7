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

// Package amqp implements the wire codec and connection state machine for
// the client side of AMQP 0-9-1, including the RabbitMQ errata adjustments
// to the type grammar (signed FieldArray length, ShortString-as-value
// promoted to LongString).
package amqp

import (
	"encoding/binary"
	"math"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/valyala/bytebufferpool"
)

// Tag bytes identifying a FieldValue's wire type inside a Table or Array.
// ShortString has no tag of its own (erratum §3): values are always
// promoted to LongString before being tagged.
const (
	tagBoolean        = 't'
	tagShortShortInt  = 'b'
	tagShortShortUint = 'B'
	tagShortInt       = 'U'
	tagShortSignedInt = 's' // erratum §3, identical wire shape to tagShortInt
	tagShortUint      = 'u'
	tagLongInt        = 'I'
	tagLongUint       = 'i'
	tagLongLongInt    = 'L'
	tagLongLongUint   = 'l'
	tagFloat          = 'f'
	tagDouble         = 'd'
	tagDecimal        = 'D'
	tagLongString     = 'S'
	tagFieldArray     = 'A'
	tagFieldTable     = 'F'
	tagNoField        = 'V'
	tagTimestamp      = 'T'
)

// Table is an AMQP field-table: a self-describing, string-keyed map of
// typed values. Accepted value types when encoding: bool, int8, uint8,
// int16, uint16, int32, uint32, int64, uint64, float32, float64, Decimal,
// string, Table, Array, time.Time and nil.
type Table map[string]any

// Array is an AMQP field-array: an ordered sequence of typed values, using
// the same accepted value types as Table.
type Array []any

// Decimal is AMQP's scaled-integer decimal: value = Unscaled * 10^-Scale.
type Decimal struct {
	Scale    uint8
	Unscaled int32
}

// Float64 returns the decimal's value as a float64, for display purposes
// only; callers needing exact precision should work with Scale/Unscaled.
func (d Decimal) Float64() float64 {
	return float64(d.Unscaled) / math.Pow10(int(d.Scale))
}

// --- Fixed-width scalar codecs -------------------------------------------

func encodeOctet(v uint8) []byte { return []byte{v} }

func decodeOctet(b []byte) (uint8, []byte, error) {
	if len(b) < 1 {
		return 0, nil, errTruncated("octet")
	}
	return b[0], b[1:], nil
}

func encodeBoolean(v bool) []byte {
	if v {
		return []byte{1}
	}
	return []byte{0}
}

func decodeBoolean(b []byte) (bool, []byte, error) {
	v, rest, err := decodeOctet(b)
	if err != nil {
		return false, nil, err
	}
	return v != 0, rest, nil
}

func encodeShortShortInt(v int8) []byte  { return []byte{uint8(v)} }
func encodeShortShortUint(v uint8) []byte { return []byte{v} }

func decodeShortShortInt(b []byte) (int8, []byte, error) {
	v, rest, err := decodeOctet(b)
	return int8(v), rest, err
}

func decodeShortShortUint(b []byte) (uint8, []byte, error) {
	return decodeOctet(b)
}

func encodeShortInt(v int16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, uint16(v))
	return b
}

func encodeShortUint(v uint16) []byte {
	b := make([]byte, 2)
	binary.BigEndian.PutUint16(b, v)
	return b
}

func decodeShortInt(b []byte) (int16, []byte, error) {
	if len(b) < 2 {
		return 0, nil, errTruncated("short-int")
	}
	return int16(binary.BigEndian.Uint16(b[:2])), b[2:], nil
}

func decodeShortUint(b []byte) (uint16, []byte, error) {
	if len(b) < 2 {
		return 0, nil, errTruncated("short-uint")
	}
	return binary.BigEndian.Uint16(b[:2]), b[2:], nil
}

func encodeLongInt(v int32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(v))
	return b
}

func encodeLongUint(v uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, v)
	return b
}

func decodeLongInt(b []byte) (int32, []byte, error) {
	if len(b) < 4 {
		return 0, nil, errTruncated("long-int")
	}
	return int32(binary.BigEndian.Uint32(b[:4])), b[4:], nil
}

func decodeLongUint(b []byte) (uint32, []byte, error) {
	if len(b) < 4 {
		return 0, nil, errTruncated("long-uint")
	}
	return binary.BigEndian.Uint32(b[:4]), b[4:], nil
}

func encodeLongLongInt(v int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(v))
	return b
}

func encodeLongLongUint(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func decodeLongLongInt(b []byte) (int64, []byte, error) {
	if len(b) < 8 {
		return 0, nil, errTruncated("long-long-int")
	}
	return int64(binary.BigEndian.Uint64(b[:8])), b[8:], nil
}

func decodeLongLongUint(b []byte) (uint64, []byte, error) {
	if len(b) < 8 {
		return 0, nil, errTruncated("long-long-uint")
	}
	return binary.BigEndian.Uint64(b[:8]), b[8:], nil
}

func encodeFloat(v float32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, math.Float32bits(v))
	return b
}

func decodeFloat(b []byte) (float32, []byte, error) {
	u, rest, err := decodeLongUint(b)
	if err != nil {
		return 0, nil, err
	}
	return math.Float32frombits(u), rest, nil
}

func encodeDouble(v float64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, math.Float64bits(v))
	return b
}

func decodeDouble(b []byte) (float64, []byte, error) {
	u, rest, err := decodeLongLongUint(b)
	if err != nil {
		return 0, nil, err
	}
	return math.Float64frombits(u), rest, nil
}

// --- Decimal ---------------------------------------------------------------

func encodeDecimal(d Decimal) []byte {
	out := make([]byte, 0, 5)
	out = append(out, encodeOctet(d.Scale)...)
	out = append(out, encodeLongInt(d.Unscaled)...)
	return out
}

func decodeDecimal(b []byte) (Decimal, []byte, error) {
	scale, rest, err := decodeOctet(b)
	if err != nil {
		return Decimal{}, nil, err
	}
	unscaled, rest, err := decodeLongInt(rest)
	if err != nil {
		return Decimal{}, nil, err
	}
	return Decimal{Scale: scale, Unscaled: unscaled}, rest, nil
}

// --- Strings -----------------------------------------------------------

func encodeShortString(s string) ([]byte, error) {
	if len(s) > math.MaxUint8 {
		return nil, errShortStringTooLong(len(s))
	}
	out := make([]byte, 0, 1+len(s))
	out = append(out, byte(len(s)))
	out = append(out, s...)
	return out, nil
}

func decodeShortString(b []byte) (string, []byte, error) {
	n, rest, err := decodeOctet(b)
	if err != nil {
		return "", nil, err
	}
	if len(rest) < int(n) {
		return "", nil, errTruncated("short-string")
	}
	s := string(rest[:n])
	if !utf8.ValidString(s) {
		return "", nil, errInvalidString()
	}
	return s, rest[n:], nil
}

func encodeLongString(s string) []byte {
	out := make([]byte, 0, 4+len(s))
	out = append(out, encodeLongUint(uint32(len(s)))...)
	out = append(out, s...)
	return out
}

func decodeLongString(b []byte) (string, []byte, error) {
	n, rest, err := decodeLongUint(b)
	if err != nil {
		return "", nil, err
	}
	if uint32(len(rest)) < n {
		return "", nil, errTruncated("long-string")
	}
	s := string(rest[:n])
	if !utf8.ValidString(s) {
		return "", nil, errInvalidString()
	}
	return s, rest[n:], nil
}

// --- Timestamp ---------------------------------------------------------

// encodeTimestamp encodes t as POSIX seconds. A zero Time defaults to
// time.Now(), matching the construction-time "current time" default the
// original amqp_aio library gives a Timestamp field (see SPEC_FULL.md §1).
func encodeTimestamp(t time.Time) []byte {
	if t.IsZero() {
		t = time.Now()
	}
	return encodeLongLongUint(uint64(t.Unix()))
}

func decodeTimestamp(b []byte) (time.Time, []byte, error) {
	secs, rest, err := decodeLongLongUint(b)
	if err != nil {
		return time.Time{}, nil, err
	}
	return time.Unix(int64(secs), 0).UTC(), rest, nil
}

// --- NoField / Void ------------------------------------------------------

func encodeNoField() []byte { return nil }

func decodeNoField(b []byte) ([]byte, error) { return b, nil }

// --- FieldValue: tag byte + tagged value ---------------------------------

// encodeFieldValue returns the tag byte for v's dynamic type followed by
// its encoded body, as stored inside a Table or Array. A bare ShortString
// value is never produced here: Go callers always pass string, which is
// promoted straight to LongString per the erratum.
func encodeFieldValue(v any) ([]byte, error) {
	switch val := v.(type) {
	case nil:
		return []byte{tagNoField}, nil
	case bool:
		return append([]byte{tagBoolean}, encodeBoolean(val)...), nil
	case int8:
		return append([]byte{tagShortShortInt}, encodeShortShortInt(val)...), nil
	case uint8:
		return append([]byte{tagShortShortUint}, encodeShortShortUint(val)...), nil
	case int16:
		return append([]byte{tagShortInt}, encodeShortInt(val)...), nil
	case uint16:
		return append([]byte{tagShortUint}, encodeShortUint(val)...), nil
	case int32:
		return append([]byte{tagLongInt}, encodeLongInt(val)...), nil
	case uint32:
		return append([]byte{tagLongUint}, encodeLongUint(val)...), nil
	case int64:
		return append([]byte{tagLongLongInt}, encodeLongLongInt(val)...), nil
	case uint64:
		return append([]byte{tagLongLongUint}, encodeLongLongUint(val)...), nil
	case int:
		return append([]byte{tagLongLongInt}, encodeLongLongInt(int64(val))...), nil
	case float32:
		return append([]byte{tagFloat}, encodeFloat(val)...), nil
	case float64:
		return append([]byte{tagDouble}, encodeDouble(val)...), nil
	case Decimal:
		return append([]byte{tagDecimal}, encodeDecimal(val)...), nil
	case string:
		// erratum §3: strings inside a Table/Array are always LongString.
		return append([]byte{tagLongString}, encodeLongString(val)...), nil
	case Table:
		body, err := encodeTable(val)
		if err != nil {
			return nil, err
		}
		return append([]byte{tagFieldTable}, body...), nil
	case Array:
		body, err := encodeArray(val)
		if err != nil {
			return nil, err
		}
		return append([]byte{tagFieldArray}, body...), nil
	case time.Time:
		return append([]byte{tagTimestamp}, encodeTimestamp(val)...), nil
	default:
		return nil, errUnsupportedFieldType(v)
	}
}

func decodeFieldValue(b []byte) (any, []byte, error) {
	tag, rest, err := decodeOctet(b)
	if err != nil {
		return nil, nil, err
	}
	switch tag {
	case tagBoolean:
		return decodeBoolean(rest)
	case tagShortShortInt:
		return decodeShortShortInt(rest)
	case tagShortShortUint:
		return decodeShortShortUint(rest)
	case tagShortInt, tagShortSignedInt:
		return decodeShortInt(rest)
	case tagShortUint:
		return decodeShortUint(rest)
	case tagLongInt:
		return decodeLongInt(rest)
	case tagLongUint:
		return decodeLongUint(rest)
	case tagLongLongInt:
		return decodeLongLongInt(rest)
	case tagLongLongUint:
		return decodeLongLongUint(rest)
	case tagFloat:
		return decodeFloat(rest)
	case tagDouble:
		return decodeDouble(rest)
	case tagDecimal:
		return decodeDecimal(rest)
	case tagLongString:
		return decodeLongString(rest)
	case tagFieldArray:
		return decodeArray(rest)
	case tagFieldTable:
		return decodeTable(rest)
	case tagTimestamp:
		return decodeTimestamp(rest)
	case tagNoField:
		return nil, rest, nil
	default:
		return nil, nil, errUnknownTag(tag)
	}
}

// --- FieldArray ----------------------------------------------------------

// encodeArray writes the payload only (no tag byte): a signed 32-bit
// length prefix per the RabbitMQ erratum §4, followed by concatenated
// FieldValues.
func encodeArray(a Array) ([]byte, error) {
	var body []byte
	for _, v := range a {
		fv, err := encodeFieldValue(v)
		if err != nil {
			return nil, err
		}
		body = append(body, fv...)
	}
	out := make([]byte, 0, 4+len(body))
	out = append(out, encodeLongInt(int32(len(body)))...)
	out = append(out, body...)
	return out, nil
}

func decodeArray(b []byte) (Array, []byte, error) {
	n, rest, err := decodeLongInt(b)
	if err != nil {
		return nil, nil, err
	}
	if n < 0 || int64(n) > int64(len(rest)) {
		return nil, nil, errTruncated("field-array")
	}
	window, tail := rest[:n], rest[n:]

	var values Array
	for len(window) > 0 {
		var v any
		v, window, err = decodeFieldValue(window)
		if err != nil {
			return nil, nil, err
		}
		values = append(values, v)
	}
	return values, tail, nil
}

// --- FieldTable ------------------------------------------------------------

// encodeTable writes the payload only (no tag byte): an unsigned 32-bit
// length prefix followed by (ShortString name, FieldValue) pairs, sorted
// by key for deterministic, reproducible wire output.
func encodeTable(t Table) ([]byte, error) {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var body []byte
	for _, k := range keys {
		name, err := encodeShortString(k)
		if err != nil {
			return nil, err
		}
		val, err := encodeFieldValue(t[k])
		if err != nil {
			return nil, err
		}
		body = append(body, name...)
		body = append(body, val...)
	}
	out := make([]byte, 0, 4+len(body))
	out = append(out, encodeLongUint(uint32(len(body)))...)
	out = append(out, body...)
	return out, nil
}

func decodeTable(b []byte) (Table, []byte, error) {
	n, rest, err := decodeLongUint(b)
	if err != nil {
		return nil, nil, err
	}
	if uint32(len(rest)) < n {
		return nil, nil, errTruncated("field-table")
	}
	window, tail := rest[:n], rest[n:]

	table := make(Table)
	for len(window) > 0 {
		var name string
		name, window, err = decodeShortString(window)
		if err != nil {
			return nil, nil, err
		}
		var v any
		v, window, err = decodeFieldValue(window)
		if err != nil {
			return nil, nil, err
		}
		table[name] = v // duplicate names: last wins
	}
	return table, tail, nil
}

// --- buffer helper ---------------------------------------------------------

// wireWriter appends wire-encoded fields in order into a pooled buffer. It
// is the shared primitive behind every method-arguments Encode method, in
// place of the reflective per-field metaclass the original library used
// (see Design Notes in SPEC_FULL.md §2).
type wireWriter struct {
	buf *bytebufferpool.ByteBuffer
	err error
}

func newWireWriter() *wireWriter {
	return &wireWriter{buf: bytebufferpool.Get()}
}

func (w *wireWriter) write(b []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.buf.Write(b)
}

func (w *wireWriter) writeErr(b []byte, err error) {
	if err != nil {
		w.err = err
		return
	}
	w.write(b)
}

// finish copies out the accumulated bytes and releases the pooled buffer.
func (w *wireWriter) finish() ([]byte, error) {
	if w.err != nil {
		bytebufferpool.Put(w.buf)
		return nil, w.err
	}
	out := append([]byte(nil), w.buf.Bytes()...)
	bytebufferpool.Put(w.buf)
	return out, nil
}

// wireReader consumes wire-encoded fields in order from an in-memory byte
// slice, short-circuiting on the first error.
type wireReader struct {
	buf []byte
	err error
}

func newWireReader(b []byte) *wireReader {
	return &wireReader{buf: b}
}

func (r *wireReader) octet() uint8 {
	if r.err != nil {
		return 0
	}
	var v uint8
	v, r.buf, r.err = decodeOctet(r.buf)
	return v
}

func (r *wireReader) boolean() bool {
	if r.err != nil {
		return false
	}
	var v bool
	v, r.buf, r.err = decodeBoolean(r.buf)
	return v
}

func (r *wireReader) shortInt() int16 {
	if r.err != nil {
		return 0
	}
	var v int16
	v, r.buf, r.err = decodeShortInt(r.buf)
	return v
}

func (r *wireReader) shortUint() uint16 {
	if r.err != nil {
		return 0
	}
	var v uint16
	v, r.buf, r.err = decodeShortUint(r.buf)
	return v
}

func (r *wireReader) longInt() int32 {
	if r.err != nil {
		return 0
	}
	var v int32
	v, r.buf, r.err = decodeLongInt(r.buf)
	return v
}

func (r *wireReader) longUint() uint32 {
	if r.err != nil {
		return 0
	}
	var v uint32
	v, r.buf, r.err = decodeLongUint(r.buf)
	return v
}

func (r *wireReader) longLongUint() uint64 {
	if r.err != nil {
		return 0
	}
	var v uint64
	v, r.buf, r.err = decodeLongLongUint(r.buf)
	return v
}

func (r *wireReader) shortString() string {
	if r.err != nil {
		return ""
	}
	var v string
	v, r.buf, r.err = decodeShortString(r.buf)
	return v
}

func (r *wireReader) longString() string {
	if r.err != nil {
		return ""
	}
	var v string
	v, r.buf, r.err = decodeLongString(r.buf)
	return v
}

func (r *wireReader) table() Table {
	if r.err != nil {
		return nil
	}
	var v Table
	v, r.buf, r.err = decodeTable(r.buf)
	return v
}

func (r *wireReader) noField() {
	if r.err != nil {
		return
	}
	r.buf, r.err = decodeNoField(r.buf)
}

// done returns the first error met while reading, if any. Unconsumed
// trailing bytes are not an error: decodeFrameHeader reads the header
// off a buffer that still holds the payload.
func (r *wireReader) done() error {
	if r.err != nil {
		return r.err
	}
	return nil
}
