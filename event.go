package cborstream

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"math/big"
	"slices"

	"github.com/x448/float16"
)

// IndefiniteCount is the Count result for indefinite-length containers.
const IndefiniteCount int64 = -1

// DataEvent is one decoded data item header with its raw unsigned 64-bit
// argument and, for definite-length strings, the payload bytes. Events are
// immutable values: payloads are copied on the way in and on the way out.
//
// Nested children of arrays, maps and tags are not part of the event; they
// arrive as subsequent events of the stream.
type DataEvent struct {
	hdr     Header
	raw     uint64
	payload []byte
}

// Singletons for every event that is complete in a single byte: integers
// 0..23 of both signs, empty strings and containers, indefinite starts,
// simple values, and break. Factories return these by identity.
var singletons [256]*DataEvent

var (
	eventFalse     *DataEvent
	eventTrue      *DataEvent
	eventNull      *DataEvent
	eventUndefined *DataEvent
	eventBreak     *DataEvent

	// Common binary16 constants, shared like the single-byte singletons.
	eventInf    *DataEvent
	eventNegInf *DataEvent
	eventNaN    *DataEvent
)

func init() {
	for i := range 256 {
		b := byte(i)
		if !headerValid[b] {
			continue
		}
		h := headerTable[b]
		switch {
		case h.major.carriesPayload():
			if h.format == FormatIndefinite {
				singletons[b] = &DataEvent{hdr: h}
			} else if h.format == FormatImmediate && h.immediateValue() == 0 {
				singletons[b] = &DataEvent{hdr: h, payload: []byte{}}
			}
		case h.format == FormatImmediate:
			singletons[b] = &DataEvent{hdr: h, raw: h.immediateValue()}
		case h.format == FormatIndefinite:
			singletons[b] = &DataEvent{hdr: h}
		}
	}

	eventFalse = singletons[0xf4]
	eventTrue = singletons[0xf5]
	eventNull = singletons[0xf6]
	eventUndefined = singletons[0xf7]
	eventBreak = singletons[0xff]

	half := headerTable[MajorEtc.highBits()|FormatShort.lowBits()]
	eventInf = &DataEvent{hdr: half, raw: 0x7c00}
	eventNegInf = &DataEvent{hdr: half, raw: 0xfc00}
	eventNaN = &DataEvent{hdr: half, raw: 0x7e00}
}

// newEvent enforces the payload invariant: payload present exactly for
// definite-length byte/text strings.
func newEvent(h Header, raw uint64, payload []byte) *DataEvent {
	if h.major.carriesPayload() && !h.IsIndefinite() {
		if payload == nil {
			payload = []byte{}
		}
	} else if payload != nil {
		panic("cborstream: payload on a non-string event")
	}
	return &DataEvent{hdr: h, raw: raw, payload: payload}
}

// Bool returns the shared true or false event.
func Bool(v bool) *DataEvent {
	if v {
		return eventTrue
	}
	return eventFalse
}

// Null returns the shared null event.
func Null() *DataEvent { return eventNull }

// Undefined returns the shared undefined event.
func Undefined() *DataEvent { return eventUndefined }

// Break returns the shared break event terminating an indefinite
// container or chunk sequence.
func Break() *DataEvent { return eventBreak }

// Simple builds a major-7 simple value. Arguments 24..31 are reserved by
// RFC 7049 and rejected.
func Simple(value uint8) (*DataEvent, error) {
	if value < 24 {
		return singletons[MajorEtc.highBits()|value], nil
	}
	if value < 32 {
		return nil, notWellFormed("simple values 24..31 are reserved")
	}
	h, err := HeaderForFormat(MajorEtc, FormatByte)
	if err != nil {
		return nil, err
	}
	return newEvent(h, uint64(value), nil), nil
}

// Uint builds the canonical unsigned integer event.
func Uint(v uint64) *DataEvent {
	return mustCanonical(MajorUnsigned, v)
}

// NegUint builds the canonical negative integer event for the logical
// value -(v+1), covering magnitudes a signed 64-bit integer cannot hold.
func NegUint(v uint64) *DataEvent {
	return mustCanonical(MajorNegative, v)
}

// Int builds the canonical integer event of either sign.
func Int(v int64) *DataEvent {
	if v >= 0 {
		return Uint(uint64(v))
	}
	return NegUint(^uint64(v))
}

// Tag builds the canonical tag event. Exactly one child item must follow
// it on the stream.
func Tag(tag uint64) *DataEvent {
	return mustCanonical(MajorTag, tag)
}

// StartArray builds the canonical header event of a definite array of n
// items.
func StartArray(n uint64) *DataEvent {
	return mustCanonical(MajorArray, n)
}

// StartMap builds the canonical header event of a definite map of n
// key/value pairs.
func StartMap(pairs uint64) *DataEvent {
	return mustCanonical(MajorMap, pairs)
}

// StartIndefiniteArray returns the shared indefinite-array start event.
func StartIndefiniteArray() *DataEvent {
	return singletons[MajorArray.highBits()|FormatIndefinite.lowBits()]
}

// StartIndefiniteMap returns the shared indefinite-map start event.
func StartIndefiniteMap() *DataEvent {
	return singletons[MajorMap.highBits()|FormatIndefinite.lowBits()]
}

// StartIndefiniteBytes returns the shared start event of a chunked byte
// string.
func StartIndefiniteBytes() *DataEvent {
	return singletons[MajorByteString.highBits()|FormatIndefinite.lowBits()]
}

// StartIndefiniteText returns the shared start event of a chunked text
// string.
func StartIndefiniteText() *DataEvent {
	return singletons[MajorTextString.highBits()|FormatIndefinite.lowBits()]
}

// BytesChunk builds a definite byte-string event. The input is copied.
func BytesChunk(b []byte) *DataEvent {
	return fixedString(MajorByteString, b)
}

// TextChunk builds a definite text-string event.
func TextChunk(s string) *DataEvent {
	return fixedString(MajorTextString, []byte(s))
}

func fixedString(major Major, b []byte) *DataEvent {
	if len(b) == 0 {
		return singletons[major.highBits()]
	}
	h, _ := CanonicalHeader(major, uint64(len(b)))
	return newEvent(h, uint64(len(b)), slices.Clone(b))
}

// Float16 builds a binary16 event with the exact bit pattern of f.
func Float16(f float16.Float16) *DataEvent {
	h, _ := HeaderForFormat(MajorEtc, FormatShort)
	return newEvent(h, uint64(f.Bits()), nil)
}

// Float32 builds a binary32 event with the exact bit pattern of f.
func Float32(f float32) *DataEvent {
	h, _ := HeaderForFormat(MajorEtc, FormatInt)
	return newEvent(h, uint64(math.Float32bits(f)), nil)
}

// Float64 builds a binary64 event with the exact bit pattern of f.
func Float64(f float64) *DataEvent {
	h, _ := HeaderForFormat(MajorEtc, FormatLong)
	return newEvent(h, math.Float64bits(f), nil)
}

// Infinity returns the shared binary16 +Inf event.
func Infinity() *DataEvent { return eventInf }

// NegInfinity returns the shared binary16 -Inf event.
func NegInfinity() *DataEvent { return eventNegInf }

// NaN returns the shared canonical binary16 NaN event.
func NaN() *DataEvent { return eventNaN }

// CanonicalEvent builds the minimal-length event for a major type and an
// unsigned argument. String majors are rejected since their events need a
// payload; MajorEtc is rejected since its argument is not an integer.
func CanonicalEvent(major Major, value uint64) (*DataEvent, error) {
	if major == MajorEtc {
		return nil, &TypeError{
			Header: headerTable[major.highBits()],
			WantMajors: []Major{
				MajorUnsigned, MajorNegative, MajorArray, MajorMap, MajorTag,
			},
		}
	}
	if major.carriesPayload() {
		return nil, notWellFormed("string events need a payload, use BytesChunk or TextChunk")
	}
	return mustCanonical(major, value), nil
}

func mustCanonical(major Major, value uint64) *DataEvent {
	h, err := CanonicalHeader(major, value)
	if err != nil {
		panic(err)
	}
	if ev := singletons[h.Byte()]; ev != nil {
		return ev
	}
	return newEvent(h, value, nil)
}

// ReadEvent decodes one event from r. A clean end of stream exactly at a
// header boundary returns io.EOF; end of stream anywhere inside an item is
// a NotWellFormedError. Reserved header bytes and reserved encoded simple
// values (24..31) are NotWellFormedErrors.
func ReadEvent(r io.Reader) (*DataEvent, error) {
	var lead [1]byte
	if _, err := io.ReadFull(r, lead[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, notWellFormed("reading header byte: %v", err)
	}
	h, err := HeaderFromByte(lead[0])
	if err != nil {
		return nil, err
	}
	if ev := singletons[h.Byte()]; ev != nil {
		return ev, nil
	}
	raw, err := h.readValue(r)
	if err != nil {
		return nil, err
	}
	if h.major == MajorEtc && h.format == FormatByte && raw < 32 {
		return nil, notWellFormed("encoded simple value %d must be above 31", raw)
	}
	var payload []byte
	if h.major.carriesPayload() && !h.IsIndefinite() {
		if raw > math.MaxInt {
			return nil, &OverflowError{Value: raw, Target: "payload length"}
		}
		payload = make([]byte, raw)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, notWellFormed("stream ended inside a %d-byte payload: %v", raw, err)
		}
	}
	return newEvent(h, raw, payload), nil
}

// Header returns the decoded header of the event.
func (e *DataEvent) Header() Header { return e.hdr }

// RawValue returns the unsigned 64-bit argument exactly as on the wire.
func (e *DataEvent) RawValue() uint64 { return e.raw }

// Int32 interprets the event as a signed 32-bit integer. Valid for
// integral, tag and simple majors; anything exceeding the width is an
// OverflowError, never a truncation.
func (e *DataEvent) Int32() (int32, error) {
	switch e.hdr.major {
	case MajorUnsigned, MajorTag:
		if e.raw > math.MaxInt32 {
			return 0, &OverflowError{Value: e.raw, Target: "int32"}
		}
		return int32(e.raw), nil
	case MajorNegative:
		if e.raw > math.MaxInt32 {
			return 0, &OverflowError{Value: e.raw, Negative: true, Target: "int32"}
		}
		return int32(^e.raw), nil
	case MajorEtc:
		if err := e.requireFormat(FormatImmediate, FormatByte); err != nil {
			return 0, err
		}
		return int32(e.raw), nil
	}
	return 0, e.typeErr(MajorUnsigned, MajorNegative, MajorTag, MajorEtc)
}

// Int64 interprets the event as a signed 64-bit integer, with the same
// rules as Int32.
func (e *DataEvent) Int64() (int64, error) {
	switch e.hdr.major {
	case MajorUnsigned, MajorTag:
		if e.raw > math.MaxInt64 {
			return 0, &OverflowError{Value: e.raw, Target: "int64"}
		}
		return int64(e.raw), nil
	case MajorNegative:
		if e.raw > math.MaxInt64 {
			return 0, &OverflowError{Value: e.raw, Negative: true, Target: "int64"}
		}
		return int64(^e.raw), nil
	case MajorEtc:
		if err := e.requireFormat(FormatImmediate, FormatByte); err != nil {
			return 0, err
		}
		return int64(e.raw), nil
	}
	return 0, e.typeErr(MajorUnsigned, MajorNegative, MajorTag, MajorEtc)
}

// BigInt interprets the event as an arbitrary-precision integer; it never
// overflows. Negative-integer events yield -(raw+1).
func (e *DataEvent) BigInt() (*big.Int, error) {
	switch e.hdr.major {
	case MajorUnsigned, MajorTag:
		return new(big.Int).SetUint64(e.raw), nil
	case MajorNegative:
		v := new(big.Int).SetUint64(e.raw)
		v.Add(v, big.NewInt(1))
		return v.Neg(v), nil
	case MajorEtc:
		if err := e.requireFormat(FormatImmediate, FormatByte); err != nil {
			return nil, err
		}
		return new(big.Int).SetUint64(e.raw), nil
	}
	return nil, e.typeErr(MajorUnsigned, MajorNegative, MajorTag, MajorEtc)
}

// Count returns the byte length, item count or pair count of a string,
// array or map, IndefiniteCount for indefinite containers, and exactly 1
// for tags.
func (e *DataEvent) Count() (int64, error) {
	switch e.hdr.major {
	case MajorByteString, MajorTextString, MajorArray, MajorMap:
		if e.hdr.IsIndefinite() {
			return IndefiniteCount, nil
		}
		if e.raw > math.MaxInt64 {
			return 0, &OverflowError{Value: e.raw, Target: "count"}
		}
		return int64(e.raw), nil
	case MajorTag:
		return 1, nil
	}
	return 0, e.typeErr(MajorByteString, MajorTextString, MajorArray, MajorMap, MajorTag)
}

// Float16 returns the binary16 value. The event must have exactly the
// two-byte float width; no implicit cast from other widths is performed.
func (e *DataEvent) Float16() (float16.Float16, error) {
	if err := e.requireEtcFormat(FormatShort); err != nil {
		return 0, err
	}
	return float16.Frombits(uint16(e.raw)), nil
}

// Float32 returns the binary32 value, width-exact like Float16.
func (e *DataEvent) Float32() (float32, error) {
	if err := e.requireEtcFormat(FormatInt); err != nil {
		return 0, err
	}
	return math.Float32frombits(uint32(e.raw)), nil
}

// Float64 returns the binary64 value, width-exact like Float16.
func (e *DataEvent) Float64() (float64, error) {
	if err := e.requireEtcFormat(FormatLong); err != nil {
		return 0, err
	}
	return math.Float64frombits(e.raw), nil
}

// Bool returns the boolean value of the true or false singletons.
func (e *DataEvent) Bool() (bool, error) {
	switch e {
	case eventTrue:
		return true, nil
	case eventFalse:
		return false, nil
	}
	return false, &TypeError{Header: e.hdr, WantTypes: []LogicalType{TypeBoolean}}
}

// IsNull reports the null singleton.
func (e *DataEvent) IsNull() bool { return e == eventNull }

// IsUndefined reports the undefined singleton.
func (e *DataEvent) IsUndefined() bool { return e == eventUndefined }

// IsBreak reports the break singleton.
func (e *DataEvent) IsBreak() bool { return e == eventBreak }

// IsIndefiniteStart reports the start of any break-terminated sequence.
func (e *DataEvent) IsIndefiniteStart() bool {
	return e.hdr.ltype.isIndefiniteStart()
}

// Bytes returns a copy of the payload, or nil when the event has none.
func (e *DataEvent) Bytes() []byte {
	if e.payload == nil {
		return nil
	}
	return slices.Clone(e.payload)
}

// Text returns the payload of a definite text chunk as a string.
func (e *DataEvent) Text() (string, error) {
	if e.hdr.ltype != TypeTextChunk {
		return "", &TypeError{Header: e.hdr, WantTypes: []LogicalType{TypeTextChunk}}
	}
	return string(e.payload), nil
}

// Optional wraps the event so that every accessor reports absence instead
// of a value exactly when the event is null.
func (e *DataEvent) Optional() OptionalValue {
	return OptionalValue{ev: e}
}

// WriteTo emits the header byte, the 0/1/2/4/8 argument bytes, and any
// payload. It implements io.WriterTo.
func (e *DataEvent) WriteTo(w io.Writer) (int64, error) {
	var written int64
	if _, err := w.Write([]byte{e.hdr.b}); err != nil {
		return written, err
	}
	written++
	n, err := e.hdr.writeValue(w, e.raw)
	written += int64(n)
	if err != nil {
		return written, err
	}
	if len(e.payload) > 0 {
		n, err := w.Write(e.payload)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
	return written, nil
}

// Equal reports structural equality of header, argument and payload.
func (e *DataEvent) Equal(o *DataEvent) bool {
	if e == o {
		return true
	}
	if e == nil || o == nil {
		return false
	}
	return e.hdr.b == o.hdr.b && e.raw == o.raw && bytes.Equal(e.payload, o.payload)
}

// Compare gives the total order (header byte, unsigned argument, payload
// lexical order) used for deterministic tests.
func (e *DataEvent) Compare(o *DataEvent) int {
	if c := int(e.hdr.b) - int(o.hdr.b); c != 0 {
		return c
	}
	if e.raw != o.raw {
		if e.raw < o.raw {
			return -1
		}
		return 1
	}
	return bytes.Compare(e.payload, o.payload)
}

// String is a debug rendering of the event's wire bytes and meaning.
func (e *DataEvent) String() string {
	var buf bytes.Buffer
	e.WriteTo(&buf)
	return fmt.Sprintf("[%s %s %s]", hex.EncodeToString(buf.Bytes()), e.hdr, e.describe())
}

func (e *DataEvent) describe() string {
	switch e.hdr.ltype {
	case TypeIntegral:
		if e.hdr.major == MajorNegative {
			return fmt.Sprintf("-(%d+1)", e.raw)
		}
		return fmt.Sprintf("%d", e.raw)
	case TypeTag:
		return fmt.Sprintf("tag#%d", e.raw)
	case TypeBoolean:
		if e == eventTrue {
			return "true"
		}
		return "false"
	case TypeNull, TypeUndefined, TypeBreak:
		return e.hdr.ltype.String()
	case TypeOtherSimple:
		return fmt.Sprintf("simple(%d)", e.raw)
	case TypeHalfFloat:
		return fmt.Sprintf("binary16(%04x)", uint16(e.raw))
	case TypeFloat:
		return fmt.Sprintf("float %v", math.Float32frombits(uint32(e.raw)))
	case TypeDouble:
		return fmt.Sprintf("double %v", math.Float64frombits(e.raw))
	}
	return "..."
}

func (e *DataEvent) typeErr(want ...Major) error {
	return &TypeError{Header: e.hdr, WantMajors: want}
}

func (e *DataEvent) requireEtcFormat(want InfoFormat) error {
	if e.hdr.major != MajorEtc {
		return e.typeErr(MajorEtc)
	}
	return e.requireFormat(want)
}

func (e *DataEvent) requireFormat(want ...InfoFormat) error {
	if slices.Contains(want, e.hdr.format) {
		return nil
	}
	return &TypeError{Header: e.hdr, WantFormats: want}
}
