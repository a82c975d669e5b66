package cborstream

import (
	"encoding/binary"
	"io"
)

// Major is the 3-bit high-order classification of a CBOR data item
// (RFC 7049 §2.1).
type Major uint8

const (
	MajorUnsigned   Major = iota // major 0, unsigned integers
	MajorNegative                // major 1, negative integers, value -(raw+1)
	MajorByteString              // major 2, binary sequence
	MajorTextString              // major 3, UTF-8 text
	MajorArray                   // major 4, array of data items
	MajorMap                     // major 5, map of key/value item pairs
	MajorTag                     // major 6, semantic tag with one child item
	MajorEtc                     // major 7, simple values, floats and break
)

func (m Major) String() string {
	switch m {
	case MajorUnsigned:
		return "unsigned"
	case MajorNegative:
		return "negative"
	case MajorByteString:
		return "bytes"
	case MajorTextString:
		return "text"
	case MajorArray:
		return "array"
	case MajorMap:
		return "map"
	case MajorTag:
		return "tag"
	case MajorEtc:
		return "etc"
	}
	return "invalid"
}

func (m Major) highBits() byte {
	return byte(m) << 5
}

// indefiniteAllowed reports whether the indefinite info format (31) is
// legal for this major: chunked strings, indefinite containers and the
// major-7 break.
func (m Major) indefiniteAllowed() bool {
	switch m {
	case MajorByteString, MajorTextString, MajorArray, MajorMap, MajorEtc:
		return true
	}
	return false
}

// carriesPayload reports whether a definite-length item of this major is
// followed by raw payload bytes.
func (m Major) carriesPayload() bool {
	return m == MajorByteString || m == MajorTextString
}

// InfoFormat is the encoding of the additional-information argument in the
// low 5 bits of the header byte.
type InfoFormat uint8

const (
	FormatImmediate  InfoFormat = iota // argument 0..23 inside the header byte
	FormatByte                         // one trailing byte
	FormatShort                        // two trailing bytes, big-endian
	FormatInt                          // four trailing bytes, big-endian
	FormatLong                         // eight trailing bytes, big-endian
	FormatIndefinite                   // no argument; indefinite length or break
)

func (f InfoFormat) String() string {
	switch f {
	case FormatImmediate:
		return "immediate"
	case FormatByte:
		return "byte"
	case FormatShort:
		return "short"
	case FormatInt:
		return "int"
	case FormatLong:
		return "long"
	case FormatIndefinite:
		return "indefinite"
	}
	return "invalid"
}

func (f InfoFormat) lowBits() byte {
	switch f {
	case FormatByte:
		return 24
	case FormatShort:
		return 25
	case FormatInt:
		return 26
	case FormatLong:
		return 27
	case FormatIndefinite:
		return 31
	}
	return 0
}

// valueBytes is the number of trailing bytes holding the argument.
func (f InfoFormat) valueBytes() int {
	switch f {
	case FormatByte:
		return 1
	case FormatShort:
		return 2
	case FormatInt:
		return 4
	case FormatLong:
		return 8
	}
	return 0
}

// formatFromBits maps the low 5 header bits to an InfoFormat. The second
// result is false for the three reserved encodings 28, 29 and 30.
func formatFromBits(low5 byte) (InfoFormat, bool) {
	if low5 < 24 {
		return FormatImmediate, true
	}
	switch low5 {
	case 24:
		return FormatByte, true
	case 25:
		return FormatShort, true
	case 26:
		return FormatInt, true
	case 27:
		return FormatLong, true
	case 31:
		return FormatIndefinite, true
	}
	return 0, false
}

// CanonicalFormat returns the smallest format able to hold the given
// unsigned argument.
func CanonicalFormat(v uint64) InfoFormat {
	switch {
	case v < 24:
		return FormatImmediate
	case v < 1<<8:
		return FormatByte
	case v < 1<<16:
		return FormatShort
	case v < 1<<32:
		return FormatInt
	}
	return FormatLong
}

// LogicalType is the derived classification software usually branches on.
// It folds the four well-known simple values and the break out of MajorEtc
// and splits definite from indefinite container starts.
type LogicalType uint8

const (
	TypeIntegral LogicalType = iota
	TypeBinaryChunk
	TypeTextChunk
	TypeStartBinaryChunks
	TypeStartTextChunks
	TypeStartArray
	TypeStartIndefiniteArray
	TypeStartMap
	TypeStartIndefiniteMap
	TypeTag
	TypeBoolean
	TypeNull
	TypeUndefined
	TypeOtherSimple
	TypeHalfFloat
	TypeFloat
	TypeDouble
	TypeBreak
)

func (t LogicalType) String() string {
	switch t {
	case TypeIntegral:
		return "integral"
	case TypeBinaryChunk:
		return "binary chunk"
	case TypeTextChunk:
		return "text chunk"
	case TypeStartBinaryChunks:
		return "start of binary chunks"
	case TypeStartTextChunks:
		return "start of text chunks"
	case TypeStartArray:
		return "start of array"
	case TypeStartIndefiniteArray:
		return "start of indefinite array"
	case TypeStartMap:
		return "start of map"
	case TypeStartIndefiniteMap:
		return "start of indefinite map"
	case TypeTag:
		return "tag"
	case TypeBoolean:
		return "boolean"
	case TypeNull:
		return "null"
	case TypeUndefined:
		return "undefined"
	case TypeOtherSimple:
		return "simple value"
	case TypeHalfFloat:
		return "half float"
	case TypeFloat:
		return "float"
	case TypeDouble:
		return "double"
	case TypeBreak:
		return "break"
	}
	return "invalid"
}

// isIndefiniteStart reports whether the type opens a break-terminated
// sequence: chunked strings or indefinite containers.
func (t LogicalType) isIndefiniteStart() bool {
	switch t {
	case TypeStartBinaryChunks, TypeStartTextChunks,
		TypeStartIndefiniteArray, TypeStartIndefiniteMap:
		return true
	}
	return false
}

// Header is the decoded leading byte of a data item: major type, argument
// format and the derived logical type, classified once at table build.
// The zero value is the header of the unsigned integer 0.
type Header struct {
	b      byte
	major  Major
	format InfoFormat
	ltype  LogicalType
}

// Write-once lookup table over all 256 header bytes; 229 entries are
// well-formed, the rest keep headerValid false.
var headerTable, headerValid = buildHeaderTables()

func buildHeaderTables() (table [256]Header, valid [256]bool) {
	for i := range 256 {
		b := byte(i)
		major := Major(b >> 5)
		format, ok := formatFromBits(b & 0x1f)
		if !ok {
			continue
		}
		if format == FormatIndefinite && !major.indefiniteAllowed() {
			continue
		}
		table[i] = Header{
			b:      b,
			major:  major,
			format: format,
			ltype:  classify(b, major, format),
		}
		valid[i] = true
	}
	return table, valid
}

func classify(b byte, major Major, format InfoFormat) LogicalType {
	switch b {
	case 0xf4, 0xf5:
		return TypeBoolean
	case 0xf6:
		return TypeNull
	case 0xf7:
		return TypeUndefined
	case 0xff:
		return TypeBreak
	}
	switch major {
	case MajorUnsigned, MajorNegative:
		return TypeIntegral
	case MajorByteString:
		if format == FormatIndefinite {
			return TypeStartBinaryChunks
		}
		return TypeBinaryChunk
	case MajorTextString:
		if format == FormatIndefinite {
			return TypeStartTextChunks
		}
		return TypeTextChunk
	case MajorArray:
		if format == FormatIndefinite {
			return TypeStartIndefiniteArray
		}
		return TypeStartArray
	case MajorMap:
		if format == FormatIndefinite {
			return TypeStartIndefiniteMap
		}
		return TypeStartMap
	case MajorTag:
		return TypeTag
	}
	// MajorEtc leftovers: simple values and the three float widths.
	switch format {
	case FormatImmediate, FormatByte:
		return TypeOtherSimple
	case FormatShort:
		return TypeHalfFloat
	case FormatInt:
		return TypeFloat
	}
	return TypeDouble
}

// HeaderFromByte returns the header for a raw leading byte, or a
// NotWellFormedError for the ~27 reserved bit patterns.
func HeaderFromByte(b byte) (Header, error) {
	if !headerValid[b] {
		return Header{}, notWellFormed("reserved header byte 0x%02x", b)
	}
	return headerTable[b], nil
}

// ImmediateHeader returns the header encoding an immediate argument 0..23.
func ImmediateHeader(major Major, value uint8) (Header, error) {
	if value >= 24 {
		return Header{}, notWellFormed("immediate value %d out of range 0..23", value)
	}
	return headerTable[major.highBits()|value], nil
}

// HeaderForFormat returns the header for a major type and a non-immediate
// format. Indefinite is rejected for majors that do not support it.
func HeaderForFormat(major Major, format InfoFormat) (Header, error) {
	if format == FormatImmediate {
		return Header{}, notWellFormed("immediate format needs a value, use ImmediateHeader")
	}
	if format == FormatIndefinite && !major.indefiniteAllowed() {
		return Header{}, notWellFormed("major %s does not allow the indefinite format", major)
	}
	return headerTable[major.highBits()|format.lowBits()], nil
}

// IndefiniteHeader returns the start-of-indefinite header for a chunked
// string or container major.
func IndefiniteHeader(major Major) (Header, error) {
	if !major.indefiniteAllowed() || major == MajorEtc {
		return Header{}, notWellFormed("major %s is not an indefinite container", major)
	}
	return headerTable[major.highBits()|FormatIndefinite.lowBits()], nil
}

// CanonicalHeader picks the smallest format able to hold the unsigned
// argument. MajorEtc is restricted to simple values: arguments above 255
// do not fit, and 24..31 are reserved by RFC 7049.
func CanonicalHeader(major Major, value uint64) (Header, error) {
	format := CanonicalFormat(value)
	if format == FormatImmediate {
		return headerTable[major.highBits()|byte(value)], nil
	}
	if major == MajorEtc {
		if format != FormatByte {
			return Header{}, notWellFormed("value %d is too large for a simple value", value)
		}
		if value < 32 {
			return Header{}, notWellFormed("simple values 24..31 are reserved")
		}
	}
	return headerTable[major.highBits()|format.lowBits()], nil
}

// Byte returns the wire representation of the header.
func (h Header) Byte() byte { return h.b }

// Major returns the major type encoded in the top 3 bits.
func (h Header) Major() Major { return h.major }

// Format returns the additional-information format of the low 5 bits.
func (h Header) Format() InfoFormat { return h.format }

// LogicalType returns the derived classification, computed once when the
// header table was built.
func (h Header) LogicalType() LogicalType { return h.ltype }

// IsIndefinite reports the indefinite format, covering both container
// starts and the break.
func (h Header) IsIndefinite() bool { return h.format == FormatIndefinite }

func (h Header) String() string {
	return h.major.String() + "/" + h.format.String()
}

// immediateValue is the argument embedded in the header byte itself.
func (h Header) immediateValue() uint64 {
	return uint64(h.b & 0x1f)
}

// readValue consumes the trailing argument bytes mandated by the format
// and returns the raw unsigned argument. End of stream inside the value is
// a NotWellFormedError: the item has already started.
func (h Header) readValue(r io.Reader) (uint64, error) {
	n := h.format.valueBytes()
	if n == 0 {
		if h.format == FormatImmediate {
			return h.immediateValue(), nil
		}
		return 0, nil
	}
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:n]); err != nil {
		return 0, notWellFormed("stream ended inside a %d-byte value: %v", n, err)
	}
	switch n {
	case 1:
		return uint64(buf[0]), nil
	case 2:
		return uint64(binary.BigEndian.Uint16(buf[:2])), nil
	case 4:
		return uint64(binary.BigEndian.Uint32(buf[:4])), nil
	}
	return binary.BigEndian.Uint64(buf[:8]), nil
}

// writeValue emits the trailing argument bytes mandated by the format.
func (h Header) writeValue(w io.Writer, raw uint64) (int, error) {
	n := h.format.valueBytes()
	if n == 0 {
		return 0, nil
	}
	var buf [8]byte
	switch n {
	case 1:
		buf[0] = byte(raw)
	case 2:
		binary.BigEndian.PutUint16(buf[:2], uint16(raw))
	case 4:
		binary.BigEndian.PutUint32(buf[:4], uint32(raw))
	case 8:
		binary.BigEndian.PutUint64(buf[:8], raw)
	}
	return w.Write(buf[:n])
}
