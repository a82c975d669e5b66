package cborstream

import (
	"bytes"
	"errors"
	"testing"
)

func TestHeaderTableWellFormedCount(t *testing.T) {
	valid := 0
	for i := range 256 {
		if _, err := HeaderFromByte(byte(i)); err == nil {
			valid++
		}
	}
	// 256 minus 3 reserved info encodings per major (24) minus indefinite
	// on majors 0, 1 and 6 (3)
	if valid != 229 {
		t.Fatalf("well-formed header bytes: got %d, want 229", valid)
	}
}

func TestHeaderFromByteReserved(t *testing.T) {
	for _, b := range []byte{0x1c, 0x1d, 0x1e, 0x3c, 0xfc, 0xfe} {
		_, err := HeaderFromByte(b)
		var nwf *NotWellFormedError
		if !errors.As(err, &nwf) {
			t.Fatalf("byte 0x%02x: got %v, want NotWellFormedError", b, err)
		}
	}
	for _, b := range []byte{0x1f, 0x3f, 0xdf} {
		if _, err := HeaderFromByte(b); err == nil {
			t.Fatalf("byte 0x%02x: indefinite is not legal for this major", b)
		}
	}
}

func TestHeaderFields(t *testing.T) {
	h, err := HeaderFromByte(0x38)
	if err != nil {
		t.Fatal(err)
	}
	if h.Major() != MajorNegative || h.Format() != FormatByte {
		t.Fatalf("0x38 decoded as %s", h)
	}
	if h.LogicalType() != TypeIntegral {
		t.Fatalf("0x38 logical type: %s", h.LogicalType())
	}

	h, err = HeaderFromByte(0xff)
	if err != nil {
		t.Fatal(err)
	}
	if h.LogicalType() != TypeBreak || !h.IsIndefinite() {
		t.Fatalf("0xff decoded as %s/%s", h, h.LogicalType())
	}
}

func TestCanonicalFormatBoundaries(t *testing.T) {
	cases := []struct {
		value uint64
		want  InfoFormat
	}{
		{0, FormatImmediate},
		{23, FormatImmediate},
		{24, FormatByte},
		{255, FormatByte},
		{256, FormatShort},
		{65535, FormatShort},
		{65536, FormatInt},
		{1<<32 - 1, FormatInt},
		{1 << 32, FormatLong},
		{1 << 63, FormatLong},
		{^uint64(0), FormatLong},
	}
	for _, c := range cases {
		if got := CanonicalFormat(c.value); got != c.want {
			t.Fatalf("CanonicalFormat(%d): got %s, want %s", c.value, got, c.want)
		}
	}
}

func TestCanonicalHeaderEtcRestrictions(t *testing.T) {
	if _, err := CanonicalHeader(MajorEtc, 24); err == nil {
		t.Fatal("simple value 24 must be rejected")
	}
	if _, err := CanonicalHeader(MajorEtc, 31); err == nil {
		t.Fatal("simple value 31 must be rejected")
	}
	if _, err := CanonicalHeader(MajorEtc, 300); err == nil {
		t.Fatal("simple values above 255 must be rejected")
	}
	h, err := CanonicalHeader(MajorEtc, 32)
	if err != nil {
		t.Fatal(err)
	}
	if h.Byte() != 0xf8 {
		t.Fatalf("simple 32 header: got 0x%02x, want 0xf8", h.Byte())
	}
}

func TestHeaderFactoryValidation(t *testing.T) {
	if _, err := ImmediateHeader(MajorUnsigned, 24); err == nil {
		t.Fatal("immediate 24 must be rejected")
	}
	if _, err := HeaderForFormat(MajorUnsigned, FormatImmediate); err == nil {
		t.Fatal("immediate format needs the immediate factory")
	}
	if _, err := HeaderForFormat(MajorTag, FormatIndefinite); err == nil {
		t.Fatal("tags have no indefinite form")
	}
	if _, err := IndefiniteHeader(MajorUnsigned); err == nil {
		t.Fatal("unsigned integers have no indefinite form")
	}
	if _, err := IndefiniteHeader(MajorEtc); err == nil {
		t.Fatal("bare major 7 indefinite is break, not a container start")
	}

	h, err := HeaderForFormat(MajorUnsigned, FormatLong)
	if err != nil {
		t.Fatal(err)
	}
	if h.Byte() != 0x1b {
		t.Fatalf("unsigned/long header: got 0x%02x, want 0x1b", h.Byte())
	}
}

func TestReadValueTruncated(t *testing.T) {
	h, err := HeaderFromByte(0x19) // unsigned, two trailing bytes
	if err != nil {
		t.Fatal(err)
	}
	_, err = h.readValue(bytes.NewReader([]byte{0x01}))
	var nwf *NotWellFormedError
	if !errors.As(err, &nwf) {
		t.Fatalf("truncated value: got %v, want NotWellFormedError", err)
	}
	_, err = h.readValue(bytes.NewReader(nil))
	if !errors.As(err, &nwf) {
		t.Fatalf("missing value: got %v, want NotWellFormedError", err)
	}
}

func TestReadValueWidths(t *testing.T) {
	cases := []struct {
		lead byte
		rest []byte
		want uint64
	}{
		{0x17, nil, 23},
		{0x18, []byte{0x18}, 24},
		{0x19, []byte{0x03, 0xe8}, 1000},
		{0x1a, []byte{0x00, 0x0f, 0x42, 0x40}, 1000000},
		{0x1b, []byte{0x00, 0x00, 0x00, 0xe8, 0xd4, 0xa5, 0x10, 0x00}, 1000000000000},
		{0x5f, nil, 0},
	}
	for _, c := range cases {
		h, err := HeaderFromByte(c.lead)
		if err != nil {
			t.Fatal(err)
		}
		got, err := h.readValue(bytes.NewReader(c.rest))
		if err != nil {
			t.Fatalf("0x%02x: %v", c.lead, err)
		}
		if got != c.want {
			t.Fatalf("0x%02x: got %d, want %d", c.lead, got, c.want)
		}
	}
}

func TestWriteValueRoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 23, 24, 255, 256, 65535, 65536, 1<<32 - 1, 1 << 32, ^uint64(0)} {
		h, err := CanonicalHeader(MajorUnsigned, v)
		if err != nil {
			t.Fatal(err)
		}
		var buf bytes.Buffer
		if _, err := h.writeValue(&buf, v); err != nil {
			t.Fatal(err)
		}
		got, err := h.readValue(bytes.NewReader(buf.Bytes()))
		if err != nil {
			t.Fatal(err)
		}
		if got != v {
			t.Fatalf("round trip of %d through %s: got %d", v, h, got)
		}
	}
}
