package cborstream

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/x448/float16"
)

// The fxamacker codec is the reference point for wire compatibility: what
// the generator emits must unmarshal there, and what it marshals must
// parse here.

var interopEncMode cbor.EncMode

func init() {
	opts := cbor.CoreDetEncOptions()
	em, err := opts.EncMode()
	if err != nil {
		panic(err)
	}
	interopEncMode = em
}

func TestGeneratorOutputUnmarshals(t *testing.T) {
	var buf bytes.Buffer
	g := NewGenerator(&buf)

	if err := g.WriteStartMap(3); err != nil {
		t.Fatal(err)
	}
	if err := g.WriteText("id"); err != nil {
		t.Fatal(err)
	}
	if err := g.WriteUint(42); err != nil {
		t.Fatal(err)
	}
	if err := g.WriteText("tags"); err != nil {
		t.Fatal(err)
	}
	if err := g.WriteStartArray(2); err != nil {
		t.Fatal(err)
	}
	if err := g.WriteText("a"); err != nil {
		t.Fatal(err)
	}
	if err := g.WriteText("b"); err != nil {
		t.Fatal(err)
	}
	if err := g.WriteText("score"); err != nil {
		t.Fatal(err)
	}
	if err := g.WriteFloat64(-1.25); err != nil {
		t.Fatal(err)
	}

	var got struct {
		ID    uint64   `cbor:"id"`
		Tags  []string `cbor:"tags"`
		Score float64  `cbor:"score"`
	}
	if err := cbor.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.ID != 42 || got.Score != -1.25 {
		t.Fatalf("decoded: %+v", got)
	}
	if !reflect.DeepEqual(got.Tags, []string{"a", "b"}) {
		t.Fatalf("decoded tags: %v", got.Tags)
	}
}

func TestGeneratorStreamOutputUnmarshals(t *testing.T) {
	// indefinite-length strings still decode as ordinary values there
	var buf bytes.Buffer
	g := NewGenerator(&buf)
	if err := g.WriteByteStream([][]byte{{1, 2}, {3, 4, 5}}); err != nil {
		t.Fatal(err)
	}

	var got []byte
	if err := cbor.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte{1, 2, 3, 4, 5}) {
		t.Fatalf("decoded chunked bytes: %x", got)
	}
}

func TestMarshaledValuesParse(t *testing.T) {
	data, err := interopEncMode.Marshal(map[string]any{
		"name": "interop",
		"n":    int64(-3),
	})
	if err != nil {
		t.Fatal(err)
	}

	p := NewParser(bytes.NewReader(data))
	pairs, err := p.ReadStartMap()
	if err != nil || pairs != 2 {
		t.Fatalf("map start: %d, %v", pairs, err)
	}
	got := map[string]int64{}
	texts := map[string]string{}
	for range pairs {
		key, err := p.ReadText()
		if err != nil {
			t.Fatal(err)
		}
		ev, err := p.Peek()
		if err != nil {
			t.Fatal(err)
		}
		if ev.Header().Major() == MajorTextString {
			s, err := p.ReadText()
			if err != nil {
				t.Fatal(err)
			}
			texts[key] = s
		} else {
			v, err := p.ReadInt64()
			if err != nil {
				t.Fatal(err)
			}
			got[key] = v
		}
	}
	if got["n"] != -3 || texts["name"] != "interop" {
		t.Fatalf("parsed: %v, %v", got, texts)
	}
	if more, err := p.HasNext(); err != nil || more {
		t.Fatalf("trailing events: %v, %v", more, err)
	}
}

func TestHalfFloatAgreesWithReference(t *testing.T) {
	// 1.5 fits binary16 exactly; the deterministic encoder shrinks it to
	// the f9 form our parser reads back at half width
	data, err := interopEncMode.Marshal(1.5)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, []byte{0xf9, 0x3e, 0x00}) {
		t.Fatalf("reference encoding of 1.5: %x", data)
	}

	p := NewParser(bytes.NewReader(data))
	h, err := p.ReadFloat16()
	if err != nil {
		t.Fatal(err)
	}
	if h != float16.Fromfloat32(1.5) {
		t.Fatalf("half float: %v", h)
	}

	var back float64
	if err := cbor.Unmarshal(encodeEvent(t, Float16(h)), &back); err != nil {
		t.Fatal(err)
	}
	if back != 1.5 {
		t.Fatalf("round trip through the reference codec: %v", back)
	}
}

func TestDiagnosticMatchesReferenceSemantics(t *testing.T) {
	// render what the reference codec emits and check the structure
	// survives, without pinning its exact spelling
	data, err := interopEncMode.Marshal([]any{uint64(1), "x", true})
	if err != nil {
		t.Fatal(err)
	}
	text, err := Diagnose(data)
	if err != nil {
		t.Fatal(err)
	}
	if text != `[1, "x", true]` {
		t.Fatalf("diagnostic of reference output: %s", text)
	}
}
