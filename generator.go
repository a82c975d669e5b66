package cborstream

import (
	"io"

	"github.com/x448/float16"
)

// Generator pushes events to a byte sink. It is stateless and performs no
// nesting validation: producing an unmatched break or a wrong declared
// count is the caller's responsibility, symmetric with the parser treating
// input as untrusted. Every call is O(1) with no hidden buffering.
type Generator struct {
	w io.Writer
}

// NewGenerator returns a generator writing events to w.
func NewGenerator(w io.Writer) *Generator {
	return &Generator{w: w}
}

// Next writes one event.
func (g *Generator) Next(ev *DataEvent) error {
	_, err := ev.WriteTo(g.w)
	return err
}

func (g *Generator) WriteBool(v bool) error {
	return g.Next(Bool(v))
}

func (g *Generator) WriteNull() error {
	return g.Next(Null())
}

func (g *Generator) WriteUndefined() error {
	return g.Next(Undefined())
}

// WriteSimpleValue writes a major-7 simple value; 24..31 are rejected.
func (g *Generator) WriteSimpleValue(value uint8) error {
	ev, err := Simple(value)
	if err != nil {
		return err
	}
	return g.Next(ev)
}

func (g *Generator) WriteInt(v int64) error {
	return g.Next(Int(v))
}

func (g *Generator) WriteUint(v uint64) error {
	return g.Next(Uint(v))
}

// WriteNegUint writes the negative integer -(v+1).
func (g *Generator) WriteNegUint(v uint64) error {
	return g.Next(NegUint(v))
}

func (g *Generator) WriteBytes(b []byte) error {
	return g.Next(BytesChunk(b))
}

func (g *Generator) WriteText(s string) error {
	return g.Next(TextChunk(s))
}

// WriteByteStream writes the chunks between a start-indefinite marker and
// a break, one chunk event per input element. Chunk boundaries are the
// caller's.
func (g *Generator) WriteByteStream(chunks [][]byte) error {
	if err := g.Next(StartIndefiniteBytes()); err != nil {
		return err
	}
	for _, chunk := range chunks {
		if err := g.Next(BytesChunk(chunk)); err != nil {
			return err
		}
	}
	return g.Next(Break())
}

// WriteTextStream writes the chunks between a start-indefinite marker and
// a break, one chunk event per input element.
func (g *Generator) WriteTextStream(chunks []string) error {
	if err := g.Next(StartIndefiniteText()); err != nil {
		return err
	}
	for _, chunk := range chunks {
		if err := g.Next(TextChunk(chunk)); err != nil {
			return err
		}
	}
	return g.Next(Break())
}

func (g *Generator) WriteFloat16(f float16.Float16) error {
	return g.Next(Float16(f))
}

func (g *Generator) WriteFloat32(f float32) error {
	return g.Next(Float32(f))
}

func (g *Generator) WriteFloat64(f float64) error {
	return g.Next(Float64(f))
}

// WriteTag writes a tag header; the caller must follow with exactly one
// child item.
func (g *Generator) WriteTag(tag uint64) error {
	return g.Next(Tag(tag))
}

func (g *Generator) WriteStartArray(n uint64) error {
	return g.Next(StartArray(n))
}

func (g *Generator) WriteStartIndefiniteArray() error {
	return g.Next(StartIndefiniteArray())
}

func (g *Generator) WriteStartMap(pairs uint64) error {
	return g.Next(StartMap(pairs))
}

func (g *Generator) WriteStartIndefiniteMap() error {
	return g.Next(StartIndefiniteMap())
}

func (g *Generator) WriteBreak() error {
	return g.Next(Break())
}
