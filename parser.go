package cborstream

import (
	"io"
	"iter"

	"github.com/x448/float16"
)

// Parser is a pull-based event cursor over a byte source with exactly one
// event of lookahead and no backtracking. It is owned by a single caller;
// no locking is performed.
//
// Typed readers follow a peek, validate, extract, advance discipline: on a
// type mismatch the cursor does not move, so the same event can be retried
// through a different reader. Any NotWellFormedError or transport failure
// leaves the stream position undefined.
type Parser struct {
	src   io.Reader
	ahead *DataEvent
}

// NewParser returns a parser reading events from r.
func NewParser(r io.Reader) *Parser {
	return &Parser{src: r}
}

// HasNext stages the next event if the lookahead slot is empty. It returns
// false only at a genuine end of stream; decode errors propagate.
func (p *Parser) HasNext() (bool, error) {
	if p.ahead != nil {
		return true, nil
	}
	ev, err := ReadEvent(p.src)
	if err == io.EOF {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	p.ahead = ev
	return true, nil
}

// Peek returns the staged event without consuming it, decoding on demand.
// At end of stream it returns io.EOF.
func (p *Parser) Peek() (*DataEvent, error) {
	if p.ahead == nil {
		ev, err := ReadEvent(p.src)
		if err != nil {
			return nil, err
		}
		p.ahead = ev
	}
	return p.ahead, nil
}

// Next returns the next event and clears the lookahead slot, decoding on
// demand. At end of stream it returns io.EOF.
func (p *Parser) Next() (*DataEvent, error) {
	ev, err := p.Peek()
	if err != nil {
		return nil, err
	}
	p.ahead = nil
	return ev, nil
}

// Events iterates the remaining events. Iteration stops after the first
// error; a clean end of stream yields no error at all.
func (p *Parser) Events() iter.Seq2[*DataEvent, error] {
	return func(yield func(*DataEvent, error) bool) {
		for {
			ev, err := p.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(ev, nil) {
				return
			}
		}
	}
}

// ReadBool consumes a boolean event.
func (p *Parser) ReadBool() (bool, error) {
	ev, err := p.Peek()
	if err != nil {
		return false, err
	}
	v, err := ev.Bool()
	if err != nil {
		return false, err
	}
	p.advance()
	return v, nil
}

// ReadNull consumes a null event.
func (p *Parser) ReadNull() error {
	return p.readSingleton(eventNull, TypeNull)
}

// ReadUndefined consumes an undefined event.
func (p *Parser) ReadUndefined() error {
	return p.readSingleton(eventUndefined, TypeUndefined)
}

// ReadBreak consumes a break event.
func (p *Parser) ReadBreak() error {
	return p.readSingleton(eventBreak, TypeBreak)
}

// ReadSimpleValue consumes any major-7 simple value, including the four
// well-known ones, and returns its number.
func (p *Parser) ReadSimpleValue() (uint8, error) {
	ev, err := p.Peek()
	if err != nil {
		return 0, err
	}
	switch ev.Header().LogicalType() {
	case TypeOtherSimple, TypeBoolean, TypeNull, TypeUndefined:
		p.advance()
		return uint8(ev.RawValue()), nil
	}
	return 0, &TypeError{Header: ev.Header(), WantTypes: []LogicalType{
		TypeOtherSimple, TypeBoolean, TypeNull, TypeUndefined,
	}}
}

// ReadInt32 consumes an integer event of either sign as int32.
func (p *Parser) ReadInt32() (int32, error) {
	ev, err := p.peekMajor(MajorUnsigned, MajorNegative)
	if err != nil {
		return 0, err
	}
	v, err := ev.Int32()
	if err != nil {
		return 0, err
	}
	p.advance()
	return v, nil
}

// ReadInt64 consumes an integer event of either sign as int64.
func (p *Parser) ReadInt64() (int64, error) {
	ev, err := p.peekMajor(MajorUnsigned, MajorNegative)
	if err != nil {
		return 0, err
	}
	v, err := ev.Int64()
	if err != nil {
		return 0, err
	}
	p.advance()
	return v, nil
}

// ReadUint64 consumes an unsigned integer event.
func (p *Parser) ReadUint64() (uint64, error) {
	ev, err := p.peekMajor(MajorUnsigned)
	if err != nil {
		return 0, err
	}
	p.advance()
	return ev.RawValue(), nil
}

// ReadTag consumes a tag event and returns the tag number. The tag's
// single child item is left on the stream.
func (p *Parser) ReadTag() (uint64, error) {
	ev, err := p.peekMajor(MajorTag)
	if err != nil {
		return 0, err
	}
	p.advance()
	return ev.RawValue(), nil
}

// ReadFloat16 consumes a binary16 event.
func (p *Parser) ReadFloat16() (float16.Float16, error) {
	ev, err := p.Peek()
	if err != nil {
		return 0, err
	}
	v, err := ev.Float16()
	if err != nil {
		return 0, err
	}
	p.advance()
	return v, nil
}

// ReadFloat32 consumes a binary32 event.
func (p *Parser) ReadFloat32() (float32, error) {
	ev, err := p.Peek()
	if err != nil {
		return 0, err
	}
	v, err := ev.Float32()
	if err != nil {
		return 0, err
	}
	p.advance()
	return v, nil
}

// ReadFloat64 consumes a binary64 event.
func (p *Parser) ReadFloat64() (float64, error) {
	ev, err := p.Peek()
	if err != nil {
		return 0, err
	}
	v, err := ev.Float64()
	if err != nil {
		return 0, err
	}
	p.advance()
	return v, nil
}

// ReadStartArray consumes a definite array start and returns the item
// count.
func (p *Parser) ReadStartArray() (int64, error) {
	return p.readStart(MajorArray, false)
}

// ReadStartIndefiniteArray consumes an indefinite array start.
func (p *Parser) ReadStartIndefiniteArray() error {
	_, err := p.readStart(MajorArray, true)
	return err
}

// ReadStartMap consumes a definite map start and returns the pair count.
func (p *Parser) ReadStartMap() (int64, error) {
	return p.readStart(MajorMap, false)
}

// ReadStartIndefiniteMap consumes an indefinite map start.
func (p *Parser) ReadStartIndefiniteMap() error {
	_, err := p.readStart(MajorMap, true)
	return err
}

// ReadBytes consumes a definite byte string, or a whole chunked byte
// string up to and including its break, concatenating the chunks.
func (p *Parser) ReadBytes() ([]byte, error) {
	return CollectChunks(p, MajorByteString, []byte{},
		func(acc, chunk []byte) []byte { return append(acc, chunk...) })
}

// ReadText consumes a definite text string or a whole chunked text string,
// concatenating the chunks.
func (p *Parser) ReadText() (string, error) {
	b, err := CollectChunks(p, MajorTextString, []byte{},
		func(acc, chunk []byte) []byte { return append(acc, chunk...) })
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CollectChunks folds string payloads into an accumulator. A definite
// chunk is folded once. A start-of-indefinite marker triggers consumption
// of same-major definite chunk events until a break is found and consumed;
// any other event before the break, or stream exhaustion, is a
// NotWellFormedError. The initial major mismatch is non-consuming.
func CollectChunks[A any](p *Parser, major Major, seed A, fold func(A, []byte) A) (A, error) {
	var zero A
	if !major.carriesPayload() {
		return zero, notWellFormed("major %s has no chunks to collect", major)
	}
	ev, err := p.Peek()
	if err != nil {
		return zero, err
	}
	if ev.Header().Major() != major {
		return zero, &TypeError{Header: ev.Header(), WantMajors: []Major{major}}
	}
	if !ev.IsIndefiniteStart() {
		p.advance()
		return fold(seed, ev.Bytes()), nil
	}
	p.advance()
	acc := seed
	for {
		ev, err := p.Next()
		if err == io.EOF {
			return zero, notWellFormed("stream ended inside an indefinite %s string", major)
		}
		if err != nil {
			return zero, err
		}
		if ev.IsBreak() {
			return acc, nil
		}
		if ev.Header().Major() != major || ev.IsIndefiniteStart() {
			return zero, notWellFormed("%s inside an indefinite %s string", ev.Header(), major)
		}
		acc = fold(acc, ev.Bytes())
	}
}

// advance drops the already validated lookahead event.
func (p *Parser) advance() {
	p.ahead = nil
}

func (p *Parser) peekMajor(want ...Major) (*DataEvent, error) {
	ev, err := p.Peek()
	if err != nil {
		return nil, err
	}
	for _, m := range want {
		if ev.Header().Major() == m {
			return ev, nil
		}
	}
	return nil, &TypeError{Header: ev.Header(), WantMajors: want}
}

func (p *Parser) readSingleton(want *DataEvent, ltype LogicalType) error {
	ev, err := p.Peek()
	if err != nil {
		return err
	}
	if ev != want {
		return &TypeError{Header: ev.Header(), WantTypes: []LogicalType{ltype}}
	}
	p.advance()
	return nil
}

func (p *Parser) readStart(major Major, indefinite bool) (int64, error) {
	want := TypeStartArray
	switch {
	case major == MajorArray && indefinite:
		want = TypeStartIndefiniteArray
	case major == MajorMap && !indefinite:
		want = TypeStartMap
	case major == MajorMap && indefinite:
		want = TypeStartIndefiniteMap
	}
	ev, err := p.Peek()
	if err != nil {
		return 0, err
	}
	if ev.Header().LogicalType() != want {
		return 0, &TypeError{Header: ev.Header(), WantTypes: []LogicalType{want}}
	}
	n, err := ev.Count()
	if err != nil {
		return 0, err
	}
	p.advance()
	return n, nil
}
