package cborstream

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/x448/float16"
)

// MaxDiagnosticDepth bounds renderer recursion, which tracks input
// nesting. Deeper input fails with ErrDepthExceeded instead of exhausting
// the goroutine stack on adversarial data.
const MaxDiagnosticDepth = 128

// Diagnose renders a byte sequence as CBOR diagnostic notation. Multiple
// top-level items are joined with ", ".
func Diagnose(data []byte) (string, error) {
	var sb strings.Builder
	p := NewParser(bytes.NewReader(data))
	first := true
	for {
		more, err := p.HasNext()
		if err != nil {
			return "", err
		}
		if !more {
			return sb.String(), nil
		}
		if !first {
			sb.WriteString(", ")
		}
		first = false
		if err := WriteDiagnostic(&sb, p); err != nil {
			return "", err
		}
	}
}

// WriteDiagnostic consumes exactly one data item, children included, from
// p and writes its diagnostic rendering to w.
func WriteDiagnostic(w io.Writer, p *Parser) error {
	r := &renderer{p: p, out: &diagWriter{w: w}}
	if err := r.item(); err != nil {
		return err
	}
	return r.out.err
}

// diagWriter gives the recursive renderer write calls with a sticky error
// instead of an error return at every literal.
type diagWriter struct {
	w   io.Writer
	err error
}

func (dw *diagWriter) str(s string) {
	if dw.err == nil {
		_, dw.err = io.WriteString(dw.w, s)
	}
}

type renderer struct {
	p     *Parser
	out   *diagWriter
	depth int
}

// item consumes one complete data item and renders it. Containers and
// tags recurse, rebuilding nesting from the flat event stream.
func (r *renderer) item() error {
	if r.depth > MaxDiagnosticDepth {
		return ErrDepthExceeded
	}
	r.depth++
	defer func() { r.depth-- }()

	ev, err := r.p.Next()
	if err == io.EOF {
		return notWellFormed("event stream ended where a data item was expected")
	}
	if err != nil {
		return err
	}

	switch ev.Header().LogicalType() {
	case TypeIntegral:
		if ev.Header().Major() == MajorNegative {
			r.out.str(negativeDecimal(ev.RawValue()))
		} else {
			r.out.str(strconv.FormatUint(ev.RawValue(), 10))
		}
	case TypeBoolean:
		if v, _ := ev.Bool(); v {
			r.out.str("true")
		} else {
			r.out.str("false")
		}
	case TypeNull:
		r.out.str("null")
	case TypeUndefined:
		r.out.str("undefined")
	case TypeOtherSimple:
		r.out.str(fmt.Sprintf("simple(%d)", ev.RawValue()))
	case TypeHalfFloat:
		r.out.str(formatFloat(float64(float16.Frombits(uint16(ev.RawValue())).Float32()), 32))
	case TypeFloat:
		r.out.str(formatFloat(float64(math.Float32frombits(uint32(ev.RawValue()))), 32))
	case TypeDouble:
		r.out.str(formatFloat(math.Float64frombits(ev.RawValue()), 64))
	case TypeTag:
		r.out.str(strconv.FormatUint(ev.RawValue(), 10))
		r.out.str("(")
		if err := r.item(); err != nil {
			return err
		}
		r.out.str(")")
	case TypeStartArray:
		return r.array(ev.RawValue())
	case TypeStartIndefiniteArray:
		return r.indefiniteArray()
	case TypeStartMap:
		return r.definiteMap(ev.RawValue())
	case TypeStartIndefiniteMap:
		return r.indefiniteMap()
	case TypeBinaryChunk:
		r.out.str(quoteHex(ev.Bytes()))
	case TypeStartBinaryChunks:
		return r.chunks(MajorByteString)
	case TypeTextChunk:
		s, _ := ev.Text()
		r.out.str(escapeText(s))
	case TypeStartTextChunks:
		return r.chunks(MajorTextString)
	case TypeBreak:
		return &StructuralError{Reason: "break outside an indefinite container"}
	}
	return nil
}

func (r *renderer) array(count uint64) error {
	r.out.str("[")
	for i := uint64(0); i < count; i++ {
		if i > 0 {
			r.out.str(", ")
		}
		if err := r.item(); err != nil {
			return err
		}
	}
	r.out.str("]")
	return nil
}

func (r *renderer) indefiniteArray() error {
	r.out.str("[_ ")
	first := true
	for {
		stop, err := r.consumeBreakOrSeparate(&first)
		if err != nil {
			return err
		}
		if stop {
			r.out.str("]")
			return nil
		}
		if err := r.item(); err != nil {
			return err
		}
	}
}

func (r *renderer) definiteMap(pairs uint64) error {
	r.out.str("{")
	for i := uint64(0); i < pairs; i++ {
		if i > 0 {
			r.out.str(", ")
		}
		if err := r.pair(); err != nil {
			return err
		}
	}
	r.out.str("}")
	return nil
}

func (r *renderer) indefiniteMap() error {
	r.out.str("{_ ")
	first := true
	for {
		stop, err := r.consumeBreakOrSeparate(&first)
		if err != nil {
			return err
		}
		if stop {
			r.out.str("}")
			return nil
		}
		if err := r.pair(); err != nil {
			return err
		}
	}
}

func (r *renderer) pair() error {
	if err := r.item(); err != nil {
		return err
	}
	r.out.str(": ")
	return r.item()
}

// consumeBreakOrSeparate peeks inside an indefinite container: a break is
// consumed and ends the loop, anything else gets a separator written
// before it. Stream exhaustion before the break is a well-formedness
// error.
func (r *renderer) consumeBreakOrSeparate(first *bool) (stop bool, err error) {
	ev, err := r.p.Peek()
	if err == io.EOF {
		return false, notWellFormed("stream ended inside an indefinite container")
	}
	if err != nil {
		return false, err
	}
	if ev.IsBreak() {
		r.p.advance()
		return true, nil
	}
	if !*first {
		r.out.str(", ")
	}
	*first = false
	return false, nil
}

// chunks renders the body of an indefinite string, the start marker
// already consumed.
func (r *renderer) chunks(major Major) error {
	r.out.str("(_ ")
	first := true
	for {
		ev, err := r.p.Next()
		if err == io.EOF {
			return notWellFormed("stream ended inside an indefinite %s string", major)
		}
		if err != nil {
			return err
		}
		if ev.IsBreak() {
			r.out.str(")")
			return nil
		}
		if ev.Header().Major() != major || ev.IsIndefiniteStart() {
			return notWellFormed("%s inside an indefinite %s string", ev.Header(), major)
		}
		if !first {
			r.out.str(", ")
		}
		first = false
		if major == MajorTextString {
			s, _ := ev.Text()
			r.out.str(escapeText(s))
		} else {
			r.out.str(quoteHex(ev.Bytes()))
		}
	}
}

// negativeDecimal renders -(raw+1), which for raw 2^64-1 no longer fits in
// a uint64.
func negativeDecimal(raw uint64) string {
	if raw == math.MaxUint64 {
		v := new(big.Int).SetUint64(raw)
		v.Add(v, big.NewInt(1))
		return "-" + v.String()
	}
	return "-" + strconv.FormatUint(raw+1, 10)
}

func quoteHex(b []byte) string {
	return "h'" + hex.EncodeToString(b) + "'"
}

// escapeText quotes a text chunk. The named escapes cover backspace, form
// feed, newline, carriage return, tab and the quote; remaining control
// characters get a numeric escape.
func escapeText(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, ch := range s {
		switch ch {
		case 0x08:
			b.WriteString(`\b`)
		case 0x0c:
			b.WriteString(`\f`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '"':
			b.WriteString(`\"`)
		default:
			if ch < 0x20 {
				fmt.Fprintf(&b, `\u%04x`, ch)
			} else {
				b.WriteRune(ch)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

// formatFloat renders a float at its own width, keeping a decimal point
// so integral values still read as floats.
func formatFloat(v float64, bits int) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	s := strconv.FormatFloat(v, 'g', -1, bits)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
