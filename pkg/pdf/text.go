package pdf

import (
	"strings"

	lpdf "github.com/ledongthuc/pdf"

	"github.com/JaimeStill/shroud/pkg/document"
)

// Glyph boxes span from the descent to the ascent of the font, expressed as
// fractions of the font size.
const (
	glyphDescent = 0.2
	glyphAscent  = 0.8
)

// matrix is a PDF transformation matrix [a b c d e f].
type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

// mul returns m × n, the transform that applies m first and then n.
func (m matrix) mul(n matrix) matrix {
	return matrix{
		m[0]*n[0] + m[1]*n[2],
		m[0]*n[1] + m[1]*n[3],
		m[2]*n[0] + m[3]*n[2],
		m[2]*n[1] + m[3]*n[3],
		m[4]*n[0] + m[5]*n[2] + n[4],
		m[4]*n[1] + m[5]*n[3] + n[5],
	}
}

func (m matrix) apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

func translate(tx, ty float64) matrix {
	return matrix{1, 0, 0, 1, tx, ty}
}

// font holds what the interpreter needs from a font resource.
type font struct {
	codeLen  int
	decoder  lpdf.TextEncoding
	first    int
	widths   []float64
	cid      map[int]float64
	fallback float64
}

func loadFont(v lpdf.Value) *font {
	f := lpdf.Font{V: v}
	ft := &font{codeLen: 1, decoder: f.Encoder()}

	if v.Key("Subtype").Name() == "Type0" {
		ft.codeLen = 2
		ft.cid, ft.fallback = cidWidths(v.Key("DescendantFonts").Index(0))
		return ft
	}

	ft.first = f.FirstChar()
	ft.widths = f.Widths()
	ft.fallback = 500
	if strings.Contains(f.BaseFont(), "Courier") {
		ft.fallback = 600
	}
	return ft
}

// cidWidths reads the W array and DW default of a descendant CID font.
func cidWidths(desc lpdf.Value) (map[int]float64, float64) {
	dw := 1000.0
	if v := desc.Key("DW"); v.Kind() == lpdf.Integer || v.Kind() == lpdf.Real {
		dw = v.Float64()
	}

	widths := map[int]float64{}
	w := desc.Key("W")
	for i := 0; i < w.Len(); {
		start := int(w.Index(i).Int64())
		if i+1 >= w.Len() {
			break
		}
		next := w.Index(i + 1)
		if next.Kind() == lpdf.Array {
			for j := 0; j < next.Len(); j++ {
				widths[start+j] = next.Index(j).Float64()
			}
			i += 2
			continue
		}
		if i+2 >= w.Len() {
			break
		}
		end := int(next.Int64())
		width := w.Index(i + 2).Float64()
		for c := start; c <= end && c-start < 65536; c++ {
			widths[c] = width
		}
		i += 3
	}

	return widths, dw
}

func (f *font) width(code int) float64 {
	if f.cid != nil {
		if w, ok := f.cid[code]; ok {
			return w
		}
		return f.fallback
	}
	if i := code - f.first; i >= 0 && i < len(f.widths) && f.widths[i] > 0 {
		return f.widths[i]
	}
	return f.fallback
}

func (f *font) decode(code []byte) string {
	return f.decoder.Decode(string(code))
}

var defaultFont = &font{codeLen: 1, fallback: 500, decoder: nopDecoder{}}

type nopDecoder struct{}

func (nopDecoder) Decode(raw string) string { return raw }

// glyph is one rendered character code.
type glyph struct {
	code []byte
	text string
	// box is in default user space with the origin at the bottom-left.
	box document.Rect
	// advance is the horizontal displacement in thousandths of text space
	// units, including character and word spacing.
	advance float64
}

// element is a string or a positioning adjustment within a show operation.
type element struct {
	adjust   float64
	isAdjust bool
	glyphs   []glyph
}

type textState struct {
	ctm   matrix
	tm    matrix
	tlm   matrix
	font  *font
	tfs   float64
	tc    float64
	tw    float64
	th    float64
	tl    float64
	trise float64
}

// interpreter tracks graphics and text state across a content stream and
// reports the glyphs produced by every text showing operation.
type interpreter struct {
	fonts map[string]*font
	g     textState
	stack []textState
	// place, when set, receives every Do operator with the current CTM.
	place func(name string, ctm matrix)
}

func newInterpreter(fonts map[string]*font) *interpreter {
	return &interpreter{
		fonts: fonts,
		g:     textState{ctm: identity, tm: identity, tlm: identity, th: 1, font: defaultFont},
	}
}

// run interprets ops and calls visit for each Tj, TJ, ' and " operation.
func (in *interpreter) run(ops []operation, visit func(op operation, elems []element)) {
	for _, op := range ops {
		switch op.op {
		case "q":
			in.stack = append(in.stack, in.g)
		case "Q":
			if n := len(in.stack); n > 0 {
				in.g = in.stack[n-1]
				in.stack = in.stack[:n-1]
			}
		case "cm":
			if m, ok := matrixArg(op.args); ok {
				in.g.ctm = m.mul(in.g.ctm)
			}
		case "Do":
			if name, ok := firstName(op.args); ok && in.place != nil {
				in.place(name, in.g.ctm)
			}
		case "BT":
			in.g.tm = identity
			in.g.tlm = identity
		case "Tf":
			if len(op.args) == 2 {
				name, _ := op.args[0].(pdfName)
				if f, ok := in.fonts[string(name)]; ok {
					in.g.font = f
				} else {
					in.g.font = defaultFont
				}
				in.g.tfs = number(op.args[1])
			}
		case "Tc":
			if len(op.args) == 1 {
				in.g.tc = number(op.args[0])
			}
		case "Tw":
			if len(op.args) == 1 {
				in.g.tw = number(op.args[0])
			}
		case "Tz":
			if len(op.args) == 1 {
				in.g.th = number(op.args[0]) / 100
			}
		case "TL":
			if len(op.args) == 1 {
				in.g.tl = number(op.args[0])
			}
		case "Ts":
			if len(op.args) == 1 {
				in.g.trise = number(op.args[0])
			}
		case "Td", "TD":
			if len(op.args) == 2 {
				tx, ty := number(op.args[0]), number(op.args[1])
				if op.op == "TD" {
					in.g.tl = -ty
				}
				in.moveLine(tx, ty)
			}
		case "T*":
			in.moveLine(0, -in.g.tl)
		case "Tm":
			if m, ok := matrixArg(op.args); ok {
				in.g.tm = m
				in.g.tlm = m
			}
		case "Tj":
			if len(op.args) == 1 {
				visit(op, []element{in.showString(op.args[0])})
			}
		case "'":
			if len(op.args) == 1 {
				in.moveLine(0, -in.g.tl)
				visit(op, []element{in.showString(op.args[0])})
			}
		case "\"":
			if len(op.args) == 3 {
				in.g.tw = number(op.args[0])
				in.g.tc = number(op.args[1])
				in.moveLine(0, -in.g.tl)
				visit(op, []element{in.showString(op.args[2])})
			}
		case "TJ":
			if len(op.args) == 1 {
				arr, _ := op.args[0].([]any)
				elems := make([]element, 0, len(arr))
				for _, item := range arr {
					if s, ok := item.(pdfString); ok {
						elems = append(elems, in.showString(s))
						continue
					}
					n := number(item)
					in.g.tm = translate(-n/1000*in.g.tfs*in.g.th, 0).mul(in.g.tm)
					elems = append(elems, element{adjust: n, isAdjust: true})
				}
				visit(op, elems)
			}
		}
	}
}

func (in *interpreter) moveLine(tx, ty float64) {
	in.g.tlm = translate(tx, ty).mul(in.g.tlm)
	in.g.tm = in.g.tlm
}

func (in *interpreter) showString(arg any) element {
	s, _ := arg.(pdfString)
	g := &in.g
	f := g.font

	var glyphs []glyph
	for i := 0; i < len(s); i += f.codeLen {
		end := min(i+f.codeLen, len(s))
		code := s[i:end]

		c := 0
		for _, b := range code {
			c = c<<8 | int(b)
		}
		w0 := f.width(c)

		spacing := g.tc
		if f.codeLen == 1 && c == ' ' {
			spacing += g.tw
		}

		trm := matrix{g.tfs * g.th, 0, 0, g.tfs, 0, g.trise}.mul(g.tm).mul(g.ctm)

		advance := w0
		if g.tfs != 0 {
			advance += spacing * 1000 / g.tfs
		}

		glyphs = append(glyphs, glyph{
			code:    code,
			text:    f.decode(code),
			box:     glyphBox(trm, w0/1000),
			advance: advance,
		})

		tx := (w0/1000*g.tfs + spacing) * g.th
		g.tm = translate(tx, 0).mul(g.tm)
	}

	return element{glyphs: glyphs}
}

// glyphBox transforms the glyph cell [0,w]×[-descent,ascent] through trm and
// returns its bounding box.
func glyphBox(trm matrix, w float64) document.Rect {
	corners := [4][2]float64{
		{0, -glyphDescent},
		{w, -glyphDescent},
		{0, glyphAscent},
		{w, glyphAscent},
	}

	var r document.Rect
	for i, c := range corners {
		x, y := trm.apply(c[0], c[1])
		p := document.Rect{X0: x, Y0: y, X1: x, Y1: y}
		if i == 0 {
			r = p
			continue
		}
		r = r.Union(p)
	}
	return r
}

func matrixArg(args []any) (matrix, bool) {
	if len(args) != 6 {
		return matrix{}, false
	}
	var m matrix
	for i, a := range args {
		m[i] = number(a)
	}
	return m, true
}

func firstName(args []any) (string, bool) {
	if len(args) != 1 {
		return "", false
	}
	name, ok := args[0].(pdfName)
	return string(name), ok
}

func number(v any) float64 {
	if f, ok := v.(float64); ok {
		return f
	}
	return 0
}
