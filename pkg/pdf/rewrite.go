package pdf

import (
	"bytes"
	"encoding/hex"
	"slices"
	"strconv"

	"github.com/JaimeStill/shroud/pkg/document"
)

// redactContent returns a content stream equivalent to content with every
// glyph overlapping a mark removed and an opaque black fill painted over each
// mark. Marks are in default user space. Removed glyphs are replaced by TJ
// positioning adjustments so surviving text keeps its placement.
func redactContent(content []byte, ops []operation, fonts map[string]*font, marks []document.Rect) []byte {
	var out bytes.Buffer
	out.WriteString("q\n")

	last := 0
	newInterpreter(fonts).run(ops, func(op operation, elems []element) {
		if !hitsAny(elems, marks) {
			return
		}

		out.Write(content[last:op.start])
		writeReplacement(&out, op, elems, marks)
		last = op.end
	})
	out.Write(content[last:])

	out.WriteString("\nQ\n")
	for _, m := range marks {
		out.WriteString("q 0 0 0 rg ")
		writeNumbers(&out, m.X0, m.Y0, m.X1-m.X0, m.Y1-m.Y0)
		out.WriteString(" re f Q\n")
	}

	return out.Bytes()
}

func hitsAny(elems []element, marks []document.Rect) bool {
	for _, e := range elems {
		for _, g := range e.glyphs {
			if removed(g, marks) {
				return true
			}
		}
	}
	return false
}

func removed(g glyph, marks []document.Rect) bool {
	return slices.ContainsFunc(marks, g.box.Overlaps)
}

func writeReplacement(out *bytes.Buffer, op operation, elems []element, marks []document.Rect) {
	switch op.op {
	case "'":
		out.WriteString("T* ")
	case "\"":
		writeNumbers(out, number(op.args[0]))
		out.WriteString(" Tw ")
		writeNumbers(out, number(op.args[1]))
		out.WriteString(" Tc T* ")
	}

	var (
		pending float64
		codes   []byte
	)

	out.WriteByte('[')
	flushCodes := func() {
		if len(codes) > 0 {
			out.WriteByte('<')
			out.WriteString(hex.EncodeToString(codes))
			out.WriteByte('>')
			codes = nil
		}
	}
	flushAdjust := func() {
		if pending != 0 {
			out.WriteByte(' ')
			writeNumbers(out, pending)
			out.WriteByte(' ')
			pending = 0
		}
	}

	for _, e := range elems {
		if e.isAdjust {
			flushCodes()
			pending += e.adjust
			continue
		}
		for _, g := range e.glyphs {
			if removed(g, marks) {
				flushCodes()
				pending -= g.advance
				continue
			}
			flushAdjust()
			codes = append(codes, g.code...)
		}
	}
	flushCodes()
	flushAdjust()
	out.WriteString("] TJ")
}

func writeNumbers(out *bytes.Buffer, vals ...float64) {
	for i, v := range vals {
		if i > 0 {
			out.WriteByte(' ')
		}
		out.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
	}
}
