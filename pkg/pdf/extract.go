package pdf

import (
	"cmp"
	"math"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/JaimeStill/shroud/pkg/document"
)

const (
	// lineTolerance is the fraction of glyph height two glyph centers may
	// differ by and still share a line.
	lineTolerance = 0.4
	// spaceGap is the fraction of glyph height a horizontal gap must exceed
	// before a space is synthesized between glyphs.
	spaceGap = 0.25
)

// cell is one rune of extracted text and the page-space box it renders in.
type cell struct {
	r   rune
	box document.Rect
}

type line struct {
	cells []cell
	mid   float64
	h     float64
}

func (l *line) text() string {
	var b strings.Builder
	for _, c := range l.cells {
		b.WriteRune(c.r)
	}
	return b.String()
}

// pageFrame converts default user space to top-left page space.
type pageFrame struct {
	llx, lly, urx, ury float64
}

func (f pageFrame) size() (float64, float64) {
	return f.urx - f.llx, f.ury - f.lly
}

func (f pageFrame) toPage(r document.Rect) document.Rect {
	return document.Rect{
		X0: r.X0 - f.llx,
		Y0: f.ury - r.Y1,
		X1: r.X1 - f.llx,
		Y1: f.ury - r.Y0,
	}
}

func (f pageFrame) toUser(r document.Rect) document.Rect {
	return document.Rect{
		X0: r.X0 + f.llx,
		Y0: f.ury - r.Y1,
		X1: r.X1 + f.llx,
		Y1: f.ury - r.Y0,
	}
}

// extractLines runs the interpreter over ops and assembles the rendered
// glyphs into reading-order lines of NFKC-normalized runes.
func extractLines(ops []operation, fonts map[string]*font, frame pageFrame) []*line {
	var cells []cell
	newInterpreter(fonts).run(ops, func(_ operation, elems []element) {
		for _, e := range elems {
			for _, g := range e.glyphs {
				cells = append(cells, glyphCells(g, frame)...)
			}
		}
	})

	var lines []*line
	for _, c := range cells {
		mid := (c.box.Y0 + c.box.Y1) / 2
		h := c.box.Y1 - c.box.Y0

		idx := slices.IndexFunc(lines, func(l *line) bool {
			return math.Abs(l.mid-mid) <= lineTolerance*max(l.h, h)
		})
		if idx < 0 {
			lines = append(lines, &line{mid: mid, h: h})
			idx = len(lines) - 1
		}
		lines[idx].cells = append(lines[idx].cells, c)
	}

	slices.SortStableFunc(lines, func(a, b *line) int {
		return cmp.Compare(a.mid, b.mid)
	})
	for _, l := range lines {
		slices.SortStableFunc(l.cells, func(a, b cell) int {
			return cmp.Compare(a.box.X0, b.box.X0)
		})
		l.cells = spaceCells(l.cells)
	}

	return lines
}

// glyphCells expands a glyph into one cell per normalized rune, dividing the
// glyph box evenly so ligatures such as "ﬁ" map to two adjacent boxes.
func glyphCells(g glyph, frame pageFrame) []cell {
	text := norm.NFKC.String(g.text)
	text = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || r == utf8.RuneError {
			return -1
		}
		return r
	}, text)

	n := utf8.RuneCountInString(text)
	if n == 0 {
		return nil
	}

	box := frame.toPage(g.box)
	step := (box.X1 - box.X0) / float64(n)

	cells := make([]cell, 0, n)
	i := 0
	for _, r := range text {
		b := box
		b.X0 = box.X0 + float64(i)*step
		b.X1 = b.X0 + step
		cells = append(cells, cell{r: r, box: b})
		i++
	}
	return cells
}

// spaceCells inserts a space cell wherever consecutive glyphs are separated by
// a visible gap and neither side is already whitespace.
func spaceCells(cells []cell) []cell {
	if len(cells) < 2 {
		return cells
	}

	out := make([]cell, 0, len(cells))
	out = append(out, cells[0])
	for _, c := range cells[1:] {
		prev := out[len(out)-1]
		h := max(prev.box.Y1-prev.box.Y0, c.box.Y1-c.box.Y0)
		gap := c.box.X0 - prev.box.X1

		if gap > spaceGap*h && !unicode.IsSpace(prev.r) && !unicode.IsSpace(c.r) {
			out = append(out, cell{
				r: ' ',
				box: document.Rect{
					X0: prev.box.X1,
					Y0: min(prev.box.Y0, c.box.Y0),
					X1: c.box.X0,
					Y1: max(prev.box.Y1, c.box.Y1),
				},
			})
		}
		out = append(out, c)
	}
	return out
}

// findInLines returns the union box of every occurrence of s within a line.
func findInLines(lines []*line, s string) []document.Rect {
	s = norm.NFKC.String(s)
	if s == "" || strings.ContainsRune(s, '\n') {
		return nil
	}
	needle := utf8.RuneCountInString(s)

	var rects []document.Rect
	for _, l := range lines {
		text := l.text()
		offset := 0
		for {
			i := strings.Index(text[offset:], s)
			if i < 0 {
				break
			}
			start := utf8.RuneCountInString(text[:offset+i])

			box := l.cells[start].box
			for _, c := range l.cells[start+1 : start+needle] {
				box = box.Union(c.box)
			}
			rects = append(rects, box)

			offset += i + len(s)
		}
	}
	return rects
}
