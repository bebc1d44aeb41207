package layout

import (
	"encoding/json"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/JaimeStill/shroud/pkg/document"
)

// Provider opens layout documents.
type Provider struct{}

// NewProvider creates a layout provider.
func NewProvider() *Provider {
	return &Provider{}
}

func (p *Provider) Name() string { return "layout" }

func (p *Provider) Accepts(data []byte) bool {
	return looksLikeJSON(data)
}

func (p *Provider) Open(data []byte) (document.Document, error) {
	f, err := Parse(data)
	if err != nil {
		return nil, err
	}

	doc := &layoutDocument{pages: make([]*layoutPage, len(f.Pages))}
	for i := range f.Pages {
		doc.pages[i] = newPage(i, f.Pages[i])
	}
	return doc, nil
}

type layoutDocument struct {
	pages []*layoutPage
}

func (d *layoutDocument) Pages() []document.Page {
	pages := make([]document.Page, len(d.pages))
	for i, p := range d.pages {
		pages[i] = p
	}
	return pages
}

func (d *layoutDocument) ContentType() string { return ContentType }

func (d *layoutDocument) Bytes() ([]byte, error) {
	f := File{Format: Format, Pages: make([]PageData, len(d.pages))}
	for i, p := range d.pages {
		f.Pages[i] = p.snapshot()
	}
	return json.Marshal(f)
}

type layoutPage struct {
	index int
	text  string

	mu    sync.Mutex
	data  PageData
	marks []document.Rect
}

func newPage(index int, data PageData) *layoutPage {
	lines := make([]string, len(data.Runs))
	for i, r := range data.Runs {
		lines[i] = r.Text
	}

	return &layoutPage{
		index: index,
		text:  strings.Join(lines, "\n"),
		data:  data,
	}
}

func (p *layoutPage) Index() int { return p.index }

func (p *layoutPage) Size() (float64, float64) {
	return p.data.Width, p.data.Height
}

func (p *layoutPage) Text() string { return p.text }

func (p *layoutPage) FindOccurrences(s string) []document.Rect {
	if s == "" {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var rects []document.Rect
	for _, r := range p.data.Runs {
		offset := 0
		for {
			i := strings.Index(r.Text[offset:], s)
			if i < 0 {
				break
			}
			start := offset + i
			end := start + len(s)

			runeStart := utf8.RuneCountInString(r.Text[:start])
			runeEnd := runeStart + utf8.RuneCountInString(s)
			rects = append(rects, r.spanBox(runeStart, runeEnd))

			offset = end
		}
	}
	return rects
}

func (p *layoutPage) MarkRegion(r document.Rect) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.marks = append(p.marks, r.Normalize())
}

func (p *layoutPage) CommitMarks() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.marks) == 0 {
		return nil
	}

	runs := make([]Run, 0, len(p.data.Runs))
	for _, r := range p.data.Runs {
		runs = append(runs, redactRun(r, p.marks)...)
	}
	p.data.Runs = runs

	page := document.Rect{X1: p.data.Width, Y1: p.data.Height}
	for _, m := range p.marks {
		fill := m.Intersect(page)
		if fill.Empty() || slices.Contains(p.data.Fills, fill) {
			continue
		}
		p.data.Fills = append(p.data.Fills, fill)
	}

	p.marks = nil
	return nil
}

func (p *layoutPage) snapshot() PageData {
	p.mu.Lock()
	defer p.mu.Unlock()

	data := p.data
	data.Runs = slices.Clone(p.data.Runs)
	data.Fills = slices.Clone(p.data.Fills)
	return data
}

// redactRun drops every rune whose glyph box overlaps a mark and splits the
// run around the gaps so surviving text keeps its position.
func redactRun(r Run, marks []document.Rect) []Run {
	runes := []rune(r.Text)

	var (
		out     []Run
		segment []rune
		segIdx  int
	)

	flush := func() {
		if len(segment) > 0 {
			out = append(out, Run{
				X:    r.X + float64(segIdx)*r.advance(),
				Y:    r.Y,
				Size: r.Size,
				Text: string(segment),
			})
		}
		segment = nil
	}

	for i, ch := range runes {
		box := r.glyphBox(i)
		if slices.ContainsFunc(marks, box.Overlaps) {
			flush()
			continue
		}
		if len(segment) == 0 {
			segIdx = i
		}
		segment = append(segment, ch)
	}
	flush()

	return out
}
