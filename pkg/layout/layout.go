// Package layout implements a positioned-text document format and its page
// provider. A layout document is JSON: pages of text runs placed at explicit
// coordinates with a monospace advance of half the font size per rune. It is
// the interchange format for pre-extracted documents and the reference
// provider for the redaction pipeline.
package layout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/JaimeStill/shroud/pkg/document"
)

// Format is the value of the "format" field every layout document carries.
const Format = "shroud.layout/v1"

// ContentType is the media type of serialized layout documents.
const ContentType = "application/vnd.shroud.layout+json"

// AdvanceRatio is the horizontal advance of one rune relative to the run's font size.
const AdvanceRatio = 0.5

// File is the serialized form of a layout document.
type File struct {
	Format string     `json:"format"`
	Pages  []PageData `json:"pages"`
}

// PageData describes one page.
type PageData struct {
	Width  float64         `json:"width"`
	Height float64         `json:"height"`
	Runs   []Run           `json:"runs"`
	Fills  []document.Rect `json:"fills,omitempty"`
}

// Run is a single line of text. X and Y locate the top-left corner of the
// first glyph's box.
type Run struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Size float64 `json:"size"`
	Text string  `json:"text"`
}

// New creates an empty layout file.
func New() *File {
	return &File{Format: Format}
}

// AddPage appends a page of the given size and returns it for run placement.
func (f *File) AddPage(width, height float64) *PageData {
	f.Pages = append(f.Pages, PageData{Width: width, Height: height})
	return &f.Pages[len(f.Pages)-1]
}

// AddRun places text on the page.
func (p *PageData) AddRun(x, y, size float64, text string) *PageData {
	p.Runs = append(p.Runs, Run{X: x, Y: y, Size: size, Text: text})
	return p
}

// Marshal serializes the file.
func (f *File) Marshal() ([]byte, error) {
	return json.Marshal(f)
}

// Parse decodes and validates a serialized layout document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode layout: %w", err)
	}
	if f.Format != Format {
		return nil, fmt.Errorf("unexpected layout format %q", f.Format)
	}

	for i, p := range f.Pages {
		if p.Width <= 0 || p.Height <= 0 {
			return nil, fmt.Errorf("page %d: invalid size %gx%g", i+1, p.Width, p.Height)
		}
		for j, r := range p.Runs {
			if r.Size <= 0 {
				return nil, fmt.Errorf("page %d run %d: invalid font size %g", i+1, j, r.Size)
			}
			if !utf8.ValidString(r.Text) {
				return nil, fmt.Errorf("page %d run %d: invalid utf-8", i+1, j)
			}
		}
	}

	return &f, nil
}

func (r Run) advance() float64 {
	return r.Size * AdvanceRatio
}

// glyphBox returns the box of the rune at index i within the run.
func (r Run) glyphBox(i int) document.Rect {
	adv := r.advance()
	return document.Rect{
		X0: r.X + float64(i)*adv,
		Y0: r.Y,
		X1: r.X + float64(i+1)*adv,
		Y1: r.Y + r.Size,
	}
}

// spanBox returns the box covering runes [start, end) of the run.
func (r Run) spanBox(start, end int) document.Rect {
	return r.glyphBox(start).Union(r.glyphBox(end - 1))
}

func looksLikeJSON(data []byte) bool {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '{'
}
