// Package pdf implements the document provider for PDF files.
//
// Text and glyph geometry are extracted with github.com/ledongthuc/pdf while
// the document object graph is held by pdfcpu, which rewrites page content
// streams on commit and serializes the result. Committing marks removes the
// glyph codes that render inside a marked region from the content stream
// itself before painting an opaque fill, so the text cannot be recovered by
// extraction from the output.
//
// Text inside form XObjects is neither extracted nor removed; it remains
// covered by the fill. Pages report such regions through
// document.ResidualReporter so callers can flag marks that overlap them.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	lpdf "github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/JaimeStill/shroud/pkg/document"
)

// ContentType is the media type of PDF documents.
const ContentType = "application/pdf"

var (
	// ErrMalformed indicates the PDF could not be parsed.
	ErrMalformed = errors.New("malformed pdf")
	// ErrPageCount indicates the two readers disagree about the page tree.
	ErrPageCount = errors.New("inconsistent page count")
)

// Provider opens PDF documents.
type Provider struct {
	conf *model.Configuration
}

// NewProvider creates a PDF provider using pdfcpu's default configuration in
// relaxed validation mode.
func NewProvider() *Provider {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return &Provider{conf: conf}
}

func (p *Provider) Name() string { return "pdf" }

func (p *Provider) Accepts(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-"))
}

func (p *Provider) Open(data []byte) (doc document.Document, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = fmt.Errorf("%w: %v", ErrMalformed, r)
		}
	}()

	ctx, err := api.ReadContext(bytes.NewReader(data), p.conf)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	reader, err := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	count := reader.NumPage()
	if count != ctx.PageCount {
		return nil, fmt.Errorf("%w: %d != %d", ErrPageCount, count, ctx.PageCount)
	}

	d := &pdfDocument{ctx: ctx, pages: make([]*pdfPage, count)}
	for i := range count {
		page, err := loadPage(d, reader.Page(i+1), i)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i+1, err)
		}
		d.pages[i] = page
	}

	return d, nil
}

type pdfDocument struct {
	mu    sync.Mutex
	ctx   *model.Context
	pages []*pdfPage
	dirty bool
	out   []byte
}

func (d *pdfDocument) Pages() []document.Page {
	pages := make([]document.Page, len(d.pages))
	for i, p := range d.pages {
		pages[i] = p
	}
	return pages
}

func (d *pdfDocument) ContentType() string { return ContentType }

func (d *pdfDocument) Bytes() (out []byte, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.out != nil && !d.dirty {
		return d.out, nil
	}

	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("write pdf: %v", r)
		}
	}()

	var buf bytes.Buffer
	if err := api.WriteContext(d.ctx, &buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}

	d.out = buf.Bytes()
	d.dirty = false
	return d.out, nil
}

func loadPage(d *pdfDocument, p lpdf.Page, index int) (*pdfPage, error) {
	if p.V.IsNull() {
		return nil, errors.New("page not found")
	}

	frame, err := mediaBox(p)
	if err != nil {
		return nil, err
	}

	content, err := pageContent(p)
	if err != nil {
		return nil, err
	}

	ops, err := parseContent(content)
	if err != nil {
		return nil, err
	}

	fonts := pageFonts(p, ops)

	return &pdfPage{
		doc:     d,
		index:   index,
		frame:   frame,
		content: content,
		ops:     ops,
		fonts:   fonts,
		lines:   extractLines(ops, fonts, frame),
		forms:   formRegions(p, ops, fonts, frame),
	}, nil
}

func inherited(p lpdf.Page, key string) lpdf.Value {
	for v := p.V; !v.IsNull(); v = v.Key("Parent") {
		if r := v.Key(key); !r.IsNull() {
			return r
		}
	}
	return lpdf.Value{}
}

func mediaBox(p lpdf.Page) (pageFrame, error) {
	box := inherited(p, "MediaBox")
	if box.Kind() != lpdf.Array || box.Len() != 4 {
		return pageFrame{}, errors.New("missing media box")
	}

	f := pageFrame{
		llx: min(box.Index(0).Float64(), box.Index(2).Float64()),
		lly: min(box.Index(1).Float64(), box.Index(3).Float64()),
		urx: max(box.Index(0).Float64(), box.Index(2).Float64()),
		ury: max(box.Index(1).Float64(), box.Index(3).Float64()),
	}
	if f.urx <= f.llx || f.ury <= f.lly {
		return pageFrame{}, errors.New("empty media box")
	}
	return f, nil
}

// pageContent concatenates the decoded content streams of a page.
func pageContent(p lpdf.Page) ([]byte, error) {
	contents := p.V.Key("Contents")

	var streams []lpdf.Value
	switch contents.Kind() {
	case lpdf.Null:
		return nil, nil
	case lpdf.Stream:
		streams = append(streams, contents)
	case lpdf.Array:
		for i := 0; i < contents.Len(); i++ {
			streams = append(streams, contents.Index(i))
		}
	default:
		return nil, fmt.Errorf("unexpected contents kind %v", contents.Kind())
	}

	var buf bytes.Buffer
	for _, s := range streams {
		rc := s.Reader()
		_, err := io.Copy(&buf, rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("decode content stream: %w", err)
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// pageFonts loads every font resource selected by a Tf operator.
func pageFonts(p lpdf.Page, ops []operation) map[string]*font {
	resources := p.Resources().Key("Font")
	fonts := map[string]*font{}
	for _, op := range ops {
		if op.op != "Tf" || len(op.args) != 2 {
			continue
		}
		name, ok := op.args[0].(pdfName)
		if !ok {
			continue
		}
		if _, seen := fonts[string(name)]; seen {
			continue
		}
		if v := resources.Key(string(name)); !v.IsNull() {
			fonts[string(name)] = loadFont(v)
		}
	}
	return fonts
}
