package pdf

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/filter"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/JaimeStill/shroud/pkg/document"
)

type pdfPage struct {
	doc     *pdfDocument
	index   int
	frame   pageFrame
	content []byte
	ops     []operation
	fonts   map[string]*font
	lines   []*line
	forms   []document.Rect

	textOnce sync.Once
	text     string

	mu    sync.Mutex
	marks []document.Rect
}

func (p *pdfPage) Index() int { return p.index }

func (p *pdfPage) Size() (float64, float64) {
	return p.frame.size()
}

func (p *pdfPage) Text() string {
	p.textOnce.Do(func() {
		texts := make([]string, len(p.lines))
		for i, l := range p.lines {
			texts[i] = l.text()
		}
		p.text = strings.Join(texts, "\n")
	})
	return p.text
}

func (p *pdfPage) FindOccurrences(s string) []document.Rect {
	return findInLines(p.lines, s)
}

// Residual returns the form XObject regions overlapping r.
func (p *pdfPage) Residual(r document.Rect) []document.Rect {
	r = r.Normalize()
	var out []document.Rect
	for _, f := range p.forms {
		if f.Overlaps(r) {
			out = append(out, f)
		}
	}
	return out
}

func (p *pdfPage) MarkRegion(r document.Rect) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.marks = append(p.marks, r.Normalize())
}

func (p *pdfPage) CommitMarks() (err error) {
	p.mu.Lock()
	marks := p.marks
	p.marks = nil
	p.mu.Unlock()

	if len(marks) == 0 {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("commit page %d: %v", p.index+1, r)
		}
	}()

	page := document.Rect{X1: p.frame.urx - p.frame.llx, Y1: p.frame.ury - p.frame.lly}
	user := make([]document.Rect, 0, len(marks))
	for _, m := range marks {
		clipped := m.Intersect(page)
		if clipped.Empty() {
			continue
		}
		user = append(user, p.frame.toUser(clipped))
	}
	if len(user) == 0 {
		return nil
	}

	content := redactContent(p.content, p.ops, p.fonts, user)
	if err := p.doc.replaceContents(p.index+1, content); err != nil {
		return fmt.Errorf("commit page %d: %w", p.index+1, err)
	}
	return nil
}

// replaceContents installs content as the page's content. The first existing
// content stream receives the new data and any further streams are emptied so
// no original text survives in the object graph. A page whose streams are
// also drawn by other pages gets a private stream instead, so one page's
// commit never rewrites what another page renders.
func (d *pdfDocument) replaceContents(pageNr int, content []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	pageDict, _, _, err := d.ctx.PageDict(pageNr, false)
	if err != nil {
		return err
	}
	if pageDict == nil {
		return errors.New("page dictionary not found")
	}

	obj, found := pageDict.Find("Contents")
	if !found || obj == nil {
		sd, err := d.newContentStream(content)
		if err != nil {
			return err
		}
		ir, err := d.ctx.IndRefForNewObject(*sd)
		if err != nil {
			return err
		}
		pageDict.Insert("Contents", *ir)
		d.dirty = true
		return nil
	}

	refs, err := d.contentRefs(obj)
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		return errors.New("page has no content streams")
	}

	shared, err := d.sharedRefs(pageNr, refs)
	if err != nil {
		return err
	}
	if len(shared) > 0 {
		return d.detachContents(pageDict, refs, shared, content)
	}

	for i, ref := range refs {
		data := content
		if i > 0 {
			data = []byte{}
		}
		if err := d.overwriteStream(ref, data); err != nil {
			return err
		}
	}

	d.dirty = true
	return nil
}

// sharedRefs returns the object numbers among refs that are also content
// streams of a page other than pageNr.
func (d *pdfDocument) sharedRefs(pageNr int, refs []types.IndirectRef) (map[int]bool, error) {
	own := make(map[int]bool, len(refs))
	for _, ref := range refs {
		own[ref.ObjectNumber.Value()] = true
	}

	shared := make(map[int]bool)
	for nr := 1; nr <= d.ctx.PageCount; nr++ {
		if nr == pageNr {
			continue
		}
		other, _, _, err := d.ctx.PageDict(nr, false)
		if err != nil {
			return nil, err
		}
		if other == nil {
			continue
		}
		obj, found := other.Find("Contents")
		if !found || obj == nil {
			continue
		}
		otherRefs, err := d.contentRefs(obj)
		if err != nil {
			return nil, err
		}
		for _, ref := range otherRefs {
			if n := ref.ObjectNumber.Value(); own[n] {
				shared[n] = true
			}
		}
	}
	return shared, nil
}

// detachContents gives the page a private content stream holding content.
// Shared streams are left intact for the pages still using them; streams only
// this page used are emptied so their text leaves the object graph.
func (d *pdfDocument) detachContents(pageDict types.Dict, refs []types.IndirectRef, shared map[int]bool, content []byte) error {
	for _, ref := range refs {
		if shared[ref.ObjectNumber.Value()] {
			continue
		}
		if err := d.overwriteStream(ref, []byte{}); err != nil {
			return err
		}
	}

	sd, err := d.newContentStream(content)
	if err != nil {
		return err
	}
	ir, err := d.ctx.IndRefForNewObject(*sd)
	if err != nil {
		return err
	}
	pageDict.Update("Contents", *ir)
	d.dirty = true
	return nil
}

func (d *pdfDocument) contentRefs(obj types.Object) ([]types.IndirectRef, error) {
	switch o := obj.(type) {
	case types.IndirectRef:
		resolved, err := d.ctx.Dereference(o)
		if err != nil {
			return nil, err
		}
		if arr, ok := resolved.(types.Array); ok {
			return d.contentRefs(arr)
		}
		return []types.IndirectRef{o}, nil
	case types.Array:
		refs := make([]types.IndirectRef, 0, len(o))
		for _, item := range o {
			ir, ok := item.(types.IndirectRef)
			if !ok {
				return nil, fmt.Errorf("unexpected content array entry %T", item)
			}
			refs = append(refs, ir)
		}
		return refs, nil
	default:
		return nil, fmt.Errorf("unexpected contents object %T", obj)
	}
}

func (d *pdfDocument) overwriteStream(ref types.IndirectRef, data []byte) error {
	entry, ok := d.ctx.FindTableEntryForIndRef(&ref)
	if !ok || entry == nil {
		return fmt.Errorf("content stream %s not found", ref)
	}

	sd, ok := entry.Object.(types.StreamDict)
	if !ok {
		return fmt.Errorf("content object %s is %T, not a stream", ref, entry.Object)
	}

	sd.Content = data
	sd.FilterPipeline = []types.PDFFilter{{Name: filter.Flate}}
	sd.Dict.Update("Filter", types.Name(filter.Flate))
	sd.Dict.Delete("DecodeParms")
	if err := sd.Encode(); err != nil {
		return err
	}

	entry.Object = sd
	return nil
}

func (d *pdfDocument) newContentStream(content []byte) (*types.StreamDict, error) {
	sd, err := d.ctx.NewStreamDictForBuf(content)
	if err != nil {
		return nil, err
	}
	if err := sd.Encode(); err != nil {
		return nil, err
	}
	return sd, nil
}
