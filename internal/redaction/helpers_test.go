package redaction_test

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/JaimeStill/shroud/internal/detection"
	"github.com/JaimeStill/shroud/internal/redaction"
	"github.com/JaimeStill/shroud/pkg/document"
	"github.com/JaimeStill/shroud/pkg/layout"
	"github.com/JaimeStill/shroud/pkg/pdf"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// layoutBytes builds a layout document with one page per entry; each line of
// an entry becomes a run 20pt below the previous one.
func layoutBytes(t *testing.T, pages ...string) []byte {
	t.Helper()
	f := layout.New()
	for _, text := range pages {
		p := f.AddPage(612, 792)
		for i, line := range strings.Split(text, "\n") {
			if line != "" {
				p.AddRun(72, 72+float64(i)*20, 10, line)
			}
		}
	}
	data, err := f.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	return data
}

// layoutBytesAt builds a single-page layout document with one run at (x, y).
func layoutBytesAt(t *testing.T, x, y float64, text string) []byte {
	t.Helper()
	f := layout.New()
	f.AddPage(612, 792).AddRun(x, y, 10, text)
	data, err := f.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	return data
}

func openBytes(t *testing.T, data []byte) document.Document {
	t.Helper()
	doc, err := newOpener().Open(data)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return doc
}

func pageTexts(t *testing.T, doc document.Document) []string {
	t.Helper()
	data, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	var out []string
	for _, p := range openBytes(t, data).Pages() {
		out = append(out, p.Text())
	}
	return out
}

func newOpener() *document.Opener {
	return document.NewOpener(pdf.NewProvider(), layout.NewProvider())
}

// textDetector reports each configured string as a statistical finding.
type textDetector struct {
	entity string
	values []string
	score  float64
}

func (d *textDetector) Name() string { return "fake:" + d.entity }

func (d *textDetector) Kind() detection.Kind { return detection.KindStatistical }

func (d *textDetector) Entities() []string { return []string{d.entity} }

func (d *textDetector) Detect(_ context.Context, text, _ string) ([]detection.Raw, error) {
	var out []detection.Raw
	for _, v := range d.values {
		out = append(out, detection.Raw{Text: v, Entity: d.entity, Score: d.score})
	}
	return out, nil
}

func newSystem(t *testing.T, regs ...detection.Registration) redaction.System {
	t.Helper()
	set, err := detection.DefaultRecognizerSet()
	if err != nil {
		t.Fatalf("DefaultRecognizerSet: %v", err)
	}
	patterns, err := set.Registrations()
	if err != nil {
		t.Fatalf("Registrations: %v", err)
	}

	reg, err := detection.NewRegistry(
		context.Background(), "en", detection.DefaultFloor, discardLogger(),
		append(regs, patterns...)...,
	)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	agg := detection.NewAggregator(reg, 2, discardLogger())
	return redaction.New(newOpener(), agg, 2, discardLogger())
}

// buildPDF assembles an uncompressed single-font PDF with one Courier page
// per content stream.
func buildPDF(contents ...string) []byte {
	widths := strings.TrimSpace(strings.Repeat("600 ", 95))
	kids := make([]string, len(contents))
	for i := range contents {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}

	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(contents)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Courier /Encoding /WinAnsiEncoding " +
			"/FirstChar 32 /LastChar 126 /Widths [" + widths + "] >>",
	}
	for i, c := range contents {
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
				"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(c)+1, c),
		)
	}
	return writePDF(objs)
}

// buildFormPDF assembles a one-page PDF whose text "Form text" lives in a
// 200x50 form XObject drawn at (100, 500) in user space, next to the page
// text "Page text".
func buildFormPDF() []byte {
	widths := strings.TrimSpace(strings.Repeat("600 ", 95))
	page := "BT /F1 12 Tf 72 720 Td (Page text) Tj ET q 1 0 0 1 100 500 cm /Fm1 Do Q"
	form := "BT /F1 12 Tf 0 20 Td (Form text) Tj ET"

	return writePDF([]string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [4 0 R] /Count 1 >>",
		"<< /Type /Font /Subtype /Type1 /BaseFont /Courier /Encoding /WinAnsiEncoding " +
			"/FirstChar 32 /LastChar 126 /Widths [" + widths + "] >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] " +
			"/Resources << /Font << /F1 3 0 R >> /XObject << /Fm1 6 0 R >> >> /Contents 5 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(page)+1, page),
		fmt.Sprintf("<< /Type /XObject /Subtype /Form /BBox [0 0 200 50] "+
			"/Resources << /Font << /F1 3 0 R >> >> /Length %d >>\nstream\n%s\nendstream", len(form)+1, form),
	})
}

func writePDF(objs []string) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}
