package pdf

import (
	"strings"
	"testing"

	"github.com/JaimeStill/shroud/pkg/document"
)

func TestParseContent(t *testing.T) {
	src := "% comment\nBT /F1 12 Tf (a\\)b\\101) Tj [<4142> -250 (C)] TJ ET\n" +
		"/P <</MCID 0>> BDC EMC BI /W 1 /H 1 ID \x00\xff EI Q"

	ops, err := parseContent([]byte(src))
	if err != nil {
		t.Fatalf("parseContent error: %v", err)
	}

	var names []string
	for _, op := range ops {
		names = append(names, op.op)
	}
	want := "BT Tf Tj TJ ET BDC EMC BI Q"
	if got := strings.Join(names, " "); got != want {
		t.Fatalf("ops = %q, want %q", got, want)
	}

	if s, _ := ops[2].args[0].(pdfString); string(s) != "a)bA" {
		t.Errorf("literal = %q, want %q", s, "a)bA")
	}

	arr, _ := ops[3].args[0].([]any)
	if len(arr) != 3 {
		t.Fatalf("TJ array len = %d, want 3", len(arr))
	}
	if s, _ := arr[0].(pdfString); string(s) != "AB" {
		t.Errorf("hex = %q, want AB", s)
	}
	if n, _ := arr[1].(float64); n != -250 {
		t.Errorf("adjust = %v, want -250", arr[1])
	}

	if got := src[ops[1].start:ops[1].end]; got != "/F1 12 Tf" {
		t.Errorf("Tf span = %q", got)
	}
}

func TestParseContentUnterminated(t *testing.T) {
	for _, src := range []string{"(abc", "[1 2", "<<", "BI /W 1 ID data"} {
		if _, err := parseContent([]byte(src)); err == nil {
			t.Errorf("%q: expected error", src)
		}
	}
}

func TestRedactContent(t *testing.T) {
	fonts := map[string]*font{
		"F1": {codeLen: 1, decoder: nopDecoder{}, fallback: 500},
	}
	src := []byte("BT /F1 10 Tf 0 0 Td (abcd) Tj ET")
	ops, err := parseContent(src)
	if err != nil {
		t.Fatalf("parseContent error: %v", err)
	}

	// Each glyph advances 5 points; the mark covers "b" and "c".
	mark := document.Rect{X0: 6, Y0: -1, X1: 14, Y1: 5}
	out := string(redactContent(src, ops, fonts, []document.Rect{mark}))

	if !strings.Contains(out, "[<61> -1000 <64>] TJ") {
		t.Errorf("rewritten content missing expected TJ:\n%s", out)
	}
	if !strings.Contains(out, "q 0 0 0 rg 6 -1 8 6 re f Q") {
		t.Errorf("rewritten content missing fill:\n%s", out)
	}

	again, err := parseContent([]byte(out))
	if err != nil {
		t.Fatalf("reparse error: %v", err)
	}
	var text strings.Builder
	newInterpreter(fonts).run(again, func(_ operation, elems []element) {
		for _, e := range elems {
			for _, g := range e.glyphs {
				text.WriteString(g.text)
				if g.text == "d" && g.box.X0 != 15 {
					t.Errorf("d moved to %g, want 15", g.box.X0)
				}
			}
		}
	})
	if text.String() != "ad" {
		t.Errorf("remaining text = %q, want ad", text.String())
	}
}

func TestRedactContentUntouched(t *testing.T) {
	src := []byte("BT /F1 10 Tf (abcd) Tj ET")
	ops, _ := parseContent(src)
	out := string(redactContent(src, ops, nil, []document.Rect{{X0: 100, Y0: 100, X1: 110, Y1: 110}}))
	if !strings.Contains(out, "(abcd) Tj") {
		t.Errorf("unaffected operation was rewritten:\n%s", out)
	}
}
