package detection_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/JaimeStill/shroud/internal/detection"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func defaultRegistry(t *testing.T) *detection.Registry {
	t.Helper()
	set, err := detection.DefaultRecognizerSet()
	if err != nil {
		t.Fatalf("DefaultRecognizerSet: %v", err)
	}
	regs, err := set.Registrations()
	if err != nil {
		t.Fatalf("Registrations: %v", err)
	}
	reg, err := detection.NewRegistry(context.Background(), "en", detection.DefaultFloor, discardLogger(), regs...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return reg
}

type found struct {
	entity string
	text   string
}

func detectAll(t *testing.T, reg *detection.Registry, text, language string) []found {
	t.Helper()
	lang, detectors := reg.Resolve(language)
	var out []found
	for _, d := range detectors {
		raws, err := d.Detect(context.Background(), text, lang)
		if err != nil {
			t.Fatalf("%s: %v", d.Name(), err)
		}
		src := detection.Source{Name: d.Name(), Kind: d.Kind()}
		for _, raw := range raws {
			if res, ok := detection.Adapt(raw, src, text, reg.Floor()); ok {
				out = append(out, found{res.EntityType, res.Text})
			}
		}
	}
	return out
}

func TestDefaultRecognizerSet(t *testing.T) {
	set, err := detection.DefaultRecognizerSet()
	if err != nil {
		t.Fatalf("DefaultRecognizerSet: %v", err)
	}

	if got := set.Languages(); !slices.Equal(got, []string{"en", "he"}) {
		t.Errorf("Languages = %v, want [en he]", got)
	}
}

func TestHebrewDispatch(t *testing.T) {
	reg := defaultRegistry(t)

	got := detectAll(t, reg, "My ID is 123456789. Call me at 054-1234567.", "he")
	want := []found{
		{"IL_ID", "123456789"},
		{"IL_PHONE", "054-1234567"},
	}

	if !slices.Equal(got, want) {
		t.Errorf("detections = %v, want %v", got, want)
	}
}

func TestEnglishPatterns(t *testing.T) {
	reg := defaultRegistry(t)

	tests := []struct {
		name string
		text string
		want []found
	}{
		{
			name: "email",
			text: "Email: john.doe@example.com",
			want: []found{{"EMAIL_ADDRESS", "john.doe@example.com"}},
		},
		{
			name: "local phone",
			text: "Call 555-0123 today",
			want: []found{{"PHONE_NUMBER", "555-0123"}},
		},
		{
			name: "nanp phone",
			text: "Office (212) 555-0198",
			want: []found{{"PHONE_NUMBER", "(212) 555-0198"}, {"PHONE_NUMBER", "555-0198"}},
		},
		{
			name: "ssn",
			text: "SSN 123-45-6789",
			want: []found{{"US_SSN", "123-45-6789"}},
		},
		{
			name: "nothing",
			text: "The quick brown fox",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectAll(t, reg, tt.text, "en")
			if !slices.Equal(got, tt.want) {
				t.Errorf("detections = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPatternDetectorOffsets(t *testing.T) {
	d, err := detection.NewPatternDetector(detection.Recognizer{
		Entity:   "IL_ID",
		Patterns: []detection.Pattern{{Name: "id", Regex: `\d{9}`, Score: 0.5}},
	})
	if err != nil {
		t.Fatalf("NewPatternDetector: %v", err)
	}

	text := "מספר 123456789"
	raws, err := d.Detect(context.Background(), text, "he")
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(raws) != 1 {
		t.Fatalf("got %d results, want 1", len(raws))
	}

	r := raws[0]
	if !r.HasOffsets || r.Unit != detection.Bytes {
		t.Errorf("expected byte offsets, got %+v", r)
	}
	if text[r.Start:r.End] != "123456789" {
		t.Errorf("offsets address %q", text[r.Start:r.End])
	}
	if d.Name() != "pattern:IL_ID" || d.Kind() != detection.KindPattern {
		t.Errorf("Name/Kind = %s/%s", d.Name(), d.Kind())
	}
}

func TestPatternDetectorCancelled(t *testing.T) {
	d, err := detection.NewPatternDetector(detection.Recognizer{
		Entity:   "X",
		Patterns: []detection.Pattern{{Name: "x", Regex: `x`, Score: 1}},
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := d.Detect(ctx, "xxx", "en"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestNewPatternDetectorInvalid(t *testing.T) {
	tests := []struct {
		name string
		rec  detection.Recognizer
	}{
		{"missing entity", detection.Recognizer{Patterns: []detection.Pattern{{Regex: "a", Score: 1}}}},
		{"no patterns", detection.Recognizer{Entity: "A"}},
		{"bad regex", detection.Recognizer{Entity: "A", Patterns: []detection.Pattern{{Regex: "(", Score: 1}}}},
		{"score out of range", detection.Recognizer{Entity: "A", Patterns: []detection.Pattern{{Regex: "a", Score: 1.5}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := detection.NewPatternDetector(tt.rec); !errors.Is(err, detection.ErrInvalidRecognizer) {
				t.Errorf("err = %v, want ErrInvalidRecognizer", err)
			}
		})
	}
}

func TestLoadRecognizerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recognizers.yaml")
	body := `
fr:
  - entity: FR_PHONE
    patterns:
      - name: mobile
        regex: '0[67](?: \d{2}){4}'
        score: 0.7
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	set, err := detection.LoadRecognizerFile(path)
	if err != nil {
		t.Fatalf("LoadRecognizerFile: %v", err)
	}

	regs, err := set.Registrations()
	if err != nil {
		t.Fatalf("Registrations: %v", err)
	}
	if len(regs) != 1 || regs[0].Language != "fr" || regs[0].Detector.Name() != "pattern:FR_PHONE" {
		t.Errorf("unexpected registrations: %+v", regs)
	}

	if _, err := detection.ParseRecognizers([]byte("fr: [")); !errors.Is(err, detection.ErrInvalidRecognizer) {
		t.Errorf("err = %v, want ErrInvalidRecognizer", err)
	}
}
