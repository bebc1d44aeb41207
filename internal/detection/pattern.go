package detection

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed recognizers.yaml
var defaultRecognizers []byte

// Pattern is one regular expression and the fixed score its matches carry.
type Pattern struct {
	Name  string  `yaml:"name"`
	Regex string  `yaml:"regex"`
	Score float64 `yaml:"score"`
}

// Recognizer groups the patterns that identify one entity type.
type Recognizer struct {
	Entity   string    `yaml:"entity"`
	Patterns []Pattern `yaml:"patterns"`
}

// RecognizerSet maps a language code to its recognizers in evaluation order.
type RecognizerSet map[string][]Recognizer

// DefaultRecognizerSet returns the built-in recognizers.
func DefaultRecognizerSet() (RecognizerSet, error) {
	return ParseRecognizers(defaultRecognizers)
}

// LoadRecognizerFile reads recognizers from a YAML file.
func LoadRecognizerFile(path string) (RecognizerSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read recognizers: %w", err)
	}
	return ParseRecognizers(data)
}

// ParseRecognizers decodes a YAML recognizer document.
func ParseRecognizers(data []byte) (RecognizerSet, error) {
	var set RecognizerSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecognizer, err)
	}
	return set, nil
}

// Languages returns the language codes in the set, sorted.
func (s RecognizerSet) Languages() []string {
	langs := make([]string, 0, len(s))
	for lang := range s {
		langs = append(langs, lang)
	}
	slices.Sort(langs)
	return langs
}

// Registrations compiles one PatternDetector per recognizer, languages in
// sorted order and recognizers in file order.
func (s RecognizerSet) Registrations() ([]Registration, error) {
	var regs []Registration
	for _, lang := range s.Languages() {
		for _, r := range s[lang] {
			d, err := NewPatternDetector(r)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", lang, err)
			}
			regs = append(regs, Registration{Language: lang, Detector: d})
		}
	}
	return regs, nil
}

type compiledPattern struct {
	re    *regexp.Regexp
	score float64
}

// PatternDetector reports every match of a recognizer's patterns.
type PatternDetector struct {
	entity   string
	patterns []compiledPattern
}

// NewPatternDetector compiles the recognizer's patterns.
func NewPatternDetector(r Recognizer) (*PatternDetector, error) {
	if r.Entity == "" {
		return nil, fmt.Errorf("%w: missing entity", ErrInvalidRecognizer)
	}
	if len(r.Patterns) == 0 {
		return nil, fmt.Errorf("%w: %s has no patterns", ErrInvalidRecognizer, r.Entity)
	}

	d := &PatternDetector{entity: r.Entity}
	for _, p := range r.Patterns {
		re, err := regexp.Compile(p.Regex)
		if err != nil {
			return nil, fmt.Errorf("%w: %s/%s: %w", ErrInvalidRecognizer, r.Entity, p.Name, err)
		}
		if p.Score < 0 || p.Score > 1 {
			return nil, fmt.Errorf("%w: %s/%s: score %g outside [0,1]", ErrInvalidRecognizer, r.Entity, p.Name, p.Score)
		}
		d.patterns = append(d.patterns, compiledPattern{re: re, score: p.Score})
	}
	return d, nil
}

func (d *PatternDetector) Name() string { return "pattern:" + d.entity }

func (d *PatternDetector) Kind() Kind { return KindPattern }

func (d *PatternDetector) Entities() []string { return []string{d.entity} }

// Detect returns byte-offset matches in pattern order.
func (d *PatternDetector) Detect(ctx context.Context, text, _ string) ([]Raw, error) {
	var out []Raw
	for _, p := range d.patterns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			out = append(out, Raw{
				Start:      loc[0],
				End:        loc[1],
				HasOffsets: true,
				Unit:       Bytes,
				Text:       text[loc[0]:loc[1]],
				Entity:     d.entity,
				Score:      p.score,
			})
		}
	}
	return out, nil
}
