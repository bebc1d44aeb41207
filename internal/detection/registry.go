package detection

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
)

// Registration binds a detector to the language whose set it joins.
type Registration struct {
	Language string
	Detector Detector
}

// Diagnostic records the startup availability of one detector.
type Diagnostic struct {
	Language  string   `json:"language"`
	Detector  string   `json:"detector"`
	Kind      Kind     `json:"kind"`
	Entities  []string `json:"entities"`
	Available bool     `json:"available"`
	Error     string   `json:"error,omitempty"`
}

// EntityInfo describes an entity type a language set can report.
type EntityInfo struct {
	Entity    string `json:"entity"`
	Detector  string `json:"detector"`
	Kind      Kind   `json:"kind"`
	Available bool   `json:"available"`
}

// LanguageInfo describes a language set.
type LanguageInfo struct {
	Language string       `json:"language"`
	Primary  bool         `json:"primary"`
	Entities []EntityInfo `json:"entities"`
}

// Registry holds the detector sets for each language. It is built once at
// startup and is read-only afterward, so it is safe for concurrent use.
type Registry struct {
	primary     string
	floor       float64
	languages   []string
	sets        map[string][]Detector
	diagnostics []Diagnostic
}

// NewRegistry checks every detector implementing HealthChecker and assembles the
// per-language sets in registration order. A failed check excludes the
// detector and records an ErrDetectorUnavailable diagnostic; the language
// continues with its remaining detectors.
func NewRegistry(ctx context.Context, primary string, floor float64, logger *slog.Logger, regs ...Registration) (*Registry, error) {
	r := &Registry{
		primary: normalizeLanguage(primary),
		floor:   floor,
		sets:    make(map[string][]Detector),
	}

	// a detector shared by several languages is checked once, by name
	checked := make(map[string]error)
	for _, reg := range regs {
		lang := normalizeLanguage(reg.Language)
		d := reg.Detector

		if !slices.Contains(r.languages, lang) {
			r.languages = append(r.languages, lang)
			r.sets[lang] = nil
		}

		diag := Diagnostic{
			Language:  lang,
			Detector:  d.Name(),
			Kind:      d.Kind(),
			Entities:  d.Entities(),
			Available: true,
		}

		if p, ok := d.(HealthChecker); ok {
			err, done := checked[d.Name()]
			if !done {
				err = p.Check(ctx)
				checked[d.Name()] = err
				if err != nil {
					logger.Warn(
						"detector unavailable, language runs degraded",
						"language", lang,
						"detector", d.Name(),
						"error", err,
					)
				}
			}
			if err != nil {
				diag.Available = false
				diag.Error = fmt.Errorf("%w: %w", ErrDetectorUnavailable, err).Error()
			}
		}

		r.diagnostics = append(r.diagnostics, diag)
		if diag.Available {
			r.sets[lang] = append(r.sets[lang], d)
		}
	}

	if len(r.sets[r.primary]) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoPrimarySet, r.primary)
	}

	return r, nil
}

// Primary returns the primary language code.
func (r *Registry) Primary() string { return r.primary }

// Floor returns the statistical confidence floor.
func (r *Registry) Floor() float64 { return r.floor }

// Resolve returns the language whose set serves the request and its
// detectors. Unknown or empty languages resolve to the primary set.
func (r *Registry) Resolve(language string) (string, []Detector) {
	lang := normalizeLanguage(language)
	if _, ok := r.sets[lang]; !ok || lang == "" {
		lang = r.primary
	}
	return lang, r.sets[lang]
}

// Available reports whether language has a usable detector for entity. The
// language is resolved the same way as in Resolve.
func (r *Registry) Available(language, entity string) bool {
	_, dets := r.Resolve(language)
	for _, d := range dets {
		if slices.Contains(d.Entities(), entity) {
			return true
		}
	}
	return false
}

// Diagnostics returns the startup availability of every registered detector.
func (r *Registry) Diagnostics() []Diagnostic {
	return slices.Clone(r.diagnostics)
}

// Languages describes every registered language set, including detectors
// that failed their check.
func (r *Registry) Languages() []LanguageInfo {
	infos := make([]LanguageInfo, 0, len(r.languages))
	for _, lang := range r.languages {
		info := LanguageInfo{Language: lang, Primary: lang == r.primary}
		for _, diag := range r.diagnostics {
			if diag.Language != lang {
				continue
			}
			for _, entity := range diag.Entities {
				info.Entities = append(info.Entities, EntityInfo{
					Entity:    entity,
					Detector:  diag.Detector,
					Kind:      diag.Kind,
					Available: diag.Available,
				})
			}
		}
		infos = append(infos, info)
	}
	return infos
}

func normalizeLanguage(lang string) string {
	return strings.ToLower(strings.TrimSpace(lang))
}
