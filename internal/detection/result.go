// Package detection finds PII spans in page text. Detectors of two families,
// pattern and statistical, are grouped into per-language sets by a Registry;
// Adapt normalizes their native results and an Aggregator runs a set over a
// document's pages.
package detection

import "context"

// Kind distinguishes detector families. Statistical results are subject to
// the confidence floor; pattern results carry fixed scores and are not.
type Kind string

const (
	KindPattern     Kind = "pattern"
	KindStatistical Kind = "statistical"
)

// OffsetUnit identifies how a detector counts offsets into the text it was
// given.
type OffsetUnit int

const (
	// Bytes offsets index the UTF-8 encoding of the text.
	Bytes OffsetUnit = iota
	// Runes offsets count Unicode code points.
	Runes
)

// Scale identifies the range a detector reports scores on.
type Scale int

const (
	// ScaleUnit scores are already in [0,1].
	ScaleUnit Scale = iota
	// ScalePercent scores are in [0,100].
	ScalePercent
	// ScaleAuto treats scores above 1 as percentages.
	ScaleAuto
)

// Detector finds candidate PII spans in page text.
type Detector interface {
	Name() string
	Kind() Kind
	// Entities lists the entity types the detector can report.
	Entities() []string
	Detect(ctx context.Context, text, language string) ([]Raw, error)
}

// HealthChecker is implemented by detectors backed by an external service. Check is
// called once when the registry is built.
type HealthChecker interface {
	Check(ctx context.Context) error
}

// Raw is a detector's native result before adaptation. Detectors fill in
// whichever fields they know; Fields carries loosely keyed data decoded from
// an external service.
type Raw struct {
	Start      int
	End        int
	HasOffsets bool
	Unit       OffsetUnit

	Text   string
	Entity string
	Score  float64
	Scale  Scale

	Fields map[string]any
}

// Result is a detection normalized to the canonical representation.
// Start and End are byte offsets into the page text, or -1 when unknown.
type Result struct {
	Text       string  `json:"text"`
	EntityType string  `json:"entity_type"`
	Score      float64 `json:"score"`
	Source     string  `json:"source"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
}

// Source describes the detector a raw result came from.
type Source struct {
	Name string
	Kind Kind
}
