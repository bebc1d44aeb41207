// Package redaction implements the redaction domain for Shroud.
// It resolves detection results to on-page geometry, applies caller-confirmed
// or automatically generated zones as irreversible redactions, and exposes the
// detect, confirm, and auto-redact operations over one shared pipeline.
package redaction

import (
	"github.com/google/uuid"

	"github.com/JaimeStill/shroud/internal/detection"
	"github.com/JaimeStill/shroud/pkg/document"
)

// BoundingBox is a region on a page in points, top-left origin.
// PageIndex is 0-based.
type BoundingBox struct {
	PageIndex int     `json:"page_index"`
	X0        float64 `json:"x0"`
	Y0        float64 `json:"y0"`
	X1        float64 `json:"x1"`
	Y1        float64 `json:"y1"`
}

// Rect returns the box as a page rectangle.
func (b BoundingBox) Rect() document.Rect {
	return document.Rect{X0: b.X0, Y0: b.Y0, X1: b.X1, Y1: b.Y1}
}

// Finding is a detection result resolved to at least one box. Page is 1-based.
// ID is derived from the page and the first box's origin, so the same finding
// detected twice carries the same ID.
type Finding struct {
	ID         uuid.UUID     `json:"id"`
	Page       int           `json:"page"`
	EntityType string        `json:"entity_type"`
	Score      float64       `json:"score"`
	Text       string        `json:"text"`
	Source     string        `json:"source"`
	Boxes      []BoundingBox `json:"boxes"`
}

// Zone is a caller-supplied region to redact. Page is 1-based; coordinates
// may arrive reversed or non-finite and are validated by Apply.
type Zone struct {
	Page int     `json:"page"`
	X0   float64 `json:"x0"`
	Y0   float64 `json:"y0"`
	X1   float64 `json:"x1"`
	Y1   float64 `json:"y1"`
}

// Rect returns the zone's coordinates as a page rectangle, unnormalized.
func (z Zone) Rect() document.Rect {
	return document.Rect{X0: z.X0, Y0: z.Y0, X1: z.X1, Y1: z.Y1}
}

// Zone skip reasons reported in diagnostics.
const (
	ReasonPageOutOfRange = "page_out_of_range"
	ReasonNonFinite      = "non_finite_coordinates"
	ReasonOutsidePage    = "outside_page"
)

// ReasonContentNotRemoved flags an applied zone that covers content the
// document format can paint over but not remove, such as text inside a PDF
// form XObject.
const ReasonContentNotRemoved = "content_not_removed"

// ZoneDiagnostic explains why a zone was skipped or only partly removed.
// Index is the zone's position in the submitted list.
type ZoneDiagnostic struct {
	Index  int    `json:"index"`
	Page   int    `json:"page"`
	Reason string `json:"reason"`
	Error  string `json:"error,omitempty"`
}

// Report summarizes an Apply call. Residual lists applied zones whose
// covered content may survive in the output.
type Report struct {
	Applied     int              `json:"applied"`
	Skipped     int              `json:"skipped"`
	Diagnostics []ZoneDiagnostic `json:"diagnostics"`
	Residual    []ZoneDiagnostic `json:"residual"`
}

// Outcome is the result of a redaction: the serialized document and the
// report of which zones were applied.
type Outcome struct {
	Data        []byte
	Filename    string
	ContentType string
	Report
}

// Detection is the result of a detect call. The document is not modified.
type Detection struct {
	Filename    string                 `json:"filename"`
	Language    string                 `json:"language"`
	PageCount   int                    `json:"page_count"`
	Findings    []Finding              `json:"findings"`
	Diagnostics []detection.Diagnostic `json:"diagnostics"`
}

// Catalog describes the detector registry for clients.
type Catalog struct {
	Primary     string                   `json:"primary"`
	Languages   []detection.LanguageInfo `json:"languages"`
	Diagnostics []detection.Diagnostic   `json:"diagnostics"`
}

// DetectCommand carries a document to scan. An empty Language selects the
// primary language set.
type DetectCommand struct {
	Data     []byte
	Filename string
	Language string
}

// RedactCommand carries a document and the reviewed zones to apply.
type RedactCommand struct {
	Data     []byte
	Filename string
	Zones    []Zone
}

// AutoRedactCommand carries a document to detect and redact in one call.
type AutoRedactCommand struct {
	Data     []byte
	Filename string
	Language string
}
