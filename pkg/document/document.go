// Package document defines the page provider contract consumed by the
// detection and redaction pipeline. A provider turns raw bytes into an ordered
// sequence of pages that expose extracted text, literal-occurrence geometry,
// and a mark/commit pair for irreversible content removal.
//
// Coordinates are in points with the origin at the top-left corner of the page
// and y increasing downward.
package document

import "math"

// Rect is an axis-aligned rectangle in page space.
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// Normalize returns r with its corners ordered so that X0 <= X1 and Y0 <= Y1.
func (r Rect) Normalize() Rect {
	if r.X0 > r.X1 {
		r.X0, r.X1 = r.X1, r.X0
	}
	if r.Y0 > r.Y1 {
		r.Y0, r.Y1 = r.Y1, r.Y0
	}
	return r
}

// Finite reports whether every coordinate is a finite number.
func (r Rect) Finite() bool {
	for _, v := range [...]float64{r.X0, r.Y0, r.X1, r.Y1} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool {
	return r.X0 >= r.X1 || r.Y0 >= r.Y1
}

// Overlaps reports whether r and o share a region of positive area.
// Rectangles that only touch along an edge do not overlap.
func (r Rect) Overlaps(o Rect) bool {
	return r.X0 < o.X1 && o.X0 < r.X1 && r.Y0 < o.Y1 && o.Y0 < r.Y1
}

// Intersect returns the intersection of r and o, which may be empty.
func (r Rect) Intersect(o Rect) Rect {
	return Rect{
		X0: max(r.X0, o.X0),
		Y0: max(r.Y0, o.Y0),
		X1: min(r.X1, o.X1),
		Y1: min(r.Y1, o.Y1),
	}
}

// Union returns the smallest rectangle containing r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		X0: min(r.X0, o.X0),
		Y0: min(r.Y0, o.Y0),
		X1: max(r.X1, o.X1),
		Y1: max(r.Y1, o.Y1),
	}
}

// Page is a single page of an opened document.
//
// Text and FindOccurrences are safe for concurrent use. MarkRegion and
// CommitMarks mutate the page and must not be interleaved across goroutines
// for the same page.
type Page interface {
	// Index is the 0-based position of the page within its document.
	Index() int
	// Size returns the page width and height in points.
	Size() (width, height float64)
	// Text returns the page text extracted when the document was opened.
	Text() string
	// FindOccurrences returns one rectangle per literal rendered occurrence of s.
	FindOccurrences(s string) []Rect
	// MarkRegion records r for removal on the next commit.
	MarkRegion(r Rect)
	// CommitMarks removes all content intersecting the marked regions and
	// paints them opaque. Marks are cleared afterward.
	CommitMarks() error
}

// ResidualReporter is implemented by pages that can draw content CommitMarks
// paints over but cannot remove. Residual returns the bounds of that content
// overlapping r.
type ResidualReporter interface {
	Residual(r Rect) []Rect
}

// Document is an opened, mutable document.
type Document interface {
	Pages() []Page
	// Bytes serializes the document including all committed redactions.
	Bytes() ([]byte, error)
	// ContentType is the media type Bytes produces.
	ContentType() string
}

// Provider opens documents of a single format.
type Provider interface {
	// Name identifies the provider in logs and diagnostics.
	Name() string
	// Accepts reports whether data looks like this provider's format.
	Accepts(data []byte) bool
	Open(data []byte) (Document, error)
}
