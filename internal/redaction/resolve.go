package redaction

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/JaimeStill/shroud/internal/detection"
	"github.com/JaimeStill/shroud/pkg/document"
)

var findingNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/JaimeStill/shroud/finding"))

type findingKey struct {
	source string
	entity string
	text   string
}

// Resolve maps each result to every rendered occurrence of its text on page.
// Offsets are not used: a result whose text appears twice yields a finding
// with two boxes. Results from one detector with the same entity and text
// resolve to the same boxes and collapse into a single finding with the
// highest score. Results from different detectors are kept apart. Results
// with no occurrence produce no finding.
func Resolve(page document.Page, results []detection.Result) []Finding {
	w, h := page.Size()
	bounds := document.Rect{X1: w, Y1: h}

	var findings []Finding
	seen := make(map[findingKey]int)
	for _, res := range results {
		key := findingKey{source: res.Source, entity: res.EntityType, text: res.Text}
		if i, ok := seen[key]; ok {
			findings[i].Score = max(findings[i].Score, res.Score)
			continue
		}

		var boxes []BoundingBox
		for _, r := range page.FindOccurrences(res.Text) {
			r = r.Normalize()
			if !r.Finite() {
				continue
			}
			r = r.Intersect(bounds)
			if r.Empty() {
				continue
			}
			boxes = append(boxes, BoundingBox{
				PageIndex: page.Index(),
				X0:        r.X0,
				Y0:        r.Y0,
				X1:        r.X1,
				Y1:        r.Y1,
			})
		}

		if len(boxes) == 0 {
			continue
		}

		seen[key] = len(findings)
		findings = append(findings, Finding{
			ID:         findingID(page.Index()+1, boxes[0]),
			Page:       page.Index() + 1,
			EntityType: res.EntityType,
			Score:      res.Score,
			Text:       res.Text,
			Source:     res.Source,
			Boxes:      boxes,
		})
	}
	return findings
}

// Zones converts every finding box into a zone.
func Zones(findings []Finding) []Zone {
	var zones []Zone
	for _, f := range findings {
		for _, b := range f.Boxes {
			zones = append(zones, Zone{Page: b.PageIndex + 1, X0: b.X0, Y0: b.Y0, X1: b.X1, Y1: b.Y1})
		}
	}
	return zones
}

func findingID(page int, box BoundingBox) uuid.UUID {
	name := fmt.Sprintf("%d:%.2f:%.2f:%.2f:%.2f", page, box.X0, box.Y0, box.X1, box.Y1)
	return uuid.NewSHA1(findingNamespace, []byte(name))
}
