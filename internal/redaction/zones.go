package redaction

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseZones decodes a JSON array of zone objects. Decoding is loose: a
// missing, null, or non-numeric coordinate reads as 0, and numeric strings
// are parsed (including "NaN" and "Inf", which Apply later rejects). An
// object carrying a "boxes" array contributes one zone per box on its page,
// so findings returned by Detect can be submitted as they are.
//
// Only a body that is not an array of objects fails with ErrMalformedZones.
func ParseZones(data []byte) ([]Zone, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrMalformedZones
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()

	var items []map[string]any
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedZones, err)
	}

	zones := make([]Zone, 0, len(items))
	for _, item := range items {
		page := loosePage(item["page"])

		boxes, ok := item["boxes"].([]any)
		if !ok {
			zones = append(zones, zoneFrom(page, item))
			continue
		}
		for _, b := range boxes {
			box, _ := b.(map[string]any)
			zones = append(zones, zoneFrom(page, box))
		}
	}
	return zones, nil
}

func zoneFrom(page int, m map[string]any) Zone {
	return Zone{
		Page: page,
		X0:   looseFloat(m["x0"]),
		Y0:   looseFloat(m["y0"]),
		X1:   looseFloat(m["x1"]),
		Y1:   looseFloat(m["y1"]),
	}
}

// loosePage reads a 1-based page number. Anything that is not a finite
// integral number reads as 0, which Apply reports as out of range.
func loosePage(v any) int {
	f := looseFloat(v)
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0
	}
	return int(f)
}

func looseFloat(v any) float64 {
	switch n := v.(type) {
	case json.Number:
		return parseLoose(n.String())
	case float64:
		return n
	case string:
		return parseLoose(strings.TrimSpace(n))
	}
	return 0
}

// parseLoose keeps out-of-range values as ±Inf so they surface as
// non-finite instead of silently becoming 0.
func parseLoose(s string) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err == nil {
		return f
	}
	if errors.Is(err, strconv.ErrRange) {
		return f
	}
	return 0
}
