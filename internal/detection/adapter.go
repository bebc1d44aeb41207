package detection

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultFloor is the minimum score a statistical result must reach.
const DefaultFloor = 0.5

// Loosely keyed field aliases, checked in order.
var (
	startKeys  = []string{"start", "start_pos", "begin", "offset"}
	endKeys    = []string{"end", "end_pos", "stop"}
	entityKeys = []string{"entity_type", "label", "entity_group", "entity", "type"}
	scoreKeys  = []string{"score", "confidence", "probability"}
	textKeys   = []string{"text", "word", "value"}
)

// Adapt normalizes raw into a Result. It reports false when the result must
// be discarded: no locatable non-blank text, or a statistical score below
// floor.
func Adapt(raw Raw, src Source, text string, floor float64) (Result, bool) {
	if raw.Fields != nil {
		raw = applyFields(raw)
	}

	score := normalizeScore(raw.Score, raw.Scale)
	if src.Kind == KindStatistical && score < floor {
		return Result{}, false
	}

	span, start, end := locate(raw, text)
	span, start, end = trimSpan(span, start, end)
	if span == "" {
		return Result{}, false
	}

	entity := strings.ToUpper(strings.TrimSpace(raw.Entity))
	if entity == "" {
		entity = "UNKNOWN"
	}

	return Result{
		Text:       span,
		EntityType: entity,
		Score:      score,
		Source:     src.Name,
		Start:      start,
		End:        end,
	}, true
}

// FieldLabel returns the entity label from a loosely keyed result map, or ""
// when none of the known label keys is present.
func FieldLabel(fields map[string]any) string {
	return lookupString(fields, entityKeys)
}

// applyFields fills unset Raw fields from the loosely keyed map.
func applyFields(raw Raw) Raw {
	f := raw.Fields

	if !raw.HasOffsets {
		s, okS := lookupNumber(f, startKeys)
		e, okE := lookupNumber(f, endKeys)
		if okS && okE {
			raw.Start, raw.End, raw.HasOffsets = int(s), int(e), true
		}
	}
	if raw.Entity == "" {
		raw.Entity = lookupString(f, entityKeys)
	}
	if raw.Text == "" {
		raw.Text = lookupString(f, textKeys)
	}
	if raw.Score == 0 {
		if v, ok := lookupNumber(f, scoreKeys); ok {
			raw.Score = v
		}
	}
	return raw
}

func normalizeScore(score float64, scale Scale) float64 {
	if math.IsNaN(score) {
		return 0
	}
	switch scale {
	case ScalePercent:
		score /= 100
	case ScaleAuto:
		if score > 1 {
			score /= 100
		}
	}
	return min(max(score, 0), 1)
}

// locate resolves the span text. Offsets win when they address a valid
// region of text; otherwise the verbatim text is used and located by search.
func locate(raw Raw, text string) (string, int, int) {
	if raw.HasOffsets {
		start, end := raw.Start, raw.End
		if raw.Unit == Runes {
			start, end = runeToByte(text, start), runeToByte(text, end)
		}
		// a detector that normalizes text internally can report offsets that
		// no longer line up; its own verbatim text wins when they disagree
		if validSpan(text, start, end) && agrees(text[start:end], raw.Text) {
			return text[start:end], start, end
		}
	}

	if raw.Text == "" {
		return "", -1, -1
	}
	if i := strings.Index(text, raw.Text); i >= 0 {
		return raw.Text, i, i + len(raw.Text)
	}
	return raw.Text, -1, -1
}

func agrees(span, verbatim string) bool {
	if verbatim == "" {
		return true
	}
	return strings.TrimSpace(span) == strings.TrimSpace(verbatim)
}

func trimSpan(span string, start, end int) (string, int, int) {
	trimmed := strings.TrimLeftFunc(span, unicode.IsSpace)
	if start >= 0 {
		start += len(span) - len(trimmed)
	}
	out := strings.TrimRightFunc(trimmed, unicode.IsSpace)
	if end >= 0 {
		end -= len(trimmed) - len(out)
	}
	return out, start, end
}

func runeToByte(text string, n int) int {
	if n < 0 {
		return -1
	}
	i := 0
	for b := range text {
		if i == n {
			return b
		}
		i++
	}
	if i == n {
		return len(text)
	}
	return -1
}

func validSpan(text string, start, end int) bool {
	if start < 0 || end > len(text) || start >= end {
		return false
	}
	if !utf8.RuneStart(text[start]) {
		return false
	}
	return end == len(text) || utf8.RuneStart(text[end])
}

func lookupString(f map[string]any, keys []string) string {
	for _, k := range keys {
		if s, ok := f[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func lookupNumber(f map[string]any, keys []string) (float64, bool) {
	for _, k := range keys {
		v, ok := f[k]
		if !ok {
			continue
		}
		if n, ok := toNumber(v); ok {
			return n, true
		}
	}
	return 0, false
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}
