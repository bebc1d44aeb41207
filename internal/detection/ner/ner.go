// Package ner provides a statistical Detector backed by an HTTP NER sidecar.
// The sidecar receives page text and a language code and returns loosely keyed
// entity objects; their shape is normalized by detection.Adapt.
package ner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/JaimeStill/shroud/internal/detection"
)

// Config holds the sidecar connection settings.
type Config struct {
	URL      string
	Timeout  time.Duration
	Entities []string
}

// Client calls the sidecar's /analyze endpoint.
type Client struct {
	base     string
	entities []string
	http     *http.Client
}

// New creates a Client for the sidecar at cfg.URL (e.g. "http://ner:8001").
func New(cfg Config) *Client {
	entities := make([]string, 0, len(cfg.Entities))
	for _, e := range cfg.Entities {
		entities = append(entities, canonicalLabel(e))
	}
	if len(entities) == 0 {
		entities = []string{"PERSON"}
	}
	return &Client{
		base:     strings.TrimRight(cfg.URL, "/"),
		entities: entities,
		http:     &http.Client{Timeout: cfg.Timeout},
	}
}

type analyzeRequest struct {
	Text     string   `json:"text"`
	Language string   `json:"language"`
	Entities []string `json:"entities"`
}

// Short tag-set labels emitted by common NER models.
var labelAliases = map[string]string{
	"PER":  "PERSON",
	"PERS": "PERSON",
	"LOC":  "LOCATION",
	"GPE":  "LOCATION",
	"ORG":  "ORGANIZATION",
}

// canonicalLabel uppercases label, strips a BIO prefix, and resolves short
// tag-set aliases.
func canonicalLabel(label string) string {
	label = strings.ToUpper(strings.TrimSpace(label))
	if len(label) > 2 && (label[:2] == "B-" || label[:2] == "I-") {
		label = label[2:]
	}
	if alias, ok := labelAliases[label]; ok {
		return alias
	}
	return label
}

// The sidecar may return a bare array or wrap it under "entities".
type analyzeResponse struct {
	Entities []map[string]any `json:"entities"`
}

func (c *Client) Name() string { return "ner" }

func (c *Client) Kind() detection.Kind { return detection.KindStatistical }

func (c *Client) Entities() []string { return c.entities }

// Check calls the sidecar's /health endpoint.
func (c *Client) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/health", nil)
	if err != nil {
		return fmt.Errorf("ner: request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ner: health: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ner: health: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// Detect sends text to the sidecar. Offsets are reported in code points and
// scores may be on either scale. Entities outside the client's configured set
// are dropped whatever the sidecar returns.
func (c *Client) Detect(ctx context.Context, text, language string) ([]detection.Raw, error) {
	body, err := json.Marshal(analyzeRequest{Text: text, Language: language, Entities: c.entities})
	if err != nil {
		return nil, fmt.Errorf("ner: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/analyze", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ner: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ner: analyze: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ner: analyze: status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ner: read: %w", err)
	}

	entities, err := decodeEntities(raw)
	if err != nil {
		return nil, err
	}

	out := make([]detection.Raw, 0, len(entities))
	for _, e := range entities {
		label := canonicalLabel(detection.FieldLabel(e))
		if !slices.Contains(c.entities, label) {
			continue
		}
		out = append(out, detection.Raw{
			Entity: label,
			Unit:   detection.Runes,
			Scale:  detection.ScaleAuto,
			Fields: e,
		})
	}
	return out, nil
}

func decodeEntities(raw []byte) ([]map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var list []map[string]any
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, fmt.Errorf("ner: decode: %w", err)
		}
		return list, nil
	}

	var wrapped analyzeResponse
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("ner: decode: %w", err)
	}
	return wrapped.Entities, nil
}
