// Package llm provides a statistical Detector that asks an OpenAI-compatible
// chat model for sensitive values. The model returns verbatim strings rather
// than offsets; detection.Adapt locates them in the page text.
package llm

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/JaimeStill/shroud/internal/detection"
	"github.com/JaimeStill/shroud/pkg/formatting"
)

const systemPrompt = `Extract personal information from the text. Return a JSON array of objects with the fields "text", "label", and "score".

- "text" is the exact substring as it appears in the input.
- "label" is one of the entity types: %s.
- "score" is your confidence between 0 and 1.

Do NOT flag: common words, city names alone, dates, regular numbers.
Return [] if nothing is found. Return ONLY the JSON array. No explanation.

Example:
Input: "call John Smith at john@example.com"
Output: [{"text":"John Smith","label":"PERSON","score":0.9}]`

// Config holds the model endpoint settings.
type Config struct {
	BaseURL  string
	APIKey   string
	Model    string
	Timeout  time.Duration
	Entities []string
}

// Detector sends page text to a chat model.
type Detector struct {
	client   *openai.Client
	model    string
	timeout  time.Duration
	entities []string
	prompt   string
}

type span struct {
	Text  string  `json:"text"`
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// New creates a Detector for the OpenAI-compatible API at cfg.BaseURL
// (e.g. "http://ollama:11434/v1").
func New(cfg Config) *Detector {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	entities := cfg.Entities
	if len(entities) == 0 {
		entities = []string{"PERSON"}
	}

	return &Detector{
		client:   openai.NewClientWithConfig(clientCfg),
		model:    cfg.Model,
		timeout:  cfg.Timeout,
		entities: entities,
		prompt:   fmt.Sprintf(systemPrompt, strings.Join(entities, ", ")),
	}
}

func (d *Detector) Name() string { return "llm:" + d.model }

func (d *Detector) Kind() detection.Kind { return detection.KindStatistical }

func (d *Detector) Entities() []string { return d.entities }

// Check verifies the API is reachable via ListModels.
func (d *Detector) Check(ctx context.Context) error {
	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	if _, err := d.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", parseAPIError(err))
	}
	return nil
}

// Detect asks the model for the sensitive values in text. Labels outside the
// configured entity set are dropped.
func (d *Detector) Detect(ctx context.Context, text, language string) ([]detection.Raw, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	ctx, cancel := d.withTimeout(ctx)
	defer cancel()

	resp, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: d.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: d.prompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Language: %s\nText:\n%s", language, text)},
		},
		Temperature: 0,
	})
	if err != nil {
		return nil, parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("llm: empty completion")
	}

	spans, err := formatting.Parse[[]span](resp.Choices[0].Message.Content)
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}

	out := make([]detection.Raw, 0, len(spans))
	for _, s := range spans {
		label := strings.ToUpper(strings.TrimSpace(s.Label))
		if !slices.Contains(d.entities, label) {
			continue
		}
		out = append(out, detection.Raw{
			Text:   s.Text,
			Entity: label,
			Score:  s.Score,
			Scale:  detection.ScaleAuto,
		})
	}
	return out, nil
}

func (d *Detector) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.timeout > 0 {
		return context.WithTimeout(ctx, d.timeout)
	}
	return context.WithCancel(ctx)
}

func parseAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("llm: api error %d: %s", apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("llm: request error %d: %s", reqErr.HTTPStatusCode, strings.TrimSpace(string(reqErr.Body)))
	}

	return fmt.Errorf("llm: %w", err)
}
