package redaction

import "github.com/JaimeStill/shroud/pkg/openapi"

var scoreMin, scoreMax = 0.0, 1.0

// Schemas returns the component schemas referenced by the handler routes.
func Schemas() map[string]*openapi.Schema {
	box := &openapi.Schema{
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"page_index": {Type: "integer", Description: "0-based page index"},
			"x0":         {Type: "number"},
			"y0":         {Type: "number"},
			"x1":         {Type: "number"},
			"y1":         {Type: "number"},
		},
	}

	return map[string]*openapi.Schema{
		"Finding": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":          {Type: "string", Format: "uuid"},
				"page":        {Type: "integer", Description: "1-based page number"},
				"entity_type": {Type: "string", Example: "EMAIL_ADDRESS"},
				"score":       {Type: "number", Description: "Detector confidence", Minimum: &scoreMin, Maximum: &scoreMax},
				"text":        {Type: "string"},
				"source":      {Type: "string", Description: "Detector that produced the finding"},
				"boxes":       {Type: "array", Items: box},
			},
		},
		"Detection": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"filename":    {Type: "string"},
				"language":    {Type: "string", Description: "Language set that served the request"},
				"page_count":  {Type: "integer"},
				"findings":    {Type: "array", Items: openapi.SchemaRef("Finding")},
				"diagnostics": {Type: "array", Items: openapi.SchemaRef("DetectorDiagnostic")},
			},
		},
		"DetectorDiagnostic": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"language":  {Type: "string"},
				"detector":  {Type: "string"},
				"kind":      {Type: "string", Enum: []any{"pattern", "statistical"}},
				"entities":  {Type: "array", Items: &openapi.Schema{Type: "string"}},
				"available": {Type: "boolean"},
				"error":     {Type: "string"},
			},
		},
		"Catalog": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"primary":     {Type: "string"},
				"languages":   {Type: "array", Items: &openapi.Schema{Type: "object"}},
				"diagnostics": {Type: "array", Items: openapi.SchemaRef("DetectorDiagnostic")},
			},
		},
	}
}

func redactedResponses() map[int]*openapi.Response {
	ok := openapi.ResponseBinary("Redacted document", "application/pdf")
	ok.Headers = map[string]*openapi.Header{
		"X-Redaction-Applied":  openapi.IntegerHeader("Zones marked and committed"),
		"X-Redaction-Skipped":  openapi.IntegerHeader("Zones rejected with a diagnostic"),
		"X-Redaction-Residual": openapi.IntegerHeader("Applied zones covering content that could only be painted over"),
	}
	return map[int]*openapi.Response{
		200: ok,
		400: openapi.ResponseRef("BadRequest"),
		413: openapi.ResponseRef("PayloadTooLarge"),
		500: openapi.ResponseRef("ServerError"),
	}
}

// Tags describes the tags used by the handler routes.
func Tags() map[string]string {
	return map[string]string{
		"detectors":  "Detector availability per language",
		"redactions": "Detection and irreversible redaction of uploaded documents",
	}
}

var (
	detectorsDoc = &openapi.Operation{
		Summary: "List languages, entity types, and detector availability",
		Tags:    []string{"detectors"},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Detector catalog", "Catalog"),
		},
	}

	detectDoc = &openapi.Operation{
		Summary:     "Detect PII and return findings with geometry",
		Tags:        []string{"redactions"},
		RequestBody: uploadBody("language"),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Findings", "Detection"),
			400: openapi.ResponseRef("BadRequest"),
			413: openapi.ResponseRef("PayloadTooLarge"),
			500: openapi.ResponseRef("ServerError"),
		},
	}

	applyDoc = &openapi.Operation{
		Summary:     "Redact reviewed zones",
		Description: "zones is a JSON array of {page, x0, y0, x1, y1}; redactions is accepted as an alias.",
		Tags:        []string{"redactions"},
		RequestBody: uploadBody("zones", "redactions"),
		Responses:   redactedResponses(),
	}

	autoDoc = &openapi.Operation{
		Summary:     "Detect and redact every finding",
		Tags:        []string{"redactions"},
		RequestBody: uploadBody("language"),
		Responses:   redactedResponses(),
	}
)

func uploadBody(fields ...string) *openapi.RequestBody {
	props := map[string]*openapi.Schema{
		"file": {Type: "string", Format: "binary"},
	}
	for _, f := range fields {
		props[f] = &openapi.Schema{Type: "string"}
	}

	return &openapi.RequestBody{
		Required: true,
		Content: map[string]*openapi.MediaType{
			"multipart/form-data": {
				Schema: &openapi.Schema{
					Type:       "object",
					Properties: props,
					Required:   []string{"file"},
				},
			},
		},
	}
}
