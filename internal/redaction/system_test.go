package redaction_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/JaimeStill/shroud/internal/detection"
	"github.com/JaimeStill/shroud/internal/redaction"
)

func TestSystemDetect(t *testing.T) {
	sys := newSystem(t, detection.Registration{
		Language: "en",
		Detector: &textDetector{entity: "PERSON", values: []string{"John Smith", "Nobody Here"}, score: 0.85},
	})

	data := layoutBytes(t, "Contact John Smith\nEmail: john.doe@example.com", "Call 555-0123 today")

	result, err := sys.Detect(context.Background(), redaction.DetectCommand{
		Data:     data,
		Filename: "contacts.json",
	})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}

	if result.Language != "en" || result.PageCount != 2 || result.Filename != "contacts.json" {
		t.Errorf("result = %+v", result)
	}

	type key struct {
		page   int
		entity string
		text   string
	}
	var got []key
	for _, f := range result.Findings {
		got = append(got, key{f.Page, f.EntityType, f.Text})
	}

	// "Nobody Here" does not occur on either page and yields no finding; the
	// person detector's text appears once, on page 1.
	want := []key{
		{1, "PERSON", "John Smith"},
		{1, "EMAIL_ADDRESS", "john.doe@example.com"},
		{2, "PHONE_NUMBER", "555-0123"},
	}
	if len(got) != len(want) {
		t.Fatalf("findings = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("finding %d = %v, want %v", i, got[i], want[i])
		}
	}

	again, err := sys.Detect(context.Background(), redaction.DetectCommand{Data: data, Filename: "contacts.json"})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if again.Findings[0].ID != result.Findings[0].ID {
		t.Error("finding IDs are not stable across detections")
	}
}

func TestSystemDetectHebrew(t *testing.T) {
	sys := newSystem(t)

	result, err := sys.Detect(context.Background(), redaction.DetectCommand{
		Data:     layoutBytes(t, "My ID is 123456789. Call me at 054-1234567."),
		Filename: "he.json",
		Language: "he",
	})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}

	if result.Language != "he" || len(result.Findings) != 2 {
		t.Fatalf("result = %+v", result)
	}
	if f := result.Findings[0]; f.EntityType != "IL_ID" || f.Text != "123456789" {
		t.Errorf("finding 0 = %+v", f)
	}
	if f := result.Findings[1]; f.EntityType != "IL_PHONE" || f.Text != "054-1234567" {
		t.Errorf("finding 1 = %+v", f)
	}
}

func TestSystemLowScoreStatisticalDropped(t *testing.T) {
	sys := newSystem(t, detection.Registration{
		Language: "en",
		Detector: &textDetector{entity: "PERSON", values: []string{"John Smith"}, score: 0.4},
	})

	data := layoutBytes(t, "Contact John Smith")

	result, err := sys.Detect(context.Background(), redaction.DetectCommand{
		Data:     data,
		Filename: "low.json",
	})
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(result.Findings) != 0 {
		t.Errorf("findings = %+v, want none", result.Findings)
	}

	outcome, err := sys.AutoRedact(context.Background(), redaction.AutoRedactCommand{
		Data:     data,
		Filename: "low.json",
	})
	if err != nil {
		t.Fatalf("AutoRedact: %v", err)
	}
	if outcome.Applied != 0 || outcome.Skipped != 0 {
		t.Errorf("report = %+v, want nothing applied", outcome.Report)
	}
	if text := pageTexts(t, openBytes(t, outcome.Data))[0]; !strings.Contains(text, "John Smith") {
		t.Errorf("text = %q, want the low-score name kept", text)
	}
}

func TestSystemAutoRedact(t *testing.T) {
	sys := newSystem(t, detection.Registration{
		Language: "en",
		Detector: &textDetector{entity: "PERSON", values: []string{"John Smith"}, score: 0.9},
	})

	outcome, err := sys.AutoRedact(context.Background(), redaction.AutoRedactCommand{
		Data:     layoutBytes(t, "Contact John Smith\nEmail: john.doe@example.com"),
		Filename: "contacts.json",
	})
	if err != nil {
		t.Fatalf("AutoRedact: %v", err)
	}

	if outcome.Filename != "redacted_contacts.json" {
		t.Errorf("Filename = %q", outcome.Filename)
	}
	if outcome.Applied != 2 || outcome.Skipped != 0 {
		t.Errorf("report = %+v", outcome.Report)
	}

	text := pageTexts(t, openBytes(t, outcome.Data))[0]
	if strings.Contains(text, "John Smith") || strings.Contains(text, "john.doe") {
		t.Errorf("text = %q", text)
	}
	if !strings.Contains(text, "Contact") || !strings.Contains(text, "Email:") {
		t.Errorf("text = %q", text)
	}
}

func TestSystemAutoRedactPDF(t *testing.T) {
	sys := newSystem(t)

	outcome, err := sys.AutoRedact(context.Background(), redaction.AutoRedactCommand{
		Data:     buildPDF("BT /F1 12 Tf 72 720 Td (Email: john.doe@example.com) Tj ET"),
		Filename: "letter.pdf",
	})
	if err != nil {
		t.Fatalf("AutoRedact: %v", err)
	}
	if outcome.ContentType != "application/pdf" || outcome.Applied != 1 {
		t.Errorf("outcome = %s %+v", outcome.ContentType, outcome.Report)
	}

	text := pageTexts(t, openBytes(t, outcome.Data))[0]
	if strings.Contains(text, "example.com") || !strings.Contains(text, "Email:") {
		t.Errorf("text = %q", text)
	}
}

func TestSystemRedact(t *testing.T) {
	sys := newSystem(t)
	data := layoutBytes(t, "Contact John Smith")

	outcome, err := sys.Redact(context.Background(), redaction.RedactCommand{
		Data:     data,
		Filename: "dir/contacts.json",
		Zones: []redaction.Zone{
			zoneFor(t, data, 1, "John Smith"),
			{Page: 4, X0: 0, Y0: 0, X1: 10, Y1: 10},
		},
	})
	if err != nil {
		t.Fatalf("Redact: %v", err)
	}

	if outcome.Filename != "redacted_contacts.json" {
		t.Errorf("Filename = %q", outcome.Filename)
	}
	if outcome.Applied != 1 || outcome.Skipped != 1 {
		t.Errorf("report = %+v", outcome.Report)
	}
}

func TestSystemErrors(t *testing.T) {
	sys := newSystem(t)

	tests := []struct {
		name string
		cmd  redaction.RedactCommand
		want error
	}{
		{"missing document", redaction.RedactCommand{Filename: "a.pdf"}, redaction.ErrMissingDocument},
		{"empty filename", redaction.RedactCommand{Data: []byte("%PDF-1.4"), Filename: " "}, redaction.ErrEmptyFilename},
		{"unsupported", redaction.RedactCommand{Data: []byte("plain text"), Filename: "a.txt"}, redaction.ErrUnsupportedDocument},
		{"malformed pdf", redaction.RedactCommand{Data: []byte("%PDF-1.4 garbage"), Filename: "a.pdf"}, redaction.ErrProcessing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := sys.Redact(context.Background(), tt.cmd)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
			if outcome != nil {
				t.Error("no output may be returned on error")
			}
		})
	}
}

func TestSystemCatalog(t *testing.T) {
	sys := newSystem(t)
	cat := sys.Catalog()

	if cat.Primary != "en" {
		t.Errorf("Primary = %q", cat.Primary)
	}
	if len(cat.Languages) != 2 {
		t.Errorf("Languages = %+v", cat.Languages)
	}
	if len(cat.Diagnostics) == 0 {
		t.Error("expected diagnostics")
	}
}
