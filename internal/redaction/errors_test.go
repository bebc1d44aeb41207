package redaction_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/JaimeStill/shroud/internal/redaction"
)

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"missing document", redaction.ErrMissingDocument, http.StatusBadRequest},
		{"empty filename", redaction.ErrEmptyFilename, http.StatusBadRequest},
		{"malformed zones", redaction.ErrMalformedZones, http.StatusBadRequest},
		{"unsupported", redaction.ErrUnsupportedDocument, http.StatusBadRequest},
		{"too large", redaction.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{"processing", redaction.ErrProcessing, http.StatusInternalServerError},
		{"wrapped input", fmt.Errorf("%w: multipart: NextPart: EOF", redaction.ErrMissingDocument), http.StatusBadRequest},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := redaction.MapHTTPStatus(tt.err); got != tt.want {
				t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestPublicMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"input error", fmt.Errorf("%w: detail", redaction.ErrMalformedZones), "zones must be a JSON array of objects"},
		{"processing with detail", fmt.Errorf("%w: object 12 0 R: bad stream", redaction.ErrProcessing), "document processing failed"},
		{"unknown", errors.New("/tmp/upload-123: permission denied"), "document processing failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := redaction.PublicMessage(tt.err); got != tt.want {
				t.Errorf("PublicMessage = %q, want %q", got, tt.want)
			}
		})
	}
}
