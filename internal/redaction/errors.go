package redaction

import (
	"errors"
	"net/http"
)

// Domain errors for redaction operations.
var (
	ErrMissingDocument     = errors.New("no document provided")
	ErrEmptyFilename       = errors.New("no selected file")
	ErrMalformedZones      = errors.New("zones must be a JSON array of objects")
	ErrUnsupportedDocument = errors.New("unsupported document type")
	ErrFileTooLarge        = errors.New("file exceeds maximum upload size")
	ErrProcessing          = errors.New("document processing failed")

	// ErrGeometry marks a zone whose coordinates cannot be applied. It only
	// appears in zone diagnostics.
	ErrGeometry = errors.New("invalid zone geometry")
)

// IsInputError reports whether err was caused by the caller's request.
func IsInputError(err error) bool {
	return errors.Is(err, ErrMissingDocument) ||
		errors.Is(err, ErrEmptyFilename) ||
		errors.Is(err, ErrMalformedZones) ||
		errors.Is(err, ErrUnsupportedDocument) ||
		errors.Is(err, ErrFileTooLarge)
}

// MapHTTPStatus maps redaction domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrFileTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	if IsInputError(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// PublicMessage returns the fixed message safe to show a client for err.
// Internal detail is never included.
func PublicMessage(err error) string {
	for _, known := range []error{
		ErrFileTooLarge,
		ErrMissingDocument,
		ErrEmptyFilename,
		ErrMalformedZones,
		ErrUnsupportedDocument,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return ErrProcessing.Error()
}
