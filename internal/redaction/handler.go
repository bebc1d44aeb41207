package redaction

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/JaimeStill/shroud/pkg/formatting"
	"github.com/JaimeStill/shroud/pkg/handlers"
	"github.com/JaimeStill/shroud/pkg/routes"
)

// Handler provides HTTP endpoints for redaction operations.
type Handler struct {
	sys           System
	logger        *slog.Logger
	maxUploadSize int64
}

// NewHandler creates a Handler with the given system, logger, and upload size limit.
func NewHandler(sys System, logger *slog.Logger, maxUploadSize int64) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "redaction"),
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the redaction endpoints with their OpenAPI operations.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/detectors", Handler: h.Detectors, Doc: detectorsDoc},
		},
		Children: []routes.Group{
			{
				Prefix: "/redactions",
				Routes: []routes.Route{
					{Method: "POST", Pattern: "/detect", Handler: h.Detect, Doc: detectDoc},
					{Method: "POST", Pattern: "/apply", Handler: h.Apply, Doc: applyDoc},
					{Method: "POST", Pattern: "/auto", Handler: h.Auto, Doc: autoDoc},
				},
			},
		},
	}
}

// Detectors returns the languages, entity types, and detector availability.
func (h *Handler) Detectors(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.sys.Catalog())
}

// Detect scans an uploaded document and returns findings without modifying it.
func (h *Handler) Detect(w http.ResponseWriter, r *http.Request) {
	up, err := h.readUpload(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	result, err := h.sys.Detect(r.Context(), DetectCommand{
		Data:     up.data,
		Filename: up.filename,
		Language: r.FormValue("language"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Apply redacts an uploaded document using the reviewed zones in the
// "zones" form field, or "redactions" when zones is absent.
func (h *Handler) Apply(w http.ResponseWriter, r *http.Request) {
	up, err := h.readUpload(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	raw := r.FormValue("zones")
	if raw == "" {
		raw = r.FormValue("redactions")
	}

	zones, err := ParseZones([]byte(raw))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	outcome, err := h.sys.Redact(r.Context(), RedactCommand{
		Data:     up.data,
		Filename: up.filename,
		Zones:    zones,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeOutcome(w, outcome)
}

// Auto detects and redacts an uploaded document in one call.
func (h *Handler) Auto(w http.ResponseWriter, r *http.Request) {
	up, err := h.readUpload(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	outcome, err := h.sys.AutoRedact(r.Context(), AutoRedactCommand{
		Data:     up.data,
		Filename: up.filename,
		Language: r.FormValue("language"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeOutcome(w, outcome)
}

type upload struct {
	data     []byte
	filename string
}

func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return upload{}, ErrFileTooLarge
		}
		return upload{}, fmt.Errorf("%w: %w", ErrMissingDocument, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		// a file part submitted without a filename arrives as a plain value
		if _, ok := r.MultipartForm.Value["file"]; ok {
			return upload{}, ErrEmptyFilename
		}
		return upload{}, fmt.Errorf("%w: %w", ErrMissingDocument, err)
	}
	defer file.Close()

	if header.Filename == "" {
		return upload{}, ErrEmptyFilename
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return upload{}, fmt.Errorf("%w: read upload: %w", ErrProcessing, err)
	}

	return upload{data: data, filename: header.Filename}, nil
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	logger := h.logger.With("path", r.URL.Path)
	if errors.Is(err, ErrFileTooLarge) {
		logger = logger.With("limit", formatting.FormatBytes(h.maxUploadSize, 0))
	}
	handlers.RespondSafeError(w, logger, MapHTTPStatus(err), err, PublicMessage(err))
}

func writeOutcome(w http.ResponseWriter, o *Outcome) {
	w.Header().Set("Content-Type", o.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(o.Data)))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": o.Filename}))
	w.Header().Set("X-Redaction-Applied", strconv.Itoa(o.Applied))
	w.Header().Set("X-Redaction-Skipped", strconv.Itoa(o.Skipped))
	w.Header().Set("X-Redaction-Residual", strconv.Itoa(len(o.Residual)))
	w.WriteHeader(http.StatusOK)
	w.Write(o.Data)
}
