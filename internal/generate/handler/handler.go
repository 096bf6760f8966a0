// Package handler exposes document generation over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"scriba/internal/generate"
	"scriba/internal/pdffill"
	"scriba/internal/platform/middleware"
	dErrors "scriba/pkg/domain-errors"
)

// Service defines the generation operations the handler exposes.
type Service interface {
	Generate(ctx context.Context, caseID, templateType string, flatten bool) (*generate.Result, error)
	Preview(ctx context.Context, caseID, templateType string) (*generate.PreviewResult, error)
}

// BlobGetter reads stored documents for download.
type BlobGetter interface {
	Get(ctx context.Context, path string) ([]byte, error)
}

// TokenVerifier checks a download token and returns the blob path it grants.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Handler wires document endpoints to the generation service.
type Handler struct {
	service  Service
	blobs    BlobGetter
	verifier TokenVerifier
	logger   *slog.Logger
}

// New constructs a document handler with its dependencies.
func New(service Service, blobs BlobGetter, verifier TokenVerifier, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		blobs:    blobs,
		verifier: verifier,
		logger:   logger,
	}
}

// Register mounts document endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/documents/generate", h.HandleGenerate)
	r.Post("/documents/preview", h.HandlePreview)
	r.Get("/documents/download/{token}", h.HandleDownload)
}

type generateRequest struct {
	CaseID       string `json:"case_id"`
	TemplateType string `json:"template_type"`
	Flatten      bool   `json:"flatten"`
}

func (r generateRequest) validate() error {
	if r.CaseID == "" {
		return dErrors.New(dErrors.CodeValidation, "case_id is required")
	}
	if r.TemplateType == "" {
		return dErrors.New(dErrors.CodeValidation, "template_type is required")
	}
	return nil
}

type generateResponse struct {
	Success bool           `json:"success"`
	URL     string         `json:"url"`
	Stats   generate.Stats `json:"stats"`
}

type previewResponse struct {
	Success bool                   `json:"success"`
	Fields  []pdffill.FieldPreview `json:"fields"`
	Stats   generate.Stats         `json:"stats"`
}

// HandleGenerate handles POST /documents/generate requests.
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)
	start := time.Now()

	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	result, err := h.service.Generate(ctx, req.CaseID, req.TemplateType, req.Flatten)
	if err != nil {
		h.logger.ErrorContext(ctx, "document generation failed",
			"request_id", requestID,
			"case_id", req.CaseID,
			"template_type", req.TemplateType,
			"error", err,
		)
		writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "document generation handled",
		"request_id", requestID,
		"case_id", req.CaseID,
		"template_type", req.TemplateType,
		"fill_rate", result.Stats.FillRate,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	writeJSON(w, http.StatusOK, generateResponse{Success: true, URL: result.URL, Stats: result.Stats})
}

// HandlePreview handles POST /documents/preview requests.
func (h *Handler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	result, err := h.service.Preview(ctx, req.CaseID, req.TemplateType)
	if err != nil {
		h.logger.ErrorContext(ctx, "document preview failed",
			"request_id", requestID,
			"case_id", req.CaseID,
			"template_type", req.TemplateType,
			"error", err,
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, previewResponse{Success: true, Fields: result.Fields, Stats: result.Stats})
}

// HandleDownload handles GET /documents/download/{token} requests. The token
// is the sole credential: whoever holds an unexpired one gets the document.
func (h *Handler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := chi.URLParam(r, "token")

	path, err := h.verifier.Verify(token)
	if err != nil {
		writeError(w, err)
		return
	}

	doc, err := h.blobs.Get(ctx, path)
	if err != nil {
		h.logger.ErrorContext(ctx, "document download failed",
			"request_id", middleware.GetRequestID(ctx),
			"path", path,
			"error", err,
		)
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (generateRequest, bool) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return req, false
	}
	if err := req.validate(); err != nil {
		writeError(w, err)
		return req, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, dErrors.ToHTTPStatus(dErrors.CodeOf(err)), map[string]any{
		"success": false,
		"error":   dErrors.MessageOf(err),
	})
}
