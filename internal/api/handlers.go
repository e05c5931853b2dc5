package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/bizvalidator/internal/analysis"
	"github.com/sells-group/bizvalidator/internal/lead"
	"github.com/sells-group/bizvalidator/internal/model"
	"github.com/sells-group/bizvalidator/internal/report"
	"github.com/sells-group/bizvalidator/internal/store"
)

// Handler carries the services behind the HTTP surface.
type Handler struct {
	store        store.Store
	orchestrator *analysis.Orchestrator
	leads        *lead.Service
	reports      *report.Service
}

// NewHandler wires the lifecycle services into an HTTP handler set.
func NewHandler(st store.Store, orch *analysis.Orchestrator, leads *lead.Service, reports *report.Service) *Handler {
	return &Handler{store: st, orchestrator: orch, leads: leads, reports: reports}
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateQuick creates a validation record without triggering analysis.
func (h *Handler) CreateQuick(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeValidationInput(w, r)
	if !ok {
		return
	}

	rec, err := h.store.CreateValidation(r.Context(), *in)
	if err != nil {
		zap.L().Error("create validation", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// CreateAndAnalyze creates a record and runs analysis synchronously. When
// generation fails the record is still returned, with the fallback payload
// embedded, so the client can offer a retry.
func (h *Handler) CreateAndAnalyze(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeValidationInput(w, r)
	if !ok {
		return
	}

	rec, err := h.store.CreateValidation(r.Context(), *in)
	if err != nil {
		zap.L().Error("create validation", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	updated, err := h.orchestrator.Analyze(r.Context(), rec.ID, false)
	if err != nil {
		if updated == nil {
			zap.L().Error("analyze after create", zap.Int64("id", rec.ID), zap.Error(err))
			writeMessage(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		// Generation failed; the fallback sentinel is already persisted.
		writeJSON(w, http.StatusOK, updated)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Analyze triggers analysis for an existing record. With ?mode=async the
// call returns 202 immediately and the client polls the record until its
// status changes. With ?force=true a ready record may be re-analyzed.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}
	force := r.URL.Query().Get("force") == "true"

	if r.URL.Query().Get("mode") == "async" {
		if _, err := h.store.GetValidation(r.Context(), id); err != nil {
			respondStoreError(w, err)
			return
		}
		// Detached from the request: the trigger returns immediately and the
		// attempt finishes in the background.
		go func() {
			if _, err := h.orchestrator.Analyze(context.Background(), id, force); err != nil {
				zap.L().Error("async analysis failed", zap.Int64("id", id), zap.Error(err))
			}
		}()
		writeJSON(w, http.StatusAccepted, map[string]any{"status": "accepted", "id": id})
		return
	}

	rec, err := h.orchestrator.Analyze(r.Context(), id, force)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, rec)
	case eris.Is(err, store.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "Validation not found")
	case eris.Is(err, analysis.ErrAlreadyAnalyzed):
		writeMessage(w, http.StatusConflict, "Analysis already completed; pass force=true to re-run")
	case rec != nil:
		// Generation failure: sentinel persisted, reported via status and body.
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"message":  "Analysis failed",
			"error":    "Failed to generate AI analysis. Please try again.",
			"fallback": true,
		})
	default:
		zap.L().Error("analyze", zap.Int64("id", id), zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

// List returns all validation records.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	recs, err := h.store.ListValidations(r.Context())
	if err != nil {
		zap.L().Error("list validations", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if recs == nil {
		recs = []model.ValidationRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// Get returns a single validation record.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}

	rec, err := h.store.GetValidation(r.Context(), id)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// CaptureLead captures a sales lead, deduplicated by email.
func (h *Handler) CaptureLead(w http.ResponseWriter, r *http.Request) {
	var l model.Lead
	if err := json.NewDecoder(r.Body).Decode(&l); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid lead data")
		return
	}
	if fields := l.FieldErrors(); fields != nil {
		writeFieldErrors(w, "Invalid lead data", fields)
		return
	}

	result, err := h.leads.Capture(r.Context(), l)
	if err != nil {
		zap.L().Error("lead capture failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"message": "Failed to create lead",
			"error":   err.Error(),
		})
		return
	}

	msg := "Lead created successfully"
	if !result.IsNew {
		msg = "Lead already exists - updated information"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"leadId":    result.LeadID,
		"hubspotId": result.HubSpotID,
		"isNew":     result.IsNew,
		"message":   msg,
	})
}

// downloadRequest is the body for the report download endpoint.
type downloadRequest struct {
	LeadData *report.LeadInfo `json:"leadData"`
}

// Download renders the gated PDF report for a record.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	id, ok := recordID(w, r)
	if !ok {
		return
	}

	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.LeadData == nil {
		writeMessage(w, http.StatusBadRequest, "Lead data is required for PDF download")
		return
	}

	pdf, filename, err := h.reports.Render(r.Context(), id, *req.LeadData)
	switch {
	case err == nil:
	case eris.Is(err, store.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "Validation not found")
		return
	case eris.Is(err, report.ErrLeadDataRequired):
		writeMessage(w, http.StatusBadRequest, "Lead data is required for PDF download")
		return
	case eris.Is(err, report.ErrAnalysisNotReady), eris.Is(err, report.ErrAnalysisInvalid):
		writeMessage(w, http.StatusBadRequest, "Analysis not available for this validation")
		return
	default:
		zap.L().Error("pdf generation failed", zap.Int64("id", id), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"message": "Failed to generate PDF",
			"error":   err.Error(),
		})
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdf)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		zap.L().Error("write pdf", zap.Error(err))
	}
}

// decodeValidationInput decodes and validates a creation payload, writing
// the 400 response itself when the payload is rejected.
func decodeValidationInput(w http.ResponseWriter, r *http.Request) (*model.ValidationInput, bool) {
	var in model.ValidationInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid validation data")
		return nil, false
	}
	if fields := in.FieldErrors(); fields != nil {
		writeFieldErrors(w, "Invalid validation data", fields)
		return nil, false
	}
	return &in, true
}

// recordID parses the {id} path parameter, writing the 400 response on
// malformed input.
func recordID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "Invalid validation ID")
		return 0, false
	}
	return id, true
}

func respondStoreError(w http.ResponseWriter, err error) {
	if eris.Is(err, store.ErrNotFound) {
		writeMessage(w, http.StatusNotFound, "Validation not found")
		return
	}
	zap.L().Error("store error", zap.Error(err))
	writeMessage(w, http.StatusInternalServerError, "Internal server error")
}
