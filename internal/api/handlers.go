package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/roofledger/scopediff/internal/domain"
	"github.com/roofledger/scopediff/internal/ingestion"
	"github.com/roofledger/scopediff/internal/reconciliation"
	"github.com/roofledger/scopediff/internal/repository"
)

const (
	maxUploadBytes  = 32 << 20
	maxRequestBytes = 8 << 20
)

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	estimates    *repository.EstimateRepo
	reconSvc     *reconciliation.Service
	ingestionSvc *ingestion.Service
	logger       *slog.Logger
}

// --- helpers ---

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response", "error", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}

// writeLookupError maps repository and service errors to a status code.
func (h *Handlers) writeLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, reconciliation.ErrEstimateMissing):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.logger.Error("request failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return def
	}
	return v
}

// --- Health ---

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- ComputeDelta ---

type deltaRequest struct {
	Adjuster   []domain.LineItem `json:"adjuster" validate:"max=5000,dive"`
	Contractor []domain.LineItem `json:"contractor" validate:"max=5000,dive"`
}

func (h *Handlers) ComputeDelta(w http.ResponseWriter, r *http.Request) {
	var req deltaRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := domain.Validate(req); err != nil {
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	res := h.reconSvc.Compare(req.Adjuster, req.Contractor)
	h.writeJSON(w, http.StatusOK, res)
}

// --- IngestEstimate ---

func (h *Handlers) IngestEstimate(w http.ResponseWriter, r *http.Request) {
	claimID := chi.URLParam(r, "claimID")

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	party := r.FormValue("party")
	format := r.FormValue("format")
	if party == "" || format == "" {
		h.writeError(w, http.StatusBadRequest, "party and format are required")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "file field is required: "+err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "read file: "+err.Error())
		return
	}

	result, err := h.ingestionSvc.IngestEstimate(r.Context(), claimID, domain.Party(party), format, data)
	switch {
	case errors.Is(err, ingestion.ErrInvalidParty), errors.Is(err, ingestion.ErrUnsupportedFormat):
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	status := http.StatusCreated
	if result.AlreadyIngested {
		status = http.StatusOK
	}
	h.writeJSON(w, status, result)
}

// --- ListEstimates ---

func (h *Handlers) ListEstimates(w http.ResponseWriter, r *http.Request) {
	claimID := chi.URLParam(r, "claimID")

	estimates, err := h.estimates.ListByClaim(r.Context(), claimID)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	if estimates == nil {
		estimates = []domain.Estimate{}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"claim_id":  claimID,
		"estimates": estimates,
		"total":     len(estimates),
	})
}

// --- Reconcile ---

func (h *Handlers) Reconcile(w http.ResponseWriter, r *http.Request) {
	cmp, err := h.reconSvc.Reconcile(r.Context(), chi.URLParam(r, "claimID"))
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, cmp)
}

// --- GetLatestComparison ---

func (h *Handlers) GetLatestComparison(w http.ResponseWriter, r *http.Request) {
	cmp, err := h.reconSvc.LatestComparison(r.Context(), chi.URLParam(r, "claimID"))
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, cmp)
}

// --- ListVariances ---

func (h *Handlers) ListVariances(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	claimID := chi.URLParam(r, "claimID")

	kind := domain.VarianceKind(q.Get("kind"))
	if kind != "" && !kind.Valid() {
		h.writeError(w, http.StatusBadRequest, "unknown kind: "+string(kind))
		return
	}
	sev := domain.Severity(q.Get("severity"))
	if sev != "" && !sev.Valid() {
		h.writeError(w, http.StatusBadRequest, "unknown severity: "+string(sev))
		return
	}

	cmp, err := h.reconSvc.LatestComparisonHeader(r.Context(), claimID)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}

	filter := repository.VarianceFilter{
		ComparisonID: cmp.ID,
		Kind:         string(kind),
		Severity:     string(sev),
		Page:         parseIntDefault(q.Get("page"), 1),
		Limit:        min(parseIntDefault(q.Get("limit"), 50), repository.MaxVarianceLimit),
	}

	vs, total, err := h.reconSvc.ListVariances(r.Context(), filter)
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	if vs == nil {
		vs = []domain.Variance{}
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"comparison_id": cmp.ID,
		"variances":     vs,
		"total":         total,
		"page":          filter.Page,
		"limit":         filter.Limit,
	})
}

// --- GetVarianceSummary ---

func (h *Handlers) GetVarianceSummary(w http.ResponseWriter, r *http.Request) {
	st, err := h.reconSvc.Summary(r.Context(), chi.URLParam(r, "claimID"))
	if err != nil {
		h.writeLookupError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, st)
}
