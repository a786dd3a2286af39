package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"radiography-shield/pkg/exposure"
	"radiography-shield/pkg/handoff"
	"radiography-shield/pkg/materials"
	"radiography-shield/pkg/shielding"
)

// =======================
// Public API entry points
// =======================

// ExposureLog persists exposure records.
type ExposureLog interface {
	InsertExposure(ctx context.Context, rec exposure.Record) error
	ListExposures(ctx context.Context, userID string, limit int) ([]exposure.Record, error)
	TotalDose(ctx context.Context, userID string, since time.Time) (float64, error)
}

// Handler wires the calculator, the custom-material catalog and the exposure
// log to HTTP routes.
type Handler struct {
	Catalog   *materials.Catalog
	Exposures ExposureLog
	Timers    *exposure.Timers
	// Links enables share codes; nil leaves the /s/ routes unregistered.
	Links SummaryLinks
	// Renders caches workbook and QR bytes; nil renders every time.
	Renders *RenderCache
	Logf    func(string, ...any)
	now     func() time.Time
}

// NewHandler constructs a Handler. Logf is optional; pass nil if logging is
// not required.
func NewHandler(catalog *materials.Catalog, exposures ExposureLog, timers *exposure.Timers, logf func(string, ...any)) *Handler {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	return &Handler{Catalog: catalog, Exposures: exposures, Timers: timers, Logf: logf, now: time.Now}
}

// Register attaches API routes to the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api", h.handleOverview)
	mux.HandleFunc("POST /api/calculate", h.handleCalculate)
	mux.HandleFunc("GET /api/tables", h.handleTables)
	mux.HandleFunc("GET /api/tables.xlsx", h.handleTablesWorkbook)
	mux.HandleFunc("GET /api/summary", h.handleSummary)
	mux.HandleFunc("GET /api/summary.png", h.handleSummaryQR)
	if h.Links != nil {
		mux.HandleFunc("POST /api/summary/share", h.handleSummaryShare)
		mux.HandleFunc("GET /s/{code}", h.handleShortLink)
		mux.HandleFunc("GET /s/{code}/qr.png", h.handleShortLinkQR)
	}
	mux.HandleFunc("GET /api/materials", h.handleMaterialsList)
	mux.HandleFunc("PUT /api/materials/{name}", h.handleMaterialSave)
	mux.HandleFunc("DELETE /api/materials/{name}", h.handleMaterialDelete)
	mux.HandleFunc("GET /api/exposures", h.handleExposuresList)
	mux.HandleFunc("POST /api/exposures", h.handleExposureLog)
	mux.HandleFunc("POST /api/exposures/timer/start", h.handleTimerStart)
	mux.HandleFunc("POST /api/exposures/timer/stop", h.handleTimerStop)
}

// handleOverview publishes machine-readable docs for the routes above.
func (h *Handler) handleOverview(w http.ResponseWriter, r *http.Request) {
	type endpoint struct {
		Method      string `json:"method"`
		Path        string `json:"path"`
		Description string `json:"description"`
	}
	h.respondJSON(w, http.StatusOK, map[string]any{
		"isotopes":  []string{shielding.Ir192.String(), shielding.Se75.String()},
		"limits":    map[string]float64{"high": shielding.HighLimitMSvPerHour, "low": shielding.LowLimitMSvPerHour},
		"materials": materials.Predefined(),
		"endpoints": []endpoint{
			{"POST", "/api/calculate", "Solves distance (known thickness in mm) or thickness (known distance in m)."},
			{"GET", "/api/tables", "Dose-rate and required-distance grids for the given source and material."},
			{"GET", "/api/tables.xlsx", "The same grids as a workbook."},
			{"GET", "/api/summary", "Re-reads a calculation from its flat parameter set."},
			{"GET", "/api/summary.png", "QR code linking to the summary."},
			{"POST", "/api/summary/share", "Stores the summary parameters under a short code (/s/{code}, /s/{code}/qr.png)."},
			{"GET", "/api/materials", "The caller's custom materials."},
			{"PUT", "/api/materials/{name}", "Saves a custom material; add confirm=true to overwrite."},
			{"DELETE", "/api/materials/{name}", "Deletes a custom material."},
			{"GET", "/api/exposures", "Logged exposures and accumulated dose."},
			{"POST", "/api/exposures", "Logs an exposure with a known duration."},
			{"POST", "/api/exposures/timer/start", "Starts the caller's exposure timer."},
			{"POST", "/api/exposures/timer/stop", "Stops the timer and logs the exposure."},
		},
	})
}

// =====================
// Utility helpers
// =====================

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(payload); err != nil {
		h.Logf("write response: %v", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// respondError maps domain errors onto status codes. Calculation errors are
// user-facing; anything unexpected is logged and hidden.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var ce *shielding.CalcError
	switch {
	case errors.As(err, &ce):
		h.respondJSON(w, http.StatusUnprocessableEntity, errorBody{Error: ce.Error(), Kind: ce.Kind.String()})
	case errors.Is(err, materials.ErrMaterialExists):
		h.respondJSON(w, http.StatusConflict, errorBody{Error: err.Error() + "; resend with confirm=true to overwrite", Kind: "exists"})
	case errors.Is(err, materials.ErrMaterialNotFound):
		h.respondJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, handoff.ErrLinkNotFound):
		h.respondJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	case errors.Is(err, exposure.ErrNotRunning):
		h.respondJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, materials.ErrReservedName),
		errors.Is(err, materials.ErrNameRequired),
		errors.Is(err, materials.ErrUserRequired),
		errors.Is(err, errBadBody):
		h.respondJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, context.Canceled):
		http.Error(w, "request cancelled", http.StatusRequestTimeout)
	default:
		h.Logf("internal error: %v", err)
		h.respondJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

var errBadBody = errors.New("malformed request body")

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return errors.Join(errBadBody, err)
	}
	return nil
}

// userID reads the caller identity from the X-User-ID header or the user
// query parameter.
func userID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-User-ID")); id != "" {
		return id
	}
	return strings.TrimSpace(r.URL.Query().Get("user"))
}

func parseIntDefault(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
