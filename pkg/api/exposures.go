package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"radiography-shield/pkg/exposure"
	"radiography-shield/pkg/materials"
	"radiography-shield/pkg/shielding"
)

// exposureForm is the source description plus the working position. Duration
// is only read by POST /api/exposures; the timer routes measure it.
type exposureForm struct {
	calcForm
	Distance        string `json:"distance"`
	Thickness       string `json:"thickness"`
	DurationSeconds string `json:"durationSeconds"`
}

func (h *Handler) exposureInput(r *http.Request, user string, f exposureForm) (exposure.Input, error) {
	src, err := f.source()
	if err != nil {
		return exposure.Input{}, err
	}
	c, err := materials.Resolve(materials.Request{
		Isotope:    src.Isotope,
		Collimator: src.Collimator,
		Material:   src.Material,
		Mode:       shielding.SolveDistance,
	}, h.customMaterials(r))
	if err != nil {
		return exposure.Input{}, err
	}
	distance, err := numberField("distance", f.Distance)
	if err != nil {
		return exposure.Input{}, err
	}
	var thickness float64
	if c.Mu > 0 && strings.TrimSpace(f.Thickness) != "" {
		if thickness, err = numberField("thickness", f.Thickness); err != nil {
			return exposure.Input{}, err
		}
	}
	return exposure.Input{
		UserID:      user,
		Isotope:     src.Isotope,
		ActivityCi:  src.Activity,
		Collimator:  src.Collimator,
		Constants:   c,
		DistanceM:   distance,
		ThicknessMM: thickness,
	}, nil
}

func (h *Handler) save(ctx context.Context, in exposure.Input) (exposure.Record, error) {
	rec, err := exposure.Compute(in, h.now())
	if err != nil {
		return exposure.Record{}, err
	}
	if err := h.Exposures.InsertExposure(ctx, rec); err != nil {
		return exposure.Record{}, err
	}
	h.Logf("exposure %s for %s: %.4f mSv over %s", rec.ID, rec.UserID, rec.Dose, rec.Duration)
	return rec, nil
}

// handleExposureLog logs an exposure whose duration the caller measured.
func (h *Handler) handleExposureLog(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		h.respondError(w, materials.ErrUserRequired)
		return
	}
	var f exposureForm
	if err := decodeBody(w, r, &f); err != nil {
		h.respondError(w, err)
		return
	}
	in, err := h.exposureInput(r, user, f)
	if err != nil {
		h.respondError(w, err)
		return
	}
	seconds, err := numberField("durationSeconds", f.DurationSeconds)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if in.Duration, err = exposure.DurationFromSeconds(seconds); err != nil {
		h.respondError(w, err)
		return
	}
	rec, err := h.save(r.Context(), in)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, rec)
}

func (h *Handler) handleTimerStart(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		h.respondError(w, materials.ErrUserRequired)
		return
	}
	elapsed, err := h.Timers.Start(r.Context(), user)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"running": true, "elapsedSeconds": elapsed.Seconds()})
}

// handleTimerStop records the running time and only then clears the timer, so
// a rejected body or a failed insert leaves the timer running.
func (h *Handler) handleTimerStop(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		h.respondError(w, materials.ErrUserRequired)
		return
	}
	var f exposureForm
	if err := decodeBody(w, r, &f); err != nil {
		h.respondError(w, err)
		return
	}
	in, err := h.exposureInput(r, user, f)
	if err != nil {
		h.respondError(w, err)
		return
	}
	elapsed, running, err := h.Timers.Elapsed(r.Context(), user)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if !running {
		h.respondError(w, exposure.ErrNotRunning)
		return
	}
	in.Duration = elapsed
	rec, err := h.save(r.Context(), in)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if _, err := h.Timers.Stop(context.WithoutCancel(r.Context()), user); err != nil {
		h.Logf("exposure %s recorded but timer for %s not cleared: %v", rec.ID, user, err)
	}
	h.respondJSON(w, http.StatusCreated, rec)
}

// handleExposuresList returns the newest records and the dose accumulated
// since the given RFC 3339 time (default: start of the current year).
func (h *Handler) handleExposuresList(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		h.respondError(w, materials.ErrUserRequired)
		return
	}
	q := r.URL.Query()
	limit := clampInt(parseIntDefault(q.Get("limit"), 50), 1, 500)

	now := h.now().UTC()
	since := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			h.respondError(w, shielding.NewError(shielding.InvalidInput, "since", "invalid input %q", v))
			return
		}
		since = t
	}

	records, err := h.Exposures.ListExposures(r.Context(), user, limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	total, err := h.Exposures.TotalDose(r.Context(), user, since)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if records == nil {
		records = []exposure.Record{}
	}
	h.respondJSON(w, http.StatusOK, map[string]any{
		"exposures": records,
		"totalDose": total,
		"since":     since,
	})
}
