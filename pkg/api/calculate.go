package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"radiography-shield/pkg/handoff"
	"radiography-shield/pkg/logger"
	"radiography-shield/pkg/materials"
	"radiography-shield/pkg/shielding"
	"radiography-shield/pkg/tableexport"
)

// calcForm mirrors the calculator form. Every field arrives as text so that
// blank and malformed inputs are classified here, not by the JSON decoder.
type calcForm struct {
	Isotope    string `json:"isotope"`
	Activity   string `json:"activity"`
	Collimator string `json:"collimator"`
	Limit      string `json:"limit"`
	Material   string `json:"material"`
	OtherName  string `json:"otherName"`
	OtherIr    string `json:"otherIr"`
	OtherSe    string `json:"otherSe"`
	Mode       string `json:"mode"`
	Known      string `json:"known"`
}

func formFromQuery(q url.Values) calcForm {
	return calcForm{
		Isotope:    q.Get("isotope"),
		Activity:   q.Get("activity"),
		Collimator: q.Get("collimator"),
		Limit:      q.Get("limit"),
		Material:   q.Get("material"),
		OtherName:  q.Get("otherName"),
		OtherIr:    q.Get("otherIr"),
		OtherSe:    q.Get("otherSe"),
		Mode:       q.Get("mode"),
		Known:      q.Get("known"),
	}
}

// parsedSource is the part of the form shared by calculations, tables and
// exposures.
type parsedSource struct {
	Isotope    shielding.Isotope
	Collimator bool
	Activity   float64
	Material   materials.Selection
}

func (f calcForm) source() (parsedSource, error) {
	iso, err := shielding.ParseIsotope(f.Isotope)
	if err != nil {
		return parsedSource{}, err
	}
	collimator, err := shielding.ParseCollimator(f.Collimator)
	if err != nil {
		return parsedSource{}, err
	}
	activity, err := numberField("activity", f.Activity)
	if err != nil {
		return parsedSource{}, err
	}
	sel := materials.ParseSelection(f.Material, f.OtherName, f.OtherIr, f.OtherSe)
	if sel.Kind == materials.KindUnselected {
		return parsedSource{}, shielding.NewError(shielding.MissingInput, "material", "required")
	}
	return parsedSource{Isotope: iso, Collimator: collimator, Activity: activity, Material: sel}, nil
}

// numberField rejects blank and non-numeric text before any arithmetic runs.
func numberField(field, raw string) (float64, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, shielding.NewError(shielding.MissingInput, field, "required")
	}
	v, err := materials.ParseFloat(raw)
	if err != nil {
		return 0, shielding.NewError(shielding.InvalidInput, field, "invalid input %q", raw)
	}
	return v, nil
}

type calcResponse struct {
	ID                string              `json:"id"`
	Isotope           string              `json:"isotope"`
	Material          string              `json:"material"`
	Limit             string              `json:"limit"`
	Mode              string              `json:"mode"`
	Constants         shielding.Constants `json:"constants"`
	ActivityGBq       float64             `json:"activityGBq"`
	ReferenceDistance float64             `json:"referenceDistance"`
	Value             float64             `json:"value"`
	Unit              string              `json:"unit"`
	Handoff           map[string]string   `json:"handoff"`
	SummaryURL        string              `json:"summaryUrl"`
}

// calculate runs one single-point solve with the caller's custom materials.
func (h *Handler) calculate(r *http.Request, f calcForm) (handoff.Summary, error) {
	src, err := f.source()
	if err != nil {
		return handoff.Summary{}, err
	}
	limit, err := shielding.ParseDoseLimit(f.Limit)
	if err != nil {
		return handoff.Summary{}, err
	}
	mode, err := shielding.ParseMode(f.Mode)
	if err != nil {
		return handoff.Summary{}, err
	}

	c, err := materials.Resolve(materials.Request{
		Isotope:    src.Isotope,
		Collimator: src.Collimator,
		Material:   src.Material,
		Mode:       mode,
	}, h.customMaterials(r))
	if err != nil {
		return handoff.Summary{}, err
	}

	var known float64
	if c.Mu > 0 {
		field := "thickness"
		if mode == shielding.SolveThickness {
			field = "distance"
		}
		if known, err = numberField(field, f.Known); err != nil {
			return handoff.Summary{}, err
		}
	}

	res, err := shielding.Solve(shielding.Problem{
		Constants:  c,
		ActivityCi: src.Activity,
		Limit:      limit.Value(),
		Mode:       mode,
		Known:      known,
	})
	if err != nil {
		return handoff.Summary{}, err
	}
	return handoff.Summary{
		Isotope:    src.Isotope,
		Collimator: src.Collimator,
		Limit:      limit,
		Material:   src.Material.Label(),
		Result:     res,
	}, nil
}

func (h *Handler) customMaterials(r *http.Request) map[string]materials.Coefficients {
	user := userID(r)
	if user == "" || h.Catalog == nil {
		return nil
	}
	return h.Catalog.Snapshot(r.Context(), user)
}

func (h *Handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var f calcForm
	if err := decodeBody(w, r, &f); err != nil {
		h.respondError(w, err)
		return
	}

	id := uuid.NewString()
	logger.Begin(id)
	logger.Append(id, fmt.Sprintf("isotope=%q activity=%q collimator=%q limit=%q", f.Isotope, f.Activity, f.Collimator, f.Limit))
	logger.Append(id, fmt.Sprintf("material=%q other=%q ir=%q se=%q mode=%q known=%q",
		f.Material, f.OtherName, f.OtherIr, f.OtherSe, f.Mode, f.Known))

	s, err := h.calculate(r, f)
	if err != nil {
		logger.FlushError(id, err)
		h.respondError(w, err)
		return
	}
	res := s.Result
	logger.Success(id, fmt.Sprintf("%s %s %.2f %s (%s)", s.Isotope, res.Mode, res.Value, res.Unit(), res.Constants))

	h.respondJSON(w, http.StatusOK, calcResponse{
		ID:                id,
		Isotope:           s.Isotope.String(),
		Material:          s.Material,
		Limit:             s.Limit.String(),
		Mode:              res.Mode.String(),
		Constants:         res.Constants,
		ActivityGBq:       res.ActivityGBq,
		ReferenceDistance: res.ReferenceDistance,
		Value:             res.Value,
		Unit:              res.Unit(),
		Handoff:           handoff.Encode(s),
		SummaryURL:        "/api/summary?" + handoff.Values(s).Encode(),
	})
}

// tableSource resolves the constants for the grids. Tables need no limit or
// mode; a material of "none" gives the unshielded grids.
func (h *Handler) tableSource(r *http.Request) (parsedSource, shielding.Constants, error) {
	src, err := formFromQuery(r.URL.Query()).source()
	if err != nil {
		return parsedSource{}, shielding.Constants{}, err
	}
	c, err := materials.Resolve(materials.Request{
		Isotope:    src.Isotope,
		Collimator: src.Collimator,
		Material:   src.Material,
		Mode:       shielding.SolveDistance,
	}, h.customMaterials(r))
	if err != nil {
		return parsedSource{}, shielding.Constants{}, err
	}
	if !(src.Activity > 0) {
		return parsedSource{}, shielding.Constants{}, shielding.NewError(shielding.InvalidInput, "activity", "must be a positive number")
	}
	return src, c, nil
}

func (h *Handler) handleTables(w http.ResponseWriter, r *http.Request) {
	src, c, err := h.tableSource(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	a := shielding.ActivityGBq(src.Activity)
	h.respondJSON(w, http.StatusOK, map[string]any{
		"isotope":   src.Isotope.String(),
		"material":  src.Material.Label(),
		"constants": c,
		"doseRate":  shielding.DoseRateTable(a, c),
		"distance":  shielding.DistanceTable(a, c),
	})
}

func (h *Handler) handleTablesWorkbook(w http.ResponseWriter, r *http.Request) {
	src, c, err := h.tableSource(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	a := shielding.ActivityGBq(src.Activity)
	header := [][2]string{
		{"isotope", src.Isotope.String()},
		{"activity", fmt.Sprintf("%g Ci (%g GBq)", src.Activity, a)},
		{"collimator", fmt.Sprintf("%t", src.Collimator)},
		{"material", src.Material.Label()},
		{"constants", c.String()},
	}

	key := "xlsx|" + src.Isotope.String() + "|" + header[1][1] + "|" + header[2][1] + "|" + header[3][1] + "|" + header[4][1]
	data, err := h.Renders.Get(r.Context(), key, func(context.Context) ([]byte, error) {
		var buf bytes.Buffer
		if err := tableexport.Write(&buf, header, shielding.DoseRateTable(a, c), shielding.DistanceTable(a, c)); err != nil {
			return nil, fmt.Errorf("export tables: %w", err)
		}
		return buf.Bytes(), nil
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="shielding-tables.xlsx"`)
	_, _ = w.Write(data)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	s, err := handoff.DecodeValues(r.URL.Query())
	if err != nil {
		h.respondError(w, err)
		return
	}
	doseRate, distance := s.Tables()
	res := s.Result
	h.respondJSON(w, http.StatusOK, map[string]any{
		"isotope":           s.Isotope.String(),
		"collimator":        s.Collimator,
		"limit":             s.Limit.String(),
		"material":          s.Material,
		"mode":              res.Mode.String(),
		"constants":         res.Constants,
		"activityCi":        res.ActivityCi,
		"activityGBq":       res.ActivityGBq,
		"referenceDistance": res.ReferenceDistance,
		"value":             res.Value,
		"unit":              res.Unit(),
		"doseRate":          doseRate,
		"distance":          distance,
	})
}

// handleSummaryQR encodes an absolute summary link for the same parameters.
func (h *Handler) handleSummaryQR(w http.ResponseWriter, r *http.Request) {
	s, err := handoff.DecodeValues(r.URL.Query())
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.writeQR(w, r, baseURL(r)+"/api/summary?"+handoff.Values(s).Encode())
}

// baseURL is scheme://host of the incoming request.
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
