package api

import (
	"net/http"
	"sort"
	"strconv"

	"radiography-shield/pkg/materials"
	"radiography-shield/pkg/shielding"
)

type materialView struct {
	Name          string  `json:"name"`
	Predefined    bool    `json:"predefined"`
	AttenuationIr float64 `json:"attenuationIr"`
	AttenuationSe float64 `json:"attenuationSe"`
}

// handleMaterialsList lists the predefined materials followed by the
// caller's saved ones, sorted by name.
func (h *Handler) handleMaterialsList(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		h.respondError(w, materials.ErrUserRequired)
		return
	}

	out := make([]materialView, 0, len(materials.Predefined()))
	for _, name := range materials.Predefined() {
		ir, _ := materials.PredefinedCoefficient(name, shielding.Ir192)
		se, _ := materials.PredefinedCoefficient(name, shielding.Se75)
		out = append(out, materialView{Name: name, Predefined: true, AttenuationIr: ir, AttenuationSe: se})
	}

	custom := h.Catalog.Snapshot(r.Context(), user)
	names := make([]string, 0, len(custom))
	for name := range custom {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := custom[name]
		out = append(out, materialView{Name: name, AttenuationIr: c.AttenuationIr, AttenuationSe: c.AttenuationSe})
	}
	h.respondJSON(w, http.StatusOK, map[string]any{"materials": out})
}

// handleMaterialSave stores a custom material. Overwriting needs
// confirm=true; otherwise an existing name answers 409.
func (h *Handler) handleMaterialSave(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		h.respondError(w, materials.ErrUserRequired)
		return
	}
	var c materials.Coefficients
	if err := decodeBody(w, r, &c); err != nil {
		h.respondError(w, err)
		return
	}
	overwrite, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	name := r.PathValue("name")

	_, err := h.Catalog.Get(r.Context(), user, name)
	existed := err == nil
	if err := h.Catalog.Save(r.Context(), user, name, c, overwrite); err != nil {
		h.respondError(w, err)
		return
	}
	h.Logf("material %q saved for %s (overwrite=%t)", name, user, existed)

	status := http.StatusCreated
	if existed {
		status = http.StatusOK
	}
	h.respondJSON(w, status, materialView{Name: name, AttenuationIr: c.AttenuationIr, AttenuationSe: c.AttenuationSe})
}

func (h *Handler) handleMaterialDelete(w http.ResponseWriter, r *http.Request) {
	user := userID(r)
	if user == "" {
		h.respondError(w, materials.ErrUserRequired)
		return
	}
	if err := h.Catalog.Delete(r.Context(), user, r.PathValue("name")); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
