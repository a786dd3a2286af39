package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"radiography-shield/pkg/handoff"
)

// SummaryLinks stores share codes for summary parameter sets.
type SummaryLinks interface {
	SaveSummaryLink(ctx context.Context, params string, now time.Time) (string, error)
	ResolveSummaryLink(ctx context.Context, code string) (string, error)
}

// handleSummaryShare validates a parameter set and returns a short code for
// it. The stored parameters are the re-encoded summary, not the raw query.
func (h *Handler) handleSummaryShare(w http.ResponseWriter, r *http.Request) {
	s, err := handoff.DecodeValues(r.URL.Query())
	if err != nil {
		h.respondError(w, err)
		return
	}
	code, err := h.Links.SaveSummaryLink(r.Context(), handoff.Values(s).Encode(), h.now())
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusCreated, map[string]string{
		"code": code,
		"url":  "/s/" + code,
		"qr":   "/s/" + code + "/qr.png",
	})
}

// handleShortLink redirects a share code to its summary.
func (h *Handler) handleShortLink(w http.ResponseWriter, r *http.Request) {
	params, err := h.Links.ResolveSummaryLink(r.Context(), r.PathValue("code"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	http.Redirect(w, r, "/api/summary?"+params, http.StatusFound)
}

// handleShortLinkQR renders the absolute share link as a QR code.
func (h *Handler) handleShortLinkQR(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")
	if _, err := h.Links.ResolveSummaryLink(r.Context(), code); err != nil {
		h.respondError(w, err)
		return
	}
	h.writeQR(w, r, baseURL(r)+"/s/"+url.PathEscape(code))
}

func (h *Handler) writeQR(w http.ResponseWriter, r *http.Request, link string) {
	size := clampInt(parseIntDefault(r.URL.Query().Get("size"), 256), 128, 1024)
	png, err := h.Renders.Get(r.Context(), fmt.Sprintf("qr|%d|%s", size, link), func(context.Context) ([]byte, error) {
		return handoff.QRCode(link, size)
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(png)
}
