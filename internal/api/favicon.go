package api

import (
	"fmt"
	"html"
	"net/http"
)

const (
	faviconLetter     = "P"
	faviconBackground = "#3273dc"
)

// GenerateFaviconSVG creates a letter favicon.
func GenerateFaviconSVG(letter, bg string) string {
	if letter == "" {
		letter = faviconLetter
	}
	if bg == "" {
		bg = faviconBackground
	}

	content := fmt.Sprintf(
		`<text x="50%%" y="50%%" dominant-baseline="central" text-anchor="middle" fill="white" font-family="system-ui, -apple-system, sans-serif" font-weight="600" font-size="20">%s</text>`,
		html.EscapeString(letter),
	)

	return fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 32 32"><rect width="32" height="32" rx="6" fill="%s"/>%s</svg>`,
		html.EscapeString(bg), content,
	)
}

// GetFavicon serves the favicon.
func (h *Handler) GetFavicon(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(HCType, "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.Write([]byte(GenerateFaviconSVG(faviconLetter, faviconBackground)))
}
