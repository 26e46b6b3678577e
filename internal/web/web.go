// Package web serves the single-page chat UI.
package web

import (
	"embed"
	"net/http"
)

//go:embed static/index.html
var static embed.FS

// Index serves the chat page.
func Index(w http.ResponseWriter, r *http.Request) {
	page, err := static.ReadFile("static/index.html")
	if err != nil {
		http.Error(w, "page unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(page)
}
