package handlers

import (
	"net/http"

	"github.com/litartclub/gallery/view"
)

func Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	view.Render(w, r, "index.html", nil)
}

func About(w http.ResponseWriter, r *http.Request) {
	view.Render(w, r, "about.html", nil)
}
