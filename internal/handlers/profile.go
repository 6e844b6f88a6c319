package handlers

import (
	"io"
	"net/http"

	"github.com/litartclub/gallery/httpx"
	"github.com/litartclub/gallery/internal/services"
	"github.com/litartclub/gallery/internal/session"
	"github.com/litartclub/gallery/internal/storage"
	"github.com/litartclub/gallery/view"
)

// maxMultipartMemory caps the in-memory portion of multipart parsing.
const maxMultipartMemory = 8 << 20

type ProfileHandler struct {
	profiles *services.ProfileService
}

func NewProfileHandler(profiles *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// Show renders the profile editor, or saves name/bio on POST.
func (h *ProfileHandler) Show(w http.ResponseWriter, r *http.Request) {
	ident, ok := session.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if r.Method == http.MethodPost {
		if err := h.profiles.Update(r.Context(), ident, r.FormValue("name"), r.FormValue("bio")); err != nil {
			h.render(w, r, ident, map[string]any{"Error": userMessage(err)}, http.StatusBadRequest)
			return
		}
		if httpx.WantsJSON(r) {
			httpx.JSON(w, http.StatusOK, map[string]any{"message": "Profile updated"})
			return
		}
		h.render(w, r, ident, map[string]any{"Success": "Profile updated"}, http.StatusOK)
		return
	}

	data := map[string]any{}
	if msg := r.URL.Query().Get("success"); msg != "" {
		data["Success"] = msg
	}
	h.render(w, r, ident, data, http.StatusOK)
}

// Avatar replaces the profile picture from a multipart upload.
func (h *ProfileHandler) Avatar(w http.ResponseWriter, r *http.Request) {
	ident, ok := session.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		h.render(w, r, ident, map[string]any{"Error": "Invalid upload"}, http.StatusBadRequest)
		return
	}
	file, _, err := r.FormFile("avatar")
	if err != nil {
		h.render(w, r, ident, map[string]any{"Error": services.ErrImageRequired.Error()}, http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, storage.MaxObjectSize+1))
	if err != nil {
		h.render(w, r, ident, map[string]any{"Error": "Could not read upload"}, http.StatusBadRequest)
		return
	}

	url, err := h.profiles.ReplaceAvatar(r.Context(), ident, data)
	if err != nil {
		h.render(w, r, ident, map[string]any{"Error": userMessage(err)}, http.StatusBadRequest)
		return
	}

	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"avatar_url": url})
		return
	}
	http.Redirect(w, r, "/profile?success=Avatar updated", http.StatusSeeOther)
}

func (h *ProfileHandler) render(w http.ResponseWriter, r *http.Request, ident session.Identity, data map[string]any, status int) {
	if httpx.WantsJSON(r) {
		if msg, ok := data["Error"].(string); ok {
			httpx.JSONError(w, status, msg, nil)
			return
		}
		profile, err := h.profiles.Get(r.Context(), ident)
		if err != nil {
			httpx.JSONError(w, http.StatusBadGateway, err.Error(), nil)
			return
		}
		httpx.JSON(w, status, map[string]any{"profile": profile})
		return
	}
	profile, err := h.profiles.Get(r.Context(), ident)
	if err != nil {
		if _, have := data["Error"]; !have {
			data["Error"] = userMessage(err)
		}
	} else {
		data["Profile"] = profile
	}
	view.Render(w, r, "profile.html", data)
}
