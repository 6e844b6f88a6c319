package handlers

import (
	"errors"
	"net/http"

	"github.com/litartclub/gallery/httpx"
	"github.com/litartclub/gallery/internal/services"
	"github.com/litartclub/gallery/internal/session"
	"github.com/litartclub/gallery/view"
)

// AuthHandler serves sign-in, sign-up, registration and sign-out.
type AuthHandler struct {
	store    *session.Store
	register *services.RegistrationService
}

func NewAuthHandler(store *session.Store, register *services.RegistrationService) *AuthHandler {
	return &AuthHandler{store: store, register: register}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		view.Render(w, r, "login.html", nil)
		return
	}

	email := r.FormValue("email")
	password := r.FormValue("password")

	sess, err := h.store.SignIn(r.Context(), email, password)
	if err != nil || sess.User == nil {
		renderError(w, r, "login.html", http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if err := session.CreateCookie(w, session.Identity{
		UserID:       sess.User.ID,
		Email:        sess.User.Email,
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
	}); err != nil {
		renderError(w, r, "login.html", http.StatusInternalServerError, "Internal server error")
		return
	}
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusOK, map[string]any{"user": sess.User})
		return
	}
	http.Redirect(w, r, "/profile", http.StatusSeeOther)
}

// Signup is the bare email+password form. Registration with a profile
// goes through Register.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		view.Render(w, r, "signup.html", nil)
		return
	}

	email := r.FormValue("email")
	password := r.FormValue("password")
	if email == "" || password == "" {
		renderError(w, r, "signup.html", http.StatusBadRequest, "Email and password are required")
		return
	}

	if _, err := h.store.SignUp(r.Context(), email, password); err != nil {
		renderError(w, r, "signup.html", http.StatusBadRequest, userMessage(err))
		return
	}

	msg := "Sign up successful! Please check your email to confirm your account."
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, map[string]any{"message": msg})
		return
	}
	view.Render(w, r, "signup.html", map[string]any{"Success": msg})
}

// Register creates the identity and its profile row in one flow.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		view.Render(w, r, "register.html", nil)
		return
	}

	name := r.FormValue("name")
	email := r.FormValue("email")
	password := r.FormValue("password")
	bio := r.FormValue("bio")

	if name == "" || email == "" || password == "" {
		renderError(w, r, "register.html", http.StatusBadRequest, "Name, email and password are required")
		return
	}

	if _, err := h.register.Register(r.Context(), name, email, password, bio); err != nil {
		renderError(w, r, "register.html", http.StatusBadRequest, userMessage(err))
		return
	}

	msg := "Registration successful! Please check your email to confirm your account."
	if httpx.WantsJSON(r) {
		httpx.JSON(w, http.StatusCreated, map[string]any{"message": msg})
		return
	}
	view.Render(w, r, "register.html", map[string]any{"Success": msg})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if ident, ok := session.FromContext(r.Context()); ok {
		h.store.SignOut(r.Context(), ident.AccessToken)
	}
	session.ClearCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Callback lands the user after email confirmation.
func (h *AuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	if _, ok := session.FromContext(r.Context()); ok {
		http.Redirect(w, r, "/profile?success=Email confirmed", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login?success=Email confirmed, please sign in", http.StatusSeeOther)
}

// userMessage converts a service failure to the inline message the form
// shows. Unknown errors collapse to a generic retry prompt.
func userMessage(err error) string {
	switch {
	case errors.Is(err, session.ErrWeakPassword),
		errors.Is(err, services.ErrEmailNotAllowed),
		errors.Is(err, services.ErrProfileCreate),
		errors.Is(err, services.ErrEmptyCart),
		errors.Is(err, services.ErrNotAuthenticated),
		errors.Is(err, services.ErrImageRequired),
		errors.Is(err, services.ErrImageTooLarge),
		errors.Is(err, services.ErrImageBadType),
		errors.Is(err, services.ErrSessionExpired),
		errors.Is(err, services.ErrProfileFetch),
		errors.Is(err, services.ErrProfileWrite):
		return err.Error()
	default:
		return "An error occurred. Please try again."
	}
}

func renderError(w http.ResponseWriter, r *http.Request, page string, status int, msg string) {
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, status, msg, nil)
		return
	}
	view.Render(w, r, page, map[string]any{"Error": msg})
}
