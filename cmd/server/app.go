package main

import (
	"net/http"
	"os"

	"github.com/litartclub/gallery/internal/handlers"
	"github.com/litartclub/gallery/internal/services"
	"github.com/litartclub/gallery/internal/session"
	"github.com/litartclub/gallery/view"
)

// App wires handlers to routes. The session middleware runs on every
// request so templates and handlers can read the signed-in identity.
type App struct {
	mux *http.ServeMux
}

func NewApp(store *session.Store, svcs Services) *App {
	app := &App{mux: http.NewServeMux()}

	// Templates only need the email and whether someone is signed in.
	view.SetIdentityResolver(func(r *http.Request) (string, bool) {
		ident, ok := session.FromContext(r.Context())
		return ident.Email, ok
	})

	auth := handlers.NewAuthHandler(store, svcs.Register)
	profile := handlers.NewProfileHandler(svcs.Profiles)
	// A typed nil *Feed must not reach the interface value.
	var feed handlers.LiveFeed
	if svcs.Feed != nil {
		feed = svcs.Feed
	}
	artwork := handlers.NewArtworkHandler(svcs.Artworks, feed)
	cart := handlers.NewCartHandler(svcs.Checkout)

	app.mux.HandleFunc("GET /", handlers.Home)
	app.mux.HandleFunc("GET /about", handlers.About)

	app.mux.HandleFunc("GET /gallery", artwork.Gallery)
	app.mux.HandleFunc("GET /gallery/live", artwork.Live)
	app.mux.Handle("GET /upload", session.RequireAuth(http.HandlerFunc(artwork.Upload)))
	app.mux.Handle("POST /upload", session.RequireAuth(http.HandlerFunc(artwork.Upload)))

	app.mux.Handle("GET /profile", session.RequireAuth(http.HandlerFunc(profile.Show)))
	app.mux.Handle("POST /profile", session.RequireAuth(http.HandlerFunc(profile.Show)))
	app.mux.Handle("POST /profile/avatar", session.RequireAuth(http.HandlerFunc(profile.Avatar)))

	app.mux.HandleFunc("GET /login", auth.Login)
	app.mux.HandleFunc("POST /login", auth.Login)
	app.mux.HandleFunc("GET /signup", auth.Signup)
	app.mux.HandleFunc("POST /signup", auth.Signup)
	app.mux.HandleFunc("GET /register", auth.Register)
	app.mux.HandleFunc("POST /register", auth.Register)
	app.mux.HandleFunc("POST /logout", auth.Logout)
	app.mux.HandleFunc("GET /logout", auth.Logout)
	app.mux.HandleFunc("GET /auth/callback", auth.Callback)

	app.mux.HandleFunc("GET /cart", cart.Show)
	app.mux.HandleFunc("POST /cart/add", cart.Add)
	app.mux.HandleFunc("POST /cart/remove", cart.Remove)
	app.mux.Handle("GET /checkout", session.RequireAuth(http.HandlerFunc(cart.Checkout)))
	app.mux.Handle("POST /checkout", session.RequireAuth(http.HandlerFunc(cart.Checkout)))

	app.mux.Handle("GET /static/", staticHandler())

	return app
}

// Services groups the constructed services handed to the route table.
type Services struct {
	Register *services.RegistrationService
	Profiles *services.ProfileService
	Artworks *services.ArtworkService
	Checkout *services.CheckoutService
	Feed     *services.Feed
}

func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	session.Middleware(a.mux).ServeHTTP(w, r)
}

func staticHandler() http.Handler {
	fs := http.FileServer(http.Dir("static"))
	return http.StripPrefix("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if os.Getenv("DEV") == "1" {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		} else {
			w.Header().Set("Cache-Control", "public, max-age=86400")
		}
		fs.ServeHTTP(w, r)
	}))
}
