package session

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

type ctxKey string

const (
	cookieName     = "session"
	identityCtxKey = ctxKey("identity")
)

// Identity is the per-browser authenticated identity carried in the
// signed session cookie. The tokens are issued and owned by the
// backend; the cookie only mirrors them.
type Identity struct {
	UserID       string `json:"uid"`
	Email        string `json:"email"`
	AccessToken  string `json:"at"`
	RefreshToken string `json:"rt"`
}

var signingSecret string

// SetSecret fixes the cookie signing secret. It is called once at
// bootstrap with the configured value; cookies signed under a previous
// secret stop verifying.
func SetSecret(s string) {
	signingSecret = s
}

// Secret returns the configured signing secret, falling back to
// SESSION_SECRET and then a dev default.
func Secret() string {
	if signingSecret != "" {
		return signingSecret
	}
	if s := os.Getenv("SESSION_SECRET"); s != "" {
		return s
	}
	return "devsessionsecret"
}

// Sign produces the HMAC signature of a value under the session secret.
func Sign(value string) string {
	mac := hmac.New(sha256.New, []byte(Secret()))
	mac.Write([]byte(value))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Verify checks a value against its signature in constant time.
func Verify(value, sig string) bool {
	return hmac.Equal([]byte(sig), []byte(Sign(value)))
}

// CreateCookie sets a signed cookie carrying the identity.
func CreateCookie(w http.ResponseWriter, ident Identity) error {
	payload, err := json.Marshal(ident)
	if err != nil {
		return fmt.Errorf("encode identity: %w", err)
	}
	value := base64.RawURLEncoding.EncodeToString(payload)
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    value + "." + Sign(value),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(14 * 24 * time.Hour),
	})
	return nil
}

// ClearCookie deletes the session cookie.
func ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: cookieName, Value: "", Path: "/", Expires: time.Unix(0, 0), HttpOnly: true, SameSite: http.SameSiteLaxMode})
}

// ParseCookie validates the cookie and returns the identity.
func ParseCookie(r *http.Request) (Identity, bool) {
	c, err := r.Cookie(cookieName)
	if err != nil || c.Value == "" {
		return Identity{}, false
	}
	parts := strings.Split(c.Value, ".")
	if len(parts) != 2 {
		return Identity{}, false
	}
	value, sig := parts[0], parts[1]
	if !Verify(value, sig) {
		return Identity{}, false
	}
	payload, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return Identity{}, false
	}
	var ident Identity
	if err := json.Unmarshal(payload, &ident); err != nil || ident.UserID == "" {
		return Identity{}, false
	}
	return ident, true
}

// WithIdentity stores the identity in context.
func WithIdentity(ctx context.Context, ident Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey, ident)
}

// FromContext extracts the identity.
func FromContext(ctx context.Context) (Identity, bool) {
	ident, ok := ctx.Value(identityCtxKey).(Identity)
	return ident, ok
}

// Middleware attaches the identity to the request context if present.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ident, ok := ParseCookie(r); ok {
			r = r.WithContext(WithIdentity(r.Context(), ident))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuth redirects to /login if not authenticated (HTML) or
// returns 401 JSON.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			accept := r.Header.Get("Accept")
			if strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html") {
				w.WriteHeader(http.StatusUnauthorized)
				fmt.Fprint(w, `{"error":"unauthorized"}`)
				return
			}
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
