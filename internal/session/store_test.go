package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/litartclub/gallery/internal/supabase"
)

func quietLog() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestStore(t *testing.T, handler http.Handler) (*Store, *int64) {
	t.Helper()
	var requests int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&requests, 1)
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	client, err := supabase.New(supabase.Config{URL: srv.URL, APIKey: "anon"})
	if err != nil {
		t.Fatal(err)
	}
	store := NewStore(client, "http://app/auth/callback", quietLog())
	t.Cleanup(store.Close)
	return store, &requests
}

func TestStoreStartsUninitialized(t *testing.T) {
	store, _ := newTestStore(t, http.NotFoundHandler())

	if store.State() != Uninitialized {
		t.Fatalf("state = %v, want uninitialized", store.State())
	}
	if _, ok := store.Current(); ok {
		t.Error("Current should report nothing before Init")
	}
}

func TestInitResolvesToAnonymous(t *testing.T) {
	store, _ := newTestStore(t, http.NotFoundHandler())

	store.Init(context.Background())
	if store.State() != Anonymous {
		t.Fatalf("state = %v, want anonymous", store.State())
	}
}

func TestSignInMovesToAuthenticated(t *testing.T) {
	store, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"access_token":"tok","refresh_token":"ref","user":{"id":"u1","email":"a@b.c"}}`)
	}))
	store.Init(context.Background())

	sess, err := store.SignIn(context.Background(), "a@b.c", "Abc123!@")
	if err != nil {
		t.Fatal(err)
	}
	if sess.AccessToken != "tok" {
		t.Fatalf("session = %+v", sess)
	}
	if store.State() != Authenticated {
		t.Fatalf("state = %v, want authenticated", store.State())
	}
	if cur, ok := store.Current(); !ok || cur.User.ID != "u1" {
		t.Fatalf("Current = %+v, %v", cur, ok)
	}
}

func TestSignUpRejectsWeakPasswordWithoutBackendCall(t *testing.T) {
	store, requests := newTestStore(t, http.NotFoundHandler())

	for _, password := range []string{"abc123", "Abc123", "short"} {
		if _, err := store.SignUp(context.Background(), "a@b.c", password); !errors.Is(err, ErrWeakPassword) {
			t.Errorf("SignUp(%q) err = %v, want ErrWeakPassword", password, err)
		}
	}
	if n := atomic.LoadInt64(requests); n != 0 {
		t.Fatalf("backend saw %d requests, want 0", n)
	}
}

func TestSignUpPassesStrongPasswordThrough(t *testing.T) {
	store, requests := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("redirect_to"); got != "http://app/auth/callback" {
			t.Errorf("redirect_to = %q", got)
		}
		fmt.Fprint(w, `{"id":"u1","email":"a@b.c"}`)
	}))

	if _, err := store.SignUp(context.Background(), "a@b.c", "Abc123!@"); err != nil {
		t.Fatal(err)
	}
	if n := atomic.LoadInt64(requests); n != 1 {
		t.Fatalf("backend saw %d requests, want 1", n)
	}
}

func TestSignOutAlwaysClears(t *testing.T) {
	store, _ := newTestStore(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/v1/logout" {
			// Revocation fails; local state must clear anyway.
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"access_token":"tok","refresh_token":"ref","user":{"id":"u1"}}`)
	}))
	store.Init(context.Background())

	if _, err := store.SignIn(context.Background(), "a@b.c", "pw"); err != nil {
		t.Fatal(err)
	}
	store.SignOut(context.Background(), "tok")

	if store.State() != Anonymous {
		t.Fatalf("state = %v, want anonymous after sign-out", store.State())
	}
	if _, ok := store.Current(); ok {
		t.Error("Current should report nothing after sign-out")
	}
}
