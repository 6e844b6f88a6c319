package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := New(Config{URL: srv.URL, APIKey: "anon-key"})
	if err != nil {
		t.Fatal(err)
	}
	return c, srv
}

func TestSignInEmitsSignedIn(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/v1/token" || r.URL.Query().Get("grant_type") != "password" {
			t.Errorf("unexpected request %s %s", r.URL.Path, r.URL.RawQuery)
		}
		if r.Header.Get("apikey") != "anon-key" {
			t.Errorf("missing apikey header")
		}
		fmt.Fprint(w, `{"access_token":"tok","refresh_token":"ref","user":{"id":"u1","email":"a@b.c"}}`)
	}))

	var events []AuthEvent
	unsubscribe := c.OnAuthStateChange(func(e AuthEvent, s *Session) { events = append(events, e) })
	defer unsubscribe()

	sess, err := c.SignIn(context.Background(), "a@b.c", "Abc123!@")
	if err != nil {
		t.Fatal(err)
	}
	if sess.AccessToken != "tok" || sess.User == nil || sess.User.ID != "u1" {
		t.Fatalf("unexpected session %+v", sess)
	}
	if len(events) != 1 || events[0] != SignedIn {
		t.Fatalf("events = %v, want [SIGNED_IN]", events)
	}
}

func TestSignUpConfirmationPending(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("redirect_to"); got != "http://app/auth/callback" {
			t.Errorf("redirect_to = %q", got)
		}
		// No access token: confirmation email sent, backend returns the bare user.
		fmt.Fprint(w, `{"id":"u1","email":"a@b.c"}`)
	}))

	var events []AuthEvent
	c.OnAuthStateChange(func(e AuthEvent, s *Session) { events = append(events, e) })

	sess, err := c.SignUp(context.Background(), "a@b.c", "Abc123!@", "http://app/auth/callback")
	if err != nil {
		t.Fatal(err)
	}
	if sess.AccessToken != "" {
		t.Errorf("pending signup should carry no access token")
	}
	if sess.User == nil || sess.User.ID != "u1" {
		t.Fatalf("user not recovered from bare payload: %+v", sess)
	}
	if len(events) != 0 {
		t.Errorf("no event should fire without a token, got %v", events)
	}
}

func TestSignUpEmailNotAuthorized(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"code":"email_address_not_authorized","msg":"Email address not authorized"}`)
	}))

	_, err := c.SignUp(context.Background(), "a@b.c", "Abc123!@", "")
	if !errors.Is(err, ErrEmailNotAuthorized) {
		t.Fatalf("err = %v, want ErrEmailNotAuthorized", err)
	}
}

func TestRefreshEmitsTokenRefreshed(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("grant_type") != "refresh_token" {
			t.Errorf("grant_type = %q", r.URL.Query().Get("grant_type"))
		}
		fmt.Fprint(w, `{"access_token":"tok2","refresh_token":"ref2","user":{"id":"u1"}}`)
	}))

	var events []AuthEvent
	c.OnAuthStateChange(func(e AuthEvent, s *Session) { events = append(events, e) })

	if _, err := c.Refresh(context.Background(), "ref"); err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0] != TokenRefreshed {
		t.Fatalf("events = %v, want [TOKEN_REFRESHED]", events)
	}
}

func TestSignOutEmitsEvenOnServerError(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	var events []AuthEvent
	c.OnAuthStateChange(func(e AuthEvent, s *Session) {
		events = append(events, e)
		if s != nil {
			t.Error("session should be nil on sign-out")
		}
	})

	if err := c.SignOut(context.Background(), "tok"); err == nil {
		t.Error("expected the server error to surface")
	}
	if len(events) != 1 || events[0] != SignedOut {
		t.Fatalf("events = %v, want [SIGNED_OUT]", events)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"access_token":"tok","user":{"id":"u1"}}`)
	}))

	var calls int
	unsubscribe := c.OnAuthStateChange(func(AuthEvent, *Session) { calls++ })

	if _, err := c.SignIn(context.Background(), "a@b.c", "pw"); err != nil {
		t.Fatal(err)
	}
	unsubscribe()
	if _, err := c.SignIn(context.Background(), "a@b.c", "pw"); err != nil {
		t.Fatal(err)
	}

	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}
