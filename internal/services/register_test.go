package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/litartclub/gallery/internal/session"
)

func registrationFixture(t *testing.T, handler http.Handler) *RegistrationService {
	t.Helper()
	client, _ := testBackend(t, handler)
	store := session.NewStore(client, "http://app/auth/callback", quietLog())
	t.Cleanup(store.Close)
	return NewRegistrationService(store, client, quietLog())
}

func TestRegisterCreatesIdentityThenProfile(t *testing.T) {
	var profileUpserted bool
	svc := registrationFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/v1/signup":
			fmt.Fprint(w, `{"id":"u1","email":"a@b.c"}`)
		case "/rest/v1/profiles":
			var profile struct {
				ID   string `json:"id"`
				Name string `json:"name"`
				Bio  string `json:"bio"`
			}
			json.NewDecoder(r.Body).Decode(&profile)
			if profile.ID != "u1" || profile.Name != "Ada" || profile.Bio != "painter" {
				t.Errorf("profile payload = %+v", profile)
			}
			if got := r.Header.Get("Prefer"); got != "resolution=merge-duplicates,return=representation" {
				t.Errorf("Prefer = %q", got)
			}
			profileUpserted = true
			fmt.Fprint(w, `[{"id":"u1"}]`)
		default:
			t.Errorf("unexpected request %s", r.URL.Path)
		}
	}))

	sess, err := svc.Register(context.Background(), "Ada", "a@b.c", "Abc123!@", "painter")
	if err != nil {
		t.Fatal(err)
	}
	if sess.User == nil || sess.User.ID != "u1" {
		t.Fatalf("session = %+v", sess)
	}
	if !profileUpserted {
		t.Error("profile row was not written")
	}
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	svc := registrationFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("backend should not be called, got %s", r.URL.Path)
	}))

	_, err := svc.Register(context.Background(), "Ada", "a@b.c", "abc123", "")
	if !errors.Is(err, session.ErrWeakPassword) {
		t.Fatalf("err = %v, want ErrWeakPassword", err)
	}
}

func TestRegisterMapsUnauthorizedEmail(t *testing.T) {
	svc := registrationFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"code":"email_address_not_authorized","msg":"not allowed"}`)
	}))

	_, err := svc.Register(context.Background(), "Ada", "a@b.c", "Abc123!@", "")
	if !errors.Is(err, ErrEmailNotAllowed) {
		t.Fatalf("err = %v, want ErrEmailNotAllowed", err)
	}
}

func TestRegisterMapsProfileWriteDenial(t *testing.T) {
	svc := registrationFixture(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/v1/signup" {
			fmt.Fprint(w, `{"id":"u1","email":"a@b.c"}`)
			return
		}
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"code":"42501","message":"permission denied for table profiles"}`)
	}))

	_, err := svc.Register(context.Background(), "Ada", "a@b.c", "Abc123!@", "")
	if !errors.Is(err, ErrProfileCreate) {
		t.Fatalf("err = %v, want ErrProfileCreate", err)
	}
}
