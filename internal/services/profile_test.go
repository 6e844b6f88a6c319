package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/litartclub/gallery/internal/session"
)

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, width, height))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestGetProfile(t *testing.T) {
	client, _ := testBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/profiles" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("id"); got != "eq.u1" {
			t.Errorf("id = %q", got)
		}
		fmt.Fprint(w, `{"id":"u1","name":"Ada","email":"a@b.c","bio":"painter"}`)
	}))
	svc := NewProfileService(client, quietLog())

	profile, err := svc.Get(context.Background(), session.Identity{UserID: "u1", AccessToken: "tok"})
	if err != nil {
		t.Fatal(err)
	}
	if profile.Name != "Ada" || profile.Bio != "painter" {
		t.Fatalf("profile = %+v", profile)
	}
}

func TestUpdateMapsPermissionDenialToExpiredSession(t *testing.T) {
	client, _ := testBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"code":"42501","message":"permission denied for table profiles"}`)
	}))
	svc := NewProfileService(client, quietLog())

	err := svc.Update(context.Background(), session.Identity{UserID: "u1", AccessToken: "stale"}, "Ada", "")
	if !errors.Is(err, ErrSessionExpired) {
		t.Fatalf("err = %v, want ErrSessionExpired", err)
	}
}

func TestReplaceAvatarRejectsBeforeAnyNetworkCall(t *testing.T) {
	client, requests := testBackend(t, http.NotFoundHandler())
	svc := NewProfileService(client, quietLog())
	ident := session.Identity{UserID: "u1", AccessToken: "tok"}

	cases := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrImageRequired},
		{"oversized", make([]byte, 5*1024*1024+1), ErrImageTooLarge},
		{"wrong type", []byte("%PDF-1.4 not an image"), ErrImageBadType},
	}
	for _, c := range cases {
		if _, err := svc.ReplaceAvatar(context.Background(), ident, c.data); !errors.Is(err, c.want) {
			t.Errorf("%s: err = %v, want %v", c.name, err, c.want)
		}
	}
	if n := atomic.LoadInt64(requests); n != 0 {
		t.Fatalf("backend saw %d requests, want 0", n)
	}
}

func TestReplaceAvatarResizesUploadsAndUpdates(t *testing.T) {
	var uploadedSize int
	var uploadedPath, patchedURL string
	client, _ := testBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/storage/v1/object/avatars/"):
			uploadedPath = r.URL.Path
			buf := new(bytes.Buffer)
			buf.ReadFrom(r.Body)
			uploadedSize = buf.Len()
			fmt.Fprint(w, `{}`)
		case r.Method == http.MethodPatch && r.URL.Path == "/rest/v1/profiles":
			var payload struct {
				AvatarURL string `json:"avatar_url"`
			}
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Error(err)
			}
			patchedURL = payload.AvatarURL
			fmt.Fprint(w, `[{}]`)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	svc := NewProfileService(client, quietLog())

	original := encodePNG(t, 1024, 1024)
	url, err := svc.ReplaceAvatar(context.Background(), session.Identity{UserID: "u1", AccessToken: "tok"}, original)
	if err != nil {
		t.Fatal(err)
	}

	if uploadedPath == "" || !strings.Contains(uploadedPath, "u1-") || !strings.HasSuffix(uploadedPath, ".png") {
		t.Errorf("uploaded path = %q", uploadedPath)
	}
	if uploadedSize == 0 || uploadedSize >= len(original) {
		t.Errorf("uploaded %d bytes; expected a resized image smaller than the %d-byte original", uploadedSize, len(original))
	}
	if url == "" || url != patchedURL {
		t.Errorf("returned url %q, profile patched with %q", url, patchedURL)
	}
}

func TestReplaceAvatarSkipsResizeForSmallImages(t *testing.T) {
	var uploadedSize int
	client, _ := testBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/storage/v1/object/") {
			buf := new(bytes.Buffer)
			buf.ReadFrom(r.Body)
			uploadedSize = buf.Len()
		}
		fmt.Fprint(w, `[{}]`)
	}))
	svc := NewProfileService(client, quietLog())

	small := encodePNG(t, 100, 100)
	if _, err := svc.ReplaceAvatar(context.Background(), session.Identity{UserID: "u1"}, small); err != nil {
		t.Fatal(err)
	}
	if uploadedSize != len(small) {
		t.Errorf("small image should upload unchanged: sent %d of %d bytes", uploadedSize, len(small))
	}
}
