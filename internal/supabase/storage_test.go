package supabase

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"
)

func TestListBuckets(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/storage/v1/bucket" {
			t.Errorf("path = %q", r.URL.Path)
		}
		fmt.Fprint(w, `[{"id":"avatars","name":"avatars","public":true}]`)
	}))

	buckets, err := c.ListBuckets(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(buckets) != 1 || buckets[0].Name != "avatars" || !buckets[0].Public {
		t.Fatalf("buckets = %+v", buckets)
	}
}

func TestUploadSendsBodyAndToken(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/storage/v1/object/avatars/u1-abc.png" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Content-Type"); got != "image/png" {
			t.Errorf("Content-Type = %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer user-token" {
			t.Errorf("Authorization = %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "pngbytes" {
			t.Errorf("body = %q", body)
		}
		fmt.Fprint(w, `{"Key":"avatars/u1-abc.png"}`)
	}))

	err := c.Upload(context.Background(), "avatars", "u1-abc.png", []byte("pngbytes"), "image/png", "user-token")
	if err != nil {
		t.Fatal(err)
	}
}

func TestPublicURL(t *testing.T) {
	c, srv := newTestClient(t, http.NotFoundHandler())

	want := srv.URL + "/storage/v1/object/public/avatars/u1-abc.png"
	if got := c.PublicURL("avatars", "u1-abc.png"); got != want {
		t.Errorf("PublicURL = %q, want %q", got, want)
	}
}
