package supabase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestFetchBuildsPostgRESTQuery(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rest/v1/artworks" {
			t.Errorf("path = %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("select") != "*" {
			t.Errorf("select = %q", q.Get("select"))
		}
		if q.Get("category") != "eq.painting" {
			t.Errorf("category = %q", q.Get("category"))
		}
		if q.Get("order") != "created_at.desc" {
			t.Errorf("order = %q", q.Get("order"))
		}
		fmt.Fprint(w, `[{"id":"a1","title":"Dawn"}]`)
	}))

	var rows []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	err := c.From("artworks").
		Select("*").
		Eq("category", "painting").
		Order("created_at", false).
		Fetch(context.Background(), &rows)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].ID != "a1" {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestSingleSetsAcceptHeader(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "application/vnd.pgrst.object+json" {
			t.Errorf("Accept = %q", got)
		}
		fmt.Fprint(w, `{"id":"p1"}`)
	}))

	var row struct {
		ID string `json:"id"`
	}
	if err := c.From("profiles").Single().Fetch(context.Background(), &row); err != nil {
		t.Fatal(err)
	}
	if row.ID != "p1" {
		t.Fatalf("row = %+v", row)
	}
}

func TestAuthOverridesBearer(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer user-token" {
			t.Errorf("Authorization = %q", got)
		}
		fmt.Fprint(w, `[]`)
	}))

	var rows []any
	if err := c.From("profiles").Auth("user-token").Fetch(context.Background(), &rows); err != nil {
		t.Fatal(err)
	}
}

func TestUpsertSendsMergePrefer(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q", r.Method)
		}
		if got := r.Header.Get("Prefer"); got != "resolution=merge-duplicates,return=representation" {
			t.Errorf("Prefer = %q", got)
		}
		fmt.Fprint(w, `[{"id":"p1"}]`)
	}))

	if _, err := c.From("profiles").Upsert(context.Background(), map[string]string{"id": "p1"}); err != nil {
		t.Fatal(err)
	}
}

func TestUpdateUsesPatchWithFilters(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch {
			t.Errorf("method = %q", r.Method)
		}
		if got := r.URL.Query().Get("id"); got != "eq.p1" {
			t.Errorf("id filter = %q", got)
		}
		fmt.Fprint(w, `[{"id":"p1"}]`)
	}))

	if _, err := c.From("profiles").Eq("id", "p1").Update(context.Background(), map[string]string{"name": "Ada"}); err != nil {
		t.Fatal(err)
	}
}

func TestPermissionDeniedSurfacesAsSentinel(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"code":"42501","message":"permission denied for table profiles"}`)
	}))

	_, err := c.From("profiles").Eq("id", "p1").Update(context.Background(), map[string]string{"name": "x"})
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("err = %v, want ErrPermissionDenied", err)
	}
}
