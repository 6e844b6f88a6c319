// Package view renders page templates from the templates/ directory,
// wrapping them in layout.html when one is present.
package view

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"
)

var (
	baseDir  string
	once     sync.Once
	tplCache = struct {
		sync.RWMutex
		m map[string]*template.Template
	}{m: map[string]*template.Template{}}

	// identityResolver is set by the host app so templates can show or
	// hide UI based on the signed-in user without importing session types.
	identityResolver = func(_ *http.Request) (string, bool) { return "", false }
)

// SetIdentityResolver provides the callback templates use to read the
// authenticated user's email.
func SetIdentityResolver(f func(*http.Request) (string, bool)) {
	if f != nil {
		identityResolver = f
	}
}

// layoutBase walks upward from a template path to find the directory
// that contains layout.html. If none is found, it returns the
// template's own directory.
func layoutBase(mainPath string) string {
	d := filepath.Dir(mainPath)
	for {
		lp := filepath.Join(d, "layout.html")
		if fi, err := os.Stat(lp); err == nil && !fi.IsDir() {
			return d
		}
		p := filepath.Dir(d)
		if p == d { // reached filesystem root
			return filepath.Dir(mainPath)
		}
		d = p
	}
}

func detectBase() {
	candidates := []string{"templates", "../templates", "../../templates"}
	for _, c := range candidates {
		if fi, err := os.Stat(filepath.Clean(c)); err == nil && fi.IsDir() {
			baseDir = filepath.Clean(c)
			return
		}
	}
	baseDir = "templates"
}

// Funcs returns the shared template func map. Request-dependent state
// (identity) travels in the render data instead, because parsed
// templates are cached across requests.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"year":  func() int { return time.Now().Year() },
		"price": func(v float64) string { return fmt.Sprintf("$%.2f", v) },
		// dict creates a map from key-value pairs for sub-templates.
		"dict": func(values ...any) map[string]any {
			if len(values)%2 != 0 {
				return nil
			}
			m := make(map[string]any, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					continue
				}
				m[key] = values[i+1]
			}
			return m
		},
	}
}

// SetBaseDir overrides the template base directory (useful for tests).
func SetBaseDir(path string) {
	if path == "" {
		return
	}
	baseDir = filepath.Clean(path)
	once = sync.Once{}
}

// ResetForTests clears caches and forces base dir detection to rerun.
func ResetForTests() {
	tplCache.Lock()
	tplCache.m = map[string]*template.Template{}
	tplCache.Unlock()
	baseDir = ""
	once = sync.Once{}
}

// Render parses and executes a single template file with shared funcs.
// name should be the filename (e.g., "gallery.html").
func Render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) error {
	if baseDir == "" {
		once.Do(detectBase)
	}
	if data == nil {
		data = map[string]any{}
	}
	if _, exists := data["IsLoggedIn"]; !exists {
		email, loggedIn := identityResolver(r)
		data["IsLoggedIn"] = loggedIn
		data["UserEmail"] = email
	}

	key := name
	devMode := os.Getenv("DEV") == "1"
	if !devMode {
		tplCache.RLock()
		t, ok := tplCache.m[key]
		tplCache.RUnlock()
		if ok && t != nil {
			return t.Execute(w, data)
		}
	}

	mainPath := filepath.Join(baseDir, name)
	if _, err := os.Stat(mainPath); err != nil {
		candidates := []string{
			filepath.Join("templates", name),
			filepath.Join("../templates", name),
			filepath.Join("../../templates", name),
			filepath.Join("../../../templates", name),
		}
		for _, c := range candidates {
			if fi, e2 := os.Stat(c); e2 == nil && !fi.IsDir() {
				mainPath = c
				break
			}
		}
		if _, err2 := os.Stat(mainPath); err2 != nil {
			return err
		}
	}

	baseDir = layoutBase(mainPath)
	layoutPath := filepath.Join(baseDir, "layout.html")
	funcMap := Funcs()

	contentBytes, _ := os.ReadFile(mainPath)
	useLayout := !bytes.Contains(bytes.ToLower(contentBytes), []byte("<!doctype"))

	var t *template.Template
	if useLayout {
		if fi, err := os.Stat(layoutPath); err == nil && !fi.IsDir() {
			parsed, err := template.New("layout.html").Funcs(funcMap).ParseFiles(layoutPath, mainPath)
			if err != nil {
				return err
			}
			t = parsed
		} else {
			useLayout = false
		}
	}
	if !useLayout {
		parsed, err := template.New(name).Funcs(funcMap).ParseFiles(mainPath)
		if err != nil {
			return err
		}
		t = parsed
	}

	if !devMode {
		tplCache.Lock()
		tplCache.m[key] = t
		tplCache.Unlock()
	}
	if t == nil {
		return errors.New("template not cached")
	}
	return t.Execute(w, data)
}
