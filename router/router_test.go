package router

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// named returns a handler that writes name and its parameters.
func named(name string) Handler {
	return func(w http.ResponseWriter, r *http.Request, p Params) error {
		io.WriteString(w, name)
		for _, k := range []string{"keyword", "tag", "page"} {
			if v, ok := p[k]; ok {
				io.WriteString(w, " "+k+"="+v)
			}
		}
		return nil
	}
}

func TestMatch(t *testing.T) {
	rt := New()
	rt.Add("/", named("index"))
	rt.Add(Fallback, named("fallback"))
	rt.Add("/tag/{tag}", named("tag"))
	rt.Add("/tag/{tag}/page/{page}", named("tagpage"))
	rt.Add("/{keyword}", named("doc"))
	rt.Add("/files/*.md", named("files"))

	tests := []struct {
		path       string
		wantOK     bool
		wantParams Params
	}{
		{path: "/", wantOK: true, wantParams: Params{}},
		{path: "/hello", wantOK: true, wantParams: Params{"keyword": "hello"}},
		{path: "/tag/go", wantOK: true, wantParams: Params{"tag": "go"}},
		{path: "/tag/go/page/2", wantOK: true, wantParams: Params{"tag": "go", "page": "2"}},
		{path: "/files/a/b.md", wantOK: true, wantParams: Params{}},
		{path: "/a/b", wantOK: true, wantParams: Params{}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, p, ok := rt.Match(tt.path)
			if ok != tt.wantOK {
				t.Fatalf("Match ok = %v, want %v", ok, tt.wantOK)
			}
			if diff := cmp.Diff(tt.wantParams, p); diff != "" {
				t.Errorf("params mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMatchWithoutFallback(t *testing.T) {
	rt := New()
	rt.Add("/tag/{tag}", named("tag"))

	for _, path := range []string{"/tag/", "/tag/a/b", "/other"} {
		if _, _, ok := rt.Match(path); ok {
			t.Errorf("Match(%q) matched", path)
		}
	}
}

func TestServeHTTP(t *testing.T) {
	rt := New()
	rt.Add("/", named("index"))
	rt.Add("/tag/{tag}", named("tag"))
	rt.Add("/{keyword}", func(w http.ResponseWriter, r *http.Request, p Params) error {
		if p["keyword"] == "missing" {
			return ErrNoRoute
		}
		if p["keyword"] == "broken" {
			return errors.New("disk on fire")
		}
		return named("doc")(w, r, p)
	})
	// Registered twice: the last handler wins.
	rt.Add("/tag/{tag}", named("tag2"))

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{path: "/", wantStatus: http.StatusOK, wantBody: "index"},
		{path: "/tag/go", wantStatus: http.StatusOK, wantBody: "tag2 tag=go"},
		{path: "/hello", wantStatus: http.StatusOK, wantBody: "doc keyword=hello"},
		{path: "/missing", wantStatus: http.StatusNotFound, wantBody: "404 page not found\n"},
		{path: "/a/b", wantStatus: http.StatusNotFound, wantBody: "404 page not found\n"},
		{path: "/broken", wantStatus: http.StatusInternalServerError, wantBody: "Internal Server Error\n"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			rt.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if diff := cmp.Diff(tt.wantBody, rec.Body.String()); diff != "" {
				t.Errorf("body mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFallback(t *testing.T) {
	rt := New()
	rt.Add("/{keyword}", func(w http.ResponseWriter, r *http.Request, p Params) error {
		return ErrNoRoute
	})
	rt.Add(Fallback, func(w http.ResponseWriter, r *http.Request, p Params) error {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, "custom not found")
		return nil
	})

	for _, path := range []string{"/unknown", "/deep/path"} {
		rec := httptest.NewRecorder()
		rt.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		if rec.Code != http.StatusNotFound || rec.Body.String() != "custom not found" {
			t.Errorf("%s: got %d %q, want the fallback", path, rec.Code, rec.Body.String())
		}
	}
}

func TestDispatchNoRoute(t *testing.T) {
	rt := New()
	err := rt.Dispatch(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	if !errors.Is(err, ErrNoRoute) {
		t.Errorf("Dispatch error = %v, want ErrNoRoute", err)
	}
}

func TestReroute(t *testing.T) {
	rt := New()
	rt.Add("/", named("index"))
	rt.Reroute("/index", "/")
	rt.Reroute("/tags/{tag}", "/tag/{tag}")
	rt.Reroute("/t/{tag}/{page}", "/tag/{1}/page/{2}")
	rt.Add("/tag/{tag}", named("tag"))
	rt.Add("/tag/{tag}/page/{page}", named("tagpage"))
	rt.Reroute("/old/{keyword}", "/{keyword}")
	rt.Add("/{keyword}", named("doc"))

	tests := []struct {
		path     string
		wantBody string
	}{
		{path: "/index", wantBody: "index"},
		{path: "/tags/go", wantBody: "tag tag=go"},
		{path: "/t/go/3", wantBody: "tagpage tag=go page=3"},
		{path: "/old/hello", wantBody: "doc keyword=hello"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			rt.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != http.StatusOK {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
			}
			if diff := cmp.Diff(tt.wantBody, rec.Body.String()); diff != "" {
				t.Errorf("body mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRerouteLoop(t *testing.T) {
	rt := New()
	rt.Reroute("/a", "/b")
	rt.Reroute("/b", "/a")

	rec := httptest.NewRecorder()
	rt.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/a", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestRedirect(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		params url.Values
		want   string
	}{
		{name: "no params", path: "/", want: "/"},
		{name: "params", path: "/search", params: url.Values{"q": {"a b&c"}, "page": {"2"}}, want: "/search?page=2&q=a+b%26c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			Redirect(rec, httptest.NewRequest(http.MethodGet, "/from", nil), tt.path, tt.params)

			if rec.Code != http.StatusFound {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusFound)
			}
			if diff := cmp.Diff(tt.want, rec.Header().Get("Location")); diff != "" {
				t.Errorf("Location mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
