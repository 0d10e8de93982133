package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hesusruiz/pagedown/content"
	"github.com/hesusruiz/pagedown/markdown"
	"go.uber.org/zap"
)

func openTestRepository(t *testing.T) *content.Repository {
	t.Helper()

	dir := t.TempDir()
	docs := map[string]string{
		"hello.md": "title: Hello <World>\ndate: 2023-05-01\ntags: go, web\n---\n# Hi\n\nSome *text*.\n",
		"older.md": "title: Older\ndate: 2022-01-01\ntags: go\n---\nOld news.\n",
	}
	for name, src := range docs {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0664); err != nil {
			t.Fatal(err)
		}
	}

	repo, err := content.Open(dir, content.WithParser(markdown.New(markdown.DefaultConfig())))
	if err != nil {
		t.Fatalf("content.Open: %v", err)
	}
	return repo
}

func TestSite(t *testing.T) {
	handler := newSite(openTestRepository(t), zap.NewNop().Sugar()).routes()

	tests := []struct {
		path         string
		wantStatus   int
		wantContains []string
	}{
		{
			path:       "/",
			wantStatus: http.StatusOK,
			wantContains: []string{
				`<a href="/hello">Hello &lt;World&gt;</a>`,
				`<a class="tag" href="/tag/web">web</a>`,
				`<a href="/older">Older</a>`,
			},
		},
		{
			path:         "/hello",
			wantStatus:   http.StatusOK,
			wantContains: []string{"<title>Hello &lt;World&gt;</title>", "<h1>Hi</h1>\n<p>Some <em>text</em>.</p>"},
		},
		{
			path:         "/tag/go",
			wantStatus:   http.StatusOK,
			wantContains: []string{"<h1>Tagged go</h1>", `href="/hello"`, `href="/older"`},
		},
		{
			path:         "/index",
			wantStatus:   http.StatusOK,
			wantContains: []string{"<h1>Documents</h1>", `<a href="/hello">Hello &lt;World&gt;</a>`},
		},
		{
			path:         "/tags/go",
			wantStatus:   http.StatusOK,
			wantContains: []string{"<h1>Tagged go</h1>", `href="/older"`},
		},
		{
			path:         "/page/2",
			wantStatus:   http.StatusFound,
			wantContains: []string{`href="/?page=2"`},
		},
		{
			path:         "/tag/nothing",
			wantStatus:   http.StatusNotFound,
			wantContains: []string{"<h1>Not Found</h1>"},
		},
		{
			path:         "/missing",
			wantStatus:   http.StatusNotFound,
			wantContains: []string{"<h1>Not Found</h1>"},
		},
		{
			path:         "/a/b/c",
			wantStatus:   http.StatusNotFound,
			wantContains: []string{"<h1>Not Found</h1>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			body := rec.Body.String()
			for _, want := range tt.wantContains {
				if !strings.Contains(body, want) {
					t.Errorf("body does not contain %q:\n%s", want, body)
				}
			}
		})
	}
}

func TestBuildSite(t *testing.T) {
	out := filepath.Join(t.TempDir(), "public")

	if err := buildSite(openTestRepository(t), out, false, zap.NewNop().Sugar()); err != nil {
		t.Fatalf("buildSite: %v", err)
	}

	for name, want := range map[string]string{
		"hello.html": "<h1>Hi</h1>",
		"older.html": "<p>Old news.</p>",
		"index.html": `<a href="hello.html">Hello &lt;World&gt;</a>`,
	} {
		data, err := os.ReadFile(filepath.Join(out, name))
		if err != nil {
			t.Errorf("reading %s: %v", name, err)
			continue
		}
		if !strings.Contains(string(data), want) {
			t.Errorf("%s does not contain %q:\n%s", name, want, data)
		}
	}
}

func TestHTMLFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"doc.md", "doc.html"},
		{"dir/doc.markdown", "dir/doc.html"},
		{"README", "README.html"},
		{"a.md.md", "a.md.html"},
	}

	for _, tt := range tests {
		if got := htmlFileName(tt.in); got != tt.want {
			t.Errorf("htmlFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCommandName(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"pagedown", "render", "doc.md"}, "render"},
		{[]string{"pagedown", "--help"}, ""},
		{[]string{"pagedown", "-v", "serve"}, "serve"},
		{[]string{"pagedown"}, ""},
	}

	for _, tt := range tests {
		if got := commandName(tt.args); got != tt.want {
			t.Errorf("commandName(%q) = %q, want %q", tt.args, got, tt.want)
		}
	}
}
