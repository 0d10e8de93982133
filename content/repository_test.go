package content

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/text/encoding/unicode"
)

var testDocs = map[string]string{
	"a.md": "title: Alpha\ndate: 2023-04-05 10:30\ntags: Go, web\n---\n# Alpha\n",
	"b.md": "---\ntitle: Beta\ndate: \"2022.12.01\"\ntags: [go, cli]\nauthor: me\n---\nBeta *body*\n",
	"c.md": "Just text, no metadata.\n",
	"d.md": "title: Draft\nactive: No\n---\nhidden\n",
	"e.md": "title: Epsilon\ndate: 2023-04-20\ntags: web\nauthor: you\n---\nbody\n",

	"notes.txt": "not a document",
}

// cTime is the modification time of c.md, which has no date of its own.
var cTime = time.Date(2021, time.January, 1, 12, 0, 0, 0, time.Local)

func writeDocs(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	for name, src := range testDocs {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0664); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Chtimes(filepath.Join(dir, "c.md"), cTime, cTime); err != nil {
		t.Fatal(err)
	}
	return dir
}

func keywords(nodes []*Node) []string {
	var out []string
	for _, n := range nodes {
		out = append(out, n.Keyword)
	}
	return out
}

func TestOpen(t *testing.T) {
	r, err := Open(writeDocs(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if r.Len() != 4 {
		t.Errorf("Len() = %d, want 4", r.Len())
	}

	a, err := r.Get("a")
	if err != nil {
		t.Fatalf("Get(a): %v", err)
	}
	if want := time.Date(2023, time.April, 5, 10, 30, 0, 0, time.Local); !a.Date.Equal(want) {
		t.Errorf("a.Date = %v, want %v", a.Date, want)
	}
	if diff := cmp.Diff([]string{"Go", "web"}, a.Tags); diff != "" {
		t.Errorf("a.Tags mismatch (-want +got):\n%s", diff)
	}
	if got := a.Get("title"); got != "Alpha" {
		t.Errorf("a title = %q, want Alpha", got)
	}

	b, err := r.Get("b")
	if err != nil {
		t.Fatalf("Get(b): %v", err)
	}
	if diff := cmp.Diff([]string{"go", "cli"}, b.Tags); diff != "" {
		t.Errorf("b.Tags mismatch (-want +got):\n%s", diff)
	}

	c, err := r.Get("c")
	if err != nil {
		t.Fatalf("Get(c): %v", err)
	}
	if !c.Date.Equal(cTime) {
		t.Errorf("c.Date = %v, want the file time %v", c.Date, cTime)
	}

	for _, k := range []string{"d", "notes", "missing"} {
		if _, err := r.Get(k); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get(%q) error = %v, want ErrNotFound", k, err)
		}
	}
}

func TestOpenNotADirectory(t *testing.T) {
	dir := writeDocs(t)

	for _, path := range []string{filepath.Join(dir, "a.md"), filepath.Join(dir, "nope")} {
		if _, err := Open(path); !errors.Is(err, ErrNoContent) {
			t.Errorf("Open(%q) error = %v, want ErrNoContent", path, err)
		}
	}
}

func TestBody(t *testing.T) {
	r, err := Open(writeDocs(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	tests := []struct {
		keyword string
		want    string
	}{
		{"a", "<h1>Alpha</h1>"},
		{"b", "<p>Beta <em>body</em></p>"},
		{"c", "<p>Just text, no metadata.</p>"},
	}

	for _, tt := range tests {
		n, err := r.Get(tt.keyword)
		if err != nil {
			t.Fatalf("Get(%q): %v", tt.keyword, err)
		}
		got, err := n.Body()
		if err != nil {
			t.Fatalf("Body(%q): %v", tt.keyword, err)
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Body(%q) mismatch (-want +got):\n%s", tt.keyword, diff)
		}
	}
}

func TestBodyIsMemoized(t *testing.T) {
	dir := writeDocs(t)
	r, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	n, _ := r.Get("c")
	first, _ := n.Body()

	if err := os.WriteFile(filepath.Join(dir, "c.md"), []byte("changed"), 0664); err != nil {
		t.Fatal(err)
	}

	second, _ := n.Body()
	if first != second {
		t.Errorf("Body changed from %q to %q", first, second)
	}
}

func TestRefresh(t *testing.T) {
	dir := writeDocs(t)
	r, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	path := filepath.Join(dir, "f.md")
	if err := os.WriteFile(path, []byte("date: 2024-01-01\n---\nnew"), 0664); err != nil {
		t.Fatal(err)
	}
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	if err := r.Refresh(); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if diff := cmp.Diff([]string{"f", "e", "a", "b", "c"}, keywords(r.Newest(0))); diff != "" {
		t.Errorf("Newest mismatch (-want +got):\n%s", diff)
	}
}

func TestCache(t *testing.T) {
	dir := writeDocs(t)

	cache, err := OpenCache(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	defer cache.Close()

	if _, err := Open(dir, WithCache(cache)); err != nil {
		t.Fatalf("Open: %v", err)
	}

	// Rewriting a file in place with its old time keeps the cache current.
	path := filepath.Join(dir, "c.md")
	if err := os.WriteFile(path, []byte("title: Changed\n---\n"), 0664); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, cTime, cTime); err != nil {
		t.Fatal(err)
	}

	r, err := Open(dir, WithCache(cache))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if c, _ := r.Get("c"); c.Get("title") != "" {
		t.Errorf("index was rebuilt, title = %q", c.Get("title"))
	}

	if err := cache.Invalidate(r.Dir()); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}

	r, err = Open(dir, WithCache(cache))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if c, _ := r.Get("c"); c.Get("title") != "Changed" {
		t.Errorf("index was not rebuilt, title = %q", c.Get("title"))
	}
	if a, _ := r.Get("a"); !a.Date.Equal(time.Date(2023, time.April, 5, 10, 30, 0, 0, time.Local)) {
		t.Errorf("cached date = %v", a.Date)
	}
}

func TestSplitSource(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		wantMeta map[string]string
		wantBody string
	}{
		{
			name:     "header",
			src:      "title: T\nnot a field\ntags: a,b\n---\nbody",
			wantMeta: map[string]string{"title": "T", "tags": "a,b"},
			wantBody: "\nbody",
		},
		{
			name:     "no metadata",
			src:      "body only",
			wantMeta: map[string]string{},
			wantBody: "body only",
		},
		{
			name:     "yaml",
			src:      "---\ntitle: T\nn: 3\ntags:\n  - x\n  - y\n---\nbody",
			wantMeta: map[string]string{"title": "T", "n": "3", "tags": "x, y"},
			wantBody: "body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, body, err := splitSource("doc.md", tt.src)
			if err != nil {
				t.Fatalf("splitSource: %v", err)
			}
			if diff := cmp.Diff(tt.wantMeta, meta); diff != "" {
				t.Errorf("meta mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(strings.TrimSpace(tt.wantBody), strings.TrimSpace(body)); diff != "" {
				t.Errorf("body mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSplitSourceSyntaxError(t *testing.T) {
	_, _, err := splitSource("bad.md", "---\ntitle: [unclosed\n---\nx")

	var se *SyntaxError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want a *SyntaxError", err)
	}
	if se.Filename != "bad.md" {
		t.Errorf("Filename = %q, want bad.md", se.Filename)
	}
}

func TestReadSourceUTF16(t *testing.T) {
	enc := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder()
	data, err := enc.String("title: Ünï\n---\nx")
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "u.md")
	if err := os.WriteFile(path, []byte(data), 0664); err != nil {
		t.Fatal(err)
	}

	got, err := readSource(path)
	if err != nil {
		t.Fatalf("readSource: %v", err)
	}
	if diff := cmp.Diff("title: Ünï\n---\nx", got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in     string
		want   time.Time
		wantOK bool
	}{
		{"2023-04-05", time.Date(2023, 4, 5, 0, 0, 0, 0, time.Local), true},
		{"2023.04.05 08:15", time.Date(2023, 4, 5, 8, 15, 0, 0, time.Local), true},
		{"on 2023-04-05", time.Date(2023, 4, 5, 0, 0, 0, 0, time.Local), true},
		{"April 5th", time.Time{}, false},
	}

	for _, tt := range tests {
		got, ok := parseDate(tt.in)
		if ok != tt.wantOK || !got.Equal(tt.want) {
			t.Errorf("parseDate(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
