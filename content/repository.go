// Package content indexes a directory of Markdown documents with metadata
// and answers queries over it.
package content

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hesusruiz/pagedown/markdown"
	"go.uber.org/zap"
)

// Repository is the index of the documents of one directory.
type Repository struct {
	dir    string
	parser *markdown.Parser
	cache  *Cache
	log    *zap.SugaredLogger

	mu      sync.RWMutex
	nodes   []*Node // sorted by date, newest first
	byKey   map[string]*Node
	builtAt time.Time
	found   int
}

// Option configures a Repository.
type Option func(*Repository)

// WithParser sets the parser used to render bodies.
func WithParser(p *markdown.Parser) Option {
	return func(r *Repository) { r.parser = p }
}

// WithCache stores the index in c between runs.
func WithCache(c *Cache) Option {
	return func(r *Repository) { r.cache = c }
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(r *Repository) {
		if l != nil {
			r.log = l
		}
	}
}

// Open indexes the *.md files of dir. The index comes from the cache when
// no file is newer than the cached copy.
func Open(dir string, opts ...Option) (*Repository, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoContent)
	}

	r := &Repository{
		dir: abs,
		log: zap.NewNop().Sugar(),
	}
	for _, o := range opts {
		o(r)
	}
	if r.parser == nil {
		r.parser = markdown.New(markdown.DefaultConfig())
	}

	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

// Dir returns the absolute path of the content directory.
func (r *Repository) Dir() string {
	return r.dir
}

// Refresh rebuilds the index if a document changed since it was built.
func (r *Repository) Refresh() error {
	newest, err := r.newestModTime()
	if err != nil {
		return err
	}

	r.mu.RLock()
	current := r.builtAt.After(newest)
	r.mu.RUnlock()
	if current {
		return nil
	}

	return r.rebuild()
}

func (r *Repository) load() error {
	if r.cache == nil {
		return r.rebuild()
	}

	rec, err := r.cache.load(r.dir)
	if err != nil {
		r.log.Warnw("ignoring index cache", "dir", r.dir, "error", err)
	}
	if rec == nil {
		return r.rebuild()
	}

	newest, err := r.newestModTime()
	if err != nil {
		return err
	}
	if !rec.BuiltAt.After(newest) {
		return r.rebuild()
	}

	r.log.Debugw("index loaded from cache", "dir", r.dir, "documents", len(rec.Entries))
	r.install(rec)
	return nil
}

// rebuild scans the directory and replaces the index.
func (r *Repository) rebuild() error {
	start := time.Now()

	paths, err := r.documents()
	if err != nil {
		return err
	}

	rec := &indexRecord{BuiltAt: start}
	for _, path := range paths {
		e, active, err := r.scan(path)
		if err != nil {
			r.log.Warnw("skipping document", "path", path, "error", err)
			continue
		}
		if active {
			rec.Entries = append(rec.Entries, e)
		}
	}

	sort.SliceStable(rec.Entries, func(i, j int) bool {
		return rec.Entries[i].Date.After(rec.Entries[j].Date)
	})

	if r.cache != nil {
		if err := r.cache.store(r.dir, rec); err != nil {
			r.log.Warnw("cannot store index cache", "dir", r.dir, "error", err)
		}
	}

	r.log.Debugw("index rebuilt", "dir", r.dir, "documents", len(rec.Entries), "elapsed", time.Since(start))
	r.install(rec)
	return nil
}

func (r *Repository) install(rec *indexRecord) {
	nodes := make([]*Node, 0, len(rec.Entries))
	byKey := make(map[string]*Node, len(rec.Entries))
	for _, e := range rec.Entries {
		n := newNode(e, r.path(e.Keyword), r.parser)
		nodes = append(nodes, n)
		byKey[n.Keyword] = n
	}

	r.mu.Lock()
	r.nodes = nodes
	r.byKey = byKey
	r.builtAt = rec.BuiltAt
	r.mu.Unlock()
}

func (r *Repository) path(keyword string) string {
	return filepath.Join(r.dir, keyword+".md")
}

// documents lists the Markdown files of the directory in name order.
func (r *Repository) documents() ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(r.dir, "*.md"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// newestModTime is the latest modification time of the directory and its documents.
func (r *Repository) newestModTime() (time.Time, error) {
	info, err := os.Stat(r.dir)
	if err != nil {
		return time.Time{}, err
	}
	newest := info.ModTime()

	paths, err := r.documents()
	if err != nil {
		return time.Time{}, err
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			continue
		}
		if info.ModTime().After(newest) {
			newest = info.ModTime()
		}
	}

	return newest, nil
}

// scan reads the metadata of the document at path.
func (r *Repository) scan(path string) (entry, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return entry{}, false, err
	}

	src, err := readSource(path)
	if err != nil {
		return entry{}, false, err
	}

	meta, _, err := splitSource(path, src)
	if err != nil {
		return entry{}, false, err
	}

	e := entry{
		Keyword: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Tags:    splitTags(meta["tags"]),
		Meta:    meta,
	}

	date, ok := parseDate(meta["date"])
	if !ok {
		date = info.ModTime()
	}
	e.Date = date

	return e, !isInactive(meta["active"]), nil
}

// Get returns the document with the given keyword.
func (r *Repository) Get(keyword string) (*Node, error) {
	r.mu.RLock()
	n, ok := r.byKey[keyword]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", keyword, ErrNotFound)
	}
	return n, nil
}

// Len returns the number of indexed documents.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nodes)
}
