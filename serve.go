package main

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/hesusruiz/pagedown/content"
	"github.com/hesusruiz/pagedown/router"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// pageSize is the number of documents of a listing page.
const pageSize = 20

// serve answers HTTP requests for the documents of a content directory.
func serve(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.log.Sync()

	dir := c.Args().First()
	if dir == "" {
		dir = e.cfg.ContentDir
	}

	repo, closeRepo, err := openRepository(dir, e)
	if err != nil {
		return err
	}
	defer closeRepo()

	srv := &http.Server{
		Addr:              e.cfg.ServerAddr,
		Handler:           newSite(repo, e.log).routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	e.log.Infow("serving", "dir", repo.Dir(), "addr", srv.Addr, "documents", repo.Len())

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// site serves the pages of one repository.
type site struct {
	repo *content.Repository
	log  *zap.SugaredLogger
}

func newSite(repo *content.Repository, log *zap.SugaredLogger) *site {
	return &site{repo: repo, log: log}
}

var siteLinks = linker{
	doc: func(keyword string) string { return "/" + url.PathEscape(keyword) },
	tag: func(tag string) string { return "/tag/" + url.PathEscape(tag) },
}

func (s *site) routes() *router.Router {
	rt := router.New()
	rt.SetLogger(s.log)

	rt.Add("/", s.index)
	rt.Reroute("/index", "/")
	rt.Add("/page/{page}", s.page)
	rt.Add("/tag/{tag}", s.tag)
	rt.Reroute("/tags/{tag}", "/tag/{tag}")
	rt.Add("/{keyword}", s.document)
	rt.Add(router.Fallback, s.notFound)

	return rt
}

// refresh picks up documents changed since the index was built.
func (s *site) refresh() {
	if err := s.repo.Refresh(); err != nil {
		s.log.Warnw("cannot refresh the index", "dir", s.repo.Dir(), "error", err)
	}
}

func pageNumber(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// listing renders a page of the documents selected by q.
func (s *site) listing(w http.ResponseWriter, r *http.Request, title string, q content.Query) error {
	q.Count = pageSize
	q.Page = pageNumber(r)

	nodes, found := s.repo.Select(q)
	if found == 0 && len(q.Tags) > 0 {
		return router.ErrNoRoute
	}

	d := pageData{
		Title:   title,
		Heading: title,
		Items:   siteLinks.items(nodes),
	}
	if q.Page > 1 {
		d.Prev = r.URL.Path + "?page=" + strconv.Itoa(q.Page-1)
	}
	if q.Page*pageSize < found {
		d.Next = r.URL.Path + "?page=" + strconv.Itoa(q.Page+1)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return writePage(w, d)
}

func (s *site) index(w http.ResponseWriter, r *http.Request, p router.Params) error {
	s.refresh()
	return s.listing(w, r, "Documents", content.Query{})
}

// page keeps the old "/page/N" links working.
func (s *site) page(w http.ResponseWriter, r *http.Request, p router.Params) error {
	router.Redirect(w, r, "/", url.Values{"page": {p["page"]}})
	return nil
}

func (s *site) tag(w http.ResponseWriter, r *http.Request, p router.Params) error {
	s.refresh()
	return s.listing(w, r, "Tagged "+p["tag"], content.Query{Tags: []string{p["tag"]}})
}

func (s *site) document(w http.ResponseWriter, r *http.Request, p router.Params) error {
	s.refresh()

	n, err := s.repo.Get(p["keyword"])
	if errors.Is(err, content.ErrNotFound) {
		return router.ErrNoRoute
	}
	if err != nil {
		return err
	}

	d, err := documentPage(n)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return writePage(w, d)
}

func (s *site) notFound(w http.ResponseWriter, r *http.Request, p router.Params) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	return writePage(w, pageData{
		Title:   "Not Found",
		Heading: "Not Found",
	})
}
