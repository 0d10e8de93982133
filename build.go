package main

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	"github.com/cheggaaa/pb/v3"
	"github.com/hesusruiz/pagedown/content"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

// defaultBuildDir receives the pages when no output directory is given.
const defaultBuildDir = "public"

// buildWorkers bounds the documents rendered at the same time.
const buildWorkers = 8

// openRepository opens the content directory dir with the index cache of
// the configuration, if any. The returned function releases the cache.
func openRepository(dir string, e *env) (*content.Repository, func(), error) {
	opts := []content.Option{
		content.WithParser(newParser(e.cfg, e.log)),
		content.WithLogger(e.log),
	}

	closer := func() {}
	if e.cfg.CacheFile != "" {
		cache, err := content.OpenCache(e.cfg.CacheFile)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, content.WithCache(cache))
		closer = func() {
			if err := cache.Close(); err != nil {
				e.log.Warnw("closing index cache", "error", err)
			}
		}
	}

	repo, err := content.Open(dir, opts...)
	if err != nil {
		closer()
		return nil, nil, err
	}
	return repo, closer, nil
}

// build renders every document of a content directory to static pages.
func build(c *cli.Context) error {
	e, err := setup(c)
	if err != nil {
		return err
	}
	defer e.log.Sync()

	dir := c.Args().First()
	if dir == "" {
		dir = e.cfg.ContentDir
	}
	outDir := c.String("output")
	if outDir == "" {
		outDir = defaultBuildDir
	}

	repo, closeRepo, err := openRepository(dir, e)
	if err != nil {
		return err
	}
	defer closeRepo()

	return buildSite(repo, outDir, stderrIsTerminal(), e.log)
}

var staticLinks = linker{
	doc: func(keyword string) string { return url.PathEscape(keyword) + ".html" },
}

// buildSite writes one KEYWORD.html file per document and an index.html
// listing them, newest first.
func buildSite(repo *content.Repository, outDir string, progress bool, log *zap.SugaredLogger) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}

	nodes := repo.Newest(0)

	var bar *pb.ProgressBar
	if progress {
		bar = pb.StartNew(len(nodes))
		defer bar.Finish()
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	semaphore := make(chan struct{}, buildWorkers)

	for _, n := range nodes {
		n := n
		wg.Add(1)
		go func() {
			semaphore <- struct{}{}
			defer wg.Done()
			defer func() { <-semaphore }()

			err := writeDocument(outDir, n)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
			if bar != nil {
				bar.Increment()
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}

	var buf bytes.Buffer
	err := writePage(&buf, pageData{
		Title: "Index",
		Items: staticLinks.items(nodes),
	})
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(outDir, "index.html"), buf.Bytes(), 0664); err != nil {
		return err
	}

	log.Infow("site built", "documents", len(nodes), "output", outDir)
	return nil
}

func writeDocument(outDir string, n *content.Node) error {
	d, err := documentPage(n)
	if err != nil {
		return fmt.Errorf("%s: %w", n.Keyword, err)
	}

	var buf bytes.Buffer
	if err := writePage(&buf, d); err != nil {
		return fmt.Errorf("%s: %w", n.Keyword, err)
	}

	return os.WriteFile(filepath.Join(outDir, n.Keyword+".html"), buf.Bytes(), 0664)
}
