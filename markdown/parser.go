// Package markdown compiles Markdown text into HTML.
//
// Parsing runs in two phases. The block scanner consumes normalized lines
// and builds a tree of block elements, registering reference definitions as
// it goes. Once the whole document is scanned, deferred bodies (inline text,
// nested blockquote and list item lines) are resolved in document order by the
// inline tokenizer and the block scanner, and the resulting tree is rendered.
//
// The engine never fails: any input produces some HTML.
package markdown

import (
	"strings"

	"go.uber.org/zap"
)

// Config holds the flags that control a parse. It is read-only while a parse runs.
type Config struct {
	// BreaksEnabled turns every newline inside a paragraph into a hard break.
	BreaksEnabled bool

	// MarkupEscaped disables raw HTML blocks and inline tags.
	MarkupEscaped bool

	// UrlsLinked turns bare http(s) URLs into links.
	UrlsLinked bool

	// SafeMode escapes raw HTML and sanitizes attributes and URLs.
	SafeMode bool

	// StrictMode requires a space after the hashes of an ATX header.
	StrictMode bool

	// FenceLanguages is the allow-list of info string languages handed to
	// the fence renderer. Matching is case-insensitive on the first word.
	FenceLanguages []string
}

// DefaultConfig returns the usual configuration: bare URLs are linked and
// every other flag is off.
func DefaultConfig() Config {
	return Config{UrlsLinked: true}
}

// Parser renders Markdown. A Parser may be shared by concurrent goroutines once
// it has been configured: all mutable state of a parse lives in a parseContext.
type Parser struct {
	cfg   Config
	langs map[string]bool
	fence FenceRenderer
	log   *zap.SugaredLogger
}

// New returns a Parser using cfg.
func New(cfg Config) *Parser {
	p := &Parser{
		cfg:   cfg,
		langs: make(map[string]bool, len(cfg.FenceLanguages)),
		log:   zap.NewNop().Sugar(),
	}
	for _, l := range cfg.FenceLanguages {
		p.langs[strings.ToLower(l)] = true
	}
	return p
}

// Config returns a copy of the configuration of the parser.
func (p *Parser) Config() Config {
	return p.cfg
}

// SetFenceRenderer installs the renderer used for fenced code blocks whose
// language is in the allow-list. It must not be called while parses run.
func (p *Parser) SetFenceRenderer(f FenceRenderer) {
	p.fence = f
}

// SetLogger sets the logger used for debug traces.
func (p *Parser) SetLogger(logger *zap.SugaredLogger) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	p.log = logger
}

// Render converts a Markdown document into HTML. Line endings are normalized
// to "\n" and leading and trailing newlines are trimmed from the result.
func (p *Parser) Render(text string) string {
	c := newContext(p)

	lines := splitLines(normalizeNewlines(text))
	elements := c.linesElements(lines)
	c.resolveElements(elements)

	return strings.Trim(c.renderElements(elements), "\n")
}

// RenderInline converts a single span of Markdown, without block structure,
// into HTML. Reference links cannot resolve since no definitions are scanned.
func (p *Parser) RenderInline(text string) string {
	c := newContext(p)

	elements := c.lineElements(normalizeNewlines(text), 0)
	c.resolveElements(elements)

	return c.renderElements(elements)
}

// reference is a link reference definition.
type reference struct {
	url      string
	title    string
	hasTitle bool
}

// parseContext carries the state of one parse: the reference table.
type parseContext struct {
	*Parser
	refs map[string]reference
}

func newContext(p *Parser) *parseContext {
	return &parseContext{
		Parser: p,
		refs:   make(map[string]reference),
	}
}

// define stores a reference definition. Later definitions win.
func (c *parseContext) define(label, url, title string, hasTitle bool) {
	c.refs[strings.ToLower(label)] = reference{url: url, title: title, hasTitle: hasTitle}
}

func (c *parseContext) lookup(label string) (reference, bool) {
	r, ok := c.refs[strings.ToLower(label)]
	return r, ok
}

// resolveElements resolves every deferred body reachable from elements,
// depth first in document order. Resolution can define new references
// (inside blockquotes and list items), which only affect what follows.
func (c *parseContext) resolveElements(elements []*Element) {
	for _, e := range elements {
		c.resolveElement(e)
	}
}

func (c *parseContext) resolveElement(e *Element) {
	if e == nil {
		return
	}

	if d := e.deferred; d != nil {
		e.deferred = nil
		switch d.kind {
		case resolveInline:
			e.Children = c.lineElements(d.text, e.nonNestables)
		case resolveBlocks:
			e.Children = c.linesElements(d.lines)
		case resolveListItem:
			e.Children = c.listItem(d.lines)
		}
		e.kind = childrenContent
	}

	switch e.kind {
	case childContent:
		c.resolveElement(e.Child)
	case childrenContent:
		c.resolveElements(e.Children)
	}
}

// listItem scans the lines of a list item. Items of a tight list (no blank
// line among their lines) lose the paragraph wrapping of their first block.
func (c *parseContext) listItem(lines []string) []*Element {
	elements := c.linesElements(lines)

	for _, l := range lines {
		if l == "" {
			return elements
		}
	}

	if len(elements) > 0 && elements[0] != nil && elements[0].Name == "p" {
		elements[0].Name = ""
	}

	return elements
}
