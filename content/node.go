package content

import (
	"strings"
	"sync"
	"time"

	"github.com/hesusruiz/pagedown/markdown"
)

// entry is the indexed metadata of one document.
type entry struct {
	Keyword string            `yaml:"keyword"`
	Date    time.Time         `yaml:"date"`
	Tags    []string          `yaml:"tags,omitempty"`
	Meta    map[string]string `yaml:"meta,omitempty"`
}

// Node is one document of a repository. Nodes are shared between queries
// and are safe for concurrent use.
type Node struct {
	Keyword string
	Date    time.Time
	Tags    []string
	Meta    map[string]string
	Active  bool

	path   string
	parser *markdown.Parser

	once sync.Once
	body string
	err  error
}

func newNode(e entry, path string, parser *markdown.Parser) *Node {
	return &Node{
		Keyword: e.Keyword,
		Date:    e.Date,
		Tags:    e.Tags,
		Meta:    e.Meta,
		Active:  true,
		path:    path,
		parser:  parser,
	}
}

// Get returns the metadata value of key, or "" if not set.
func (n *Node) Get(key string) string {
	return n.Meta[key]
}

// HasTag reports whether the node is tagged with tag, ignoring case.
func (n *Node) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Markdown reads the source of the node without its metadata.
func (n *Node) Markdown() (string, error) {
	src, err := readSource(n.path)
	if err != nil {
		return "", err
	}

	_, body, err := splitSource(n.path, src)
	if err != nil {
		return "", err
	}
	return body, nil
}

// Body renders the node to HTML. The file is read on the first call only.
func (n *Node) Body() (string, error) {
	n.once.Do(func() {
		var md string
		md, n.err = n.Markdown()
		if n.err == nil {
			n.body = n.parser.Render(md)
		}
	})
	return n.body, n.err
}
