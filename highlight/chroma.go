// Package highlight provides fence renderers for the markdown engine:
// syntax highlighting with chroma, D2 diagrams, and a multiplexer that
// dispatches on the language of the fence.
package highlight

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	hlhtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// DefaultStyle is the chroma style used when none is configured.
const DefaultStyle = "github"

// Chroma highlights source code with inline styles.
type Chroma struct {
	Style string
}

// RenderFence implements markdown.FenceRenderer. The lexer is chosen by the
// first word of info, then by content analysis.
func (c Chroma) RenderFence(info, code string) (string, error) {
	if len(code) == 0 {
		return "", nil
	}

	// Determine lexer.
	l := lexers.Get(Language(info))
	if l == nil {
		l = lexers.Analyse(code)
	}
	if l == nil {
		l = lexers.Fallback
	}
	l = chroma.Coalesce(l)

	styleName := c.Style
	if styleName == "" {
		styleName = DefaultStyle
	}
	s := styles.Get(styleName)

	// The engine already wraps the result in <pre><code>
	f := hlhtml.New(hlhtml.Standalone(false), hlhtml.PreventSurroundingPre(true))

	it, err := l.Tokenise(nil, code)
	if err != nil {
		return "", fmt.Errorf("tokenising %s: %w", l.Config().Name, err)
	}

	rb := &bytes.Buffer{}
	if err := f.Format(rb, s, it); err != nil {
		return "", fmt.Errorf("formatting %s: %w", l.Config().Name, err)
	}

	return rb.String(), nil
}

// Language returns the lower-cased first word of a fence info string.
func Language(info string) string {
	if i := strings.IndexAny(info, " \t{"); i >= 0 {
		info = info[:i]
	}
	return strings.ToLower(info)
}
