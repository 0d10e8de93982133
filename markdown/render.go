package markdown

import (
	"strings"
)

// VoidElements are the HTML elements that never have content.
var VoidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "command": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true, "param": true, "source": true,
}

// textLevelElements do not open a raw HTML block when they start a line.
var textLevelElements = map[string]bool{
	"a": true, "br": true, "bdo": true, "abbr": true, "blink": true, "nextid": true, "acronym": true, "basefont": true,
	"b": true, "em": true, "big": true, "cite": true, "small": true, "spacer": true, "listing": true,
	"i": true, "rp": true, "del": true, "code": true, "strike": true, "marquee": true,
	"q": true, "rt": true, "ins": true, "font": true, "strong": true,
	"s": true, "tt": true, "kbd": true, "mark": true,
	"u": true, "xm": true, "sub": true, "nobr": true,
	"sup": true, "ruby": true,
	"var": true, "span": true,
	"wbr": true,
	"time": true,
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "'", "&#039;")
)

// renderElements serializes a sequence. A newline separates two siblings
// when both of them break; a leading and a trailing newline are added when
// the first or last element breaks.
func (c *parseContext) renderElements(elements []*Element) string {
	var sb strings.Builder

	autoBreak := true
	for _, e := range elements {
		if e == nil {
			continue
		}

		next := e.breaks()
		autoBreak = autoBreak && next
		if autoBreak {
			sb.WriteByte('\n')
		}
		sb.WriteString(c.renderElement(e))
		autoBreak = next
	}

	if autoBreak {
		sb.WriteByte('\n')
	}

	return sb.String()
}

func (c *parseContext) renderElement(e *Element) string {
	if c.cfg.SafeMode {
		sanitize(e)
	}

	var sb strings.Builder

	if e.Name != "" {
		sb.WriteString("<" + e.Name)
		for _, a := range e.Attrs {
			sb.WriteString(" " + a.Key + `="` + attrEscaper.Replace(a.Val) + `"`)
		}
	}

	if e.kind == noContent || VoidElements[e.Name] {
		if e.Name != "" {
			sb.WriteString(" />")
		}
		return sb.String()
	}

	if e.Name != "" {
		sb.WriteString(">")
	}

	switch e.kind {
	case textContent:
		sb.WriteString(textEscaper.Replace(e.Text))
	case rawContent:
		if !c.cfg.SafeMode || e.SafeRaw {
			sb.WriteString(e.Text)
		} else {
			sb.WriteString(textEscaper.Replace(e.Text))
		}
	case childContent:
		if e.Child != nil {
			sb.WriteString(c.renderElement(e.Child))
		}
	case childrenContent:
		sb.WriteString(c.renderElements(e.Children))
	}

	if e.Name != "" {
		sb.WriteString("</" + e.Name + ">")
	}

	return sb.String()
}
