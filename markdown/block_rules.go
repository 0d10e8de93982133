package markdown

import (
	"regexp"
	"strconv"
	"strings"
)

// Indented code

func (c *parseContext) openCode(l line, current *block) *block {
	if current != nil && current.kind == kindParagraph && current.interrupted == 0 {
		return nil
	}
	if l.indent < 4 {
		return nil
	}

	return &block{
		element: &Element{
			Name:  "pre",
			kind:  childContent,
			Child: namedText("code", l.body[4:]),
		},
	}
}

func (c *parseContext) continueCode(l line, b *block) *block {
	if l.indent < 4 {
		return nil
	}

	code := b.element.Child
	if b.interrupted > 0 {
		code.Text += strings.Repeat("\n", b.interrupted)
		b.interrupted = 0
	}
	code.Text += "\n" + l.body[4:]

	return b
}

func (c *parseContext) completeCode(b *block) *block {
	return b
}

// HTML comments

func (c *parseContext) openComment(l line, _ *block) *block {
	if c.cfg.MarkupEscaped || c.cfg.SafeMode {
		return nil
	}
	if !strings.HasPrefix(l.text, "<!--") {
		return nil
	}

	e := rawElement(l.body)
	e.autobreak = breakOn

	return &block{
		element: e,
		closed:  strings.Contains(l.text, "-->"),
	}
}

func (c *parseContext) continueComment(l line, b *block) *block {
	if b.closed {
		return nil
	}

	b.element.Text += "\n" + l.body
	if strings.Contains(l.text, "-->") {
		b.closed = true
	}

	return b
}

// Fenced code

func (c *parseContext) openFencedCode(l line, _ *block) *block {
	marker := l.text[0]

	openerLength := countLeading(l.text, marker)
	if openerLength < 3 {
		return nil
	}

	info := strings.Trim(l.text[openerLength:], "\t ")
	if marker == '`' && strings.Contains(info, "`") {
		return nil
	}

	code := namedText("code", "")
	if info != "" {
		code.SetAttr("class", "language-"+info)
	}

	return &block{
		fenceChar:    marker,
		openerLength: openerLength,
		element: &Element{
			Name:  "pre",
			kind:  childContent,
			Child: code,
		},
	}
}

func (c *parseContext) continueFencedCode(l line, b *block) *block {
	if b.complete {
		return nil
	}

	code := b.element.Child
	if b.interrupted > 0 {
		code.Text += strings.Repeat("\n", b.interrupted)
		b.interrupted = 0
	}

	if n := countLeading(l.text, b.fenceChar); n >= b.openerLength && strings.TrimRight(l.text[n:], " ") == "" {
		code.Text = strings.TrimPrefix(code.Text, "\n")
		b.complete = true
		return b
	}

	code.Text += "\n" + l.body

	return b
}

// completeFencedCode finishes the code text and hands it to the fence
// renderer when the language is allowed.
func (c *parseContext) completeFencedCode(b *block) *block {
	code := b.element.Child
	// An unclosed fence keeps its lines but not the line break that
	// precedes the first one.
	if !b.complete {
		code.Text = strings.TrimPrefix(code.Text, "\n")
	}

	class, ok := code.Attr("class")
	if !ok || c.fence == nil {
		return b
	}

	info := strings.TrimPrefix(class, "language-")
	lang := strings.ToLower(firstWord(info))
	if !c.langs[lang] {
		return b
	}

	html, err := c.fence.RenderFence(info, code.Text)
	if err != nil {
		c.log.Debugw("fence renderer failed, keeping plain code", "lang", lang, "error", err)
		return b
	}
	if html != "" {
		code.setRaw(html, true)
	}

	return b
}

// ATX headers

func (c *parseContext) openHeader(l line, _ *block) *block {
	level := countLeading(l.text, '#')
	if level > 6 {
		return nil
	}

	text := strings.Trim(l.text, "#")
	if c.cfg.StrictMode && text != "" && text[0] != ' ' {
		return nil
	}
	text = strings.Trim(text, " ")

	return &block{
		element: inlineDeferred("h"+strconv.Itoa(level), text),
	}
}

// Lists

func (c *parseContext) openList(l line, current *block) *block {
	m, ok := parseListMarker(l.text)
	if !ok {
		return nil
	}

	marker := m.marker + m.spaces
	content := m.rest
	contentIndent := len(m.spaces)
	if contentIndent >= 5 {
		contentIndent--
		marker = marker[:len(marker)-contentIndent]
		content = strings.Repeat(" ", contentIndent) + content
	} else if contentIndent == 0 {
		marker += " "
	}

	st := &listState{
		ordered:    m.ordered,
		indent:     l.indent,
		marker:     marker,
		markerType: m.marker,
	}

	list := &Element{Name: "ul", kind: childrenContent}
	if m.ordered {
		st.markerType = m.marker[len(m.marker)-1:]
		list.Name = "ol"

		start := strings.TrimLeft(m.marker[:len(m.marker)-1], "0")
		if start == "" {
			start = "0"
		}
		if start != "1" {
			if current != nil && current.kind == kindParagraph && current.interrupted == 0 {
				return nil
			}
			list.SetAttr("start", start)
		}
	}

	var lines []string
	if content != "" {
		lines = []string{content}
	}
	st.item = listItemElement(lines)
	list.Children = []*Element{st.item}

	return &block{
		element: list,
		list:    st,
	}
}

func (c *parseContext) continueList(l line, b *block) *block {
	st := b.list
	if b.interrupted > 0 && len(st.item.deferred.lines) == 0 {
		return nil
	}

	required := st.indent + len(st.marker)

	if l.indent < required {
		if text, ok := matchListItem(l.text, st.markerType, st.ordered); ok {
			if b.interrupted > 0 {
				st.item.deferred.lines = append(st.item.deferred.lines, "")
				st.loose = true
				b.interrupted = 0
			}

			st.item = listItemElement([]string{text})
			st.indent = l.indent
			b.element.Children = append(b.element.Children, st.item)

			return b
		}
		if _, ok := parseListMarker(l.text); ok {
			return nil
		}
	}

	if l.text[0] == '[' && c.openReference(l, nil) != nil {
		return b
	}

	if l.indent >= required {
		if b.interrupted > 0 {
			st.item.deferred.lines = append(st.item.deferred.lines, "")
			st.loose = true
			b.interrupted = 0
		}
		st.item.deferred.lines = append(st.item.deferred.lines, l.body[required:])
		return b
	}

	if b.interrupted == 0 {
		st.item.deferred.lines = append(st.item.deferred.lines, trimSpaces(l.body, required))
		return b
	}

	return nil
}

func (c *parseContext) completeList(b *block) *block {
	if !b.list.loose {
		return b
	}

	for _, item := range b.element.Children {
		lines := item.deferred.lines
		if len(lines) == 0 || lines[len(lines)-1] != "" {
			item.deferred.lines = append(lines, "")
		}
	}

	return b
}

func listItemElement(lines []string) *Element {
	return &Element{
		Name:     "li",
		kind:     childrenContent,
		deferred: &deferred{kind: resolveListItem, lines: lines},
	}
}

// listMarker is a list item marker found at the start of a line.
type listMarker struct {
	marker  string // "-" or "12." style marker
	spaces  string // the spaces after it, possibly empty at end of line
	rest    string
	ordered bool
}

// parseListMarker recognizes "[*+-]" bullets and 1 to 9 digit ordered markers
// closed by "." or ")", followed by spaces or the end of the line.
// Texts starting with a character up to '-' are only tried as bullets.
func parseListMarker(text string) (listMarker, bool) {
	var m listMarker
	if text == "" {
		return m, false
	}

	i := 0
	if text[0] <= '-' {
		if text[0] != '*' && text[0] != '+' && text[0] != '-' {
			return m, false
		}
		i = 1
	} else {
		for i < len(text) && i < 9 && isDigit(text[i]) {
			i++
		}
		if i == 0 || i == len(text) || (text[i] != '.' && text[i] != ')') {
			return m, false
		}
		i++
		m.ordered = true
	}

	j := i
	for j < len(text) && text[j] == ' ' {
		j++
	}
	if j == i && j < len(text) {
		return m, false
	}

	m.marker, m.spaces, m.rest = text[:i], text[i:j], text[j:]
	return m, true
}

// matchListItem reports whether text starts a sibling item of a list whose
// marker type is markerType, and returns the item text.
func matchListItem(text, markerType string, ordered bool) (string, bool) {
	i := 0
	if ordered {
		for i < len(text) && isDigit(text[i]) {
			i++
		}
		if i == 0 {
			return "", false
		}
	}

	if !strings.HasPrefix(text[i:], markerType) {
		return "", false
	}
	i += len(markerType)

	if i == len(text) {
		return "", true
	}
	if text[i] != ' ' {
		return "", false
	}

	return strings.TrimLeft(text[i:], " "), true
}

// Blockquotes

func (c *parseContext) openQuote(l line, _ *block) *block {
	text, ok := quoteText(l.text)
	if !ok {
		return nil
	}

	return &block{
		element: blocksDeferred("blockquote", []string{text}),
	}
}

func (c *parseContext) continueQuote(l line, b *block) *block {
	if b.interrupted > 0 {
		return nil
	}

	d := b.element.deferred
	if text, ok := quoteText(l.text); ok {
		d.lines = append(d.lines, text)
		return b
	}

	d.lines = append(d.lines, l.text)
	return b
}

// quoteText strips the ">" prefix and one optional space.
func quoteText(text string) (string, bool) {
	if text == "" || text[0] != '>' {
		return "", false
	}
	return strings.TrimPrefix(text[1:], " "), true
}

// Thematic breaks

func (c *parseContext) openRule(l line, _ *block) *block {
	marker := l.text[0]

	if strings.Count(l.text, string(marker)) < 3 {
		return nil
	}
	if strings.TrimRight(l.text, " "+string(marker)) != "" {
		return nil
	}

	return &block{
		element: &Element{Name: "hr"},
	}
}

// Setext headers

func (c *parseContext) openSetextHeader(l line, current *block) *block {
	if current == nil || current.kind != kindParagraph || current.interrupted > 0 {
		return nil
	}

	marker := string(l.text[0])
	if l.indent >= 4 || strings.TrimRight(strings.TrimRight(l.text, " "), marker) != "" {
		return nil
	}

	if marker == "=" {
		current.element.Name = "h1"
	} else {
		current.element.Name = "h2"
	}

	return current
}

// Raw HTML blocks

const htmlAttribute = `[a-zA-Z_:][\w:.-]*(?:\s*=\s*(?:[^"'=<>` + "`" + `\s]+|"[^"]*"|'[^']*'))?`

var markupOpenRegex = regexp.MustCompile(`^<[/]?(\w*)(?:[ ]*` + htmlAttribute + `)*[ ]*(/)?>`)

func (c *parseContext) openMarkup(l line, _ *block) *block {
	if c.cfg.MarkupEscaped || c.cfg.SafeMode {
		return nil
	}

	m := markupOpenRegex.FindStringSubmatch(l.text)
	if m == nil {
		return nil
	}
	if textLevelElements[strings.ToLower(m[1])] {
		return nil
	}

	e := rawElement(l.text)
	e.autobreak = breakOn

	return &block{element: e}
}

func (c *parseContext) continueMarkup(l line, b *block) *block {
	if b.closed || b.interrupted > 0 {
		return nil
	}

	b.element.Text += "\n" + l.body
	return b
}

// Reference definitions

var referenceRegex = regexp.MustCompile(`^\[(.+?)\]:[ ]*<?(\S+?)>?(?:[ ]+["'(](.+)["')])?[ ]*$`)

// openReference stores the definition in the reference table. The block it
// returns renders nothing.
func (c *parseContext) openReference(l line, _ *block) *block {
	if !strings.Contains(l.text, "]") {
		return nil
	}

	m := referenceRegex.FindStringSubmatchIndex(l.text)
	if m == nil {
		return nil
	}

	label := l.text[m[2]:m[3]]
	url := l.text[m[4]:m[5]]
	title, hasTitle := "", m[6] >= 0
	if hasTitle {
		title = l.text[m[6]:m[7]]
	}
	c.define(label, url, title, hasTitle)

	return &block{}
}

// Tables

func (c *parseContext) openTable(l line, current *block) *block {
	if current == nil || current.kind != kindParagraph || current.interrupted > 0 {
		return nil
	}

	header := current.element.deferred.text
	if strings.Contains(header, "\n") {
		return nil
	}
	if !strings.Contains(header, "|") && !strings.ContainsAny(l.text, "|:") {
		return nil
	}
	if strings.TrimRight(l.text, " -:|") != "" {
		return nil
	}

	var alignments []string
	for _, cell := range strings.Split(trimTableRow(l.text), "|") {
		cell = strings.TrimSpace(cell)
		if cell == "" {
			return nil
		}

		alignment := ""
		if cell[0] == ':' {
			alignment = "left"
		}
		if cell[len(cell)-1] == ':' {
			if alignment == "left" {
				alignment = "center"
			} else {
				alignment = "right"
			}
		}
		alignments = append(alignments, alignment)
	}

	headerCells := splitUnescaped(trimTableRow(header))
	if len(headerCells) != len(alignments) {
		return nil
	}

	row := &Element{Name: "tr", kind: childrenContent}
	for i, cell := range headerCells {
		row.Children = append(row.Children, tableCell("th", cell, alignments[i]))
	}

	table := &Element{
		Name: "table",
		kind: childrenContent,
		Children: []*Element{
			{Name: "thead", kind: childrenContent, Children: []*Element{row}},
			{Name: "tbody", kind: childrenContent, Children: []*Element{}},
		},
	}

	return &block{
		element:    table,
		alignments: alignments,
		identified: true,
	}
}

func (c *parseContext) continueTable(l line, b *block) *block {
	if b.interrupted > 0 {
		return nil
	}
	if len(b.alignments) != 1 && !strings.Contains(l.text, "|") {
		return nil
	}

	cells := splitTableRow(trimTableRow(l.text))

	row := &Element{Name: "tr", kind: childrenContent}
	for i, alignment := range b.alignments {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		row.Children = append(row.Children, tableCell("td", cell, alignment))
	}

	body := b.element.Children[1]
	body.Children = append(body.Children, row)

	return b
}

func tableCell(name, text, alignment string) *Element {
	cell := inlineDeferred(name, strings.TrimSpace(text))
	if alignment != "" {
		cell.SetAttr("style", "text-align: "+alignment+";")
	}
	return cell
}

// trimTableRow removes surrounding whitespace, then surrounding pipes.
func trimTableRow(row string) string {
	return strings.Trim(strings.Trim(row, blankChars), "|")
}

// splitUnescaped splits s on every "|" not preceded by a backslash, keeping
// empty cells.
func splitUnescaped(s string) []string {
	var cells []string

	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if i+1 < len(s) && s[i+1] == '|' {
				i++
			}
		case '|':
			cells = append(cells, s[start:i])
			start = i + 1
		}
	}

	return append(cells, s[start:])
}

// splitTableRow splits a body row on "|". Escaped pipes and pipes inside code
// spans do not split. Empty cells between adjacent pipes are dropped.
func splitTableRow(s string) []string {
	var cells []string

	start := 0
	flush := func(end int) {
		if end > start {
			cells = append(cells, s[start:end])
		}
		start = end + 1
	}

	for i := 0; i < len(s); {
		switch s[i] {
		case '|':
			flush(i)
			i++
		case '\\':
			if i+1 < len(s) && s[i+1] == '|' {
				i += 2
			} else {
				i++
			}
		case '`':
			end := -1
			if i+1 < len(s) && s[i+1] != '`' {
				end = strings.IndexByte(s[i+1:], '`')
			}
			if end < 0 {
				i++
			} else {
				i += end + 2
			}
		default:
			i++
		}
	}
	flush(len(s))

	return cells
}

// Paragraphs

func (c *parseContext) openParagraph(l line) *block {
	return &block{
		kind:       kindParagraph,
		element:    inlineDeferred("p", l.text),
		identified: true,
	}
}

func (c *parseContext) continueParagraph(l line, b *block) *block {
	if b.interrupted > 0 {
		return nil
	}

	b.element.deferred.text += "\n" + l.text
	return b
}

// helpers

func countLeading(s string, ch byte) int {
	n := 0
	for n < len(s) && s[n] == ch {
		n++
	}
	return n
}

// trimSpaces removes at most max leading spaces from s.
func trimSpaces(s string, max int) string {
	n := 0
	for n < len(s) && n < max && s[n] == ' ' {
		n++
	}
	return s[n:]
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func firstWord(s string) string {
	if i := strings.IndexAny(s, " \t{"); i >= 0 {
		return s[:i]
	}
	return s
}
