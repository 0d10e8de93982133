package markdown

import (
	"regexp"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// inlineKind is the closed set of inline constructs.
type inlineKind uint8

const (
	inlineCode inlineKind = iota
	inlineEmailTag
	inlineEmphasis
	inlineEscapeSequence
	inlineImage
	inlineLink
	inlineMarkup
	inlineSpecialCharacter
	inlineStrikethrough
	inlineURL
	inlineURLTag
)

// inlineSet is a set of inline kinds, used for the kinds that may not nest.
type inlineSet uint16

func (s inlineSet) has(k inlineKind) bool {
	return s&(1<<k) != 0
}

func setOf(kinds ...inlineKind) inlineSet {
	var s inlineSet
	for _, k := range kinds {
		s |= 1 << k
	}
	return s
}

// inlineMarkerChars are the characters that can start an inline construct.
const inlineMarkerChars = "!*_&[:<`~\\"

// inlineMarkers lists, per marker character, the kinds to try in order.
var inlineMarkers = map[byte][]inlineKind{
	'!':  {inlineImage},
	'&':  {inlineSpecialCharacter},
	'*':  {inlineEmphasis},
	':':  {inlineURL},
	'<':  {inlineURLTag, inlineEmailTag, inlineMarkup},
	'[':  {inlineLink},
	'_':  {inlineEmphasis},
	'`':  {inlineCode},
	'~':  {inlineStrikethrough},
	'\\': {inlineEscapeSequence},
}

// excerpt is the text from a marker to the end of the span being tokenized.
// context is the whole remaining span, starting before the marker.
type excerpt struct {
	text    string
	context string
}

// span is a matched inline construct.
type span struct {
	extent      int // bytes consumed, starting at position
	position    int // offset in the context, when hasPosition
	hasPosition bool
	element     *Element
}

var inlineRules = [...]func(c *parseContext, ex excerpt) *span{
	inlineCode:             (*parseContext).inlineCode,
	inlineEmailTag:         (*parseContext).inlineEmailTag,
	inlineEmphasis:         (*parseContext).inlineEmphasis,
	inlineEscapeSequence:   (*parseContext).inlineEscapeSequence,
	inlineImage:            (*parseContext).inlineImage,
	inlineLink:             (*parseContext).inlineLink,
	inlineMarkup:           (*parseContext).inlineMarkup,
	inlineSpecialCharacter: (*parseContext).inlineSpecialCharacter,
	inlineStrikethrough:    (*parseContext).inlineStrikethrough,
	inlineURL:              (*parseContext).inlineURL,
	inlineURLTag:           (*parseContext).inlineURLTag,
}

// lineElements tokenizes text into inline elements. Kinds in nonNestables
// are not tried and are propagated into the nested spans.
func (c *parseContext) lineElements(text string, nonNestables inlineSet) []*Element {
	var elements []*Element

scan:
	for {
		markerPosition := strings.IndexAny(text, inlineMarkerChars)
		if markerPosition < 0 {
			break
		}

		ex := excerpt{text: text[markerPosition:], context: text}

		for _, kind := range inlineMarkers[text[markerPosition]] {
			if nonNestables.has(kind) {
				continue
			}

			s := inlineRules[kind](c, ex)
			if s == nil {
				continue
			}

			position := markerPosition
			if s.hasPosition {
				if s.position > markerPosition {
					continue
				}
				position = s.position
			}

			s.element.nonNestables |= nonNestables

			elements = append(elements, c.inlineText(text[:position]), s.element)
			text = text[position+s.extent:]

			continue scan
		}

		elements = append(elements, c.inlineText(text[:markerPosition+1]))
		text = text[markerPosition+1:]
	}

	elements = append(elements, c.inlineText(text))

	for _, e := range elements {
		if e.autobreak == breakUnset {
			e.autobreak = breakOff
		}
	}

	return elements
}

var (
	hardBreakRegex = regexp.MustCompile(`(?:[ ]*\\|[ ]{2,})\n`)
	softBreakRegex = regexp.MustCompile(`[ ]*\n`)
)

// inlineText turns plain text into a text sequence, replacing line breaks
// that qualify as hard breaks with <br />.
func (c *parseContext) inlineText(text string) *Element {
	re := hardBreakRegex
	if c.cfg.BreaksEnabled {
		re = softBreakRegex
	}

	e := &Element{kind: childrenContent}
	for {
		loc := re.FindStringIndex(text)
		if loc == nil {
			break
		}
		e.Children = append(e.Children,
			textElement(text[:loc[0]]),
			&Element{Name: "br"},
			textElement("\n"),
		)
		text = text[loc[1]:]
	}
	e.Children = append(e.Children, textElement(text))

	return e
}

// matchTimeout bounds the backtracking patterns below. A pattern that times
// out is treated as not matching.
const matchTimeout = 250 * time.Millisecond

func compileBacktracking(pattern string, opts regexp2.RegexOptions) *regexp2.Regexp {
	re := regexp2.MustCompile(pattern, opts)
	re.MatchTimeout = matchTimeout
	return re
}

// match runs a backtracking pattern and returns its groups, or nil.
func (c *parseContext) match(re *regexp2.Regexp, s string) []string {
	m, err := re.FindStringMatch(s)
	if err != nil {
		c.log.Debugw("inline pattern abandoned", "pattern", re.String(), "error", err)
		return nil
	}
	if m == nil {
		return nil
	}

	groups := m.Groups()
	out := make([]string, len(groups))
	for i := range groups {
		out[i] = groups[i].String()
	}
	return out
}

var codeSpanRegex = compileBacktracking("^((?>`+))(?>[ ]*)(.+?)(?>[ ]*)(?<!`)\\1(?!`)", regexp2.Singleline)

var codeNewlineRegex = regexp.MustCompile(`[ ]*\n`)

func (c *parseContext) inlineCode(ex excerpt) *span {
	m := c.match(codeSpanRegex, ex.text)
	if m == nil {
		return nil
	}

	return &span{
		extent:  len(m[0]),
		element: namedText("code", codeNewlineRegex.ReplaceAllString(m[2], " ")),
	}
}

const (
	hostnameLabel  = `[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?`
	commonMarkMail = `[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" + `{|}~-]+@` + hostnameLabel + `(?:\.` + hostnameLabel + `)*`
)

var emailTagRegex = regexp.MustCompile(`(?i)^<((mailto:)?` + commonMarkMail + `)>`)

func (c *parseContext) inlineEmailTag(ex excerpt) *span {
	if !strings.Contains(ex.text, ">") {
		return nil
	}

	m := emailTagRegex.FindStringSubmatchIndex(ex.text)
	if m == nil {
		return nil
	}

	address := ex.text[m[2]:m[3]]
	href := address
	if m[4] < 0 {
		href = "mailto:" + address
	}

	e := namedText("a", address)
	e.SetAttr("href", href)

	return &span{extent: m[1], element: e}
}

var (
	strongRegex = map[byte]*regexp2.Regexp{
		'*': compileBacktracking(`^\*{2}((?:\\\*|[^*]|\*[^*]*\*)+?)\*{2}(?!\*)`, regexp2.Singleline),
		'_': compileBacktracking(`^__((?:\\_|[^_]|_[^_]*_)+?)__(?!_)`, regexp2.Singleline),
	}
	emRegex = map[byte]*regexp2.Regexp{
		'*': compileBacktracking(`^\*((?:\\\*|[^*]|\*\*[^*]+?\*\*)+?)\*(?!\*)`, regexp2.Singleline),
		'_': compileBacktracking(`^_((?:\\_|[^_]|__[^_]*__)+?)_(?!_)\b`, regexp2.Singleline),
	}
)

func (c *parseContext) inlineEmphasis(ex excerpt) *span {
	if len(ex.text) < 2 {
		return nil
	}

	marker := ex.text[0]

	var name string
	var m []string
	if ex.text[1] == marker {
		if m = c.match(strongRegex[marker], ex.text); m != nil {
			name = "strong"
		}
	}
	if name == "" {
		if m = c.match(emRegex[marker], ex.text); m != nil {
			name = "em"
		}
	}
	if name == "" {
		return nil
	}

	return &span{
		extent:  len(m[0]),
		element: inlineDeferred(name, m[1]),
	}
}

// escapable are the characters a backslash turns into literals.
const escapable = "\\`*_{}[]()>#+-.!|~"

func (c *parseContext) inlineEscapeSequence(ex excerpt) *span {
	if len(ex.text) < 2 {
		return nil
	}

	// A backslash at the end of a line is a hard break. Like the two space
	// break, it swallows the spaces before it.
	if ex.text[1] == '\n' {
		marker := len(ex.context) - len(ex.text)
		position := len(strings.TrimRight(ex.context[:marker], " "))
		return &span{
			extent:      marker - position + 2,
			position:    position,
			hasPosition: true,
			element: &Element{
				kind: childrenContent,
				Children: []*Element{
					{Name: "br", autobreak: breakOff},
					textElement("\n"),
				},
			},
		}
	}

	if !strings.ContainsRune(escapable, rune(ex.text[1])) {
		return nil
	}

	return &span{
		extent:  2,
		element: rawElement(ex.text[1:2]),
	}
}

func (c *parseContext) inlineImage(ex excerpt) *span {
	if len(ex.text) < 2 || ex.text[1] != '[' {
		return nil
	}

	link := c.inlineLink(excerpt{text: ex.text[1:], context: ex.context})
	if link == nil {
		return nil
	}

	href, _ := link.element.Attr("href")

	img := &Element{Name: "img", autobreak: breakOn}
	img.SetAttr("src", href)
	img.SetAttr("alt", link.element.deferred.text)
	for _, a := range link.element.Attrs {
		if a.Key != "href" {
			img.SetAttr(a.Key, a.Val)
		}
	}

	return &span{extent: link.extent + 1, element: img}
}

var (
	inlineLinkRegex   = regexp.MustCompile(`^[(]\s*((?:[^ ()]+|[(][^ )]+[)])+)(?:[ ]+("[^"]*"|'[^']*'))?\s*[)]`)
	referenceUseRegex = regexp.MustCompile(`^\s*\[(.*?)\]`)
)

// matchBrackets returns the end of the balanced bracket group that opens
// at s[0], or -1 when it never closes.
func matchBrackets(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

func (c *parseContext) inlineLink(ex excerpt) *span {
	end := matchBrackets(ex.text)
	if end < 0 {
		return nil
	}

	label := ex.text[1 : end-1]
	e := inlineDeferred("a", label)
	e.nonNestables = setOf(inlineURL, inlineLink)

	extent := end
	remainder := ex.text[end:]

	if m := inlineLinkRegex.FindStringSubmatchIndex(remainder); m != nil {
		e.SetAttr("href", remainder[m[2]:m[3]])
		if m[4] >= 0 {
			e.SetAttr("title", remainder[m[4]+1:m[5]-1])
		}
		extent += m[1]

		return &span{extent: extent, element: e}
	}

	definition := label
	if m := referenceUseRegex.FindStringSubmatch(remainder); m != nil {
		if m[1] != "" {
			definition = m[1]
		}
		extent += len(m[0])
	}

	ref, ok := c.lookup(definition)
	if !ok {
		return nil
	}

	e.SetAttr("href", ref.url)
	if ref.hasTitle {
		e.SetAttr("title", ref.title)
	}

	return &span{extent: extent, element: e}
}

var (
	closingTagRegex = regexp.MustCompile(`(?s)^</\w[\w-]*[ ]*>`)
	commentRegex    = regexp.MustCompile(`(?s)^<!---?[^>-](?:-?[^-])*-->`)
	openingTagRegex = regexp.MustCompile(`(?s)^<\w[\w-]*(?:[ ]*` + htmlAttribute + `)*[ ]*/?>`)
)

func (c *parseContext) inlineMarkup(ex excerpt) *span {
	if c.cfg.MarkupEscaped || c.cfg.SafeMode || !strings.Contains(ex.text, ">") || len(ex.text) < 2 {
		return nil
	}

	var re *regexp.Regexp
	switch ex.text[1] {
	case '/':
		re = closingTagRegex
	case '!':
		re = commentRegex
	case ' ':
		return nil
	default:
		re = openingTagRegex
	}

	m := re.FindString(ex.text)
	if m == "" {
		return nil
	}

	return &span{extent: len(m), element: rawElement(m)}
}

var entityRegex = regexp.MustCompile(`^&(#?[0-9a-zA-Z]+);`)

func (c *parseContext) inlineSpecialCharacter(ex excerpt) *span {
	if len(ex.text) > 1 && ex.text[1] == ' ' {
		return nil
	}
	if !strings.Contains(ex.text, ";") {
		return nil
	}

	m := entityRegex.FindStringSubmatch(ex.text)
	if m == nil {
		return nil
	}

	return &span{
		extent:  len(m[0]),
		element: rawElement("&" + m[1] + ";"),
	}
}

var strikethroughRegex = compileBacktracking(`^~~(?=\S)(.+?)(?<=\S)~~`, regexp2.None)

func (c *parseContext) inlineStrikethrough(ex excerpt) *span {
	if len(ex.text) < 2 || ex.text[1] != '~' {
		return nil
	}

	m := c.match(strikethroughRegex, ex.text)
	if m == nil {
		return nil
	}

	return &span{
		extent:  len(m[0]),
		element: inlineDeferred("del", m[1]),
	}
}

var bareURLRegex = regexp.MustCompile(`(?i)\bhttps?:[/]{2}[^\s<]+\b/*`)

// inlineURL links a bare URL. It is triggered by the ":" of the scheme, so the
// match may start before the marker.
func (c *parseContext) inlineURL(ex excerpt) *span {
	if !c.cfg.UrlsLinked || len(ex.text) < 3 || ex.text[2] != '/' {
		return nil
	}
	if !strings.Contains(ex.context, "http") {
		return nil
	}

	loc := bareURLRegex.FindStringIndex(ex.context)
	if loc == nil {
		return nil
	}

	url := ex.context[loc[0]:loc[1]]
	e := namedText("a", url)
	e.SetAttr("href", url)

	return &span{
		extent:      len(url),
		position:    loc[0],
		hasPosition: true,
		element:     e,
	}
}

var urlTagRegex = regexp.MustCompile(`(?i)^<(\w+:/{2}[^ >]+)>`)

func (c *parseContext) inlineURLTag(ex excerpt) *span {
	if !strings.Contains(ex.text, ">") {
		return nil
	}

	m := urlTagRegex.FindStringSubmatch(ex.text)
	if m == nil {
		return nil
	}

	e := namedText("a", m[1])
	e.SetAttr("href", m[1])

	return &span{extent: len(m[0]), element: e}
}
