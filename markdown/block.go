package markdown

// blockKind is the closed set of block level constructs.
type blockKind uint8

const (
	kindCode blockKind = iota
	kindComment
	kindFencedCode
	kindHeader
	kindList
	kindQuote
	kindRule
	kindSetextHeader
	kindMarkup
	kindReference
	kindTable
	kindParagraph
)

var blockKindNames = [...]string{
	kindCode:         "Code",
	kindComment:      "Comment",
	kindFencedCode:   "FencedCode",
	kindHeader:       "Header",
	kindList:         "List",
	kindQuote:        "Quote",
	kindRule:         "Rule",
	kindSetextHeader: "SetextHeader",
	kindMarkup:       "Markup",
	kindReference:    "Reference",
	kindTable:        "Table",
	kindParagraph:    "Paragraph",
}

func (k blockKind) String() string {
	if int(k) < len(blockKindNames) {
		return blockKindNames[k]
	}
	return "Unknown"
}

// block is the scan-time record of the block being built.
type block struct {
	kind    blockKind
	element *Element // nil for blocks that render nothing

	interrupted int  // blank lines seen while the block was open
	identified  bool // already accounted for in the output sequence
	continuable bool

	// fenced code
	fenceChar    byte
	openerLength int
	complete     bool

	// comments
	closed bool

	// lists
	list *listState

	// tables
	alignments []string
}

// listState is the continuation state of a list block.
type listState struct {
	ordered    bool
	indent     int    // indentation of the last item marker
	marker     string // first marker with its following spaces
	markerType string // "*", "+", "-" for bullets, "." or ")" for ordered lists
	loose      bool
	item       *Element // the open <li>
}

// blockRule is the capability table entry of a block kind.
// open is mandatory; cont and complete are nil when the kind lacks them.
type blockRule struct {
	open     func(c *parseContext, l line, current *block) *block
	cont     func(c *parseContext, l line, b *block) *block
	complete func(c *parseContext, b *block) *block
}

var blockRules = [...]blockRule{
	kindCode:         {open: (*parseContext).openCode, cont: (*parseContext).continueCode, complete: (*parseContext).completeCode},
	kindComment:      {open: (*parseContext).openComment, cont: (*parseContext).continueComment},
	kindFencedCode:   {open: (*parseContext).openFencedCode, cont: (*parseContext).continueFencedCode, complete: (*parseContext).completeFencedCode},
	kindHeader:       {open: (*parseContext).openHeader},
	kindList:         {open: (*parseContext).openList, cont: (*parseContext).continueList, complete: (*parseContext).completeList},
	kindQuote:        {open: (*parseContext).openQuote, cont: (*parseContext).continueQuote},
	kindRule:         {open: (*parseContext).openRule},
	kindSetextHeader: {open: (*parseContext).openSetextHeader},
	kindMarkup:       {open: (*parseContext).openMarkup, cont: (*parseContext).continueMarkup},
	kindReference:    {open: (*parseContext).openReference},
	kindTable:        {open: (*parseContext).openTable, cont: (*parseContext).continueTable},
}

// unmarkedKinds are tried on every line, before the kinds selected by the
// marker. An indented line is code even when its text starts with a marker.
var unmarkedKinds = []blockKind{kindCode}

// blockMarkers selects, by the first character of the text of a line,
// the kinds to try in order.
var blockMarkers = map[byte][]blockKind{
	'#': {kindHeader},
	'*': {kindRule, kindList},
	'+': {kindList},
	'-': {kindSetextHeader, kindTable, kindRule, kindList},
	'0': {kindList},
	'1': {kindList},
	'2': {kindList},
	'3': {kindList},
	'4': {kindList},
	'5': {kindList},
	'6': {kindList},
	'7': {kindList},
	'8': {kindList},
	'9': {kindList},
	':': {kindTable},
	'<': {kindComment, kindMarkup},
	'=': {kindSetextHeader},
	'>': {kindQuote},
	'[': {kindReference},
	'_': {kindRule},
	'`': {kindFencedCode},
	'|': {kindTable},
	'~': {kindFencedCode},
}

// candidates returns the kinds to try for a line whose text starts with marker.
func candidates(marker byte) []blockKind {
	marked := blockMarkers[marker]
	kinds := make([]blockKind, 0, len(unmarkedKinds)+len(marked))
	kinds = append(kinds, unmarkedKinds...)
	return append(kinds, marked...)
}

// linesElements runs the block scanner over lines and returns the block elements.
func (c *parseContext) linesElements(lines []string) []*Element {
	var elements []*Element
	var current *block

	for _, raw := range lines {
		if isBlank(raw) {
			if current != nil {
				current.interrupted++
			}
			continue
		}

		l := newLine(raw)

		if current != nil && current.continuable {
			rule := blockRules[current.kind]
			if next := rule.cont(c, l, current); next != nil {
				current = next
				continue
			}
			if rule.complete != nil {
				current = rule.complete(c, current)
			}
		}

		if opened := c.openBlock(l, current); opened != nil {
			if !opened.identified {
				if current != nil {
					elements = append(elements, current.element)
				}
				opened.identified = true
			}
			current = opened
			continue
		}

		if current != nil && current.kind == kindParagraph {
			if next := c.continueParagraph(l, current); next != nil {
				current = next
				continue
			}
		}

		if current != nil {
			elements = append(elements, current.element)
		}
		current = c.openParagraph(l)
	}

	if current != nil && current.continuable {
		if complete := blockRules[current.kind].complete; complete != nil {
			current = complete(c, current)
		}
	}

	if current != nil {
		elements = append(elements, current.element)
	}

	return elements
}

// openBlock tries the candidate kinds for l and returns the first block that opens.
func (c *parseContext) openBlock(l line, current *block) *block {
	for _, kind := range candidates(l.text[0]) {
		rule := blockRules[kind]

		b := rule.open(c, l, current)
		if b == nil {
			continue
		}

		b.kind = kind
		if rule.cont != nil {
			b.continuable = true
		}
		return b
	}
	return nil
}
