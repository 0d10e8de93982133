package markdown

// content says which body an Element carries.
type content uint8

const (
	noContent content = iota
	textContent
	rawContent
	childContent
	childrenContent
)

// autobreak is a tri-state: unset elements fall back to "has a name".
type autobreak int8

const (
	breakUnset autobreak = iota
	breakOn
	breakOff
)

// resolverKind names the function that turns a deferred argument into children.
type resolverKind uint8

const (
	resolveInline   resolverKind = iota // inline tokenizer over a text
	resolveBlocks                       // block scanner over nested lines
	resolveListItem                     // block scanner plus tight-item unwrapping
)

// deferred holds the argument of a body that is computed after the whole
// document has been scanned, so that reference definitions appearing later
// in the text are visible.
type deferred struct {
	kind  resolverKind
	text  string
	lines []string
}

// Attribute is an HTML attribute. Attributes keep insertion order.
type Attribute struct {
	Key string
	Val string
}

// Element is a node of the transient tree built by the scanner and the
// tokenizer. An Element without a name renders only its body.
// A nil *Element in a sequence is an empty element and renders nothing.
type Element struct {
	Name  string
	Attrs []Attribute

	kind     content
	Text     string // literal text, or raw HTML when kind is rawContent
	SafeRaw  bool   // raw HTML allowed even in safe mode
	Child    *Element
	Children []*Element

	deferred     *deferred
	autobreak    autobreak
	nonNestables inlineSet
}

func textElement(text string) *Element {
	return &Element{kind: textContent, Text: text}
}

func rawElement(html string) *Element {
	return &Element{kind: rawContent, Text: html}
}

func namedText(name, text string) *Element {
	return &Element{Name: name, kind: textContent, Text: text}
}

func inlineDeferred(name, text string) *Element {
	return &Element{
		Name:     name,
		kind:     childrenContent,
		deferred: &deferred{kind: resolveInline, text: text},
	}
}

func blocksDeferred(name string, lines []string) *Element {
	return &Element{
		Name:     name,
		kind:     childrenContent,
		deferred: &deferred{kind: resolveBlocks, lines: lines},
	}
}

// Attr returns the value of the attribute key and whether it is present.
func (e *Element) Attr(key string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets key to val, replacing an existing value in place.
func (e *Element) SetAttr(key, val string) {
	for i := range e.Attrs {
		if e.Attrs[i].Key == key {
			e.Attrs[i].Val = val
			return
		}
	}
	e.Attrs = append(e.Attrs, Attribute{Key: key, Val: val})
}

// DelAttr removes the attribute key if present.
func (e *Element) DelAttr(key string) {
	for i := range e.Attrs {
		if e.Attrs[i].Key == key {
			e.Attrs = append(e.Attrs[:i], e.Attrs[i+1:]...)
			return
		}
	}
}

// breaks reports whether a newline separates the element from its siblings.
func (e *Element) breaks() bool {
	switch e.autobreak {
	case breakOn:
		return true
	case breakOff:
		return false
	}
	return e.Name != ""
}

// setRaw replaces the body of the element with raw HTML.
func (e *Element) setRaw(html string, safe bool) {
	e.kind = rawContent
	e.Text = html
	e.SafeRaw = safe
	e.Child = nil
	e.Children = nil
}
