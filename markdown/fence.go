package markdown

// FenceRenderer replaces the body of a fenced code block whose language is
// in the allow-list of the parser.
//
// info is the info string of the fence without the "language-" prefix and
// code is the content of the block. A non-empty html is emitted verbatim
// inside <pre><code>, even in safe mode. An empty html, or an error, keeps
// the default escaped rendering.
type FenceRenderer interface {
	RenderFence(info, code string) (html string, err error)
}

// FenceRendererFunc adapts a function to the FenceRenderer interface.
type FenceRendererFunc func(info, code string) (string, error)

// RenderFence calls f(info, code).
func (f FenceRendererFunc) RenderFence(info, code string) (string, error) {
	return f(info, code)
}
