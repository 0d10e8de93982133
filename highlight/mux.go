package highlight

import (
	"sort"
	"strings"

	"github.com/hesusruiz/pagedown/markdown"
)

// Mux dispatches fences to a renderer chosen by language.
// Fences in a language without a renderer keep the default rendering.
type Mux struct {
	renderers map[string]markdown.FenceRenderer
}

// NewMux returns an empty Mux.
func NewMux() *Mux {
	return &Mux{renderers: make(map[string]markdown.FenceRenderer)}
}

// Handle registers r for each of langs, replacing previous registrations.
func (m *Mux) Handle(r markdown.FenceRenderer, langs ...string) {
	for _, l := range langs {
		m.renderers[strings.ToLower(l)] = r
	}
}

// Languages returns the registered languages in sorted order, suitable for
// markdown.Config.FenceLanguages.
func (m *Mux) Languages() []string {
	langs := make([]string, 0, len(m.renderers))
	for l := range m.renderers {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}

// RenderFence implements markdown.FenceRenderer.
func (m *Mux) RenderFence(info, code string) (string, error) {
	r, ok := m.renderers[Language(info)]
	if !ok {
		return "", nil
	}
	return r.RenderFence(info, code)
}

// Standard returns a Mux with chroma for each of codeLangs, using style,
// and the D2 renderer for "d2".
func Standard(style string, codeLangs []string) *Mux {
	m := NewMux()
	m.Handle(Chroma{Style: style}, codeLangs...)
	m.Handle(NewDiagram(), "d2")
	return m
}
