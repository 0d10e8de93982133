package highlight

import (
	"context"
	"crypto/md5"
	"fmt"
	"sync"
	"time"

	"oss.terrastruct.com/d2/d2graph"
	"oss.terrastruct.com/d2/d2layouts/d2dagrelayout"
	"oss.terrastruct.com/d2/d2lib"
	"oss.terrastruct.com/d2/d2renderers/d2svg"
	"oss.terrastruct.com/d2/d2themes/d2themescatalog"
	"oss.terrastruct.com/d2/lib/textmeasure"
)

// DefaultDiagramTimeout bounds the layout of a single diagram.
const DefaultDiagramTimeout = 30 * time.Second

// Diagram renders D2 diagram descriptions to inline SVG.
// Rendered diagrams are cached by the hash of their source, so a document
// rendered many times only lays out its diagrams once.
type Diagram struct {
	Timeout time.Duration

	mu    sync.Mutex
	cache map[string]string
}

// NewDiagram returns a D2 renderer with the default timeout.
func NewDiagram() *Diagram {
	return &Diagram{
		Timeout: DefaultDiagramTimeout,
		cache:   make(map[string]string),
	}
}

// RenderFence implements markdown.FenceRenderer.
func (d *Diagram) RenderFence(info, code string) (string, error) {
	key := fmt.Sprintf("%x", md5.Sum([]byte(code)))

	d.mu.Lock()
	svg, ok := d.cache[key]
	d.mu.Unlock()
	if ok {
		return svg, nil
	}

	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultDiagramTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	body, err := renderD2(ctx, code)
	if err != nil {
		return "", err
	}
	svg = string(body)

	d.mu.Lock()
	if d.cache == nil {
		d.cache = make(map[string]string)
	}
	d.cache[key] = svg
	d.mu.Unlock()

	return svg, nil
}

func renderD2(ctx context.Context, src string) ([]byte, error) {
	ruler, err := textmeasure.NewRuler()
	if err != nil {
		return nil, fmt.Errorf("creating text ruler: %w", err)
	}

	defaultLayout := func(ctx context.Context, g *d2graph.Graph) error {
		return d2dagrelayout.Layout(ctx, g, nil)
	}
	diagram, _, err := d2lib.Compile(ctx, src, &d2lib.CompileOptions{
		Layout: defaultLayout,
		Ruler:  ruler,
	})
	if err != nil {
		return nil, fmt.Errorf("compiling d2 diagram: %w", err)
	}

	out, err := d2svg.Render(diagram, &d2svg.RenderOpts{
		Pad:     d2svg.DEFAULT_PADDING,
		ThemeID: d2themescatalog.NeutralDefault.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("rendering d2 diagram: %w", err)
	}

	return out, nil
}
