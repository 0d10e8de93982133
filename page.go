package main

import (
	"html/template"
	"io"

	"github.com/hesusruiz/pagedown/content"
)

// dateFormat is the layout of dates shown in listings.
const dateFormat = "Jan 02, 2006 - 15:04"

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
</head>
<body>
<main>
{{- if .Heading}}
<h1>{{.Heading}}</h1>
{{- end}}
{{- if .Items}}
<ul class="documents">
{{- range .Items}}
<li><a href="{{.Href}}">{{.Title}}</a> <time>{{.Date}}</time>
{{- range .Tags}} <a class="tag" href="{{.Href}}">{{.Name}}</a>{{end}}</li>
{{- end}}
</ul>
{{- end}}
{{.Body}}
{{- if or .Prev .Next}}
<nav>{{if .Prev}}<a href="{{.Prev}}">Newer</a>{{end}} {{if .Next}}<a href="{{.Next}}">Older</a>{{end}}</nav>
{{- end}}
</main>
</body>
</html>
`))

type pageTag struct {
	Name string
	Href string
}

type pageItem struct {
	Title string
	Href  string
	Date  string
	Tags  []pageTag
}

type pageData struct {
	Title   string
	Heading string
	Body    template.HTML
	Items   []pageItem
	Prev    string
	Next    string
}

// linker builds the URLs of documents and tags. A nil tag function leaves
// tags out of listings.
type linker struct {
	doc func(keyword string) string
	tag func(tag string) string
}

func nodeTitle(n *content.Node) string {
	if t := n.Get("title"); t != "" {
		return t
	}
	return n.Keyword
}

func (l linker) items(nodes []*content.Node) []pageItem {
	items := make([]pageItem, 0, len(nodes))
	for _, n := range nodes {
		it := pageItem{
			Title: nodeTitle(n),
			Href:  l.doc(n.Keyword),
			Date:  n.Date.Format(dateFormat),
		}
		if l.tag != nil {
			for _, t := range n.Tags {
				it.Tags = append(it.Tags, pageTag{Name: t, Href: l.tag(t)})
			}
		}
		items = append(items, it)
	}
	return items
}

func writePage(w io.Writer, d pageData) error {
	return pageTemplate.Execute(w, d)
}

// documentPage renders a document. The body was produced by the engine and
// is inserted as is.
func documentPage(n *content.Node) (pageData, error) {
	body, err := n.Body()
	if err != nil {
		return pageData{}, err
	}
	return pageData{
		Title: nodeTitle(n),
		Body:  template.HTML(body),
	}, nil
}
