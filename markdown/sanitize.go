package markdown

import (
	"regexp"
	"strings"
)

// safeLinks are the URL prefixes allowed in safe mode, compared case-insensitively.
var safeLinks = []string{
	"http://",
	"https://",
	"ftp://",
	"ftps://",
	"mailto:",
	"data:image/png;base64,",
	"data:image/gif;base64,",
	"data:image/jpeg;base64,",
	"irc:",
	"ircs:",
	"git:",
	"ssh:",
	"news:",
	"steam:",
}

// urlAttributes maps element names to the attribute holding a URL.
var urlAttributes = map[string]string{
	"a":   "href",
	"img": "src",
}

var goodAttribute = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-_]*$`)

// sanitize restricts the attributes of e for safe mode: unnamed elements
// lose all attributes, URLs with an unknown scheme are neutralized, and
// attribute names must be plain identifiers not starting with "on".
func sanitize(e *Element) {
	if e.Name == "" {
		e.Attrs = nil
		return
	}

	if key, ok := urlAttributes[e.Name]; ok {
		if val, ok := e.Attr(key); ok {
			e.SetAttr(key, SafeURL(val))
		}
	}

	kept := e.Attrs[:0]
	for _, a := range e.Attrs {
		if !goodAttribute.MatchString(a.Key) {
			continue
		}
		if hasPrefixFold(a.Key, "on") {
			continue
		}
		kept = append(kept, a)
	}
	e.Attrs = kept
}

// SafeURL returns url unchanged when it starts with a whitelisted scheme.
// Otherwise its first ":" is percent-encoded so that browsers read it as a
// relative path.
func SafeURL(url string) string {
	for _, scheme := range safeLinks {
		if hasPrefixFold(url, scheme) {
			return url
		}
	}
	return strings.Replace(url, ":", "%3A", 1)
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
