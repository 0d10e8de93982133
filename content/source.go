package content

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"gopkg.in/yaml.v3"
)

// readSource reads a document and decodes it to UTF-8. A byte order mark
// selects UTF-16 decoding and is removed.
func readSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(dec, data)
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", path, err)
	}

	return string(out), nil
}

var (
	separatorRegex  = regexp.MustCompile(`(?m)^---\s*$`)
	headerLineRegex = regexp.MustCompile(`(?m)^(\w+):(.*)$`)
)

// yamlFormat is the "---" delimited YAML front matter, decoded with yaml.v3.
var yamlFormat = frontmatter.NewFormat("---", "---", yaml.Unmarshal)

// splitSource separates the metadata of a document from its Markdown body.
//
// A document starting with a "---" line carries YAML front matter. Otherwise
// the lines before the first "---" line are a header of "key: value" lines;
// other lines in the header are ignored. A document without a "---" line has
// no metadata.
func splitSource(filename, src string) (map[string]string, string, error) {
	meta := make(map[string]string)

	if hasYAMLFrontMatter(src) {
		var raw map[string]any
		body, err := frontmatter.Parse(strings.NewReader(src), &raw, yamlFormat)
		if err != nil {
			return nil, "", &SyntaxError{Filename: filename, Line: 1, Msg: err.Error()}
		}
		for k, v := range raw {
			meta[k] = metaString(v)
		}
		return meta, string(body), nil
	}

	loc := separatorRegex.FindStringIndex(src)
	if loc == nil {
		return meta, src, nil
	}

	for _, m := range headerLineRegex.FindAllStringSubmatch(src[:loc[0]], -1) {
		meta[m[1]] = strings.TrimSpace(m[2])
	}

	return meta, src[loc[1]:], nil
}

func hasYAMLFrontMatter(src string) bool {
	first, _, _ := strings.Cut(src, "\n")
	return strings.TrimRight(first, " \t\r") == "---"
}

// metaString flattens a YAML value into the string form of header values.
func metaString(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	case time.Time:
		if v.Hour() == 0 && v.Minute() == 0 {
			return v.Format("2006-01-02")
		}
		return v.Format("2006-01-02 15:04")
	case []any:
		parts := make([]string, 0, len(v))
		for _, e := range v {
			parts = append(parts, metaString(e))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		var b bytes.Buffer
		enc := yaml.NewEncoder(&b)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Sprint(v)
		}
		return strings.TrimSpace(b.String())
	default:
		return fmt.Sprint(v)
	}
}

var dateRegex = regexp.MustCompile(`(\d{4})[.\-](\d{2})[.\-](\d{2})( (\d{2}):(\d{2}))?`)

// parseDate reads the date of a header value, in local time.
func parseDate(s string) (time.Time, bool) {
	m := dateRegex.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}

	n := func(s string) int {
		v := 0
		for _, c := range s {
			v = v*10 + int(c-'0')
		}
		return v
	}

	return time.Date(n(m[1]), time.Month(n(m[2])), n(m[3]), n(m[5]), n(m[6]), 0, 0, time.Local), true
}

// isInactive reports whether an "active" header value disables a document.
func isInactive(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "false", "0", "no":
		return true
	}
	return false
}

// splitTags splits a comma separated tag list.
func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
