// Package router matches request paths against simple patterns.
//
// In a pattern, "*" matches any run of characters, as few as possible, and
// "{name}" matches one non-empty path segment, captured as a parameter.
// Everything else matches literally. The pattern "/*" is the fallback: it is
// tried after every other route, and also when a handler reports ErrNoRoute.
package router

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ErrNoRoute is returned by Dispatch when no route matches. Handlers return
// it to pass a request they cannot serve to the fallback.
var ErrNoRoute = errors.New("no route")

// Fallback is the pattern of the fallback route.
const Fallback = "/*"

// Params are the named segments captured by a pattern.
type Params map[string]string

// Handler serves a matched request.
type Handler func(w http.ResponseWriter, r *http.Request, p Params) error

type route struct {
	pattern string
	re      *regexp.Regexp
	h       Handler
}

// Router holds routes in registration order.
type Router struct {
	routes   []*route
	fallback *route
	log      *zap.SugaredLogger
}

// New returns an empty Router.
func New() *Router {
	return &Router{log: zap.NewNop().Sugar()}
}

// SetLogger sets the logger used to report handler failures.
func (rt *Router) SetLogger(logger *zap.SugaredLogger) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	rt.log = logger
}

var tokenRegex = regexp.MustCompile(`\{(\w+)\}|\*`)

// compile turns a pattern into an anchored regular expression.
func compile(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")

	last := 0
	for _, m := range tokenRegex.FindAllStringSubmatchIndex(pattern, -1) {
		b.WriteString(regexp.QuoteMeta(pattern[last:m[0]]))
		if m[2] >= 0 {
			b.WriteString("(?P<" + pattern[m[2]:m[3]] + ">[^/]+?)")
		} else {
			b.WriteString(".*?")
		}
		last = m[1]
	}
	b.WriteString(regexp.QuoteMeta(pattern[last:]))
	b.WriteString("$")

	return regexp.Compile(b.String())
}

// Add registers h for pattern. Adding a pattern again replaces its handler
// and keeps its position. Add panics if the pattern does not compile.
func (rt *Router) Add(pattern string, h Handler) {
	re, err := compile(pattern)
	if err != nil {
		panic("router: invalid pattern " + pattern + ": " + err.Error())
	}
	r := &route{pattern: pattern, re: re, h: h}

	if pattern == Fallback {
		rt.fallback = r
		return
	}

	for i, old := range rt.routes {
		if old.pattern == pattern {
			rt.routes[i] = r
			return
		}
	}
	rt.routes = append(rt.routes, r)
}

func (rt *Router) match(path string) (*route, Params) {
	for _, r := range rt.routes {
		m := r.re.FindStringSubmatch(path)
		if m == nil {
			continue
		}

		p := Params{}
		for i, name := range r.re.SubexpNames() {
			if name != "" {
				p[name] = m[i]
			}
		}
		return r, p
	}

	if rt.fallback != nil && rt.fallback.re.MatchString(path) {
		return rt.fallback, Params{}
	}
	return nil, nil
}

// Match returns the handler of the first route matching path.
func (rt *Router) Match(path string) (Handler, Params, bool) {
	r, p := rt.match(path)
	if r == nil {
		return nil, nil, false
	}
	return r.h, p, true
}

// Dispatch serves req with the first matching route. When the handler
// returns ErrNoRoute the fallback serves the request instead.
func (rt *Router) Dispatch(w http.ResponseWriter, req *http.Request) error {
	r, p := rt.match(req.URL.Path)
	if r == nil {
		return ErrNoRoute
	}

	err := r.h(w, req, p)
	if errors.Is(err, ErrNoRoute) && rt.fallback != nil && r != rt.fallback {
		return rt.fallback.h(w, req, Params{})
	}
	return err
}

// maxReroutes bounds the chain of reroutes a single request may follow.
const maxReroutes = 8

type rerouteKey struct{}

// Reroute registers source so that its requests are served as if target had
// been requested. Every "{name}" in target is replaced by the segment source
// captured under that name, and "{n}" by its n-th capture, counting from 1.
func (rt *Router) Reroute(source, target string) {
	re, err := compile(source)
	if err != nil {
		panic("router: invalid pattern " + source + ": " + err.Error())
	}
	var captures []string
	for _, name := range re.SubexpNames() {
		if name != "" {
			captures = append(captures, name)
		}
	}

	rt.Add(source, func(w http.ResponseWriter, req *http.Request, p Params) error {
		hops, _ := req.Context().Value(rerouteKey{}).(int)
		if hops >= maxReroutes {
			return fmt.Errorf("rerouting %s: too many reroutes", req.URL.Path)
		}

		path := tokenRegex.ReplaceAllStringFunc(target, func(tok string) string {
			if tok == "*" {
				return tok
			}
			key := tok[1 : len(tok)-1]
			if v, ok := p[key]; ok {
				return v
			}
			if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(captures) {
				return p[captures[n-1]]
			}
			return ""
		})

		r2 := req.Clone(context.WithValue(req.Context(), rerouteKey{}, hops+1))
		r2.URL.Path = path
		r2.URL.RawPath = ""
		return rt.Dispatch(w, r2)
	})
}

// Redirect answers req with a 302 to path, with params encoded as its query.
func Redirect(w http.ResponseWriter, req *http.Request, path string, params url.Values) {
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	http.Redirect(w, req, path, http.StatusFound)
}

// ServeHTTP implements http.Handler. Requests nobody serves get a 404.
func (rt *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	err := rt.Dispatch(w, req)
	switch {
	case err == nil:
	case errors.Is(err, ErrNoRoute):
		http.NotFound(w, req)
	default:
		rt.log.Errorw("request failed", "path", req.URL.Path, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
