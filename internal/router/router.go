// Package router implements the route table and middleware pipeline.
//
// Routes are matched in registration order, first match wins. That makes
// registration order significant for overlapping patterns and is a
// documented contract of this router, not an accident: typed placeholders
// keep most routes disjoint (`/usuarios/create` never matches
// `/usuarios/{id:int}` because the int placeholder is digits-only), and
// where two patterns genuinely overlap the earlier registration is the one
// that applies.
package router

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// Response describes what a handler wants written. Handlers and middlewares
// return descriptions instead of writing to the connection; the dispatcher
// is the single writer.
type Response interface {
	Render(c *gin.Context)
}

// ResponseFunc adapts a function to the Response interface.
type ResponseFunc func(c *gin.Context)

// Render implements Response.
func (f ResponseFunc) Render(c *gin.Context) { f(c) }

// Handler processes a matched request. params holds the extracted path
// parameters in the order they appear in the pattern.
type Handler func(c *gin.Context, params Params) Response

// Middleware runs before a route's handler. Returning a non-nil Response
// short-circuits the pipeline: the response is written and neither the
// remaining middlewares nor the handler run.
type Middleware func(c *gin.Context) Response

// ParamKind is the declared type of a path placeholder.
type ParamKind int

const (
	// KindInt matches digits only and converts to int64.
	KindInt ParamKind = iota
	// KindString matches letters, digits, underscore and hyphen.
	KindString
)

// Param is one extracted, converted path parameter.
type Param struct {
	Name string
	Kind ParamKind
	Int  int64
	Str  string
}

// Params is the ordered list of extracted path parameters.
type Params []Param

// Int returns the int parameter with the given name, 0 when absent.
func (p Params) Int(name string) int64 {
	for _, param := range p {
		if param.Name == name && param.Kind == KindInt {
			return param.Int
		}
	}
	return 0
}

// Str returns the string parameter with the given name, "" when absent.
func (p Params) Str(name string) string {
	for _, param := range p {
		if param.Name == name && param.Kind == KindString {
			return param.Str
		}
	}
	return ""
}

type route struct {
	pattern     string
	re          *regexp.Regexp
	kinds       []ParamKind
	names       []string
	handler     Handler
	middlewares []Middleware
}

// Table is an ordered route table with a base-path prefix.
type Table struct {
	basePath string
	routes   map[string][]route
	fallback func(c *gin.Context, status int, message string) Response
}

// New creates an empty table. basePath (may be empty) is stripped from
// incoming paths before matching. fallback produces the 404/405/500
// responses; nil installs a plain-text writer.
func New(basePath string, fallback func(c *gin.Context, status int, message string) Response) *Table {
	if fallback == nil {
		fallback = func(_ *gin.Context, status int, message string) Response {
			return ResponseFunc(func(c *gin.Context) {
				c.String(status, message)
			})
		}
	}
	return &Table{
		basePath: basePath,
		routes: map[string][]route{
			http.MethodGet:  {},
			http.MethodPost: {},
		},
		fallback: fallback,
	}
}

var placeholderRe = regexp.MustCompile(`\{(\w+):(int|string)\}`)

// GET registers a route for GET requests.
func (t *Table) GET(pattern string, h Handler, mw ...Middleware) {
	t.add(http.MethodGet, pattern, h, mw)
}

// POST registers a route for POST requests.
func (t *Table) POST(pattern string, h Handler, mw ...Middleware) {
	t.add(http.MethodPost, pattern, h, mw)
}

func (t *Table) add(method, pattern string, h Handler, mw []Middleware) {
	pattern = "/" + strings.Trim(pattern, "/")

	var (
		kinds []ParamKind
		names []string
	)

	expr := placeholderRe.ReplaceAllStringFunc(pattern, func(m string) string {
		parts := placeholderRe.FindStringSubmatch(m)
		name, kind := parts[1], parts[2]
		names = append(names, name)
		if kind == "int" {
			kinds = append(kinds, KindInt)
			return fmt.Sprintf(`(?P<%s>\d+)`, name)
		}
		kinds = append(kinds, KindString)
		return fmt.Sprintf(`(?P<%s>[A-Za-z0-9_-]+)`, name)
	})

	t.routes[method] = append(t.routes[method], route{
		pattern:     pattern,
		re:          regexp.MustCompile("^" + expr + "$"),
		kinds:       kinds,
		names:       names,
		handler:     h,
		middlewares: mw,
	})
}

// HandlerFunc returns the dispatcher for mounting on a gin engine.
func (t *Table) HandlerFunc() gin.HandlerFunc {
	return t.dispatch
}

func (t *Table) dispatch(c *gin.Context) {
	method := c.Request.Method

	routes, ok := t.routes[method]
	if !ok {
		t.fallback(c, http.StatusMethodNotAllowed,
			fmt.Sprintf("Método no permitido: %s", method)).Render(c)
		return
	}

	path := t.normalizePath(c.Request.URL.Path)

	for _, rt := range routes {
		matches := rt.re.FindStringSubmatch(path)
		if matches == nil {
			continue
		}

		for _, mw := range rt.middlewares {
			if resp := mw(c); resp != nil {
				resp.Render(c)
				return
			}
		}

		if rt.handler == nil {
			// A route without a handler is a wiring defect, fatal for the
			// request only.
			t.fallback(c, http.StatusInternalServerError,
				fmt.Sprintf("Handler no configurado para %s", rt.pattern)).Render(c)
			return
		}

		params, err := rt.extractParams(matches)
		if err != nil {
			t.fallback(c, http.StatusInternalServerError, err.Error()).Render(c)
			return
		}

		if resp := rt.handler(c, params); resp != nil {
			resp.Render(c)
		}
		return
	}

	t.fallback(c, http.StatusNotFound,
		fmt.Sprintf("Ruta no encontrada: %s", path)).Render(c)
}

func (rt route) extractParams(matches []string) (Params, error) {
	params := make(Params, 0, len(rt.names))

	for i, name := range rt.names {
		idx := rt.re.SubexpIndex(name)
		if idx < 0 || idx >= len(matches) {
			return nil, fmt.Errorf("parámetro %q no capturado en %s", name, rt.pattern)
		}

		p := Param{Name: name, Kind: rt.kinds[i]}
		if rt.kinds[i] == KindInt {
			v, err := strconv.ParseInt(matches[idx], 10, 64)
			if err != nil {
				return nil, fmt.Errorf("parámetro %q inválido: %w", name, err)
			}
			p.Int = v
		} else {
			p.Str = matches[idx]
		}

		params = append(params, p)
	}

	return params, nil
}

// normalizePath strips the base path, collapses duplicate slashes and drops
// the trailing slash everywhere except the root.
func (t *Table) normalizePath(path string) string {
	if t.basePath != "" && strings.HasPrefix(path, t.basePath) {
		path = path[len(t.basePath):]
		if path == "" {
			path = "/"
		}
	}

	for strings.Contains(path, "//") {
		path = strings.ReplaceAll(path, "//", "/")
	}

	if path != "/" && strings.HasSuffix(path, "/") {
		path = strings.TrimRight(path, "/")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	return path
}
