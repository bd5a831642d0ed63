// Package view renders the HTML pages from embedded templates.
package view

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/sig-gestion/internal/session"
)

//go:embed templates
var templateFS embed.FS

var pages = []string{
	"home/index",
	"auth/login",
	"auth/register",
	"usuario/dashboard",
	"usuario/index",
	"usuario/show",
	"usuario/create",
	"usuario/edit",
	"usuario/change_password",
	"errors/error",
}

// Renderer holds the parsed template set and the base path used by links.
type Renderer struct {
	templates map[string]*template.Template
	basePath  string
}

// New parses the embedded templates. Each page is parsed together with the
// shared layout so pages can fill the layout's content block.
func New(basePath string) (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template, len(pages)),
		basePath:  basePath,
	}

	funcs := template.FuncMap{
		"url":     r.URL,
		"fmtTime": fmtTime,
	}

	for _, page := range pages {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS,
			"templates/layout.html",
			"templates/"+page+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", page, err)
		}
		r.templates[page] = t
	}

	return r, nil
}

// URL prefixes an application path with the configured base path.
func (r *Renderer) URL(path string) string {
	return r.basePath + "/" + strings.TrimPrefix(path, "/")
}

// HTML writes a rendered page. The CSRF hidden field and any queued flash
// messages are injected into the template data.
func (r *Renderer) HTML(c *gin.Context, status int, page string, data map[string]any) {
	t, ok := r.templates[page]
	if !ok {
		// Unknown template names are deployment defects.
		c.String(http.StatusInternalServerError, "Plantilla no encontrada: %s", page)
		return
	}

	if data == nil {
		data = make(map[string]any)
	}

	data["CSRFField"] = csrfField(c)
	success, failures := session.TakeFlashes(c)
	data["FlashSuccess"] = success
	data["FlashError"] = failures
	if _, _, ok := session.CurrentUser(c); ok {
		data["LoggedIn"] = true
	}

	c.Status(status)
	c.Header("Content-Type", "text/html; charset=utf-8")
	if err := t.Execute(c.Writer, data); err != nil {
		// Headers are already out; nothing safe left to write.
		_ = c.Error(err)
	}
}

// Error renders the shared error page.
func (r *Renderer) Error(c *gin.Context, status int, message string) {
	r.HTML(c, status, "errors/error", map[string]any{
		"Title":   fmt.Sprintf("SIG - Error %d", status),
		"Status":  status,
		"Message": message,
	})
}

func csrfField(c *gin.Context) template.HTML {
	token := session.Token(c)
	return template.HTML(fmt.Sprintf(
		`<input type="hidden" name="%s" value="%s">`,
		session.CSRFFieldName, template.HTMLEscapeString(token),
	))
}

func fmtTime(t *time.Time) string {
	if t == nil {
		return "—"
	}
	return t.Format("02/01/2006 15:04")
}
