// Package web contains the HTTP handlers, the auth and CSRF middlewares and
// the response descriptions they return.
package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/sig-gestion/internal/router"
	"github.com/yourusername/sig-gestion/internal/usuario"
	"github.com/yourusername/sig-gestion/internal/view"

	"go.uber.org/zap"
)

// Handlers groups the controllers with their dependencies.
type Handlers struct {
	Service *usuario.Service
	Views   *view.Renderer
	Log     *zap.Logger
}

// NewHandlers wires the controller set.
func NewHandlers(service *usuario.Service, views *view.Renderer, log *zap.Logger) *Handlers {
	return &Handlers{Service: service, Views: views, Log: log}
}

// Fallback produces the router's 404/405/500 responses: JSON for API-style
// requests, the shared error page otherwise.
func (h *Handlers) Fallback(c *gin.Context, status int, message string) router.Response {
	if wantsJSON(c) {
		return h.json(status, gin.H{"error": message})
	}
	return h.errorPage(status, message)
}

type redirectResponse struct {
	location string
}

func (r redirectResponse) Render(c *gin.Context) {
	c.Redirect(http.StatusFound, r.location)
}

type jsonResponse struct {
	status int
	body   any
}

func (r jsonResponse) Render(c *gin.Context) {
	c.JSON(r.status, r.body)
}

type pageResponse struct {
	views  *view.Renderer
	status int
	page   string
	data   map[string]any
}

func (r pageResponse) Render(c *gin.Context) {
	r.views.HTML(c, r.status, r.page, r.data)
}

type errorPageResponse struct {
	views   *view.Renderer
	status  int
	message string
}

func (r errorPageResponse) Render(c *gin.Context) {
	r.views.Error(c, r.status, r.message)
}

func (h *Handlers) redirect(path string) router.Response {
	return redirectResponse{location: h.Views.URL(path)}
}

func (h *Handlers) json(status int, body any) router.Response {
	return jsonResponse{status: status, body: body}
}

func (h *Handlers) page(page string, data map[string]any) router.Response {
	return pageResponse{views: h.Views, status: http.StatusOK, page: page, data: data}
}

func (h *Handlers) errorPage(status int, message string) router.Response {
	return errorPageResponse{views: h.Views, status: status, message: message}
}

func (h *Handlers) notFound() router.Response {
	return h.errorPage(http.StatusNotFound, "Usuario no encontrado.")
}
