package web

import (
	"github.com/gin-gonic/gin"

	"github.com/yourusername/sig-gestion/internal/router"
)

// Home renders the landing page.
func (h *Handlers) Home(c *gin.Context, _ router.Params) router.Response {
	return h.page("home/index", map[string]any{
		"Title": "SIG - Sistema Integral de Gestión",
	})
}
