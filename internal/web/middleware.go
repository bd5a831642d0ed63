package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/sig-gestion/internal/router"
	"github.com/yourusername/sig-gestion/internal/session"
)

// RequireAuth gates protected routes. An unauthenticated API-style request
// gets a 401 JSON body; plain navigation gets a flash message and a redirect
// to the login page.
func (h *Handlers) RequireAuth(c *gin.Context) router.Response {
	_, username, ok := session.CurrentUser(c)
	if !ok {
		if wantsJSON(c) {
			return h.json(http.StatusUnauthorized, gin.H{"error": "No autorizado"})
		}

		session.FlashError(c, "Debes iniciar sesión para acceder a esta página.")
		return h.redirect("login")
	}

	c.Set(session.ContextUserKey, username)
	return nil
}

// VerifyCSRF validates the anti-forgery token on state-changing requests.
// GET and other safe methods pass through untouched. The token is read from
// the form field first, then from the request header.
func (h *Handlers) VerifyCSRF(c *gin.Context) router.Response {
	if c.Request.Method != http.MethodPost {
		return nil
	}

	token := c.PostForm(session.CSRFFieldName)
	if token == "" {
		token = c.GetHeader(session.CSRFHeaderName)
	}

	if !session.ValidateToken(c, token) {
		if wantsJSON(c) {
			return h.json(http.StatusForbidden, gin.H{"error": "Token CSRF inválido"})
		}

		return h.errorPage(http.StatusForbidden, "Token CSRF inválido o ausente.")
	}

	return nil
}
