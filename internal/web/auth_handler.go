package web

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/sig-gestion/internal/model"
	"github.com/yourusername/sig-gestion/internal/router"
	"github.com/yourusername/sig-gestion/internal/session"
)

const loginTitle = "SIG - Iniciar Sesión"
const registerTitle = "SIG - Registrar Usuario"

// ShowLogin renders the login form.
func (h *Handlers) ShowLogin(c *gin.Context, _ router.Params) router.Response {
	return h.page("auth/login", map[string]any{"Title": loginTitle, "Username": ""})
}

// Login processes the login form: validates input, authenticates through the
// account service, and on success rebuilds the session and CSRF token before
// redirecting to the dashboard.
func (h *Handlers) Login(c *gin.Context, _ router.Params) router.Response {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")

	if verr := validate(
		map[string]string{"username": username, "password": password},
		map[string]string{
			"username": "required|min:3|alpha_num",
			"password": "required|min:6",
		},
	); verr != nil {
		return h.page("auth/login", map[string]any{
			"Title":    loginTitle,
			"Error":    verr.Error(),
			"Username": username,
		})
	}

	user, err := h.Service.Authenticate(c.Request.Context(), username, password)
	if err != nil {
		// Deliberately the same message for every failure cause.
		return h.page("auth/login", map[string]any{
			"Title":    loginTitle,
			"Error":    "Usuario o contraseña incorrecta.",
			"Username": username,
		})
	}

	if err := session.Establish(c, user.ID, user.Username); err != nil {
		h.Log.Error("session save failed", zap.Error(err))
		return h.errorPage(http.StatusInternalServerError, "No se pudo iniciar la sesión.")
	}

	return h.redirect("dashboard")
}

// Logout clears the session and returns to the login page.
func (h *Handlers) Logout(c *gin.Context, _ router.Params) router.Response {
	username, _ := c.Get(session.ContextUserKey)
	h.Log.Info("logout", zap.Any("username", username))

	if err := session.Logout(c); err != nil {
		h.Log.Error("session clear failed", zap.Error(err))
	}

	return h.redirect("login")
}

// ShowRegister renders the public registration form.
func (h *Handlers) ShowRegister(c *gin.Context, _ router.Params) router.Response {
	return h.page("auth/register", map[string]any{"Title": registerTitle, "Username": ""})
}

// Register creates a self-service account and sends the user to the login
// page.
func (h *Handlers) Register(c *gin.Context, _ router.Params) router.Response {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")

	if username == "" || password == "" {
		return h.page("auth/register", map[string]any{
			"Title":    registerTitle,
			"Error":    "Debes completar usuario y contraseña.",
			"Username": username,
		})
	}

	if _, err := h.Service.Register(c.Request.Context(), username, password); err != nil {
		if verr := model.AsValidation(err); verr != nil {
			return h.page("auth/register", map[string]any{
				"Title":    registerTitle,
				"Error":    verr.Error(),
				"Username": username,
			})
		}

		h.Log.Error("register failed", zap.String("username", username), zap.Error(err))
		return h.page("auth/register", map[string]any{
			"Title":    registerTitle,
			"Error":    "No se pudo registrar el usuario.",
			"Username": username,
		})
	}

	session.FlashSuccess(c, "Usuario registrado. Ya puedes iniciar sesión.")
	return h.redirect("login")
}
