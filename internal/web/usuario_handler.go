package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/sig-gestion/internal/model"
	"github.com/yourusername/sig-gestion/internal/router"
	"github.com/yourusername/sig-gestion/internal/session"
)

// Dashboard renders the authenticated landing page.
func (h *Handlers) Dashboard(c *gin.Context, _ router.Params) router.Response {
	_, username, ok := session.CurrentUser(c)
	if !ok {
		return h.redirect("login")
	}

	return h.page("usuario/dashboard", map[string]any{
		"Title":    "SIG - Escritorio",
		"Username": username,
	})
}

// Index lists every account.
func (h *Handlers) Index(c *gin.Context, _ router.Params) router.Response {
	users, err := h.Service.All(c.Request.Context())
	if err != nil {
		h.Log.Error("list users failed", zap.Error(err))
		return h.errorPage(http.StatusInternalServerError, "No se pudo obtener el listado.")
	}

	return h.page("usuario/index", map[string]any{
		"Title": "SIG - Usuarios",
		"Users": users,
	})
}

// Show renders one account's detail page.
func (h *Handlers) Show(c *gin.Context, params router.Params) router.Response {
	user, err := h.Service.Find(c.Request.Context(), params.Int("id"))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return h.notFound()
		}
		h.Log.Error("find user failed", zap.Error(err))
		return h.errorPage(http.StatusInternalServerError, "No se pudo obtener el usuario.")
	}

	return h.page("usuario/show", map[string]any{
		"Title": "SIG - Usuario Detalles",
		"User":  user,
	})
}

// Create renders the internal account creation form.
func (h *Handlers) Create(c *gin.Context, _ router.Params) router.Response {
	return h.page("usuario/create", map[string]any{"Title": "SIG - Crear Usuario", "Username": ""})
}

// Store creates an account from the admin panel.
func (h *Handlers) Store(c *gin.Context, _ router.Params) router.Response {
	username := strings.TrimSpace(c.PostForm("username"))
	password := strings.TrimSpace(c.PostForm("password"))

	if _, err := h.Service.CreateInternal(c.Request.Context(), username, password, true); err != nil {
		msg := "No se pudo crear el usuario."
		if verr := model.AsValidation(err); verr != nil {
			msg = verr.Error()
		} else {
			h.Log.Error("create user failed", zap.String("username", username), zap.Error(err))
		}

		return h.page("usuario/create", map[string]any{
			"Title":    "SIG - Crear Usuario",
			"Error":    msg,
			"Username": username,
		})
	}

	session.FlashSuccess(c, "Usuario creado correctamente.")
	return h.redirect("usuarios")
}

// Edit renders the rename form.
func (h *Handlers) Edit(c *gin.Context, params router.Params) router.Response {
	user, err := h.Service.Find(c.Request.Context(), params.Int("id"))
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return h.notFound()
		}
		h.Log.Error("find user failed", zap.Error(err))
		return h.errorPage(http.StatusInternalServerError, "No se pudo obtener el usuario.")
	}

	return h.page("usuario/edit", map[string]any{
		"Title": "SIG - Editar Usuario",
		"User":  user,
	})
}

// Update renames an account.
func (h *Handlers) Update(c *gin.Context, params router.Params) router.Response {
	id := params.Int("id")
	username := strings.TrimSpace(c.PostForm("username"))

	user, err := h.Service.Find(c.Request.Context(), id)
	if err != nil {
		return h.notFound()
	}

	if err := h.Service.Update(c.Request.Context(), id, username); err != nil {
		msg := "Error al actualizar."
		if verr := model.AsValidation(err); verr != nil {
			msg = verr.Error()
		} else {
			h.Log.Error("update user failed", zap.Int64("id", id), zap.Error(err))
		}

		user.Username = username
		return h.page("usuario/edit", map[string]any{
			"Title": "SIG - Editar Usuario",
			"Error": msg,
			"User":  user,
		})
	}

	session.FlashSuccess(c, "Usuario actualizado correctamente.")
	return h.redirect(fmt.Sprintf("usuarios/%d", id))
}

// ChangePasswordForm renders the password change form.
func (h *Handlers) ChangePasswordForm(c *gin.Context, params router.Params) router.Response {
	user, err := h.Service.Find(c.Request.Context(), params.Int("id"))
	if err != nil {
		return h.notFound()
	}

	return h.page("usuario/change_password", map[string]any{
		"Title": "SIG - Cambiar Contraseña",
		"User":  user,
	})
}

// ChangePassword stores a new password after checking the confirmation
// field.
func (h *Handlers) ChangePassword(c *gin.Context, params router.Params) router.Response {
	id := params.Int("id")
	pass1 := strings.TrimSpace(c.PostForm("password"))
	pass2 := strings.TrimSpace(c.PostForm("password2"))

	user, err := h.Service.Find(c.Request.Context(), id)
	if err != nil {
		return h.notFound()
	}

	data := map[string]any{
		"Title": "SIG - Cambiar Contraseña",
		"User":  user,
	}

	if pass1 == "" || pass2 == "" {
		data["Error"] = "La contraseña no puede estar vacía."
		return h.page("usuario/change_password", data)
	}

	if pass1 != pass2 {
		data["Error"] = "Las contraseñas no coinciden."
		return h.page("usuario/change_password", data)
	}

	if err := h.Service.ChangePassword(c.Request.Context(), id, pass1); err != nil {
		if verr := model.AsValidation(err); verr != nil {
			data["Error"] = verr.Error()
		} else {
			h.Log.Error("change password failed", zap.Int64("id", id), zap.Error(err))
			data["Error"] = "No se pudo actualizar la contraseña."
		}
		return h.page("usuario/change_password", data)
	}

	session.FlashSuccess(c, "Contraseña actualizada correctamente.")
	return h.redirect(fmt.Sprintf("usuarios/%d", id))
}

// Deactivate soft-deletes an account (Activo = 0).
func (h *Handlers) Deactivate(c *gin.Context, params router.Params) router.Response {
	return h.toggleActive(c, params.Int("id"), false)
}

// Activate re-enables an account (Activo = 1).
func (h *Handlers) Activate(c *gin.Context, params router.Params) router.Response {
	return h.toggleActive(c, params.Int("id"), true)
}

func (h *Handlers) toggleActive(c *gin.Context, id int64, active bool) router.Response {
	if _, err := h.Service.Find(c.Request.Context(), id); err != nil {
		return h.notFound()
	}

	var err error
	if active {
		err = h.Service.Activate(c.Request.Context(), id)
	} else {
		err = h.Service.Deactivate(c.Request.Context(), id)
	}

	if err != nil {
		h.Log.Error("toggle active failed", zap.Int64("id", id), zap.Error(err))
		if active {
			session.FlashError(c, "No se pudo activar el usuario.")
		} else {
			session.FlashError(c, "No se pudo desactivar el usuario.")
		}
	} else if active {
		session.FlashSuccess(c, "Usuario activado.")
	} else {
		session.FlashSuccess(c, "Usuario desactivado.")
	}

	return h.redirect(fmt.Sprintf("usuarios/%d", id))
}
