package web

import "github.com/yourusername/sig-gestion/internal/router"

// Routes builds the application route table. Routes are matched in the
// order listed here; `{id:int}` placeholders are digits-only, so the static
// `/usuarios/create` route and the parametrized ones cannot collide.
func Routes(basePath string, h *Handlers) *router.Table {
	t := router.New(basePath, h.Fallback)

	// Home
	t.GET("/", h.Home)

	// Authentication
	t.GET("/login", h.ShowLogin)
	t.POST("/login", h.Login, h.VerifyCSRF)
	t.GET("/logout", h.Logout, h.RequireAuth)

	t.GET("/register", h.ShowRegister)
	t.POST("/register", h.Register, h.VerifyCSRF)

	// Dashboard
	t.GET("/dashboard", h.Dashboard, h.RequireAuth)

	// Usuario CRUD
	t.GET("/usuarios", h.Index, h.RequireAuth)
	t.GET("/usuarios/create", h.Create, h.RequireAuth)
	t.POST("/usuarios", h.Store, h.RequireAuth, h.VerifyCSRF)
	t.GET("/usuarios/{id:int}", h.Show, h.RequireAuth)
	t.GET("/usuarios/{id:int}/edit", h.Edit, h.RequireAuth)
	t.POST("/usuarios/{id:int}/update", h.Update, h.RequireAuth, h.VerifyCSRF)

	// Password change
	t.GET("/usuarios/{id:int}/password", h.ChangePasswordForm, h.RequireAuth)
	t.POST("/usuarios/{id:int}/password", h.ChangePassword, h.RequireAuth, h.VerifyCSRF)

	// Activate / deactivate
	t.POST("/usuarios/{id:int}/desactivar", h.Deactivate, h.RequireAuth, h.VerifyCSRF)
	t.POST("/usuarios/{id:int}/activar", h.Activate, h.RequireAuth, h.VerifyCSRF)

	return t
}
