package web

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/sig-gestion/internal/store"
	"github.com/yourusername/sig-gestion/internal/usuario"
	"github.com/yourusername/sig-gestion/internal/view"
)

var csrfFieldRe = regexp.MustCompile(`name="_csrf" value="([0-9a-f]+)"`)

func newTestApp(t *testing.T) (*gin.Engine, *usuario.Service, store.UserStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := store.NewSQLiteUserStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	service := usuario.NewService(st, zap.NewNop(), bcrypt.MinCost)

	views, err := view.New("")
	if err != nil {
		t.Fatalf("parse templates: %v", err)
	}

	handlers := NewHandlers(service, views, zap.NewNop())

	engine := gin.New()
	engine.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-secret"))))
	engine.NoRoute(Routes("", handlers).HandlerFunc())

	return engine, service, st
}

func doGET(engine *gin.Engine, target string, cookies []*http.Cookie, header map[string]string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	engine.ServeHTTP(rec, req)
	return rec
}

func doPOST(engine *gin.Engine, target string, form url.Values, cookies []*http.Cookie, header map[string]string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	engine.ServeHTTP(rec, req)
	return rec
}

// fetchCSRF loads a form page and returns the session cookies plus the token
// embedded in the hidden field.
func fetchCSRF(t *testing.T, engine *gin.Engine, page string) ([]*http.Cookie, string) {
	t.Helper()

	rec := doGET(engine, page, nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET %s: %d", page, rec.Code)
	}

	m := csrfFieldRe.FindStringSubmatch(rec.Body.String())
	if m == nil {
		t.Fatalf("no CSRF field in %s", page)
	}

	return rec.Result().Cookies(), m[1]
}

func TestAuthGuardRedirectsToLogin(t *testing.T) {
	engine, service, _ := newTestApp(t)

	// User #7 must not leak even if nothing else is wrong with the request.
	if _, err := service.Register(context.Background(), "objetivo", "secreta7"); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	rec := doGET(engine, "/usuarios/7", nil, nil)
	if rec.Code != http.StatusFound {
		t.Fatalf("expected redirect, got %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Fatalf("expected redirect to /login, got %q", loc)
	}
	if strings.Contains(rec.Body.String(), "objetivo") {
		t.Fatal("user data leaked to an unauthenticated request")
	}
}

func TestAuthGuardAnswers401ForJSONClients(t *testing.T) {
	engine, _, _ := newTestApp(t)

	rec := doGET(engine, "/usuarios", nil, map[string]string{"Accept": "application/json"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	rec = doGET(engine, "/usuarios", nil, map[string]string{"X-Requested-With": "XMLHttpRequest"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for AJAX, got %d", rec.Code)
	}
}

func TestCSRFRequiredOnPost(t *testing.T) {
	engine, service, _ := newTestApp(t)

	form := url.Values{"username": {"intruso1"}, "password": {"secreta7"}}
	rec := doPOST(engine, "/register", form, nil, nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without CSRF token, got %d", rec.Code)
	}

	// The rejected request must not have mutated state.
	users, err := service.All(context.Background())
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 0 {
		t.Fatalf("state mutated by rejected request: %#v", users)
	}
}

func TestCSRFRejectionIsJSONForAjax(t *testing.T) {
	engine, _, _ := newTestApp(t)

	rec := doPOST(engine, "/register", url.Values{}, nil,
		map[string]string{"X-Requested-With": "XMLHttpRequest"})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "application/json") {
		t.Fatalf("expected JSON body, got %q", ct)
	}
}

func TestRegisterWithTokenFromHeader(t *testing.T) {
	engine, service, _ := newTestApp(t)

	cookies, token := fetchCSRF(t, engine, "/register")

	form := url.Values{"username": {"alice123"}, "password": {"secret1"}}
	rec := doPOST(engine, "/register", form, cookies,
		map[string]string{"x-csrf-token": token})
	if rec.Code != http.StatusFound {
		t.Fatalf("expected redirect after register, got %d: %s", rec.Code, rec.Body.String())
	}

	user, err := service.Authenticate(context.Background(), "alice123", "secret1")
	if err != nil {
		t.Fatalf("registered user cannot authenticate: %v", err)
	}
	if user.PasswordHash != "" {
		t.Fatal("password hash present in authenticated record")
	}
}

func TestLoginFlow(t *testing.T) {
	engine, service, _ := newTestApp(t)

	if _, err := service.Register(context.Background(), "alice123", "secret1"); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	cookies, token := fetchCSRF(t, engine, "/login")

	form := url.Values{
		"_csrf":    {token},
		"username": {"alice123"},
		"password": {"secret1"},
	}
	rec := doPOST(engine, "/login", form, cookies, nil)
	if rec.Code != http.StatusFound {
		t.Fatalf("expected redirect after login, got %d: %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Fatalf("expected redirect to /dashboard, got %q", loc)
	}

	authed := rec.Result().Cookies()

	dash := doGET(engine, "/dashboard", authed, nil)
	if dash.Code != http.StatusOK {
		t.Fatalf("dashboard after login: %d", dash.Code)
	}
	if !strings.Contains(dash.Body.String(), "alice123") {
		t.Fatal("dashboard does not greet the logged-in user")
	}
}

func TestLoginRegeneratesCSRFToken(t *testing.T) {
	engine, service, _ := newTestApp(t)

	if _, err := service.Register(context.Background(), "alice123", "secret1"); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	cookies, preLoginToken := fetchCSRF(t, engine, "/login")

	form := url.Values{
		"_csrf":    {preLoginToken},
		"username": {"alice123"},
		"password": {"secret1"},
	}
	rec := doPOST(engine, "/login", form, cookies, nil)
	if rec.Code != http.StatusFound {
		t.Fatalf("login failed: %d", rec.Code)
	}
	authed := rec.Result().Cookies()

	// The pre-login token must stop working at the new privilege level.
	rec = doPOST(engine, "/usuarios",
		url.Values{"username": {"nuevo123"}, "password": {"secreta7"}},
		authed, map[string]string{"x-csrf-token": preLoginToken})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("pre-login CSRF token still accepted: %d", rec.Code)
	}
}

func TestWrongLoginShowsGenericMessage(t *testing.T) {
	engine, service, _ := newTestApp(t)

	if _, err := service.Register(context.Background(), "alice123", "secret1"); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	cookies, token := fetchCSRF(t, engine, "/login")

	for _, creds := range []url.Values{
		{"_csrf": {token}, "username": {"alice123"}, "password": {"wrongpw"}},
		{"_csrf": {token}, "username": {"unknown9"}, "password": {"secret1"}},
	} {
		rec := doPOST(engine, "/login", creds, cookies, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected re-rendered form, got %d", rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "Usuario o contraseña incorrecta.") {
			t.Fatal("generic failure message missing")
		}
	}
}

func TestLogoutClearsSession(t *testing.T) {
	engine, service, _ := newTestApp(t)

	if _, err := service.Register(context.Background(), "alice123", "secret1"); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	cookies, token := fetchCSRF(t, engine, "/login")
	rec := doPOST(engine, "/login",
		url.Values{"_csrf": {token}, "username": {"alice123"}, "password": {"secret1"}},
		cookies, nil)
	authed := rec.Result().Cookies()

	out := doGET(engine, "/logout", authed, nil)
	if out.Code != http.StatusFound || out.Header().Get("Location") != "/login" {
		t.Fatalf("logout: %d -> %q", out.Code, out.Header().Get("Location"))
	}

	anon := out.Result().Cookies()
	rec = doGET(engine, "/dashboard", anon, nil)
	if rec.Code != http.StatusFound {
		t.Fatalf("session survived logout: %d", rec.Code)
	}
}

func TestNotFoundRoute(t *testing.T) {
	engine, _, _ := newTestApp(t)

	rec := doGET(engine, "/no-such-page", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestShowUnknownUserIs404(t *testing.T) {
	engine, service, _ := newTestApp(t)

	if _, err := service.Register(context.Background(), "alice123", "secret1"); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	cookies, token := fetchCSRF(t, engine, "/login")
	rec := doPOST(engine, "/login",
		url.Values{"_csrf": {token}, "username": {"alice123"}, "password": {"secret1"}},
		cookies, nil)
	authed := rec.Result().Cookies()

	rec = doGET(engine, "/usuarios/9999", authed, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown user, got %d", rec.Code)
	}
}
