package routes_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	"github.com/Josselin-menguy/ldap-user-manager/internal/core/domain"
	"github.com/Josselin-menguy/ldap-user-manager/internal/core/port"
	"github.com/Josselin-menguy/ldap-user-manager/internal/infra/config"
	"github.com/Josselin-menguy/ldap-user-manager/internal/infra/security"
	"github.com/Josselin-menguy/ldap-user-manager/internal/transport/http/routes"
	"github.com/Josselin-menguy/ldap-user-manager/internal/usecase"
)

type staticDirectory struct {
	entries []port.Entry
}

func (d *staticDirectory) Search(ctx context.Context, req port.SearchRequest) ([]port.Entry, error) {
	return d.entries, nil
}

func (d *staticDirectory) AddEntry(ctx context.Context, dn string, attributes map[string][]string) error {
	return nil
}

func (d *staticDirectory) Modify(ctx context.Context, dn string, changes []port.AttributeChange) error {
	return nil
}

func (d *staticDirectory) Delete(ctx context.Context, dn string) error { return nil }

func (d *staticDirectory) Close() error { return nil }

type staticConnector struct {
	dir      *staticDirectory
	password string
}

func (c *staticConnector) AdminBind(ctx context.Context) (port.Directory, error) {
	return c.dir, nil
}

func (c *staticConnector) VerifyCredentials(ctx context.Context, dn, password string) error {
	if password != c.password {
		return port.ErrBindFailed
	}
	return nil
}

func newTestEngine(t *testing.T, staticDir string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := security.NewTokenManager("routes-test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager: %v", err)
	}

	connector := &staticConnector{
		dir: &staticDirectory{entries: []port.Entry{{
			DN: "CN=Jane Doe,OU=Users,DC=example,DC=com",
			Attributes: map[string][]string{
				domain.AttrMemberOf: {"CN=Admins,OU=Groups,DC=example,DC=com"},
			},
		}}},
		password: "Str0ng!Passw0rd",
	}

	auth := usecase.NewAuthService(connector, tokens, "DC=example,DC=com",
		"CN=Admins,OU=Groups,DC=example,DC=com", zaptest.NewLogger(t))

	cfg := &config.AppConfig{}
	cfg.App.Env = "test"
	cfg.App.StaticDir = staticDir
	cfg.Session.CookieName = "authToken"

	return routes.Register(routes.Dependencies{
		Config:   cfg,
		Logger:   zaptest.NewLogger(t),
		Services: routes.ServiceSet{Auth: auth},
	})
}

func TestHealthz(t *testing.T) {
	engine := newTestEngine(t, "")

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("healthz returned %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode healthz body: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("unexpected status %v", body["status"])
	}
}

func TestUnknownRouteReturnsJSON(t *testing.T) {
	engine := newTestEngine(t, "")

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown route returned %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "this route does not exist") {
		t.Fatalf("unexpected 404 body %q", rec.Body.String())
	}
}

func TestStaticFilesServedOnNoRoute(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>frontend</html>"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	engine := newTestEngine(t, dir)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/index.html", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("static file returned %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "frontend") {
		t.Fatalf("unexpected static body %q", rec.Body.String())
	}
}

func TestCheckAuthWithoutCookie(t *testing.T) {
	engine := newTestEngine(t, "")

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/check_auth", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("check_auth without cookie returned %d", rec.Code)
	}
}

func TestLoginIssuesSessionCookie(t *testing.T) {
	engine := newTestEngine(t, "")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"username": "jane@example.com", "password": "Str0ng!Passw0rd"}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("login returned %d: %s", rec.Code, rec.Body.String())
	}

	var session *http.Cookie
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "authToken" {
			session = cookie
		}
	}
	if session == nil {
		t.Fatal("login did not set the session cookie")
	}
	if !session.HttpOnly {
		t.Fatal("session cookie must be http-only")
	}

	authRec := httptest.NewRecorder()
	authReq := httptest.NewRequest(http.MethodGet, "/check_auth", nil)
	authReq.AddCookie(session)
	engine.ServeHTTP(authRec, authReq)

	if authRec.Code != http.StatusOK {
		t.Fatalf("check_auth with cookie returned %d: %s", authRec.Code, authRec.Body.String())
	}
	var body map[string]any
	if err := json.Unmarshal(authRec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode check_auth body: %v", err)
	}
	if body["authenticated"] != true {
		t.Fatalf("unexpected check_auth body %v", body)
	}
	if body["user"] != "jane@example.com" {
		t.Fatalf("unexpected user %v", body["user"])
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	engine := newTestEngine(t, "")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"username": "jane@example.com", "password": "wrong"}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("login with bad password returned %d", rec.Code)
	}
}
