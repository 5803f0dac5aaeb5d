package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"catalogd/internal/config"
	"catalogd/internal/store"
	"catalogd/internal/version"
)

const testClientID = "client-123.apps.googleusercontent.com"

// newTokeninfoStub 接受 "tok:<email>" 形式的 id_token，返回对应邮箱的合法响应。
func newTokeninfoStub(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		token := r.PostFormValue("id_token")
		email, ok := strings.CutPrefix(token, "tok:")
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_token"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"iss":"accounts.google.com","aud":%q,"email":%q,"email_verified":"true"}`,
			testClientID, email)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(t *testing.T) *App {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "catalogd.db") + "?_busy_timeout=1000"
	db, err := store.OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := store.EnsureSQLiteSchema(db); err != nil {
		t.Fatalf("EnsureSQLiteSchema: %v", err)
	}

	stub := newTokeninfoStub(t)
	cfg := config.Config{
		Env: "dev",
		DB:  config.DBConfig{Driver: string(store.DialectSQLite)},
		Google: config.GoogleConfig{
			ClientID:             testClientID,
			TokeninfoURL:         stub.URL,
			AllowedIssuers:       []string{"accounts.google.com", "https://accounts.google.com"},
			VerifyTimeoutSeconds: 5,
		},
		Security: config.SecurityConfig{SessionSecret: "test-secret"},
	}

	app, err := NewApp(AppOptions{Config: cfg, DB: db, Version: version.Info()})
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	return app
}

// cookieJar 在多次请求间透传会话 cookie。
type cookieJar struct {
	cookies map[string]*http.Cookie
}

func newCookieJar() *cookieJar {
	return &cookieJar{cookies: map[string]*http.Cookie{}}
}

func (j *cookieJar) apply(req *http.Request) {
	for _, c := range j.cookies {
		req.AddCookie(c)
	}
}

func (j *cookieJar) update(resp *http.Response) {
	for _, c := range resp.Cookies() {
		if c.MaxAge < 0 {
			delete(j.cookies, c.Name)
			continue
		}
		j.cookies[c.Name] = c
	}
}

func (j *cookieJar) do(t *testing.T, app *App, method, path, state string, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, "http://example.com"+path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, "http://example.com"+path, nil)
	}
	req.Header.Set("Accept", "application/json")
	if state != "" {
		req.Header.Set("X-CSRF-Token", state)
	}
	j.apply(req)
	rr := httptest.NewRecorder()
	app.Handler().ServeHTTP(rr, req)
	j.update(rr.Result())

	var out map[string]any
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(rr.Body.Bytes(), &out)
	}
	return rr, out
}

func (j *cookieJar) fetchState(t *testing.T, app *App) string {
	t.Helper()
	rr, out := j.do(t, app, http.MethodGet, "/api/login", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /api/login: status %d", rr.Code)
	}
	data, _ := out["data"].(map[string]any)
	state, _ := data["state"].(string)
	if len(state) != 32 {
		t.Fatalf("expected 32-char state, got %q", state)
	}
	return state
}

func TestHealthzAndSPAFallback(t *testing.T) {
	app := newTestApp(t)

	t.Run("GET /healthz", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "http://example.com/healthz", nil)
		rr := httptest.NewRecorder()
		app.Handler().ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		var out map[string]any
		if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if out["ok"] != true || out["db_ok"] != true {
			t.Fatalf("unexpected healthz body: %v", out)
		}
	})

	t.Run("GET /catalogs serves index", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "http://example.com/catalogs", nil)
		rr := httptest.NewRecorder()
		app.Handler().ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rr.Code)
		}
		if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Fatalf("expected text/html, got %q", ct)
		}
	})

	t.Run("GET /api/unknown returns 404", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "http://example.com/api/unknown", nil)
		rr := httptest.NewRecorder()
		app.Handler().ServeHTTP(rr, req)
		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rr.Code)
		}
	})
}

func TestLoginFlow_EndToEnd(t *testing.T) {
	app := newTestApp(t)
	jar := newCookieJar()

	state := jar.fetchState(t, app)

	// 登录。
	rr, out := jar.do(t, app, http.MethodPost, "/api/login", state, `{"id_token":"tok:alice@example.com"}`)
	if rr.Code != http.StatusOK || out["success"] != true {
		t.Fatalf("login failed: status %d body %s", rr.Code, rr.Body.String())
	}

	// 同一 state 槽仍有效，直接建 catalog。
	rr, out = jar.do(t, app, http.MethodPost, "/api/catalogs", state, `{"name":"Snowboarding"}`)
	if rr.Code != http.StatusOK || out["success"] != true {
		t.Fatalf("create catalog failed: status %d body %s", rr.Code, rr.Body.String())
	}
	data, _ := out["data"].(map[string]any)
	cat, _ := data["catalog"].(map[string]any)
	if cat["name"] != "Snowboarding" || cat["by"] != "alice@example.com" {
		t.Fatalf("unexpected catalog payload: %v", cat)
	}

	// 登出后再建 catalog 必须被拒。
	rr, _ = jar.do(t, app, http.MethodDelete, "/api/login", state, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("logout failed: status %d", rr.Code)
	}
	rr, _ = jar.do(t, app, http.MethodPost, "/api/catalogs", state, `{"name":"Skiing"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", rr.Code)
	}
}

func TestLogin_InvalidTokenLeavesNoTrace(t *testing.T) {
	app := newTestApp(t)
	jar := newCookieJar()
	state := jar.fetchState(t, app)

	rr, _ := jar.do(t, app, http.MethodPost, "/api/login", state, `{"id_token":"garbage"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token, got %d", rr.Code)
	}

	// 失败登录后不应有登录态。
	rr, out := jar.do(t, app, http.MethodGet, "/api/login", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /api/login: status %d", rr.Code)
	}
	data, _ := out["data"].(map[string]any)
	if data["signed_in"] != false {
		t.Fatalf("expected signed_in=false, got %v", data)
	}
}
