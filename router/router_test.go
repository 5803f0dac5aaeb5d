package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"catalogd/internal/auth"
	"catalogd/internal/googleauth"
	"catalogd/internal/store"
)

// fakeVerifier 按 token 前缀决定结果："ok:<email>" 通过，"wrong-issuer" 命中
// 白名单拒绝，其余一律视为无效 token。
type fakeVerifier struct{}

func (fakeVerifier) Verify(_ context.Context, token string) (auth.Identity, error) {
	switch {
	case strings.HasPrefix(token, "ok:"):
		return auth.Identity{Issuer: "accounts.google.com", Email: strings.TrimPrefix(token, "ok:")}, nil
	case token == "wrong-issuer":
		return auth.Identity{}, googleauth.Wrap(googleauth.ErrWrongIssuer, errors.New(`iss="https://evil.example.com"`))
	default:
		return auth.Identity{}, googleauth.Wrap(googleauth.ErrTokenRejected, errors.New("tokeninfo 返回 400"))
	}
}

func newTestRouter(t *testing.T) (*gin.Engine, *store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

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

	st := store.New(db)
	st.SetDialect(store.DialectSQLite)

	engine := gin.New()
	engine.Use(gin.Recovery())
	sessionStore := cookie.NewStore([]byte("test-secret"))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   2592000,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	engine.Use(sessions.Sessions("catalogd_session", sessionStore))

	SetRouter(engine, Options{
		Store:             st,
		Verifier:          fakeVerifier{},
		FrontendIndexPage: []byte("<!doctype html><html><body>INDEX</body></html>"),
		Healthz: func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			_, _ = w.Write([]byte(`{"ok":true}`))
		},
	})
	return engine, st
}

// sessionClient 在多次请求间透传 cookie，模拟同一个浏览器标签页序列。
type sessionClient struct {
	engine  *gin.Engine
	cookies map[string]*http.Cookie
	// browser 为 true 时按浏览器表单流发请求（Accept: text/html）。
	browser bool
}

func newSessionClient(engine *gin.Engine) *sessionClient {
	return &sessionClient{engine: engine, cookies: map[string]*http.Cookie{}}
}

func (sc *sessionClient) do(t *testing.T, method, path, state, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, "http://example.com"+path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, "http://example.com"+path, nil)
	}
	if sc.browser {
		req.Header.Set("Accept", "text/html,application/xhtml+xml")
	} else {
		req.Header.Set("Accept", "application/json")
	}
	if state != "" {
		req.Header.Set("X-CSRF-Token", state)
	}
	for _, c := range sc.cookies {
		req.AddCookie(c)
	}

	rr := httptest.NewRecorder()
	sc.engine.ServeHTTP(rr, req)
	for _, c := range rr.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(sc.cookies, c.Name)
			continue
		}
		sc.cookies[c.Name] = c
	}

	var out map[string]any
	if strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(rr.Body.Bytes(), &out)
	}
	return rr, out
}

func (sc *sessionClient) fetchState(t *testing.T) string {
	t.Helper()
	rr, out := sc.do(t, http.MethodGet, "/api/state", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /api/state: status %d body %s", rr.Code, rr.Body.String())
	}
	data, _ := out["data"].(map[string]any)
	state, _ := data["state"].(string)
	if state == "" {
		t.Fatalf("missing state in response: %s", rr.Body.String())
	}
	return state
}

func (sc *sessionClient) login(t *testing.T, email string) string {
	t.Helper()
	state := sc.fetchState(t)
	rr, out := sc.do(t, http.MethodPost, "/api/login", state, `{"id_token":"ok:`+email+`"}`)
	if rr.Code != http.StatusOK || out["success"] != true {
		t.Fatalf("login %s failed: status %d body %s", email, rr.Code, rr.Body.String())
	}
	return state
}

func dataField(t *testing.T, out map[string]any, keys ...string) any {
	t.Helper()
	var cur any = out
	for _, k := range keys {
		m, ok := cur.(map[string]any)
		if !ok {
			t.Fatalf("field %v not found in %v", keys, out)
		}
		cur = m[k]
	}
	return cur
}
