// Package server 组装 HTTP 路由、依赖与中间件，使 main 保持简单可读。
package server

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"catalogd/internal/config"
	"catalogd/internal/googleauth"
	"catalogd/internal/middleware"
	"catalogd/internal/store"
	"catalogd/internal/version"
	"catalogd/router"
)

type AppOptions struct {
	Config  config.Config
	DB      *sql.DB
	Version version.BuildInfo
}

type App struct {
	cfg      config.Config
	db       *sql.DB
	store    *store.Store
	verifier googleauth.Verifier
	version  version.BuildInfo
	engine   *gin.Engine
}

func NewApp(opts AppOptions) (*App, error) {
	st := store.New(opts.DB)
	st.SetDialect(store.Dialect(opts.Config.DB.Driver))

	sessionSecret := strings.TrimSpace(opts.Config.Security.SessionSecret)
	if sessionSecret == "" {
		// 未配置时每次启动生成新密钥，旧会话随之失效。
		sessionSecret = randomSecret(32)
	}

	verifier := googleauth.NewTokeninfoVerifier(
		opts.Config.Google.ClientID,
		opts.Config.Google.TokeninfoURL,
		opts.Config.Google.AllowedIssuers,
		time.Duration(opts.Config.Google.VerifyTimeoutSeconds)*time.Second,
	)

	app := &App{
		cfg:      opts.Config,
		db:       opts.DB,
		store:    st,
		verifier: verifier,
		version:  opts.Version,
	}

	if opts.Config.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(wrapMiddleware(func(next http.Handler) http.Handler {
		return middleware.Chain(next,
			middleware.RequestID,
			middleware.FlashFromCookies,
			middleware.MaxBytes(opts.Config.Server.MaxBodyBytes),
		)
	}))
	// 访问日志直接走 gin：状态码/字节数从 gin 的 ResponseWriter 读，
	// http.Handler 适配层拿不到这两个值。
	engine.Use(middleware.AccessLog())

	sessionStore := cookie.NewStore([]byte(sessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   2592000, // 30 days
		HttpOnly: true,
		Secure:   opts.Config.Env != "dev" && !opts.Config.Security.DisableSecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	engine.Use(sessions.Sessions(SessionCookieName, sessionStore))

	router.SetRouter(engine, router.Options{
		Store:           st,
		Verifier:        verifier,
		FrontendDistDir: opts.Config.Frontend.DistDir,
		Healthz:         app.handleHealthz,
	})
	app.engine = engine
	return app, nil
}

func (a *App) Handler() http.Handler {
	return a.engine
}

// wrapMiddleware 把 http.Handler 风格的中间件接到 gin 链上。
func wrapMiddleware(mw middleware.Middleware) gin.HandlerFunc {
	return func(c *gin.Context) {
		var nextCalled bool
		mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nextCalled = true
			c.Request = r
			c.Next()
		})).ServeHTTP(c.Writer, c.Request)
		if !nextCalled {
			c.Abort()
		}
	}
}

func randomSecret(n int) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

func (a *App) handleHealthz(w http.ResponseWriter, r *http.Request) {
	type resp struct {
		OK      bool   `json:"ok"`
		Env     string `json:"env"`
		Version string `json:"version"`
		Date    string `json:"date"`

		DBOK bool `json:"db_ok"`
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	dbOK := a.db.PingContext(ctx) == nil

	out := resp{
		OK:      true,
		Env:     a.cfg.Env,
		Version: a.version.Version,
		Date:    a.version.Date,
		DBOK:    dbOK,
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(out)
}
