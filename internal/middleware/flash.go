package middleware

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	flashNoticeCookieName = "cd_flash_notice"
	flashErrorCookieName  = "cd_flash_error"
	nextPathCookieName    = "cd_next"
)

type flashContextKey struct{}

type flashData struct {
	Notice string
	Error  string
}

func FlashNotice(ctx context.Context) string {
	v := ctx.Value(flashContextKey{})
	fd, ok := v.(flashData)
	if !ok {
		return ""
	}
	return fd.Notice
}

func FlashError(ctx context.Context) string {
	v := ctx.Value(flashContextKey{})
	fd, ok := v.(flashData)
	if !ok {
		return ""
	}
	return fd.Error
}

func NextPathFromCookie(r *http.Request) string {
	if r == nil {
		return ""
	}
	c, err := r.Cookie(nextPathCookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(c.Value)
}

func ClearNextPathCookie(w http.ResponseWriter, r *http.Request) {
	clearCookie(w, r, nextPathCookieName)
}

// SetNextPathCookie 只接受站内相对路径，拒绝任何可能的 open redirect 形式。
func SetNextPathCookie(w http.ResponseWriter, r *http.Request, nextPath string) {
	nextPath = strings.TrimSpace(nextPath)
	if nextPath == "" {
		return
	}
	if !strings.HasPrefix(nextPath, "/") || strings.HasPrefix(nextPath, "//") || strings.Contains(nextPath, "\\") {
		return
	}
	u, err := url.Parse(nextPath)
	if err != nil || u.IsAbs() || u.Host != "" || u.Scheme != "" {
		return
	}
	nextPath = strings.TrimSpace(u.Path)
	if nextPath == "" || !strings.HasPrefix(nextPath, "/") || strings.HasPrefix(nextPath, "//") {
		return
	}
	setCookie(w, r, nextPathCookieName, nextPath, 10*time.Minute)
}

func SetFlashNotice(w http.ResponseWriter, r *http.Request, msg string) {
	setFlash(w, r, flashNoticeCookieName, msg)
}

func SetFlashError(w http.ResponseWriter, r *http.Request, msg string) {
	setFlash(w, r, flashErrorCookieName, msg)
}

func setFlash(w http.ResponseWriter, r *http.Request, cookieName string, msg string) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return
	}
	if len(msg) > 500 {
		msg = msg[:500] + "..."
	}
	enc := base64.RawURLEncoding.EncodeToString([]byte(msg))
	setCookie(w, r, cookieName, enc, 2*time.Minute)
}

func FlashFromCookies(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r == nil {
			return
		}
		switch r.Method {
		case http.MethodGet, http.MethodHead:
		default:
			next.ServeHTTP(w, r)
			return
		}
		notice := popFlash(w, r, flashNoticeCookieName)
		errMsg := popFlash(w, r, flashErrorCookieName)
		ctx := context.WithValue(r.Context(), flashContextKey{}, flashData{
			Notice: notice,
			Error:  errMsg,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func popFlash(w http.ResponseWriter, r *http.Request, cookieName string) string {
	if r == nil {
		return ""
	}
	c, err := r.Cookie(cookieName)
	if err != nil {
		return ""
	}
	clearCookie(w, r, cookieName)
	raw := strings.TrimSpace(c.Value)
	if raw == "" {
		return ""
	}
	b, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}

func clearCookie(w http.ResponseWriter, r *http.Request, name string) {
	if w == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   r != nil && r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func setCookie(w http.ResponseWriter, r *http.Request, name string, value string, ttl time.Duration) {
	if w == nil {
		return
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   r != nil && r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}
