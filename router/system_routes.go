package router

import (
	"expvar"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

func setSystemRoutes(r *gin.Engine, opts Options) {
	r.GET("/healthz", wrapHTTPFunc(opts.Healthz))

	// 调试端点默认关闭，仅在显式开启时注册；非本机访问需通过 CIDR 白名单或令牌。
	if debugRoutesEnabled() {
		guard := newDebugRouteGuard()
		r.GET("/debug/vars", guard, gin.WrapH(expvar.Handler()))
	}
}

func debugRoutesEnabled() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("CATALOGD_DEBUG_ROUTES"))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func newDebugRouteGuard() gin.HandlerFunc {
	var allowNets []*net.IPNet
	for _, part := range strings.Split(os.Getenv("CATALOGD_DEBUG_ROUTES_ALLOW_CIDRS"), ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if _, ipNet, err := net.ParseCIDR(part); err == nil {
			allowNets = append(allowNets, ipNet)
		}
	}
	token := strings.TrimSpace(os.Getenv("CATALOGD_DEBUG_ROUTES_TOKEN"))

	return func(c *gin.Context) {
		if debugRequestAllowed(c.Request, allowNets, token) {
			c.Next()
			return
		}
		c.AbortWithStatus(http.StatusForbidden)
	}
}

func debugRequestAllowed(r *http.Request, allowNets []*net.IPNet, token string) bool {
	if token != "" {
		got := r.Header.Get("X-Debug-Token")
		if got == "" {
			got = r.URL.Query().Get("token")
		}
		if got != "" && got == token {
			return true
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	if ip.IsLoopback() {
		return true
	}
	for _, ipNet := range allowNets {
		if ipNet.Contains(ip) {
			return true
		}
	}
	return false
}
