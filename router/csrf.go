package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"catalogd/internal/auth"
	"catalogd/internal/obs"
)

// requireCSRF 是所有写操作的第一道闸：state 比对失败时请求直接终止，
// 不触达登录判定与所有权判定。
func requireCSRF() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		want, ok := sessionCSRFState(c)
		if !ok {
			rejectCSRF(c, "csrf state 缺失，请刷新页面重试")
			return
		}

		// 只认 header 与表单字段；query 里的 state 会泄露进访问日志与 Referer。
		got := strings.TrimSpace(c.GetHeader("X-CSRF-Token"))
		if got == "" {
			got = strings.TrimSpace(c.PostForm("_csrf"))
		}
		if !auth.StateEqual(got, want) {
			rejectCSRF(c, "csrf state 不正确")
			return
		}
		c.Next()
	}
}

func rejectCSRF(c *gin.Context, msg string) {
	obs.CountCSRFRejected()
	c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": msg})
	c.Abort()
}

func issueCSRFState(c *gin.Context) (string, error) {
	state, err := auth.NewState()
	if err != nil {
		return "", err
	}
	if err := setSessionCSRFState(c, state); err != nil {
		return "", err
	}
	return state, nil
}
