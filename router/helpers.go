package router

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"catalogd/internal/middleware"
)

func wrapHTTP(h http.Handler) gin.HandlerFunc {
	if h == nil {
		return func(c *gin.Context) {
			c.Status(http.StatusNotFound)
		}
	}

	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}

func wrapHTTPFunc(f http.HandlerFunc) gin.HandlerFunc {
	if f == nil {
		return wrapHTTP(nil)
	}
	return wrapHTTP(f)
}

// wantsJSON 区分 XHR/JSON 客户端与浏览器表单流：前者收 401 JSON，
// 后者收 302 + flash cookie。
func wantsJSON(c *gin.Context) bool {
	if c == nil {
		return true
	}
	if strings.EqualFold(strings.TrimSpace(c.GetHeader("X-Requested-With")), "XMLHttpRequest") {
		return true
	}
	if strings.Contains(c.ContentType(), "application/json") {
		return true
	}
	return strings.Contains(c.GetHeader("Accept"), "application/json")
}

func denyNotSignedIn(c *gin.Context) {
	if wantsJSON(c) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "未登录，请先登录"})
	} else {
		middleware.SetFlashError(c.Writer, c.Request, "请先登录")
		middleware.SetNextPathCookie(c.Writer, c.Request, c.Request.URL.Path)
		c.Redirect(http.StatusFound, "/")
	}
	c.Abort()
}

func denyNotAuthorized(c *gin.Context) {
	if wantsJSON(c) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "无权进行此操作"})
	} else {
		middleware.SetFlashError(c.Writer, c.Request, "无权进行此操作")
		c.Redirect(http.StatusFound, "/")
	}
	c.Abort()
}

func respondNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "记录不存在"})
	c.Abort()
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
