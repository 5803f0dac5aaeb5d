package router

import (
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

func SetRouter(r *gin.Engine, opts Options) {
	setSystemRoutes(r, opts)

	api := r.Group("/api")
	api.Use(gzip.Gzip(gzip.DefaultCompression))
	// 写操作统一先过 CSRF 闸，再由各路由自行挂登录与所有权判定。
	api.Use(requireCSRF())
	setLoginAPIRoutes(api, opts)
	setCatalogAPIRoutes(api, opts)
	setItemAPIRoutes(api, opts)

	setWebSPARoutes(r, opts)
}
