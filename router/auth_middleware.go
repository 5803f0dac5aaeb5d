package router

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"catalogd/internal/auth"
	"catalogd/internal/obs"
)

// requireSignIn 在 requireCSRF 之后执行：先判登录态，再把会话身份还原成
// Principal 挂到请求上下文，供后续所有权判定与访问日志使用。
func requireSignIn(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !signedIn(c) {
			obs.CountMutationDenied()
			denyNotSignedIn(c)
			return
		}

		if opts.Store == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "store 未初始化"})
			c.Abort()
			return
		}

		identity, _ := sessionIdentity(c)
		userID, okID := sessionUserID(c)
		email := sessionEmail(c)
		if !okID || email == "" {
			// 会话里有身份键但缺 user 绑定（历史会话或被篡改），按未登录处理并清会话。
			clearSession(c)
			obs.CountMutationDenied()
			denyNotSignedIn(c)
			return
		}

		u, err := opts.Store.GetUserByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				clearSession(c)
				obs.CountMutationDenied()
				denyNotSignedIn(c)
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "查询用户失败"})
			c.Abort()
			return
		}

		p := auth.Principal{UserID: u.ID, Email: u.Email, Identity: identity}
		c.Request = c.Request.WithContext(auth.WithPrincipal(c.Request.Context(), p))
		c.Set("cd_user_id", u.ID)
		c.Next()
	}
}

func userIDFromContext(c *gin.Context) (int64, bool) {
	if c == nil {
		return 0, false
	}
	v, ok := c.Get("cd_user_id")
	if !ok {
		return 0, false
	}
	switch x := v.(type) {
	case int64:
		return x, x > 0
	case int:
		return int64(x), x > 0
	default:
		return 0, false
	}
}
