package router

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"catalogd/internal/googleauth"
	"catalogd/internal/middleware"
	"catalogd/internal/obs"
	"catalogd/internal/store"
)

type loginRequest struct {
	IDToken string `json:"id_token"`
}

func setLoginAPIRoutes(r gin.IRoutes, opts Options) {
	r.GET("/login", loginStateHandler())
	r.GET("/state", loginStateHandler())
	r.POST("/login", loginHandler(opts))
	r.DELETE("/login", logoutHandler())
}

// loginStateHandler 发放 CSRF state。每次调用覆盖会话里的单一槽位，
// 旧 state 随即作废。
func loginStateHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		state, err := issueCSRFState(c)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "无法生成 state，请重试"})
			return
		}
		data := gin.H{"state": state, "signed_in": signedIn(c)}
		if email := sessionEmail(c); email != "" {
			data["email"] = email
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "", "data": data})
	}
}

func loginHandler(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		if opts.Store == nil || opts.Verifier == nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "服务未初始化"})
			return
		}

		token := ""
		if strings.Contains(c.ContentType(), "application/json") {
			var req loginRequest
			if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "无效的参数"})
				return
			}
			token = req.IDToken
		} else {
			token = c.PostForm("id_token")
		}
		token = strings.TrimSpace(token)
		if token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "缺少 id_token"})
			return
		}

		identity, err := opts.Verifier.Verify(c.Request.Context(), token)
		if err != nil {
			if googleauth.IsIssuerRejection(err) {
				obs.CountLoginWrongIssuer()
			} else {
				obs.CountLoginInvalidToken()
			}
			// 校验失败绝不留下登录态，也不建用户。
			_ = deleteSessionIdentity(c)
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": googleauth.UserMessage(err)})
			return
		}

		email := store.NormalizeEmail(identity.Email)
		u, err := opts.Store.GetUserByEmail(c.Request.Context(), email)
		if errors.Is(err, sql.ErrNoRows) {
			u, err = opts.Store.EnsureUserByEmail(c.Request.Context(), email)
			if err == nil {
				obs.CountUserProvisioned()
			}
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "登录失败：无法创建用户，请重试"})
			return
		}

		if err := setSessionLogin(c, identity, u.ID, u.Email); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "无法保存会话信息，请重试"})
			return
		}
		obs.CountLoginSuccess()

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "",
			"data": gin.H{
				"id":    u.ID,
				"email": u.Email,
			},
		})
	}
}

func logoutHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := deleteSessionIdentity(c); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "无法保存会话信息，请重试"})
			return
		}
		if !wantsJSON(c) {
			middleware.SetFlashNotice(c.Writer, c.Request, "已退出登录")
			c.Redirect(http.StatusFound, "/")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "已退出登录"})
	}
}
