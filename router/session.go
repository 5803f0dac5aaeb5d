package router

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"catalogd/internal/auth"
)

const (
	sessionIdentityKey = "identity"
	sessionUserIDKey   = "id"
	sessionEmailKey    = "email"
	sessionStateKey    = "state"
)

// signedIn 的唯一判据是 identity 键是否存在；内容为空也算已登录。
func signedIn(c *gin.Context) bool {
	if c == nil {
		return false
	}
	return sessions.Default(c).Get(sessionIdentityKey) != nil
}

func sessionIdentity(c *gin.Context) (auth.Identity, bool) {
	if c == nil {
		return auth.Identity{}, false
	}
	v := sessions.Default(c).Get(sessionIdentityKey)
	raw, ok := v.(string)
	if !ok {
		return auth.Identity{}, v != nil
	}
	var id auth.Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		return auth.Identity{}, true
	}
	return id, true
}

// cookie session 走 gob 编码，identity 以 JSON 字符串存放，避免注册自定义类型。
func setSessionLogin(c *gin.Context, id auth.Identity, userID int64, email string) error {
	b, err := json.Marshal(id)
	if err != nil {
		return err
	}
	sess := sessions.Default(c)
	sess.Set(sessionIdentityKey, string(b))
	sess.Set(sessionUserIDKey, userID)
	sess.Set(sessionEmailKey, email)
	return sess.Save()
}

// deleteSessionIdentity 只删身份相关键，state 槽保留给后续表单。
func deleteSessionIdentity(c *gin.Context) error {
	sess := sessions.Default(c)
	sess.Delete(sessionIdentityKey)
	sess.Delete(sessionUserIDKey)
	sess.Delete(sessionEmailKey)
	return sess.Save()
}

func clearSession(c *gin.Context) {
	if c == nil {
		return
	}
	sess := sessions.Default(c)
	sess.Clear()
	_ = sess.Save()
}

func sessionUserID(c *gin.Context) (int64, bool) {
	return sessionInt64(c, sessionUserIDKey)
}

func sessionEmail(c *gin.Context) string {
	if c == nil {
		return ""
	}
	v := sessions.Default(c).Get(sessionEmailKey)
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func sessionCSRFState(c *gin.Context) (string, bool) {
	if c == nil {
		return "", false
	}
	v := sessions.Default(c).Get(sessionStateKey)
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// setSessionCSRFState 覆盖单一 state 槽；并发开多个表单页时只有最新的 state 有效。
func setSessionCSRFState(c *gin.Context, state string) error {
	sess := sessions.Default(c)
	sess.Set(sessionStateKey, state)
	return sess.Save()
}

func sessionInt64(c *gin.Context, key string) (int64, bool) {
	if c == nil {
		return 0, false
	}
	v := sessions.Default(c).Get(key)
	switch x := v.(type) {
	case int64:
		if x <= 0 {
			return 0, false
		}
		return x, true
	case int:
		if x <= 0 {
			return 0, false
		}
		return int64(x), true
	case float64:
		if x <= 0 {
			return 0, false
		}
		return int64(x), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil || n <= 0 {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
