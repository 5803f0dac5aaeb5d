// Package auth 提供会话身份与 CSRF state 工具，便于鉴权与审计。
package auth

import (
	"context"
)

// Identity 是外部身份提供方校验后的载荷。登录态的唯一判据是
// 会话中「是否存在」该载荷，不是字段是否非空。
type Identity struct {
	Issuer string `json:"iss"`
	Email  string `json:"email"`
}

type Principal struct {
	UserID   int64
	Email    string
	Identity Identity
}

type ctxKey int

const principalKey ctxKey = 1

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	v := ctx.Value(principalKey)
	if v == nil {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}
