// Package googleauth 通过 Google tokeninfo 端点校验 ID token，并产出登录身份。
package googleauth

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"catalogd/internal/auth"
)

// Verifier 把一段 Google ID token 换成可信的登录身份。
type Verifier interface {
	Verify(ctx context.Context, idToken string) (auth.Identity, error)
}

type TokeninfoVerifier struct {
	clientID       string
	endpoint       string
	allowedIssuers []string
	http           *http.Client
}

func NewTokeninfoVerifier(clientID, endpoint string, allowedIssuers []string, timeout time.Duration) *TokeninfoVerifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &TokeninfoVerifier{
		clientID:       clientID,
		endpoint:       endpoint,
		allowedIssuers: allowedIssuers,
		http:           &http.Client{Timeout: timeout},
	}
}

// Verify 校验顺序：先确认 token 本身有效（tokeninfo 接受）、audience 属于本应用，
// 再检查 issuer 是否在白名单内。任何一步失败都不会产出身份。
func (v *TokeninfoVerifier) Verify(ctx context.Context, idToken string) (auth.Identity, error) {
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return auth.Identity{}, &Error{Code: ErrEmptyToken}
	}

	form := url.Values{}
	form.Set("id_token", idToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return auth.Identity{}, Wrap(ErrTokeninfoUnreachable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := v.http.Do(req)
	if err != nil {
		return auth.Identity{}, Wrap(ErrTokeninfoUnreachable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return auth.Identity{}, Wrap(ErrTokeninfoUnreachable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return auth.Identity{}, Wrap(ErrTokenRejected, fmt.Errorf("tokeninfo 返回 %d", resp.StatusCode))
	}
	if !gjson.ValidBytes(body) {
		return auth.Identity{}, &Error{Code: ErrMalformedResponse}
	}

	payload := gjson.ParseBytes(body)
	if aud := payload.Get("aud").String(); aud != v.clientID {
		return auth.Identity{}, Wrap(ErrAudienceMismatch, fmt.Errorf("aud=%q", aud))
	}

	iss := payload.Get("iss").String()
	if !v.issuerAllowed(iss) {
		return auth.Identity{}, Wrap(ErrWrongIssuer, fmt.Errorf("iss=%q", iss))
	}

	email := strings.TrimSpace(payload.Get("email").String())
	if email == "" {
		return auth.Identity{}, &Error{Code: ErrMissingEmail}
	}
	// tokeninfo 把布尔字段序列化成字符串 "true"/"false"。
	if verified := payload.Get("email_verified"); verified.Exists() && verified.String() != "true" {
		return auth.Identity{}, &Error{Code: ErrEmailNotVerified}
	}

	return auth.Identity{Issuer: iss, Email: email}, nil
}

func (v *TokeninfoVerifier) issuerAllowed(iss string) bool {
	for _, allowed := range v.allowedIssuers {
		if iss == allowed {
			return true
		}
	}
	return false
}

// IsIssuerRejection 用于访问日志与计数器区分"签发方不可信"和其余验证失败。
func IsIssuerRejection(err error) bool {
	code, ok := CodeOf(err)
	return ok && code == ErrWrongIssuer
}
