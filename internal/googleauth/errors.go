package googleauth

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrEmptyToken           ErrorCode = "empty_token"
	ErrTokeninfoUnreachable ErrorCode = "tokeninfo_unreachable"
	ErrTokenRejected        ErrorCode = "token_rejected"
	ErrMalformedResponse    ErrorCode = "malformed_response"
	ErrAudienceMismatch     ErrorCode = "audience_mismatch"
	ErrWrongIssuer          ErrorCode = "wrong_issuer"
	ErrMissingEmail         ErrorCode = "missing_email"
	ErrEmailNotVerified     ErrorCode = "email_not_verified"
)

type Error struct {
	Code  ErrorCode
	Cause error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("googleauth: %s", e.Code)
	}
	return fmt.Sprintf("googleauth: %s: %v", e.Code, e.Cause)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func Wrap(code ErrorCode, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Cause: err}
}

func CodeOf(err error) (ErrorCode, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}

func UserMessage(err error) string {
	code, ok := CodeOf(err)
	if !ok {
		return "登录失败，请重试"
	}
	switch code {
	case ErrEmptyToken:
		return "登录失败：缺少 Google 凭证"
	case ErrTokeninfoUnreachable:
		return "登录失败：无法连接 Google 验证服务，请稍后重试"
	case ErrTokenRejected, ErrMalformedResponse:
		return "登录失败：Google 凭证无效或已过期，请重新授权"
	case ErrAudienceMismatch:
		return "登录失败：凭证不属于本应用"
	case ErrWrongIssuer:
		return "登录失败：凭证签发方不受信任"
	case ErrMissingEmail, ErrEmailNotVerified:
		return "登录失败：Google 账号缺少已验证邮箱"
	default:
		return "登录失败，请重试"
	}
}
