package obs

import (
	"expvar"
	"sync/atomic"
)

var (
	loginSuccessTotal     int64
	loginInvalidToken     int64
	loginWrongIssuer      int64
	csrfRejectedTotal     int64
	mutationDeniedTotal   int64
	usersProvisionedTotal int64
)

func init() {
	expvar.Publish("login_success_total", expvar.Func(func() any {
		return atomic.LoadInt64(&loginSuccessTotal)
	}))
	expvar.Publish("login_invalid_token_total", expvar.Func(func() any {
		return atomic.LoadInt64(&loginInvalidToken)
	}))
	expvar.Publish("login_wrong_issuer_total", expvar.Func(func() any {
		return atomic.LoadInt64(&loginWrongIssuer)
	}))
	expvar.Publish("csrf_rejected_total", expvar.Func(func() any {
		return atomic.LoadInt64(&csrfRejectedTotal)
	}))
	expvar.Publish("mutation_denied_total", expvar.Func(func() any {
		return atomic.LoadInt64(&mutationDeniedTotal)
	}))
	expvar.Publish("users_provisioned_total", expvar.Func(func() any {
		return atomic.LoadInt64(&usersProvisionedTotal)
	}))
}

func CountLoginSuccess() { atomic.AddInt64(&loginSuccessTotal, 1) }

func CountLoginInvalidToken() { atomic.AddInt64(&loginInvalidToken, 1) }

func CountLoginWrongIssuer() { atomic.AddInt64(&loginWrongIssuer, 1) }

func CountCSRFRejected() { atomic.AddInt64(&csrfRejectedTotal, 1) }

func CountMutationDenied() { atomic.AddInt64(&mutationDeniedTotal, 1) }

func CountUserProvisioned() { atomic.AddInt64(&usersProvisionedTotal, 1) }
