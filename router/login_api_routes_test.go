package router

import (
	"context"
	"net/http"
	"testing"
)

func TestStateIssuance_ShapeAndRotation(t *testing.T) {
	engine, _ := newTestRouter(t)
	sc := newSessionClient(engine)

	a := sc.fetchState(t)
	b := sc.fetchState(t)
	if len(a) != 32 || len(b) != 32 {
		t.Fatalf("expected 32-char states, got %d and %d", len(a), len(b))
	}
	if a == b {
		t.Fatalf("states should rotate, got identical %q", a)
	}
	for _, r := range a + b {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z') {
			t.Fatalf("state contains non-letter %q", r)
		}
	}
}

func TestLogin_StaleStateRejected(t *testing.T) {
	engine, st := newTestRouter(t)
	sc := newSessionClient(engine)

	old := sc.fetchState(t)
	_ = sc.fetchState(t) // 新 state 覆盖单一槽位，old 立即作废。

	rr, _ := sc.do(t, http.MethodPost, "/api/login", old, `{"id_token":"ok:alice@example.com"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for stale state, got %d", rr.Code)
	}

	// 被拒的请求不能有副作用。
	if n, err := st.CountUsers(context.Background()); err != nil || n != 0 {
		t.Fatalf("expected 0 users after rejected login, got %d (err=%v)", n, err)
	}
}

func TestLogin_ConcurrentTabs_LatestStateWins(t *testing.T) {
	engine, _ := newTestRouter(t)
	sc := newSessionClient(engine)

	tabA := sc.fetchState(t)
	tabB := sc.fetchState(t)

	if rr, _ := sc.do(t, http.MethodPost, "/api/login", tabA, `{"id_token":"ok:alice@example.com"}`); rr.Code != http.StatusUnauthorized {
		t.Fatalf("tab A (superseded) should fail, got %d", rr.Code)
	}
	if rr, _ := sc.do(t, http.MethodPost, "/api/login", tabB, `{"id_token":"ok:alice@example.com"}`); rr.Code != http.StatusOK {
		t.Fatalf("tab B (latest) should succeed, got %d", rr.Code)
	}
}

func TestLogin_MissingStateSlot(t *testing.T) {
	engine, _ := newTestRouter(t)
	sc := newSessionClient(engine)

	// 从未发放过 state 的会话，任何提交值都必须被拒。
	rr, _ := sc.do(t, http.MethodPost, "/api/login", "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA", `{"id_token":"ok:alice@example.com"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without state slot, got %d", rr.Code)
	}
}

func TestLogin_WrongIssuer_NoUserNoSession(t *testing.T) {
	engine, st := newTestRouter(t)
	sc := newSessionClient(engine)

	state := sc.fetchState(t)
	rr, out := sc.do(t, http.MethodPost, "/api/login", state, `{"id_token":"wrong-issuer"}`)
	if rr.Code != http.StatusUnauthorized || out["success"] != false {
		t.Fatalf("expected 401 for wrong issuer, got %d body %s", rr.Code, rr.Body.String())
	}

	if n, err := st.CountUsers(context.Background()); err != nil || n != 0 {
		t.Fatalf("wrong issuer must not provision a user, got %d (err=%v)", n, err)
	}
	rr, out = sc.do(t, http.MethodGet, "/api/state", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /api/state: %d", rr.Code)
	}
	if dataField(t, out, "data", "signed_in") != false {
		t.Fatalf("wrong issuer must not leave a signed-in session")
	}
}

func TestLogin_ProvisionIdempotent(t *testing.T) {
	engine, st := newTestRouter(t)

	sc1 := newSessionClient(engine)
	sc1.login(t, "alice@example.com")
	sc2 := newSessionClient(engine)
	sc2.login(t, "alice@example.com")

	if n, err := st.CountUsers(context.Background()); err != nil || n != 1 {
		t.Fatalf("repeated logins must reuse the user row, got %d (err=%v)", n, err)
	}
}

func TestLogout_DeletesIdentityOnly(t *testing.T) {
	engine, _ := newTestRouter(t)
	sc := newSessionClient(engine)
	state := sc.login(t, "alice@example.com")

	rr, out := sc.do(t, http.MethodDelete, "/api/login", state, "")
	if rr.Code != http.StatusOK || out["success"] != true {
		t.Fatalf("logout failed: %d %s", rr.Code, rr.Body.String())
	}

	rr, out = sc.do(t, http.MethodGet, "/api/state", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /api/state: %d", rr.Code)
	}
	if dataField(t, out, "data", "signed_in") != false {
		t.Fatalf("expected signed_in=false after logout")
	}
}
