package router

import (
	"fmt"
	"net/http"
	"testing"
)

func createCatalogViaAPI(t *testing.T, sc *sessionClient, state, name string) int64 {
	t.Helper()
	rr, out := sc.do(t, http.MethodPost, "/api/catalogs", state, `{"name":"`+name+`"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("create catalog %s: %d %s", name, rr.Code, rr.Body.String())
	}
	return int64(dataField(t, out, "data", "catalog", "id").(float64))
}

func TestItems_CreateInAnyExistingCatalog(t *testing.T) {
	engine, _ := newTestRouter(t)

	alice := newSessionClient(engine)
	aliceState := alice.login(t, "alice@example.com")
	catID := createCatalogViaAPI(t, alice, aliceState, "Snowboarding")

	// 目录不属于 bob，但登录用户可以在任何已存在的目录下建条目。
	bob := newSessionClient(engine)
	bobState := bob.login(t, "bob@example.com")
	body := fmt.Sprintf(`{"name":"Goggles","catalog_id":%d}`, catID)
	rr, out := bob.do(t, http.MethodPost, "/api/items", bobState, body)
	if rr.Code != http.StatusOK {
		t.Fatalf("bob create item: %d %s", rr.Code, rr.Body.String())
	}
	item, _ := dataField(t, out, "data", "item").(map[string]any)
	if item["by"] != "bob@example.com" || item["catalog"] != "Snowboarding" {
		t.Fatalf("unexpected item payload: %v", item)
	}
	if _, ok := item["description"]; !ok {
		t.Fatalf("description key must be present (null allowed): %v", item)
	}
}

func TestItems_CreateInMissingCatalogIs404(t *testing.T) {
	engine, _ := newTestRouter(t)
	sc := newSessionClient(engine)
	state := sc.login(t, "alice@example.com")

	rr, _ := sc.do(t, http.MethodPost, "/api/items", state, `{"name":"Ghost","catalog_id":404}`)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing catalog, got %d", rr.Code)
	}
}

func TestItems_CreatorOnlyMutation(t *testing.T) {
	engine, _ := newTestRouter(t)

	alice := newSessionClient(engine)
	aliceState := alice.login(t, "alice@example.com")
	catID := createCatalogViaAPI(t, alice, aliceState, "Snowboarding")

	body := fmt.Sprintf(`{"name":"Snowboard","catalog_id":%d}`, catID)
	rr, out := alice.do(t, http.MethodPost, "/api/items", aliceState, body)
	if rr.Code != http.StatusOK {
		t.Fatalf("alice create item: %d", rr.Code)
	}
	itemID := int64(dataField(t, out, "data", "item", "id").(float64))

	bob := newSessionClient(engine)
	bobState := bob.login(t, "bob@example.com")

	if rr, _ := bob.do(t, http.MethodPut, fmt.Sprintf("/api/items/%d", itemID), bobState, `{"name":"Stolen"}`); rr.Code != http.StatusUnauthorized {
		t.Fatalf("bob rename should be denied, got %d", rr.Code)
	}
	if rr, _ := bob.do(t, http.MethodDelete, fmt.Sprintf("/api/items/%d", itemID), bobState, ""); rr.Code != http.StatusUnauthorized {
		t.Fatalf("bob delete should be denied, got %d", rr.Code)
	}

	if rr, _ := alice.do(t, http.MethodPut, fmt.Sprintf("/api/items/%d", itemID), aliceState, `{"description":"All-mountain"}`); rr.Code != http.StatusOK {
		t.Fatalf("alice patch: %d", rr.Code)
	}
	rr, out = alice.do(t, http.MethodGet, fmt.Sprintf("/api/items/%d", itemID), "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get item: %d", rr.Code)
	}
	item, _ := dataField(t, out, "data", "item").(map[string]any)
	if item["name"] != "Snowboard" || item["description"] != "All-mountain" {
		t.Fatalf("patch must only touch provided fields: %v", item)
	}

	if rr, _ := alice.do(t, http.MethodDelete, fmt.Sprintf("/api/items/%d", itemID), aliceState, ""); rr.Code != http.StatusOK {
		t.Fatalf("alice delete: %d", rr.Code)
	}
	if rr, _ := alice.do(t, http.MethodGet, fmt.Sprintf("/api/items/%d", itemID), "", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rr.Code)
	}
}

func TestItems_EmptyPatchRejected(t *testing.T) {
	engine, _ := newTestRouter(t)
	sc := newSessionClient(engine)
	state := sc.login(t, "alice@example.com")
	catID := createCatalogViaAPI(t, sc, state, "Snowboarding")

	rr, out := sc.do(t, http.MethodPost, "/api/items", state, fmt.Sprintf(`{"name":"Snowboard","catalog_id":%d}`, catID))
	if rr.Code != http.StatusOK {
		t.Fatalf("create item: %d", rr.Code)
	}
	itemID := int64(dataField(t, out, "data", "item", "id").(float64))

	rr, _ = sc.do(t, http.MethodPut, fmt.Sprintf("/api/items/%d", itemID), state, `{}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty patch, got %d", rr.Code)
	}
}

func TestItems_RenameToEmptyRejected(t *testing.T) {
	engine, _ := newTestRouter(t)
	sc := newSessionClient(engine)
	state := sc.login(t, "alice@example.com")
	catID := createCatalogViaAPI(t, sc, state, "Snowboarding")

	rr, out := sc.do(t, http.MethodPost, "/api/items", state, fmt.Sprintf(`{"name":"Snowboard","catalog_id":%d}`, catID))
	if rr.Code != http.StatusOK {
		t.Fatalf("create item: %d", rr.Code)
	}
	itemID := int64(dataField(t, out, "data", "item", "id").(float64))

	rr, _ = sc.do(t, http.MethodPut, fmt.Sprintf("/api/items/%d", itemID), state, `{"name":""}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty name, got %d %s", rr.Code, rr.Body.String())
	}

	rr, out = sc.do(t, http.MethodGet, fmt.Sprintf("/api/items/%d", itemID), "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("get item: %d", rr.Code)
	}
	if got := dataField(t, out, "data", "item", "name"); got != "Snowboard" {
		t.Fatalf("name must stay untouched, got %v", got)
	}
}
