package cart

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront-bff/api/middleware"
	cartsvc "github.com/angelmondragon/storefront-bff/internal/cart"
	"github.com/angelmondragon/storefront-bff/pkg/backend"
	pkgerrors "github.com/angelmondragon/storefront-bff/pkg/errors"
)

type stubCartService struct {
	view        *cartsvc.View
	err         error
	lastCaller  backend.Caller
	lastKey     string
	lastToggle  [3]string
	lastShop    string
	lastVariant cartsvc.ChangeVariantInput
	lastAdd     cartsvc.AddItemInput
	calls       []string
}

func (s *stubCartService) record(name string, caller backend.Caller) (*cartsvc.View, error) {
	s.calls = append(s.calls, name)
	s.lastCaller = caller
	return s.view, s.err
}

func (s *stubCartService) Load(ctx context.Context, caller backend.Caller) (*cartsvc.View, error) {
	return s.record("load", caller)
}

func (s *stubCartService) View(ctx context.Context, caller backend.Caller) (*cartsvc.View, error) {
	return s.record("view", caller)
}

func (s *stubCartService) ToggleItem(ctx context.Context, caller backend.Caller, shopID, productID, skuID string) (*cartsvc.View, error) {
	s.lastToggle = [3]string{shopID, productID, skuID}
	return s.record("toggle_item", caller)
}

func (s *stubCartService) ToggleShop(ctx context.Context, caller backend.Caller, shopID string) (*cartsvc.View, error) {
	s.lastShop = shopID
	return s.record("toggle_shop", caller)
}

func (s *stubCartService) ToggleAll(ctx context.Context, caller backend.Caller) (*cartsvc.View, error) {
	return s.record("toggle_all", caller)
}

func (s *stubCartService) Increment(ctx context.Context, caller backend.Caller, key string) (*cartsvc.View, error) {
	s.lastKey = key
	return s.record("increment", caller)
}

func (s *stubCartService) Decrement(ctx context.Context, caller backend.Caller, key string) (*cartsvc.View, error) {
	s.lastKey = key
	return s.record("decrement", caller)
}

func (s *stubCartService) Delete(ctx context.Context, caller backend.Caller, key string) (*cartsvc.View, error) {
	s.lastKey = key
	return s.record("delete", caller)
}

func (s *stubCartService) ChangeVariant(ctx context.Context, caller backend.Caller, key string, input cartsvc.ChangeVariantInput) (*cartsvc.View, error) {
	s.lastKey = key
	s.lastVariant = input
	return s.record("change_variant", caller)
}

func (s *stubCartService) Add(ctx context.Context, caller backend.Caller, input cartsvc.AddItemInput) (*cartsvc.View, error) {
	s.lastAdd = input
	return s.record("add", caller)
}

func (s *stubCartService) Snapshot(ctx context.Context, caller backend.Caller) (*cartsvc.Session, error) {
	return nil, nil
}

func (s *stubCartService) Discard(ctx context.Context, userID string) error {
	return nil
}

func authed(req *http.Request) *http.Request {
	return req.WithContext(middleware.WithCaller(req.Context(), "user-1", "token-1"))
}

func withParam(req *http.Request, name, value string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add(name, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestCartViewForwardsCaller(t *testing.T) {
	svc := &stubCartService{view: &cartsvc.View{CartID: "cart-1", AllSelected: true}}
	resp := httptest.NewRecorder()
	CartView(svc, nil).ServeHTTP(resp, authed(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var envelope struct {
		Data cartsvc.View `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.CartID != "cart-1" || !envelope.Data.AllSelected {
		t.Fatalf("unexpected view: %+v", envelope.Data)
	}
	if svc.lastCaller.UserID != "user-1" || svc.lastCaller.Token != "token-1" {
		t.Fatalf("unexpected caller: %+v", svc.lastCaller)
	}
}

func TestCartRefreshLoads(t *testing.T) {
	svc := &stubCartService{view: &cartsvc.View{}}
	CartRefresh(svc, nil).ServeHTTP(httptest.NewRecorder(), authed(httptest.NewRequest(http.MethodPost, "/api/v1/cart/refresh", nil)))
	if len(svc.calls) != 1 || svc.calls[0] != "load" {
		t.Fatalf("expected load, got %v", svc.calls)
	}
}

func TestCartToggleItemValidatesBody(t *testing.T) {
	svc := &stubCartService{view: &cartsvc.View{}}

	resp := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/selection/items", strings.NewReader(`{"productId":"p1"}`))
	CartToggleItem(svc, nil).ServeHTTP(resp, authed(req))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if len(svc.calls) != 0 {
		t.Fatalf("service should not be called")
	}

	resp = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/api/v1/cart/selection/items", strings.NewReader(`{"shopId":"shop-a","productId":"p1","skuId":"s1"}`))
	CartToggleItem(svc, nil).ServeHTTP(resp, authed(req))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastToggle != [3]string{"shop-a", "p1", "s1"} {
		t.Fatalf("unexpected toggle args %v", svc.lastToggle)
	}
}

func TestCartToggleShopUsesPathParam(t *testing.T) {
	svc := &stubCartService{view: &cartsvc.View{}}
	req := withParam(httptest.NewRequest(http.MethodPost, "/api/v1/cart/selection/shops/shop-b", nil), "shopId", "shop-b")
	resp := httptest.NewRecorder()
	CartToggleShop(svc, nil).ServeHTTP(resp, authed(req))
	if resp.Code != http.StatusOK || svc.lastShop != "shop-b" {
		t.Fatalf("code=%d shop=%q", resp.Code, svc.lastShop)
	}
}

func TestCartItemHandlersUnescapeKey(t *testing.T) {
	tests := []struct {
		name    string
		handler func(cartsvc.Service) http.HandlerFunc
		call    string
	}{
		{"increment", func(s cartsvc.Service) http.HandlerFunc { return CartIncrement(s, nil) }, "increment"},
		{"decrement", func(s cartsvc.Service) http.HandlerFunc { return CartDecrement(s, nil) }, "decrement"},
		{"delete", func(s cartsvc.Service) http.HandlerFunc { return CartDelete(s, nil) }, "delete"},
	}
	for _, tt := range tests {
		svc := &stubCartService{view: &cartsvc.View{}}
		req := withParam(httptest.NewRequest(http.MethodPost, "/", nil), "key", "p2%2Bs1")
		resp := httptest.NewRecorder()
		tt.handler(svc).ServeHTTP(resp, authed(req))
		if resp.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", tt.name, resp.Code)
		}
		if svc.lastKey != "p2+s1" || svc.calls[0] != tt.call {
			t.Fatalf("%s: key=%q calls=%v", tt.name, svc.lastKey, svc.calls)
		}
	}
}

func TestCartIncrementSurfacesLockConflict(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeStateConflict, "cart item is still processing")}
	req := withParam(httptest.NewRequest(http.MethodPost, "/", nil), "key", "p1")
	resp := httptest.NewRecorder()
	CartIncrement(svc, nil).ServeHTTP(resp, authed(req))
	if resp.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 got %d", resp.Code)
	}
}

func TestCartChangeVariant(t *testing.T) {
	svc := &stubCartService{view: &cartsvc.View{}}
	body := strings.NewReader(`{"selection":[1,0],"quantity":2}`)
	req := withParam(httptest.NewRequest(http.MethodPut, "/", body), "key", "p1+s1")
	resp := httptest.NewRecorder()
	CartChangeVariant(svc, nil).ServeHTTP(resp, authed(req))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastKey != "p1+s1" || svc.lastVariant.Quantity != 2 || len(svc.lastVariant.Selection) != 2 {
		t.Fatalf("unexpected args key=%q input=%+v", svc.lastKey, svc.lastVariant)
	}
}

func TestCartChangeVariantRejectsZeroQuantity(t *testing.T) {
	svc := &stubCartService{view: &cartsvc.View{}}
	body := strings.NewReader(`{"selection":[1],"quantity":0}`)
	req := withParam(httptest.NewRequest(http.MethodPut, "/", body), "key", "p1")
	resp := httptest.NewRecorder()
	CartChangeVariant(svc, nil).ServeHTTP(resp, authed(req))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCartHandlersWithoutService(t *testing.T) {
	resp := httptest.NewRecorder()
	CartView(nil, nil).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", resp.Code)
	}
}

func TestCartAdd(t *testing.T) {
	svc := &stubCartService{view: &cartsvc.View{CartID: "cart-1"}}
	body := strings.NewReader(`{"productId":" p1 ","selection":[0,1],"quantity":2}`)
	resp := httptest.NewRecorder()
	CartAdd(svc, nil).ServeHTTP(resp, authed(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", body)))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if svc.lastAdd.ProductID != "p1" || svc.lastAdd.Quantity != 2 || len(svc.lastAdd.Selection) != 2 {
		t.Fatalf("unexpected input %+v", svc.lastAdd)
	}
	if svc.lastCaller.UserID != "user-1" {
		t.Fatalf("caller not forwarded: %+v", svc.lastCaller)
	}
}

func TestCartAddWithoutSelection(t *testing.T) {
	svc := &stubCartService{view: &cartsvc.View{}}
	body := strings.NewReader(`{"productId":"p9","quantity":1}`)
	resp := httptest.NewRecorder()
	CartAdd(svc, nil).ServeHTTP(resp, authed(httptest.NewRequest(http.MethodPost, "/", body)))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if svc.lastAdd.Selection != nil {
		t.Fatalf("expected no selection, got %v", svc.lastAdd.Selection)
	}
}

func TestCartAddValidatesBody(t *testing.T) {
	svc := &stubCartService{view: &cartsvc.View{}}
	for _, raw := range []string{`{"quantity":1}`, `{"productId":"p1","quantity":0}`, `{"productId":"p1","selection":[-1],"quantity":1}`} {
		resp := httptest.NewRecorder()
		CartAdd(svc, nil).ServeHTTP(resp, authed(httptest.NewRequest(http.MethodPost, "/", strings.NewReader(raw))))
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 got %d", raw, resp.Code)
		}
	}
	if len(svc.calls) != 0 {
		t.Fatalf("service must not be called, got %v", svc.calls)
	}
}
