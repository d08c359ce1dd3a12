package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	pkgerrors "github.com/angelmondragon/storefront-bff/pkg/errors"
	"github.com/angelmondragon/storefront-bff/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func newTestClient(t *testing.T, rt roundTripFunc) *Client {
	t.Helper()
	client, err := NewClient("http://backend.test/", WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client
}

var caller = Caller{UserID: "user-1", Token: "tok-123", RequestID: "req-42"}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient("  "); !errors.Is(err, errBaseURLRequired) {
		t.Fatalf("expected errBaseURLRequired, got %v", err)
	}
}

func TestFetchCartForwardsTokenAndDecodes(t *testing.T) {
	var capturedURL, capturedAuth, capturedReqID string
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		capturedAuth = req.Header.Get("Authorization")
		capturedReqID = req.Header.Get("X-Request-Id")
		return jsonResponse(http.StatusOK, `{
			"statusCode": 200,
			"message": "ok",
			"result": {
				"_id": "cart-1",
				"cart_userId": "user-1",
				"cart_products": [
					{"product_id": "p1", "shopId": "s1", "product_quantity": 2, "name": "Shirt", "product_price": "120000", "sku_id": "k1", "product_options": "Size: M"},
					{"product_id": "p2", "shopId": "s2", "product_quantity": 1, "name": "Mug", "product_price": 45000}
				]
			}
		}`), nil
	})

	cart, err := client.FetchCart(context.Background(), caller)
	if err != nil {
		t.Fatalf("fetch cart: %v", err)
	}
	if capturedURL != "http://backend.test/api/v1/carts?userId=user-1" {
		t.Fatalf("unexpected url %q", capturedURL)
	}
	if capturedAuth != "Bearer tok-123" {
		t.Fatalf("unexpected auth header %q", capturedAuth)
	}
	if capturedReqID != "req-42" {
		t.Fatalf("expected request id to be forwarded, got %q", capturedReqID)
	}
	if len(cart.Products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(cart.Products))
	}
	first := cart.Products[0]
	if first.Price.Int64() != 120000 || first.SKUID != "k1" || first.Options != "Size: M" {
		t.Fatalf("unexpected first product %+v", first)
	}
}

func TestUpdateCartItemSendsPatchBody(t *testing.T) {
	var payload map[string]any
	var method string
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		method = req.Method
		raw, _ := io.ReadAll(req.Body)
		if err := json.Unmarshal(raw, &payload); err != nil {
			t.Fatalf("unmarshal body: %v", err)
		}
		return jsonResponse(http.StatusOK, `{"statusCode":200,"message":"updated","result":{"_id":"cart-1","cart_products":[]}}`), nil
	})

	_, err := client.UpdateCartItem(context.Background(), caller, UpdateCartItemRequest{
		ProductID:      "p1",
		ShopID:         "s1",
		Quantity:       3,
		OldQuantity:    2,
		SKUID:          "k2",
		OldSKUID:       "k1",
		ProductOptions: "Size: L",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if method != http.MethodPatch {
		t.Fatalf("expected PATCH, got %s", method)
	}
	if payload["productId"] != "p1" || payload["old_quantity"] != float64(2) || payload["sku_id"] != "k2" || payload["product_options"] != "Size: L" {
		t.Fatalf("unexpected payload %v", payload)
	}
}

func TestDeleteCartItemToleratesMissingResult(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.Method != http.MethodDelete {
			t.Fatalf("expected DELETE, got %s", req.Method)
		}
		return jsonResponse(http.StatusOK, `{"statusCode":200,"message":""}`), nil
	})
	cart, err := client.DeleteCartItem(context.Background(), caller, DeleteCartItemRequest{ProductID: "p1"})
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if cart != nil {
		t.Fatalf("expected nil snapshot, got %+v", cart)
	}
}

func TestLogicalFailureMapsToUpstreamRejected(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadRequest, `{"statusCode":400,"message":["quantity exceeds stock","try again"],"error":"Bad Request"}`), nil
	})
	_, err := client.UpdateCartItem(context.Background(), caller, UpdateCartItemRequest{ProductID: "p1", ShopID: "s1", Quantity: 9})
	if !pkgerrors.HasCode(err, pkgerrors.CodeUpstreamRejected) {
		t.Fatalf("expected upstream rejected, got %v", err)
	}
	if msg := pkgerrors.As(err).Message(); msg != "quantity exceeds stock; try again" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestLogicalFailureWithHTTP200(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"statusCode":"404","message":"shop not found"}`), nil
	})
	_, err := client.GetShop(context.Background(), caller, "s1")
	if !pkgerrors.HasCode(err, pkgerrors.CodeUpstreamRejected) {
		t.Fatalf("expected upstream rejected, got %v", err)
	}
}

func TestTransportFailureMapsToDependency(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})
	_, err := client.FetchCart(context.Background(), caller)
	if !pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestNonEnvelopeResponseMapsToDependency(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadGateway, `<html>bad gateway</html>`), nil
	})
	_, err := client.GetProduct(context.Background(), caller, "p1")
	if !pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestAccountEndpointBadRequestMapsToUnverified(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.Path != "/api/v1/users/me" {
			t.Fatalf("unexpected path %s", req.URL.Path)
		}
		return jsonResponse(http.StatusBadRequest, `{"statusCode":400,"message":"account is not active"}`), nil
	})
	_, err := client.Me(context.Background(), caller)
	if !pkgerrors.HasCode(err, pkgerrors.CodeAccountUnverified) {
		t.Fatalf("expected account unverified, got %v", err)
	}
}

func TestUnauthorizedMapsToUnauthorized(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusUnauthorized, `{"statusCode":401,"message":"Unauthorized"}`), nil
	})
	_, err := client.ListOrders(context.Background(), caller, "pending")
	if !pkgerrors.HasCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestListOrdersFiltersByStatus(t *testing.T) {
	var query string
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		query = req.URL.RawQuery
		return jsonResponse(http.StatusOK, `{"statusCode":200,"message":"","result":[
			{"_id":"o1","order_status":"pending","order_createdAt":"2026-03-01T10:00:00Z","order_products":[
				{"shopId":"s1","priceApplyDiscount":240000,"item_products":[{"productId":"p1","price":120000,"quantity":2}]}
			]}
		]}`), nil
	})
	orders, err := client.ListOrders(context.Background(), caller, "pending")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if query != "status=pending" {
		t.Fatalf("unexpected query %q", query)
	}
	if len(orders) != 1 || orders[0].Products[0].PriceApplyDiscount.Int64() != 240000 {
		t.Fatalf("unexpected orders %+v", orders)
	}
}

func TestListOrdersEmptyResult(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"statusCode":200,"message":""}`), nil
	})
	orders, err := client.ListOrders(context.Background(), caller, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if orders == nil || len(orders) != 0 {
		t.Fatalf("expected empty slice, got %v", orders)
	}
}

func TestPlaceOrderRequiresOrderID(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusCreated, `{"statusCode":201,"message":"created","result":{"order_status":"pending"}}`), nil
	})
	_, err := client.PlaceOrder(context.Background(), caller, PlaceOrderRequest{
		ShopOrderIDs: []ShopOrderInput{{ShopID: "s1", ItemProducts: []OrderItemInput{{ProductID: "p1", Price: 1, Quantity: 1}}}},
		UserPayment:  "Cash",
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestMetricsRecordOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewBackendMetrics(reg)
	client, err := NewClient("http://backend.test", WithMetrics(m), WithHTTPClient(&http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"statusCode":200,"message":"","result":{"_id":"s1","shop_name":"Shop One"}}`), nil
	})}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	shop, err := client.GetShop(context.Background(), caller, "s1")
	if err != nil || shop.Name != "Shop One" {
		t.Fatalf("get shop: %v %+v", err, shop)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	found := false
	for _, mf := range mfs {
		if mf.GetName() != "backend_requests_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			labels := map[string]string{}
			for _, pair := range metric.GetLabel() {
				labels[pair.GetName()] = pair.GetValue()
			}
			if labels["endpoint"] == "shops.get" && labels["outcome"] == metrics.OutcomeOK && metric.GetCounter().GetValue() == 1 {
				found = true
			}
		}
	}
	if !found {
		t.Fatal("expected shops.get ok counter")
	}
}

func TestAddCartItemWrapsProduct(t *testing.T) {
	var payload map[string]map[string]any
	var method, path string
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		method = req.Method
		path = req.URL.Path
		raw, _ := io.ReadAll(req.Body)
		if err := json.Unmarshal(raw, &payload); err != nil {
			t.Fatalf("unmarshal body: %v", err)
		}
		return jsonResponse(http.StatusCreated, `{"statusCode":201,"message":"added","result":{"_id":"cart-1","cart_products":[{"product_id":"p1","shopId":"s1","product_quantity":2,"name":"Shirt","product_price":120000,"sku_id":"k2"}]}}`), nil
	})

	cart, err := client.AddCartItem(context.Background(), caller, AddCartItemRequest{
		ProductID:      "p1",
		ShopID:         "s1",
		Quantity:       2,
		Name:           "Shirt",
		Price:          120000,
		SKUID:          "k2",
		ProductOptions: "Size: L",
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if method != http.MethodPost || path != "/api/v1/carts" {
		t.Fatalf("unexpected request %s %s", method, path)
	}
	product := payload["product"]
	if product["product_id"] != "p1" || product["shopId"] != "s1" || product["product_quantity"] != float64(2) ||
		product["product_price"] != float64(120000) || product["sku_id"] != "k2" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if len(cart.Products) != 1 || cart.Products[0].SKUID != "k2" {
		t.Fatalf("unexpected cart %+v", cart)
	}
}

func TestAddCartItemRequiresQuantity(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		t.Fatalf("unexpected request")
		return nil, nil
	})
	_, err := client.AddCartItem(context.Background(), caller, AddCartItemRequest{ProductID: "p1", ShopID: "s1"})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
