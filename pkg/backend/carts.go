package backend

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-bff/pkg/errors"
	"github.com/angelmondragon/storefront-bff/pkg/money"
)

// CartItem is one row of the backend cart.
type CartItem struct {
	ProductID string       `json:"product_id"`
	ShopID    string       `json:"shopId"`
	Quantity  int          `json:"product_quantity"`
	Name      string       `json:"name"`
	Price     money.Amount `json:"product_price"`
	Thumb     string       `json:"product_thumb,omitempty"`
	Options   string       `json:"product_options,omitempty"`
	SKUID     string       `json:"sku_id,omitempty"`
}

// Cart is the backend cart snapshot.
type Cart struct {
	ID           string       `json:"_id"`
	Status       string       `json:"cart_status"`
	UserID       string       `json:"cart_userId"`
	CountProduct int          `json:"cart_count_product"`
	TotalPrice   money.Amount `json:"cart_total_price"`
	Products     []CartItem   `json:"cart_products"`
}

// AddCartItemRequest puts a product, or one SKU of it, into the cart.
type AddCartItemRequest struct {
	ProductID      string       `json:"product_id"`
	ShopID         string       `json:"shopId"`
	Quantity       int          `json:"product_quantity"`
	Name           string       `json:"name"`
	Price          money.Amount `json:"product_price"`
	SKUID          string       `json:"sku_id,omitempty"`
	ProductOptions string       `json:"product_options,omitempty"`
}

// UpdateCartItemRequest changes the quantity and optionally the SKU of a row.
type UpdateCartItemRequest struct {
	ProductID      string `json:"productId"`
	ShopID         string `json:"shopId"`
	Quantity       int    `json:"quantity"`
	OldQuantity    int    `json:"old_quantity"`
	SKUID          string `json:"sku_id,omitempty"`
	OldSKUID       string `json:"old_sku_id,omitempty"`
	ProductOptions string `json:"product_options,omitempty"`
}

// DeleteCartItemRequest identifies the row to remove.
type DeleteCartItemRequest struct {
	ProductID string `json:"productId"`
	SKUID     string `json:"sku_id,omitempty"`
}

// FetchCart returns the caller's cart.
func (c *Client) FetchCart(ctx context.Context, caller Caller) (*Cart, error) {
	userID := strings.TrimSpace(caller.UserID)
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	var cart Cart
	err := c.do(ctx, call{
		endpoint: "carts.fetch",
		method:   http.MethodGet,
		path:     "/api/v1/carts",
		query:    url.Values{"userId": []string{userID}},
		caller:   caller,
	}, &cart)
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// AddCartItem posts a new row and returns the resulting snapshot.
func (c *Client) AddCartItem(ctx context.Context, caller Caller, req AddCartItemRequest) (*Cart, error) {
	if strings.TrimSpace(req.ProductID) == "" || strings.TrimSpace(req.ShopID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id and shop id are required")
	}
	if req.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	payload := struct {
		Product AddCartItemRequest `json:"product"`
	}{Product: req}
	var cart Cart
	err := c.do(ctx, call{
		endpoint: "carts.add",
		method:   http.MethodPost,
		path:     "/api/v1/carts",
		body:     payload,
		caller:   caller,
	}, &cart)
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// UpdateCartItem sends a quantity or SKU change and returns the new snapshot.
func (c *Client) UpdateCartItem(ctx context.Context, caller Caller, req UpdateCartItemRequest) (*Cart, error) {
	if strings.TrimSpace(req.ProductID) == "" || strings.TrimSpace(req.ShopID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id and shop id are required")
	}
	var cart Cart
	err := c.do(ctx, call{
		endpoint: "carts.update",
		method:   http.MethodPatch,
		path:     "/api/v1/carts",
		body:     req,
		caller:   caller,
	}, &cart)
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// DeleteCartItem removes a row. The returned snapshot is nil when the
// backend acknowledges without one.
func (c *Client) DeleteCartItem(ctx context.Context, caller Caller, req DeleteCartItemRequest) (*Cart, error) {
	if strings.TrimSpace(req.ProductID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	var cart *Cart
	err := c.do(ctx, call{
		endpoint: "carts.delete",
		method:   http.MethodDelete,
		path:     "/api/v1/carts",
		body:     req,
		caller:   caller,
		optional: true,
	}, &cart)
	if err != nil {
		return nil, err
	}
	return cart, nil
}
