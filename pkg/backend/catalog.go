package backend

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-bff/pkg/errors"
	"github.com/angelmondragon/storefront-bff/pkg/money"
)

type Shop struct {
	ID   string `json:"_id"`
	Name string `json:"shop_name"`
	Logo string `json:"shop_logo,omitempty"`
}

type Variation struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

type SKU struct {
	ID        string       `json:"_id"`
	TierIndex []int        `json:"sku_tier_idx"`
	Price     money.Amount `json:"sku_price"`
	Stock     int          `json:"sku_stock"`
	Image     string       `json:"sku_image,omitempty"`
	ProductID string       `json:"product_id,omitempty"`
}

type Product struct {
	ID         string       `json:"_id"`
	Name       string       `json:"product_name"`
	Thumb      string       `json:"product_thumb"`
	Price      money.Amount `json:"product_price"`
	Quantity   int          `json:"product_quantity"`
	ShopID     string       `json:"product_shop"`
	Variations []Variation  `json:"product_variations"`
	SKUs       []SKU        `json:"skus"`
}

// Account is the authenticated shopper's profile.
type Account struct {
	ID      string   `json:"_id"`
	Email   string   `json:"email"`
	Name    string   `json:"name"`
	Phone   string   `json:"phone"`
	Address *Address `json:"address,omitempty"`
}

// GetShop fetches a shop's display data.
func (c *Client) GetShop(ctx context.Context, caller Caller, shopID string) (*Shop, error) {
	id := strings.TrimSpace(shopID)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop id is required")
	}
	var shop Shop
	if err := c.do(ctx, call{
		endpoint: "shops.get",
		method:   http.MethodGet,
		path:     "/api/v1/shops/" + url.PathEscape(id),
		caller:   caller,
	}, &shop); err != nil {
		return nil, err
	}
	return &shop, nil
}

// GetProduct fetches product detail including variations and SKUs.
func (c *Client) GetProduct(ctx context.Context, caller Caller, productID string) (*Product, error) {
	id := strings.TrimSpace(productID)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	var product Product
	if err := c.do(ctx, call{
		endpoint: "products.get",
		method:   http.MethodGet,
		path:     "/api/v1/products/" + url.PathEscape(id),
		caller:   caller,
	}, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// Me returns the caller's account. A 400 from this endpoint means the account
// still needs verification.
func (c *Client) Me(ctx context.Context, caller Caller) (*Account, error) {
	var payload struct {
		User Account `json:"user"`
	}
	if err := c.do(ctx, call{
		endpoint: "users.me",
		method:   http.MethodGet,
		path:     "/api/v1/users/me",
		caller:   caller,
		account:  true,
	}, &payload); err != nil {
		return nil, err
	}
	return &payload.User, nil
}
