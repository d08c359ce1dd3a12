package backend

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/storefront-bff/pkg/errors"
	"github.com/angelmondragon/storefront-bff/pkg/money"
)

type PersonalDetail struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type ShippingAddress struct {
	ProvinceCity string `json:"province_city"`
	District     string `json:"district"`
	Ward         string `json:"ward"`
	Street       string `json:"street"`
}

// Address is a delivery destination as the backend stores it.
type Address struct {
	PersonalDetail  PersonalDetail  `json:"personal_detail"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	IsDefault       bool            `json:"is_default"`
}

type OrderItemInput struct {
	ProductID string `json:"productId"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	SKUID     string `json:"sku_id,omitempty"`
}

type ShopOrderInput struct {
	ShopID        string           `json:"shopId"`
	ShopDiscounts []string         `json:"shop_discounts"`
	ItemProducts  []OrderItemInput `json:"item_products"`
}

// PlaceOrderRequest is the checkout payload.
type PlaceOrderRequest struct {
	CartID       string           `json:"cartId"`
	ShopOrderIDs []ShopOrderInput `json:"shop_order_ids"`
	DeliveryInfo Address          `json:"delivery_info"`
	UserPayment  string           `json:"user_payment"`
}

type VariantValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type OrderItem struct {
	ProductID string         `json:"productId"`
	Name      string         `json:"name"`
	Thumb     string         `json:"product_thumb"`
	Price     money.Amount   `json:"price"`
	Quantity  int            `json:"quantity"`
	SKUID     string         `json:"sku_id,omitempty"`
	Variants  []VariantValue `json:"variants,omitempty"`
}

type OrderShop struct {
	ShopID             string       `json:"shopId"`
	ShopDiscounts      []any        `json:"shop_discounts,omitempty"`
	PriceRaw           money.Amount `json:"priceRaw"`
	PriceApplyDiscount money.Amount `json:"priceApplyDiscount"`
	ItemProducts       []OrderItem  `json:"item_products"`
}

type OrderCheckout struct {
	TotalPrice    money.Amount `json:"totalPrice"`
	TotalDiscount money.Amount `json:"totalDiscount"`
	FeeShip       money.Amount `json:"feeShip"`
	TotalCheckout money.Amount `json:"totalCheckout"`
}

type Order struct {
	ID             string        `json:"_id"`
	UserID         string        `json:"order_userId"`
	Status         string        `json:"order_status"`
	Payment        string        `json:"order_payment"`
	TrackingNumber string        `json:"order_trackingNumber"`
	Shipping       *Address      `json:"order_shipping,omitempty"`
	Checkout       OrderCheckout `json:"order_checkout"`
	Products       []OrderShop   `json:"order_products"`
	CreatedAt      time.Time     `json:"order_createdAt"`
}

// PlaceOrder submits the checkout and returns the created order.
func (c *Client) PlaceOrder(ctx context.Context, caller Caller, req PlaceOrderRequest) (*Order, error) {
	if len(req.ShopOrderIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one shop order is required")
	}
	var order Order
	if err := c.do(ctx, call{
		endpoint: "orders.place",
		method:   http.MethodPost,
		path:     "/api/v1/orders",
		body:     req,
		caller:   caller,
	}, &order); err != nil {
		return nil, err
	}
	if strings.TrimSpace(order.ID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "order placed without an order id")
	}
	return &order, nil
}

// ListOrders returns the caller's orders, optionally filtered by status.
func (c *Client) ListOrders(ctx context.Context, caller Caller, status string) ([]Order, error) {
	query := url.Values{}
	if s := strings.TrimSpace(status); s != "" {
		query.Set("status", s)
	}
	var orders []Order
	if err := c.do(ctx, call{
		endpoint: "orders.list",
		method:   http.MethodGet,
		path:     "/api/v1/orders",
		query:    query,
		caller:   caller,
		optional: true,
	}, &orders); err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []Order{}
	}
	return orders, nil
}

// GetOrder fetches one order.
func (c *Client) GetOrder(ctx context.Context, caller Caller, orderID string) (*Order, error) {
	id := strings.TrimSpace(orderID)
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	var order Order
	if err := c.do(ctx, call{
		endpoint: "orders.get",
		method:   http.MethodGet,
		path:     "/api/v1/orders/" + url.PathEscape(id),
		caller:   caller,
	}, &order); err != nil {
		return nil, err
	}
	return &order, nil
}
