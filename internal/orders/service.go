// Package orders serves the order history and order detail screens.
package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-bff/pkg/backend"
	"github.com/angelmondragon/storefront-bff/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-bff/pkg/errors"
	"github.com/angelmondragon/storefront-bff/pkg/money"
)

type orderSource interface {
	ListOrders(ctx context.Context, caller backend.Caller, status string) ([]backend.Order, error)
	GetOrder(ctx context.Context, caller backend.Caller, orderID string) (*backend.Order, error)
}

type shopNamer interface {
	Names(ctx context.Context, caller backend.Caller, shopIDs []string) map[string]string
}

// Totals are derived from an order's shop groups.
type Totals struct {
	Quantity       int    `json:"quantity"`
	ProductCount   int    `json:"productCount"`
	TotalPrice     int64  `json:"totalPrice"`
	FormattedTotal string `json:"formattedTotal"`
}

type Item struct {
	ProductID string                 `json:"productId"`
	Name      string                 `json:"name"`
	Thumb     string                 `json:"thumb,omitempty"`
	SKUID     string                 `json:"skuId,omitempty"`
	Price     int64                  `json:"price"`
	Quantity  int                    `json:"quantity"`
	Variants  []backend.VariantValue `json:"variants,omitempty"`
}

type Shop struct {
	ShopID   string `json:"shopId"`
	ShopName string `json:"shopName,omitempty"`
	PriceRaw int64  `json:"priceRaw"`
	Price    int64  `json:"price"`
	Items    []Item `json:"items"`
}

// Order is an order as the history and detail screens render it.
type Order struct {
	ID             string            `json:"id"`
	Status         enums.OrderStatus `json:"status"`
	Payment        string            `json:"payment"`
	TrackingNumber string            `json:"trackingNumber,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	Shipping       *backend.Address  `json:"shipping,omitempty"`
	Checkout       Checkout          `json:"checkout"`
	Shops          []Shop            `json:"shops"`
	Totals         Totals            `json:"totals"`
}

type Checkout struct {
	TotalPrice    int64 `json:"totalPrice"`
	TotalDiscount int64 `json:"totalDiscount"`
	FeeShip       int64 `json:"feeShip"`
	TotalCheckout int64 `json:"totalCheckout"`
}

type Service interface {
	List(ctx context.Context, caller backend.Caller, status string) ([]Order, error)
	Detail(ctx context.Context, caller backend.Caller, orderID string) (*Order, error)
}

type service struct {
	orders orderSource
	shops  shopNamer
}

func NewService(orders orderSource, shops shopNamer) (Service, error) {
	if orders == nil {
		return nil, fmt.Errorf("order source required")
	}
	if shops == nil {
		return nil, fmt.Errorf("shop namer required")
	}
	return &service{orders: orders, shops: shops}, nil
}

// List returns the caller's orders. An empty status lists every order.
func (s *service) List(ctx context.Context, caller backend.Caller, status string) ([]Order, error) {
	status = strings.TrimSpace(status)
	if status != "" {
		if _, err := enums.ParseOrderStatus(status); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status")
		}
	}
	raw, err := s.orders.ListOrders(ctx, caller, status)
	if err != nil {
		return nil, err
	}
	out := make([]Order, 0, len(raw))
	for i := range raw {
		out = append(out, fromBackend(&raw[i], nil))
	}
	return out, nil
}

// Detail returns one order with shop names resolved.
func (s *service) Detail(ctx context.Context, caller backend.Caller, orderID string) (*Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	raw, err := s.orders.GetOrder(ctx, caller, orderID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(raw.Products))
	for _, shop := range raw.Products {
		ids = append(ids, shop.ShopID)
	}
	order := fromBackend(raw, s.shops.Names(ctx, caller, ids))
	return &order, nil
}

func fromBackend(o *backend.Order, names map[string]string) Order {
	order := Order{
		ID:             o.ID,
		Status:         enums.OrderStatus(o.Status),
		Payment:        o.Payment,
		TrackingNumber: o.TrackingNumber,
		CreatedAt:      o.CreatedAt,
		Shipping:       o.Shipping,
		Checkout: Checkout{
			TotalPrice:    o.Checkout.TotalPrice.Int64(),
			TotalDiscount: o.Checkout.TotalDiscount.Int64(),
			FeeShip:       o.Checkout.FeeShip.Int64(),
			TotalCheckout: o.Checkout.TotalCheckout.Int64(),
		},
		Shops: make([]Shop, 0, len(o.Products)),
	}
	for _, group := range o.Products {
		shop := Shop{
			ShopID:   group.ShopID,
			ShopName: names[group.ShopID],
			PriceRaw: group.PriceRaw.Int64(),
			Price:    group.PriceApplyDiscount.Int64(),
			Items:    make([]Item, 0, len(group.ItemProducts)),
		}
		for _, it := range group.ItemProducts {
			shop.Items = append(shop.Items, Item{
				ProductID: it.ProductID,
				Name:      it.Name,
				Thumb:     it.Thumb,
				SKUID:     it.SKUID,
				Price:     it.Price.Int64(),
				Quantity:  it.Quantity,
				Variants:  it.Variants,
			})
		}
		order.Shops = append(order.Shops, shop)
	}
	order.Totals = ComputeTotals(order.Shops)
	return order
}

// ComputeTotals sums quantities and line counts over every shop group. The
// price is the per-shop price after discounts.
func ComputeTotals(shops []Shop) Totals {
	var t Totals
	for _, shop := range shops {
		t.ProductCount += len(shop.Items)
		t.TotalPrice += shop.Price
		for _, it := range shop.Items {
			t.Quantity += it.Quantity
		}
	}
	t.FormattedTotal = money.FormatVND(t.TotalPrice)
	return t
}
