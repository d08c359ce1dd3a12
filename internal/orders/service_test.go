package orders

import (
	"context"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-bff/pkg/backend"
	"github.com/angelmondragon/storefront-bff/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-bff/pkg/errors"
	"github.com/angelmondragon/storefront-bff/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOrders struct {
	orders     []backend.Order
	lastStatus string
	err        error
}

func (s *stubOrders) ListOrders(ctx context.Context, caller backend.Caller, status string) ([]backend.Order, error) {
	s.lastStatus = status
	return s.orders, s.err
}

func (s *stubOrders) GetOrder(ctx context.Context, caller backend.Caller, orderID string) (*backend.Order, error) {
	for i := range s.orders {
		if s.orders[i].ID == orderID {
			return &s.orders[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeUpstreamRejected, "order not found")
}

type stubNames map[string]string

func (n stubNames) Names(ctx context.Context, caller backend.Caller, shopIDs []string) map[string]string {
	out := map[string]string{}
	for _, id := range shopIDs {
		if name, ok := n[id]; ok {
			out[id] = name
		} else {
			out[id] = "Shop"
		}
	}
	return out
}

func sampleOrder() backend.Order {
	return backend.Order{
		ID:        "order-1",
		Status:    "pending",
		Payment:   "COD",
		CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Products: []backend.OrderShop{
			{
				ShopID:             "shop-a",
				PriceRaw:           money.Amount(300_000),
				PriceApplyDiscount: money.Amount(250_000),
				ItemProducts: []backend.OrderItem{
					{ProductID: "p1", Name: "Mug", Price: money.Amount(100_000), Quantity: 1},
					{ProductID: "p2", Name: "Shirt", Price: money.Amount(100_000), Quantity: 2, SKUID: "s1"},
				},
			},
			{
				ShopID:             "shop-b",
				PriceRaw:           money.Amount(900_000),
				PriceApplyDiscount: money.Amount(900_000),
				ItemProducts: []backend.OrderItem{
					{ProductID: "p3", Name: "Lamp", Price: money.Amount(900_000), Quantity: 1},
				},
			},
		},
	}
}

func TestListDerivesTotals(t *testing.T) {
	source := &stubOrders{orders: []backend.Order{sampleOrder()}}
	svc, err := NewService(source, stubNames{})
	require.NoError(t, err)

	orders, err := svc.List(context.Background(), backend.Caller{UserID: "u"}, "pending")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "pending", source.lastStatus)

	totals := orders[0].Totals
	assert.Equal(t, 4, totals.Quantity)
	assert.Equal(t, 3, totals.ProductCount)
	assert.Equal(t, int64(1_150_000), totals.TotalPrice)
	assert.Equal(t, "1.150.000 đ", totals.FormattedTotal)
	assert.Equal(t, enums.OrderStatusPending, orders[0].Status)
	assert.Empty(t, orders[0].Shops[0].ShopName)
}

func TestListRejectsUnknownStatus(t *testing.T) {
	source := &stubOrders{}
	svc, err := NewService(source, stubNames{})
	require.NoError(t, err)

	_, err = svc.List(context.Background(), backend.Caller{}, "lost")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))

	orders, err := svc.List(context.Background(), backend.Caller{}, "")
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Empty(t, source.lastStatus)
}

func TestDetailResolvesShopNames(t *testing.T) {
	svc, err := NewService(&stubOrders{orders: []backend.Order{sampleOrder()}}, stubNames{"shop-a": "Alpha"})
	require.NoError(t, err)

	order, err := svc.Detail(context.Background(), backend.Caller{}, "order-1")
	require.NoError(t, err)
	require.Len(t, order.Shops, 2)
	assert.Equal(t, "Alpha", order.Shops[0].ShopName)
	assert.Equal(t, "Shop", order.Shops[1].ShopName)
	assert.Equal(t, int64(250_000), order.Shops[0].Price)

	_, err = svc.Detail(context.Background(), backend.Caller{}, "missing")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUpstreamRejected))

	_, err = svc.Detail(context.Background(), backend.Caller{}, " ")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}
