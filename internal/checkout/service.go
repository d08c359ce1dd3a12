// Package checkout turns the selected cart rows into an order on the
// commerce backend.
package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-bff/internal/cart"
	"github.com/angelmondragon/storefront-bff/internal/receipts"
	"github.com/angelmondragon/storefront-bff/pkg/backend"
	"github.com/angelmondragon/storefront-bff/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-bff/pkg/errors"
	"github.com/angelmondragon/storefront-bff/pkg/logger"
)

type cartSessions interface {
	Snapshot(ctx context.Context, caller backend.Caller) (*cart.Session, error)
	Discard(ctx context.Context, userID string) error
}

type orderBackend interface {
	Me(ctx context.Context, caller backend.Caller) (*backend.Account, error)
	PlaceOrder(ctx context.Context, caller backend.Caller, req backend.PlaceOrderRequest) (*backend.Order, error)
}

type receiptRecorder interface {
	Record(ctx context.Context, input receipts.RecordInput) (*receipts.Receipt, error)
}

type shopNamer interface {
	Names(ctx context.Context, caller backend.Caller, shopIDs []string) map[string]string
}

// Review is the checkout screen: selected rows by shop, totals and the
// delivery address the order will use unless the shopper picks another.
type Review struct {
	CartID         string                `json:"cartId"`
	Shops          []cart.ShopGroup      `json:"shops"`
	Totals         cart.Totals           `json:"totals"`
	Delivery       *backend.Address      `json:"delivery,omitempty"`
	PaymentMethods []enums.PaymentMethod `json:"paymentMethods"`
}

// PlaceOrderInput is what the shopper confirms on the review screen.
type PlaceOrderInput struct {
	PaymentMethod string              `json:"paymentMethod" validate:"required,paymentmethod"`
	Delivery      *DeliveryInfo       `json:"delivery,omitempty"`
	ShopDiscounts map[string][]string `json:"shopDiscounts,omitempty"`
}

// DeliveryInfo overrides the account's default address.
type DeliveryInfo struct {
	Name         string `json:"name" validate:"required"`
	Phone        string `json:"phone" validate:"required"`
	ProvinceCity string `json:"provinceCity" validate:"required"`
	District     string `json:"district" validate:"required"`
	Ward         string `json:"ward" validate:"required"`
	Street       string `json:"street" validate:"required"`
}

// Result is returned once the backend accepted the order.
type Result struct {
	OrderID string            `json:"orderId"`
	Status  string            `json:"status"`
	Receipt *receipts.Receipt `json:"receipt,omitempty"`
}

type Service interface {
	Review(ctx context.Context, caller backend.Caller) (*Review, error)
	PlaceOrder(ctx context.Context, caller backend.Caller, input PlaceOrderInput) (*Result, error)
}

// ServiceParams names the checkout collaborators.
type ServiceParams struct {
	Cart           cartSessions
	Backend        orderBackend
	Receipts       receiptRecorder
	Shops          shopNamer
	PaymentMethods []string
	Logger         *logger.Logger
}

type service struct {
	cart     cartSessions
	backend  orderBackend
	receipts receiptRecorder
	shops    shopNamer
	methods  []enums.PaymentMethod
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Cart == nil {
		return nil, fmt.Errorf("cart sessions required")
	}
	if params.Backend == nil {
		return nil, fmt.Errorf("order backend required")
	}
	if params.Receipts == nil {
		return nil, fmt.Errorf("receipt recorder required")
	}
	if params.Shops == nil {
		return nil, fmt.Errorf("shop namer required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	methods, err := allowedMethods(params.PaymentMethods)
	if err != nil {
		return nil, err
	}
	return &service{
		cart:     params.Cart,
		backend:  params.Backend,
		receipts: params.Receipts,
		shops:    params.Shops,
		methods:  methods,
		logg:     params.Logger,
	}, nil
}

func allowedMethods(raw []string) ([]enums.PaymentMethod, error) {
	if len(raw) == 0 {
		return []enums.PaymentMethod{enums.PaymentMethodCash, enums.PaymentMethodCOD}, nil
	}
	out := make([]enums.PaymentMethod, 0, len(raw))
	for _, value := range raw {
		method, err := enums.ParsePaymentMethod(value)
		if err != nil {
			return nil, err
		}
		out = append(out, method)
	}
	return out, nil
}

// Review groups the selected rows and looks up the default delivery address.
func (s *service) Review(ctx context.Context, caller backend.Caller) (*Review, error) {
	session, err := s.cart.Snapshot(ctx, caller)
	if err != nil {
		return nil, err
	}
	account, err := s.backend.Me(ctx, caller)
	if err != nil {
		return nil, err
	}
	selected := selectedSession(session)
	groups := cart.GroupByShop(selected.Items, selected.Selected, s.shops.Names(ctx, caller, selected.ShopIDs()))
	return &Review{
		CartID:         session.CartID,
		Shops:          groups,
		Totals:         cart.ComputeTotals(groups),
		Delivery:       account.Address,
		PaymentMethods: append([]enums.PaymentMethod(nil), s.methods...),
	}, nil
}

// PlaceOrder submits the selected rows. Nothing is retried: a failed call
// leaves the session as it was.
func (s *service) PlaceOrder(ctx context.Context, caller backend.Caller, input PlaceOrderInput) (*Result, error) {
	method, err := s.paymentMethod(input.PaymentMethod)
	if err != nil {
		return nil, err
	}
	session, err := s.cart.Snapshot(ctx, caller)
	if err != nil {
		return nil, err
	}
	selected := selectedSession(session)
	if selected.Empty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "select at least one item to check out")
	}

	delivery, err := s.delivery(ctx, caller, input.Delivery)
	if err != nil {
		return nil, err
	}

	groups := cart.GroupByShop(selected.Items, selected.Selected, nil)
	totals := cart.ComputeTotals(groups)
	req := backend.PlaceOrderRequest{
		CartID:       session.CartID,
		ShopOrderIDs: buildShopOrders(groups, input.ShopDiscounts),
		DeliveryInfo: *delivery,
		UserPayment:  string(method),
	}

	ctx = s.logg.WithUserID(ctx, caller.UserID)
	order, err := s.backend.PlaceOrder(ctx, caller, req)
	if err != nil {
		return nil, err
	}
	ctx = s.logg.WithField(ctx, "order_id", order.ID)

	result := &Result{OrderID: order.ID, Status: order.Status}
	receipt, err := s.receipts.Record(ctx, receipts.RecordInput{
		OrderID:       order.ID,
		UserID:        caller.UserID,
		ShopCount:     len(groups),
		ItemCount:     totals.ItemCount,
		TotalPrice:    totals.TotalPrice,
		PaymentMethod: method,
	})
	if err != nil {
		// The order exists upstream; a missing receipt must not fail checkout.
		s.logg.Error(ctx, "record checkout receipt", err)
	} else {
		result.Receipt = receipt
	}

	if err := s.cart.Discard(ctx, caller.UserID); err != nil {
		s.logg.Error(ctx, "discard cart session after checkout", err)
	}
	s.logg.Info(ctx, "order placed")
	return result, nil
}

func (s *service) paymentMethod(raw string) (enums.PaymentMethod, error) {
	method, err := enums.ParsePaymentMethod(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}
	for _, allowed := range s.methods {
		if allowed == method {
			return method, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeValidation, "payment method not accepted").
		WithDetails(map[string]any{"paymentMethod": string(method)})
}

// delivery returns the override when given, else the account's default address.
func (s *service) delivery(ctx context.Context, caller backend.Caller, override *DeliveryInfo) (*backend.Address, error) {
	if override != nil {
		addr := override.toBackend()
		if err := validateAddress(addr); err != nil {
			return nil, err
		}
		return &addr, nil
	}
	account, err := s.backend.Me(ctx, caller)
	if err != nil {
		return nil, err
	}
	if account.Address == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "delivery address is required")
	}
	if err := validateAddress(*account.Address); err != nil {
		return nil, err
	}
	return account.Address, nil
}

func (d DeliveryInfo) toBackend() backend.Address {
	return backend.Address{
		PersonalDetail: backend.PersonalDetail{
			Name:  strings.TrimSpace(d.Name),
			Phone: strings.TrimSpace(d.Phone),
		},
		ShippingAddress: backend.ShippingAddress{
			ProvinceCity: strings.TrimSpace(d.ProvinceCity),
			District:     strings.TrimSpace(d.District),
			Ward:         strings.TrimSpace(d.Ward),
			Street:       strings.TrimSpace(d.Street),
		},
	}
}

func validateAddress(addr backend.Address) error {
	missing := make([]string, 0)
	check := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	check("name", addr.PersonalDetail.Name)
	check("phone", addr.PersonalDetail.Phone)
	check("provinceCity", addr.ShippingAddress.ProvinceCity)
	check("district", addr.ShippingAddress.District)
	check("ward", addr.ShippingAddress.Ward)
	check("street", addr.ShippingAddress.Street)
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "delivery address is incomplete").
			WithDetails(map[string]any{"missing": missing})
	}
	return nil
}

// selectedSession is a copy of session holding only selected rows.
func selectedSession(session *cart.Session) *cart.Session {
	items := session.SelectedItems()
	selected := make(map[string]bool, len(items))
	for _, it := range items {
		selected[it.Key()] = true
	}
	return &cart.Session{
		UserID:   session.UserID,
		CartID:   session.CartID,
		Items:    items,
		Selected: selected,
		LoadedAt: session.LoadedAt,
	}
}

func buildShopOrders(groups []cart.ShopGroup, discounts map[string][]string) []backend.ShopOrderInput {
	out := make([]backend.ShopOrderInput, 0, len(groups))
	for _, group := range groups {
		shopDiscounts := discounts[group.ShopID]
		if shopDiscounts == nil {
			shopDiscounts = []string{}
		}
		order := backend.ShopOrderInput{
			ShopID:        group.ShopID,
			ShopDiscounts: shopDiscounts,
			ItemProducts:  make([]backend.OrderItemInput, 0, len(group.Items)),
		}
		for _, it := range group.Items {
			order.ItemProducts = append(order.ItemProducts, backend.OrderItemInput{
				ProductID: it.ProductID,
				Price:     it.UnitPrice,
				Quantity:  it.Quantity,
				SKUID:     it.SKUID,
			})
		}
		out = append(out, order)
	}
	return out
}
