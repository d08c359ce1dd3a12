// Package receipts keeps a local audit of orders placed through the storefront
// and serves them to the order-success screen.
package receipts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-bff/pkg/db/models"
	"github.com/angelmondragon/storefront-bff/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-bff/pkg/errors"
	"github.com/angelmondragon/storefront-bff/pkg/money"
	"github.com/angelmondragon/storefront-bff/pkg/pagination"
	"gorm.io/gorm"
)

// Receipt is the client-facing view of a checkout receipt.
type Receipt struct {
	OrderID        string              `json:"orderId"`
	ShopCount      int                 `json:"shopCount"`
	ItemCount      int                 `json:"itemCount"`
	TotalPrice     int64               `json:"totalPrice"`
	FormattedTotal string              `json:"formattedTotal"`
	PaymentMethod  enums.PaymentMethod `json:"paymentMethod"`
	CreatedAt      time.Time           `json:"createdAt"`
}

// Page is one page of receipts, newest first.
type Page struct {
	Receipts   []Receipt `json:"receipts"`
	NextCursor string    `json:"nextCursor,omitempty"`
}

// RecordInput describes an order that was just accepted by the backend.
type RecordInput struct {
	OrderID       string
	UserID        string
	ShopCount     int
	ItemCount     int
	TotalPrice    int64
	PaymentMethod enums.PaymentMethod
}

type Service interface {
	Record(ctx context.Context, input RecordInput) (*Receipt, error)
	Get(ctx context.Context, userID, orderID string) (*Receipt, error)
	List(ctx context.Context, userID string, params pagination.Params) (*Page, error)
}

type repository interface {
	Create(ctx context.Context, receipt *models.CheckoutReceipt) error
	FindByOrder(ctx context.Context, userID, orderID string) (*models.CheckoutReceipt, error)
	ListByUser(ctx context.Context, userID string, cursor *pagination.Cursor, limit int) ([]models.CheckoutReceipt, error)
}

type service struct {
	repo repository
	now  func() time.Time
}

func NewService(repo repository, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("receipt repository required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, now: now}, nil
}

// Record stores the receipt. Recording the same order twice returns the
// stored receipt.
func (s *service) Record(ctx context.Context, input RecordInput) (*Receipt, error) {
	orderID := strings.TrimSpace(input.OrderID)
	userID := strings.TrimSpace(input.UserID)
	switch {
	case orderID == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	case userID == "":
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	case input.ShopCount <= 0 || input.ItemCount <= 0:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "receipt needs at least one item")
	case input.TotalPrice < 0:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total price cannot be negative")
	case !input.PaymentMethod.IsValid():
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	}

	row := &models.CheckoutReceipt{
		OrderID:       orderID,
		UserID:        userID,
		ShopCount:     input.ShopCount,
		ItemCount:     input.ItemCount,
		TotalPrice:    input.TotalPrice,
		PaymentMethod: string(input.PaymentMethod),
		CreatedAt:     s.now().UTC(),
	}
	if err := s.repo.Create(ctx, row); err != nil {
		if errors.Is(err, ErrDuplicateOrder) {
			return s.Get(ctx, userID, orderID)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record checkout receipt")
	}
	return toReceipt(row), nil
}

func (s *service) Get(ctx context.Context, userID, orderID string) (*Receipt, error) {
	row, err := s.repo.FindByOrder(ctx, userID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "receipt not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout receipt")
	}
	return toReceipt(row), nil
}

func (s *service) List(ctx context.Context, userID string, params pagination.Params) (*Page, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListByUser(ctx, userID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list checkout receipts")
	}
	rows, next := pagination.Trim(rows, params.Limit, func(row models.CheckoutReceipt) pagination.Cursor {
		return pagination.Cursor{CreatedAt: row.CreatedAt, ID: row.ID}
	})
	out := make([]Receipt, 0, len(rows))
	for i := range rows {
		out = append(out, *toReceipt(&rows[i]))
	}
	return &Page{Receipts: out, NextCursor: next}, nil
}

func toReceipt(row *models.CheckoutReceipt) *Receipt {
	return &Receipt{
		OrderID:        row.OrderID,
		ShopCount:      row.ShopCount,
		ItemCount:      row.ItemCount,
		TotalPrice:     row.TotalPrice,
		FormattedTotal: money.FormatVND(row.TotalPrice),
		PaymentMethod:  enums.PaymentMethod(row.PaymentMethod),
		CreatedAt:      row.CreatedAt.UTC(),
	}
}
