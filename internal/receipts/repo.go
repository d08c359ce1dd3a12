package receipts

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/storefront-bff/internal/repo"
	"github.com/angelmondragon/storefront-bff/pkg/db/models"
	"github.com/angelmondragon/storefront-bff/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const orderIDConstraint = "checkout_receipts_order_id_key"

// ErrDuplicateOrder is returned when a receipt for the order already exists.
var ErrDuplicateOrder = errors.New("receipt already recorded for order")

// Repository persists checkout receipts.
type Repository struct {
	repo.Base
}

func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(conn)}
}

// Create inserts the receipt, assigning an id when missing.
func (r *Repository) Create(ctx context.Context, receipt *models.CheckoutReceipt) error {
	if receipt.ID == uuid.Nil {
		receipt.ID = uuid.New()
	}
	err := r.Insert(ctx, receipt, orderIDConstraint)
	if errors.Is(err, repo.ErrDuplicate) {
		return ErrDuplicateOrder
	}
	return err
}

// FindByOrder returns the receipt for orderID owned by userID.
func (r *Repository) FindByOrder(ctx context.Context, userID, orderID string) (*models.CheckoutReceipt, error) {
	var receipt models.CheckoutReceipt
	err := r.DB(ctx).
		Where("user_id = ? AND order_id = ?", strings.TrimSpace(userID), strings.TrimSpace(orderID)).
		First(&receipt).Error
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// ListByUser returns the newest receipts first, starting after cursor when
// given. limit rows are fetched as is; callers add the page buffer.
func (r *Repository) ListByUser(ctx context.Context, userID string, cursor *pagination.Cursor, limit int) ([]models.CheckoutReceipt, error) {
	query := r.DB(ctx).Where("user_id = ?", strings.TrimSpace(userID))
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}
	var rows []models.CheckoutReceipt
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
