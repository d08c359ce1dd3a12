package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-bff/pkg/db"
)

// ErrDuplicate is returned by Insert when a unique constraint rejects the row.
var ErrDuplicate = errors.New("duplicate row")

// Base is embedded by gorm-backed repositories.
type Base struct {
	db *gorm.DB
}

func NewBase(conn *gorm.DB) Base {
	return Base{db: conn}
}

// DB returns the connection bound to ctx; a nil ctx returns it unbound.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Insert creates value, mapping a violation of constraint to ErrDuplicate.
func (b Base) Insert(ctx context.Context, value any, constraint string) error {
	if err := b.DB(ctx).Create(value).Error; err != nil {
		if db.IsUniqueViolation(err, constraint) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}
