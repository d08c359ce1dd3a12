package cart

import (
	"context"

	"github.com/angelmondragon/storefront-bff/internal/variants"
	"github.com/angelmondragon/storefront-bff/pkg/backend"
)

// CommerceBackend is the slice of the backend client the cart needs.
type CommerceBackend interface {
	FetchCart(ctx context.Context, caller backend.Caller) (*backend.Cart, error)
	AddCartItem(ctx context.Context, caller backend.Caller, req backend.AddCartItemRequest) (*backend.Cart, error)
	UpdateCartItem(ctx context.Context, caller backend.Caller, req backend.UpdateCartItemRequest) (*backend.Cart, error)
	DeleteCartItem(ctx context.Context, caller backend.Caller, req backend.DeleteCartItemRequest) (*backend.Cart, error)
}

// VariantEvaluator resolves a variant selection for a product.
type VariantEvaluator interface {
	Evaluate(ctx context.Context, caller backend.Caller, productID string, selection []int, quantity int) (*variants.Evaluation, error)
}

// ShopNamer resolves display names; it never fails and falls back to a
// placeholder per shop.
type ShopNamer interface {
	Names(ctx context.Context, caller backend.Caller, shopIDs []string) map[string]string
}
