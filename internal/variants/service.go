package variants

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront-bff/pkg/backend"
	pkgerrors "github.com/angelmondragon/storefront-bff/pkg/errors"
	"github.com/angelmondragon/storefront-bff/pkg/logger"
)

type productFetcher interface {
	GetProduct(ctx context.Context, caller backend.Caller, productID string) (*backend.Product, error)
}

// Sheet is the opening state of the variant picker for one product.
type Sheet struct {
	Product Product     `json:"product"`
	State   PickerState `json:"state"`
}

// Evaluation is the picker state for a submitted selection, along with the
// product facts needed to put the resolved row into a cart.
type Evaluation struct {
	ProductID string      `json:"productId"`
	ShopID    string      `json:"shopId"`
	Name      string      `json:"name"`
	Thumb     string      `json:"thumb,omitempty"`
	Price     int64       `json:"price"`
	HasSKUs   bool        `json:"hasSkus"`
	State     PickerState `json:"state"`
}

// Service loads product detail and runs the picker against it.
type Service interface {
	Open(ctx context.Context, caller backend.Caller, productID, currentSKUID string) (*Sheet, error)
	Evaluate(ctx context.Context, caller backend.Caller, productID string, selection []int, quantity int) (*Evaluation, error)
}

type service struct {
	products productFetcher
	logg     *logger.Logger
}

func NewService(products productFetcher, logg *logger.Logger) (Service, error) {
	if products == nil {
		return nil, fmt.Errorf("product fetcher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{products: products, logg: logg}, nil
}

// load fetches the product and builds its resolver.
func (s *service) load(ctx context.Context, caller backend.Caller, productID string) (Product, *Resolver, error) {
	raw, err := s.products.GetProduct(ctx, caller, productID)
	if err != nil {
		return Product{}, nil, err
	}
	product := FromBackend(raw)
	resolver := NewProductResolver(product)
	if dups := resolver.Duplicates(); len(dups) > 0 {
		logCtx := s.logg.WithFields(ctx, map[string]any{"product_id": product.ID, "duplicate_tiers": dups})
		s.logg.Warn(logCtx, "product has SKUs sharing a tier index; first SKU wins")
	}
	return product, resolver, nil
}

// Open starts the picker at the SKU currently in the cart when known.
func (s *service) Open(ctx context.Context, caller backend.Caller, productID, currentSKUID string) (*Sheet, error) {
	product, resolver, err := s.load(ctx, caller, productID)
	if err != nil {
		return nil, err
	}
	picker := NewPicker(resolver)
	if currentSKUID != "" {
		if err := picker.Apply(resolver.SelectionFor(currentSKUID), 1); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "apply current sku")
		}
	}
	s.flagPartial(ctx, product.ID, picker.Resolution())
	return &Sheet{Product: product, State: picker.State()}, nil
}

// Evaluate applies a full selection and requested quantity.
func (s *service) Evaluate(ctx context.Context, caller backend.Caller, productID string, selection []int, quantity int) (*Evaluation, error) {
	product, resolver, err := s.load(ctx, caller, productID)
	if err != nil {
		return nil, err
	}
	picker := NewPicker(resolver)
	if err := picker.Apply(selection, quantity); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid variant selection")
	}
	s.flagPartial(ctx, product.ID, picker.Resolution())
	return &Evaluation{
		ProductID: product.ID,
		ShopID:    product.ShopID,
		Name:      product.Name,
		Thumb:     product.Thumb,
		Price:     product.Price,
		HasSKUs:   len(product.SKUs) > 0,
		State:     picker.State(),
	}, nil
}

// flagPartial logs selections that only resolved through the partial fallback.
func (s *service) flagPartial(ctx context.Context, productID string, res Resolution) {
	if res.Kind != MatchPartial || res.SKU == nil {
		return
	}
	logCtx := s.logg.WithFields(ctx, map[string]any{"product_id": productID, "sku_id": res.SKU.ID})
	s.logg.Warn(logCtx, "variant resolved by partial match; sku list does not cover the selection")
}
