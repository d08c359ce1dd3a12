package cart

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront-bff/pkg/backend"
	pkgerrors "github.com/angelmondragon/storefront-bff/pkg/errors"
	"github.com/angelmondragon/storefront-bff/pkg/logger"
	"github.com/angelmondragon/storefront-bff/pkg/metrics"
	"github.com/angelmondragon/storefront-bff/pkg/money"
)

// Service exposes the cart screen operations over a per-user session.
type Service interface {
	Load(ctx context.Context, caller backend.Caller) (*View, error)
	View(ctx context.Context, caller backend.Caller) (*View, error)
	ToggleItem(ctx context.Context, caller backend.Caller, shopID, productID, skuID string) (*View, error)
	ToggleShop(ctx context.Context, caller backend.Caller, shopID string) (*View, error)
	ToggleAll(ctx context.Context, caller backend.Caller) (*View, error)
	Increment(ctx context.Context, caller backend.Caller, key string) (*View, error)
	Decrement(ctx context.Context, caller backend.Caller, key string) (*View, error)
	Delete(ctx context.Context, caller backend.Caller, key string) (*View, error)
	ChangeVariant(ctx context.Context, caller backend.Caller, key string, input ChangeVariantInput) (*View, error)
	Add(ctx context.Context, caller backend.Caller, input AddItemInput) (*View, error)
	Snapshot(ctx context.Context, caller backend.Caller) (*Session, error)
	Discard(ctx context.Context, userID string) error
}

// ChangeVariantInput is the picker selection submitted for a row.
type ChangeVariantInput struct {
	Selection []int `json:"selection" validate:"required"`
	Quantity  int   `json:"quantity" validate:"min=1"`
}

// AddItemInput is a product, with the picker selection for products sold by
// SKU, to put into the cart.
type AddItemInput struct {
	ProductID string `json:"productId" validate:"required"`
	Selection []int  `json:"selection"`
	Quantity  int    `json:"quantity" validate:"min=1"`
}

// ServiceParams names the cart service collaborators.
type ServiceParams struct {
	Backend  CommerceBackend
	Store    SessionStore
	Locker   ItemLocker
	Shops    ShopNamer
	Variants VariantEvaluator
	Logger   *logger.Logger
	Metrics  *metrics.CartMetrics
	Now      func() time.Time
}

type service struct {
	backend  CommerceBackend
	store    SessionStore
	locker   ItemLocker
	shops    ShopNamer
	variants VariantEvaluator
	logg     *logger.Logger
	metrics  *metrics.CartMetrics
	now      func() time.Time
}

// sessionPatch applies the local effect of a successful backend mutation.
type sessionPatch func(s *Session)

func NewService(params ServiceParams) (Service, error) {
	if params.Backend == nil {
		return nil, fmt.Errorf("commerce backend required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("session store required")
	}
	if params.Locker == nil {
		return nil, fmt.Errorf("item locker required")
	}
	if params.Shops == nil {
		return nil, fmt.Errorf("shop namer required")
	}
	if params.Variants == nil {
		return nil, fmt.Errorf("variant evaluator required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		backend:  params.Backend,
		store:    params.Store,
		locker:   params.Locker,
		shops:    params.Shops,
		variants: params.Variants,
		logg:     params.Logger,
		metrics:  params.Metrics,
		now:      now,
	}, nil
}

// Load fetches the backend cart and rebuilds the session from it.
func (s *service) Load(ctx context.Context, caller backend.Caller) (*View, error) {
	session, err := s.load(ctx, caller)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, caller, session), nil
}

// View serves the stored session, loading it on a miss.
func (s *service) View(ctx context.Context, caller backend.Caller) (*View, error) {
	session, err := s.session(ctx, caller)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, caller, session), nil
}

func (s *service) ToggleItem(ctx context.Context, caller backend.Caller, shopID, productID, skuID string) (*View, error) {
	return s.updateSelection(ctx, caller, func(session *Session) error {
		return session.ToggleItem(strings.TrimSpace(shopID), strings.TrimSpace(productID), strings.TrimSpace(skuID))
	})
}

func (s *service) ToggleShop(ctx context.Context, caller backend.Caller, shopID string) (*View, error) {
	return s.updateSelection(ctx, caller, func(session *Session) error {
		return session.ToggleShop(strings.TrimSpace(shopID))
	})
}

func (s *service) ToggleAll(ctx context.Context, caller backend.Caller) (*View, error) {
	return s.updateSelection(ctx, caller, func(session *Session) error {
		session.ToggleAll()
		return nil
	})
}

// Increment adds one unit to the row.
func (s *service) Increment(ctx context.Context, caller backend.Caller, key string) (*View, error) {
	return s.mutateItem(ctx, caller, key, func(item LineItem) (sessionPatch, error) {
		return s.setQuantity(ctx, caller, item, item.Quantity+1)
	})
}

// Decrement removes one unit; at quantity 1 the row is deleted.
func (s *service) Decrement(ctx context.Context, caller backend.Caller, key string) (*View, error) {
	return s.mutateItem(ctx, caller, key, func(item LineItem) (sessionPatch, error) {
		if item.Quantity <= 1 {
			return s.deleteItem(ctx, caller, item)
		}
		return s.setQuantity(ctx, caller, item, item.Quantity-1)
	})
}

func (s *service) Delete(ctx context.Context, caller backend.Caller, key string) (*View, error) {
	return s.mutateItem(ctx, caller, key, func(item LineItem) (sessionPatch, error) {
		return s.deleteItem(ctx, caller, item)
	})
}

// ChangeVariant moves the row to the SKU the selection resolves to and
// repopulates the session from the backend's answer.
func (s *service) ChangeVariant(ctx context.Context, caller backend.Caller, key string, input ChangeVariantInput) (*View, error) {
	return s.mutateItem(ctx, caller, key, func(item LineItem) (sessionPatch, error) {
		eval, err := s.variants.Evaluate(ctx, caller, item.ProductID, input.Selection, input.Quantity)
		if err != nil {
			return nil, err
		}
		state := eval.State
		if !state.CanConfirm || state.SKU == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant cannot be confirmed").
				WithDetails(map[string]any{"blockReason": state.BlockReason})
		}
		if state.SKU.ID == item.SKUID && state.Quantity == item.Quantity {
			return nil, nil
		}

		cart, err := s.backend.UpdateCartItem(ctx, caller, backend.UpdateCartItemRequest{
			ProductID:      item.ProductID,
			ShopID:         item.ShopID,
			Quantity:       state.Quantity,
			OldQuantity:    item.Quantity,
			SKUID:          state.SKU.ID,
			OldSKUID:       item.SKUID,
			ProductOptions: state.Label,
		})
		if err != nil {
			return nil, err
		}
		if cart == nil {
			if cart, err = s.backend.FetchCart(ctx, caller); err != nil {
				return nil, err
			}
		}

		oldKey := item.Key()
		newKey := ItemKey(item.ProductID, state.SKU.ID)
		items := ItemsFromBackend(cart)
		return func(session *Session) {
			wasSelected := session.IsSelected(oldKey)
			_, existed := session.Selected[newKey]
			session.Reconcile(items)
			if newKey != oldKey && !existed {
				if _, ok := session.Item(newKey); ok {
					session.Selected[newKey] = wasSelected
				}
			}
		}, nil
	})
}

// Add resolves the selection, posts the row to the backend and reconciles the
// session with the returned cart. Adding a row that already exists is left to
// the backend, which merges quantities.
func (s *service) Add(ctx context.Context, caller backend.Caller, input AddItemInput) (*View, error) {
	if strings.TrimSpace(caller.UserID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id required")
	}
	productID := strings.TrimSpace(input.ProductID)
	if productID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	eval, err := s.variants.Evaluate(ctx, caller, productID, input.Selection, input.Quantity)
	if err != nil {
		return nil, err
	}

	req := backend.AddCartItemRequest{
		ProductID: productID,
		ShopID:    eval.ShopID,
		Quantity:  input.Quantity,
		Name:      eval.Name,
		Price:     money.Amount(eval.Price),
	}
	if eval.HasSKUs {
		state := eval.State
		if !state.CanConfirm || state.SKU == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant cannot be confirmed").
				WithDetails(map[string]any{"blockReason": state.BlockReason})
		}
		req.SKUID = state.SKU.ID
		req.Quantity = state.Quantity
		req.Price = money.Amount(state.SKU.Price)
		req.ProductOptions = state.Label
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	key := ItemKey(productID, req.SKUID)
	ctx = s.logg.WithCartKey(s.logg.WithUserID(ctx, caller.UserID), key)
	release, acquired, err := s.locker.Acquire(ctx, caller.UserID, key)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire item lock")
	}
	if !acquired {
		s.metrics.IncLockConflict()
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart item is still processing")
	}
	defer release()

	cart, err := s.backend.AddCartItem(ctx, caller, req)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
			s.logg.Warn(ctx, "add to cart outcome unknown; dropping session")
			if dropErr := s.store.Drop(ctx, caller.UserID); dropErr != nil {
				s.logg.Error(ctx, "drop cart session after failed add", dropErr)
			}
		}
		return nil, err
	}
	if cart == nil {
		if cart, err = s.backend.FetchCart(ctx, caller); err != nil {
			return nil, err
		}
	}

	current, err := s.store.Load(ctx, caller.UserID)
	if err != nil || current == nil {
		current = NewSession(caller.UserID, cart.ID, ItemsFromBackend(cart), s.now().UTC())
	} else {
		current.CartID = cart.ID
		current.Reconcile(ItemsFromBackend(cart))
	}
	if err := s.store.Save(ctx, current); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart session")
	}
	return s.view(ctx, caller, current), nil
}

// Snapshot returns the current session for checkout.
func (s *service) Snapshot(ctx context.Context, caller backend.Caller) (*Session, error) {
	return s.session(ctx, caller)
}

// Discard drops the session; the next read re-fetches from the backend.
func (s *service) Discard(ctx context.Context, userID string) error {
	if err := s.store.Drop(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "drop cart session")
	}
	return nil
}

func (s *service) setQuantity(ctx context.Context, caller backend.Caller, item LineItem, qty int) (sessionPatch, error) {
	if _, err := s.backend.UpdateCartItem(ctx, caller, backend.UpdateCartItemRequest{
		ProductID:      item.ProductID,
		ShopID:         item.ShopID,
		Quantity:       qty,
		OldQuantity:    item.Quantity,
		SKUID:          item.SKUID,
		OldSKUID:       item.SKUID,
		ProductOptions: item.VariantLabel,
	}); err != nil {
		return nil, err
	}
	key := item.Key()
	return func(session *Session) {
		session.SetQuantity(key, qty)
	}, nil
}

func (s *service) deleteItem(ctx context.Context, caller backend.Caller, item LineItem) (sessionPatch, error) {
	if _, err := s.backend.DeleteCartItem(ctx, caller, backend.DeleteCartItemRequest{
		ProductID: item.ProductID,
		SKUID:     item.SKUID,
	}); err != nil {
		return nil, err
	}
	key := item.Key()
	return func(session *Session) {
		session.Remove(key)
	}, nil
}

// mutateItem runs fn under the row's processing lock on the row as stored once
// the lock is held. The patch fn returns is
// applied to the freshest stored session so concurrent mutations on other rows
// are not overwritten.
func (s *service) mutateItem(ctx context.Context, caller backend.Caller, key string, fn func(item LineItem) (sessionPatch, error)) (*View, error) {
	key = strings.TrimSpace(key)
	ctx = s.logg.WithCartKey(s.logg.WithUserID(ctx, caller.UserID), key)

	session, err := s.session(ctx, caller)
	if err != nil {
		return nil, err
	}
	item, ok := session.Item(key)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}

	release, acquired, err := s.locker.Acquire(ctx, caller.UserID, key)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire item lock")
	}
	if !acquired {
		s.metrics.IncLockConflict()
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart item is still processing")
	}
	defer release()

	// A mutation that held the lock before us may have patched the row.
	if session, err = s.session(ctx, caller); err != nil {
		return nil, err
	}
	if item, ok = session.Item(key); !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}

	patch, err := fn(item)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeDependency) {
			s.logg.Warn(ctx, "cart mutation outcome unknown; refetching cart")
			if refetchErr := s.refetch(ctx, caller, session); refetchErr != nil {
				s.logg.Error(ctx, "refetch cart after failed mutation", refetchErr)
			}
		}
		return nil, err
	}
	if patch == nil {
		return s.view(ctx, caller, session), nil
	}

	current, err := s.store.Load(ctx, caller.UserID)
	if err != nil || current == nil {
		current = session
	}
	patch(current)
	if err := s.store.Save(ctx, current); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart session")
	}
	return s.view(ctx, caller, current), nil
}

func (s *service) updateSelection(ctx context.Context, caller backend.Caller, fn func(session *Session) error) (*View, error) {
	session, err := s.session(ctx, caller)
	if err != nil {
		return nil, err
	}
	if err := fn(session); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart session")
	}
	return s.view(ctx, caller, session), nil
}

// session reads the stored session or loads one from the backend.
func (s *service) session(ctx context.Context, caller backend.Caller) (*Session, error) {
	if strings.TrimSpace(caller.UserID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id required")
	}
	session, err := s.store.Load(ctx, caller.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read cart session")
	}
	if session != nil {
		return session, nil
	}
	return s.load(ctx, caller)
}

func (s *service) load(ctx context.Context, caller backend.Caller) (*Session, error) {
	if strings.TrimSpace(caller.UserID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user id required")
	}
	cart, err := s.backend.FetchCart(ctx, caller)
	if err != nil {
		return nil, err
	}
	var cartID string
	if cart != nil {
		cartID = cart.ID
	}
	session := NewSession(caller.UserID, cartID, ItemsFromBackend(cart), s.now().UTC())
	if err := s.store.Save(ctx, session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save cart session")
	}
	return session, nil
}

// refetch reconciles the stored session with the backend after a mutation
// whose outcome is unknown.
func (s *service) refetch(ctx context.Context, caller backend.Caller, fallback *Session) error {
	s.metrics.IncRefetch()
	cart, err := s.backend.FetchCart(ctx, caller)
	if err != nil {
		return err
	}
	current, err := s.store.Load(ctx, caller.UserID)
	if err != nil || current == nil {
		current = fallback
	}
	if cart != nil {
		current.CartID = cart.ID
	}
	current.Reconcile(ItemsFromBackend(cart))
	current.LoadedAt = s.now().UTC()
	return s.store.Save(ctx, current)
}

func (s *service) view(ctx context.Context, caller backend.Caller, session *Session) *View {
	names := s.shops.Names(ctx, caller, session.ShopIDs())
	return BuildView(session, names)
}
