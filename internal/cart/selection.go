package cart

import (
	pkgerrors "github.com/angelmondragon/storefront-bff/pkg/errors"
)

// Selection flags live on items only. Shop and cart level flags are derived
// on every read so the three levels cannot drift apart.

// IsSelected reports the leaf flag of one row.
func (s *Session) IsSelected(key string) bool {
	return s.Selected[key]
}

// ShopSelected is true iff the shop has items and all of them are selected.
func (s *Session) ShopSelected(shopID string) bool {
	found := false
	for _, item := range s.Items {
		if item.ShopID != shopID {
			continue
		}
		found = true
		if !s.Selected[item.Key()] {
			return false
		}
	}
	return found
}

// AllSelected is true iff the cart has items and all of them are selected.
// An empty cart has nothing to check out and reports false.
func (s *Session) AllSelected() bool {
	if len(s.Items) == 0 {
		return false
	}
	for _, item := range s.Items {
		if !s.Selected[item.Key()] {
			return false
		}
	}
	return true
}

// ToggleItem flips one row that must belong to shopID.
func (s *Session) ToggleItem(shopID, productID, skuID string) error {
	key := ItemKey(productID, skuID)
	item, ok := s.Item(key)
	if !ok || item.ShopID != shopID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found in shop")
	}
	s.ensureSelection()
	s.Selected[key] = !s.Selected[key]
	return nil
}

// ToggleShop sets every row of the shop to the inverse of the shop's flag.
func (s *Session) ToggleShop(shopID string) error {
	if !s.hasShop(shopID) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "shop not found in cart")
	}
	target := !s.ShopSelected(shopID)
	s.ensureSelection()
	for _, item := range s.Items {
		if item.ShopID == shopID {
			s.Selected[item.Key()] = target
		}
	}
	return nil
}

// ToggleAll sets every row to the inverse of the cart-level flag.
func (s *Session) ToggleAll() {
	target := !s.AllSelected()
	s.ensureSelection()
	for _, item := range s.Items {
		s.Selected[item.Key()] = target
	}
}

// SelectedItems returns selected rows in cart order.
func (s *Session) SelectedItems() []LineItem {
	out := make([]LineItem, 0, len(s.Items))
	for _, item := range s.Items {
		if s.Selected[item.Key()] {
			out = append(out, item)
		}
	}
	return out
}

func (s *Session) hasShop(shopID string) bool {
	for _, item := range s.Items {
		if item.ShopID == shopID {
			return true
		}
	}
	return false
}

func (s *Session) ensureSelection() {
	if s.Selected == nil {
		s.Selected = make(map[string]bool, len(s.Items))
	}
}
