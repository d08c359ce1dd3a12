package cart

import (
	"time"
)

// Session is the transient mirror of the backend cart plus the shopper's
// checkout selection. It is rebuilt on every load and never authoritative.
type Session struct {
	UserID   string          `json:"userId"`
	CartID   string          `json:"cartId"`
	Items    []LineItem      `json:"items"`
	Selected map[string]bool `json:"selected"`
	LoadedAt time.Time       `json:"loadedAt"`
}

// NewSession builds a session from a fresh backend fetch.
func NewSession(userID, cartID string, items []LineItem, now time.Time) *Session {
	s := &Session{UserID: userID, CartID: cartID, LoadedAt: now}
	s.Replace(items)
	return s
}

// Replace rebuilds the item list; every item starts selected.
func (s *Session) Replace(items []LineItem) {
	s.Items = normalizeItems(items)
	s.Selected = make(map[string]bool, len(s.Items))
	for _, item := range s.Items {
		s.Selected[item.Key()] = true
	}
}

// Reconcile rebuilds the item list but keeps the selection of rows that
// survived. New rows start selected.
func (s *Session) Reconcile(items []LineItem) {
	previous := s.Selected
	s.Items = normalizeItems(items)
	s.Selected = make(map[string]bool, len(s.Items))
	for _, item := range s.Items {
		selected, known := previous[item.Key()]
		s.Selected[item.Key()] = selected || !known
	}
}

// Item returns the row with key.
func (s *Session) Item(key string) (LineItem, bool) {
	for _, item := range s.Items {
		if item.Key() == key {
			return item, true
		}
	}
	return LineItem{}, false
}

// SetQuantity patches one row after a successful mutation. qty <= 0 removes it.
func (s *Session) SetQuantity(key string, qty int) bool {
	if qty <= 0 {
		return s.Remove(key)
	}
	for i := range s.Items {
		if s.Items[i].Key() == key {
			s.Items[i].Quantity = qty
			return true
		}
	}
	return false
}

// Remove drops one row and its selection flag.
func (s *Session) Remove(key string) bool {
	for i := range s.Items {
		if s.Items[i].Key() == key {
			s.Items = append(s.Items[:i], s.Items[i+1:]...)
			delete(s.Selected, key)
			return true
		}
	}
	return false
}

// Empty reports whether the cart has no rows.
func (s *Session) Empty() bool {
	return len(s.Items) == 0
}

// normalizeItems drops empty rows and merges duplicate keys into the first
// occurrence so a key addresses exactly one row.
func normalizeItems(items []LineItem) []LineItem {
	out := make([]LineItem, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		if item.ProductID == "" || item.Quantity <= 0 {
			continue
		}
		if at, ok := index[item.Key()]; ok {
			out[at].Quantity += item.Quantity
			continue
		}
		index[item.Key()] = len(out)
		out = append(out, item)
	}
	return out
}
