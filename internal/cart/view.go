package cart

// View is what the client renders for the cart screen.
type View struct {
	CartID      string      `json:"cartId"`
	Shops       []ShopGroup `json:"shops"`
	AllSelected bool        `json:"allSelected"`
	Totals      Totals      `json:"totals"`
}

// BuildView derives groups, flags and totals from the session.
func BuildView(s *Session, names map[string]string) *View {
	groups := GroupByShop(s.Items, s.Selected, names)
	return &View{
		CartID:      s.CartID,
		Shops:       groups,
		AllSelected: s.AllSelected(),
		Totals:      ComputeTotals(groups),
	}
}

// ShopIDs lists distinct shop ids in first-encounter order.
func (s *Session) ShopIDs() []string {
	seen := make(map[string]struct{}, len(s.Items))
	ids := make([]string, 0)
	for _, item := range s.Items {
		if _, ok := seen[item.ShopID]; ok {
			continue
		}
		seen[item.ShopID] = struct{}{}
		ids = append(ids, item.ShopID)
	}
	return ids
}
