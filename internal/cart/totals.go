package cart

import "github.com/angelmondragon/storefront-bff/pkg/money"

// Totals summarizes the selected rows for the cart footer and checkout.
type Totals struct {
	ItemCount      int    `json:"itemCount"`
	TotalPrice     int64  `json:"totalPrice"`
	FormattedTotal string `json:"formattedTotal"`
	// Stacked selects the footer layout with label above value.
	Stacked bool `json:"stacked"`
}

// ComputeTotals sums quantity and unit price times quantity over selected
// rows. It is recomputed on every read and never cached.
func ComputeTotals(groups []ShopGroup) Totals {
	var t Totals
	for _, group := range groups {
		for _, item := range group.Items {
			if !item.Selected {
				continue
			}
			t.ItemCount += item.Quantity
			t.TotalPrice += money.Mul(item.UnitPrice, item.Quantity)
		}
	}
	t.FormattedTotal = money.FormatVND(t.TotalPrice)
	t.Stacked = money.Stacked(t.TotalPrice)
	return t
}
