package cart

import "github.com/angelmondragon/storefront-bff/pkg/money"

// DefaultShopName is shown until the shop directory resolves the real name.
const DefaultShopName = "Shop"

// GroupItem is a line item with its leaf selection flag.
type GroupItem struct {
	LineItem
	Key       string `json:"key"`
	Selected  bool   `json:"selected"`
	LineTotal int64  `json:"lineTotal"`
}

// ShopGroup collects the rows of one shop. Selected is derived.
type ShopGroup struct {
	ShopID   string      `json:"shopId"`
	ShopName string      `json:"shopName"`
	Items    []GroupItem `json:"items"`
	Selected bool        `json:"selected"`
	Subtotal int64       `json:"subtotal"`
}

// GroupByShop projects rows into shop groups ordered by first appearance of
// each shop. Subtotal covers selected rows only. Shops without rows never
// appear.
func GroupByShop(items []LineItem, selected map[string]bool, names map[string]string) []ShopGroup {
	groups := make([]ShopGroup, 0)
	index := make(map[string]int)
	for _, item := range items {
		at, ok := index[item.ShopID]
		if !ok {
			at = len(groups)
			index[item.ShopID] = at
			groups = append(groups, ShopGroup{
				ShopID:   item.ShopID,
				ShopName: shopName(names, item.ShopID),
				Selected: true,
			})
		}
		key := item.Key()
		isSelected := selected[key]
		lineTotal := money.Mul(item.UnitPrice, item.Quantity)
		group := &groups[at]
		group.Items = append(group.Items, GroupItem{
			LineItem:  item,
			Key:       key,
			Selected:  isSelected,
			LineTotal: lineTotal,
		})
		group.Selected = group.Selected && isSelected
		if isSelected {
			group.Subtotal += lineTotal
		}
	}
	return groups
}

func shopName(names map[string]string, shopID string) string {
	if name, ok := names[shopID]; ok && name != "" {
		return name
	}
	return DefaultShopName
}
