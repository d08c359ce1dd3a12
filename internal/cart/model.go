package cart

import (
	"strings"

	"github.com/angelmondragon/storefront-bff/pkg/backend"
)

// keySeparator joins product and SKU ids in a line-item key.
const keySeparator = "+"

// LineItem is one cart row as mirrored from the commerce backend.
type LineItem struct {
	ProductID    string `json:"productId"`
	ShopID       string `json:"shopId"`
	SKUID        string `json:"skuId,omitempty"`
	Quantity     int    `json:"quantity"`
	UnitPrice    int64  `json:"unitPrice"`
	VariantLabel string `json:"variantLabel,omitempty"`
	Name         string `json:"name"`
	Thumb        string `json:"thumb,omitempty"`
}

// Key addresses the row: the product id, or product id + SKU id when the
// product has variants.
func (i LineItem) Key() string {
	return ItemKey(i.ProductID, i.SKUID)
}

func ItemKey(productID, skuID string) string {
	productID = strings.TrimSpace(productID)
	skuID = strings.TrimSpace(skuID)
	if skuID == "" {
		return productID
	}
	return productID + keySeparator + skuID
}

// SplitKey is the inverse of ItemKey.
func SplitKey(key string) (productID, skuID string) {
	productID, skuID, _ = strings.Cut(key, keySeparator)
	return productID, skuID
}

// ItemsFromBackend converts a backend cart snapshot.
func ItemsFromBackend(c *backend.Cart) []LineItem {
	if c == nil {
		return nil
	}
	items := make([]LineItem, 0, len(c.Products))
	for _, p := range c.Products {
		items = append(items, LineItem{
			ProductID:    p.ProductID,
			ShopID:       p.ShopID,
			SKUID:        p.SKUID,
			Quantity:     p.Quantity,
			UnitPrice:    p.Price.Int64(),
			VariantLabel: p.Options,
			Name:         p.Name,
			Thumb:        p.Thumb,
		})
	}
	return items
}
