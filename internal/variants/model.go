package variants

import "github.com/angelmondragon/storefront-bff/pkg/backend"

// Variation is one axis of choice, e.g. Color with Red and Blue.
type Variation struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

// SKU is a concrete purchasable combination. TierIndex[i] is the option
// position on Variations[i].
type SKU struct {
	ID        string `json:"id"`
	TierIndex []int  `json:"tierIndex"`
	Price     int64  `json:"price"`
	Stock     int    `json:"stock"`
	Image     string `json:"image,omitempty"`
}

// InStock reports whether at least one unit can be bought.
func (s SKU) InStock() bool {
	return s.Stock > 0
}

// Product is the subset of product detail the picker needs.
type Product struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Thumb      string      `json:"thumb,omitempty"`
	ShopID     string      `json:"shopId"`
	Price      int64       `json:"price"`
	Variations []Variation `json:"variations"`
	SKUs       []SKU       `json:"skus"`
}

// FromBackend converts the backend product detail.
func FromBackend(p *backend.Product) Product {
	if p == nil {
		return Product{}
	}
	variations := make([]Variation, 0, len(p.Variations))
	for _, v := range p.Variations {
		variations = append(variations, Variation{Name: v.Name, Options: append([]string(nil), v.Options...)})
	}
	skus := make([]SKU, 0, len(p.SKUs))
	for _, s := range p.SKUs {
		skus = append(skus, SKU{
			ID:        s.ID,
			TierIndex: append([]int(nil), s.TierIndex...),
			Price:     s.Price.Int64(),
			Stock:     s.Stock,
			Image:     s.Image,
		})
	}
	return Product{
		ID:         p.ID,
		Name:       p.Name,
		Thumb:      p.Thumb,
		ShopID:     p.ShopID,
		Price:      p.Price.Int64(),
		Variations: variations,
		SKUs:       skus,
	}
}
