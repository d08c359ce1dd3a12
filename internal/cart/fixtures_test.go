package cart

import "time"

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func item(shopID, productID, skuID string, qty int, price int64) LineItem {
	return LineItem{
		ProductID: productID,
		ShopID:    shopID,
		SKUID:     skuID,
		Quantity:  qty,
		UnitPrice: price,
		Name:      productID,
	}
}

// twoShopSession has shop-a with two rows and shop-b with one row.
func twoShopSession() *Session {
	return NewSession("user-1", "cart-1", []LineItem{
		item("shop-a", "p1", "", 1, 100_000),
		item("shop-a", "p2", "s1", 2, 50_000),
		item("shop-b", "p3", "", 1, 900_000),
	}, fixedNow)
}
