package cart

import (
	"testing"

	"github.com/angelmondragon/storefront-bff/pkg/backend"
	"github.com/angelmondragon/storefront-bff/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItemKey(t *testing.T) {
	assert.Equal(t, "p1", ItemKey("p1", ""))
	assert.Equal(t, "p1+s1", ItemKey(" p1 ", "s1"))

	productID, skuID := SplitKey("p1+s1")
	assert.Equal(t, "p1", productID)
	assert.Equal(t, "s1", skuID)

	productID, skuID = SplitKey("p1")
	assert.Equal(t, "p1", productID)
	assert.Empty(t, skuID)
}

func TestNewSessionSelectsEverything(t *testing.T) {
	s := twoShopSession()
	require.Len(t, s.Items, 3)
	for _, it := range s.Items {
		assert.True(t, s.IsSelected(it.Key()), it.Key())
	}
	assert.True(t, s.AllSelected())
}

func TestNormalizeMergesDuplicateKeys(t *testing.T) {
	s := NewSession("u", "c", []LineItem{
		item("shop-a", "p1", "s1", 1, 10),
		item("shop-a", "p1", "s2", 1, 10),
		item("shop-a", "p1", "s1", 2, 10),
		item("shop-a", "", "", 1, 10),
		item("shop-a", "p4", "", 0, 10),
	}, fixedNow)

	require.Len(t, s.Items, 2)
	assert.Equal(t, "p1+s1", s.Items[0].Key())
	assert.Equal(t, 3, s.Items[0].Quantity)
	assert.Equal(t, "p1+s2", s.Items[1].Key())
}

func TestReplaceResetsSelection(t *testing.T) {
	s := twoShopSession()
	require.NoError(t, s.ToggleShop("shop-b"))
	s.Replace(s.Items)
	assert.True(t, s.AllSelected())
}

func TestReconcileKeepsSurvivingSelection(t *testing.T) {
	s := twoShopSession()
	require.NoError(t, s.ToggleItem("shop-b", "p3", ""))

	s.Reconcile([]LineItem{
		item("shop-a", "p1", "", 1, 100_000),
		item("shop-b", "p3", "", 4, 900_000),
		item("shop-c", "p9", "", 1, 10),
	})

	assert.True(t, s.IsSelected("p1"))
	assert.False(t, s.IsSelected("p3"))
	assert.True(t, s.IsSelected("p9"))
	_, ok := s.Selected["p2+s1"]
	assert.False(t, ok)
}

func TestSetQuantityAndRemove(t *testing.T) {
	s := twoShopSession()
	assert.True(t, s.SetQuantity("p2+s1", 5))
	got, ok := s.Item("p2+s1")
	require.True(t, ok)
	assert.Equal(t, 5, got.Quantity)

	assert.True(t, s.SetQuantity("p1", 0))
	_, ok = s.Item("p1")
	assert.False(t, ok)
	_, ok = s.Selected["p1"]
	assert.False(t, ok)

	assert.False(t, s.Remove("missing"))
	assert.False(t, s.SetQuantity("missing", 2))
}

func TestItemsFromBackend(t *testing.T) {
	items := ItemsFromBackend(&backend.Cart{
		ID: "cart-1",
		Products: []backend.CartItem{{
			ProductID: "p1",
			ShopID:    "shop-a",
			Quantity:  2,
			Name:      "Shirt",
			Price:     money.Amount(120_000),
			Options:   "Size: M",
			SKUID:     "s2",
		}},
	})
	require.Len(t, items, 1)
	assert.Equal(t, "p1+s2", items[0].Key())
	assert.Equal(t, int64(120_000), items[0].UnitPrice)
	assert.Equal(t, "Size: M", items[0].VariantLabel)

	assert.Nil(t, ItemsFromBackend(nil))
}
