package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupByShopKeepsFirstEncounterOrder(t *testing.T) {
	items := []LineItem{
		item("shop-b", "p1", "", 1, 10),
		item("shop-a", "p2", "s1", 1, 20),
		item("shop-b", "p3", "", 2, 30),
		item("shop-a", "p2", "s2", 1, 25),
	}
	selected := map[string]bool{"p1": true, "p2+s1": true, "p3": false, "p2+s2": true}

	groups := GroupByShop(items, selected, map[string]string{"shop-a": "Alpha"})

	require.Len(t, groups, 2)
	assert.Equal(t, "shop-b", groups[0].ShopID)
	assert.Equal(t, DefaultShopName, groups[0].ShopName)
	assert.False(t, groups[0].Selected)
	assert.Equal(t, int64(10), groups[0].Subtotal)

	assert.Equal(t, "shop-a", groups[1].ShopID)
	assert.Equal(t, "Alpha", groups[1].ShopName)
	assert.True(t, groups[1].Selected)
	require.Len(t, groups[1].Items, 2)
	assert.Equal(t, "p2+s1", groups[1].Items[0].Key)
	assert.Equal(t, "p2+s2", groups[1].Items[1].Key)
	assert.Equal(t, int64(45), groups[1].Subtotal)
}

func TestRemovingOnlyItemDropsShop(t *testing.T) {
	s := twoShopSession()
	before := BuildView(s, nil)
	require.Len(t, before.Shops, 2)
	assert.Equal(t, int64(1_100_000), before.Totals.TotalPrice)

	require.True(t, s.Remove("p3"))
	after := BuildView(s, nil)

	require.Len(t, after.Shops, 1)
	assert.Equal(t, "shop-a", after.Shops[0].ShopID)
	assert.Equal(t, int64(200_000), after.Totals.TotalPrice)
	assert.Equal(t, 3, after.Totals.ItemCount)
	assert.False(t, after.Totals.Stacked)
}
