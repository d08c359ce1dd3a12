package dto

// ToggleItemRequest flips the selection of one cart row.
type ToggleItemRequest struct {
	ShopID    string `json:"shopId" validate:"required"`
	ProductID string `json:"productId" validate:"required"`
	SKUID     string `json:"skuId"`
}

// ChangeVariantRequest carries the confirmed picker state for a row.
type ChangeVariantRequest struct {
	Selection []int `json:"selection" validate:"required,min=1,dive,min=0"`
	Quantity  int   `json:"quantity" validate:"required,min=1"`
}

// AddItemRequest puts a product into the cart. Selection is empty for
// products without variations.
type AddItemRequest struct {
	ProductID string `json:"productId" validate:"required,max=64"`
	Selection []int  `json:"selection" validate:"omitempty,dive,min=0"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}
