package variants

import (
	"fmt"
	"strconv"
	"strings"
)

// Unselected marks an axis the shopper has not chosen yet.
const Unselected = -1

// MatchKind tells how a selection was resolved.
type MatchKind string

const (
	MatchNone   MatchKind = "none"
	MatchSingle MatchKind = "single"
	MatchExact  MatchKind = "exact"
	// MatchPartial means the exact tuple is missing from the SKU list and a
	// SKU agreeing on the chosen axes was used instead. It points at
	// inconsistent catalog data.
	MatchPartial MatchKind = "partial"
)

// Block reasons surfaced to the client.
const (
	ReasonSelectAll  = "select all options"
	ReasonOutOfStock = "out of stock"
)

// Resolution is the outcome of resolving one selection.
type Resolution struct {
	SKU         *SKU      `json:"sku,omitempty"`
	Kind        MatchKind `json:"match"`
	BlockReason string    `json:"blockReason,omitempty"`
}

// Resolved reports whether a SKU was found, regardless of stock.
func (r Resolution) Resolved() bool {
	return r.SKU != nil
}

// Resolver maps selections to SKUs for one product. It is immutable after
// construction and safe for concurrent use.
type Resolver struct {
	variations []Variation
	skus       []SKU
	byTuple    map[string]int
	duplicates [][]int
}

// NewResolver indexes skus by their tier tuple. When two SKUs share a tuple
// the first one in list order wins.
func NewResolver(variations []Variation, skus []SKU) *Resolver {
	r := &Resolver{
		variations: variations,
		skus:       skus,
		byTuple:    make(map[string]int, len(skus)),
	}
	for i, sku := range skus {
		key := TupleKey(sku.TierIndex)
		if _, taken := r.byTuple[key]; taken {
			r.duplicates = append(r.duplicates, append([]int(nil), sku.TierIndex...))
			continue
		}
		r.byTuple[key] = i
	}
	return r
}

// NewProductResolver is a shorthand for NewResolver(p.Variations, p.SKUs).
func NewProductResolver(p Product) *Resolver {
	return NewResolver(p.Variations, p.SKUs)
}

// TupleKey is the canonical encoding of a tier tuple, e.g. "0,1".
func TupleKey(tiers []int) string {
	parts := make([]string, len(tiers))
	for i, t := range tiers {
		parts[i] = strconv.Itoa(t)
	}
	return strings.Join(parts, ",")
}

// Variations returns the product's axes.
func (r *Resolver) Variations() []Variation {
	return r.variations
}

// Duplicates lists tier tuples shared by more than one SKU.
func (r *Resolver) Duplicates() [][]int {
	return r.duplicates
}

// InitialSelection is Unselected per axis, pre-seeded to 0 where an axis has
// exactly one option.
func (r *Resolver) InitialSelection() []int {
	selection := make([]int, len(r.variations))
	for i, v := range r.variations {
		if len(v.Options) == 1 {
			selection[i] = 0
		} else {
			selection[i] = Unselected
		}
	}
	return selection
}

// Validate checks that selection has one entry per axis and that every
// chosen option exists.
func (r *Resolver) Validate(selection []int) error {
	if len(selection) != len(r.variations) {
		return fmt.Errorf("selection has %d axes, product has %d", len(selection), len(r.variations))
	}
	for i, option := range selection {
		if option == Unselected {
			continue
		}
		if option < 0 || option >= len(r.variations[i].Options) {
			return fmt.Errorf("option %d out of range for %q", option, r.variations[i].Name)
		}
	}
	return nil
}

// Complete reports whether every axis has a choice.
func (r *Resolver) Complete(selection []int) bool {
	if len(selection) < len(r.variations) {
		return false
	}
	for i := range r.variations {
		if selection[i] == Unselected {
			return false
		}
	}
	return true
}

// Resolve maps a selection to at most one SKU. It is a pure function of the
// resolver's data and the selection.
func (r *Resolver) Resolve(selection []int) Resolution {
	if len(r.skus) == 1 {
		return r.withStock(Resolution{SKU: &r.skus[0], Kind: MatchSingle})
	}
	if len(r.skus) == 0 || !r.Complete(selection) {
		return Resolution{Kind: MatchNone, BlockReason: ReasonSelectAll}
	}

	chosen := selection[:len(r.variations)]
	if idx, ok := r.byTuple[TupleKey(chosen)]; ok {
		return r.withStock(Resolution{SKU: &r.skus[idx], Kind: MatchExact})
	}

	for i := range r.skus {
		if matchesChosen(r.skus[i].TierIndex, chosen) {
			return r.withStock(Resolution{SKU: &r.skus[i], Kind: MatchPartial})
		}
	}
	return Resolution{Kind: MatchNone, BlockReason: ReasonSelectAll}
}

// Label renders the chosen options as "Color: Red, Size: M". Unselected
// axes are skipped.
func (r *Resolver) Label(selection []int) string {
	parts := make([]string, 0, len(r.variations))
	for i, v := range r.variations {
		if i >= len(selection) {
			break
		}
		option := selection[i]
		if option < 0 || option >= len(v.Options) {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", v.Name, v.Options[option]))
	}
	return strings.Join(parts, ", ")
}

// SelectionFor returns the selection that points at the SKU with skuID, or
// the initial selection when the SKU is unknown.
func (r *Resolver) SelectionFor(skuID string) []int {
	for _, sku := range r.skus {
		if sku.ID == skuID && len(sku.TierIndex) == len(r.variations) {
			return append([]int(nil), sku.TierIndex...)
		}
	}
	return r.InitialSelection()
}

func (r *Resolver) withStock(res Resolution) Resolution {
	if res.SKU != nil && !res.SKU.InStock() {
		res.BlockReason = ReasonOutOfStock
	}
	return res
}

// matchesChosen compares only the axes the shopper picked.
func matchesChosen(tiers, chosen []int) bool {
	for i, option := range chosen {
		if option == Unselected {
			continue
		}
		if i >= len(tiers) || tiers[i] != option {
			return false
		}
	}
	return true
}
