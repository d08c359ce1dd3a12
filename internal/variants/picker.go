package variants

import "fmt"

// Picker is the state of the change-variant sheet: a selection, the SKU it
// resolves to and the quantity to apply.
type Picker struct {
	resolver  *Resolver
	selection []int
	quantity  int
	current   Resolution
}

// PickerState is a read-only snapshot of a Picker.
type PickerState struct {
	Selection    []int     `json:"selection"`
	Quantity     int       `json:"quantity"`
	Match        MatchKind `json:"match"`
	SKU          *SKU      `json:"sku,omitempty"`
	Label        string    `json:"label,omitempty"`
	CanIncrement bool      `json:"canIncrement"`
	CanDecrement bool      `json:"canDecrement"`
	CanConfirm   bool      `json:"canConfirm"`
	BlockReason  string    `json:"blockReason,omitempty"`
}

// NewPicker opens a picker at the resolver's initial selection with quantity 1.
func NewPicker(r *Resolver) *Picker {
	p := &Picker{
		resolver:  r,
		selection: r.InitialSelection(),
		quantity:  1,
	}
	p.current = r.Resolve(p.selection)
	p.quantity = clampQuantity(p.quantity, p.current.SKU)
	return p
}

// Select chooses option on axis. Other axes keep their choices.
func (p *Picker) Select(axis, option int) error {
	if axis < 0 || axis >= len(p.selection) {
		return fmt.Errorf("axis %d out of range", axis)
	}
	if option < 0 || option >= len(p.resolver.variations[axis].Options) {
		return fmt.Errorf("option %d out of range for %q", option, p.resolver.variations[axis].Name)
	}
	p.selection[axis] = option
	p.refresh()
	return nil
}

// Apply replaces the whole selection and the requested quantity at once.
func (p *Picker) Apply(selection []int, quantity int) error {
	if err := p.resolver.Validate(selection); err != nil {
		return err
	}
	p.selection = append([]int(nil), selection...)
	p.current = p.resolver.Resolve(p.selection)
	p.quantity = clampQuantity(quantity, p.current.SKU)
	return nil
}

// refresh re-resolves and clamps quantity when the match moves to another SKU.
func (p *Picker) refresh() {
	previous := p.current.SKU
	p.current = p.resolver.Resolve(p.selection)
	next := p.current.SKU
	if next == nil {
		return
	}
	if previous == nil || previous.ID != next.ID {
		p.quantity = clampQuantity(p.quantity, next)
	}
}

// Increment adds one unit when the resolved SKU has stock for it.
func (p *Picker) Increment() bool {
	if !p.CanIncrement() {
		return false
	}
	p.quantity++
	return true
}

// Decrement removes one unit, never going below 1.
func (p *Picker) Decrement() bool {
	if p.quantity <= 1 {
		return false
	}
	p.quantity--
	return true
}

func (p *Picker) CanIncrement() bool {
	sku := p.current.SKU
	return sku != nil && p.quantity < sku.Stock
}

// CanConfirm is false without a SKU or when the SKU is out of stock.
func (p *Picker) CanConfirm() bool {
	sku := p.current.SKU
	return sku != nil && sku.InStock()
}

func (p *Picker) Quantity() int {
	return p.quantity
}

func (p *Picker) Selection() []int {
	return append([]int(nil), p.selection...)
}

func (p *Picker) Resolution() Resolution {
	return p.current
}

func (p *Picker) State() PickerState {
	return PickerState{
		Selection:    p.Selection(),
		Quantity:     p.quantity,
		Match:        p.current.Kind,
		SKU:          p.current.SKU,
		Label:        p.resolver.Label(p.selection),
		CanIncrement: p.CanIncrement(),
		CanDecrement: p.quantity > 1,
		CanConfirm:   p.CanConfirm(),
		BlockReason:  p.current.BlockReason,
	}
}

// clampQuantity keeps qty within the SKU's stock and never below 1.
func clampQuantity(qty int, sku *SKU) int {
	if sku != nil && qty > sku.Stock {
		qty = sku.Stock
	}
	if qty < 1 {
		qty = 1
	}
	return qty
}
