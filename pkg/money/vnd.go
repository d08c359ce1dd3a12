// Package money formats and parses the store's integer VND amounts.
package money

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// StackThreshold is the total from which the cart footer stacks label and value.
const StackThreshold int64 = 1_000_000

const currencySymbol = "đ"

// FormatVND renders an amount as "1.234.000 đ".
func FormatVND(amount int64) string {
	digits := decimal.NewFromInt(amount).Abs().StringFixed(0)
	var b strings.Builder
	if amount < 0 {
		b.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += 3 {
		b.WriteByte('.')
		b.WriteString(digits[i : i+3])
	}
	b.WriteByte(' ')
	b.WriteString(currencySymbol)
	return b.String()
}

// Stacked reports whether a total is large enough for the stacked footer layout.
func Stacked(total int64) bool {
	return total >= StackThreshold
}

// Amount is an integer VND value decoded leniently from the backend, which
// sends prices as JSON numbers, decimal strings or floats.
type Amount int64

func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "" || raw == "null" {
		*a = 0
		return nil
	}
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*a = 0
			return nil
		}
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	*a = Amount(d.Round(0).IntPart())
	return nil
}

func (a Amount) Int64() int64 {
	return int64(a)
}

// Mul returns unit price times quantity.
func Mul(unit int64, qty int) int64 {
	return decimal.NewFromInt(unit).Mul(decimal.NewFromInt(int64(qty))).IntPart()
}
