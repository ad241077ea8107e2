package domain

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// EffectivePrice applies a percentage discount and rounds half-to-even to
// two places. A zero discount returns the list price unchanged. The sale
// window is not consulted here.
func EffectivePrice(price decimal.Decimal, discount int) decimal.Decimal {
	if discount == 0 {
		return price
	}
	d := decimal.NewFromInt(int64(discount))
	return price.Sub(price.Mul(d).Div(hundred)).RoundBank(2)
}

func LineTotal(unitPrice decimal.Decimal, count int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(count)))
}

type PricedLine struct {
	UnitPrice decimal.Decimal
	Count     int
}

func BasketTotal(lines []PricedLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(LineTotal(l.UnitPrice, l.Count))
	}
	return total
}
