package promo

import (
	"math"

	"promo-service/internal/model"
)

// calculator implements Calculator. It is stateless and safe for
// concurrent use.
type calculator struct{}

// NewCalculator creates a new discount calculator.
func NewCalculator() Calculator {
	return calculator{}
}

// Discount computes the discount for a single promotion and order.
func (calculator) Discount(p *model.Promotion, order *model.OrderContext) (float64, error) {
	var amount float64

	switch p.DiscountType {
	case model.DiscountPercentage:
		amount = order.OrderAmount * p.DiscountValue / 100
		if p.MaxDiscount > 0 && amount > p.MaxDiscount {
			amount = p.MaxDiscount
		}

	case model.DiscountFixed:
		// Deliberately not capped by the order subtotal; a fixed discount
		// larger than the order is the caller's pricing decision.
		amount = p.DiscountValue

	case model.DiscountBOGO:
		amount = bogoDiscount(p, order)

	default:
		return 0, model.ErrInvalidDiscountType
	}

	if amount < 0 {
		amount = 0
	}

	return round2(amount), nil
}

// bogoDiscount grants one free unit per pair of qualifying units. Only
// items named in the promotion's applicable list participate; with an
// empty list there is nothing to match and the discount is zero.
func bogoDiscount(p *model.Promotion, order *model.OrderContext) float64 {
	var total float64
	for _, itemID := range p.ApplicableItems {
		for _, line := range order.Items {
			if line.ItemID == itemID && line.Quantity >= 2 {
				total += line.UnitPrice * float64(line.Quantity/2)
			}
		}
	}
	return total
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
