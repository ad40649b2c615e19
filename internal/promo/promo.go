package promo

import (
	"context"

	"promo-service/internal/model"

	"github.com/google/uuid"
)

// UsageCounter reports how many times a promotion has been redeemed. A nil
// customerID counts redemptions across all customers.
type UsageCounter interface {
	Count(ctx context.Context, promotionID uuid.UUID, customerID *string) (int64, error)
}

// Evaluator filters a set of promotions down to those eligible for an order.
type Evaluator interface {
	// Eligible returns the promotions whose structural and temporal
	// conditions hold for the order, preserving catalog order. It is
	// read-only and safe to call repeatedly.
	Eligible(ctx context.Context, promotions []model.Promotion, order *model.OrderContext) ([]model.Promotion, error)
}

// Calculator computes the discount an eligible promotion yields.
type Calculator interface {
	// Discount returns the discount amount for the promotion applied to
	// the order, rounded to two decimal places and never negative. It does
	// not re-validate eligibility; that is the caller's responsibility.
	Discount(promotion *model.Promotion, order *model.OrderContext) (float64, error)
}
