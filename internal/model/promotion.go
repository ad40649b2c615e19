package model

import (
	"time"

	"github.com/google/uuid"
)

// DiscountType identifies the discount model a promotion uses.
// The set of valid types is closed; raw strings are checked once at the
// ingestion boundary via ParseDiscountType.
type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
	DiscountBOGO       DiscountType = "buy_one_get_one"
)

// ParseDiscountType converts a raw string into a DiscountType.
// Returns ErrInvalidDiscountType for anything outside the closed set.
func ParseDiscountType(s string) (DiscountType, error) {
	switch t := DiscountType(s); t {
	case DiscountPercentage, DiscountFixed, DiscountBOGO:
		return t, nil
	default:
		return "", ErrInvalidDiscountType
	}
}

// Promotion is a time-boxed, conditionally-scoped discount rule.
type Promotion struct {
	ID            uuid.UUID    `json:"id" db:"id"`
	Name          string       `json:"name" db:"name"`
	Description   string       `json:"description" db:"description"`
	DiscountType  DiscountType `json:"discountType" db:"discount_type"`
	DiscountValue float64      `json:"discountValue" db:"discount_value"`

	// MinOrderAmount is the smallest order subtotal that qualifies. Zero
	// means no minimum.
	MinOrderAmount float64 `json:"minOrderAmount" db:"min_order_amount"`

	// MaxDiscount caps percentage discounts. Zero means uncapped. Ignored
	// for fixed and buy-one-get-one promotions.
	MaxDiscount float64 `json:"maxDiscount" db:"max_discount"`

	// StartDate and EndDate bound the validity window at day granularity,
	// inclusive on both ends.
	StartDate time.Time `json:"startDate" db:"start_date"`
	EndDate   time.Time `json:"endDate" db:"end_date"`

	// ApplicableCategories and ApplicableItems restrict which orders
	// qualify. An empty list means unrestricted. When both are non-empty
	// the order must satisfy each list independently.
	ApplicableCategories []string `json:"applicableCategories" db:"applicable_categories"`
	ApplicableItems      []string `json:"applicableItems" db:"applicable_items"`

	// UsageLimit bounds redemptions, per customer when a customer id is
	// known and globally otherwise. Zero means unlimited.
	UsageLimit int `json:"usageLimit" db:"usage_limit"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// ActiveAt reports whether the promotion's validity window contains t.
// Comparison is by UTC calendar day, inclusive on both ends.
func (p *Promotion) ActiveAt(t time.Time) bool {
	day := dateOnly(t)
	return !day.Before(dateOnly(p.StartDate)) && !day.After(dateOnly(p.EndDate))
}

// dateOnly strips the time-of-day component in UTC.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// PromotionRequest is the payload for creating or updating a promotion.
type PromotionRequest struct {
	Name                 string    `json:"name"`
	Description          string    `json:"description"`
	DiscountType         string    `json:"discountType"`
	DiscountValue        float64   `json:"discountValue"`
	MinOrderAmount       float64   `json:"minOrderAmount"`
	MaxDiscount          float64   `json:"maxDiscount"`
	StartDate            time.Time `json:"startDate"`
	EndDate              time.Time `json:"endDate"`
	ApplicableCategories []string  `json:"applicableCategories"`
	ApplicableItems      []string  `json:"applicableItems"`
	UsageLimit           int       `json:"usageLimit"`
}
