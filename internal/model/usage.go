package model

import (
	"time"

	"github.com/google/uuid"
)

// UsageRecord is one redemption of a promotion against an order. Records
// are append-only; they are never updated or deleted.
type UsageRecord struct {
	ID             uuid.UUID `json:"id" db:"id"`
	PromotionID    uuid.UUID `json:"promotionId" db:"promotion_id"`
	OrderID        uuid.UUID `json:"orderId" db:"order_id"`
	CustomerID     *string   `json:"customerId,omitempty" db:"customer_id"`
	DiscountAmount float64   `json:"discountAmount" db:"discount_amount"`
	UsedAt         time.Time `json:"usedAt" db:"used_at"`
}

// UsageStats aggregates the ledger for a single promotion.
type UsageStats struct {
	UsageCount         int64   `json:"usageCount"`
	TotalDiscountGiven float64 `json:"totalDiscountGiven"`
}

// PromotionUsageReport is one row of the catalog-wide usage report.
type PromotionUsageReport struct {
	PromotionID        uuid.UUID    `json:"promotionId"`
	Name               string       `json:"name"`
	DiscountType       DiscountType `json:"discountType"`
	DiscountValue      float64      `json:"discountValue"`
	UsageCount         int64        `json:"usageCount"`
	TotalDiscountGiven float64      `json:"totalDiscountGiven"`
}

// RedeemRequest is the payload for committing a promotion against an order.
type RedeemRequest struct {
	PromotionID    uuid.UUID `json:"promotionId"`
	OrderID        uuid.UUID `json:"orderId"`
	CustomerID     *string   `json:"customerId,omitempty"`
	DiscountAmount float64   `json:"discountAmount"`
}
