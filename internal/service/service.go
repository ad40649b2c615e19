package service

import (
	"context"
	"time"

	"promo-service/internal/model"

	"github.com/google/uuid"
)

// PromotionService defines promotion catalog management and the quote and
// redemption flow exposed to checkout callers.
type PromotionService interface {
	// CreatePromotion validates and stores a new promotion definition.
	CreatePromotion(ctx context.Context, req *model.PromotionRequest) (*model.Promotion, error)

	// UpdatePromotion validates and replaces an existing promotion.
	UpdatePromotion(ctx context.Context, id uuid.UUID, req *model.PromotionRequest) (*model.Promotion, error)

	// GetPromotion retrieves a single promotion.
	GetPromotion(ctx context.Context, id uuid.UUID) (*model.Promotion, error)

	// ListPromotions retrieves the catalog, optionally restricted to
	// currently active promotions.
	ListPromotions(ctx context.Context, activeOnly bool) ([]model.Promotion, error)

	// DeletePromotion removes an unused promotion. Promotions with usage
	// records cannot be deleted.
	DeletePromotion(ctx context.Context, id uuid.UUID) error

	// Quote returns the promotions eligible for the order together with
	// the discount each would yield, ranked best first. It reads only;
	// calling it repeatedly without a redemption yields identical results.
	Quote(ctx context.Context, order *model.OrderContext, sortByComputed bool) ([]model.Quote, error)

	// Redeem commits a promotion against an order, re-checking the usage
	// limit atomically. On success a usage record is appended.
	Redeem(ctx context.Context, req *model.RedeemRequest) (*model.UsageRecord, error)

	// UsageStats aggregates the ledger for one promotion.
	UsageStats(ctx context.Context, promotionID uuid.UUID, from, to *time.Time) (*model.UsageStats, error)

	// UsageReport aggregates usage across the whole catalog.
	UsageReport(ctx context.Context, from, to *time.Time) ([]model.PromotionUsageReport, error)
}
