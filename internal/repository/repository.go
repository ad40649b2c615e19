package repository

import (
	"context"
	"time"

	"promo-service/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PromotionRepository defines the interface for promotion catalog access.
type PromotionRepository interface {
	// Create inserts a new promotion.
	Create(ctx context.Context, p *model.Promotion) error

	// Update replaces an existing promotion's definition.
	// Returns model.ErrPromotionNotFound if the id does not exist.
	Update(ctx context.Context, p *model.Promotion) error

	// GetByID retrieves a single promotion. Returns nil, nil when the
	// promotion does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Promotion, error)

	// List retrieves promotions, newest first. With activeOnly set, only
	// promotions whose validity window contains asOf are returned.
	List(ctx context.Context, activeOnly bool, asOf time.Time) ([]model.Promotion, error)

	// Delete removes a promotion definition.
	// Returns model.ErrPromotionNotFound if the id does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

// UsageRepository defines the interface for the append-only usage ledger.
// There are no update or delete operations; the ledger is an audit trail.
type UsageRepository interface {
	// BeginTx starts a new database transaction for an atomic redemption.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// LockPromotion loads a promotion inside the transaction and takes a
	// row-level lock on it, serialising concurrent redemptions of the same
	// promotion. Returns nil, nil when the promotion does not exist.
	LockPromotion(ctx context.Context, tx pgx.Tx, promotionID uuid.UUID) (*model.Promotion, error)

	// CountTx counts usage records inside the transaction, scoped to the
	// customer when customerID is non-nil and globally otherwise.
	CountTx(ctx context.Context, tx pgx.Tx, promotionID uuid.UUID, customerID *string) (int64, error)

	// Insert appends a usage record inside the transaction.
	Insert(ctx context.Context, tx pgx.Tx, rec *model.UsageRecord) error

	// Count counts usage records outside any transaction, with the same
	// customer scoping rules as CountTx.
	Count(ctx context.Context, promotionID uuid.UUID, customerID *string) (int64, error)

	// HasUsage reports whether any usage record exists for the promotion.
	HasUsage(ctx context.Context, promotionID uuid.UUID) (bool, error)

	// Stats aggregates usage count and total discount for one promotion,
	// optionally bounded by a used-at range.
	Stats(ctx context.Context, promotionID uuid.UUID, from, to *time.Time) (*model.UsageStats, error)

	// Report aggregates usage per promotion across the whole catalog,
	// ordered by total discount given, highest first.
	Report(ctx context.Context, from, to *time.Time) ([]model.PromotionUsageReport, error)
}
