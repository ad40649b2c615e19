package repository

import (
	"context"
	"fmt"
	"time"

	"promo-service/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// usageRepository implements UsageRepository using PostgreSQL. The
// promotion_usage table is append-only; nothing here updates or deletes.
type usageRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewUsageRepository creates a new PostgreSQL-backed usage ledger.
func NewUsageRepository(pool *pgxpool.Pool, logger zerolog.Logger) UsageRepository {
	return &usageRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "usage").Logger(),
	}
}

// BeginTx starts a new database transaction.
func (r *usageRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// LockPromotion loads the promotion row FOR UPDATE so the usage-limit
// check and the subsequent insert act as a single unit against concurrent
// redemptions of the same promotion.
func (r *usageRepository) LockPromotion(ctx context.Context, tx pgx.Tx, promotionID uuid.UUID) (*model.Promotion, error) {
	query := `SELECT ` + promotionColumns + ` FROM promotions WHERE id = $1 FOR UPDATE`

	p, err := scanPromotion(tx.QueryRow(ctx, query, promotionID))
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("promotion_id", promotionID.String()).Msg("promotion not found for lock")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("promotion_id", promotionID.String()).Msg("failed to lock promotion")
		return nil, fmt.Errorf("failed to lock promotion: %w", err)
	}

	return p, nil
}

// CountTx counts usage records within the transaction.
func (r *usageRepository) CountTx(ctx context.Context, tx pgx.Tx, promotionID uuid.UUID, customerID *string) (int64, error) {
	query, args := countQuery(promotionID, customerID)

	var count int64
	if err := tx.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		r.logger.Error().Err(err).Str("promotion_id", promotionID.String()).Msg("failed to count usage in transaction")
		return 0, fmt.Errorf("failed to count usage: %w", err)
	}

	return count, nil
}

// Insert appends a usage record within the transaction.
func (r *usageRepository) Insert(ctx context.Context, tx pgx.Tx, rec *model.UsageRecord) error {
	query := `
		INSERT INTO promotion_usage (id, promotion_id, order_id, customer_id, discount_amount, used_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := tx.Exec(ctx, query, rec.ID, rec.PromotionID, rec.OrderID, rec.CustomerID, rec.DiscountAmount, rec.UsedAt)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("promotion_id", rec.PromotionID.String()).
			Str("order_id", rec.OrderID.String()).
			Msg("failed to insert usage record")
		return fmt.Errorf("failed to insert usage record: %w", err)
	}

	r.logger.Debug().
		Str("promotion_id", rec.PromotionID.String()).
		Str("order_id", rec.OrderID.String()).
		Msg("usage record appended")

	return nil
}

// Count counts usage records outside any transaction.
func (r *usageRepository) Count(ctx context.Context, promotionID uuid.UUID, customerID *string) (int64, error) {
	query, args := countQuery(promotionID, customerID)

	var count int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		r.logger.Error().Err(err).Str("promotion_id", promotionID.String()).Msg("failed to count usage")
		return 0, fmt.Errorf("failed to count usage: %w", err)
	}

	return count, nil
}

// HasUsage reports whether any usage record exists for the promotion.
func (r *usageRepository) HasUsage(ctx context.Context, promotionID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM promotion_usage WHERE promotion_id = $1)`

	var used bool
	if err := r.pool.QueryRow(ctx, query, promotionID).Scan(&used); err != nil {
		r.logger.Error().Err(err).Str("promotion_id", promotionID.String()).Msg("failed to check usage existence")
		return false, fmt.Errorf("failed to check usage existence: %w", err)
	}

	return used, nil
}

// Stats aggregates usage for one promotion, optionally bounded by used_at.
func (r *usageRepository) Stats(ctx context.Context, promotionID uuid.UUID, from, to *time.Time) (*model.UsageStats, error) {
	query := `
		SELECT COUNT(*), COALESCE(SUM(discount_amount), 0)
		FROM promotion_usage
		WHERE promotion_id = $1
	`
	args := []any{promotionID}

	if from != nil {
		args = append(args, *from)
		query += fmt.Sprintf(" AND used_at >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		query += fmt.Sprintf(" AND used_at <= $%d", len(args))
	}

	var stats model.UsageStats
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&stats.UsageCount, &stats.TotalDiscountGiven); err != nil {
		r.logger.Error().Err(err).Str("promotion_id", promotionID.String()).Msg("failed to query usage stats")
		return nil, fmt.Errorf("failed to query usage stats: %w", err)
	}

	return &stats, nil
}

// Report aggregates usage per promotion across the whole catalog.
// Promotions without any redemptions appear with zero counts.
func (r *usageRepository) Report(ctx context.Context, from, to *time.Time) ([]model.PromotionUsageReport, error) {
	// Date bounds live in the join condition so promotions without
	// redemptions in the window still appear with zero counts.
	join := `LEFT JOIN promotion_usage pu ON p.id = pu.promotion_id`
	var args []any

	if from != nil {
		args = append(args, *from)
		join += fmt.Sprintf(" AND pu.used_at >= $%d", len(args))
	}
	if to != nil {
		args = append(args, *to)
		join += fmt.Sprintf(" AND pu.used_at <= $%d", len(args))
	}

	query := `
		SELECT p.id, p.name, p.discount_type, p.discount_value,
			COUNT(pu.id), COALESCE(SUM(pu.discount_amount), 0)
		FROM promotions p
		` + join

	query += `
		GROUP BY p.id, p.name, p.discount_type, p.discount_value
		ORDER BY COALESCE(SUM(pu.discount_amount), 0) DESC
	`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query usage report")
		return nil, fmt.Errorf("failed to query usage report: %w", err)
	}
	defer rows.Close()

	var report []model.PromotionUsageReport
	for rows.Next() {
		var row model.PromotionUsageReport
		err := rows.Scan(&row.PromotionID, &row.Name, &row.DiscountType, &row.DiscountValue,
			&row.UsageCount, &row.TotalDiscountGiven)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan usage report row")
			return nil, fmt.Errorf("failed to scan usage report: %w", err)
		}
		report = append(report, row)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating usage report rows")
		return nil, fmt.Errorf("error iterating usage report: %w", err)
	}

	return report, nil
}

// countQuery builds the usage count query, scoped to the customer when one
// is supplied and global otherwise.
func countQuery(promotionID uuid.UUID, customerID *string) (string, []any) {
	query := `SELECT COUNT(*) FROM promotion_usage WHERE promotion_id = $1`
	args := []any{promotionID}

	if customerID != nil {
		query += ` AND customer_id = $2`
		args = append(args, *customerID)
	}

	return query, args
}
