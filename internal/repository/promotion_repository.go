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

// promotionRepository implements PromotionRepository using PostgreSQL.
type promotionRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPromotionRepository creates a new PostgreSQL-backed promotion repository.
func NewPromotionRepository(pool *pgxpool.Pool, logger zerolog.Logger) PromotionRepository {
	return &promotionRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "promotion").Logger(),
	}
}

const promotionColumns = `id, name, description, discount_type, discount_value,
	min_order_amount, max_discount, start_date, end_date,
	applicable_categories, applicable_items, usage_limit, created_at, updated_at`

// Create inserts a new promotion.
func (r *promotionRepository) Create(ctx context.Context, p *model.Promotion) error {
	query := `
		INSERT INTO promotions (id, name, description, discount_type, discount_value,
			min_order_amount, max_discount, start_date, end_date,
			applicable_categories, applicable_items, usage_limit, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.Name, p.Description, p.DiscountType, p.DiscountValue,
		p.MinOrderAmount, p.MaxDiscount, p.StartDate, p.EndDate,
		p.ApplicableCategories, p.ApplicableItems, p.UsageLimit, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("promotion_id", p.ID.String()).Msg("failed to create promotion")
		return fmt.Errorf("failed to create promotion: %w", err)
	}

	r.logger.Debug().Str("promotion_id", p.ID.String()).Str("name", p.Name).Msg("promotion created")

	return nil
}

// Update replaces an existing promotion's definition.
func (r *promotionRepository) Update(ctx context.Context, p *model.Promotion) error {
	query := `
		UPDATE promotions SET
			name = $2, description = $3, discount_type = $4, discount_value = $5,
			min_order_amount = $6, max_discount = $7, start_date = $8, end_date = $9,
			applicable_categories = $10, applicable_items = $11, usage_limit = $12,
			updated_at = $13
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		p.ID, p.Name, p.Description, p.DiscountType, p.DiscountValue,
		p.MinOrderAmount, p.MaxDiscount, p.StartDate, p.EndDate,
		p.ApplicableCategories, p.ApplicableItems, p.UsageLimit, p.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("promotion_id", p.ID.String()).Msg("failed to update promotion")
		return fmt.Errorf("failed to update promotion: %w", err)
	}

	if tag.RowsAffected() == 0 {
		r.logger.Debug().Str("promotion_id", p.ID.String()).Msg("promotion not found for update")
		return model.ErrPromotionNotFound
	}

	return nil
}

// GetByID retrieves a single promotion by its ID.
func (r *promotionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Promotion, error) {
	query := `SELECT ` + promotionColumns + ` FROM promotions WHERE id = $1`

	p, err := scanPromotion(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("promotion_id", id.String()).Msg("promotion not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("promotion_id", id.String()).Msg("failed to query promotion")
		return nil, fmt.Errorf("failed to query promotion: %w", err)
	}

	return p, nil
}

// List retrieves promotions, newest first, optionally filtered to those
// active on the given day.
func (r *promotionRepository) List(ctx context.Context, activeOnly bool, asOf time.Time) ([]model.Promotion, error) {
	query := `SELECT ` + promotionColumns + ` FROM promotions`
	var args []any

	if activeOnly {
		query += ` WHERE start_date <= $1::date AND end_date >= $1::date`
		args = append(args, asOf)
	}

	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Bool("active_only", activeOnly).Msg("failed to query promotions")
		return nil, fmt.Errorf("failed to query promotions: %w", err)
	}
	defer rows.Close()

	var promotions []model.Promotion
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan promotion row")
			return nil, fmt.Errorf("failed to scan promotion: %w", err)
		}
		promotions = append(promotions, *p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating promotion rows")
		return nil, fmt.Errorf("error iterating promotions: %w", err)
	}

	return promotions, nil
}

// Delete removes a promotion definition.
func (r *promotionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM promotions WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("promotion_id", id.String()).Msg("failed to delete promotion")
		return fmt.Errorf("failed to delete promotion: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrPromotionNotFound
	}

	r.logger.Debug().Str("promotion_id", id.String()).Msg("promotion deleted")

	return nil
}

// scanPromotion scans one promotion row from a pgx.Row or pgx.Rows.
func scanPromotion(row pgx.Row) (*model.Promotion, error) {
	var p model.Promotion
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.DiscountType, &p.DiscountValue,
		&p.MinOrderAmount, &p.MaxDiscount, &p.StartDate, &p.EndDate,
		&p.ApplicableCategories, &p.ApplicableItems, &p.UsageLimit, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
